package hcl_adapter

import (
	"context"
	"fmt"
	"strings"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclwrite"
	"github.com/vk/mgmtgrid/internal/config"
	"github.com/vk/mgmtgrid/internal/ctxlog"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/gocty"
)

// Converter is the HCL implementation of config.Converter.
type Converter struct{}

// NewConverter creates a new HCL converter.
func NewConverter() *Converter {
	return &Converter{}
}

// DecodeArguments decodes a component body into target with gohcl, so
// argument structs use `hcl:"name,optional"` tags.
func (c *Converter) DecodeArguments(ctx context.Context, comp *config.Component, target any) error {
	ctxlog.FromContext(ctx).Debug("Decoding component arguments.", "kind", comp.Kind, "name", comp.Name)
	if comp.Body == nil {
		return nil
	}
	if diags := gohcl.DecodeBody(comp.Body, newEvalContext(), target); diags.HasErrors() {
		return fmt.Errorf("component %q %q: %w", comp.Kind, comp.Name, diags)
	}
	return nil
}

// ToCtyValue converts a native Go value into its corresponding cty.Value.
func (c *Converter) ToCtyValue(v any) (cty.Value, error) {
	if v == nil {
		return cty.NullVal(cty.DynamicPseudoType), nil
	}
	if cv, ok := v.(cty.Value); ok {
		return cv, nil
	}
	ty, err := gocty.ImpliedType(v)
	if err != nil {
		return cty.NilVal, fmt.Errorf("unable to infer cty.Type: %w", err)
	}
	return gocty.ToCtyValue(v, ty)
}

// Format renders v in HCL syntax when it has a cty equivalent, and with its
// String method or %v otherwise.
func (c *Converter) Format(v any) string {
	if s, ok := v.(fmt.Stringer); ok {
		if _, isCty := v.(cty.Value); !isCty {
			return s.String()
		}
	}
	cv, err := c.ToCtyValue(v)
	if err != nil || !cv.IsWhollyKnown() {
		return fmt.Sprintf("%v", v)
	}
	return strings.TrimSpace(string(hclwrite.TokensForValue(cv).Bytes()))
}
