package config

import (
	"context"

	"github.com/zclconf/go-cty/cty"
)

// Loader reads configuration and script files of one format.
type Loader interface {
	// Load merges every configuration file found under paths into a Model
	// and returns the Converter for that format.
	Load(ctx context.Context, paths ...string) (*Model, Converter, error)
	// LoadScripts parses every script file found under paths, in path order.
	LoadScripts(ctx context.Context, paths ...string) ([]*Script, error)
}

// Converter binds format-specific values to Go types and back.
type Converter interface {
	// DecodeArguments decodes the body of c into target, a pointer to the
	// component's argument struct.
	DecodeArguments(ctx context.Context, c *Component, target any) error
	// ToCtyValue converts a native Go value into a cty.Value.
	ToCtyValue(v any) (cty.Value, error)
	// Format renders a result for script output.
	Format(v any) string
}
