package hcl_adapter

import (
	"context"
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/vk/mgmtgrid/internal/config"
	"github.com/vk/mgmtgrid/internal/ctxlog"
	"github.com/zclconf/go-cty/cty"
)

// decodeScript turns the blocks of one script file into commands, keeping
// their source order.
func decodeScript(ctx context.Context, path string, body hcl.Body, evalCtx *hcl.EvalContext) (*config.Script, error) {
	logger := ctxlog.FromContext(ctx)

	content, diags := body.Content(scriptSchema)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode script %s: %w", path, diags)
	}

	script := &config.Script{Path: path}
	if attr, ok := content.Attributes["continue_on_error"]; ok {
		if diags := gohcl.DecodeExpression(attr.Expr, evalCtx, &script.ContinueOnError); diags.HasErrors() {
			return nil, fmt.Errorf("script %s: continue_on_error: %w", path, diags)
		}
	}

	for _, block := range content.Blocks {
		cmd := &config.Command{Kind: config.CommandKind(block.Type), Pos: block.DefRange.String()}
		if len(block.Labels) > 0 {
			cmd.Target = block.Labels[0]
		}

		var err error
		switch cmd.Kind {
		case config.CommandGet:
			err = decodeGet(ctx, block, evalCtx, cmd)
		case config.CommandSet:
			err = decodeSet(block, evalCtx, cmd)
		case config.CommandInvoke:
			err = decodeInvoke(ctx, block, evalCtx, cmd)
		default:
			if diags := gohcl.DecodeBody(block.Body, evalCtx, &emptyBlock{}); diags.HasErrors() {
				err = diags
			}
		}
		if err != nil {
			return nil, fmt.Errorf("%s: %s: %w", cmd.Pos, cmd.Kind, err)
		}
		logger.Debug("Decoded script command.", "command", cmd.String(), "pos", cmd.Pos)
		script.Commands = append(script.Commands, cmd)
	}
	return script, nil
}

func decodeGet(ctx context.Context, block *hcl.Block, evalCtx *hcl.EvalContext, cmd *config.Command) error {
	var b getBlock
	if diags := gohcl.DecodeBody(block.Body, evalCtx, &b); diags.HasErrors() {
		return diags
	}
	expect, err := evalOptional(ctx, b.Expect, "expect", evalCtx)
	if err != nil {
		return err
	}
	cmd.Expect = expect
	return nil
}

func decodeSet(block *hcl.Block, evalCtx *hcl.EvalContext, cmd *config.Command) error {
	var b setBlock
	if diags := gohcl.DecodeBody(block.Body, evalCtx, &b); diags.HasErrors() {
		return diags
	}
	v, diags := b.Value.Value(evalCtx)
	if diags.HasErrors() {
		return diags
	}
	cmd.Value = v
	return nil
}

func decodeInvoke(ctx context.Context, block *hcl.Block, evalCtx *hcl.EvalContext, cmd *config.Command) error {
	var b invokeBlock
	if diags := gohcl.DecodeBody(block.Body, evalCtx, &b); diags.HasErrors() {
		return diags
	}

	args, err := evalOptional(ctx, b.Args, "args", evalCtx)
	if err != nil {
		return err
	}
	if args != cty.NilVal {
		if cmd.Args, err = elements(args); err != nil {
			return fmt.Errorf("args: %w", err)
		}
	}

	switch {
	case b.Signature != nil:
		cmd.Signature = *b.Signature
	case len(cmd.Args) == 0:
		cmd.Signature = "()"
	default:
		return fmt.Errorf("signature is required when args are given")
	}

	cmd.Expect, err = evalOptional(ctx, b.Expect, "expect", evalCtx)
	return err
}
