package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/vk/mgmtgrid/internal/config"
	"github.com/vk/mgmtgrid/internal/ctxlog"
	"github.com/vk/mgmtgrid/internal/invoker"
	"github.com/vk/mgmtgrid/internal/registry"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
)

var (
	// ErrExpectation means a command result differs from its expect value.
	ErrExpectation = errors.New("unexpected result")
	// ErrScriptFailed is returned after a continue_on_error script with
	// failed commands has finished.
	ErrScriptFailed = errors.New("script failed")
)

// RunScripts loads the scripts under paths and executes their commands in
// order against the registry. Each result is printed as "name = value".
func (a *App) RunScripts(ctx context.Context, paths ...string) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	scripts, err := a.loader.LoadScripts(ctx, paths...)
	if err != nil {
		return fmt.Errorf("failed to load scripts: %w", err)
	}
	for _, s := range scripts {
		if err := a.runScript(ctxlog.With(ctx, "script", s.Path), s); err != nil {
			return err
		}
	}
	return nil
}

func (a *App) runScript(ctx context.Context, s *config.Script) error {
	logger := ctxlog.FromContext(ctx)
	logger.Info("Running script.", "commands", len(s.Commands), "continue_on_error", s.ContinueOnError)

	failed := 0
	for _, cmd := range s.Commands {
		out, err := a.execute(ctx, cmd)
		if err != nil {
			failed++
			fmt.Fprintf(a.outW, "%s: error (%s): %v\n", cmd, ErrorClass(err), err)
			logger.Debug("Command failed.", "command", cmd.String(), "pos", cmd.Pos, "error", err)
			if !s.ContinueOnError {
				return fmt.Errorf("%s: %s: %w", cmd.Pos, cmd, err)
			}
			continue
		}
		if out != "" {
			fmt.Fprintln(a.outW, out)
		}
	}
	if failed > 0 {
		return fmt.Errorf("%w: %s: %d of %d commands failed", ErrScriptFailed, s.Path, failed, len(s.Commands))
	}
	logger.Info("Script finished.")
	return nil
}

// execute runs one command and returns its output line.
func (a *App) execute(ctx context.Context, cmd *config.Command) (string, error) {
	reg := a.registry
	switch cmd.Kind {
	case config.CommandGet:
		v, err := reg.Get(cmd.Target)
		if err != nil {
			return "", err
		}
		if err := a.expect(v, cmd.Expect); err != nil {
			return "", err
		}
		return fmt.Sprintf("%s = %s", cmd.Target, a.converter.Format(v)), nil

	case config.CommandSet:
		if err := reg.Set(cmd.Target, cmd.Value); err != nil {
			return "", err
		}
		return fmt.Sprintf("set %s = %s", cmd.Target, a.converter.Format(cmd.Value)), nil

	case config.CommandInvoke:
		args := make([]any, len(cmd.Args))
		for i, arg := range cmd.Args {
			args[i] = arg
		}
		v, err := reg.Invoke(cmd.Target, cmd.Signature, args...)
		if err != nil {
			return "", err
		}
		if err := a.expect(v, cmd.Expect); err != nil {
			return "", err
		}
		return fmt.Sprintf("%s%s = %s", cmd.Target, registry.NormalizeSignature(cmd.Signature), a.converter.Format(v)), nil

	case config.CommandPop:
		d, err := reg.Pop(cmd.Target)
		if err != nil {
			return "", err
		}
		if d == nil {
			return fmt.Sprintf("pop %s = none", cmd.Target), nil
		}
		return fmt.Sprintf("pop %s = %s (%d attributes, %d operations)", cmd.Target, d.Type, len(d.Attributes), len(d.Operations)), nil

	case config.CommandUnpop:
		ok, err := reg.Unpop(cmd.Target)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("unpop %s = %t", cmd.Target, ok), nil

	case config.CommandPopAll:
		ds, err := reg.PopAll()
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("pop_all = %d", len(ds)), nil

	case config.CommandUnpopAll:
		n, err := reg.UnpopAll()
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("unpop_all = %d", n), nil

	case config.CommandDescribe:
		return "", a.Describe(ctx, false)

	default:
		return "", fmt.Errorf("unknown command %q", cmd.Kind)
	}
}

// expect compares result with want after converting it to want's type.
// cty.NilVal means there is nothing to compare.
func (a *App) expect(result any, want cty.Value) error {
	if want == cty.NilVal {
		return nil
	}
	got, err := a.converter.ToCtyValue(result)
	if s, ok := result.(fmt.Stringer); ok && want.Type().Equals(cty.String) {
		got, err = cty.StringVal(s.String()), nil
	}
	if err == nil {
		var converted cty.Value
		if converted, err = convert.Convert(got, want.Type()); err == nil {
			if eq := converted.Equals(want); eq.IsKnown() && eq.True() {
				return nil
			}
		}
	}
	return fmt.Errorf("%w: expected %s, got %s", ErrExpectation, a.converter.Format(want), a.converter.Format(result))
}

// ErrorClass names the category of err for script output.
func ErrorClass(err error) string {
	var panicErr *invoker.PanicError
	switch {
	case errors.Is(err, registry.ErrAttributeNotFound):
		return "attribute not found"
	case errors.Is(err, registry.ErrAttributeNotReadable):
		return "attribute not readable"
	case errors.Is(err, registry.ErrAttributeNotWritable):
		return "attribute not writable"
	case errors.Is(err, registry.ErrOperationNotFound):
		return "operation not found"
	case errors.Is(err, ErrExpectation):
		return "expectation"
	case errors.As(err, &panicErr):
		return "panic"
	case errors.Is(err, invoker.ErrArity), errors.Is(err, invoker.ErrArgumentType):
		return "bad arguments"
	}
	var invErr *invoker.InvocationError
	if errors.As(err, &invErr) {
		return "invocation"
	}
	return "error"
}
