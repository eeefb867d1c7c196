package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"github.com/vk/mgmtgrid/internal/app"
	"github.com/vk/mgmtgrid/internal/config"
	"github.com/vk/mgmtgrid/internal/hcl_adapter"
)

// ExitError is a custom error type that includes a specific exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

func usageError(err error) error {
	return &ExitError{Code: 2, Message: err.Error()}
}

type options struct {
	configPaths []string
	logLevel    string
	logFormat   string
	logW        io.Writer
	loader      config.Loader
}

// appConfig validates the persistent flags.
func (o *options) appConfig() (*app.Config, error) {
	cfg, err := app.NewConfig(app.Config{
		ConfigPaths: o.configPaths,
		LogLevel:    o.logLevel,
		LogFormat:   o.logFormat,
		LogOutput:   o.logW,
	})
	if err != nil {
		return nil, usageError(err)
	}
	return cfg, nil
}

func (o *options) newApp(cmd *cobra.Command) (*app.App, error) {
	cfg, err := o.appConfig()
	if err != nil {
		return nil, err
	}
	return app.NewApp(cmd.OutOrStdout(), cfg, o.loader)
}

// NewRootCommand builds the command tree. Results go to outW and logs to
// errW.
func NewRootCommand(outW, errW io.Writer) *cobra.Command {
	opts := &options{logW: errW, loader: hcl_adapter.NewLoader()}

	root := &cobra.Command{
		Use:   "mgmtgrid",
		Short: "mgmtgrid - a managed object registry driven by HCL",
		Long: `mgmtgrid registers the components declared in HCL configuration as
managed objects and lets scripts read and write their attributes, invoke
their operations and pop poppable attributes into sub-objects.

Commands:
  run       execute management scripts
  describe  print the merged management surface as YAML
  check     verify the registry indices`,
		SilenceErrors: true,
		SilenceUsage:  true,
	}
	root.SetOut(outW)
	root.SetErr(errW)
	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error { return usageError(err) })

	pf := root.PersistentFlags()
	pf.StringSliceVarP(&opts.configPaths, "config", "c", nil, "Configuration file or directory (repeatable).")
	pf.StringVar(&opts.logLevel, "log-level", "", "Logging level: 'debug', 'info', 'warn' or 'error'. Defaults to the logging block.")
	pf.StringVar(&opts.logFormat, "log-format", "", "Log output format: 'text' or 'json'. Defaults to the logging block.")

	root.AddCommand(newRunCommand(opts), newDescribeCommand(opts), newCheckCommand(opts))
	return root
}

func newRunCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "run SCRIPT...",
		Short: "Execute management scripts against the configured components",
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return usageError(fmt.Errorf("run requires at least one script file or directory"))
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.newApp(cmd)
			if err != nil {
				return err
			}
			return a.RunScripts(cmd.Context(), args...)
		},
	}
}

func newDescribeCommand(opts *options) *cobra.Command {
	var pop bool
	cmd := &cobra.Command{
		Use:   "describe",
		Short: "Print the merged descriptor of every managed object as YAML",
		Args:  noArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := opts.newApp(cmd)
			if err != nil {
				return err
			}
			return a.Describe(cmd.Context(), pop)
		},
	}
	cmd.Flags().BoolVar(&pop, "pop", false, "Pop every poppable attribute before describing.")
	return cmd
}

func newCheckCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Load the configuration and verify the registry indices",
		Args:  noArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := opts.newApp(cmd)
			if err != nil {
				return err
			}
			return a.Check()
		},
	}
}

func noArgs(cmd *cobra.Command, args []string) error {
	if err := cobra.NoArgs(cmd, args); err != nil {
		return usageError(err)
	}
	return nil
}

// Execute runs the command tree with args.
func Execute(ctx context.Context, args []string, outW, errW io.Writer) error {
	root := NewRootCommand(outW, errW)
	root.SetArgs(args)
	return root.ExecuteContext(ctx)
}
