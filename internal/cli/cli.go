package cli

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/shuvo-dotcom/nfgcalc/internal/app"
	"github.com/spf13/cobra"
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

const (
	exitFailure = 1
	exitUsage   = 2
)

type configKey struct{}

// NewRootCmd builds the nfgcalc command tree. Results go to outW, logs and
// diagnostics to errW.
func NewRootCmd(outW, errW io.Writer) *cobra.Command {
	var cfgFile string

	root := &cobra.Command{
		Use:   "nfgcalc",
		Short: "Unit-safe evaluation of energy metrics from a formula registry",
		Long: `nfgcalc answers energy-sector metric questions such as "LCOE for
Belgium in 2050" by resolving the metric through a registry of equations,
fetching the raw data it needs, and evaluating the result with physical
units checked at every step. Every answer cites its data and equations.`,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Name() == "help" || cmd.Name() == "completion" {
				return nil
			}
			cfg, err := app.LoadConfig(cfgFile, cmd.Flags())
			if err != nil {
				return &ExitError{Code: exitUsage, Message: err.Error()}
			}
			cmd.SetContext(context.WithValue(cmd.Context(), configKey{}, cfg))
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(outW)
	root.SetErr(errW)

	pf := root.PersistentFlags()
	pf.StringVar(&cfgFile, "config", "", "Path to a YAML config file.")
	pf.StringSliceP("registry", "r", nil, "Registry file or directory (repeatable).")
	pf.String("data-kind", "", "Data store: memory, sqlite or remote.")
	pf.String("data-path", "", "Data fixture (memory) or database DSN (sqlite).")
	pf.String("data-url", "", "Remote data service URL.")
	pf.String("data-namespace", "", "Remote data service socket.io namespace.")
	pf.Duration("data-timeout", 0, "Remote fetch timeout.")
	pf.Int("concurrency", 0, "Maximum concurrent data fetches and batch queries.")
	pf.Bool("prefetch", true, "Fetch all reachable leaves before resolving.")
	pf.String("log-level", "", "Logging level: debug, info, warn or error.")
	pf.String("log-format", "", "Log format: text or json.")

	root.AddCommand(newQueryCmd(), newValidateCmd(), newBatchCmd())
	return root
}

// configFrom returns the configuration loaded by the root command.
func configFrom(cmd *cobra.Command) (*app.Config, error) {
	cfg, ok := cmd.Context().Value(configKey{}).(*app.Config)
	if !ok {
		return nil, fmt.Errorf("configuration not loaded")
	}
	return cfg, nil
}

// Execute runs the command tree with args.
func Execute(ctx context.Context, outW, errW io.Writer, args []string) error {
	root := NewRootCmd(outW, errW)
	root.SetArgs(args)
	err := root.ExecuteContext(ctx)
	if err == nil {
		return nil
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr
	}
	// Flag and argument errors from cobra itself.
	return &ExitError{Code: exitUsage, Message: err.Error()}
}
