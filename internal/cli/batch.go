package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/shuvo-dotcom/nfgcalc/internal/app"
	"github.com/spf13/cobra"
)

func newBatchCmd() *cobra.Command {
	var inPath, outPath string

	cmd := &cobra.Command{
		Use:   "batch",
		Short: "Answer a JSONL file of queries concurrently",
		Long: `batch reads one query per line, e.g.
  {"metric": "lcoe", "entity": "BE", "time": "2050", "filters": {"technology": "nuclear"}}
and writes one JSON result per line in the same order. With --watch the
registry is reloaded when its files change; with --healthcheck-port a
/health endpoint is served while the batch runs.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := configFrom(cmd)
			if err != nil {
				return err
			}

			in := cmd.InOrStdin()
			if inPath != "-" {
				f, err := os.Open(inPath)
				if err != nil {
					return &ExitError{Code: exitFailure, Message: err.Error()}
				}
				defer f.Close()
				in = f
			}
			var out io.Writer = cmd.OutOrStdout()
			if outPath != "-" {
				f, err := os.Create(outPath)
				if err != nil {
					return &ExitError{Code: exitFailure, Message: err.Error()}
				}
				defer f.Close()
				out = f
			}

			a, err := app.NewApp(cmd.Context(), cmd.ErrOrStderr(), cfg)
			if err != nil {
				return &ExitError{Code: exitFailure, Message: err.Error()}
			}
			defer a.Close()
			a.Start()

			summary, err := a.RunBatch(cmd.Context(), in, out)
			if err != nil {
				return &ExitError{Code: exitFailure, Message: err.Error()}
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "%d queries: %d answered, %d failed\n", summary.Total, summary.Answered, summary.Failed)
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&inPath, "in", "-", "JSONL file of queries, - for stdin.")
	f.StringVar(&outPath, "out", "-", "JSONL file for results, - for stdout.")
	f.Bool("watch", false, "Reload the registry when its files change.")
	f.Int("healthcheck-port", 0, "Port for the HTTP health check server. 0 is disabled.")
	return cmd
}
