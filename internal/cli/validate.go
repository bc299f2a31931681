package cli

import (
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/shuvo-dotcom/nfgcalc/internal/app"
	"github.com/spf13/cobra"
)

func newValidateCmd() *cobra.Command {
	var list bool

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Load and check the equation registry",
		Long: `validate loads every registry file, then checks references, functions
and the dimensional consistency of each formula. Defects are listed and the
command exits non-zero. Dependency cycles are reported as warnings.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := configFrom(cmd)
			if err != nil {
				return err
			}
			ctx := withLogger(cmd, cfg)
			snap, err := app.LoadRegistry(ctx, cfg.Registry)
			if err != nil {
				return &ExitError{Code: exitFailure, Message: err.Error()}
			}

			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "Registry OK: %d variables, %d equations.\n", len(snap.Variables()), len(snap.Equations()))
			if !list {
				return nil
			}

			t := table.NewWriter()
			t.SetOutputMirror(w)
			t.SetStyle(table.StyleLight)
			t.AppendHeader(table.Row{"Equation", "Output", "Unit", "Priority", "Formula"})
			for _, eq := range snap.Equations() {
				t.AppendRow(table.Row{eq.ID, eq.Output, eq.Unit.String(), eq.Priority, eq.Formula})
			}
			t.Render()
			return nil
		},
	}
	cmd.Flags().BoolVar(&list, "list", false, "List every equation after validation.")
	return cmd
}
