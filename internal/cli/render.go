package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/shuvo-dotcom/nfgcalc/internal/app"
	"github.com/shuvo-dotcom/nfgcalc/internal/ctxlog"
	"github.com/shuvo-dotcom/nfgcalc/internal/engine"
	"github.com/spf13/cobra"
)

func withLogger(cmd *cobra.Command, cfg *app.Config) context.Context {
	return ctxlog.WithLogger(cmd.Context(), app.NewLogger(cfg.Log, cmd.ErrOrStderr()))
}

func render(w io.Writer, res *engine.Result, format string) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	case "narrative":
		if !res.OK() {
			_, err := fmt.Fprintln(w, res.Failure.Message)
			return err
		}
		_, err := fmt.Fprintln(w, res.Narrative.String())
		return err
	default:
		renderTables(w, res)
		return nil
	}
}

func renderTables(w io.Writer, res *engine.Result) {
	summary := table.NewWriter()
	summary.SetOutputMirror(w)
	summary.SetStyle(table.StyleLight)
	summary.AppendHeader(table.Row{"Metric", "Entity", "Time", "Value", "Unit"})
	if !res.OK() {
		summary.AppendRow(table.Row{res.Metric, res.Entity, res.Time, "-", res.Failure.Message})
		summary.Render()
		return
	}
	summary.AppendRow(table.Row{res.Metric, res.Entity, res.Time, res.FormattedValue, res.Unit})
	summary.Render()

	trace := table.NewWriter()
	trace.SetOutputMirror(w)
	trace.SetStyle(table.StyleLight)
	trace.SetTitle("Calculation")
	trace.AppendHeader(table.Row{"Variable", "Equation", "Value", "Unit", "Formula"})
	for _, s := range res.Trace {
		trace.AppendRow(table.Row{strings.Repeat("  ", s.Depth) + s.Variable, s.EquationID, fmt.Sprintf("%g", s.Value), s.Unit, s.Formula})
	}
	trace.Render()

	cites := table.NewWriter()
	cites.SetOutputMirror(w)
	cites.SetStyle(table.StyleLight)
	cites.SetTitle("Citations")
	cites.AppendHeader(table.Row{"#", "Kind", "Variable", "Reference", "Source"})
	for i, c := range res.Citations {
		ref := c.ID
		if c.Detail != "" {
			ref = c.Detail
		}
		cites.AppendRow(table.Row{i + 1, c.Kind, c.Variable, ref, c.Source})
	}
	cites.Render()
}
