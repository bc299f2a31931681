package cli

import (
	"fmt"
	"strings"

	"github.com/shuvo-dotcom/nfgcalc/internal/app"
	"github.com/shuvo-dotcom/nfgcalc/internal/calcerr"
	"github.com/shuvo-dotcom/nfgcalc/internal/query"
	"github.com/spf13/cobra"
)

func newQueryCmd() *cobra.Command {
	var (
		q       query.ResolvedQuery
		filters []string
		output  string
	)

	cmd := &cobra.Command{
		Use:   "query",
		Short: "Answer one metric question",
		Example: `  nfgcalc query -r registry --data-path data.yaml --metric lcoe --entity BE --time 2050
  nfgcalc query -r registry --metric "levelized cost of electricity" --entity BE --filter technology=nuclear -o json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			switch output {
			case "table", "json", "narrative":
			default:
				return &ExitError{Code: exitUsage, Message: fmt.Sprintf("invalid output %q: must be table, json or narrative", output)}
			}
			parsed, err := parseFilters(filters)
			if err != nil {
				return &ExitError{Code: exitUsage, Message: err.Error()}
			}
			q.Filters = parsed

			cfg, err := configFrom(cmd)
			if err != nil {
				return err
			}
			a, err := app.NewApp(cmd.Context(), cmd.ErrOrStderr(), cfg)
			if err != nil {
				return &ExitError{Code: exitFailure, Message: err.Error()}
			}
			defer a.Close()

			res, answerErr := a.Answer(cmd.Context(), q)
			if err := render(cmd.OutOrStdout(), res, output); err != nil {
				return err
			}
			if answerErr != nil {
				msg := calcerr.UserMessage(answerErr)
				if !calcerr.IsExpected(answerErr) {
					msg += ": " + answerErr.Error()
				}
				return &ExitError{Code: exitFailure, Message: msg}
			}
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVarP(&q.Metric, "metric", "m", "", "Metric name or alias, e.g. lcoe.")
	f.StringVarP(&q.Entity, "entity", "e", "", "Entity the metric is asked for, e.g. a country code.")
	f.StringVarP(&q.Time, "time", "t", "", "Time period label, e.g. 2050.")
	f.StringArrayVar(&filters, "filter", nil, "Filter as key=value: category or technology (repeatable).")
	f.StringVarP(&output, "output", "o", "table", "Output: table, json or narrative.")
	_ = cmd.MarkFlagRequired("metric")
	_ = cmd.MarkFlagRequired("entity")
	return cmd
}

func parseFilters(raw []string) (map[string]string, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	out := make(map[string]string, len(raw))
	for _, kv := range raw {
		k, v, ok := strings.Cut(kv, "=")
		if !ok || strings.TrimSpace(k) == "" {
			return nil, fmt.Errorf("invalid filter %q: expected key=value", kv)
		}
		out[strings.ToLower(strings.TrimSpace(k))] = strings.TrimSpace(v)
	}
	return out, nil
}
