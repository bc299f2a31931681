// Package citation turns an evaluated ComputationGraph into provenance: the
// data records and equations that produced the answer, a per-level trace
// and a short narrative.
package citation

import (
	"fmt"
	"strings"

	"github.com/shuvo-dotcom/nfgcalc/internal/graph"
	"github.com/shuvo-dotcom/nfgcalc/internal/query"
	"github.com/shuvo-dotcom/nfgcalc/internal/registry"
)

// Kind says what a citation points at.
type Kind string

const (
	KindData     Kind = "data"
	KindEquation Kind = "equation"
	// KindDefault marks a value taken from the registry's declared default.
	KindDefault Kind = "default"
)

// Citation references one record, equation or default value.
type Citation struct {
	Kind Kind `json:"kind"`
	// ID is the record key, the equation id, or the variable for defaults.
	ID       string `json:"id"`
	Variable string `json:"variable"`
	Source   string `json:"source,omitempty"`
	// Detail is the formula for equations and the record coordinates for data.
	Detail string `json:"detail,omitempty"`
}

// TraceStep is one line of the evaluation trace.
type TraceStep struct {
	Depth      int     `json:"depth"`
	Variable   string  `json:"variable"`
	EquationID string  `json:"equation_id,omitempty"`
	Formula    string  `json:"formula,omitempty"`
	Value      float64 `json:"value"`
	Unit       string  `json:"unit"`
}

// Narrative is the human-readable explanation of a result.
type Narrative struct {
	Summary     string `json:"summary"`
	Methodology string `json:"methodology"`
	DataSources string `json:"data_sources,omitempty"`
	Context     string `json:"context,omitempty"`
}

func (n Narrative) String() string {
	parts := make([]string, 0, 4)
	for _, s := range []string{n.Summary, n.Methodology, n.DataSources, n.Context} {
		if s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, " ")
}

// Report is everything the builder derives from an evaluated graph.
type Report struct {
	FormattedValue string
	Citations      []Citation
	Trace          []TraceStep
	Narrative      Narrative
}

// Build assembles the report of an evaluated graph.
func Build(g *graph.ComputationGraph, q query.ResolvedQuery) (*Report, error) {
	root := g.RootNode()
	if root == nil || !root.Evaluated {
		return nil, fmt.Errorf("computation graph for '%s' is not evaluated", g.Root)
	}
	cites, err := Citations(g)
	if err != nil {
		return nil, err
	}
	formatted := FormatValue(root.Spec, root.Value.Value)
	return &Report{
		FormattedValue: formatted,
		Citations:      cites,
		Trace:          Trace(g),
		Narrative:      buildNarrative(g, q, formatted, cites),
	}, nil
}

// Citations lists the provenance of every node in evaluation order,
// without duplicates.
func Citations(g *graph.ComputationGraph) ([]Citation, error) {
	order, err := g.TopologicalOrder()
	if err != nil {
		return nil, err
	}

	var out []Citation
	seen := make(map[string]bool)
	add := func(c Citation) {
		key := string(c.Kind) + "\x00" + c.ID
		if seen[key] {
			return
		}
		seen[key] = true
		out = append(out, c)
	}

	for _, n := range order {
		switch {
		case n.Equation != nil:
			add(Citation{Kind: KindEquation, ID: n.Equation.ID, Variable: n.Variable, Source: n.Equation.Source, Detail: n.Equation.Formula})
		case n.DefaultUsed:
			add(Citation{Kind: KindDefault, ID: n.Variable, Variable: n.Variable, Source: n.Spec.Source,
				Detail: fmt.Sprintf("%g %s", *n.Spec.Default, n.Spec.Unit)})
		default:
			occurrences := make(map[string]int, len(n.Records))
			for _, r := range n.Records {
				id := r.Key()
				// Records without an ID can share coordinates; each one still
				// contributes to the value and is cited on its own.
				occurrences[id]++
				if k := occurrences[id]; k > 1 {
					id = fmt.Sprintf("%s#%d", id, k)
				}
				detail := fmt.Sprintf("%s for %s", r.Property, r.Child)
				if r.Date != "" {
					detail += " in " + r.Date
				}
				if r.Category != "" {
					detail += " (" + r.Category + ")"
				}
				add(Citation{Kind: KindData, ID: id, Variable: n.Variable, Source: r.Source, Detail: detail})
			}
		}
	}
	return out, nil
}

// Trace lists the graph from the root down, one step per visit.
func Trace(g *graph.ComputationGraph) []TraceStep {
	var steps []TraceStep
	g.Walk(func(n *graph.Node, depth int) {
		step := TraceStep{
			Depth:    depth,
			Variable: n.Variable,
			Value:    n.Value.Value,
			Unit:     n.Value.Unit.String(),
		}
		if n.Equation != nil {
			step.EquationID = n.Equation.ID
			step.Formula = n.Equation.Formula
		}
		steps = append(steps, step)
	})
	return steps
}

// FormatValue renders v with the variable's format, or two decimals for
// currency-bearing units and one otherwise.
func FormatValue(spec *registry.VariableSpec, v float64) string {
	if spec.Format != "" {
		return fmt.Sprintf(spec.Format, v)
	}
	for dim := range spec.Unit.Dims {
		if strings.HasPrefix(dim, "currency:") {
			return fmt.Sprintf("%.2f", v)
		}
	}
	return fmt.Sprintf("%.1f", v)
}

func buildNarrative(g *graph.ComputationGraph, q query.ResolvedQuery, formatted string, cites []Citation) Narrative {
	root := g.RootNode()

	subject := q.Entity
	if c := q.Category(); c != "" {
		subject = c + " in " + q.Entity
	}
	summary := fmt.Sprintf("The %s for %s", root.Spec.DisplayName(), subject)
	if q.Time != "" {
		summary += " in " + q.Time
	}
	summary += fmt.Sprintf(" is %s %s.", formatted, root.Value.Unit)

	methodology := "Taken directly from the data."
	if root.Equation != nil {
		methodology = "Calculated using: " + root.Equation.Formula + "."
	}

	var sources []string
	seen := make(map[string]bool)
	defaults := 0
	for _, c := range cites {
		switch c.Kind {
		case KindData:
			if c.Source != "" && !seen[c.Source] {
				seen[c.Source] = true
				sources = append(sources, c.Source)
			}
		case KindDefault:
			defaults++
		}
	}
	var dataSources string
	if len(sources) > 0 {
		dataSources = "This result is calculated from data in: " + strings.Join(sources, ", ") + "."
	}
	if defaults > 0 {
		dataSources = strings.TrimSpace(dataSources + fmt.Sprintf(" %d input(s) use registry default values.", defaults))
	}

	return Narrative{
		Summary:     summary,
		Methodology: methodology,
		DataSources: dataSources,
		Context:     root.Spec.Description,
	}
}
