package config

import "sort"

// Variable kinds as written in registry sources.
const (
	KindRaw     = "raw"
	KindDerived = "derived"
)

// Model is the unified, format-agnostic representation of a registry
// source. Slices keep declaration order, which breaks priority ties.
type Model struct {
	Variables []*VariableDefinition
	Equations []*EquationDefinition
}

// VariableDefinition is the format-agnostic representation of a `variable`
// block.
type VariableDefinition struct {
	Name    string
	Unit    string
	Aliases []string
	// Kind is KindRaw, KindDerived or empty when the source did not say.
	Kind string
	// Properties are the data-store property names tried in order.
	Properties []string
	Reduction  string
	Default    *float64
	// TimeInvariant variables ignore the query's time period when fetched.
	TimeInvariant bool
	FullName      string
	Description   string
	Format        string
	// Source is "file:line" of the declaration, for diagnostics.
	Source string
	// File is the registry file the declaration came from.
	File string
}

// EquationDefinition is the format-agnostic representation of an
// `equation` block.
type EquationDefinition struct {
	ID      string
	Output  string
	Unit    string
	Formula string
	// Requires is nil when the source omitted it.
	Requires    []string
	Priority    *int
	Description string
	Source      string
	File        string
}

// Merge combines models from different loaders into one declaration order:
// files sorted by path regardless of format, blocks in file order.
func Merge(models ...*Model) *Model {
	out := &Model{}
	for _, m := range models {
		if m == nil {
			continue
		}
		out.Variables = append(out.Variables, m.Variables...)
		out.Equations = append(out.Equations, m.Equations...)
	}
	sort.SliceStable(out.Variables, func(i, j int) bool { return out.Variables[i].File < out.Variables[j].File })
	sort.SliceStable(out.Equations, func(i, j int) bool { return out.Equations[i].File < out.Equations[j].File })
	return out
}
