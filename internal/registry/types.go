package registry

import (
	"fmt"

	"github.com/shuvo-dotcom/nfgcalc/internal/formula"
	"github.com/shuvo-dotcom/nfgcalc/internal/units"
)

// DefaultPriority applies to equations that do not declare one.
const DefaultPriority = 100

// Reduction is the policy for collapsing several data records into one
// leaf value.
type Reduction string

const (
	ReduceSum    Reduction = "sum"
	ReduceLatest Reduction = "latest"
	ReduceMean   Reduction = "mean"
	ReduceMax    Reduction = "max"
	ReduceMin    Reduction = "min"
	ReduceSingle Reduction = "single"
)

func parseReduction(s string) (Reduction, error) {
	switch r := Reduction(s); r {
	case "":
		return ReduceSum, nil
	case ReduceSum, ReduceLatest, ReduceMean, ReduceMax, ReduceMin, ReduceSingle:
		return r, nil
	}
	return "", fmt.Errorf("unknown reduction %q", s)
}

// VariableSpec is a canonical variable with its expected unit.
type VariableSpec struct {
	Name    string
	Unit    units.Unit
	Aliases []string
	// Raw variables are answered from data; the rest need an equation.
	Raw           bool
	Properties    []string
	Reduction     Reduction
	Default       *float64
	TimeInvariant bool
	FullName      string
	Description   string
	Format        string
	Source        string
}

// DisplayName is the full name when declared, else the canonical name.
func (v *VariableSpec) DisplayName() string {
	if v.FullName != "" {
		return v.FullName
	}
	return v.Name
}

// Equation is a parsed, immutable equation definition.
type Equation struct {
	ID       string
	Output   string
	Unit     units.Unit
	Formula  string
	Expr     formula.Expr
	Requires []string
	Priority int
	// Order is the declaration index across all sources.
	Order       int
	Description string
	Source      string
}
