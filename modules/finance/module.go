// Package finance provides the capital-recovery functions used by cost
// formulas.
package finance

import (
	"fmt"
	"math"

	"github.com/shuvo-dotcom/nfgcalc/internal/formula"
	"github.com/shuvo-dotcom/nfgcalc/internal/units"
)

var year = units.MustParse("yr")

// Module implements the formula.Module interface for this package.
type Module struct{}

// Register adds crf and annualize.
func (m *Module) Register(f *formula.Functions) {
	f.Register(formula.Function{Name: "crf", MinArgs: 2, MaxArgs: 2, Call: callCRF, Unit: crfUnit})
	f.Register(formula.Function{Name: "annualize", MinArgs: 3, MaxArgs: 3, Call: callAnnualize, Unit: annualizeUnit})
}

// CRF is the capital recovery factor for a discount rate and a lifetime in
// years. A zero rate spreads the investment evenly.
func CRF(rate, years float64) (float64, error) {
	if years <= 0 {
		return 0, fmt.Errorf("crf: lifetime must be positive, got %g", years)
	}
	if rate == 0 {
		return 1 / years, nil
	}
	g := math.Pow(1+rate, years)
	return rate * g / (g - 1), nil
}

// lifetime accepts either a time quantity or a bare number of years.
func lifetime(name string, q units.Quantity) (float64, error) {
	if q.Unit.IsDimensionless() {
		return q.Plain()
	}
	y, err := q.In(year)
	if err != nil {
		return 0, &formula.UnitError{Op: name, Msg: fmt.Sprintf("lifetime must be a duration or a number of years, got %q", q.Unit)}
	}
	return y.Value, nil
}

func callCRF(args []units.Quantity) (units.Quantity, error) {
	rate, err := formula.Plain("crf", args[0])
	if err != nil {
		return units.Quantity{}, err
	}
	n, err := lifetime("crf", args[1])
	if err != nil {
		return units.Quantity{}, err
	}
	v, err := CRF(rate, n)
	if err != nil {
		return units.Quantity{}, err
	}
	return units.Scalar(v), nil
}

// annualize(capex, rate, lifetime) is the yearly payment recovering capex,
// in the unit of capex.
func callAnnualize(args []units.Quantity) (units.Quantity, error) {
	factor, err := callCRF(args[1:])
	if err != nil {
		return units.Quantity{}, fmt.Errorf("annualize: %w", err)
	}
	return args[0].Mul(factor), nil
}

func crfUnit(args []units.Unit, _ []*float64) (units.Unit, error) {
	if !args[0].IsDimensionless() {
		return units.Unit{}, &formula.UnitError{Op: "crf", Msg: fmt.Sprintf("argument must be dimensionless, got %q", args[0])}
	}
	if !args[1].IsDimensionless() && !args[1].Compatible(year) {
		return units.Unit{}, &formula.UnitError{Op: "crf", Msg: fmt.Sprintf("lifetime must be a duration or a number of years, got %q", args[1])}
	}
	return units.Dimensionless, nil
}

func annualizeUnit(args []units.Unit, consts []*float64) (units.Unit, error) {
	if _, err := crfUnit(args[1:], consts[1:]); err != nil {
		return units.Unit{}, fmt.Errorf("annualize: %w", err)
	}
	return args[0], nil
}
