package mathfn

import (
	"errors"
	"fmt"
	"math"

	"github.com/shuvo-dotcom/nfgcalc/internal/formula"
	"github.com/shuvo-dotcom/nfgcalc/internal/units"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/function/stdlib"
)

// Module implements the formula.Module interface for this package.
type Module struct{}

// Register adds the numeric functions to the table.
func (m *Module) Register(f *formula.Functions) {
	f.Register(formula.Function{Name: "min", MinArgs: 1, MaxArgs: -1, Call: extremum("min", stdlib.Min), Unit: formula.SameUnit("min")})
	f.Register(formula.Function{Name: "max", MinArgs: 1, MaxArgs: -1, Call: extremum("max", stdlib.Max), Unit: formula.SameUnit("max")})
	f.Register(formula.Function{Name: "sum", MinArgs: 1, MaxArgs: -1, Call: Sum, Unit: formula.SameUnit("sum")})
	f.Register(formula.Function{Name: "avg", MinArgs: 1, MaxArgs: -1, Call: Avg, Unit: formula.SameUnit("avg")})
	f.Register(formula.Function{Name: "abs", MinArgs: 1, MaxArgs: 1, Call: preserving(stdlib.Absolute), Unit: formula.KeepUnit})
	f.Register(formula.Function{Name: "ceil", MinArgs: 1, MaxArgs: 1, Call: preserving(stdlib.Ceil), Unit: formula.KeepUnit})
	f.Register(formula.Function{Name: "floor", MinArgs: 1, MaxArgs: 1, Call: preserving(stdlib.Floor), Unit: formula.KeepUnit})
	f.Register(formula.Function{Name: "pow", MinArgs: 2, MaxArgs: 2, Call: Pow, Unit: powUnit})
	f.Register(formula.Function{Name: "sqrt", MinArgs: 1, MaxArgs: 1, Call: Sqrt, Unit: sqrtUnit})
	f.Register(formula.Function{Name: "exp", MinArgs: 1, MaxArgs: 1, Call: Exp, Unit: formula.PlainUnit("exp")})
	f.Register(formula.Function{Name: "log", MinArgs: 1, MaxArgs: 2, Call: Log, Unit: formula.PlainUnit("log")})
	f.Register(formula.Function{Name: "log10", MinArgs: 1, MaxArgs: 1, Call: Log10, Unit: formula.PlainUnit("log10")})
}

func toCty(v float64) (cty.Value, error) {
	if math.IsNaN(v) {
		return cty.NilVal, errors.New("value is not a number")
	}
	return cty.NumberFloatVal(v), nil
}

func fromCty(v cty.Value) float64 {
	f, _ := v.AsBigFloat().Float64()
	return f
}

func extremum(name string, fn func(...cty.Value) (cty.Value, error)) func([]units.Quantity) (units.Quantity, error) {
	return func(args []units.Quantity) (units.Quantity, error) {
		same, err := formula.SameDimension(name, args)
		if err != nil {
			return units.Quantity{}, err
		}
		vals := make([]cty.Value, len(same))
		for i, q := range same {
			if vals[i], err = toCty(q.Value); err != nil {
				return units.Quantity{}, fmt.Errorf("%s: %w", name, err)
			}
		}
		out, err := fn(vals...)
		if err != nil {
			return units.Quantity{}, fmt.Errorf("%s: %w", name, err)
		}
		return units.Quantity{Value: fromCty(out), Unit: same[0].Unit}, nil
	}
}

func preserving(fn func(cty.Value) (cty.Value, error)) func([]units.Quantity) (units.Quantity, error) {
	return func(args []units.Quantity) (units.Quantity, error) {
		in, err := toCty(args[0].Value)
		if err != nil {
			return units.Quantity{}, err
		}
		out, err := fn(in)
		if err != nil {
			return units.Quantity{}, err
		}
		return units.Quantity{Value: fromCty(out), Unit: args[0].Unit}, nil
	}
}

// Sum adds arguments of one dimension, in the unit of the first.
func Sum(args []units.Quantity) (units.Quantity, error) {
	same, err := formula.SameDimension("sum", args)
	if err != nil {
		return units.Quantity{}, err
	}
	total := 0.0
	for _, q := range same {
		total += q.Value
	}
	return units.Quantity{Value: total, Unit: same[0].Unit}, nil
}

// Avg is the arithmetic mean of arguments of one dimension.
func Avg(args []units.Quantity) (units.Quantity, error) {
	s, err := Sum(args)
	if err != nil {
		return units.Quantity{}, err
	}
	s.Value /= float64(len(args))
	return s, nil
}

// Pow raises the first argument to the second. A dimensioned base needs an
// integral exponent so the result unit stays expressible.
func Pow(args []units.Quantity) (units.Quantity, error) {
	exp, err := formula.Plain("pow", args[1])
	if err != nil {
		return units.Quantity{}, err
	}
	base := args[0]
	if !base.Unit.IsDimensionless() {
		if exp != math.Trunc(exp) {
			return units.Quantity{}, &formula.UnitError{
				Op:  "pow",
				Msg: fmt.Sprintf("exponent %g must be an integer for base unit %q", exp, base.Unit),
			}
		}
		return base.Pow(int(exp)), nil
	}
	b, err := formula.Plain("pow", base)
	if err != nil {
		return units.Quantity{}, err
	}
	bv, err := toCty(b)
	if err != nil {
		return units.Quantity{}, err
	}
	ev, err := toCty(exp)
	if err != nil {
		return units.Quantity{}, err
	}
	out, err := stdlib.Pow(bv, ev)
	if err != nil {
		return units.Quantity{}, fmt.Errorf("pow: %w", err)
	}
	return units.Scalar(fromCty(out)), nil
}

// powUnit accepts any dimensionless exponent on a dimensionless base. A
// dimensioned base needs a constant integer exponent, otherwise the result
// unit would depend on the data.
func powUnit(args []units.Unit, consts []*float64) (units.Unit, error) {
	if !args[1].IsDimensionless() {
		return units.Unit{}, &formula.UnitError{Op: "pow", Msg: fmt.Sprintf("exponent must be dimensionless, got %q", args[1])}
	}
	if args[0].IsDimensionless() {
		return units.Dimensionless, nil
	}
	exp := consts[1]
	if exp == nil {
		return units.Unit{}, &formula.UnitError{Op: "pow", Msg: fmt.Sprintf("exponent must be a constant integer for base unit %q", args[0])}
	}
	if *exp != math.Trunc(*exp) {
		return units.Unit{}, &formula.UnitError{Op: "pow", Msg: fmt.Sprintf("exponent %g must be an integer for base unit %q", *exp, args[0])}
	}
	return args[0].Pow(int(*exp)), nil
}

func sqrtUnit(args []units.Unit, _ []*float64) (units.Unit, error) {
	u, err := args[0].Root(2)
	if err != nil {
		return units.Unit{}, &formula.UnitError{Op: "sqrt", Msg: err.Error()}
	}
	return u, nil
}

// Sqrt halves every dimension exponent.
func Sqrt(args []units.Quantity) (units.Quantity, error) {
	q := args[0]
	if q.Value < 0 {
		return units.Quantity{}, fmt.Errorf("sqrt: negative argument %g", q.Value)
	}
	u, err := q.Unit.Root(2)
	if err != nil {
		return units.Quantity{}, &formula.UnitError{Op: "sqrt", Msg: err.Error()}
	}
	return units.Quantity{Value: math.Sqrt(q.Value), Unit: u}, nil
}

// Exp is e raised to a dimensionless argument.
func Exp(args []units.Quantity) (units.Quantity, error) {
	x, err := formula.Plain("exp", args[0])
	if err != nil {
		return units.Quantity{}, err
	}
	return units.Scalar(math.Exp(x)), nil
}

// Log is the natural logarithm, or the logarithm in the given base.
func Log(args []units.Quantity) (units.Quantity, error) {
	x, err := formula.Plain("log", args[0])
	if err != nil {
		return units.Quantity{}, err
	}
	base := math.E
	if len(args) == 2 {
		if base, err = formula.Plain("log", args[1]); err != nil {
			return units.Quantity{}, err
		}
	}
	return logBase("log", x, base)
}

// Log10 is the base-10 logarithm.
func Log10(args []units.Quantity) (units.Quantity, error) {
	x, err := formula.Plain("log10", args[0])
	if err != nil {
		return units.Quantity{}, err
	}
	return logBase("log10", x, 10)
}

func logBase(name string, x, base float64) (units.Quantity, error) {
	if x <= 0 {
		return units.Quantity{}, fmt.Errorf("%s: argument %g must be positive", name, x)
	}
	xv, err := toCty(x)
	if err != nil {
		return units.Quantity{}, err
	}
	bv, err := toCty(base)
	if err != nil {
		return units.Quantity{}, err
	}
	out, err := stdlib.Log(xv, bv)
	if err != nil {
		return units.Quantity{}, fmt.Errorf("%s: %w", name, err)
	}
	return units.Scalar(fromCty(out)), nil
}
