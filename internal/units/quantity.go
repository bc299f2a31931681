package units

import (
	"fmt"
	"math"
)

// Quantity is a value carrying its unit.
type Quantity struct {
	Value float64
	Unit  Unit
}

// Q builds a quantity from a unit expression. It panics on an invalid unit.
func Q(v float64, unit string) Quantity {
	return Quantity{Value: v, Unit: MustParse(unit)}
}

// Scalar is a dimensionless quantity.
func Scalar(v float64) Quantity {
	return Quantity{Value: v, Unit: Dimensionless}
}

func (q Quantity) String() string {
	return fmt.Sprintf("%g %s", q.Value, q.Unit)
}

// In converts q to unit u.
func (q Quantity) In(u Unit) (Quantity, error) {
	f, err := Factor(q.Unit, u)
	if err != nil {
		return Quantity{}, err
	}
	return Quantity{Value: q.Value * f, Unit: u}, nil
}

// Add converts o to q's unit and sums.
func (q Quantity) Add(o Quantity) (Quantity, error) {
	c, err := o.In(q.Unit)
	if err != nil {
		return Quantity{}, err
	}
	return Quantity{Value: q.Value + c.Value, Unit: q.Unit}, nil
}

// Sub converts o to q's unit and subtracts.
func (q Quantity) Sub(o Quantity) (Quantity, error) {
	c, err := o.In(q.Unit)
	if err != nil {
		return Quantity{}, err
	}
	return Quantity{Value: q.Value - c.Value, Unit: q.Unit}, nil
}

// Mul multiplies values and units.
func (q Quantity) Mul(o Quantity) Quantity {
	return Quantity{Value: q.Value * o.Value, Unit: q.Unit.Mul(o.Unit)}
}

// Div divides values and units. Division by zero yields an error rather
// than an infinity.
func (q Quantity) Div(o Quantity) (Quantity, error) {
	if o.Value == 0 {
		return Quantity{}, fmt.Errorf("division by zero (%s / %s)", q, o)
	}
	return Quantity{Value: q.Value / o.Value, Unit: q.Unit.Div(o.Unit)}, nil
}

// Neg flips the sign.
func (q Quantity) Neg() Quantity {
	return Quantity{Value: -q.Value, Unit: q.Unit}
}

// Pow raises q to an integer power.
func (q Quantity) Pow(n int) Quantity {
	return Quantity{Value: math.Pow(q.Value, float64(n)), Unit: q.Unit.Pow(n)}
}

// Plain returns the numeric value of a dimensionless quantity in unit "1",
// so "35 %" yields 0.35.
func (q Quantity) Plain() (float64, error) {
	if !q.Unit.IsDimensionless() {
		return 0, &IncompatibleError{From: q.Unit, To: Dimensionless}
	}
	return q.Value * q.Unit.Scale, nil
}
