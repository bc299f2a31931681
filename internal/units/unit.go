package units

import (
	"fmt"
	"math"
	"sort"
	"strings"
)

// Dims maps a base dimension name to its exponent. Zero exponents are never
// stored.
type Dims map[string]int

// Equal reports whether both vectors carry the same exponents.
func (d Dims) Equal(o Dims) bool {
	if len(d) != len(o) {
		return false
	}
	for k, v := range d {
		if o[k] != v {
			return false
		}
	}
	return true
}

// String renders the vector in a stable order, e.g. "currency:USD·energy^-1".
func (d Dims) String() string {
	if len(d) == 0 {
		return "dimensionless"
	}
	keys := make([]string, 0, len(d))
	for k := range d {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		if d[k] == 1 {
			parts = append(parts, k)
			continue
		}
		parts = append(parts, fmt.Sprintf("%s^%d", k, d[k]))
	}
	return strings.Join(parts, "·")
}

func (d Dims) combine(o Dims, sign int) Dims {
	out := make(Dims, len(d)+len(o))
	for k, v := range d {
		out[k] = v
	}
	for k, v := range o {
		out[k] += sign * v
		if out[k] == 0 {
			delete(out, k)
		}
	}
	return out
}

func (d Dims) scale(n int) Dims {
	out := make(Dims, len(d))
	if n == 0 {
		return out
	}
	for k, v := range d {
		out[k] = v * n
	}
	return out
}

// Unit is a parsed physical unit.
type Unit struct {
	// Symbol is the unit as written, or a synthesized form for derived units.
	Symbol string
	// Scale converts a value in this unit to the base units of Dims.
	Scale float64
	Dims  Dims
}

// Dimensionless is the unit "1".
var Dimensionless = Unit{Symbol: "1", Scale: 1, Dims: Dims{}}

// IsDimensionless reports whether the unit has no dimensions. Percent counts.
func (u Unit) IsDimensionless() bool { return len(u.Dims) == 0 }

// Compatible reports whether values in u can be converted to o.
func (u Unit) Compatible(o Unit) bool { return u.Dims.Equal(o.Dims) }

func (u Unit) String() string {
	if u.Symbol == "" {
		return "1"
	}
	return u.Symbol
}

// Mul returns the product unit.
func (u Unit) Mul(o Unit) Unit {
	return Unit{
		Symbol: joinSymbol(u.Symbol, "*", o.Symbol),
		Scale:  u.Scale * o.Scale,
		Dims:   u.Dims.combine(o.Dims, 1),
	}
}

// Div returns the quotient unit.
func (u Unit) Div(o Unit) Unit {
	return Unit{
		Symbol: joinSymbol(u.Symbol, "/", o.Symbol),
		Scale:  u.Scale / o.Scale,
		Dims:   u.Dims.combine(o.Dims, -1),
	}
}

// Pow raises the unit to an integer power.
func (u Unit) Pow(n int) Unit {
	sym := u.Symbol
	switch {
	case n == 0:
		return Dimensionless
	case n != 1:
		sym = fmt.Sprintf("%s^%d", wrap(u.Symbol), n)
	}
	return Unit{Symbol: sym, Scale: math.Pow(u.Scale, float64(n)), Dims: u.Dims.scale(n)}
}

// Root takes the n-th root of the unit. Every exponent must be divisible by n.
func (u Unit) Root(n int) (Unit, error) {
	out := make(Dims, len(u.Dims))
	for k, v := range u.Dims {
		if v%n != 0 {
			return Unit{}, fmt.Errorf("cannot take root %d of %s", n, u)
		}
		out[k] = v / n
	}
	return Unit{
		Symbol: fmt.Sprintf("%s^(1/%d)", wrap(u.Symbol), n),
		Scale:  math.Pow(u.Scale, 1/float64(n)),
		Dims:   out,
	}, nil
}

// Factor returns the multiplier that converts a value in from to a value in to.
func Factor(from, to Unit) (float64, error) {
	if !from.Compatible(to) {
		return 0, &IncompatibleError{From: from, To: to}
	}
	return from.Scale / to.Scale, nil
}

// IncompatibleError reports a conversion between different dimensions.
type IncompatibleError struct {
	From Unit
	To   Unit
}

func (e *IncompatibleError) Error() string {
	return fmt.Sprintf("unit %q (%s) is not compatible with %q (%s)",
		e.From, e.From.Dims, e.To, e.To.Dims)
}

func joinSymbol(a, op, b string) string {
	if a == "" || a == "1" {
		if op == "*" {
			return b
		}
		return "1/" + wrap(b)
	}
	if b == "" || b == "1" {
		return a
	}
	return a + op + wrap(b)
}

func wrap(s string) string {
	if strings.ContainsAny(s, "*/·") {
		return "(" + s + ")"
	}
	return s
}
