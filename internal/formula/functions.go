package formula

import (
	"fmt"
	"log/slog"
	"sort"

	"github.com/shuvo-dotcom/nfgcalc/internal/units"
)

// Function is a callable available to formulas. Call receives evaluated
// arguments; Unit derives the result unit from argument units alone and is
// what registry validation uses.
type Function struct {
	Name    string
	MinArgs int
	// MaxArgs is -1 for variadic functions.
	MaxArgs int
	Call    func(args []units.Quantity) (units.Quantity, error)
	Unit    UnitRule
}

// UnitRule returns the unit a call produces. consts[i] is non-nil when
// argument i is a constant expression.
type UnitRule func(args []units.Unit, consts []*float64) (units.Unit, error)

// Module contributes functions to a table.
type Module interface {
	Register(f *Functions)
}

// Functions is the set of callable functions. It is filled once at startup
// and only read afterwards.
type Functions struct {
	byName map[string]*Function
}

// NewFunctions builds a table from the given modules.
func NewFunctions(modules ...Module) *Functions {
	f := &Functions{byName: make(map[string]*Function)}
	for _, m := range modules {
		m.Register(f)
	}
	return f
}

// Register adds a function. Registering the same name twice panics.
func (f *Functions) Register(fn Function) {
	if _, exists := f.byName[fn.Name]; exists {
		panic(fmt.Sprintf("formula function '%s' already registered", fn.Name))
	}
	slog.Debug("Registering formula function.", "name", fn.Name)
	f.byName[fn.Name] = &fn
}

// Lookup returns the named function.
func (f *Functions) Lookup(name string) (*Function, bool) {
	if f == nil {
		return nil, false
	}
	fn, ok := f.byName[name]
	return fn, ok
}

// Names lists the registered functions alphabetically.
func (f *Functions) Names() []string {
	out := make([]string, 0, len(f.byName))
	for n := range f.byName {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

func (fn *Function) checkArity(n int) error {
	if n < fn.MinArgs {
		return fmt.Errorf("%s: expects at least %d argument(s), got %d", fn.Name, fn.MinArgs, n)
	}
	if fn.MaxArgs >= 0 && n > fn.MaxArgs {
		return fmt.Errorf("%s: expects at most %d argument(s), got %d", fn.Name, fn.MaxArgs, n)
	}
	return nil
}

// UnitError reports operands whose units cannot be combined.
type UnitError struct {
	Op  string
	Msg string
}

func (e *UnitError) Error() string { return e.Op + ": " + e.Msg }

// SameDimension converts every argument to the unit of the first one.
func SameDimension(name string, args []units.Quantity) ([]units.Quantity, error) {
	out := make([]units.Quantity, len(args))
	for i, a := range args {
		c, err := a.In(args[0].Unit)
		if err != nil {
			return nil, &UnitError{Op: name, Msg: fmt.Sprintf("argument %d is %q, expected a unit compatible with %q", i+1, a.Unit, args[0].Unit)}
		}
		out[i] = c
	}
	return out, nil
}

// Plain returns the value of a dimensionless argument.
func Plain(name string, q units.Quantity) (float64, error) {
	v, err := q.Plain()
	if err != nil {
		return 0, &UnitError{Op: name, Msg: fmt.Sprintf("argument must be dimensionless, got %q", q.Unit)}
	}
	return v, nil
}

// SameUnit requires every argument to share the first one's dimensions and
// yields the first argument's unit.
func SameUnit(name string) UnitRule {
	return func(args []units.Unit, _ []*float64) (units.Unit, error) {
		for i, a := range args {
			if !a.Compatible(args[0]) {
				return units.Unit{}, &UnitError{Op: name, Msg: fmt.Sprintf("argument %d is %q, expected a unit compatible with %q", i+1, a, args[0])}
			}
		}
		return args[0], nil
	}
}

// KeepUnit yields the first argument's unit.
func KeepUnit(args []units.Unit, _ []*float64) (units.Unit, error) {
	return args[0], nil
}

// PlainUnit requires dimensionless arguments and yields a dimensionless unit.
func PlainUnit(name string) UnitRule {
	return func(args []units.Unit, _ []*float64) (units.Unit, error) {
		for _, a := range args {
			if !a.IsDimensionless() {
				return units.Unit{}, &UnitError{Op: name, Msg: fmt.Sprintf("argument must be dimensionless, got %q", a)}
			}
		}
		return units.Dimensionless, nil
	}
}
