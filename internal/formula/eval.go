package formula

import (
	"errors"
	"fmt"

	"github.com/shuvo-dotcom/nfgcalc/internal/units"
)

// Env supplies the quantity bound to each variable name.
type Env map[string]units.Quantity

// Eval computes e over env. Unit mismatches surface as *UnitError.
func Eval(e Expr, env Env, fns *Functions) (units.Quantity, error) {
	switch n := e.(type) {
	case Const:
		return units.Scalar(n.Value), nil

	case VarRef:
		q, ok := env[n.Name]
		if !ok {
			return units.Quantity{}, fmt.Errorf("no value bound to %q", n.Name)
		}
		return q, nil

	case Neg:
		x, err := Eval(n.X, env, fns)
		if err != nil {
			return units.Quantity{}, err
		}
		return x.Neg(), nil

	case BinaryOp:
		l, err := Eval(n.Left, env, fns)
		if err != nil {
			return units.Quantity{}, err
		}
		r, err := Eval(n.Right, env, fns)
		if err != nil {
			return units.Quantity{}, err
		}
		return apply(n.Op, l, r)

	case Call:
		fn, ok := fns.Lookup(n.Name)
		if !ok {
			return units.Quantity{}, fmt.Errorf("unknown function %q", n.Name)
		}
		if err := fn.checkArity(len(n.Args)); err != nil {
			return units.Quantity{}, err
		}
		args := make([]units.Quantity, len(n.Args))
		for i, a := range n.Args {
			q, err := Eval(a, env, fns)
			if err != nil {
				return units.Quantity{}, err
			}
			args[i] = q
		}
		return fn.Call(args)
	}
	return units.Quantity{}, fmt.Errorf("unsupported node %T", e)
}

func apply(op Operator, l, r units.Quantity) (units.Quantity, error) {
	switch op {
	case OpAdd, OpSub:
		var (
			q   units.Quantity
			err error
		)
		if op == OpAdd {
			q, err = l.Add(r)
		} else {
			q, err = l.Sub(r)
		}
		var incompatible *units.IncompatibleError
		if errors.As(err, &incompatible) {
			return units.Quantity{}, &UnitError{
				Op:  string(op),
				Msg: fmt.Sprintf("cannot combine %q with %q", l.Unit, r.Unit),
			}
		}
		return q, err
	case OpMul:
		return l.Mul(r), nil
	case OpDiv:
		return l.Div(r)
	}
	return units.Quantity{}, fmt.Errorf("unknown operator %q", op)
}

// Check derives the unit e produces from the declared units of its
// variables. It never computes values, so a formula is only rejected for
// unit problems, never for the numbers it would see.
func Check(e Expr, declared map[string]units.Unit, fns *Functions) (units.Unit, error) {
	u, _, err := check(e, declared, fns)
	return u, err
}

// check returns the unit of e and, when e is built from literals only, its
// value.
func check(e Expr, declared map[string]units.Unit, fns *Functions) (units.Unit, *float64, error) {
	switch n := e.(type) {
	case Const:
		v := n.Value
		return units.Dimensionless, &v, nil

	case VarRef:
		u, ok := declared[n.Name]
		if !ok {
			return units.Unit{}, nil, fmt.Errorf("no unit declared for %q", n.Name)
		}
		return u, nil, nil

	case Neg:
		u, v, err := check(n.X, declared, fns)
		if v != nil {
			neg := -*v
			v = &neg
		}
		return u, v, err

	case BinaryOp:
		lu, lv, err := check(n.Left, declared, fns)
		if err != nil {
			return units.Unit{}, nil, err
		}
		ru, rv, err := check(n.Right, declared, fns)
		if err != nil {
			return units.Unit{}, nil, err
		}
		var u units.Unit
		switch n.Op {
		case OpAdd, OpSub:
			if !lu.Compatible(ru) {
				return units.Unit{}, nil, &UnitError{Op: string(n.Op), Msg: fmt.Sprintf("cannot combine %q with %q", lu, ru)}
			}
			u = lu
		case OpMul:
			u = lu.Mul(ru)
		case OpDiv:
			u = lu.Div(ru)
		default:
			return units.Unit{}, nil, fmt.Errorf("unknown operator %q", n.Op)
		}
		return u, foldConst(n.Op, lv, rv), nil

	case Call:
		fn, ok := fns.Lookup(n.Name)
		if !ok {
			return units.Unit{}, nil, fmt.Errorf("unknown function %q", n.Name)
		}
		if err := fn.checkArity(len(n.Args)); err != nil {
			return units.Unit{}, nil, err
		}
		if fn.Unit == nil {
			return units.Unit{}, nil, fmt.Errorf("%s: function has no unit rule", n.Name)
		}
		args := make([]units.Unit, len(n.Args))
		consts := make([]*float64, len(n.Args))
		for i, a := range n.Args {
			u, v, err := check(a, declared, fns)
			if err != nil {
				return units.Unit{}, nil, err
			}
			args[i], consts[i] = u, v
		}
		u, err := fn.Unit(args, consts)
		return u, nil, err
	}
	return units.Unit{}, nil, fmt.Errorf("unsupported node %T", e)
}

func foldConst(op Operator, l, r *float64) *float64 {
	if l == nil || r == nil {
		return nil
	}
	var v float64
	switch op {
	case OpAdd:
		v = *l + *r
	case OpSub:
		v = *l - *r
	case OpMul:
		v = *l * *r
	case OpDiv:
		if *r == 0 {
			return nil
		}
		v = *l / *r
	}
	return &v
}
