package formula

import (
	"strconv"
	"strings"
)

// Expr is a node of a parsed formula.
type Expr interface {
	String() string
	isExpr()
}

// Const is a numeric literal. Literals are dimensionless.
type Const struct {
	Value float64
}

// VarRef refers to a variable by its canonical name.
type VarRef struct {
	Name string
}

// Operator is one of + - * /.
type Operator byte

const (
	OpAdd Operator = '+'
	OpSub Operator = '-'
	OpMul Operator = '*'
	OpDiv Operator = '/'
)

// BinaryOp applies an arithmetic operator.
type BinaryOp struct {
	Op          Operator
	Left, Right Expr
}

// Neg is unary minus.
type Neg struct {
	X Expr
}

// Call invokes a registered function.
type Call struct {
	Name string
	Args []Expr
}

func (Const) isExpr()    {}
func (VarRef) isExpr()   {}
func (BinaryOp) isExpr() {}
func (Neg) isExpr()      {}
func (Call) isExpr()     {}

func (c Const) String() string  { return strconv.FormatFloat(c.Value, 'g', -1, 64) }
func (v VarRef) String() string { return v.Name }
func (n Neg) String() string    { return "-" + operand(n.X) }

func (b BinaryOp) String() string {
	return operand(b.Left) + " " + string(b.Op) + " " + operand(b.Right)
}

func (c Call) String() string {
	args := make([]string, len(c.Args))
	for i, a := range c.Args {
		args[i] = a.String()
	}
	return c.Name + "(" + strings.Join(args, ", ") + ")"
}

func operand(e Expr) string {
	if _, ok := e.(BinaryOp); ok {
		return "(" + e.String() + ")"
	}
	return e.String()
}

// References returns the variable names used by e in order of first
// appearance.
func References(e Expr) []string {
	var out []string
	seen := make(map[string]struct{})
	walk(e, func(n Expr) {
		if v, ok := n.(VarRef); ok {
			if _, dup := seen[v.Name]; !dup {
				seen[v.Name] = struct{}{}
				out = append(out, v.Name)
			}
		}
	})
	return out
}

// FunctionNames returns the functions called by e in order of first
// appearance.
func FunctionNames(e Expr) []string {
	var out []string
	seen := make(map[string]struct{})
	walk(e, func(n Expr) {
		if c, ok := n.(Call); ok {
			if _, dup := seen[c.Name]; !dup {
				seen[c.Name] = struct{}{}
				out = append(out, c.Name)
			}
		}
	})
	return out
}

func walk(e Expr, visit func(Expr)) {
	if e == nil {
		return
	}
	visit(e)
	switch n := e.(type) {
	case BinaryOp:
		walk(n.Left, visit)
		walk(n.Right, visit)
	case Neg:
		walk(n.X, visit)
	case Call:
		for _, a := range n.Args {
			walk(a, visit)
		}
	}
}
