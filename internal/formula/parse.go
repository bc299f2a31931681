package formula

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/zclconf/go-cty/cty"
)

// Parse converts formula text into an expression tree. The filename is only
// used in diagnostics.
func Parse(src, filename string) (Expr, error) {
	syn, diags := hclsyntax.ParseExpression([]byte(src), filename, hcl.Pos{Line: 1, Column: 1, Byte: 0})
	if diags.HasErrors() {
		return nil, fmt.Errorf("parse formula %q: %s", src, diags.Error())
	}
	e, err := convert(syn)
	if err != nil {
		return nil, fmt.Errorf("parse formula %q: %w", src, err)
	}
	return e, nil
}

func convert(expr hclsyntax.Expression) (Expr, error) {
	terms, err := convertTerms(expr)
	if err != nil {
		return nil, err
	}
	return collapse(terms), nil
}

// convertTerms returns expr as a list of terms to be subtracted in order,
// t0 - t1 - ... HCL lexes "a-b" as one identifier, so a hyphenated name
// yields several terms, and * / and unary minus must bind to the term next
// to them: "a-b*c" is a - (b*c).
func convertTerms(expr hclsyntax.Expression) ([]Expr, error) {
	switch e := expr.(type) {
	case *hclsyntax.LiteralValueExpr:
		if e.Val.IsNull() || !e.Val.Type().Equals(cty.Number) {
			return nil, fmt.Errorf("only numeric literals are allowed, got %s", e.Val.Type().FriendlyName())
		}
		f, _ := e.Val.AsBigFloat().Float64()
		return []Expr{Const{Value: f}}, nil

	case *hclsyntax.ScopeTraversalExpr:
		if len(e.Traversal) != 1 {
			return nil, fmt.Errorf("attribute or index access is not allowed on %q", e.Traversal.RootName())
		}
		return splitHyphens(e.Traversal.RootName())

	case *hclsyntax.BinaryOpExpr:
		op, err := operatorOf(e.Op)
		if err != nil {
			return nil, err
		}
		l, err := convertTerms(e.LHS)
		if err != nil {
			return nil, err
		}
		r, err := convertTerms(e.RHS)
		if err != nil {
			return nil, err
		}
		if op == OpMul || op == OpDiv {
			out := append([]Expr{}, l[:len(l)-1]...)
			out = append(out, BinaryOp{Op: op, Left: l[len(l)-1], Right: r[0]})
			return append(out, r[1:]...), nil
		}
		return append([]Expr{BinaryOp{Op: op, Left: collapse(l), Right: r[0]}}, r[1:]...), nil

	case *hclsyntax.UnaryOpExpr:
		if e.Op != hclsyntax.OpNegate {
			return nil, fmt.Errorf("logical operators are not allowed")
		}
		x, err := convertTerms(e.Val)
		if err != nil {
			return nil, err
		}
		first := x[0]
		if c, ok := first.(Const); ok {
			first = Const{Value: -c.Value}
		} else {
			first = Neg{X: first}
		}
		return append([]Expr{first}, x[1:]...), nil

	case *hclsyntax.ParenthesesExpr:
		x, err := convert(e.Expression)
		if err != nil {
			return nil, err
		}
		return []Expr{x}, nil

	case *hclsyntax.FunctionCallExpr:
		if e.ExpandFinal {
			return nil, fmt.Errorf("argument expansion is not allowed in call to %s", e.Name)
		}
		args := make([]Expr, 0, len(e.Args))
		for _, a := range e.Args {
			x, err := convert(a)
			if err != nil {
				return nil, err
			}
			args = append(args, x)
		}
		return []Expr{Call{Name: e.Name, Args: args}}, nil

	case *hclsyntax.ConditionalExpr:
		return nil, fmt.Errorf("conditional expressions are not allowed")
	}
	return nil, fmt.Errorf("unsupported expression %T", expr)
}

// collapse folds terms into a left-associative chain of subtractions.
func collapse(terms []Expr) Expr {
	out := terms[0]
	for _, t := range terms[1:] {
		out = BinaryOp{Op: OpSub, Left: out, Right: t}
	}
	return out
}

func operatorOf(op *hclsyntax.Operation) (Operator, error) {
	switch op {
	case hclsyntax.OpAdd:
		return OpAdd, nil
	case hclsyntax.OpSubtract:
		return OpSub, nil
	case hclsyntax.OpMultiply:
		return OpMul, nil
	case hclsyntax.OpDivide:
		return OpDiv, nil
	}
	return 0, fmt.Errorf("operator is not allowed, only + - * / are supported")
}

// splitHyphens reads the identifier "revenue-cost" as the terms revenue
// and cost. Registry names never contain '-'.
func splitHyphens(name string) ([]Expr, error) {
	parts := strings.Split(name, "-")
	out := make([]Expr, 0, len(parts))
	for _, p := range parts {
		if p == "" {
			return nil, fmt.Errorf("cannot read %q: write subtraction as a - b", name)
		}
		if !unicode.IsDigit(rune(p[0])) {
			out = append(out, VarRef{Name: p})
			continue
		}
		v, err := strconv.ParseFloat(p, 64)
		if err != nil {
			return nil, fmt.Errorf("cannot read %q: write subtraction as a - b", name)
		}
		out = append(out, Const{Value: v})
	}
	return out, nil
}
