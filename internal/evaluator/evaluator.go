// Package evaluator computes the values of a resolved ComputationGraph,
// children before parents, checking physical units at every node.
package evaluator

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/shuvo-dotcom/nfgcalc/internal/calcerr"
	"github.com/shuvo-dotcom/nfgcalc/internal/ctxlog"
	"github.com/shuvo-dotcom/nfgcalc/internal/formula"
	"github.com/shuvo-dotcom/nfgcalc/internal/graph"
	"github.com/shuvo-dotcom/nfgcalc/internal/units"
)

// Evaluator evaluates graphs with a fixed function table.
type Evaluator struct {
	fns *formula.Functions
}

// New returns an evaluator using fns for formula calls.
func New(fns *formula.Functions) *Evaluator {
	return &Evaluator{fns: fns}
}

// Evaluate fills in the value of every node. On error the graph is left
// partially evaluated and must be discarded.
func (e *Evaluator) Evaluate(ctx context.Context, g *graph.ComputationGraph) error {
	order, err := g.TopologicalOrder()
	if err != nil {
		return fmt.Errorf("order computation graph: %w", err)
	}

	logger := ctxlog.FromContext(ctx)
	for _, n := range order {
		if err := ctx.Err(); err != nil {
			return err
		}
		if n.IsLeaf() {
			err = e.evaluateLeaf(n)
		} else {
			err = e.evaluateEquation(g, n)
		}
		if err != nil {
			var consistency *calcerr.UnitConsistencyError
			var conversion *calcerr.UnitConversionError
			if errors.As(err, &consistency) || errors.As(err, &conversion) {
				logger.Error("Unit check failed, registry or data may be defective.", "variable", n.Variable, "error", err)
			}
			return err
		}
		n.Evaluated = true
		logger.Debug("Node evaluated.", "variable", n.Variable, "value", n.Value.Value, "unit", n.Value.Unit.String())
	}
	return nil
}

func (e *Evaluator) evaluateLeaf(n *graph.Node) error {
	spec := n.Spec
	if n.DefaultUsed {
		n.Value = units.Quantity{Value: *spec.Default, Unit: spec.Unit}
		return nil
	}

	values := make([]float64, len(n.Records))
	for i, r := range n.Records {
		from := spec.Unit
		if r.Unit != "" {
			u, err := units.Parse(r.Unit)
			if err != nil {
				return &calcerr.UnitConversionError{Variable: spec.Name, Record: r.Key(), From: r.Unit, To: spec.Unit.String()}
			}
			from = u
		}
		q, err := units.Quantity{Value: r.Value, Unit: from}.In(spec.Unit)
		if err != nil {
			return &calcerr.UnitConversionError{Variable: spec.Name, Record: r.Key(), From: r.Unit, To: spec.Unit.String()}
		}
		values[i] = q.Value
	}

	v, err := reduce(spec.Reduction, n.Records, values)
	if err != nil {
		return &calcerr.EvaluationError{Variable: spec.Name, Err: err}
	}
	n.Value = units.Quantity{Value: v, Unit: spec.Unit}
	return nil
}

func (e *Evaluator) evaluateEquation(g *graph.ComputationGraph, n *graph.Node) error {
	eq := n.Equation
	env := make(formula.Env, len(n.Children))
	for _, child := range g.Children(n.Variable) {
		if !child.Evaluated {
			return fmt.Errorf("node '%s' evaluated before its input '%s'", n.Variable, child.Variable)
		}
		env[child.Variable] = child.Value
	}

	q, err := formula.Eval(eq.Expr, env, e.fns)
	if err != nil {
		var unitErr *formula.UnitError
		if errors.As(err, &unitErr) {
			return &calcerr.UnitConsistencyError{
				EquationID: eq.ID,
				Variable:   n.Variable,
				Declared:   eq.Unit.String(),
				Detail:     unitErr.Error(),
			}
		}
		return &calcerr.EvaluationError{Variable: n.Variable, EquationID: eq.ID, Err: err}
	}

	if !q.Unit.Compatible(eq.Unit) {
		return &calcerr.UnitConsistencyError{
			EquationID: eq.ID,
			Variable:   n.Variable,
			Declared:   eq.Unit.String(),
			Derived:    q.Unit.String(),
		}
	}
	if math.IsNaN(q.Value) || math.IsInf(q.Value, 0) {
		return &calcerr.EvaluationError{Variable: n.Variable, EquationID: eq.ID, Err: errors.New("result is not a finite number")}
	}

	out, err := q.In(n.Unit())
	if err != nil {
		return &calcerr.UnitConsistencyError{
			EquationID: eq.ID,
			Variable:   n.Variable,
			Declared:   n.Unit().String(),
			Derived:    q.Unit.String(),
		}
	}
	n.Value = out
	return nil
}
