package registry

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/shuvo-dotcom/nfgcalc/internal/ctxlog"
	"github.com/shuvo-dotcom/nfgcalc/internal/dag"
	"github.com/shuvo-dotcom/nfgcalc/internal/formula"
	"github.com/shuvo-dotcom/nfgcalc/internal/units"
)

// Validate checks every equation against the variable table and the function
// table: references, declared units and the unit each formula actually
// produces. Static dependency cycles are logged as warnings since they only
// fail the queries that walk them.
func Validate(ctx context.Context, s *Snapshot) error {
	var errs []string
	logger := ctxlog.FromContext(ctx)

	for _, eq := range s.eqOrder {
		errs = append(errs, validateEquation(s, eq)...)
	}

	for _, v := range s.varOrder {
		if !v.Raw && len(s.candidates[v.Name]) == 0 {
			errs = append(errs, fmt.Sprintf("variable '%s': derived but no equation produces it", v.Name))
		}
		if v.Raw && len(s.candidates[v.Name]) > 0 {
			ids := make([]string, 0, len(s.candidates[v.Name]))
			for _, eq := range s.candidates[v.Name] {
				ids = append(ids, eq.ID)
			}
			errs = append(errs, fmt.Sprintf("variable '%s': declared raw but produced by equations %s which would never be used", v.Name, strings.Join(ids, ", ")))
		}
	}

	if cycle := detectStaticCycle(s); cycle != nil {
		logger.Warn("Registry contains a dependency cycle; queries reaching it will fail.", "cycle", strings.Join(cycle, " -> "))
	}

	if len(errs) > 0 {
		return fmt.Errorf("registry validation failed:\n- %s", strings.Join(errs, "\n- "))
	}

	logger.Debug("Registry validation passed.", "variables", len(s.varOrder), "equations", len(s.eqOrder))
	return nil
}

func validateEquation(s *Snapshot, eq *Equation) []string {
	var errs []string
	prefix := fmt.Sprintf("equation '%s'", eq.ID)

	out, ok := s.variables[eq.Output]
	switch {
	case !ok:
		errs = append(errs, fmt.Sprintf("%s: output variable '%s' is not declared", prefix, eq.Output))
	case !out.Unit.Compatible(eq.Unit):
		errs = append(errs, fmt.Sprintf("%s: unit '%s' is not compatible with unit '%s' of variable '%s'", prefix, eq.Unit, out.Unit, out.Name))
	}

	required := make(map[string]bool, len(eq.Requires))
	declared := make(map[string]units.Unit, len(eq.Requires))
	complete := true
	for _, name := range eq.Requires {
		required[name] = true
		v, ok := s.variables[name]
		if !ok {
			errs = append(errs, fmt.Sprintf("%s: requires undeclared variable '%s'", prefix, name))
			complete = false
			continue
		}
		declared[name] = v.Unit
	}

	refs := formula.References(eq.Expr)
	used := make(map[string]bool, len(refs))
	for _, name := range refs {
		used[name] = true
		if !required[name] {
			errs = append(errs, fmt.Sprintf("%s: formula uses '%s' which is not in requires", prefix, name))
			complete = false
		}
	}
	for _, name := range eq.Requires {
		if !used[name] {
			errs = append(errs, fmt.Sprintf("%s: requires '%s' but the formula never uses it", prefix, name))
		}
	}

	for _, fn := range formula.FunctionNames(eq.Expr) {
		if _, ok := s.functions.Lookup(fn); !ok {
			errs = append(errs, fmt.Sprintf("%s: unknown function '%s'", prefix, fn))
			complete = false
		}
	}

	if !complete {
		return errs
	}

	produced, err := formula.Check(eq.Expr, declared, s.functions)
	var unitErr *formula.UnitError
	switch {
	case errors.As(err, &unitErr):
		errs = append(errs, fmt.Sprintf("%s: inconsistent units: %v", prefix, unitErr))
	case err != nil:
		errs = append(errs, fmt.Sprintf("%s: %v", prefix, err))
	case !produced.Compatible(eq.Unit):
		errs = append(errs, fmt.Sprintf("%s: declares unit '%s' (%s) but the formula produces '%s' (%s)",
			prefix, eq.Unit, eq.Unit.Dims, produced, produced.Dims))
	}
	return errs
}

// detectStaticCycle builds the variable-level dependency graph over every
// equation and returns one cycle, or nil.
func detectStaticCycle(s *Snapshot) []string {
	g := dag.New()
	for _, v := range s.varOrder {
		g.AddNode(v.Name)
	}
	for _, eq := range s.eqOrder {
		g.AddNode(eq.Output)
		for _, name := range eq.Requires {
			g.AddNode(name)
			if name == eq.Output {
				return []string{name, name}
			}
			// Errors are impossible here: both nodes exist and differ.
			_ = g.AddEdge(name, eq.Output)
		}
	}
	var cycle *dag.CycleError
	if errors.As(g.DetectCycles(), &cycle) {
		return cycle.Path
	}
	return nil
}
