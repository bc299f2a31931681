package registry

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/shuvo-dotcom/nfgcalc/internal/calcerr"
	"github.com/shuvo-dotcom/nfgcalc/internal/config"
	"github.com/shuvo-dotcom/nfgcalc/internal/formula"
	"github.com/shuvo-dotcom/nfgcalc/internal/units"
)

// Snapshot is one immutable version of the registry.
type Snapshot struct {
	variables  map[string]*VariableSpec
	aliases    map[string]string
	varOrder   []*VariableSpec
	equations  map[string]*Equation
	eqOrder    []*Equation
	candidates map[string][]*Equation
	functions  *formula.Functions
	loadedAt   time.Time
}

// NormalizeName folds case and collapses whitespace for alias matching.
func NormalizeName(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}

// Build turns a model into a Snapshot. It rejects structural defects that
// make the model unusable (duplicates, unparseable units or formulas,
// unknown kinds, alias collisions); cross-reference and dimensional checks
// are left to Validate.
func Build(model *config.Model, fns *formula.Functions) (*Snapshot, error) {
	s := &Snapshot{
		variables:  make(map[string]*VariableSpec),
		aliases:    make(map[string]string),
		equations:  make(map[string]*Equation),
		candidates: make(map[string][]*Equation),
		functions:  fns,
		loadedAt:   time.Now(),
	}
	var errs []string

	outputs := make(map[string]bool)
	for _, eq := range model.Equations {
		outputs[eq.Output] = true
	}

	for _, def := range model.Variables {
		if def.Name == "" {
			errs = append(errs, fmt.Sprintf("%s: variable without a name", def.Source))
			continue
		}
		if prev, dup := s.variables[def.Name]; dup {
			errs = append(errs, fmt.Sprintf("variable '%s' declared twice (%s and %s)", def.Name, prev.Source, def.Source))
			continue
		}
		spec, err := buildVariable(def, outputs[def.Name])
		if err != nil {
			errs = append(errs, fmt.Sprintf("variable '%s': %v", def.Name, err))
			continue
		}
		s.variables[spec.Name] = spec
		s.varOrder = append(s.varOrder, spec)
	}

	for _, spec := range s.varOrder {
		for _, alias := range append([]string{spec.Name}, spec.Aliases...) {
			key := NormalizeName(alias)
			if owner, taken := s.aliases[key]; taken && owner != spec.Name {
				errs = append(errs, fmt.Sprintf("alias '%s' of variable '%s' already belongs to '%s'", alias, spec.Name, owner))
				continue
			}
			s.aliases[key] = spec.Name
		}
	}

	for i, def := range model.Equations {
		if prev, dup := s.equations[def.ID]; dup {
			errs = append(errs, fmt.Sprintf("equation '%s' declared twice (%s and %s)", def.ID, prev.Source, def.Source))
			continue
		}
		eq, err := buildEquation(def, i)
		if err != nil {
			errs = append(errs, fmt.Sprintf("equation '%s': %v", def.ID, err))
			continue
		}
		s.equations[eq.ID] = eq
		s.eqOrder = append(s.eqOrder, eq)
		s.candidates[eq.Output] = append(s.candidates[eq.Output], eq)
	}

	for _, list := range s.candidates {
		sort.SliceStable(list, func(i, j int) bool {
			if list[i].Priority != list[j].Priority {
				return list[i].Priority < list[j].Priority
			}
			return list[i].Order < list[j].Order
		})
	}

	if len(errs) > 0 {
		return nil, fmt.Errorf("registry build failed:\n- %s", strings.Join(errs, "\n- "))
	}
	return s, nil
}

func buildVariable(def *config.VariableDefinition, hasEquation bool) (*VariableSpec, error) {
	u, err := units.Parse(def.Unit)
	if err != nil {
		return nil, err
	}
	red, err := parseReduction(def.Reduction)
	if err != nil {
		return nil, err
	}

	var raw bool
	switch def.Kind {
	case config.KindRaw:
		raw = true
	case config.KindDerived:
	case "":
		raw = !hasEquation
	default:
		return nil, fmt.Errorf("unknown kind %q", def.Kind)
	}

	props := def.Properties
	if len(props) == 0 {
		props = []string{def.Name}
	}

	return &VariableSpec{
		Name:          def.Name,
		Unit:          u,
		Aliases:       def.Aliases,
		Raw:           raw,
		Properties:    props,
		Reduction:     red,
		Default:       def.Default,
		TimeInvariant: def.TimeInvariant,
		FullName:      def.FullName,
		Description:   def.Description,
		Format:        def.Format,
		Source:        def.Source,
	}, nil
}

func buildEquation(def *config.EquationDefinition, order int) (*Equation, error) {
	if def.Output == "" {
		return nil, errors.New("missing output")
	}
	u, err := units.Parse(def.Unit)
	if err != nil {
		return nil, err
	}
	expr, err := formula.Parse(def.Formula, def.Source)
	if err != nil {
		return nil, err
	}
	requires := def.Requires
	if len(requires) == 0 {
		requires = formula.References(expr)
	}
	priority := DefaultPriority
	if def.Priority != nil {
		priority = *def.Priority
	}
	return &Equation{
		ID:          def.ID,
		Output:      def.Output,
		Unit:        u,
		Formula:     def.Formula,
		Expr:        expr,
		Requires:    requires,
		Priority:    priority,
		Order:       order,
		Description: def.Description,
		Source:      def.Source,
	}, nil
}

// LookupCandidates returns the equations producing metric, best first. The
// slice is a copy; an unknown metric yields nil.
func (s *Snapshot) LookupCandidates(metric string) []*Equation {
	list := s.candidates[metric]
	if len(list) == 0 {
		return nil
	}
	return append([]*Equation(nil), list...)
}

// Get returns the equation with the given id.
func (s *Snapshot) Get(id string) (*Equation, error) {
	eq, ok := s.equations[id]
	if !ok {
		return nil, &calcerr.UnknownEquationError{ID: id}
	}
	return eq, nil
}

// Canonicalize maps a name or alias to its variable.
func (s *Snapshot) Canonicalize(raw string) (*VariableSpec, error) {
	name, ok := s.aliases[NormalizeName(raw)]
	if !ok {
		return nil, &calcerr.UnknownVariableError{Name: raw}
	}
	return s.variables[name], nil
}

// IsRaw reports whether v is answered directly from data.
func (s *Snapshot) IsRaw(v *VariableSpec) bool { return v.Raw }

// Variable returns a variable by canonical name.
func (s *Snapshot) Variable(name string) (*VariableSpec, bool) {
	v, ok := s.variables[name]
	return v, ok
}

// Variables returns every variable in declaration order.
func (s *Snapshot) Variables() []*VariableSpec {
	return append([]*VariableSpec(nil), s.varOrder...)
}

// Equations returns every equation in declaration order.
func (s *Snapshot) Equations() []*Equation {
	return append([]*Equation(nil), s.eqOrder...)
}

// Functions is the function table formulas were checked against.
func (s *Snapshot) Functions() *formula.Functions { return s.functions }

// LoadedAt is when the snapshot was built.
func (s *Snapshot) LoadedAt() time.Time { return s.loadedAt }
