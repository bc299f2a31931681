package evaluator

import (
	"context"
	"testing"

	"github.com/shuvo-dotcom/nfgcalc/internal/calcerr"
	"github.com/shuvo-dotcom/nfgcalc/internal/config"
	"github.com/shuvo-dotcom/nfgcalc/internal/datastore"
	"github.com/shuvo-dotcom/nfgcalc/internal/formula"
	"github.com/shuvo-dotcom/nfgcalc/internal/graph"
	"github.com/shuvo-dotcom/nfgcalc/internal/inmemorystore"
	"github.com/shuvo-dotcom/nfgcalc/internal/query"
	"github.com/shuvo-dotcom/nfgcalc/internal/registry"
	"github.com/shuvo-dotcom/nfgcalc/internal/resolver"
	"github.com/shuvo-dotcom/nfgcalc/internal/testutil"
	"github.com/shuvo-dotcom/nfgcalc/modules/finance"
	"github.com/shuvo-dotcom/nfgcalc/modules/mathfn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testFunctions() *formula.Functions {
	return formula.NewFunctions(&mathfn.Module{}, &finance.Module{})
}

// resolve builds a snapshot from model without validation and resolves
// metric against records.
func resolve(t *testing.T, model *config.Model, metric string, records ...datastore.DataRecord) *graph.ComputationGraph {
	t.Helper()
	snap, err := registry.Build(model, testFunctions())
	require.NoError(t, err)
	g, err := resolver.New(snap, inmemorystore.New(records...), resolver.Options{}).
		Resolve(testutil.Context(t), query.ResolvedQuery{Metric: metric, Entity: "BE", Time: "2050"})
	require.NoError(t, err)
	return g
}

func rec(property string, value float64, unit string) datastore.DataRecord {
	return datastore.DataRecord{Property: property, Value: value, Child: "BE", Date: "2050", Unit: unit}
}

func lcoeModel(eqUnit, formulaText string) *config.Model {
	return &config.Model{
		Variables: []*config.VariableDefinition{
			{Name: "lcoe", Unit: eqUnit},
			{Name: "fixed_cost", Unit: "$"},
			{Name: "fuel_cost", Unit: "$"},
			{Name: "generation", Unit: "MWh"},
		},
		Equations: []*config.EquationDefinition{
			{ID: "LCOE", Output: "lcoe", Unit: eqUnit, Formula: formulaText},
		},
	}
}

func TestEvaluate_LCOE(t *testing.T) {
	g := resolve(t, lcoeModel("$/MWh", "(fixed_cost + fuel_cost) / generation"), "lcoe",
		rec("fixed_cost", 100, "$"), rec("fuel_cost", 50, ""), rec("generation", 10, "MWh"))

	require.NoError(t, New(testFunctions()).Evaluate(testutil.Context(t), g))

	root := g.RootNode()
	assert.True(t, root.Evaluated)
	assert.InDelta(t, 15.0, root.Value.Value, 1e-9)
	assert.Equal(t, "$/MWh", root.Value.Unit.String())
}

func TestEvaluate_Deterministic(t *testing.T) {
	records := []datastore.DataRecord{rec("fixed_cost", 100, "k$"), rec("fuel_cost", 50, "$"), rec("generation", 3, "GWh")}
	model := lcoeModel("$/MWh", "(fixed_cost + fuel_cost) / generation")

	first := resolve(t, model, "lcoe", records...)
	second := resolve(t, model, "lcoe", records...)
	require.NoError(t, New(testFunctions()).Evaluate(testutil.Context(t), first))
	require.NoError(t, New(testFunctions()).Evaluate(testutil.Context(t), second))

	assert.Equal(t, first.RootNode().Value.Value, second.RootNode().Value.Value)
	assert.Equal(t, first.RootNode().Value.Unit.String(), second.RootNode().Value.Unit.String())
}

func TestEvaluate_LeafConvertsRecordUnit(t *testing.T) {
	model := &config.Model{Variables: []*config.VariableDefinition{{Name: "generation", Unit: "MWh"}}}
	g := resolve(t, model, "generation", rec("generation", 2.5, "GWh"))

	require.NoError(t, New(testFunctions()).Evaluate(testutil.Context(t), g))
	assert.InDelta(t, 2500.0, g.RootNode().Value.Value, 1e-9)
	assert.Equal(t, "MWh", g.RootNode().Value.Unit.String())
}

func TestEvaluate_PercentRecordIntoFraction(t *testing.T) {
	model := &config.Model{Variables: []*config.VariableDefinition{{Name: "capacity_factor", Unit: "1"}}}
	g := resolve(t, model, "capacity_factor", rec("capacity_factor", 35, "%"))

	require.NoError(t, New(testFunctions()).Evaluate(testutil.Context(t), g))
	assert.InDelta(t, 0.35, g.RootNode().Value.Value, 1e-12)
}

func TestEvaluate_LeafIncompatibleRecordUnit(t *testing.T) {
	model := &config.Model{Variables: []*config.VariableDefinition{{Name: "generation", Unit: "MWh"}}}

	for _, unit := range []string{"$", "furlongs"} {
		g := resolve(t, model, "generation", rec("generation", 1, unit))

		err := New(testFunctions()).Evaluate(testutil.Context(t), g)

		var conv *calcerr.UnitConversionError
		require.ErrorAs(t, err, &conv, unit)
		assert.Equal(t, "generation", conv.Variable)
		assert.Equal(t, unit, conv.From)
		assert.Equal(t, "MWh", conv.To)
	}
}

func TestEvaluate_DeclaredUnitMismatch(t *testing.T) {
	g := resolve(t, lcoeModel("$/MWh", "fixed_cost + fuel_cost"), "lcoe",
		rec("fixed_cost", 100, "$"), rec("fuel_cost", 50, "$"))

	err := New(testFunctions()).Evaluate(testutil.Context(t), g)

	var consistency *calcerr.UnitConsistencyError
	require.ErrorAs(t, err, &consistency)
	assert.Equal(t, "LCOE", consistency.EquationID)
	assert.Equal(t, "$/MWh", consistency.Declared)
	assert.Equal(t, "$", consistency.Derived)
	assert.False(t, g.RootNode().Evaluated, "no value is produced")
}

func TestEvaluate_IncompatibleOperands(t *testing.T) {
	g := resolve(t, lcoeModel("$", "fixed_cost + generation"), "lcoe",
		rec("fixed_cost", 100, "$"), rec("generation", 10, "MWh"))

	err := New(testFunctions()).Evaluate(testutil.Context(t), g)

	var consistency *calcerr.UnitConsistencyError
	require.ErrorAs(t, err, &consistency)
	assert.Contains(t, consistency.Detail, "cannot combine")
	assert.Equal(t, calcerr.KindUnitConsistency, calcerr.KindOf(err))
}

func TestEvaluate_DivisionByZero(t *testing.T) {
	g := resolve(t, lcoeModel("$/MWh", "(fixed_cost + fuel_cost) / generation"), "lcoe",
		rec("fixed_cost", 100, "$"), rec("fuel_cost", 50, "$"), rec("generation", 0, "MWh"))

	err := New(testFunctions()).Evaluate(testutil.Context(t), g)

	var evalErr *calcerr.EvaluationError
	require.ErrorAs(t, err, &evalErr)
	assert.Equal(t, "LCOE", evalErr.EquationID)
}

func TestEvaluate_DefaultAndFunctions(t *testing.T) {
	model := &config.Model{
		Variables: []*config.VariableDefinition{
			{Name: "annual_capex", Unit: "$"},
			{Name: "capex", Unit: "k$"},
			{Name: "discount_rate", Unit: "%", Default: ptr(0.0)},
			{Name: "lifetime", Unit: "yr", Default: ptr(20.0)},
		},
		Equations: []*config.EquationDefinition{
			{ID: "annual_capex", Output: "annual_capex", Unit: "$", Formula: "annualize(capex, discount_rate, lifetime)"},
		},
	}
	g := resolve(t, model, "annual_capex", rec("capex", 1, "M$"))

	require.NoError(t, New(testFunctions()).Evaluate(testutil.Context(t), g))

	capex, _ := g.Node("capex")
	assert.InDelta(t, 1000.0, capex.Value.Value, 1e-9, "1 M$ read as k$")
	// Zero rate: capex spread evenly over the lifetime.
	assert.InDelta(t, 50000.0, g.RootNode().Value.Value, 1e-6)
	assert.Equal(t, "$", g.RootNode().Value.Unit.String())
}

func TestEvaluate_Cancelled(t *testing.T) {
	g := resolve(t, lcoeModel("$/MWh", "(fixed_cost + fuel_cost) / generation"), "lcoe",
		rec("fixed_cost", 100, "$"), rec("fuel_cost", 50, "$"), rec("generation", 10, "MWh"))

	ctx, cancel := context.WithCancel(testutil.Context(t))
	cancel()
	assert.ErrorIs(t, New(testFunctions()).Evaluate(ctx, g), context.Canceled)
}

func ptr[T any](v T) *T { return &v }

func TestReduce(t *testing.T) {
	records := []datastore.DataRecord{
		{Date: "2049", Category: "a"},
		{Date: "2050", Category: "a"},
		{Date: "2050", Category: "b"},
	}
	values := []float64{1, 2, 4}

	testCases := []struct {
		policy  registry.Reduction
		want    float64
		wantErr bool
	}{
		{policy: registry.ReduceSum, want: 7},
		{policy: registry.ReduceLatest, want: 6},
		{policy: registry.ReduceMean, want: 7.0 / 3},
		{policy: registry.ReduceMax, want: 4},
		{policy: registry.ReduceMin, want: 1},
		{policy: registry.ReduceSingle, wantErr: true},
	}

	for _, tc := range testCases {
		t.Run(string(tc.policy), func(t *testing.T) {
			got, err := reduce(tc.policy, records, values)
			if tc.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.InDelta(t, tc.want, got, 1e-12)
		})
	}

	got, err := reduce(registry.ReduceSingle, records[:1], values[:1])
	require.NoError(t, err)
	assert.Equal(t, 1.0, got)
}

func TestEvaluate_SingleReductionAmbiguity(t *testing.T) {
	model := &config.Model{Variables: []*config.VariableDefinition{{Name: "price", Unit: "$", Reduction: "single"}}}
	g := resolve(t, model, "price",
		datastore.DataRecord{Property: "price", Child: "BE", Date: "2050", Category: "a", Value: 1},
		datastore.DataRecord{Property: "price", Child: "BE", Date: "2050", Category: "b", Value: 2})

	err := New(testFunctions()).Evaluate(testutil.Context(t), g)
	var evalErr *calcerr.EvaluationError
	require.ErrorAs(t, err, &evalErr)
	assert.Equal(t, "price", evalErr.Variable)
}
