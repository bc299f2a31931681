package yaml_adapter

import (
	"path/filepath"
	"testing"

	"github.com/shuvo-dotcom/nfgcalc/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoader_Load(t *testing.T) {
	dir := testutil.WriteFiles(t, map[string]string{
		"registry.yaml": `variables:
  - name: generation
    unit: MWh
    aliases: [Generation]
    reduction: latest
  - name: lcoe
    unit: $/MWh
    full_name: Levelized Cost of Electricity
equations:
  - id: lcoe_basic
    output: lcoe
    unit: $/MWh
    formula: (fixed_cost + fuel_cost) / generation
    priority: 5
`,
		"more/extra.yml": `variables:
  - name: fuel_cost
    unit: $
    default: 0
`,
		"ignored.hcl": `variable "x" {}`,
	})

	model, err := NewLoader().Load(testutil.Context(t), dir)
	require.NoError(t, err)

	require.Len(t, model.Variables, 3)
	assert.Equal(t, "fuel_cost", model.Variables[0].Name, "more/extra.yml sorts first")
	require.NotNil(t, model.Variables[0].Default)
	assert.Equal(t, 0.0, *model.Variables[0].Default)

	gen := model.Variables[1]
	assert.Equal(t, "generation", gen.Name)
	assert.Equal(t, "latest", gen.Reduction)
	assert.Equal(t, filepath.Join(dir, "registry.yaml")+":2", gen.Source)
	assert.Equal(t, filepath.Join(dir, "registry.yaml"), gen.File)

	require.Len(t, model.Equations, 1)
	eq := model.Equations[0]
	assert.Equal(t, "(fixed_cost + fuel_cost) / generation", eq.Formula)
	require.NotNil(t, eq.Priority)
	assert.Equal(t, 5, *eq.Priority)
}

func TestLoader_Errors(t *testing.T) {
	testCases := []struct {
		name    string
		content string
		errMsg  string
	}{
		{name: "malformed", content: "variables: [", errMsg: "failed to parse YAML file"},
		{name: "wrong type", content: "variables:\n  - name: [a]\n", errMsg: "failed to decode variable"},
		{name: "missing formula", content: "equations:\n  - id: e\n    output: x\n", errMsg: "id and formula are required"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			dir := testutil.WriteFiles(t, map[string]string{"bad.yaml": tc.content})
			_, err := NewLoader().Load(testutil.Context(t), dir)
			assert.ErrorContains(t, err, tc.errMsg)
		})
	}
}
