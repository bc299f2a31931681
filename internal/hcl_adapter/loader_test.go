package hcl_adapter

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/shuvo-dotcom/nfgcalc/internal/config"
	"github.com/shuvo-dotcom/nfgcalc/internal/ctxlog"
	"github.com/shuvo-dotcom/nfgcalc/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func TestLoader_Load(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "10_variables.hcl", `
variable "generation" {
  unit       = "MWh"
  aliases    = ["Electricity Generation"]
  kind       = "raw"
  properties = ["Generation", "Electricity Generation"]
  reduction  = "latest"
  full_name  = "Electricity Generation"
}

variable "discount_rate" {
  unit           = "%"
  default        = 7
  time_invariant = true
}
`)
	writeFile(t, dir, "20_equations.hcl", `
equation "lcoe_basic" {
  output   = "lcoe"
  unit     = "$/MWh"
  formula  = "(fixed_cost + fuel_cost) / generation"
  priority = 10
}
`)
	writeFile(t, dir, "ignored.txt", `not hcl`)

	ctx := ctxlog.WithLogger(context.Background(), testutil.NewTestLogger(t))
	model, err := NewLoader().Load(ctx, dir)
	require.NoError(t, err)

	require.Len(t, model.Variables, 2)
	gen := model.Variables[0]
	assert.Equal(t, "generation", gen.Name)
	assert.Equal(t, "MWh", gen.Unit)
	assert.Equal(t, config.KindRaw, gen.Kind)
	assert.Equal(t, []string{"Generation", "Electricity Generation"}, gen.Properties)
	assert.Equal(t, "latest", gen.Reduction)
	assert.Nil(t, gen.Default)
	assert.Equal(t, filepath.Join(dir, "10_variables.hcl")+":2", gen.Source)

	rate := model.Variables[1]
	require.NotNil(t, rate.Default)
	assert.Equal(t, 7.0, *rate.Default)
	assert.True(t, rate.TimeInvariant)

	require.Len(t, model.Equations, 1)
	eq := model.Equations[0]
	assert.Equal(t, "lcoe_basic", eq.ID)
	assert.Equal(t, "lcoe", eq.Output)
	assert.Equal(t, filepath.Join(dir, "20_equations.hcl"), eq.File)
	assert.Nil(t, eq.Requires)
	require.NotNil(t, eq.Priority)
	assert.Equal(t, 10, *eq.Priority)
}

func TestLoader_Errors(t *testing.T) {
	testCases := []struct {
		name    string
		content string
		errMsg  string
	}{
		{name: "syntax", content: `equation "x" {`, errMsg: "failed to parse HCL file"},
		{name: "missing formula", content: `equation "x" {
  output = "y"
  unit   = "1"
}`, errMsg: "failed to decode HCL file"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			dir := t.TempDir()
			writeFile(t, dir, "bad.hcl", tc.content)
			_, err := NewLoader().Load(context.Background(), dir)
			assert.ErrorContains(t, err, tc.errMsg)
		})
	}
}
