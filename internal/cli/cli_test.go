package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/shuvo-dotcom/nfgcalc/internal/engine"
	"github.com/shuvo-dotcom/nfgcalc/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const fixtureData = `
records:
  - {source: be.csv, property: Fixed Cost, child: BE, date: "2050", value: 100, unit: $}
  - {source: be.csv, property: Fuel Cost, child: BE, date: "2050", value: 50, unit: $}
  - {source: be.csv, property: Generation, child: BE, date: "2050", value: 10, unit: MWh}
`

func fixtureArgs(t *testing.T) []string {
	t.Helper()
	dir := testutil.WriteFiles(t, map[string]string{
		"registry/lcoe.hcl": testutil.LCOERegistry,
		"data.yaml":         fixtureData,
	})
	return []string{
		"--registry", filepath.Join(dir, "registry"),
		"--data-kind", "memory",
		"--data-path", filepath.Join(dir, "data.yaml"),
		"--log-level", "error",
	}
}

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	out, errOut := &bytes.Buffer{}, &bytes.Buffer{}
	err := Execute(context.Background(), out, errOut, args)
	return out.String(), errOut.String(), err
}

func TestQuery_Table(t *testing.T) {
	args := append([]string{"query"}, fixtureArgs(t)...)
	out, _, err := execute(t, append(args, "--metric", "lcoe", "--entity", "BE", "--time", "2050")...)
	require.NoError(t, err)

	assert.Contains(t, out, "15.00")
	assert.Contains(t, out, "$/MWh")
	assert.Contains(t, out, "Citations")
	assert.Contains(t, out, "lcoe_basic")
}

func TestQuery_JSON(t *testing.T) {
	args := append([]string{"query"}, fixtureArgs(t)...)
	out, _, err := execute(t, append(args, "-m", "lcoe", "-e", "BE", "-t", "2050", "-o", "json")...)
	require.NoError(t, err)

	var res engine.Result
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.InDelta(t, 15.0, res.Value, 1e-9)
	assert.Equal(t, "lcoe", res.Metric)
	assert.NotEmpty(t, res.QueryID)
	assert.Len(t, res.Citations, 4)
}

func TestQuery_Narrative(t *testing.T) {
	args := append([]string{"query"}, fixtureArgs(t)...)
	out, _, err := execute(t, append(args, "-m", "generation", "-e", "BE", "-t", "2050", "-o", "narrative")...)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "The generation for BE in 2050 is 10.0 MWh."), out)
}

func TestQuery_Failures(t *testing.T) {
	testCases := []struct {
		name    string
		extra   []string
		code    int
		message string
	}{
		{
			name:    "unknown metric",
			extra:   []string{"-m", "capacity factor", "-e", "BE"},
			code:    exitFailure,
			message: "unrecognized metric or entity",
		},
		{
			name:    "insufficient data",
			extra:   []string{"-m", "lcoe", "-e", "FR", "-t", "2050"},
			code:    exitFailure,
			message: "insufficient data to answer the question",
		},
		{
			name:    "bad filter",
			extra:   []string{"-m", "lcoe", "-e", "BE", "--filter", "nuclear"},
			code:    exitUsage,
			message: `invalid filter "nuclear"`,
		},
		{
			name:    "unsupported filter key",
			extra:   []string{"-m", "lcoe", "-e", "BE", "--filter", "colour=red"},
			code:    exitFailure,
			message: "invalid question",
		},
		{
			name:    "bad output",
			extra:   []string{"-m", "lcoe", "-e", "BE", "-o", "xml"},
			code:    exitUsage,
			message: `invalid output "xml"`,
		},
		{
			name:    "missing required flag",
			extra:   []string{"-e", "BE"},
			code:    exitUsage,
			message: "metric",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			args := append([]string{"query"}, fixtureArgs(t)...)
			_, _, err := execute(t, append(args, tc.extra...)...)

			var exitErr *ExitError
			require.ErrorAs(t, err, &exitErr)
			assert.Equal(t, tc.code, exitErr.Code)
			assert.Contains(t, exitErr.Message, tc.message)
		})
	}
}

func TestRoot_InvalidConfig(t *testing.T) {
	args := append([]string{"query"}, fixtureArgs(t)...)
	_, _, err := execute(t, append(args, "--data-kind", "csv", "-m", "lcoe", "-e", "BE")...)

	var exitErr *ExitError
	require.ErrorAs(t, err, &exitErr)
	assert.Equal(t, exitUsage, exitErr.Code)
	assert.Contains(t, exitErr.Message, "data.kind")
}

func TestValidate(t *testing.T) {
	out, _, err := execute(t, append([]string{"validate", "--list"}, fixtureArgs(t)...)...)
	require.NoError(t, err)
	assert.Contains(t, out, "Registry OK: 8 variables, 3 equations.")
	assert.Contains(t, out, "lcoe_full")
}

func TestValidate_Defective(t *testing.T) {
	dir := testutil.WriteFiles(t, map[string]string{"bad.hcl": `
variable "x" {
  unit = "MWh"
}
variable "y" {
  unit = "$"
}
equation "bad" {
  output   = "y"
  formula  = "x + missing"
  unit     = "$"
}
`})
	_, _, err := execute(t, "validate", "--registry", dir)

	var exitErr *ExitError
	require.ErrorAs(t, err, &exitErr)
	assert.Equal(t, exitFailure, exitErr.Code)
	assert.Contains(t, exitErr.Message, "missing")
}

func TestBatch(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "queries.jsonl")
	outPath := filepath.Join(dir, "results.jsonl")
	require.NoError(t, os.WriteFile(in, []byte(
		`{"metric": "lcoe", "entity": "BE", "time": "2050"}
{"metric": "lcoe", "entity": "FR", "time": "2050"}
`), 0o600))

	args := append([]string{"batch", "--in", in, "--out", outPath}, fixtureArgs(t)...)
	_, errOut, err := execute(t, args...)
	require.NoError(t, err)
	assert.Contains(t, errOut, "2 queries: 1 answered, 1 failed")

	data, err := os.ReadFile(outPath)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 2)

	var first, second engine.Result
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &first))
	require.NoError(t, json.Unmarshal([]byte(lines[1]), &second))
	assert.True(t, first.OK())
	assert.False(t, second.OK())
}

func TestParseFilters(t *testing.T) {
	got, err := parseFilters([]string{"Technology = Nuclear", "category=Baseload"})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"technology": "Nuclear", "category": "Baseload"}, got)

	got, err = parseFilters(nil)
	require.NoError(t, err)
	assert.Nil(t, got)

	_, err = parseFilters([]string{"=x"})
	assert.Error(t, err)
}
