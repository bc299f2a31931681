package app

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/shuvo-dotcom/nfgcalc/internal/calcerr"
	"github.com/shuvo-dotcom/nfgcalc/internal/engine"
	"github.com/shuvo-dotcom/nfgcalc/internal/query"
	"github.com/shuvo-dotcom/nfgcalc/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const fixtureData = `
records:
  - {source: be.csv, property: Fixed Cost, child: BE, date: "2050", value: 100, unit: $}
  - {source: be.csv, property: Fuel Cost, child: BE, date: "2050", value: 50, unit: $}
  - {source: be.csv, property: Generation, child: BE, date: "2050", value: 10, unit: MWh}
  - {source: fr.csv, property: Generation, child: FR, date: "2050", value: 20, unit: GWh}
`

func testConfig(t *testing.T) *Config {
	t.Helper()
	dir := testutil.WriteFiles(t, map[string]string{
		"registry/lcoe.hcl": testutil.LCOERegistry,
		"data.yaml":         fixtureData,
	})
	return &Config{
		Registry: RegistryConfig{Paths: []string{filepath.Join(dir, "registry")}},
		Data:     DataConfig{Kind: "memory", Path: filepath.Join(dir, "data.yaml")},
		Fetch:    FetchConfig{Concurrency: 4, Prefetch: true},
		Log:      LogConfig{Level: "debug", Format: "text"},
	}
}

func newTestApp(t *testing.T, cfg *Config, opts ...Option) (*App, *testutil.SafeBuffer) {
	t.Helper()
	logs := &testutil.SafeBuffer{}
	a, err := NewApp(context.Background(), logs, cfg, opts...)
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, a.Close())
		if t.Failed() {
			t.Logf("--- Log output for %s ---\n%s", t.Name(), logs.String())
		}
	})
	return a, logs
}

func TestApp_Answer(t *testing.T) {
	a, logs := newTestApp(t, testConfig(t))

	res, err := a.Answer(context.Background(), query.ResolvedQuery{Metric: "lcoe", Entity: "BE", Time: "2050"})
	require.NoError(t, err)
	assert.InDelta(t, 15.0, res.Value, 1e-9)
	assert.Equal(t, []string{"lcoe_basic"}, res.EquationIDs())
	assert.Contains(t, logs.String(), "Query answered.")
	assert.Contains(t, logs.String(), "query_id="+res.QueryID)
}

func TestNewApp_Errors(t *testing.T) {
	cfg := testConfig(t)
	cfg.Registry.Paths = []string{testutil.WriteFiles(t, map[string]string{"bad.hcl": `variable "x" {`})}
	_, err := NewApp(context.Background(), &testutil.SafeBuffer{}, cfg)
	assert.Error(t, err)

	cfg = testConfig(t)
	cfg.Data.Path = filepath.Join(t.TempDir(), "missing.yaml")
	_, err = NewApp(context.Background(), &testutil.SafeBuffer{}, cfg)
	assert.ErrorContains(t, err, "failed to open data store")
}

func TestApp_SQLiteStore(t *testing.T) {
	cfg := testConfig(t)
	cfg.Data = DataConfig{Kind: "sqlite", Path: ":memory:"}
	a, _ := newTestApp(t, cfg)

	res, err := a.Answer(context.Background(), query.ResolvedQuery{Metric: "lcoe", Entity: "BE", Time: "2050"})
	require.Error(t, err)
	assert.Equal(t, calcerr.KindUnresolvableMetric, res.Failure.Kind, "empty database has no data")
}

func TestApp_RunBatch(t *testing.T) {
	a, _ := newTestApp(t, testConfig(t))

	in := strings.Join([]string{
		`{"metric": "lcoe", "entity": "BE", "time": "2050"}`,
		`not json`,
		``,
		`{"metric": "generation", "entity": "FR", "time": "2050"}`,
		`{"metric": "lcoe", "entity": "FR", "time": "2050"}`,
	}, "\n")
	var out bytes.Buffer

	summary, err := a.RunBatch(context.Background(), strings.NewReader(in), &out)
	require.NoError(t, err)
	assert.Equal(t, BatchSummary{Total: 4, Answered: 2, Failed: 2}, summary)

	var results []engine.Result
	dec := json.NewDecoder(&out)
	for dec.More() {
		var r engine.Result
		require.NoError(t, dec.Decode(&r))
		results = append(results, r)
	}
	require.Len(t, results, 4)

	assert.Equal(t, "lcoe", results[0].Metric)
	assert.InDelta(t, 15.0, results[0].Value, 1e-9)
	assert.Equal(t, calcerr.KindInvalidQuery, results[1].Failure.Kind)
	assert.InDelta(t, 20000.0, results[2].Value, 1e-9)
	assert.Equal(t, "MWh", results[2].Unit)
	assert.Equal(t, calcerr.KindUnresolvableMetric, results[3].Failure.Kind)
}

func TestApp_RunBatchCancelled(t *testing.T) {
	a, _ := newTestApp(t, testConfig(t))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := a.RunBatch(ctx, strings.NewReader(`{"metric": "lcoe", "entity": "BE"}`), &bytes.Buffer{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestApp_HealthHandler(t *testing.T) {
	a, _ := newTestApp(t, testConfig(t))

	rec := httptest.NewRecorder()
	a.healthHandler(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	var body healthStatus
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "OK", body.Status)
	assert.Equal(t, 8, body.Variables)
	assert.Equal(t, 3, body.Equations)
}

type fixedIntent struct{ q query.ResolvedQuery }

func (f fixedIntent) Resolve(context.Context, string) (query.ResolvedQuery, error) { return f.q, nil }

func TestApp_AnswerText(t *testing.T) {
	a, _ := newTestApp(t, testConfig(t), WithIntentResolver(fixedIntent{
		q: query.ResolvedQuery{Metric: "levelized cost of electricity", Entity: "BE", Time: "2050"},
	}))

	res, err := a.AnswerText(context.Background(), "What is the LCOE in Belgium in 2050?")
	require.NoError(t, err)
	assert.InDelta(t, 15.0, res.Value, 1e-9)
}

func TestLoadRegistry(t *testing.T) {
	cfg := testConfig(t)
	snap, err := LoadRegistry(testutil.Context(t), cfg.Registry)
	require.NoError(t, err)
	assert.Len(t, snap.Equations(), 3)
}
