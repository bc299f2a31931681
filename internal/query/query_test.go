package query

import (
	"testing"

	"github.com/shuvo-dotcom/nfgcalc/internal/calcerr"
	"github.com/shuvo-dotcom/nfgcalc/internal/datastore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolvedQuery_Validate(t *testing.T) {
	testCases := []struct {
		name   string
		q      ResolvedQuery
		reason string
	}{
		{name: "valid", q: ResolvedQuery{Metric: "lcoe", Entity: "BE", Time: "2050"}},
		{name: "valid with filters", q: ResolvedQuery{Metric: "lcoe", Entity: "BE", Filters: map[string]string{"technology": "nuclear"}}},
		{name: "missing metric", q: ResolvedQuery{Entity: "BE"}, reason: "metric is required"},
		{name: "missing both", q: ResolvedQuery{}, reason: "entity is required; metric is required"},
		{name: "unknown filter", q: ResolvedQuery{Metric: "lcoe", Entity: "BE", Filters: map[string]string{"colour": "red"}}, reason: `unsupported filter "colour"`},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.q.Validate()
			if tc.reason == "" {
				assert.NoError(t, err)
				return
			}
			var invalid *calcerr.InvalidQueryError
			require.ErrorAs(t, err, &invalid)
			assert.Equal(t, tc.reason, invalid.Reason)
		})
	}
}

func TestResolvedQuery_FetchRequest(t *testing.T) {
	q := ResolvedQuery{Metric: "lcoe", Entity: "BE", Time: "2050", Filters: map[string]string{"technology": "Nuclear"}}

	assert.Equal(t, datastore.FetchRequest{Property: "Generation", Child: "BE", Date: "2050", Category: "Nuclear"},
		q.FetchRequest("Generation", false))
	assert.Equal(t, datastore.FetchRequest{Property: "Discount Rate", Child: "BE", Category: "Nuclear"},
		q.FetchRequest("Discount Rate", true))

	q.Filters["category"] = "Baseload"
	assert.Equal(t, "Baseload", q.Category())
	assert.Equal(t, "lcoe for BE in 2050 (Baseload)", q.String())
}
