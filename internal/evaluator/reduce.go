package evaluator

import (
	"fmt"
	"slices"

	"github.com/shuvo-dotcom/nfgcalc/internal/datastore"
	"github.com/shuvo-dotcom/nfgcalc/internal/registry"
)

// reduce collapses the converted values of a leaf's records into one.
// values[i] belongs to records[i].
func reduce(policy registry.Reduction, records []datastore.DataRecord, values []float64) (float64, error) {
	if len(values) == 0 {
		return 0, fmt.Errorf("no records to reduce")
	}

	switch policy {
	case registry.ReduceSum, "":
		return sum(values), nil

	case registry.ReduceLatest:
		// Date labels compare lexically; ISO dates and years order correctly.
		latest := records[0].Date
		for _, r := range records[1:] {
			if r.Date > latest {
				latest = r.Date
			}
		}
		var total float64
		for i, r := range records {
			if r.Date == latest {
				total += values[i]
			}
		}
		return total, nil

	case registry.ReduceMean:
		return sum(values) / float64(len(values)), nil

	case registry.ReduceMax:
		return slices.Max(values), nil

	case registry.ReduceMin:
		return slices.Min(values), nil

	case registry.ReduceSingle:
		if len(values) > 1 {
			return 0, fmt.Errorf("%d records match, expected exactly one", len(values))
		}
		return values[0], nil
	}
	return 0, fmt.Errorf("unknown reduction %q", policy)
}

func sum(values []float64) float64 {
	var total float64
	for _, v := range values {
		total += v
	}
	return total
}
