// Package query defines the structured question the engine answers and the
// boundary to whatever turns free text into it.
package query

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shuvo-dotcom/nfgcalc/internal/calcerr"
	"github.com/shuvo-dotcom/nfgcalc/internal/datastore"
)

// ResolvedQuery is the engine's only input contract.
type ResolvedQuery struct {
	Metric string `json:"metric" yaml:"metric" validate:"required"`
	Entity string `json:"entity" yaml:"entity" validate:"required"`
	Time   string `json:"time,omitempty" yaml:"time,omitempty"`
	// Filters narrows data lookups, e.g. {"technology": "nuclear"}.
	Filters map[string]string `json:"filters,omitempty" yaml:"filters,omitempty" validate:"dive,keys,oneof=category technology,endkeys"`
}

// IntentResolver turns free text into a ResolvedQuery. Implementations live
// outside the engine.
type IntentResolver interface {
	Resolve(ctx context.Context, text string) (ResolvedQuery, error)
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks the query before resolution.
func (q ResolvedQuery) Validate() error {
	err := validate.Struct(q)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return &calcerr.InvalidQueryError{Reason: err.Error()}
	}
	reasons := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		switch fe.Tag() {
		case "required":
			reasons = append(reasons, fmt.Sprintf("%s is required", strings.ToLower(fe.Field())))
		case "oneof":
			reasons = append(reasons, fmt.Sprintf("unsupported filter %q", fe.Value()))
		default:
			reasons = append(reasons, fmt.Sprintf("%s failed %s", strings.ToLower(fe.Field()), fe.Tag()))
		}
	}
	sort.Strings(reasons)
	return &calcerr.InvalidQueryError{Reason: strings.Join(reasons, "; ")}
}

// Category returns the category filter, preferring "category" over
// "technology".
func (q ResolvedQuery) Category() string {
	if c := q.Filters["category"]; c != "" {
		return c
	}
	return q.Filters["technology"]
}

// FetchRequest builds the data lookup of one property for this query.
func (q ResolvedQuery) FetchRequest(property string, timeInvariant bool) datastore.FetchRequest {
	req := datastore.FetchRequest{
		Property: property,
		Child:    q.Entity,
		Date:     q.Time,
		Category: q.Category(),
	}
	if timeInvariant {
		req.Date = ""
	}
	return req
}

func (q ResolvedQuery) String() string {
	s := q.Metric + " for " + q.Entity
	if q.Time != "" {
		s += " in " + q.Time
	}
	if c := q.Category(); c != "" {
		s += " (" + c + ")"
	}
	return s
}
