package engine

import (
	"github.com/google/uuid"
	"github.com/shuvo-dotcom/nfgcalc/internal/calcerr"
	"github.com/shuvo-dotcom/nfgcalc/internal/citation"
	"github.com/shuvo-dotcom/nfgcalc/internal/query"
)

// Result is the answer to one query.
type Result struct {
	QueryID string `json:"query_id"`
	// Metric is the canonical variable name once resolved, else as asked.
	Metric string `json:"metric"`
	Entity string `json:"entity"`
	Time   string `json:"time,omitempty"`

	Value          float64              `json:"value"`
	Unit           string               `json:"unit,omitempty"`
	FormattedValue string               `json:"formatted_value,omitempty"`
	Citations      []citation.Citation  `json:"citations,omitempty"`
	Trace          []citation.TraceStep `json:"trace,omitempty"`
	Narrative      *citation.Narrative  `json:"narrative,omitempty"`
	Failure        *Failure             `json:"failure,omitempty"`
}

// Failure describes why a query produced no value.
type Failure struct {
	Kind calcerr.Kind `json:"kind"`
	// Message is safe to show to end users.
	Message string `json:"message"`
	// Detail is the full diagnostic for operators.
	Detail string `json:"detail"`
}

// Failed returns the result of a query that ended in err.
func Failed(queryID string, q query.ResolvedQuery, err error) *Result {
	if queryID == "" {
		queryID = uuid.NewString()
	}
	return &Result{
		QueryID: queryID,
		Metric:  q.Metric,
		Entity:  q.Entity,
		Time:    q.Time,
		Failure: &Failure{
			Kind:    calcerr.KindOf(err),
			Message: calcerr.UserMessage(err),
			Detail:  err.Error(),
		},
	}
}

// OK reports whether the result carries a value.
func (r *Result) OK() bool { return r.Failure == nil }

// EquationIDs returns the ids of the equations cited, in citation order.
func (r *Result) EquationIDs() []string {
	var ids []string
	for _, c := range r.Citations {
		if c.Kind == citation.KindEquation {
			ids = append(ids, c.ID)
		}
	}
	return ids
}
