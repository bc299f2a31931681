// Package datastore defines the read-only boundary between the engine and
// whatever holds the raw time-series records.
package datastore

import (
	"context"
	"strings"
)

// DataRecord is one raw value as produced by the ingestion side.
type DataRecord struct {
	// ID is an optional stable identifier assigned by the store.
	ID       string  `json:"id,omitempty" yaml:"id,omitempty"`
	Source   string  `json:"source,omitempty" yaml:"source,omitempty"`
	Property string  `json:"property" yaml:"property"`
	Value    float64 `json:"value" yaml:"value"`
	// Child is the entity the value belongs to, e.g. a country or plant.
	Child    string `json:"child" yaml:"child"`
	Date     string `json:"date,omitempty" yaml:"date,omitempty"`
	Category string `json:"category,omitempty" yaml:"category,omitempty"`
	// Unit is empty when the record is expressed in the variable's unit.
	Unit string `json:"unit,omitempty" yaml:"unit,omitempty"`
}

// Key identifies the record in citations. Records without an ID are keyed by
// their coordinates.
func (r DataRecord) Key() string {
	if r.ID != "" {
		return r.ID
	}
	return r.Source + ":" + r.Property + "|" + r.Child + "|" + r.Date + "|" + r.Category
}

// FetchRequest selects records. Empty Date or Category match any value.
type FetchRequest struct {
	Property string `json:"property"`
	Child    string `json:"child"`
	Date     string `json:"date,omitempty"`
	Category string `json:"category,omitempty"`
}

// Matches applies the request's case-insensitive selection to r.
func (q FetchRequest) Matches(r DataRecord) bool {
	return strings.EqualFold(q.Property, r.Property) &&
		strings.EqualFold(q.Child, r.Child) &&
		(q.Date == "" || strings.EqualFold(q.Date, r.Date)) &&
		(q.Category == "" || strings.EqualFold(q.Category, r.Category))
}

// Store answers fetch requests. Implementations must be safe for concurrent
// use and must not mutate returned records afterwards.
type Store interface {
	Fetch(ctx context.Context, req FetchRequest) ([]DataRecord, error)
}
