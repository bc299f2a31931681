// Package inmemorystore provides a thread-safe, in-memory implementation of
// the datastore.Store interface.
//
// # Purpose
//
// Records are indexed by normalized property name, so a fetch only scans
// the records of one property. The store backs tests, the CLI's fixture
// mode (`data.kind = memory`) and small deployments whose data fits in
// memory.
//
// # Concurrency Model
//
// Each property bucket lives in a sync.Map entry. Fetches never take a global
// lock; Add replaces the bucket of each affected property with a new slice,
// so a concurrent Fetch sees either the old or the new bucket, never a
// partially written one.
package inmemorystore

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/shuvo-dotcom/nfgcalc/internal/datastore"
	"gopkg.in/yaml.v3"
)

// Store is an in-memory implementation of datastore.Store.
type Store struct {
	// byProperty maps a lower-cased property name to []datastore.DataRecord.
	byProperty sync.Map
	// writeMu serializes Add so bucket replacement is atomic per property.
	writeMu sync.Mutex
}

// New creates a store holding records.
func New(records ...datastore.DataRecord) *Store {
	s := &Store{}
	s.Add(records...)
	return s
}

// Add appends records to the store.
func (s *Store) Add(records ...datastore.DataRecord) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	grouped := make(map[string][]datastore.DataRecord)
	for _, r := range records {
		k := strings.ToLower(r.Property)
		grouped[k] = append(grouped[k], r)
	}
	for k, added := range grouped {
		var bucket []datastore.DataRecord
		if old, ok := s.byProperty.Load(k); ok {
			bucket = append(bucket, old.([]datastore.DataRecord)...)
		}
		s.byProperty.Store(k, append(bucket, added...))
	}
}

// Fetch returns copies of the records matching req, in insertion order.
func (s *Store) Fetch(ctx context.Context, req datastore.FetchRequest) ([]datastore.DataRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	v, ok := s.byProperty.Load(strings.ToLower(req.Property))
	if !ok {
		return nil, nil
	}
	var out []datastore.DataRecord
	for _, r := range v.([]datastore.DataRecord) {
		if req.Matches(r) {
			out = append(out, r)
		}
	}
	return out, nil
}

// Len counts the stored records.
func (s *Store) Len() int {
	n := 0
	s.byProperty.Range(func(_, v any) bool {
		n += len(v.([]datastore.DataRecord))
		return true
	})
	return n
}

type fixtureFile struct {
	Records []datastore.DataRecord `yaml:"records"`
}

// LoadFile reads a YAML fixture with a top-level `records:` list.
func LoadFile(path string) (*Store, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read data fixture %s: %w", path, err)
	}
	var f fixtureFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse data fixture %s: %w", path, err)
	}
	for i := range f.Records {
		if f.Records[i].Source == "" {
			f.Records[i].Source = path
		}
	}
	return New(f.Records...), nil
}
