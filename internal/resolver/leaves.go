package resolver

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/shuvo-dotcom/nfgcalc/internal/ctxlog"
	"github.com/shuvo-dotcom/nfgcalc/internal/datastore"
	"github.com/shuvo-dotcom/nfgcalc/internal/query"
	"github.com/shuvo-dotcom/nfgcalc/internal/registry"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

type leafResult struct {
	records []datastore.DataRecord
	err     error
}

// leafCache holds the records of each raw variable for one query.
type leafCache struct {
	store datastore.Store
	q     query.ResolvedQuery

	mu    sync.Mutex
	done  map[string]leafResult
	group singleflight.Group
}

func newLeafCache(store datastore.Store, q query.ResolvedQuery) *leafCache {
	return &leafCache{store: store, q: q, done: make(map[string]leafResult)}
}

// get returns the records for spec, fetching at most once per query.
func (c *leafCache) get(ctx context.Context, spec *registry.VariableSpec) ([]datastore.DataRecord, error) {
	c.mu.Lock()
	res, ok := c.done[spec.Name]
	c.mu.Unlock()
	if ok {
		return res.records, res.err
	}

	v, err, _ := c.group.Do(spec.Name, func() (any, error) {
		records, err := c.fetch(ctx, spec)
		if ctx.Err() == nil {
			c.mu.Lock()
			c.done[spec.Name] = leafResult{records: records, err: err}
			c.mu.Unlock()
		}
		return records, err
	})
	records, _ := v.([]datastore.DataRecord)
	return records, err
}

// fetch tries the variable's properties in order; the first with records
// wins. Store errors are collected and only returned when no property
// produced data.
func (c *leafCache) fetch(ctx context.Context, spec *registry.VariableSpec) ([]datastore.DataRecord, error) {
	var errs []error
	for _, prop := range spec.Properties {
		req := c.q.FetchRequest(prop, spec.TimeInvariant)
		records, err := c.store.Fetch(ctx, req)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			ctxlog.FromContext(ctx).Warn("Data fetch failed.", "variable", spec.Name, "property", prop, "error", err)
			errs = append(errs, fmt.Errorf("property %q: %w", prop, err))
			continue
		}
		if len(records) > 0 {
			return records, nil
		}
	}
	return nil, errors.Join(errs...)
}

// prefetch fetches every leaf concurrently. Only context errors are
// returned; per-leaf failures stay in the cache.
func (c *leafCache) prefetch(ctx context.Context, leaves []*registry.VariableSpec, limit int) error {
	if len(leaves) == 0 {
		return nil
	}
	g, gctx := errgroup.WithContext(ctx)
	if limit > 0 {
		g.SetLimit(limit)
	}
	for _, spec := range leaves {
		g.Go(func() error {
			if _, err := c.get(gctx, spec); err != nil && gctx.Err() != nil {
				return gctx.Err()
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	// errgroup cancels gctx on return; a parent cancellation still counts.
	return ctx.Err()
}

// reachableLeaves lists every raw variable reachable from root through any
// candidate equation, in first-visit order. Cycles are tolerated here.
func reachableLeaves(snap *registry.Snapshot, root string) []*registry.VariableSpec {
	var out []*registry.VariableSpec
	seen := make(map[string]bool)
	var visit func(name string)
	visit = func(name string) {
		if seen[name] {
			return
		}
		seen[name] = true
		spec, ok := snap.Variable(name)
		if !ok {
			return
		}
		if spec.Raw {
			out = append(out, spec)
			return
		}
		for _, eq := range snap.LookupCandidates(name) {
			for _, req := range eq.Requires {
				visit(req)
			}
		}
	}
	visit(root)
	return out
}
