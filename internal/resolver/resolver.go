package resolver

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/shuvo-dotcom/nfgcalc/internal/calcerr"
	"github.com/shuvo-dotcom/nfgcalc/internal/ctxlog"
	"github.com/shuvo-dotcom/nfgcalc/internal/datastore"
	"github.com/shuvo-dotcom/nfgcalc/internal/graph"
	"github.com/shuvo-dotcom/nfgcalc/internal/query"
	"github.com/shuvo-dotcom/nfgcalc/internal/registry"
)

// DefaultConcurrency bounds concurrent leaf fetches during prefetch.
const DefaultConcurrency = 8

// Options tunes data fetching.
type Options struct {
	// Prefetch fetches all reachable leaves before the search starts.
	Prefetch    bool
	Concurrency int
}

// Resolver builds computation graphs against one registry snapshot.
type Resolver struct {
	snap  *registry.Snapshot
	store datastore.Store
	opts  Options
}

// New creates a resolver. The snapshot must not change while it is in use;
// callers take a fresh one per query.
func New(snap *registry.Snapshot, store datastore.Store, opts Options) *Resolver {
	if opts.Concurrency <= 0 {
		opts.Concurrency = DefaultConcurrency
	}
	return &Resolver{snap: snap, store: store, opts: opts}
}

// Resolve expands q's metric into a pruned computation graph whose leaves
// carry their data records.
func (r *Resolver) Resolve(ctx context.Context, q query.ResolvedQuery) (*graph.ComputationGraph, error) {
	spec, err := r.snap.Canonicalize(q.Metric)
	if err != nil {
		return nil, err
	}

	logger := ctxlog.FromContext(ctx)
	s := &search{
		snap:       r.snap,
		leaves:     newLeafCache(r.store, q),
		g:          graph.New(spec.Name),
		inProgress: make(map[string]bool),
	}

	if r.opts.Prefetch {
		leaves := reachableLeaves(r.snap, spec.Name)
		logger.Debug("Prefetching leaf data.", "metric", spec.Name, "leaves", len(leaves), "concurrency", r.opts.Concurrency)
		if err := s.leaves.prefetch(ctx, leaves, r.opts.Concurrency); err != nil {
			return nil, err
		}
	}

	if err := s.resolve(ctx, spec.Name); err != nil {
		return nil, err
	}

	removed, err := s.g.Prune()
	if err != nil {
		return nil, fmt.Errorf("prune computation graph: %w", err)
	}
	if len(removed) > 0 {
		logger.Debug("Pruned abandoned nodes.", "nodes", removed)
	}
	leaves, err := s.g.Leaves()
	if err != nil {
		return nil, fmt.Errorf("order computation graph: %w", err)
	}
	logger.Debug("Computation graph resolved.", "metric", spec.Name, "nodes", s.g.Len(), "leaves", len(leaves))
	return s.g, nil
}

// search is the state of one resolution.
type search struct {
	snap   *registry.Snapshot
	leaves *leafCache
	g      *graph.ComputationGraph

	inProgress map[string]bool
	path       []string
}

func (s *search) resolve(ctx context.Context, name string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, ok := s.g.Node(name); ok {
		return nil
	}
	if s.inProgress[name] {
		start := slices.Index(s.path, name)
		cycle := append(slices.Clone(s.path[start:]), name)
		return &calcerr.CyclicDependencyError{Path: cycle}
	}

	spec, ok := s.snap.Variable(name)
	if !ok {
		return &calcerr.UnresolvableMetricError{
			Metric:   name,
			Attempts: []calcerr.Attempt{{Reason: "variable is not declared"}},
		}
	}

	s.inProgress[name] = true
	s.path = append(s.path, name)
	defer func() {
		delete(s.inProgress, name)
		s.path = s.path[:len(s.path)-1]
	}()

	if s.snap.IsRaw(spec) {
		return s.resolveLeaf(ctx, spec)
	}
	return s.resolveDerived(ctx, spec)
}

func (s *search) resolveLeaf(ctx context.Context, spec *registry.VariableSpec) error {
	records, err := s.leaves.get(ctx, spec)
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}

	node := &graph.Node{Variable: spec.Name, Spec: spec}
	switch {
	case len(records) > 0:
		node.Records = records
	case spec.Default != nil:
		node.DefaultUsed = true
	default:
		reason := fmt.Sprintf("no data for %s", strings.Join(quoteAll(spec.Properties), ", "))
		if err != nil {
			reason += ": " + err.Error()
		}
		return &calcerr.UnresolvableMetricError{
			Metric:   spec.Name,
			Attempts: []calcerr.Attempt{{Reason: reason}},
		}
	}
	return s.g.Add(node)
}

func (s *search) resolveDerived(ctx context.Context, spec *registry.VariableSpec) error {
	logger := ctxlog.FromContext(ctx)
	candidates := s.snap.LookupCandidates(spec.Name)
	if len(candidates) == 0 {
		return &calcerr.UnresolvableMetricError{
			Metric:   spec.Name,
			Attempts: []calcerr.Attempt{{Reason: "no equation produces it"}},
		}
	}

	var attempts []calcerr.Attempt
	for _, eq := range candidates {
		err := s.tryEquation(ctx, spec, eq)
		if err == nil {
			return nil
		}
		var unresolvable *calcerr.UnresolvableMetricError
		if !errors.As(err, &unresolvable) {
			return err
		}
		logger.Debug("Candidate equation rejected, backtracking.",
			"metric", spec.Name, "equation", eq.ID, "reason", unresolvable.Error())
		attempts = append(attempts, calcerr.Attempt{EquationID: eq.ID, Reason: unresolvable.Error()})
	}
	return &calcerr.UnresolvableMetricError{Metric: spec.Name, Attempts: attempts}
}

func (s *search) tryEquation(ctx context.Context, spec *registry.VariableSpec, eq *registry.Equation) error {
	for _, req := range eq.Requires {
		if err := s.resolve(ctx, req); err != nil {
			return err
		}
	}

	node := &graph.Node{
		Variable: spec.Name,
		Spec:     spec,
		Equation: eq,
		Children: slices.Clone(eq.Requires),
	}
	if err := s.g.Add(node); err != nil {
		return err
	}
	for _, req := range eq.Requires {
		if err := s.g.Link(spec.Name, req); err != nil {
			return fmt.Errorf("link %s -> %s: %w", spec.Name, req, err)
		}
	}
	return nil
}

func quoteAll(ss []string) []string {
	out := make([]string, len(ss))
	for i, s := range ss {
		out[i] = fmt.Sprintf("%q", s)
	}
	return out
}
