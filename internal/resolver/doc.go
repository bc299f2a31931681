// Package resolver expands a target metric into a ComputationGraph.
//
// Resolution is a backtracking search over the registry's candidate
// equations. Variables on the active path are tracked explicitly, so a
// cyclic registry fails with calcerr.CyclicDependencyError instead of
// recursing forever. Successfully resolved variables are memoized in the
// graph arena and shared between branches; failures are not, because a
// variable that fails under one path fails the same way under any other.
//
// Leaf data is fetched through a per-query cache. With prefetching enabled,
// every raw leaf reachable from the metric is fetched up front with bounded
// concurrency; a fetch error on one leaf only becomes that leaf's failure
// reason.
package resolver
