// Package dag implements a small directed graph of string IDs with
// dependency edges, cycle detection and deterministic ordering.
//
// It backs both the static dependency check of the equation registry and the
// per-query computation graph. Edge and node order follow insertion order so
// every traversal is reproducible across runs.
package dag
