// Package registry holds the equation registry and the variable table.
//
// A Snapshot is built once from a config.Model and is never mutated
// afterwards, so any number of queries may read it without locking. Reloads
// build a new Snapshot and publish it through a Holder with a single atomic
// swap; a query keeps whichever Snapshot it started with.
//
// During startup and on every reload the snapshot is validated so that
// authoring defects (unknown references, unit mismatches, cycles) surface
// before any query runs.
package registry
