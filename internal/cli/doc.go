// Package cli builds the nfgcalc command tree: query, validate and batch.
// It maps flags onto the layered app configuration, renders results as
// tables, JSON or prose, and turns failures into process exit codes.
package cli
