// Package engine sequences one query through the registry, resolver,
// evaluator and citation builder, and turns any failure into a structured
// Result.
//
// Each query takes one registry snapshot for its whole lifetime and builds
// its own ComputationGraph, so concurrent queries share nothing mutable. A
// failed query never exposes a partially evaluated graph: its Result carries
// only the Failure.
package engine
