// Package graph holds the per-query ComputationGraph: an arena of nodes keyed
// by canonical variable name, with edges kept in a dag.Graph.
//
// A graph is built by exactly one resolver run and then evaluated in
// TopologicalOrder, children before parents. It is never shared between
// queries.
//
//	lcoe (lcoe_basic)
//	 ├── fixed_cost  [data]
//	 ├── fuel_cost   [data]
//	 └── generation  [data]
package graph
