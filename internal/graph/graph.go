package graph

import (
	"fmt"

	"github.com/shuvo-dotcom/nfgcalc/internal/dag"
	"github.com/shuvo-dotcom/nfgcalc/internal/datastore"
	"github.com/shuvo-dotcom/nfgcalc/internal/registry"
	"github.com/shuvo-dotcom/nfgcalc/internal/units"
)

// Node is one variable in a computation graph. A leaf is bound to data
// records (or a default); an internal node is bound to one equation.
type Node struct {
	Variable string
	Spec     *registry.VariableSpec
	// Equation is nil for leaves.
	Equation *registry.Equation
	// Children are canonical variable names in the equation's requires order.
	Children []string
	Records  []datastore.DataRecord
	// DefaultUsed marks a leaf answered from the variable's default value.
	DefaultUsed bool

	Value     units.Quantity
	Evaluated bool
}

// IsLeaf reports whether the node is satisfied by data rather than a formula.
func (n *Node) IsLeaf() bool { return n.Equation == nil }

// Unit is the variable's declared unit.
func (n *Node) Unit() units.Unit { return n.Spec.Unit }

// ComputationGraph is an arena of nodes rooted at the query's target metric.
type ComputationGraph struct {
	Root  string
	nodes map[string]*Node
	topo  *dag.Graph
}

// New returns an empty graph for the given root variable.
func New(root string) *ComputationGraph {
	return &ComputationGraph{
		Root:  root,
		nodes: make(map[string]*Node),
		topo:  dag.New(),
	}
}

// Add stores a node in the arena. Adding a variable twice is an error; the
// resolver memoizes, so a second add means a bug.
func (g *ComputationGraph) Add(n *Node) error {
	if _, exists := g.nodes[n.Variable]; exists {
		return fmt.Errorf("node '%s' already in graph", n.Variable)
	}
	g.nodes[n.Variable] = n
	g.topo.AddNode(n.Variable)
	return nil
}

// Link records that parent consumes child's value.
func (g *ComputationGraph) Link(parent, child string) error {
	return g.topo.AddEdge(child, parent)
}

// Node returns the node for a canonical variable name.
func (g *ComputationGraph) Node(variable string) (*Node, bool) {
	n, ok := g.nodes[variable]
	return n, ok
}

// RootNode returns the node of the target metric, or nil before resolution.
func (g *ComputationGraph) RootNode() *Node { return g.nodes[g.Root] }

// Len is the number of nodes in the arena.
func (g *ComputationGraph) Len() int { return len(g.nodes) }

// Children returns the child nodes of a variable in requires order.
func (g *ComputationGraph) Children(variable string) []*Node {
	n, ok := g.nodes[variable]
	if !ok {
		return nil
	}
	out := make([]*Node, 0, len(n.Children))
	for _, c := range n.Children {
		if child, ok := g.nodes[c]; ok {
			out = append(out, child)
		}
	}
	return out
}

// TopologicalOrder returns the nodes reachable from the root, children
// before parents.
func (g *ComputationGraph) TopologicalOrder() ([]*Node, error) {
	ids, err := g.topo.TopologicalOrder(g.Root)
	if err != nil {
		return nil, err
	}
	out := make([]*Node, 0, len(ids))
	for _, id := range ids {
		out = append(out, g.nodes[id])
	}
	return out, nil
}

// Prune drops nodes left behind by abandoned candidates and returns their
// names.
func (g *ComputationGraph) Prune() ([]string, error) {
	removed, err := g.topo.Prune(g.Root)
	if err != nil {
		return nil, err
	}
	for _, id := range removed {
		delete(g.nodes, id)
	}
	return removed, nil
}

// Leaves returns the leaf nodes in topological order.
func (g *ComputationGraph) Leaves() ([]*Node, error) {
	order, err := g.TopologicalOrder()
	if err != nil {
		return nil, err
	}
	var out []*Node
	for _, n := range order {
		if n.IsLeaf() {
			out = append(out, n)
		}
	}
	return out, nil
}

// Walk visits nodes depth-first from the root in child order, calling fn
// with each node and its depth. Shared nodes are visited once per parent.
func (g *ComputationGraph) Walk(fn func(n *Node, depth int)) {
	var visit func(name string, depth int)
	visit = func(name string, depth int) {
		n, ok := g.nodes[name]
		if !ok {
			return
		}
		fn(n, depth)
		for _, c := range n.Children {
			visit(c, depth+1)
		}
	}
	visit(g.Root, 0)
}
