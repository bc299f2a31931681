package dag

import (
	"fmt"
	"strings"
)

// New creates and returns an initialized, empty Graph.
func New() *Graph {
	return &Graph{
		nodes: make(map[string]*node),
	}
}

// AddNode adds a new node with the given ID to the graph. If a node with
// the same ID already exists, the function does nothing.
func (g *Graph) AddNode(id string) {
	g.mutex.Lock()
	defer g.mutex.Unlock()

	if _, ok := g.nodes[id]; ok {
		return
	}

	g.nodes[id] = &node{id: id}
	g.order = append(g.order, id)
}

// AddEdge creates a directed edge from the `fromID` node to the `toID` node.
// This signifies that `toID` has a dependency on `fromID`. An error is returned
// if either node does not exist or if the edge would create a self-reference.
// Adding an existing edge again is a no-op.
func (g *Graph) AddEdge(fromID, toID string) error {
	if fromID == toID {
		return fmt.Errorf("self-referential edge not allowed: %s -> %s", fromID, fromID)
	}

	g.mutex.Lock()
	defer g.mutex.Unlock()

	fromNode, ok := g.nodes[fromID]
	if !ok {
		return fmt.Errorf("source node not found: %s", fromID)
	}

	toNode, ok := g.nodes[toID]
	if !ok {
		return fmt.Errorf("destination node not found: %s", toID)
	}

	if toNode.hasDep(fromID) {
		return nil
	}
	toNode.deps = append(toNode.deps, fromNode)

	return nil
}

// CycleError describes one cycle. Path starts and ends with the same ID and
// follows dependency direction.
type CycleError struct {
	Path []string
}

func (e *CycleError) Error() string {
	return "cycle detected: " + strings.Join(e.Path, " -> ")
}

// DetectCycles checks the graph for any cycles. It returns a *CycleError
// naming the first cycle found, visiting nodes in insertion order.
func (g *Graph) DetectCycles() error {
	g.mutex.RLock()
	defer g.mutex.RUnlock()

	// Classic depth-first search with three sets of nodes:
	// permanent: nodes that have been fully visited and are not part of a cycle.
	// temporary: nodes currently in the recursion stack for the current traversal.
	// unvisited: all other nodes.
	permanent := make(map[string]bool)
	temporary := make(map[string]bool)
	var stack []string

	var visit func(n *node) error
	visit = func(n *node) error {
		if permanent[n.id] {
			return nil
		}
		if temporary[n.id] {
			start := 0
			for i, id := range stack {
				if id == n.id {
					start = i
					break
				}
			}
			path := append(append([]string{}, stack[start:]...), n.id)
			return &CycleError{Path: path}
		}

		temporary[n.id] = true
		stack = append(stack, n.id)

		for _, dep := range n.deps {
			if err := visit(dep); err != nil {
				return err
			}
		}

		stack = stack[:len(stack)-1]
		delete(temporary, n.id)
		permanent[n.id] = true

		return nil
	}

	for _, id := range g.order {
		if err := visit(g.nodes[id]); err != nil {
			return err
		}
	}

	return nil
}

// TopologicalOrder returns every node reachable from root through
// dependency edges, dependencies first. Siblings keep insertion order, so
// the result is deterministic. The graph must be acyclic.
func (g *Graph) TopologicalOrder(root string) ([]string, error) {
	g.mutex.RLock()
	defer g.mutex.RUnlock()

	r, ok := g.nodes[root]
	if !ok {
		return nil, fmt.Errorf("node not found: %s", root)
	}

	var out []string
	done := make(map[string]bool)
	active := make(map[string]bool)

	var visit func(n *node) error
	visit = func(n *node) error {
		if done[n.id] {
			return nil
		}
		if active[n.id] {
			return fmt.Errorf("cycle detected involving node '%s'", n.id)
		}
		active[n.id] = true
		for _, dep := range n.deps {
			if err := visit(dep); err != nil {
				return err
			}
		}
		active[n.id] = false
		done[n.id] = true
		out = append(out, n.id)
		return nil
	}

	if err := visit(r); err != nil {
		return nil, err
	}
	return out, nil
}

// Prune removes every node not reachable from root through dependency edges
// and returns the removed IDs in insertion order.
func (g *Graph) Prune(root string) ([]string, error) {
	keep, err := g.TopologicalOrder(root)
	if err != nil {
		return nil, err
	}

	g.mutex.Lock()
	defer g.mutex.Unlock()

	kept := make(map[string]bool, len(keep))
	for _, id := range keep {
		kept[id] = true
	}

	var removed []string
	order := g.order[:0]
	for _, id := range g.order {
		if kept[id] {
			order = append(order, id)
			continue
		}
		removed = append(removed, id)
		delete(g.nodes, id)
	}
	g.order = order
	return removed, nil
}
