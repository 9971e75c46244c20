package engine

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	pipeerrors "github.com/alexisbeaulieu97/pipego/pkg/errors"
)

// Graph maps each module id to the set of module ids that depend on it.
type Graph struct {
	successors map[string]map[string]struct{}
}

// NewGraph creates an empty graph.
func NewGraph() *Graph {
	return &Graph{successors: make(map[string]map[string]struct{})}
}

// AddNode inserts id with no successors. Adding an existing node is a no-op.
func (g *Graph) AddNode(id string) {
	if g.successors == nil {
		g.successors = make(map[string]map[string]struct{})
	}
	if _, exists := g.successors[id]; !exists {
		g.successors[id] = make(map[string]struct{})
	}
}

// AddEdge records that to depends on from.
func (g *Graph) AddEdge(from, to string) error {
	source, ok := g.successors[from]
	if !ok {
		return pipeerrors.NewValidationError("graph", fmt.Sprintf("unknown module %q", from), nil)
	}
	if _, ok := g.successors[to]; !ok {
		return pipeerrors.NewValidationError("graph", fmt.Sprintf("unknown module %q", to), nil)
	}
	source[to] = struct{}{}
	return nil
}

// Has reports whether id is a node of the graph.
func (g *Graph) Has(id string) bool {
	_, ok := g.successors[id]
	return ok
}

// Nodes returns every node id, sorted.
func (g *Graph) Nodes() []string {
	return slices.Sorted(maps.Keys(g.successors))
}

// Successors returns the ids depending on id, sorted.
func (g *Graph) Successors(id string) []string {
	return slices.Sorted(maps.Keys(g.successors[id]))
}

// Len returns the number of nodes.
func (g *Graph) Len() int {
	return len(g.successors)
}

// Prune removes nodes that have no successors and are no node's successor,
// returning the removed ids in sorted order.
func (g *Graph) Prune() []string {
	targeted := make(map[string]struct{}, len(g.successors))
	for _, succ := range g.successors {
		for id := range succ {
			targeted[id] = struct{}{}
		}
	}

	var pruned []string
	for _, id := range g.Nodes() {
		if len(g.successors[id]) > 0 {
			continue
		}
		if _, ok := targeted[id]; ok {
			continue
		}
		delete(g.successors, id)
		pruned = append(pruned, id)
	}
	return pruned
}

// TopologicalSort orders every node so that each precedes its successors,
// using Kahn's algorithm. Among eligible nodes the smallest id goes first,
// which keeps the order stable across runs. A cycle fails the sort and no
// partial order is returned.
func (g *Graph) TopologicalSort() ([]string, error) {
	indegree := make(map[string]int, len(g.successors))
	for id := range g.successors {
		indegree[id] = 0
	}
	for _, succ := range g.successors {
		for dep := range succ {
			indegree[dep]++
		}
	}

	var ready []string
	for id, degree := range indegree {
		if degree == 0 {
			ready = append(ready, id)
		}
	}
	slices.Sort(ready)

	order := make([]string, 0, len(g.successors))
	for len(ready) > 0 {
		id := ready[0]
		ready = ready[1:]
		order = append(order, id)

		for _, dependent := range g.Successors(id) {
			indegree[dependent]--
			if indegree[dependent] == 0 {
				idx, _ := slices.BinarySearch(ready, dependent)
				ready = slices.Insert(ready, idx, dependent)
			}
		}
	}

	if len(order) != len(g.successors) {
		msg := "dependency cycle detected"
		if cycle := g.findCycle(); len(cycle) > 0 {
			msg = fmt.Sprintf("dependency cycle detected: %s", strings.Join(cycle, " -> "))
		}
		return nil, pipeerrors.NewValidationError("graph", msg, nil)
	}

	return order, nil
}

// findCycle returns the ids along one cycle, first id repeated at the end,
// or nil if the graph is acyclic.
func (g *Graph) findCycle() []string {
	visiting := make(map[string]bool, len(g.successors))
	visited := make(map[string]bool, len(g.successors))
	var stack []string

	var cycle []string
	var dfs func(string) bool
	dfs = func(node string) bool {
		visiting[node] = true
		stack = append(stack, node)

		for _, next := range g.Successors(node) {
			if visited[next] {
				continue
			}
			if visiting[next] {
				idx := slices.Index(stack, next)
				if idx >= 0 {
					cycle = append([]string{}, stack[idx:]...)
					cycle = append(cycle, next)
				}
				return true
			}
			if dfs(next) {
				return true
			}
		}

		visiting[node] = false
		visited[node] = true
		stack = stack[:len(stack)-1]
		return false
	}

	for _, id := range g.Nodes() {
		if visited[id] {
			continue
		}
		if dfs(id) {
			break
		}
	}

	return cycle
}
