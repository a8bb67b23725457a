// SPDX-License-Identifier: MPL-2.0

// Package dag provides directed graph operations for topological ordering and
// cycle detection. It orders aggregate members so that providers come before
// the modules that depend on them.
package dag

import (
	"cmp"
	"errors"
	"fmt"
	"slices"
	"strings"
)

// ErrCycle is the sentinel error wrapped by CycleError.
var ErrCycle = errors.New("dependency cycle")

type (
	// CycleError is returned by TopologicalSort when the graph has a cycle.
	CycleError struct {
		// Remaining holds the nodes left unordered, in insertion order: every
		// cycle member plus every node reachable from one.
		Remaining []string
	}

	// Graph is a directed graph for topological sorting.
	// Nodes are identified by string keys. An edge from A to B means A must
	// come before B.
	Graph struct {
		// adjacency maps each node to its outgoing neighbors (nodes that depend on it).
		adjacency map[string][]string
		// nodes tracks all nodes in insertion order for deterministic output.
		nodes []string
		// index maps a node to its insertion position.
		index map[string]int
	}
)

func (e *CycleError) Error() string {
	return fmt.Sprintf("dependency cycle among %s", strings.Join(e.Remaining, ", "))
}

// Unwrap returns ErrCycle so callers can use errors.Is for programmatic detection.
func (e *CycleError) Unwrap() error { return ErrCycle }

// New creates an empty Graph.
func New() *Graph {
	return &Graph{
		adjacency: make(map[string][]string),
		index:     make(map[string]int),
	}
}

// AddNode adds a node to the graph. If the node already exists, this is a no-op.
func (g *Graph) AddNode(name string) {
	if _, ok := g.index[name]; ok {
		return
	}
	g.index[name] = len(g.nodes)
	g.nodes = append(g.nodes, name)
}

// AddEdge adds a directed edge from -> to, meaning "from" must come before "to".
// Both nodes are implicitly added if they don't exist.
func (g *Graph) AddEdge(from, to string) {
	g.AddNode(from)
	g.AddNode(to)
	g.adjacency[from] = append(g.adjacency[from], to)
}

// Len returns the number of nodes.
func (g *Graph) Len() int { return len(g.nodes) }

// TopologicalSort orders the nodes with Kahn's algorithm. Among the nodes
// ready at any step, the one added first goes first. A cyclic graph yields
// a *CycleError.
func (g *Graph) TopologicalSort() ([]string, error) {
	if len(g.nodes) == 0 {
		return nil, nil
	}

	inDegree := make([]int, len(g.nodes))
	for _, neighbors := range g.adjacency {
		for _, n := range neighbors {
			inDegree[g.index[n]]++
		}
	}

	var ready []int
	for i := range g.nodes {
		if inDegree[i] == 0 {
			ready = append(ready, i)
		}
	}

	order := make([]string, 0, len(g.nodes))
	for len(ready) > 0 {
		node := g.nodes[ready[0]]
		ready = ready[1:]
		order = append(order, node)

		for _, n := range g.adjacency[node] {
			i := g.index[n]
			inDegree[i]--
			if inDegree[i] == 0 {
				ready = append(ready, i)
			}
		}
		slices.Sort(ready)
	}

	if len(order) < len(g.nodes) {
		var remaining []string
		for i, node := range g.nodes {
			if inDegree[i] > 0 {
				remaining = append(remaining, node)
			}
		}
		return nil, &CycleError{Remaining: remaining}
	}
	return order, nil
}

// Order returns a total order of all nodes even when the graph has cycles.
// An acyclic graph is ordered as by TopologicalSort. Otherwise each strongly
// connected component is treated as one unit: units are sorted
// topologically, and nodes inside a cyclic unit keep insertion order.
// Every non-trivial component, and every self-loop, is returned in cycles.
func (g *Graph) Order() (order []string, cycles [][]string) {
	if len(g.nodes) == 0 {
		return nil, nil
	}
	if sorted, err := g.TopologicalSort(); err == nil {
		return sorted, nil
	}

	components := g.components()
	compOf := make(map[string]int, len(g.nodes))
	for ci, comp := range components {
		for _, n := range comp {
			compOf[n] = ci
		}
	}

	// Condensation edges, deduplicated.
	compAdj := make([][]int, len(components))
	inDegree := make([]int, len(components))
	seen := make(map[[2]int]bool)
	for _, from := range g.nodes {
		for _, to := range g.adjacency[from] {
			cf, ct := compOf[from], compOf[to]
			if cf == ct {
				if from == to && len(components[cf]) == 1 {
					seen[[2]int{cf, cf}] = true
				}
				continue
			}
			if seen[[2]int{cf, ct}] {
				continue
			}
			seen[[2]int{cf, ct}] = true
			compAdj[cf] = append(compAdj[cf], ct)
			inDegree[ct]++
		}
	}

	for ci, comp := range components {
		if len(comp) > 1 || seen[[2]int{ci, ci}] {
			cycles = append(cycles, comp)
		}
	}

	// Kahn over components. components is already sorted by first insertion
	// index, so scanning it in order keeps ties deterministic.
	ready := make([]int, 0)
	for ci := range components {
		if inDegree[ci] == 0 {
			ready = append(ready, ci)
		}
	}
	for len(ready) > 0 {
		ci := ready[0]
		ready = ready[1:]
		order = append(order, components[ci]...)

		var next []int
		for _, ct := range compAdj[ci] {
			inDegree[ct]--
			if inDegree[ct] == 0 {
				next = append(next, ct)
			}
		}
		ready = append(ready, next...)
		slices.Sort(ready)
	}

	return order, cycles
}

// components returns the strongly connected components (Tarjan), each in
// insertion order, sorted by their first node's insertion index.
func (g *Graph) components() [][]string {
	var (
		counter int
		stack   []string
		onStack = make(map[string]bool, len(g.nodes))
		index   = make(map[string]int, len(g.nodes))
		low     = make(map[string]int, len(g.nodes))
		result  [][]string
	)

	var connect func(v string)
	connect = func(v string) {
		index[v] = counter
		low[v] = counter
		counter++
		stack = append(stack, v)
		onStack[v] = true

		for _, w := range g.adjacency[v] {
			if _, visited := index[w]; !visited {
				connect(w)
				low[v] = min(low[v], low[w])
			} else if onStack[w] {
				low[v] = min(low[v], index[w])
			}
		}

		if low[v] == index[v] {
			var comp []string
			for {
				w := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				onStack[w] = false
				comp = append(comp, w)
				if w == v {
					break
				}
			}
			slices.SortFunc(comp, func(a, b string) int { return cmp.Compare(g.index[a], g.index[b]) })
			result = append(result, comp)
		}
	}

	for _, n := range g.nodes {
		if _, visited := index[n]; !visited {
			connect(n)
		}
	}

	slices.SortFunc(result, func(a, b []string) int { return cmp.Compare(g.index[a[0]], g.index[b[0]]) })
	return result
}
