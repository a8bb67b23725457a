// SPDX-License-Identifier: MPL-2.0

package dag

import (
	"errors"
	"slices"
	"testing"
)

type edge struct{ from, to string }

func build(nodes []string, edges []edge) *Graph {
	g := New()
	for _, n := range nodes {
		g.AddNode(n)
	}
	for _, e := range edges {
		g.AddEdge(e.from, e.to)
	}
	return g
}

func TestTopologicalSort(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		nodes []string
		edges []edge
		want  []string
	}{
		{name: "empty"},
		{name: "single", nodes: []string{"lib.a"}, want: []string{"lib.a"}},
		{
			name:  "chain",
			edges: []edge{{"lib.a", "lib.b"}, {"lib.b", "lib.c"}},
			want:  []string{"lib.a", "lib.b", "lib.c"},
		},
		{
			name:  "diamond keeps insertion order among ready nodes",
			edges: []edge{{"core", "ui"}, {"core", "net"}, {"ui", "app"}, {"net", "app"}},
			want:  []string{"core", "ui", "net", "app"},
		},
		{
			name:  "earlier node wins over a later-ready one",
			nodes: []string{"a", "b", "c", "d"},
			edges: []edge{{"a", "b"}, {"b", "c"}},
			want:  []string{"a", "b", "c", "d"},
		},
		{
			name:  "duplicate edges",
			edges: []edge{{"a", "b"}, {"a", "b"}},
			want:  []string{"a", "b"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := build(tt.nodes, tt.edges).TopologicalSort()
			if err != nil {
				t.Fatalf("TopologicalSort() error = %v", err)
			}
			if !slices.Equal(got, tt.want) {
				t.Errorf("TopologicalSort() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestTopologicalSortCycle(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		edges []edge
		want  []string
	}{
		{name: "two nodes", edges: []edge{{"a", "b"}, {"b", "a"}}, want: []string{"a", "b"}},
		{name: "self loop", edges: []edge{{"a", "a"}}, want: []string{"a"}},
		{
			name:  "downstream of a cycle is left unordered",
			edges: []edge{{"root", "x"}, {"x", "y"}, {"y", "x"}, {"y", "top"}},
			want:  []string{"x", "y", "top"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := build(nil, tt.edges).TopologicalSort()
			if !errors.Is(err, ErrCycle) {
				t.Fatalf("TopologicalSort() error = %v, want ErrCycle", err)
			}
			var cycleErr *CycleError
			if !errors.As(err, &cycleErr) {
				t.Fatalf("error is %T, want *CycleError", err)
			}
			if !slices.Equal(cycleErr.Remaining, tt.want) {
				t.Errorf("Remaining = %v, want %v", cycleErr.Remaining, tt.want)
			}
		})
	}
}

func TestCycleErrorMessage(t *testing.T) {
	t.Parallel()

	err := &CycleError{Remaining: []string{"a", "b"}}
	if got, want := err.Error(), "dependency cycle among a, b"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}

func TestOrderAcyclicMatchesTopologicalSort(t *testing.T) {
	t.Parallel()

	g := build([]string{"d"}, []edge{{"c", "a"}, {"b", "a"}, {"d", "b"}})
	sorted, err := g.TopologicalSort()
	if err != nil {
		t.Fatalf("TopologicalSort() error = %v", err)
	}
	order, cycles := g.Order()
	if cycles != nil {
		t.Errorf("cycles = %v, want nil", cycles)
	}
	if !slices.Equal(order, sorted) {
		t.Errorf("Order() = %v, want %v", order, sorted)
	}
}

func TestOrder_Acyclic(t *testing.T) {
	t.Parallel()
	g := New()
	g.AddEdge("A", "B")
	g.AddEdge("B", "C")
	g.AddNode("D")

	order, cycles := g.Order()
	if len(cycles) != 0 {
		t.Errorf("expected no cycles, got %v", cycles)
	}
	if !slices.Equal(order, []string{"A", "B", "C", "D"}) {
		t.Errorf("expected [A B C D], got %v", order)
	}
}

func TestOrder_CycleStillOrdersEverything(t *testing.T) {
	t.Parallel()
	g := New()
	// base -> {X <-> Y} -> top
	g.AddNode("top")
	g.AddNode("Y")
	g.AddNode("X")
	g.AddEdge("base", "X")
	g.AddEdge("X", "Y")
	g.AddEdge("Y", "X")
	g.AddEdge("X", "top")

	order, cycles := g.Order()
	if len(order) != 4 {
		t.Fatalf("expected 4 nodes, got %v", order)
	}
	if len(cycles) != 1 || !slices.Equal(cycles[0], []string{"Y", "X"}) {
		t.Errorf("expected cycles [[Y X]], got %v", cycles)
	}
	if order[0] != "base" || order[len(order)-1] != "top" {
		t.Errorf("expected base first and top last, got %v", order)
	}

	again, _ := g.Order()
	if !slices.Equal(order, again) {
		t.Errorf("order not deterministic: %v vs %v", order, again)
	}
}

func TestOrder_SelfLoop(t *testing.T) {
	t.Parallel()
	g := New()
	g.AddEdge("A", "A")
	g.AddEdge("A", "B")

	order, cycles := g.Order()
	if !slices.Equal(order, []string{"A", "B"}) {
		t.Errorf("expected [A B], got %v", order)
	}
	if len(cycles) != 1 || !slices.Equal(cycles[0], []string{"A"}) {
		t.Errorf("expected cycles [[A]], got %v", cycles)
	}
}

func TestOrder_Empty(t *testing.T) {
	t.Parallel()
	order, cycles := New().Order()
	if order != nil || cycles != nil {
		t.Errorf("expected nil, nil, got %v, %v", order, cycles)
	}
}
