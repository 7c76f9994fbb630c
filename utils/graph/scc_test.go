package graph

import (
	"sort"
	"testing"
)

func componentSet(scc SCCDecomposition[int], idx SCC) []int {
	members := append([]int(nil), scc.Components[idx]...)
	sort.Ints(members)
	return members
}

func sameMembers(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestSCCComponents(t *testing.T) {
	scc := sampleGraph().SCC([]int{0})

	if len(scc.Components) != 6 {
		t.Fatalf("Expected 6 components, got %d: %v", len(scc.Components), scc.Components)
	}

	// The mutually recursive pair and the self loop must come out as
	// single components.
	if comp := componentSet(scc, scc.ComponentOf(3)); !sameMembers(comp, []int{3, 4}) {
		t.Errorf("Component of 3 is %v, expected [3 4]", comp)
	}
	if scc.ComponentOf(3) != scc.ComponentOf(4) {
		t.Errorf("3 and 4 are mutually recursive but ended up in components %d and %d",
			scc.ComponentOf(3), scc.ComponentOf(4))
	}
	if comp := componentSet(scc, scc.ComponentOf(5)); !sameMembers(comp, []int{5}) {
		t.Errorf("Component of 5 is %v, expected [5]", comp)
	}

	// All other reachable nodes are singletons in distinct components.
	for _, node := range []int{0, 1, 2, 6} {
		if comp := componentSet(scc, scc.ComponentOf(node)); !sameMembers(comp, []int{node}) {
			t.Errorf("Component of %d is %v, expected singleton", node, comp)
		}
	}
}

func TestSCCOrder(t *testing.T) {
	scc := sampleGraph().SCC([]int{0})

	// Components come out in reverse topological order, so every edge
	// must lead to a component with an index no greater than its source.
	for node := 0; node <= 6; node++ {
		from := scc.ComponentOf(node)
		for _, succ := range edges[node] {
			if to := scc.ComponentOf(succ); to > from {
				t.Errorf("Edge %d -> %d goes from component %d to later component %d",
					node, succ, from, to)
			}
		}
	}
}

func TestSCCUnreachable(t *testing.T) {
	scc := sampleGraph().SCC([]int{0})

	for _, node := range []int{7, 8, 9} {
		if comp := scc.ComponentOf(node); comp != -1 {
			t.Errorf("ComponentOf(%d) = %d for a node outside the explored subgraph, expected -1", node, comp)
		}
	}
}

func TestSCCMultipleStarts(t *testing.T) {
	scc := sampleGraph().SCC([]int{0, 7})

	if scc.ComponentOf(7) == -1 || scc.ComponentOf(7) != scc.ComponentOf(8) {
		t.Errorf("7 and 8 should share a component, got %d and %d",
			scc.ComponentOf(7), scc.ComponentOf(8))
	}
	if comp := componentSet(scc, scc.ComponentOf(7)); !sameMembers(comp, []int{7, 8}) {
		t.Errorf("Component of 7 is %v, expected [7 8]", comp)
	}
}

func TestSCCToGraph(t *testing.T) {
	scc := sampleGraph().SCC([]int{0})
	dag := scc.ToGraph()

	// Key: a node in the source component. Value: nodes identifying the
	// components its component has edges to.
	expected := map[int][]int{
		6: nil,
		5: {scc.ComponentOf(6)},
		3: {scc.ComponentOf(5)},
		0: {scc.ComponentOf(1), scc.ComponentOf(2)},
	}

	for node, want := range expected {
		got := append([]int(nil), dag.Edges(scc.ComponentOf(node))...)
		sort.Ints(got)
		sort.Ints(want)
		if !sameMembers(got, want) {
			t.Errorf("Component DAG edges of component of %d: got %v, want %v", node, got, want)
		}
	}

	// Self loops never survive into the component DAG.
	for idx := range scc.Components {
		for _, succ := range dag.Edges(idx) {
			if succ == idx {
				t.Errorf("Component %d has a self edge in the component DAG", idx)
			}
		}
	}
}
