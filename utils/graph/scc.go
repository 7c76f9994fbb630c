package graph

// SCC is the index of a strongly connected component within a
// decomposition.
type SCC = int

// SCCDecomposition partitions the subgraph reachable from a set of start
// nodes into strongly connected components. Components come out in
// reverse topological order: nodes in component i only have edges into
// components j <= i, so iterating Components visits callees before
// callers when the graph is a call graph.
type SCCDecomposition[T any] struct {
	Components [][]T
	comp       Mapper[T]
	Original   Graph[T]
}

// ComponentOf returns the index of the component containing the node, or
// -1 if the node was not reachable during the decomposition.
func (scc SCCDecomposition[T]) ComponentOf(node T) SCC {
	if comp, hasComp := scc.comp.Get(node); hasComp {
		return comp.(int)
	}
	return -1
}

// SCC computes the strongly connected components of the subgraph
// reachable from the provided start nodes, using Tarjan's algorithm.
func (G Graph[T]) SCC(startNodes []T) SCCDecomposition[T] {
	num, comp := G.mapFactory(), G.mapFactory()
	time := 0
	var stack []T
	var components [][]T

	var visit func(T)
	visit = func(node T) {
		time++
		low := time
		num.Set(node, low)
		stackH := len(stack)
		stack = append(stack, node)

		for _, succ := range G.Edges(node) {
			// Nodes that already have a component cannot be part of this
			// one, so their lowlink values are irrelevant.
			if _, hasComp := comp.Get(succ); hasComp {
				continue
			}

			if _, visited := num.Get(succ); !visited {
				visit(succ)
			}

			if succLow, _ := num.Get(succ); succLow.(int) < low {
				low = succLow.(int)
			}
		}

		// The discovery number survives in num until this point. If no
		// strictly older node is reachable, node is the root of a
		// component holding everything pushed above it.
		if disc, _ := num.Get(node); low == disc.(int) {
			var members []T
			for len(stack) > stackH {
				x := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				comp.Set(x, len(components))
				members = append(members, x)
			}
			components = append(components, members)
		}

		num.Set(node, low)
	}

	for _, node := range startNodes {
		if _, hasComp := comp.Get(node); !hasComp {
			visit(node)
		}
	}

	return SCCDecomposition[T]{
		Components: components,
		comp:       comp,
		Original:   G,
	}
}

// ToGraph returns the component DAG of the decomposition, with component
// indices as nodes.
func (scc SCCDecomposition[T]) ToGraph() Graph[SCC] {
	return OfHashable(func(compIdx SCC) (ret []SCC) {
		seen := map[SCC]bool{}
		for _, node := range scc.Components[compIdx] {
			for _, edge := range scc.Original.Edges(node) {
				ncomp := scc.ComponentOf(edge)
				if compIdx != ncomp && !seen[ncomp] {
					seen[ncomp] = true
					ret = append(ret, ncomp)
				}
			}
		}
		return
	})
}
