package graph

import W "github.com/cs-au-dk/gaia/utils/worklist"

type visitFunc[T any] func(node T) (stop bool)

// BFSV performs a breadth-first search from the provided start nodes,
// calling f for every reachable node. The search stops early if f
// returns true, which BFSV reports in its result.
func (G Graph[T]) BFSV(f visitFunc[T], starts ...T) bool {
	visited := G.mapFactory()
	for _, start := range starts {
		visited.Set(start, true)
	}

	done := false
	W.StartV(starts, func(node T, add func(T)) {
		if done || f(node) {
			done = true
			return
		}

		for _, next := range G.Edges(node) {
			if _, found := visited.Get(next); !found {
				visited.Set(next, true)
				add(next)
			}
		}
	})

	return done
}

// BFS is BFSV from a single start node.
func (G Graph[T]) BFS(start T, f visitFunc[T]) bool {
	return G.BFSV(f, start)
}
