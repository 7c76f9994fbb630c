package graph

import (
	"golang.org/x/tools/go/callgraph"
	"golang.org/x/tools/go/ssa"
)

// CGPruneLimit is the number of call targets at which a call site is
// considered megamorphic. Such sites are almost always imprecision
// artifacts of the pointer analysis, and keeping their edges smears the
// SCC decomposition into one giant component.
const CGPruneLimit = 10

// FromCallGraph wraps a call graph as a Graph with *ssa.Function nodes.
// Duplicate edges between the same pair of functions collapse into one.
// When prune is set, edges from call sites with CGPruneLimit or more
// targets are dropped.
func FromCallGraph(cg *callgraph.Graph, prune bool) Graph[*ssa.Function] {
	return OfHashable(func(fun *ssa.Function) (ret []*ssa.Function) {
		node, found := cg.Nodes[fun]
		if !found {
			return
		}

		targets := map[ssa.CallInstruction]int{}
		for _, edge := range node.Out {
			targets[edge.Site]++
		}

		seen := map[*ssa.Function]bool{}
		for _, edge := range node.Out {
			callee := edge.Callee.Func
			if !seen[callee] && (!prune || targets[edge.Site] < CGPruneLimit) {
				seen[callee] = true
				ret = append(ret, callee)
			}
		}
		return
	})
}

// FromBasicBlocks views the body of fun as a Graph over basic block
// indices, with an edge per successor block.
func FromBasicBlocks(fun *ssa.Function) Graph[int] {
	return OfHashable(func(node int) (ret []int) {
		for _, succ := range fun.Blocks[node].Succs {
			ret = append(ret, succ.Index)
		}
		return
	})
}
