package main

import (
	"bytes"
	"fmt"
	"log"

	"github.com/cs-au-dk/gaia/analysis/cfg"
	"github.com/cs-au-dk/gaia/analysis/fixpoint"
	u "github.com/cs-au-dk/gaia/analysis/upfront"
	"github.com/cs-au-dk/gaia/pkgutil"
	"github.com/cs-au-dk/gaia/utils"
	"github.com/cs-au-dk/gaia/utils/dot"
	"github.com/cs-au-dk/gaia/utils/graph"

	"golang.org/x/tools/go/pointer"
	"golang.org/x/tools/go/ssa"
)

// labelString renders a points-to label as its root SSA value followed by
// the access path of the label, e. g. "t0.next[*]".
func labelString(l *pointer.Label) string {
	root, accesses := u.SplitLabel(l)
	str := utils.SSAValString(root)
	for _, access := range accesses {
		switch access := access.(type) {
		case u.FieldAccess:
			str += "." + access.Field
		case u.ArrayAccess:
			str += "[*]"
		}
	}
	return str
}

// secondaryTask executes the tasks that do not require computing
// interprocedural fixpoints.
func (pl pipeline) secondaryTask() {
	switch {
	// callgraph-to-dot : renders the call graph with functions clustered
	// by strongly connected component.
	case task.IsCallGraphToDot():
		pl.callGraphToDot()

	// wto : prints the weak topological order of every target function body.
	// With -visualize the body is additionally opened in xdot.
	case task.IsWto():
		for _, fun := range pl.targetFunctions() {
			body := cfg.New(fun)
			fmt.Println(utils.SSAFunString(fun))
			fmt.Println(fixpoint.Build(body))
			fmt.Println()

			if opts.Visualize() {
				body.Visualize()
			}
		}

	// points-to : prints the results of the points-to analysis.
	case task.IsPointsTo():
		pt := pl.preanalysisPipeline(u.IncludeType{All: true})

		if len(pt.Warnings) > 0 {
			fmt.Println("Warnings:")
			for _, w := range pt.Warnings {
				fmt.Println(w)
			}
		}

		fmt.Println()
		log.Println("Points-to analysis results:")
		fmt.Println("Direct queries:")
		for v, ptset := range pt.Queries {
			if !pkgutil.IsLocal(v) {
				continue
			}
			fmt.Println("SSA Value", utils.SSAValString(v))
			fmt.Println("Points to: {")
			str := ""
			for _, l := range ptset.PointsTo().Labels() {
				str += "\t" + labelString(l) + ",\n"
			}
			str += "}"
			fmt.Println(str)
		}
		fmt.Println("")
		fmt.Println("Indirect queries:")
		for v, ptset := range pt.IndirectQueries {
			if !pkgutil.IsLocal(v) {
				continue
			}
			fmt.Println("SSA Value", utils.SSAValString(v))
			fmt.Println("Indirectly points to: {")
			str := ""
			for _, l := range ptset.PointsTo().Labels() {
				str += "\t" + labelString(l) + ",\n"
			}
			str += "}"
			fmt.Println(str)
		}

	// positions : prints the positions of all SSA functions.
	case task.IsPosition():
		for _, pkg := range pl.prog.AllPackages() {
			for _, member := range pkg.Members {
				switch f := member.(type) {
				case *ssa.Function:
					utils.PrintSSAFunWithPos(pl.prog.Fset, f)
				}
			}
		}
	}
}

// callGraphToDot renders the call graph reachable from the root. Every
// strongly connected component becomes a cluster, so mutual recursion is
// visible at a glance. Call sites with very many targets are pruned to
// keep pointer analysis imprecision from drowning the picture.
func (pl pipeline) callGraphToDot() {
	pt := pl.preanalysisPipeline(standardPTAnalysisQueries)

	cg := pt.CallGraph
	G := graph.FromCallGraph(cg, true)
	scc := G.SCC([]*ssa.Function{cg.Root.Func})

	var funs []*ssa.Function
	G.BFS(cg.Root.Func, func(fun *ssa.Function) bool {
		funs = append(funs, fun)
		return false
	})

	dg := G.ToDotGraph(funs, &graph.VisualizationConfig[*ssa.Function]{
		NodeAttrs: func(fun *ssa.Function) (string, dot.DotAttrs) {
			attrs := dot.DotAttrs{"label": fun.String()}
			if !pkgutil.IsLocal(fun) {
				attrs["fillcolor"] = "lightgray"
			}
			return fun.String(), attrs
		},
		ClusterKey: func(fun *ssa.Function) any {
			return scc.ComponentOf(fun)
		},
		ClusterAttrs: func(key any) (string, dot.DotAttrs) {
			attrs := dot.DotAttrs{"style": "dashed"}
			if len(scc.Components[key.(graph.SCC)]) > 1 {
				// Recursion.
				attrs["bgcolor"] = "#ffe6e6"
				attrs["style"] = "filled"
			}
			return fmt.Sprintf("scc%d", key.(graph.SCC)), attrs
		},
	})

	if opts.Visualize() {
		dg.ShowDot()
		return
	}

	var buf bytes.Buffer
	if err := dg.WriteDot(&buf); err != nil {
		log.Fatalln("Rendering call graph failed:", err)
	}
	img, err := dot.DotToImage("callgraph", opts.OutputFormat(), buf.Bytes())
	if err != nil {
		log.Fatalln("Exporting call graph failed:", err)
	}
	log.Println("Exported call graph to", img)
}
