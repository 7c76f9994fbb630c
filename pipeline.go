package main

import (
	"fmt"
	"log"
	"sort"

	u "github.com/cs-au-dk/gaia/analysis/upfront"
	"github.com/cs-au-dk/gaia/pkgutil"
	tu "github.com/cs-au-dk/gaia/testutil"
	"github.com/cs-au-dk/gaia/utils"
	"github.com/cs-au-dk/gaia/utils/graph"

	"golang.org/x/tools/go/ssa"
	"golang.org/x/tools/go/ssa/ssautil"
)

// pipeline carries the loaded program through the stages shared by all tasks.
type pipeline struct {
	prog  *ssa.Program
	mains []*ssa.Package
}

// standardPTAnalysisQueries is the standard set of types to include in the
// Andersen points-to analysis. Function and interface values suffice to
// resolve dynamic dispatch; the interval analysis does not consult other
// points-to sets.
var standardPTAnalysisQueries = u.IncludeType{
	Function:  true,
	Interface: true,
}

// preanalysisPipeline performs the points-to analysis that the
// interprocedural analysis relies on for call resolution.
func (p pipeline) preanalysisPipeline(includes u.IncludeType) *u.PointerResult {
	fmt.Println()
	log.Println("Performing points-to analysis...")
	ptaResult := u.Andersen(p.prog, p.mains, includes)
	log.Println("Points-to analysis done")
	fmt.Println()

	opts.OnVerbose(func() {
		for val, ptr := range ptaResult.Queries {
			fmt.Printf("Points to information for \"%s\" at %d (%s):\n",
				val, val.Pos(), p.prog.Fset.Position(val.Pos()))
			for _, label := range ptr.PointsTo().Labels() {
				fmt.Printf("%s : %d (%s), ", label, label.Pos(), p.prog.Fset.Position(label.Pos()))
			}
			fmt.Print("\n\n")
		}
	})

	return ptaResult
}

// loadResult assembles the artifacts the interprocedural analysis consumes.
// The points-to pre-analysis only runs when the configured precision makes
// use of it.
func (p pipeline) loadResult(config utils.Config) (loadRes tu.LoadResult) {
	loadRes.Prog = p.prog
	loadRes.Mains = p.mains

	if config.Precision != "register" {
		loadRes.Pointer = p.preanalysisPipeline(standardPTAnalysisQueries)

		cg := loadRes.Pointer.CallGraph
		loadRes.CallDAG = graph.FromCallGraph(cg, false).SCC([]*ssa.Function{cg.Root.Func})
	}

	return
}

// targetFunctions resolves the functions the current task operates on,
// mirroring the entry selection of the analyze task.
func (p pipeline) targetFunctions() []*ssa.Function {
	switch {
	case opts.IsWholeProgramAnalysis():
		funs := make([]*ssa.Function, 0, len(p.mains))
		for _, main := range p.mains {
			if fn := main.Func("main"); fn != nil {
				funs = append(funs, fn)
			}
		}
		return funs

	case opts.AnalyzeAllFuncs():
		var funs []*ssa.Function
		for fn := range ssautil.AllFunctions(p.prog) {
			if pkgutil.IsLocal(fn) && len(fn.Blocks) > 0 {
				funs = append(funs, fn)
			}
		}
		sort.Slice(funs, func(i, j int) bool {
			return funs[i].String() < funs[j].String()
		})
		return funs

	default:
		fun, found := utils.FindSSAFunction(p.prog, p.mains, opts.Function())
		if !found {
			log.Fatalf("Could not find function: %s", opts.Function())
		}
		if len(fun.Blocks) == 0 {
			log.Fatalf("Cannot process external function: %s", fun)
		}
		return []*ssa.Function{fun}
	}
}
