package main

import (
	"fmt"
	"sort"
	"time"

	ai "github.com/cs-au-dk/gaia/analysis/absint"
	"github.com/cs-au-dk/gaia/analysis/checks"
	"github.com/cs-au-dk/gaia/pkgutil"
	tu "github.com/cs-au-dk/gaia/testutil"

	"golang.org/x/tools/go/ssa"
	"golang.org/x/tools/go/ssa/ssautil"
)

// gatherMetrics prints statistics about an analysis run when invoked
// with -metrics.
func gatherMetrics(loadRes tu.LoadResult, result *ai.Result, elapsed time.Duration) {
	if !opts.Metrics() || result == nil {
		return
	}
	prog := loadRes.Prog

	byName := func(funs []*ssa.Function) {
		sort.Slice(funs, func(i, j int) bool {
			return funs[i].String() < funs[j].String()
		})
	}

	msg := "================ Results =====================\n\n"
	msg += "Time: " + elapsed.String() + "\n"
	msg += "Entry functions: " + fmt.Sprint(len(result.Entries)) + "\n"
	msg += "Call contexts: " + fmt.Sprint(result.Contexts.Size()) + "\n"

	if dag := loadRes.CallDAG; dag.Components != nil {
		recursive := 0
		for _, comp := range dag.Components {
			if len(comp) > 1 {
				recursive++
				continue
			}
			for _, succ := range dag.Original.Edges(comp[0]) {
				if succ == comp[0] {
					recursive++
					break
				}
			}
		}
		msg += "Call graph components: " + fmt.Sprint(len(dag.Components)) +
			" (" + fmt.Sprint(recursive) + " recursive)\n"
	}
	msg += "\n"

	activations := 0
	funs := make([]*ssa.Function, 0, len(result.Activations))
	for fun, count := range result.Activations {
		funs = append(funs, fun)
		activations += count
	}
	byName(funs)

	msg += "Function activations: " + fmt.Sprint(activations) + " {\n"
	for _, fun := range funs {
		msg += "  " + fun.String() + " -- " + fmt.Sprint(result.Activations[fun]) + "\n"
	}
	msg += "}\n"

	// Coverage over the local functions with bodies.
	covered := 0
	notCovered := []*ssa.Function{}
	for fn := range ssautil.AllFunctions(prog) {
		if !pkgutil.IsLocal(fn) || len(fn.Blocks) == 0 {
			continue
		}
		if _, found := result.Activations[fn]; found {
			covered++
		} else {
			notCovered = append(notCovered, fn)
		}
	}
	byName(notCovered)

	msg += "Functions covered: " + fmt.Sprint(covered) + "/" + fmt.Sprint(covered+len(notCovered)) + "\n"
	if len(notCovered) > 0 {
		msg += "Not covered: {\n"
		for _, fn := range notCovered {
			msg += "  " + fn.String() + ":" + prog.Fset.Position(fn.Pos()).String() + "\n"
		}
		msg += "}\n"
	}

	counts := result.Reporter.Counts()
	msg += "\nVerdicts: {\n"
	for _, v := range []checks.Verdict{checks.Error, checks.Warning, checks.Unreachable, checks.Ok} {
		msg += "  " + v.String() + " -- " + fmt.Sprint(counts[v]) + "\n"
	}
	msg += "}\n"
	msg += "================ Results ====================="
	fmt.Println(msg)
}
