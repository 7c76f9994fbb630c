package absint

import (
	"os"

	"github.com/cs-au-dk/gaia/analysis/checks"
	"github.com/cs-au-dk/gaia/analysis/defs"
	"github.com/cs-au-dk/gaia/analysis/progress"
	"github.com/cs-au-dk/gaia/pkgutil"
	tu "github.com/cs-au-dk/gaia/testutil"
	u "github.com/cs-au-dk/gaia/utils"

	log "github.com/sirupsen/logrus"
	"golang.org/x/exp/slices"
	"golang.org/x/tools/go/ssa"
	"golang.org/x/tools/go/ssa/ssautil"
)

// Result is the outcome of an interprocedural analysis run: the entry
// activations keyed by their functions, the findings of the checkers,
// and the interned call contexts of the run.
type Result struct {
	Entries map[*ssa.Function]*FunctionFixpoint
	// Activations counts the analyzed activations per function, entries
	// included.
	Activations map[*ssa.Function]int
	Reporter    *checks.Reporter
	Contexts    *defs.Contexts
}

// AnalyzeProgram runs the interprocedural analysis on the loaded
// program. Every entry function is analyzed under the root context
// with unconstrained parameters, calls are analyzed in their extended
// contexts as they are encountered, and unless checks are skipped the
// converged invariants are replayed through the checkers.
func AnalyzeProgram(loadRes tu.LoadResult, config u.Config) *Result {
	C := NewCtxt(loadRes, config)
	C.Log = progress.Create(config.Progress, os.Stderr)

	entries := analysisEntries(loadRes)
	C.Log.Start(len(entries))

	result := &Result{
		Entries:  make(map[*ssa.Function]*FunctionFixpoint, len(entries)),
		Reporter: C.Reporter,
		Contexts: C.Contexts,
	}
	for _, entry := range entries {
		C.Log.Step(entry.Name())

		fp := newEntryFixpoint(C, entry)
		fp.Run(Elements().Env())
		if !opts.SkipChecks() {
			fp.RunChecks()
		}
		result.Entries[entry] = fp
	}
	C.Log.Done()

	result.Activations = make(map[*ssa.Function]int, len(entries))
	for entry := range result.Entries {
		result.Activations[entry]++
	}
	C.memos.ForEach(func(fc defs.FunCtx, _ *FunctionFixpoint) {
		result.Activations[fc.Fun()]++
	})

	return result
}

// analysisEntries determines the entry functions of the run from the
// task options: the main functions for whole-program analysis, every
// local function with a body for ".", and otherwise the single function
// the -fun flag names.
func analysisEntries(loadRes tu.LoadResult) []*ssa.Function {
	switch {
	case opts.IsWholeProgramAnalysis():
		entries := make([]*ssa.Function, 0, len(loadRes.Mains))
		for _, main := range loadRes.Mains {
			if fn := main.Func("main"); fn != nil {
				entries = append(entries, fn)
			}
		}
		return entries

	case opts.AnalyzeAllFuncs():
		var entries []*ssa.Function
		for fn := range ssautil.AllFunctions(loadRes.Prog) {
			if pkgutil.IsLocal(fn) && len(fn.Blocks) > 0 {
				entries = append(entries, fn)
			}
		}
		slices.SortFunc(entries, func(a, b *ssa.Function) bool {
			return a.String() < b.String()
		})
		return entries

	default:
		fun, found := u.FindSSAFunction(loadRes.Prog, loadRes.Mains, opts.Function())
		if !found {
			log.Fatalf("Could not find function: %s", opts.Function())
		}
		if len(fun.Blocks) == 0 {
			log.Fatalf("Cannot analyze external function: %s", fun)
		}
		return []*ssa.Function{fun}
	}
}
