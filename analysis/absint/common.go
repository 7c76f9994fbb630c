package absint

import (
	"github.com/cs-au-dk/gaia/analysis/cfg"
	"github.com/cs-au-dk/gaia/analysis/checks"
	"github.com/cs-au-dk/gaia/analysis/defs"
	"github.com/cs-au-dk/gaia/analysis/fixpoint"
	L "github.com/cs-au-dk/gaia/analysis/lattice"
	"github.com/cs-au-dk/gaia/analysis/livevars"
	"github.com/cs-au-dk/gaia/analysis/progress"
	"github.com/cs-au-dk/gaia/analysis/upfront"
	tu "github.com/cs-au-dk/gaia/testutil"
	u "github.com/cs-au-dk/gaia/utils"
	"github.com/cs-au-dk/gaia/utils/hmap"

	log "github.com/sirupsen/logrus"
	"golang.org/x/tools/go/ssa"
)

var opts = u.Opts()

var (
	Lattices = L.Create().Lattice
	Elements = L.Create().Element
)

// Precision selects how much of the program state the interpretation
// tracks beyond integer SSA registers.
type Precision int

const (
	// PrecisionRegister tracks integer registers only. Dynamic calls
	// and loads are unresolved.
	PrecisionRegister Precision = iota
	// PrecisionPointer additionally resolves dynamic calls through the
	// points-to analysis.
	PrecisionPointer
	// PrecisionMemory additionally tracks the contents of local
	// allocation sites that never escape.
	PrecisionMemory
)

func (p Precision) String() string {
	switch p {
	case PrecisionRegister:
		return "register"
	case PrecisionPointer:
		return "pointer"
	case PrecisionMemory:
		return "memory"
	}
	return "unknown"
}

func precisionFromConfig(config u.Config) Precision {
	switch config.Precision {
	case "register":
		return PrecisionRegister
	case "pointer":
		return PrecisionPointer
	case "memory":
		return PrecisionMemory
	}
	log.Fatalf("Unknown precision: %s", config.Precision)
	return PrecisionRegister
}

// AnalysisCtxt carries everything shared between the activations of one
// analysis run: the loaded program, the configuration, the collaborators
// of the engine, and the caches built along the way.
type AnalysisCtxt struct {
	LoadRes tu.LoadResult
	Config  u.Config

	Precision Precision
	FixOpts   fixpoint.Options

	// Contexts interns the call contexts of this run.
	Contexts *defs.Contexts

	// Checkers judge statements during the check phase and Reporter
	// collects their findings. Log receives the engine events.
	Checkers []checks.Checker
	Reporter *checks.Reporter
	Log      progress.Logger

	// Per-function caches, built on first use.
	bodies   map[*ssa.Function]*cfg.Body
	hints    map[*ssa.Function]*upfront.WideningHints
	liveness map[*ssa.Function]livevars.Result

	// memos retains activations by function and context, so repeated
	// executions of a call whose entry state has not grown reuse the
	// recorded exit instead of reanalyzing the callee.
	memos *hmap.Map[defs.FunCtx, *FunctionFixpoint]
}

// NewCtxt assembles an analysis context over the given load result and
// configuration. The context starts with a silent progress logger; the
// top-level driver swaps in a real one.
func NewCtxt(loadRes tu.LoadResult, config u.Config) *AnalysisCtxt {
	return &AnalysisCtxt{
		LoadRes:   loadRes,
		Config:    config,
		Precision: precisionFromConfig(config),
		FixOpts:   fixpoint.OptionsFromConfig(config),
		Contexts:  defs.Create().Contexts(),
		Checkers:  checks.FromConfig(config),
		Reporter:  checks.NewReporter(loadRes.Prog.Fset),
		Log:       progress.Create("none", nil),
		bodies:    map[*ssa.Function]*cfg.Body{},
		hints:     map[*ssa.Function]*upfront.WideningHints{},
		liveness:  map[*ssa.Function]livevars.Result{},
		memos:     hmap.NewMap[*FunctionFixpoint](defs.FunCtxHasher()),
	}
}

// bodyOf returns the CFG body of fn, building it on first use.
func (C *AnalysisCtxt) bodyOf(fn *ssa.Function) *cfg.Body {
	body, found := C.bodies[fn]
	if !found {
		body = cfg.New(fn)
		C.bodies[fn] = body
	}
	return body
}

// hintsOf returns the widening hints of fn, collecting them on first use.
func (C *AnalysisCtxt) hintsOf(fn *ssa.Function) *upfront.WideningHints {
	hints, found := C.hints[fn]
	if !found {
		hints = upfront.GetWideningHints(fn)
		C.hints[fn] = hints
	}
	return hints
}

// livenessOf returns the live registers of fn, computing them on first use.
func (C *AnalysisCtxt) livenessOf(fn *ssa.Function) livevars.Result {
	live, found := C.liveness[fn]
	if !found {
		live = livevars.LiveVars(C.bodyOf(fn))
		C.liveness[fn] = live
	}
	return live
}
