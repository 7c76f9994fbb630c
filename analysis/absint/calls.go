package absint

import (
	"github.com/cs-au-dk/gaia/analysis/defs"
	L "github.com/cs-au-dk/gaia/analysis/lattice"

	"golang.org/x/tools/go/ssa"
)

// The callEngine executes the call instructions of one activation. It
// resolves call sites to callee functions, spawns child activations
// for them, and memoizes the analyzed activations per function and
// call context, so a call site revisited with a covered entry state
// reuses the previous analysis.
type callEngine struct {
	owner *FunctionFixpoint

	// contextStable records whether the caller state feeding this
	// activation had already converged when the activation was run.
	contextStable bool
	// convergenceAchieved is raised when the fixpoint of the owner has
	// been reached. Child activations spawned before that point run
	// against provisional caller states.
	convergenceAchieved bool
	// checking makes analyzed calls descend into the checking phase of
	// their callee activations.
	checking bool

	// exit is the invariant leaving the exit node, bottom until some
	// returning path has been analyzed.
	exit L.Env
}

func newCallEngine(owner *FunctionFixpoint, contextStable bool) *callEngine {
	return &callEngine{
		owner:         owner,
		contextStable: contextStable,
		exit:          Lattices().Env().Bot().Env(),
	}
}

// execExit records the invariant at the function exit.
func (e *callEngine) execExit(state L.Env) {
	e.exit = state
}

// execCall applies the abstract semantics of a call site. Every
// resolved callee with a body is analyzed in the extended context and
// the returned intervals are joined into the call register. Callees
// without a body, and recursive calls back into the activation chain,
// havoc the call register instead. A call site where no analyzed
// callee can return makes the continuation unreachable.
func (e *callEngine) execCall(state L.Env, insn ssa.CallInstruction) L.Env {
	call, ok := insn.(*ssa.Call)
	if !ok {
		// A deferred or spawned call neither produces a register value
		// nor touches a tracked cell.
		return state
	}
	if state.IsBot() {
		return state
	}

	callees := e.resolve(call)
	if len(callees) == 0 {
		return state
	}

	havoc, returns := false, false
	result := Lattices().Interval().Bot().Interval()

	for _, callee := range callees {
		switch {
		case len(callee.Blocks) == 0:
			havoc = true
		case e.owner.isCurrentlyAnalyzed(callee):
			havoc = true
		default:
			exit := e.descend(state, call, callee)
			if exit.IsBot() {
				continue
			}
			returns = true
			result = result.Join(exit.Get(callee)).Interval()
		}
	}

	switch {
	case havoc:
		return state.Forget(call)
	case !returns:
		return Lattices().Env().Bot().Env()
	case isInteger(call.Type()):
		return state.Bind(call, result)
	}
	return state
}

// resolve returns the possible callees of a call site. Static callees
// resolve directly. Dynamic sites resolve through the points-to call
// graph when the configured precision admits it.
func (e *callEngine) resolve(call *ssa.Call) []*ssa.Function {
	if callee := call.Call.StaticCallee(); callee != nil {
		return []*ssa.Function{callee}
	}
	if e.owner.ctxt.Precision < PrecisionPointer {
		return nil
	}

	node := e.owner.ctxt.LoadRes.Pointer.CallGraph.Nodes[call.Parent()]
	if node == nil {
		return nil
	}
	var callees []*ssa.Function
	for _, edge := range node.Out {
		if edge.Site == call {
			callees = append(callees, edge.Callee.Func)
		}
	}
	return callees
}

// descend analyzes callee for the given call site. The memoized
// activation is reused when its entry state covers the current one.
// During the checking phase the activation found here is the one the
// converged caller invariants produced, and the descent extends the
// replay into it.
func (e *callEngine) descend(state L.Env, call *ssa.Call, callee *ssa.Function) L.Env {
	C := e.owner.ctxt
	entry := calleeEntry(state, call, callee)

	fc := defs.Create().FunCtx(callee, C.Contexts.Extend(e.owner.ctx, call))
	fp, found := C.memos.GetOk(fc)
	if !found || !entry.Leq(fp.entry) {
		fp = newCalleeFixpoint(e.owner, call, callee, e.contextStable && e.convergenceAchieved)
		fp.Run(entry)
		C.memos.Set(fc, fp)
	}

	if e.checking {
		fp.RunChecks()
	}
	return fp.engine.exit
}

// calleeEntry builds the entry state of a callee activation by binding
// its integer parameters to the abstract arguments at the call site.
// Everything else starts unconstrained.
func calleeEntry(state L.Env, call *ssa.Call, callee *ssa.Function) L.Env {
	entry := Elements().Env()

	params := callee.Params
	if call.Call.IsInvoke() {
		// The receiver is not among the arguments of an invoke-mode
		// site.
		params = params[1:]
	}
	for i, arg := range call.Call.Args {
		if i >= len(params) {
			break
		}
		if isInteger(params[i].Type()) {
			entry = entry.Bind(params[i], state.Eval(arg))
		}
	}
	return entry
}
