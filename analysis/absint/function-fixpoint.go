package absint

import (
	"fmt"

	"github.com/cs-au-dk/gaia/analysis/cfg"
	"github.com/cs-au-dk/gaia/analysis/defs"
	"github.com/cs-au-dk/gaia/analysis/fixpoint"
	L "github.com/cs-au-dk/gaia/analysis/lattice"

	"golang.org/x/exp/slices"
	"golang.org/x/tools/go/ssa"
)

// A FunctionFixpoint is one activation of the interprocedural analysis:
// the fixpoint computation over one function under one call context.
// Activations nest through the call engine, which spawns a child
// activation for every call it decides to analyze.
//
// An activation lives through two phases. Run computes the invariants,
// releasing the per-node post states once they have converged.
// RunChecks replays the transfer functions over the retained entry
// invariants and hands every positioned statement to the checkers.
type FunctionFixpoint struct {
	ctxt *AnalysisCtxt

	fun  *ssa.Function
	ctx  *defs.CallCtx
	body *cfg.Body
	iter *fixpoint.Iterator

	// analyzed is the chain of functions from the entry activation down
	// to this one, consulted for recursion detection.
	analyzed []*ssa.Function

	engine *callEngine

	// entry is the state Run was invoked with.
	entry L.Env

	checked bool
}

// newEntryFixpoint prepares the activation of an analysis entry point,
// under the root context.
func newEntryFixpoint(C *AnalysisCtxt, fn *ssa.Function) *FunctionFixpoint {
	fp := &FunctionFixpoint{
		ctxt:     C,
		fun:      fn,
		ctx:      C.Contexts.Root(),
		body:     C.bodyOf(fn),
		analyzed: []*ssa.Function{fn},
	}
	fp.engine = newCallEngine(fp, true)
	fp.iter = fixpoint.NewIterator(fp.body, fp, C.FixOpts, Lattices().Env().Bot())
	return fp
}

// newCalleeFixpoint prepares the activation of callee for the given
// call site of the caller activation. The caller's call engine decides
// whether the child context is stable.
func newCalleeFixpoint(
	caller *FunctionFixpoint,
	call ssa.CallInstruction,
	callee *ssa.Function,
	contextStable bool,
) *FunctionFixpoint {
	C := caller.ctxt
	fp := &FunctionFixpoint{
		ctxt:     C,
		fun:      callee,
		ctx:      C.Contexts.Extend(caller.ctx, call),
		body:     C.bodyOf(callee),
		analyzed: append(slices.Clone(caller.analyzed), callee),
	}
	fp.engine = newCallEngine(fp, contextStable)
	fp.iter = fixpoint.NewIterator(fp.body, fp, C.FixOpts, Lattices().Env().Bot())
	return fp
}

// Fun returns the analyzed function.
func (fp *FunctionFixpoint) Fun() *ssa.Function {
	return fp.fun
}

// Ctx returns the call context of the activation.
func (fp *FunctionFixpoint) Ctx() *defs.CallCtx {
	return fp.ctx
}

// Converged reports whether Run has completed.
func (fp *FunctionFixpoint) Converged() bool {
	return fp.engine.convergenceAchieved
}

// ContextStable reports whether the activation was run under a caller
// state that had already converged. Activations run while the caller
// was still iterating carry provisional entry states, even when a later
// iteration confirms them.
func (fp *FunctionFixpoint) ContextStable() bool {
	return fp.engine.contextStable
}

// Pre returns the invariant at the entry of n.
func (fp *FunctionFixpoint) Pre(n cfg.Node) L.Env {
	return fp.iter.Pre(n).Env()
}

// Exit returns the invariant at the function exit. It is bottom when no
// returning path was analyzed, in particular before Run.
func (fp *FunctionFixpoint) Exit() L.Env {
	return fp.engine.exit
}

func (fp *FunctionFixpoint) String() string {
	return defs.Create().FunCtx(fp.fun, fp.ctx).String()
}

// isCurrentlyAnalyzed reports whether fn is on the activation chain,
// which makes a call to it recursive.
func (fp *FunctionFixpoint) isCurrentlyAnalyzed(fn *ssa.Function) bool {
	return slices.Contains(fp.analyzed, fn)
}

// Run computes the fixpoint of the activation from the given entry
// state. The post states are released once the computation converges;
// the entry invariants stay behind for RunChecks.
func (fp *FunctionFixpoint) Run(entry L.Env) {
	if !fp.ctx.IsRoot() {
		fp.ctxt.Log.StartCallee(fp.ctx, fp.fun)
	}

	fp.entry = entry
	fp.iter.Run(entry)
	fp.engine.convergenceAchieved = true
	fp.iter.ClearPost()

	if !fp.ctx.IsRoot() {
		fp.ctxt.Log.EndCallee(fp.ctx, fp.fun)
	}
}

// RunChecks replays the converged invariants over every block, handing
// each positioned instruction to the checkers before applying its
// transfer function, and descends into the activation of every
// analyzed call. Run must have completed first.
func (fp *FunctionFixpoint) RunChecks() {
	if !fp.engine.convergenceAchieved {
		panic(fmt.Sprintf("checks on %s requested before convergence", fp))
	}
	if fp.checked {
		return
	}
	fp.checked = true
	fp.engine.checking = true

	if !fp.ctx.IsRoot() {
		fp.ctxt.Log.StartCallee(fp.ctx, fp.fun)
	}

	for _, n := range fp.body.Nodes() {
		bn := n.BlockNode()
		if bn == nil {
			continue
		}

		state := fp.execEnter(fp.Pre(n), bn)
		for _, insn := range bn.Instructions() {
			if insn.Pos().IsValid() {
				for _, checker := range fp.ctxt.Checkers {
					fp.ctxt.Reporter.Add(checker.Check(insn, state, fp.ctx))
				}
			}
			state = fp.step(state, insn)
		}
	}

	if !fp.ctx.IsRoot() {
		fp.ctxt.Log.EndCallee(fp.ctx, fp.fun)
	}
}

// AnalyzeNode applies the abstract semantics of the instructions of the
// node to the incoming state.
func (fp *FunctionFixpoint) AnalyzeNode(n cfg.Node, pre L.Element) L.Element {
	bn := n.BlockNode()
	if bn == nil {
		return pre
	}

	state := fp.execEnter(pre.Env(), bn)
	for _, insn := range bn.Instructions() {
		state = fp.step(state, insn)
	}
	return fp.execLeave(state, n)
}

// AnalyzeEdge filters the state along conditional edges and resolves
// the phi bindings of the destination block.
func (fp *FunctionFixpoint) AnalyzeEdge(src, dst cfg.Node, post L.Element) L.Element {
	sb, db := src.BlockNode(), dst.BlockNode()
	if sb == nil || db == nil {
		return post
	}

	state := fp.filterBranch(post.Env(), sb, db)
	return fp.bindPhis(state, sb, db)
}

// ProcessPost publishes the state leaving the exit node as the exit
// invariant of the activation.
func (fp *FunctionFixpoint) ProcessPost(n cfg.Node, post L.Element) {
	if n.IsExit() {
		fp.engine.execExit(post.Env())
	}
}

func (fp *FunctionFixpoint) EnterCycle(head cfg.Node) {
	fp.ctxt.Log.EnterCycle(head)
}

func (fp *FunctionFixpoint) CycleIteration(head cfg.Node, iteration uint, kind fixpoint.IterationKind) {
	fp.ctxt.Log.CycleIteration(head, iteration, kind)
}

func (fp *FunctionFixpoint) LeaveCycle(head cfg.Node) {
	fp.ctxt.Log.LeaveCycle(head)
}

// Threshold resolves the extrapolation threshold of a cycle from the
// comparison constants of the analyzed function: first those tied to
// the branch registers of the cycle head, then any comparison constant
// of the function. The largest constant bounds every comparison of its
// class.
func (fp *FunctionFixpoint) Threshold(head cfg.Node) (L.FiniteBound, bool) {
	hints := fp.ctxt.hintsOf(fp.fun)

	var cs []int64
	if branch, ok := terminator(head).(*ssa.If); ok {
		if cond, ok := branch.Cond.(*ssa.BinOp); ok {
			cs = hints.ForValue(cond.X)
			if len(cs) == 0 {
				cs = hints.ForValue(cond.Y)
			}
		}
	}
	if len(cs) == 0 {
		cs = hints.All()
	}
	if len(cs) == 0 {
		return 0, false
	}
	return L.FiniteBound(cs[len(cs)-1]), true
}

// terminator returns the last instruction of a block node, or nil for
// the synthetic nodes.
func terminator(n cfg.Node) ssa.Instruction {
	bn := n.BlockNode()
	if bn == nil {
		return nil
	}
	instrs := bn.Instructions()
	if len(instrs) == 0 {
		return nil
	}
	return instrs[len(instrs)-1]
}
