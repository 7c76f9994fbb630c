package absint

import (
	"go/token"
	"go/types"

	"github.com/cs-au-dk/gaia/analysis/cfg"
	L "github.com/cs-au-dk/gaia/analysis/lattice"

	"golang.org/x/tools/go/ssa"
)

// The transfer functions interpret instructions over environments of
// integer intervals. Arithmetic is idealized: values range over all of
// ℤ and overflow is not modeled. Instructions outside the interpreted
// fragment leave the state untouched, so their results read back as
// top.

// execEnter hooks the entry of a block. Phi bindings are resolved on
// the incoming edges, so nothing happens here.
func (fp *FunctionFixpoint) execEnter(state L.Env, bn *cfg.BlockNode) L.Env {
	return state
}

// execLeave prunes the registers that are dead after the node. The
// published return value survives pruning.
func (fp *FunctionFixpoint) execLeave(state L.Env, n cfg.Node) L.Env {
	if state.IsBot() {
		return state
	}

	live := fp.ctxt.livenessOf(fp.fun).LiveOut(n)
	pruned := state
	state.ForEach(func(v ssa.Value, _ L.Interval) {
		if v == fp.fun || live.Contains(v) {
			return
		}
		pruned = pruned.Forget(v)
	})
	return pruned
}

// step applies the abstract transfer of one instruction.
func (fp *FunctionFixpoint) step(state L.Env, insn ssa.Instruction) L.Env {
	if state.IsBot() {
		return state
	}

	switch insn := insn.(type) {
	case *ssa.BinOp:
		return fp.stepBinOp(state, insn)
	case *ssa.UnOp:
		return fp.stepUnOp(state, insn)
	case *ssa.ChangeType:
		return stepConversion(state, insn, insn.X)
	case *ssa.Convert:
		return stepConversion(state, insn, insn.X)
	case *ssa.Alloc:
		return fp.stepAlloc(state, insn)
	case *ssa.Store:
		return fp.stepStore(state, insn)
	case *ssa.Return:
		return fp.stepReturn(state, insn)
	case ssa.CallInstruction:
		return fp.engine.execCall(state, insn)
	}
	return state
}

func (fp *FunctionFixpoint) stepBinOp(state L.Env, binop *ssa.BinOp) L.Env {
	if !isInteger(binop.Type()) {
		return state
	}

	x, y := state.Eval(binop.X), state.Eval(binop.Y)
	var res L.Interval
	switch binop.Op {
	case token.ADD:
		res = x.Plus(y)
	case token.SUB:
		res = x.Minus(y)
	case token.MUL:
		res = x.Mult(y)
	case token.QUO:
		res = x.Div(y)
	case token.REM:
		res = x.Rem(y)
	case token.SHL:
		res = x.Shl(y)
	case token.SHR:
		res = x.Shr(y)
	default:
		// The bitwise operations have no useful interval counterpart.
		return state
	}
	return state.Bind(binop, res)
}

func (fp *FunctionFixpoint) stepUnOp(state L.Env, unop *ssa.UnOp) L.Env {
	if !isInteger(unop.Type()) {
		return state
	}

	switch unop.Op {
	case token.SUB:
		return state.Bind(unop, state.Eval(unop.X).Neg())
	case token.XOR:
		// ^x = -x - 1 over ℤ.
		return state.Bind(unop, Elements().Constant(-1).Minus(state.Eval(unop.X)))
	case token.MUL:
		if fp.ctxt.Precision >= PrecisionMemory {
			if alloc, ok := unop.X.(*ssa.Alloc); ok && uniqueAlloc(alloc) {
				return state.Bind(unop, state.Get(alloc))
			}
		}
	}
	return state
}

// stepConversion transfers integer-to-integer conversions. Since the
// abstraction ignores bit widths, the operand interval carries over.
func stepConversion(state L.Env, reg ssa.Value, operand ssa.Value) L.Env {
	if !isInteger(reg.Type()) || !isInteger(operand.Type()) {
		return state
	}
	return state.Bind(reg, state.Eval(operand))
}

// stepAlloc introduces the cell of a trackable allocation site,
// zero-initialized like the run time does.
func (fp *FunctionFixpoint) stepAlloc(state L.Env, alloc *ssa.Alloc) L.Env {
	if fp.ctxt.Precision < PrecisionMemory || !uniqueAlloc(alloc) {
		return state
	}
	if ptr, ok := alloc.Type().Underlying().(*types.Pointer); ok && isInteger(ptr.Elem()) {
		return state.Bind(alloc, Elements().Constant(0))
	}
	return state
}

func (fp *FunctionFixpoint) stepStore(state L.Env, store *ssa.Store) L.Env {
	if fp.ctxt.Precision < PrecisionMemory || !isInteger(store.Val.Type()) {
		return state
	}
	if alloc, ok := store.Addr.(*ssa.Alloc); ok && uniqueAlloc(alloc) {
		return state.Bind(alloc, state.Eval(store.Val))
	}
	return state
}

// stepReturn publishes the returned interval under the function itself,
// where the call transfer of the parent activation picks it up.
func (fp *FunctionFixpoint) stepReturn(state L.Env, ret *ssa.Return) L.Env {
	if len(ret.Results) == 1 && isInteger(ret.Results[0].Type()) {
		return state.Bind(fp.fun, state.Eval(ret.Results[0]))
	}
	return state
}

// uniqueAlloc reports whether an allocation site is only ever loaded
// from and stored to directly. Such a cell cannot be reached through
// any other value, so stores update it strongly and calls cannot
// change it.
func uniqueAlloc(alloc *ssa.Alloc) bool {
	refs := alloc.Referrers()
	if refs == nil {
		return false
	}
	for _, ref := range *refs {
		switch ref := ref.(type) {
		case *ssa.Store:
			if ref.Addr != alloc || ref.Val == alloc {
				return false
			}
		case *ssa.UnOp:
			if ref.Op != token.MUL {
				return false
			}
		default:
			return false
		}
	}
	return true
}

// filterBranch refines the state along the outgoing edges of a
// conditional branch over an integer comparison. An infeasible
// comparison turns the edge state to bottom.
func (fp *FunctionFixpoint) filterBranch(state L.Env, src, dst *cfg.BlockNode) L.Env {
	if state.IsBot() {
		return state
	}
	branch, ok := terminator(src).(*ssa.If)
	if !ok {
		return state
	}
	succs := src.Block().Succs
	if succs[0] == succs[1] {
		return state
	}
	cond, ok := branch.Cond.(*ssa.BinOp)
	if !ok || !isInteger(cond.X.Type()) {
		return state
	}

	op := cond.Op
	if dst.Block() == succs[1] {
		op = negate(op)
	}

	rx, ry := refine(op, state.Eval(cond.X), state.Eval(cond.Y))
	if rx.IsBot() || ry.IsBot() {
		return Lattices().Env().Bot().Env()
	}
	if _, isConst := cond.X.(*ssa.Const); !isConst {
		state = state.Bind(cond.X, rx)
	}
	if _, isConst := cond.Y.(*ssa.Const); !isConst {
		state = state.Bind(cond.Y, ry)
	}
	return state
}

// refine restricts both comparison operands under the assumption that
// x op y holds.
func refine(op token.Token, x, y L.Interval) (L.Interval, L.Interval) {
	switch op {
	case token.LSS:
		return x.FilterLt(y), y.FilterGt(x)
	case token.LEQ:
		return x.FilterLeq(y), y.FilterGeq(x)
	case token.GTR:
		return x.FilterGt(y), y.FilterLt(x)
	case token.GEQ:
		return x.FilterGeq(y), y.FilterLeq(x)
	case token.EQL:
		return x.FilterEq(y), y.FilterEq(x)
	case token.NEQ:
		return x.FilterNeq(y), y.FilterNeq(x)
	}
	return x, y
}

func negate(op token.Token) token.Token {
	switch op {
	case token.LSS:
		return token.GEQ
	case token.LEQ:
		return token.GTR
	case token.GTR:
		return token.LEQ
	case token.GEQ:
		return token.LSS
	case token.EQL:
		return token.NEQ
	case token.NEQ:
		return token.EQL
	}
	return op
}

// bindPhis performs the phi assignments of the destination block for
// the edge from src. All operands are evaluated against the incoming
// state before any binding takes effect, giving the phis simultaneous
// assignment semantics.
func (fp *FunctionFixpoint) bindPhis(state L.Env, src, dst *cfg.BlockNode) L.Env {
	if state.IsBot() {
		return state
	}

	predIdx := -1
	for i, pred := range dst.Block().Preds {
		if pred == src.Block() {
			predIdx = i
			break
		}
	}
	if predIdx == -1 {
		return state
	}

	snapshot := state
	for _, insn := range dst.Instructions() {
		phi, ok := insn.(*ssa.Phi)
		if !ok {
			break
		}
		if isInteger(phi.Type()) {
			state = state.Bind(phi, snapshot.Eval(phi.Edges[predIdx]))
		}
	}
	return state
}

func isInteger(t types.Type) bool {
	basic, ok := t.Underlying().(*types.Basic)
	return ok && basic.Info()&types.IsInteger != 0
}
