package defs

import (
	"github.com/cs-au-dk/gaia/utils"

	"github.com/benbjohnson/immutable"
	"golang.org/x/tools/go/ssa"
)

// A FunCtx pairs a function with the call context under which it is
// analyzed. Context-sensitive analysis results are keyed per FunCtx.
type FunCtx struct {
	fun *ssa.Function
	ctx *CallCtx
}

var funHasher = utils.PointerHasher[*ssa.Function]{}

func (factory) FunCtx(fun *ssa.Function, ctx *CallCtx) FunCtx {
	return FunCtx{fun, ctx}
}

func (fc FunCtx) Fun() *ssa.Function {
	return fc.fun
}

func (fc FunCtx) Ctx() *CallCtx {
	return fc.ctx
}

func (fc FunCtx) Hash() uint32 {
	return utils.HashCombine(funHasher.Hash(fc.fun), ctxHasher.Hash(fc.ctx))
}

// Equal relies on contexts being hash-consed, making pairwise pointer
// equality coincide with structural equality.
func (fc1 FunCtx) Equal(fc2 FunCtx) bool {
	return fc1 == fc2
}

func (fc FunCtx) String() string {
	return colorize.Fun(fc.fun.Name()) + " @ " + fc.ctx.String()
}

// FunCtxHasher constructs a hasher for maps keyed by function and context
// pairs.
func FunCtxHasher() immutable.Hasher[FunCtx] {
	return utils.HashableHasher[FunCtx]()
}
