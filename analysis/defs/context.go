package defs

import (
	"github.com/cs-au-dk/gaia/utils"
	"github.com/cs-au-dk/gaia/utils/hmap"

	"golang.org/x/tools/go/ssa"
)

// A CallCtx is a calling context: the chain of call sites through which the
// analysis reached the function currently being analyzed. The empty chain is
// the root context, under which entry points are analyzed.
//
// Call contexts are hash-consed through a Contexts store. Two contexts built
// from the same store are structurally equal exactly when they are the same
// pointer, so clients may compare them with == and hash them by address.
type CallCtx struct {
	parent *CallCtx
	site   ssa.CallInstruction
}

func (ctx *CallCtx) IsRoot() bool {
	return ctx.parent == nil
}

func (ctx *CallCtx) Parent() *CallCtx {
	return ctx.parent
}

// Site returns the call instruction extending the parent context, or nil for
// the root context.
func (ctx *CallCtx) Site() ssa.CallInstruction {
	return ctx.site
}

// Caller returns the function containing the call site, or nil for the root
// context.
func (ctx *CallCtx) Caller() *ssa.Function {
	if ctx.parent == nil {
		return nil
	}
	return ctx.site.Parent()
}

func (ctx *CallCtx) Root() *CallCtx {
	if ctx.parent == nil {
		return ctx
	}
	return ctx.parent.Root()
}

// Length returns the number of call sites on the context chain.
func (ctx *CallCtx) Length() int {
	if ctx.parent == nil {
		return 0
	}
	return 1 + ctx.parent.Length()
}

func (ctx *CallCtx) String() (str string) {
	if ctx.parent == nil {
		return colorize.Ctx("ε")
	}
	str = ctx.parent.String() + " ↝ " + colorize.Site(describeSite(ctx.site))
	return
}

// describeSite renders a call instruction as the name of its callee, falling
// back to the call operand for dynamic calls.
func describeSite(site ssa.CallInstruction) string {
	common := site.Common()
	switch {
	case common.StaticCallee() != nil:
		return common.StaticCallee().Name()
	case common.IsInvoke():
		return common.Method.Name()
	default:
		return common.Value.Name()
	}
}

type ctxKey struct {
	parent *CallCtx
	site   ssa.CallInstruction
}

type ctxKeyHasher struct{}

var (
	ctxHasher  = utils.PointerHasher[*CallCtx]{}
	siteHasher = utils.PointerHasher[ssa.CallInstruction]{}
)

func (ctxKeyHasher) Hash(k ctxKey) uint32 {
	return utils.HashCombine(ctxHasher.Hash(k.parent), siteHasher.Hash(k.site))
}

func (ctxKeyHasher) Equal(a, b ctxKey) bool {
	return a == b
}

// A Contexts store hash-conses the call contexts of one analysis run.
// Contexts from different stores must not be mixed.
type Contexts struct {
	root  *CallCtx
	table *hmap.Map[ctxKey, *CallCtx]
}

func (factory) Contexts() *Contexts {
	return &Contexts{
		root:  &CallCtx{},
		table: hmap.NewMap[*CallCtx](ctxKeyHasher{}),
	}
}

// Root returns the empty call context.
func (cs *Contexts) Root() *CallCtx {
	return cs.root
}

// Extend returns the context reaching parent and then calling through site.
// The result is interned: extending the same parent with the same site twice
// yields the same pointer.
func (cs *Contexts) Extend(parent *CallCtx, site ssa.CallInstruction) *CallCtx {
	if parent == nil {
		parent = cs.root
	}
	return cs.table.GetOrInsert(ctxKey{parent, site}, func() *CallCtx {
		return &CallCtx{parent: parent, site: site}
	})
}

// Size returns the number of non-root contexts created so far.
func (cs *Contexts) Size() int {
	return cs.table.Len()
}
