package checks

import (
	"fmt"
	"go/types"

	"github.com/cs-au-dk/gaia/analysis/defs"
	L "github.com/cs-au-dk/gaia/analysis/lattice"

	"golang.org/x/tools/go/ssa"
)

// IndexBounds flags array accesses whose index escapes the array
// length. Slice lengths are not modeled, so slice accesses are only
// checked for negative indices.
type IndexBounds struct{}

func (IndexBounds) Name() string {
	return "bounds"
}

func (IndexBounds) Check(insn ssa.Instruction, pre L.Env, _ *defs.CallCtx) *Finding {
	var base, index ssa.Value
	switch access := insn.(type) {
	case *ssa.IndexAddr:
		base, index = access.X, access.Index
	case *ssa.Index:
		base, index = access.X, access.Index
	default:
		return nil
	}
	if pre.IsBot() {
		return nil
	}

	idx := pre.Eval(index)
	if idx.IsBot() {
		return nil
	}

	switch {
	case idx.HighBound().Lt(L.FiniteBound(0)):
		return &Finding{insn.Pos(), "bounds", Error,
			fmt.Sprintf("index %s is always negative: %s", operandName(index), idx)}
	case idx.LowBound().Lt(L.FiniteBound(0)):
		return &Finding{insn.Pos(), "bounds", Warning,
			fmt.Sprintf("index %s may be negative: %s", operandName(index), idx)}
	}

	length, known := arrayLength(base.Type())
	if !known {
		return nil
	}
	switch {
	case idx.LowBound().Geq(L.FiniteBound(length)):
		return &Finding{insn.Pos(), "bounds", Error,
			fmt.Sprintf("index %s always exceeds the array length %d: %s",
				operandName(index), length, idx)}
	case idx.HighBound().Geq(L.FiniteBound(length)):
		return &Finding{insn.Pos(), "bounds", Warning,
			fmt.Sprintf("index %s may exceed the array length %d: %s",
				operandName(index), length, idx)}
	}
	return &Finding{insn.Pos(), "bounds", Ok,
		fmt.Sprintf("index %s is within the array length %d", operandName(index), length)}
}

// arrayLength resolves the static length of the indexed operand, seeing
// through the pointer indirection of element address computations.
func arrayLength(t types.Type) (int, bool) {
	if ptr, ok := t.Underlying().(*types.Pointer); ok {
		t = ptr.Elem()
	}
	if arr, ok := t.Underlying().(*types.Array); ok {
		return int(arr.Len()), true
	}
	return 0, false
}
