package checks

import (
	"fmt"
	"go/token"

	"github.com/cs-au-dk/gaia/analysis/defs"
	L "github.com/cs-au-dk/gaia/analysis/lattice"

	"golang.org/x/tools/go/ssa"
)

// ShiftAmount flags shifts whose amount may be negative, which faults
// at run time, or provably exceeds the width of the shifted operand,
// which zeroes the result.
type ShiftAmount struct{}

func (ShiftAmount) Name() string {
	return "shift"
}

func (ShiftAmount) Check(insn ssa.Instruction, pre L.Env, _ *defs.CallCtx) *Finding {
	binop, ok := insn.(*ssa.BinOp)
	if !ok || (binop.Op != token.SHL && binop.Op != token.SHR) || pre.IsBot() {
		return nil
	}

	amount := pre.Eval(binop.Y)
	if amount.IsBot() {
		return nil
	}

	width := bitWidth(binop.X.Type())
	switch {
	case amount.HighBound().Lt(L.FiniteBound(0)):
		return &Finding{binop.Pos(), "shift", Error,
			fmt.Sprintf("shift amount %s is always negative: %s", operandName(binop.Y), amount)}
	case amount.LowBound().Lt(L.FiniteBound(0)):
		return &Finding{binop.Pos(), "shift", Warning,
			fmt.Sprintf("shift amount %s may be negative: %s", operandName(binop.Y), amount)}
	case amount.LowBound().Geq(L.FiniteBound(width)):
		return &Finding{binop.Pos(), "shift", Warning,
			fmt.Sprintf("shift amount %s exceeds the %d bit operand width: %s",
				operandName(binop.Y), width, amount)}
	}
	return &Finding{binop.Pos(), "shift", Ok,
		fmt.Sprintf("shift amount %s is valid", operandName(binop.Y))}
}
