package checks

import (
	"fmt"
	"go/token"

	"github.com/cs-au-dk/gaia/analysis/defs"
	L "github.com/cs-au-dk/gaia/analysis/lattice"

	"golang.org/x/tools/go/ssa"
)

// DivisionByZero flags integer divisions and remainders whose divisor
// may be zero.
type DivisionByZero struct{}

func (DivisionByZero) Name() string {
	return "dbz"
}

func (DivisionByZero) Check(insn ssa.Instruction, pre L.Env, _ *defs.CallCtx) *Finding {
	binop, ok := insn.(*ssa.BinOp)
	if !ok || (binop.Op != token.QUO && binop.Op != token.REM) ||
		!isInteger(binop.X.Type()) || pre.IsBot() {
		return nil
	}

	divisor := pre.Eval(binop.Y)
	switch {
	case divisor.IsBot():
		return nil
	case divisor.Eq(L.Elements().Constant(0)):
		return &Finding{binop.Pos(), "dbz", Error,
			fmt.Sprintf("divisor %s is always zero", operandName(binop.Y))}
	case divisor.Contains(0):
		return &Finding{binop.Pos(), "dbz", Warning,
			fmt.Sprintf("divisor %s may be zero: %s", operandName(binop.Y), divisor)}
	}
	return &Finding{binop.Pos(), "dbz", Ok,
		fmt.Sprintf("divisor %s is nonzero", operandName(binop.Y))}
}
