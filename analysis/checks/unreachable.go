package checks

import (
	"github.com/cs-au-dk/gaia/analysis/defs"
	L "github.com/cs-au-dk/gaia/analysis/lattice"

	"golang.org/x/tools/go/ssa"
)

// UnreachableCode reports statements whose abstract pre-state is
// bottom, meaning no execution can reach them.
type UnreachableCode struct{}

func (UnreachableCode) Name() string {
	return "unreachable"
}

func (UnreachableCode) Check(insn ssa.Instruction, pre L.Env, _ *defs.CallCtx) *Finding {
	if !pre.IsBot() {
		return nil
	}
	return &Finding{insn.Pos(), "unreachable", Unreachable, "statement is never reached"}
}
