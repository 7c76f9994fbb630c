package livevars

import (
	"github.com/cs-au-dk/gaia/analysis/cfg"
	"github.com/cs-au-dk/gaia/utils"
	"github.com/cs-au-dk/gaia/utils/worklist"

	"github.com/benbjohnson/immutable"
	"golang.org/x/tools/go/ssa"
)

// Result maps every node of a function body to the registers that are
// live at its entry.
type Result struct {
	body *cfg.Body
	in   *immutable.Map[cfg.Node, utils.SSAValueSet]
}

// LiveIn returns the registers live at the entry of n.
func (r Result) LiveIn(n cfg.Node) utils.SSAValueSet {
	if set, found := r.in.Get(n); found {
		return set
	}
	return utils.MakeSSASet()
}

// LiveOut returns the registers live at the exit of n, the union of
// the live-in sets of its successors.
func (r Result) LiveOut(n cfg.Node) utils.SSAValueSet {
	set := utils.MakeSSASet()
	for _, succ := range n.Successors() {
		set = set.Join(r.LiveIn(succ))
	}
	return set
}

// trackable discriminates the values liveness is computed for: SSA
// registers, parameters and free variables. Constants, globals,
// builtins and function references are always available and never
// tracked.
func trackable(v ssa.Value) bool {
	switch v.(type) {
	case nil:
		return false
	case *ssa.Const, *ssa.Global, *ssa.Builtin, *ssa.Function:
		return false
	}
	return true
}

// LiveVars computes which registers are live at every node of the
// body, through a backward worklist iteration to a least fixpoint.
// Phi operands count as uses at the phi's own node rather than along
// the incoming edges, over-approximating per-edge liveness.
func LiveVars(body *cfg.Body) Result {
	in := immutable.NewMap[cfg.Node, utils.SSAValueSet](utils.PointerHasher[cfg.Node]{})

	getOrBot := func(n cfg.Node) utils.SSAValueSet {
		if set, found := in.Get(n); found {
			return set
		}
		return utils.MakeSSASet()
	}

	transfer := func(n cfg.Node) utils.SSAValueSet {
		set := utils.MakeSSASet()
		for _, succ := range n.Successors() {
			set = set.Join(getOrBot(succ))
		}

		if n.Block() == nil {
			return set
		}

		// Walk the block backwards, killing the defined register and
		// reviving the used ones at every instruction.
		instrs := n.Block().Instrs
		for idx := len(instrs) - 1; idx >= 0; idx-- {
			if v, ok := instrs[idx].(ssa.Value); ok {
				set = set.Remove(v)
			}
			for _, rand := range instrs[idx].Operands([]*ssa.Value{}) {
				if v := *rand; v != nil && trackable(v) {
					set = set.Add(v)
				}
			}
		}
		return set
	}

	// Every node is seeded, in reverse order, so that bodies whose
	// exit is unreachable still stabilize their cycles.
	W := worklist.Empty[cfg.Node]()
	nodes := body.Nodes()
	for idx := len(nodes) - 1; idx >= 0; idx-- {
		W.Add(nodes[idx])
	}

	for !W.IsEmpty() {
		n := W.GetNext()
		if next := transfer(n); !next.Eq(getOrBot(n)) {
			in = in.Set(n, next)
			for _, pred := range n.Predecessors() {
				W.Add(pred)
			}
		}
	}

	return Result{body, in}
}
