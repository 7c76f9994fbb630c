package cfg

import (
	"fmt"
	"strings"

	"golang.org/x/tools/go/ssa"
)

// Body is the control flow graph of a single function. Basic blocks
// are connected between a synthetic entry node and a single synthetic
// exit node. Only blocks that return flow into the exit, so the state
// at the exit reflects exactly the returning executions. Functions
// that cannot return keep an exit node without predecessors.
type Body struct {
	fn     *ssa.Function
	entry  *FunctionEntry
	exit   *FunctionExit
	blocks map[*ssa.BasicBlock]*BlockNode
	nodes  []Node
}

// New constructs the CFG body of the given function. The function
// must have been built with its SSA body available.
func New(fn *ssa.Function) *Body {
	if len(fn.Blocks) == 0 {
		panic(fmt.Sprintf("CFG requested for external function %s", fn))
	}

	b := &Body{
		fn:     fn,
		entry:  &FunctionEntry{BaseNode{fn: fn}},
		exit:   &FunctionExit{BaseNode{fn: fn}},
		blocks: make(map[*ssa.BasicBlock]*BlockNode, len(fn.Blocks)),
	}

	b.nodes = append(b.nodes, b.entry)
	for _, blk := range fn.Blocks {
		n := &BlockNode{BaseNode{fn: fn}, blk}
		b.blocks[blk] = n
		b.nodes = append(b.nodes, n)
	}
	b.nodes = append(b.nodes, b.exit)

	SetSuccessor(b.entry, b.blocks[fn.Blocks[0]])
	// The recover block is reachable from the entry alone.
	if fn.Recover != nil {
		SetSuccessor(b.entry, b.blocks[fn.Recover])
	}

	for _, blk := range fn.Blocks {
		n := b.blocks[blk]
		for _, succ := range blk.Succs {
			SetSuccessor(n, b.blocks[succ])
		}
		if len(blk.Instrs) > 0 {
			if _, ok := blk.Instrs[len(blk.Instrs)-1].(*ssa.Return); ok {
				SetSuccessor(n, b.exit)
			}
		}
	}

	return b
}

// Function returns the underlying SSA function.
func (b *Body) Function() *ssa.Function {
	return b.fn
}

// Entry returns the synthetic entry node.
func (b *Body) Entry() Node {
	return b.entry
}

// Exit returns the synthetic exit node.
func (b *Body) Exit() Node {
	return b.exit
}

// Nodes returns all CF-nodes in a deterministic order: the entry,
// the basic blocks by index, and the exit.
func (b *Body) Nodes() []Node {
	return b.nodes
}

// NodeFor returns the CF-node wrapping the given basic block.
func (b *Body) NodeFor(blk *ssa.BasicBlock) Node {
	n, found := b.blocks[blk]
	if !found {
		panic(fmt.Sprintf("no CF-node for block %d of %s", blk.Index, b.fn))
	}
	return n
}

// Size returns the number of CF-nodes, including the synthetic
// entry and exit.
func (b *Body) Size() int {
	return len(b.nodes)
}

func (b *Body) String() string {
	strs := make([]string, 0, len(b.nodes))
	for _, n := range b.nodes {
		succs := make([]string, 0, len(n.Successors()))
		for _, succ := range n.Successors() {
			succs = append(succs, succ.String())
		}
		strs = append(strs, n.String()+" → {"+strings.Join(succs, ", ")+"}")
	}
	return fmt.Sprintf("CFG of %s:\n%s", b.fn, strings.Join(strs, "\n"))
}
