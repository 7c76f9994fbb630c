package cfg

import (
	"fmt"
	"go/token"

	"golang.org/x/tools/go/ssa"
)

// BaseNode holds the relations shared by all CF-nodes. Successors and
// predecessors are kept in insertion order, so traversals and the
// weak topological order derived from them are deterministic.
type BaseNode struct {
	fn   *ssa.Function
	succ []Node
	pred []Node
}

type (
	// FunctionEntry is a synthetic node marking the entry to a function.
	FunctionEntry struct{ BaseNode }
	// FunctionExit is a synthetic node marking the single designated
	// exit of a function. Functions that cannot return keep an exit
	// node without predecessors.
	FunctionExit struct{ BaseNode }
	// BlockNode wraps a basic block of the underlying SSA function.
	BlockNode struct {
		BaseNode
		block *ssa.BasicBlock
	}
)

type Node interface {
	addSuccessor(Node)
	addPredecessor(Node)
	baseNode() *BaseNode

	Successors() []Node
	Predecessors() []Node

	// Book-keeping
	Function() *ssa.Function
	Block() *ssa.BasicBlock

	IsEntry() bool
	IsExit() bool

	// Type conversion API. Returns nil for nodes of other types.
	BlockNode() *BlockNode

	String() string

	Pos() token.Pos
}

func (n *BaseNode) baseNode() *BaseNode {
	return n
}

func (n *BaseNode) addSuccessor(n2 Node) {
	for _, s := range n.succ {
		if s == n2 {
			return
		}
	}
	n.succ = append(n.succ, n2)
}

func (n *BaseNode) addPredecessor(n2 Node) {
	for _, p := range n.pred {
		if p == n2 {
			return
		}
	}
	n.pred = append(n.pred, n2)
}

func (n *BaseNode) Successors() []Node {
	return n.succ
}

func (n *BaseNode) Predecessors() []Node {
	return n.pred
}

func (n *BaseNode) Function() *ssa.Function {
	return n.fn
}

func (n *BaseNode) Block() *ssa.BasicBlock {
	return nil
}

func (n *BaseNode) IsEntry() bool {
	return false
}

func (n *BaseNode) IsExit() bool {
	return false
}

func (n *BaseNode) BlockNode() *BlockNode {
	return nil
}

// SetSuccessor wires an edge between two CF-nodes in both directions.
func SetSuccessor(from Node, to Node) {
	from.addSuccessor(to)
	to.addPredecessor(from)
}

func (n *FunctionEntry) IsEntry() bool {
	return true
}

func (n *FunctionEntry) String() string {
	return "[ " + n.Function().Name() + ":entry ]"
}

func (n *FunctionEntry) Pos() token.Pos {
	return n.Function().Pos()
}

func (n *FunctionExit) IsExit() bool {
	return true
}

func (n *FunctionExit) String() string {
	return "[ " + n.Function().Name() + ":exit ]"
}

func (n *FunctionExit) Pos() token.Pos {
	return n.Function().Pos()
}

func (n *BlockNode) Block() *ssa.BasicBlock {
	return n.block
}

func (n *BlockNode) BlockNode() *BlockNode {
	return n
}

// Index returns the index of the underlying basic block.
func (n *BlockNode) Index() int {
	return n.block.Index
}

// Instructions returns the instructions of the underlying basic block.
func (n *BlockNode) Instructions() []ssa.Instruction {
	return n.block.Instrs
}

func (n *BlockNode) String() string {
	return fmt.Sprintf("[ %s:%d %s ]", n.Function().Name(), n.block.Index, n.block.Comment)
}

// Pos returns the position of the first positioned instruction of the
// block, falling back on the function position.
func (n *BlockNode) Pos() token.Pos {
	for _, insn := range n.block.Instrs {
		if insn.Pos().IsValid() {
			return insn.Pos()
		}
	}
	return n.Function().Pos()
}
