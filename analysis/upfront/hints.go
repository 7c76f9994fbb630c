package upfront

import (
	"go/constant"
	"go/token"

	uf "github.com/spakin/disjoint"

	"golang.org/x/exp/slices"
	"golang.org/x/tools/go/ssa"
)

// WideningHints hold the integer constants that the registers of a function
// are compared against. The fixpoint engine offers them as candidate
// thresholds when extrapolating at the loop heads of the function.
//
// Registers connected through φ-nodes and value preserving conversions are
// collapsed into one class, so a bound compared against any renamed version
// of a source variable is offered for all of them.
type WideningHints struct {
	classes map[ssa.Value]*uf.Element
	consts  map[*uf.Element][]int64
	all     []int64
}

// GetWideningHints profiles the body of the given function.
func GetWideningHints(fun *ssa.Function) *WideningHints {
	h := &WideningHints{
		classes: make(map[ssa.Value]*uf.Element),
		consts:  make(map[*uf.Element][]int64),
	}

	for _, block := range fun.Blocks {
		for _, insn := range block.Instrs {
			switch v := insn.(type) {
			case *ssa.Phi:
				for _, edge := range v.Edges {
					h.union(v, edge)
				}
			case *ssa.ChangeType:
				h.union(v, v.X)
			case *ssa.BinOp:
				switch v.Op {
				case token.EQL, token.NEQ, token.LSS, token.LEQ, token.GTR, token.GEQ:
					if c, ok := intConstant(v.X); ok {
						h.record(v.Y, c)
					}
					if c, ok := intConstant(v.Y); ok {
						h.record(v.X, c)
					}
				}
			}
		}
	}

	// Unions performed after a constant was recorded may have moved the
	// class root, so re-key the gathered constants by the final roots.
	merged := make(map[*uf.Element][]int64)
	for rep, cs := range h.consts {
		root := rep.Find()
		merged[root] = append(merged[root], cs...)
	}
	for root, cs := range merged {
		merged[root] = sortedUnique(cs)
	}
	h.consts = merged
	h.all = sortedUnique(h.all)

	return h
}

// ForValue returns the thresholds compared against the class of v, in
// ascending order.
func (h *WideningHints) ForValue(v ssa.Value) []int64 {
	if el, found := h.classes[v]; found {
		return h.consts[el.Find()]
	}
	return nil
}

// All returns every threshold occurring in the function, in ascending order.
func (h *WideningHints) All() []int64 {
	return h.all
}

func (h *WideningHints) element(v ssa.Value) *uf.Element {
	el, found := h.classes[v]
	if !found {
		el = uf.NewElement()
		h.classes[v] = el
	}
	return el
}

func (h *WideningHints) union(v1, v2 ssa.Value) {
	uf.Union(h.element(v1), h.element(v2))
}

func (h *WideningHints) record(v ssa.Value, c int64) {
	rep := h.element(v).Find()
	h.consts[rep] = append(h.consts[rep], c)
	h.all = append(h.all, c)
}

func intConstant(v ssa.Value) (int64, bool) {
	c, ok := v.(*ssa.Const)
	if !ok || c.Value == nil || c.Value.Kind() != constant.Int {
		return 0, false
	}
	return constant.Int64Val(c.Value)
}

func sortedUnique(xs []int64) []int64 {
	slices.Sort(xs)
	return slices.Compact(xs)
}
