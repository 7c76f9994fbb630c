package fixpoint

import (
	"math"
	"strconv"
	"strings"

	"github.com/cs-au-dk/gaia/analysis/cfg"
)

// A weak topological ordering (WTO) arranges the nodes of a control-flow
// graph into a hierarchy of components, following Bourdoncle's recursive
// strategy. Every cycle of the graph is contained in some cycle component,
// and the head of each cycle component is the single node through which
// iteration of that cycle is driven. Components are ordered such that all
// edges going forward in the ordering are acyclic.
type (
	// Component is a constituent of a weak topological ordering. It is
	// either a single node or a cycle headed by a node.
	Component interface {
		String() string
		nodes(add func(cfg.Node))
	}

	// Vertex is a component holding a single node outside any cycle at
	// this nesting level.
	Vertex struct {
		Node cfg.Node
	}

	// Cycle is a component holding the head of a cyclic region and the
	// ordered sub-components of the region.
	Cycle struct {
		head       cfg.Node
		components []Component
		members    map[cfg.Node]bool
	}

	// WTO is the ordered list of outermost components of a function body.
	WTO struct {
		components []Component
	}
)

func (v Vertex) nodes(add func(cfg.Node)) {
	add(v.Node)
}

func (v Vertex) String() string {
	return nodeLabel(v.Node)
}

// Head returns the node driving iteration of the cycle.
func (c *Cycle) Head() cfg.Node {
	return c.head
}

// Components returns the ordered sub-components of the cycle, excluding the
// head.
func (c *Cycle) Components() []Component {
	return c.components
}

// Contains checks membership of a node in the cycle, its head and nested
// cycles included.
func (c *Cycle) Contains(n cfg.Node) bool {
	return c.members[n]
}

func (c *Cycle) nodes(add func(cfg.Node)) {
	add(c.head)
	for _, comp := range c.components {
		comp.nodes(add)
	}
}

func (c *Cycle) String() string {
	strs := make([]string, 0, len(c.components)+1)
	strs = append(strs, nodeLabel(c.head))
	for _, comp := range c.components {
		strs = append(strs, comp.String())
	}
	return "(" + strings.Join(strs, " ") + ")"
}

// Components returns the ordered outermost components.
func (w WTO) Components() []Component {
	return w.components
}

func (w WTO) String() string {
	strs := make([]string, 0, len(w.components))
	for _, comp := range w.components {
		strs = append(strs, comp.String())
	}
	return strings.Join(strs, " ")
}

// ForEachNode visits every node of the ordering, outer components first.
func (w WTO) ForEachNode(do func(cfg.Node)) {
	for _, comp := range w.components {
		comp.nodes(do)
	}
}

func nodeLabel(n cfg.Node) string {
	switch {
	case n.IsEntry():
		return "entry"
	case n.IsExit():
		return "exit"
	default:
		return strconv.Itoa(n.BlockNode().Index())
	}
}

// wtoBuilder carries the state of Bourdoncle's algorithm: depth-first
// numbers and the stack of nodes on the current search path.
type wtoBuilder struct {
	dfn   map[cfg.Node]int
	stack []cfg.Node
	num   int
}

const unnumbered, numberedInf = 0, math.MaxInt

// Build computes the weak topological ordering of the nodes of the body
// reachable from its entry node. The ordering is deterministic, as it only
// depends on the successor order of the body.
func Build(body *cfg.Body) WTO {
	b := &wtoBuilder{dfn: make(map[cfg.Node]int)}
	var partition []Component
	b.visit(body.Entry(), &partition)
	return WTO{partition}
}

func (b *wtoBuilder) push(n cfg.Node) {
	b.stack = append(b.stack, n)
}

func (b *wtoBuilder) pop() cfg.Node {
	n := b.stack[len(b.stack)-1]
	b.stack = b.stack[:len(b.stack)-1]
	return n
}

func (b *wtoBuilder) visit(v cfg.Node, partition *[]Component) int {
	b.push(v)
	b.num++
	b.dfn[v] = b.num
	head, loop := b.dfn[v], false

	for _, w := range v.Successors() {
		var min int
		if b.dfn[w] == unnumbered {
			min = b.visit(w, partition)
		} else {
			min = b.dfn[w]
		}
		if min <= head {
			head = min
			loop = true
		}
	}

	if head == b.dfn[v] {
		b.dfn[v] = numberedInf
		element := b.pop()
		if loop {
			// Unwind the strongly connected region off the stack and
			// renumber it through a nested traversal.
			for element != v {
				b.dfn[element] = unnumbered
				element = b.pop()
			}
			*partition = append([]Component{b.component(v)}, *partition...)
		} else {
			*partition = append([]Component{Vertex{v}}, *partition...)
		}
	}

	return head
}

func (b *wtoBuilder) component(v cfg.Node) *Cycle {
	var inner []Component
	for _, w := range v.Successors() {
		if b.dfn[w] == unnumbered {
			b.visit(w, &inner)
		}
	}

	c := &Cycle{head: v, components: inner, members: make(map[cfg.Node]bool)}
	c.nodes(func(n cfg.Node) {
		c.members[n] = true
	})
	return c
}
