package cfg

import (
	"fmt"
	"strings"

	"github.com/cs-au-dk/gaia/utils"
	"github.com/cs-au-dk/gaia/utils/dot"

	"golang.org/x/tools/go/ssa"
)

var opts = utils.Opts()

// label renders a CF-node for visualization. Block nodes list their
// instructions line by line.
func label(n Node) string {
	bn, ok := n.(*BlockNode)
	if !ok {
		return n.String()
	}
	lines := []string{fmt.Sprintf("Block %d %s", bn.Index(), bn.block.Comment)}
	for _, insn := range bn.Instructions() {
		switch v := insn.(type) {
		case ssa.Value:
			lines = append(lines, fmt.Sprintf("%s = %s", v.Name(), v))
		default:
			lines = append(lines, insn.String())
		}
	}
	return strings.Join(lines, "\\l") + "\\l"
}

// DotGraph constructs a Dot graph of the function body.
func (b *Body) DotGraph() *dot.DotGraph {
	return b.DotGraphAnnotated(nil)
}

// DotGraphAnnotated constructs a Dot graph of the function body in
// which every node additionally carries the annotation rendered for it.
func (b *Body) DotGraphAnnotated(annotate func(Node) string) *dot.DotGraph {
	funId := utils.SSAFunString(b.fn)
	cluster := dot.NewDotCluster(funId)
	cluster.Attrs["label"] = funId
	cluster.Attrs["bgcolor"] = "#e6ffff"

	G := &dot.DotGraph{
		Title: funId,
		Options: map[string]string{
			"minlen":  fmt.Sprint(opts.Minlen()),
			"nodesep": fmt.Sprint(opts.Nodesep()),
			"rankdir": "TB",
		},
		Clusters: []*dot.DotCluster{cluster},
	}

	nodeToDotNode := make(map[Node]*dot.DotNode)
	for _, n := range b.nodes {
		lbl := label(n)
		if annotate != nil {
			if note := annotate(n); note != "" {
				lbl += "\\n" + note
			}
		}
		dnode := &dot.DotNode{
			ID: fmt.Sprintf("%s-%p", funId, n),
			Attrs: dot.DotAttrs{
				"label": lbl,
			},
		}
		if n.IsEntry() || n.IsExit() {
			dnode.Attrs["fillcolor"] = "#a0ecfa"
		} else {
			dnode.Attrs["shape"] = "box"
		}
		cluster.Nodes = append(cluster.Nodes, dnode)
		nodeToDotNode[n] = dnode
	}

	for _, n := range b.nodes {
		for _, next := range n.Successors() {
			G.Edges = append(G.Edges, &dot.DotEdge{
				From: nodeToDotNode[n],
				To:   nodeToDotNode[next],
			})
		}
	}

	return G
}

// Visualize opens the function body CFG in xdot.
func (b *Body) Visualize() {
	b.DotGraph().ShowDot()
}
