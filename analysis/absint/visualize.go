package absint

import (
	"strings"

	"github.com/cs-au-dk/gaia/analysis/cfg"
)

// Visualize opens the body of the activation in xdot, with every node
// annotated by the invariant holding on entry to it.
func (fp *FunctionFixpoint) Visualize() {
	fp.body.DotGraphAnnotated(func(n cfg.Node) string {
		return strings.ReplaceAll(fp.Pre(n).String(), "\n", "\\l")
	}).ShowDot()
}
