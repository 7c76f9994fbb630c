package fixpoint

import (
	"testing"

	"github.com/cs-au-dk/gaia/analysis/cfg"
	"github.com/cs-au-dk/gaia/testutil"
	"github.com/cs-au-dk/gaia/utils"
	"github.com/cs-au-dk/gaia/utils/graph"
)

const testProg = `package main

func straight(x int) int {
	return x + 1
}

func loop(n int) int {
	i := 0
	for i < n {
		i++
	}
	return i
}

func nested(n int) int {
	s := 0
	for i := 0; i < n; i++ {
		j := 0
		for j < i {
			j++
			s++
		}
	}
	return s
}

func frob(i int, j int) int {
	for i < j {
		i++
		j = i
	}
	return j
}

func main() {
	straight(1)
	loop(10)
	nested(10)
	frob(0, 10)
}`

func loadBody(t *testing.T, name string) *cfg.Body {
	res := testutil.LoadPackageFromSource(t, "testpackage", testProg)
	fun, found := utils.FindSSAFunction(res.Prog, res.Mains, name)
	if !found {
		t.Fatalf("function %q not found", name)
	}
	return cfg.New(fun)
}

// collectCycles gathers the cycle components of the ordering, outermost
// first.
func collectCycles(comps []Component) []*Cycle {
	cycles := []*Cycle{}
	for _, comp := range comps {
		if c, ok := comp.(*Cycle); ok {
			cycles = append(cycles, c)
			cycles = append(cycles, collectCycles(c.Components())...)
		}
	}
	return cycles
}

func TestWTOStraight(t *testing.T) {
	body := loadBody(t, "straight")
	w := Build(body)

	if cycles := collectCycles(w.Components()); len(cycles) != 0 {
		t.Errorf("acyclic body produced %d cycle components", len(cycles))
	}
	// A single-block function orders as entry, block 0, exit.
	if got := w.String(); got != "entry 0 exit" {
		t.Errorf("unexpected ordering %q", got)
	}
}

func TestWTOLoop(t *testing.T) {
	body := loadBody(t, "loop")
	w := Build(body)

	cycles := collectCycles(w.Components())
	if len(cycles) != 1 {
		t.Fatalf("expected 1 cycle component, found %d in %s", len(cycles), w)
	}
	c := cycles[0]

	if c.Contains(body.Entry()) || c.Contains(body.Exit()) {
		t.Errorf("cycle %s contains the entry or exit node", c)
	}
	if !c.Contains(c.Head()) {
		t.Errorf("cycle %s does not contain its own head", c)
	}

	// The head is the single entry point of the cycle. It has a
	// predecessor outside the cycle and one inside, along the back edge.
	inner, outer := 0, 0
	for _, p := range c.Head().Predecessors() {
		if c.Contains(p) {
			inner++
		} else {
			outer++
		}
	}
	if inner == 0 || outer == 0 {
		t.Errorf("head of %s has %d inner and %d outer predecessors", c, inner, outer)
	}

	// Every node of the body occurs exactly once in the ordering.
	seen := map[cfg.Node]int{}
	order := []cfg.Node{}
	w.ForEachNode(func(n cfg.Node) {
		seen[n]++
		order = append(order, n)
	})
	if len(order) != body.Size() {
		t.Errorf("ordering visits %d nodes, body has %d", len(order), body.Size())
	}
	for n, count := range seen {
		if count != 1 {
			t.Errorf("node %s occurs %d times in the ordering", n, count)
		}
	}

	// The ordering starts at the entry, ends at the exit, and lists the
	// head of the cycle before the other cycle members.
	if order[0] != body.Entry() || order[len(order)-1] != body.Exit() {
		t.Errorf("ordering %s does not run from the entry to the exit", w)
	}
	pos := map[cfg.Node]int{}
	for idx, n := range order {
		pos[n] = idx
	}
	for n := range seen {
		if c.Contains(n) && pos[n] < pos[c.Head()] {
			t.Errorf("cycle member %s precedes the head %s", n, c.Head())
		}
	}
}

func TestWTONested(t *testing.T) {
	body := loadBody(t, "nested")
	w := Build(body)

	cycles := collectCycles(w.Components())
	if len(cycles) != 2 {
		t.Fatalf("expected 2 cycle components, found %d in %s", len(cycles), w)
	}
	outer, inner := cycles[0], cycles[1]

	if !outer.Contains(inner.Head()) {
		t.Fatalf("outer cycle %s does not contain the inner head %s", outer, inner.Head())
	}
	if inner.Contains(outer.Head()) {
		t.Errorf("inner cycle %s contains the outer head %s", inner, outer.Head())
	}

	// The inner cycle nests inside the outer one, both by membership and
	// as a listed sub-component.
	w.ForEachNode(func(n cfg.Node) {
		if inner.Contains(n) && !outer.Contains(n) {
			t.Errorf("inner node %s escapes the outer cycle", n)
		}
	})
	found := false
	for _, comp := range outer.Components() {
		if c, ok := comp.(*Cycle); ok && c == inner {
			found = true
		}
	}
	if !found {
		t.Errorf("inner cycle %s is not a component of the outer cycle", inner)
	}
}

func TestWTOCoversReachableBlocks(t *testing.T) {
	for _, name := range []string{"loop", "nested", "frob"} {
		body := loadBody(t, name)
		w := Build(body)

		reachable := map[int]bool{}
		graph.FromBasicBlocks(body.Function()).BFS(0, func(idx int) bool {
			reachable[idx] = true
			return false
		})

		ordered := map[int]bool{}
		w.ForEachNode(func(n cfg.Node) {
			if !n.IsEntry() && !n.IsExit() {
				ordered[n.BlockNode().Index()] = true
			}
		})

		for idx := range reachable {
			if !ordered[idx] {
				t.Errorf("%s: reachable block %d missing from the ordering", name, idx)
			}
		}
		for idx := range ordered {
			if !reachable[idx] {
				t.Errorf("%s: ordering contains unreachable block %d", name, idx)
			}
		}
	}
}

func TestWTODeterministic(t *testing.T) {
	for _, name := range []string{"straight", "loop", "nested"} {
		body := loadBody(t, name)
		if w1, w2 := Build(body), Build(body); w1.String() != w2.String() {
			t.Errorf("orderings of %s differ: %s vs %s", name, w1, w2)
		}
	}
}
