package absint

import (
	"go/constant"
	"go/token"
	"testing"

	L "github.com/cs-au-dk/gaia/analysis/lattice"
	tu "github.com/cs-au-dk/gaia/testutil"
	u "github.com/cs-au-dk/gaia/utils"

	"golang.org/x/tools/go/ssa"
)

func prepareFunction(t *testing.T, config u.Config, src, name string) (*AnalysisCtxt, *FunctionFixpoint) {
	t.Helper()

	res := tu.LoadPackageFromSource(t, "testpackage", src)
	fun, found := u.FindSSAFunction(res.Prog, res.Mains, name)
	if !found {
		t.Fatalf("function %q not found", name)
	}

	C := NewCtxt(res, config)
	return C, newEntryFixpoint(C, fun)
}

func runFunction(t *testing.T, config u.Config, src, name string) *FunctionFixpoint {
	t.Helper()

	_, fp := prepareFunction(t, config, src, name)
	fp.Run(Elements().Env())
	return fp
}

func expectInterval(t *testing.T, got L.Interval, low, high int) {
	t.Helper()

	want := Elements().IntervalFinite(low, high)
	if !got.Eq(want) {
		t.Errorf("expected %s, got %s", want, got)
	}
}

func TestLoopCount(t *testing.T) {
	const src = `package main

func count() int {
	i := 0
	for i < 10 {
		i++
	}
	return i
}

func main() { println(count()) }`

	fp := runFunction(t, u.DefaultConfig(), src, "count")
	fun := fp.Fun()

	retInsn, foundRet := u.FindSSAInstruction(fun, func(i ssa.Instruction) bool {
		_, ok := i.(*ssa.Return)
		return ok
	})
	addInsn, foundAdd := u.FindSSAInstruction(fun, func(i ssa.Instruction) bool {
		binop, ok := i.(*ssa.BinOp)
		return ok && binop.Op == token.ADD
	})
	if !foundRet || !foundAdd {
		t.Fatal("loop shape not recognized")
	}

	ret := retInsn.(*ssa.Return)
	retBlock, counter := ret.Block(), ret.Results[0]
	bodyBlock := addInsn.Block()

	// The comparison constant caps extrapolation, so the counter stays
	// below the bound inside the loop and rests exactly at it after.
	expectInterval(t, fp.Pre(fp.body.NodeFor(bodyBlock)).Get(counter), 0, 9)
	expectInterval(t, fp.Pre(fp.body.NodeFor(retBlock)).Get(counter), 10, 10)
	expectInterval(t, fp.Exit().Get(fun), 10, 10)
}

func TestBranchClamp(t *testing.T) {
	const src = `package main

func clamp(x int) int {
	if x < 0 {
		x = 0
	}
	if x > 100 {
		x = 100
	}
	return x
}

func main() { println(clamp(50)) }`

	fp := runFunction(t, u.DefaultConfig(), src, "clamp")
	expectInterval(t, fp.Exit().Get(fp.Fun()), 0, 100)
}

func TestConversionCarriesBounds(t *testing.T) {
	const src = `package main

func narrow(x int) int32 {
	if x < 0 {
		x = 0
	}
	if x > 7 {
		x = 7
	}
	return int32(x)
}

func main() { println(narrow(3)) }`

	fp := runFunction(t, u.DefaultConfig(), src, "narrow")
	expectInterval(t, fp.Exit().Get(fp.Fun()), 0, 7)
}

func TestNegation(t *testing.T) {
	const src = `package main

func flip(x int) int {
	if x < 2 {
		x = 2
	}
	if x > 5 {
		x = 5
	}
	return -x
}

func main() { println(flip(4)) }`

	fp := runFunction(t, u.DefaultConfig(), src, "flip")
	expectInterval(t, fp.Exit().Get(fp.Fun()), -5, -2)
}

func TestInfeasibleBranch(t *testing.T) {
	const src = `package main

func dead(x int) int {
	if x < 3 {
		if x > 5 {
			return -1
		}
		return 1
	}
	return 0
}

func main() { println(dead(7)) }`

	fp := runFunction(t, u.DefaultConfig(), src, "dead")
	fun := fp.Fun()

	var deadBlock *ssa.BasicBlock
	for _, block := range fun.Blocks {
		ret, ok := block.Instrs[len(block.Instrs)-1].(*ssa.Return)
		if !ok || len(ret.Results) != 1 {
			continue
		}
		if c, ok := ret.Results[0].(*ssa.Const); ok {
			if v, exact := constant.Int64Val(c.Value); exact && v == -1 {
				deadBlock = block
			}
		}
	}
	if deadBlock == nil {
		t.Fatal("no block returning -1")
	}

	if !fp.Pre(fp.body.NodeFor(deadBlock)).IsBot() {
		t.Errorf("contradictory branch is reachable: %s", fp.Pre(fp.body.NodeFor(deadBlock)))
	}
	expectInterval(t, fp.Exit().Get(fun), 0, 1)
}

// The φ-assignments of a block must be simultaneous: a loop swapping two
// registers through each other keeps both within the original value set.
func TestLoopSwap(t *testing.T) {
	const src = `package main

func swap(n int) int {
	a, b := 0, 10
	for i := 0; i < n; i++ {
		a, b = b, a
	}
	return a + b
}

func main() { println(swap(3)) }`

	fp := runFunction(t, u.DefaultConfig(), src, "swap")
	expectInterval(t, fp.Exit().Get(fp.Fun()), 0, 20)
}

func TestBoxedCell(t *testing.T) {
	const src = `package main

func boxed(c bool) int {
	x := new(int)
	*x = 5
	if c {
		*x = 7
	}
	return *x
}

func main() { println(boxed(true)) }`

	config := u.DefaultConfig()
	config.Precision = "memory"
	fp := runFunction(t, config, src, "boxed")
	expectInterval(t, fp.Exit().Get(fp.Fun()), 5, 7)

	// Below memory precision the cell contents are not tracked.
	fp = runFunction(t, u.DefaultConfig(), src, "boxed")
	if res := fp.Exit().Get(fp.Fun()); !res.IsTop() {
		t.Errorf("expected an untracked cell to read back as ⊤, got %s", res)
	}
}

func TestDeferredCallsUntracked(t *testing.T) {
	const src = `package main

func cleanup() {}

func deferred() int {
	defer cleanup()
	x := 3
	return x
}

func main() { println(deferred()) }`

	fp := runFunction(t, u.DefaultConfig(), src, "deferred")
	expectInterval(t, fp.Exit().Get(fp.Fun()), 3, 3)
}
