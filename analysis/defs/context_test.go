package defs

import (
	"testing"

	"github.com/cs-au-dk/gaia/testutil"
	"github.com/cs-au-dk/gaia/utils"

	"golang.org/x/tools/go/ssa"
)

const testProg = `package main

func leaf(x int) int {
	return x + 1
}

func wrap(x int) int {
	return leaf(leaf(x))
}

func main() {
	wrap(0)
	leaf(1)
}`

// callSites returns the call instructions of the named function, in block
// order.
func callSites(t *testing.T, res testutil.LoadResult, name string) (sites []ssa.CallInstruction) {
	fun, found := utils.FindSSAFunction(res.Prog, res.Mains, name)
	if !found {
		t.Fatalf("function %q not found", name)
	}
	for _, block := range fun.Blocks {
		for _, insn := range block.Instrs {
			if call, ok := insn.(ssa.CallInstruction); ok {
				sites = append(sites, call)
			}
		}
	}
	return
}

func TestContextInterning(t *testing.T) {
	res := testutil.LoadPackageFromSource(t, "testpackage", testProg)
	mainSites := callSites(t, res, "main")
	wrapSites := callSites(t, res, "wrap")
	if len(mainSites) != 2 || len(wrapSites) != 2 {
		t.Fatalf("unexpected call site counts: %d in main, %d in wrap",
			len(mainSites), len(wrapSites))
	}

	cs := Create().Contexts()
	root := cs.Root()
	if !root.IsRoot() || root.Length() != 0 {
		t.Errorf("root context %s is not empty", root)
	}

	ctx1 := cs.Extend(root, mainSites[0])
	ctx2 := cs.Extend(root, mainSites[0])
	if ctx1 != ctx2 {
		t.Errorf("interning failed: %s and %s are distinct pointers", ctx1, ctx2)
	}

	other := cs.Extend(root, mainSites[1])
	if other == ctx1 {
		t.Errorf("contexts for distinct sites were conflated: %s", other)
	}

	inner := cs.Extend(ctx1, wrapSites[0])
	if inner.Parent() != ctx1 {
		t.Errorf("extension of %s did not produce a child context", ctx1)
	}
	if inner.Length() != 2 {
		t.Errorf("%s has length %d, expected 2", inner, inner.Length())
	}
	if inner.Root() != root {
		t.Errorf("%s is not rooted in %s", inner, root)
	}
	if cs.Extend(ctx1, wrapSites[0]) != inner {
		t.Errorf("re-extension of %s was not interned", ctx1)
	}

	// The same site under different parents denotes different contexts.
	if cs.Extend(ctx1, wrapSites[1]) == cs.Extend(other, wrapSites[1]) {
		t.Errorf("contexts with distinct parents were conflated")
	}

	if cs.Size() != 5 {
		t.Errorf("context store holds %d contexts, expected 5", cs.Size())
	}
}

func TestContextCaller(t *testing.T) {
	res := testutil.LoadPackageFromSource(t, "testpackage", testProg)
	mainSites := callSites(t, res, "main")

	cs := Create().Contexts()
	if cs.Root().Caller() != nil || cs.Root().Site() != nil {
		t.Errorf("root context has a call site")
	}

	ctx := cs.Extend(cs.Root(), mainSites[0])
	if ctx.Caller() == nil || ctx.Caller().Name() != "main" {
		t.Errorf("%s has caller %v, expected main", ctx, ctx.Caller())
	}
	if ctx.Site() != mainSites[0] {
		t.Errorf("%s does not record its call site", ctx)
	}
}

func TestFunCtx(t *testing.T) {
	res := testutil.LoadPackageFromSource(t, "testpackage", testProg)
	mainSites := callSites(t, res, "main")
	wrap, _ := utils.FindSSAFunction(res.Prog, res.Mains, "wrap")
	leaf, _ := utils.FindSSAFunction(res.Prog, res.Mains, "leaf")

	cs := Create().Contexts()
	ctx := cs.Extend(cs.Root(), mainSites[0])

	fc1 := Create().FunCtx(wrap, ctx)
	fc2 := Create().FunCtx(wrap, cs.Extend(cs.Root(), mainSites[0]))
	if !fc1.Equal(fc2) || fc1.Hash() != fc2.Hash() {
		t.Errorf("%s and %s should coincide", fc1, fc2)
	}

	fc3 := Create().FunCtx(leaf, ctx)
	if fc1.Equal(fc3) {
		t.Errorf("%s and %s should differ", fc1, fc3)
	}

	if fc1.Fun() != wrap || fc1.Ctx() != ctx {
		t.Errorf("%s does not preserve its components", fc1)
	}
}
