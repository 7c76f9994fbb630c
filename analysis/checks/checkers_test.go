package checks

import (
	"go/token"
	"strings"
	"testing"

	"github.com/cs-au-dk/gaia/analysis/defs"
	L "github.com/cs-au-dk/gaia/analysis/lattice"
	"github.com/cs-au-dk/gaia/testutil"
	"github.com/cs-au-dk/gaia/utils"

	"golang.org/x/exp/slices"
	"golang.org/x/tools/go/ssa"
)

const testProg = `package main

func quot(a int, b int) int {
	return a / b
}

func mod(a int, b int) int {
	return a % b
}

func half(a int) int {
	return a / 2
}

func fdiv(a float64, b float64) float64 {
	return a / b
}

func shl(a int, s int) int {
	return a << s
}

func shl8(a int8, s int) int8 {
	return a << s
}

func access(i int) int {
	var arr [5]int
	return arr[i]
}

func mk() [4]int {
	return [4]int{}
}

func viaValue(i int) int {
	return mk()[i]
}

func pick(xs []int, i int) int {
	return xs[i]
}

func main() {
	quot(10, 2)
	mod(10, 3)
	half(8)
	fdiv(1.0, 2.0)
	shl(1, 2)
	shl8(1, 2)
	access(0)
	viaValue(0)
	pick(nil, 0)
}`

func loadFunction(t *testing.T, name string) *ssa.Function {
	res := testutil.LoadPackageFromSource(t, "testpackage", testProg)
	fun, found := utils.FindSSAFunction(res.Prog, res.Mains, name)
	if !found {
		t.Fatalf("function %q not found", name)
	}
	return fun
}

func findBinOp(t *testing.T, fun *ssa.Function, op token.Token) *ssa.BinOp {
	for _, block := range fun.Blocks {
		for _, insn := range block.Instrs {
			if binop, ok := insn.(*ssa.BinOp); ok && binop.Op == op {
				return binop
			}
		}
	}
	t.Fatalf("no %v instruction in %s", op, fun.Name())
	return nil
}

func findIndexing(t *testing.T, fun *ssa.Function) ssa.Instruction {
	for _, block := range fun.Blocks {
		for _, insn := range block.Instrs {
			switch insn.(type) {
			case *ssa.IndexAddr, *ssa.Index:
				return insn
			}
		}
	}
	t.Fatalf("no indexing instruction in %s", fun.Name())
	return nil
}

// rootCtx is the call context handed to checkers throughout. The
// built-in checkers never look at it.
var rootCtx = defs.Create().Contexts().Root()

func botEnv() L.Env {
	return L.Create().Lattice().Env().Bot().Env()
}

func bind(v ssa.Value, low int, high int) L.Env {
	return L.Elements().Env().Bind(v, L.Elements().IntervalFinite(low, high))
}

func expectFinding(t *testing.T, f *Finding, verdict Verdict, message string) {
	t.Helper()
	if f == nil {
		t.Fatalf("expected a %s finding, got none", verdict)
	}
	if f.Verdict != verdict {
		t.Errorf("expected verdict %s, got %s", verdict, f.Verdict)
	}
	if !strings.Contains(f.Message, message) {
		t.Errorf("message %q does not mention %q", f.Message, message)
	}
	if !f.Pos.IsValid() {
		t.Errorf("finding carries no source position")
	}
}

func TestDivisionByZero(t *testing.T) {
	fun := loadFunction(t, "quot")
	div := findBinOp(t, fun, token.QUO)
	divisor := fun.Params[1]

	tests := []struct {
		name    string
		env     L.Env
		verdict Verdict
		message string
	}{
		{"zero", bind(divisor, 0, 0), Error, "divisor b is always zero"},
		{"straddling", bind(divisor, -1, 1), Warning, "divisor b may be zero"},
		{"positive", bind(divisor, 1, 10), Ok, "divisor b is nonzero"},
		{"unknown", L.Elements().Env(), Warning, "divisor b may be zero"},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			expectFinding(t, DivisionByZero{}.Check(div, test.env, rootCtx), test.verdict, test.message)
		})
	}

	if f := (DivisionByZero{}).Check(div, botEnv(), rootCtx); f != nil {
		t.Errorf("unreachable division produced a %s finding", f.Verdict)
	}
}

func TestRemainderByZero(t *testing.T) {
	fun := loadFunction(t, "mod")
	rem := findBinOp(t, fun, token.REM)
	expectFinding(t, DivisionByZero{}.Check(rem, bind(fun.Params[1], 0, 0), rootCtx),
		Error, "divisor b is always zero")
}

func TestConstantDivisor(t *testing.T) {
	fun := loadFunction(t, "half")
	div := findBinOp(t, fun, token.QUO)
	expectFinding(t, DivisionByZero{}.Check(div, L.Elements().Env(), rootCtx), Ok, "is nonzero")
}

func TestFloatDivisionIgnored(t *testing.T) {
	fun := loadFunction(t, "fdiv")
	div := findBinOp(t, fun, token.QUO)
	if f := (DivisionByZero{}).Check(div, L.Elements().Env(), rootCtx); f != nil {
		t.Errorf("float division produced a %s finding", f.Verdict)
	}
}

func TestShiftAmount(t *testing.T) {
	fun := loadFunction(t, "shl")
	shift := findBinOp(t, fun, token.SHL)
	amount := fun.Params[1]

	tests := []struct {
		name    string
		env     L.Env
		verdict Verdict
		message string
	}{
		{"negative", bind(amount, -5, -1), Error, "shift amount s is always negative"},
		{"maybe-negative", bind(amount, -2, 5), Warning, "shift amount s may be negative"},
		{"wide", bind(amount, 64, 70), Warning, "exceeds the 64 bit operand width"},
		{"valid", bind(amount, 0, 63), Ok, "shift amount s is valid"},
		{"unknown", L.Elements().Env(), Warning, "shift amount s may be negative"},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			expectFinding(t, ShiftAmount{}.Check(shift, test.env, rootCtx), test.verdict, test.message)
		})
	}
}

func TestShiftWidth8(t *testing.T) {
	fun := loadFunction(t, "shl8")
	shift := findBinOp(t, fun, token.SHL)
	expectFinding(t, ShiftAmount{}.Check(shift, bind(fun.Params[1], 8, 12), rootCtx),
		Warning, "exceeds the 8 bit operand width")
}

func TestIndexBoundsArray(t *testing.T) {
	fun := loadFunction(t, "access")
	access := findIndexing(t, fun)
	idx := fun.Params[0]

	tests := []struct {
		name    string
		env     L.Env
		verdict Verdict
		message string
	}{
		{"within", bind(idx, 0, 4), Ok, "within the array length 5"},
		{"may-exceed", bind(idx, 3, 10), Warning, "may exceed the array length 5"},
		{"exceeds", bind(idx, 5, 9), Error, "always exceeds the array length 5"},
		{"negative", bind(idx, -3, -1), Error, "index i is always negative"},
		{"maybe-negative", bind(idx, -1, 3), Warning, "index i may be negative"},
		{"unknown", L.Elements().Env(), Warning, "index i may be negative"},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			expectFinding(t, IndexBounds{}.Check(access, test.env, rootCtx), test.verdict, test.message)
		})
	}

	if f := (IndexBounds{}).Check(access, botEnv(), rootCtx); f != nil {
		t.Errorf("unreachable access produced a %s finding", f.Verdict)
	}
}

func TestIndexBoundsArrayValue(t *testing.T) {
	fun := loadFunction(t, "viaValue")
	access := findIndexing(t, fun)
	expectFinding(t, IndexBounds{}.Check(access, bind(fun.Params[0], 4, 9), rootCtx),
		Error, "always exceeds the array length 4")
}

func TestIndexBoundsSlice(t *testing.T) {
	fun := loadFunction(t, "pick")
	access := findIndexing(t, fun)
	idx := fun.Params[1]

	// Slice lengths are unknown to the analysis, so nonnegative
	// accesses draw no conclusion at all.
	if f := (IndexBounds{}).Check(access, bind(idx, 0, 5), rootCtx); f != nil {
		t.Errorf("nonnegative slice access produced a %s finding", f.Verdict)
	}
	expectFinding(t, IndexBounds{}.Check(access, bind(idx, -2, -1), rootCtx),
		Error, "index i is always negative")
}

func TestUnreachableCode(t *testing.T) {
	fun := loadFunction(t, "quot")
	div := findBinOp(t, fun, token.QUO)

	expectFinding(t, UnreachableCode{}.Check(div, botEnv(), rootCtx), Unreachable, "never reached")

	if f := (UnreachableCode{}).Check(div, L.Elements().Env(), rootCtx); f != nil {
		t.Errorf("reachable statement produced a %s finding", f.Verdict)
	}
}

func checkerNames(cs []Checker) []string {
	names := make([]string, 0, len(cs))
	for _, c := range cs {
		names = append(names, c.Name())
	}
	return names
}

func TestFromConfig(t *testing.T) {
	all := []string{"dbz", "shift", "bounds", "unreachable"}
	if names := checkerNames(FromConfig(utils.DefaultConfig())); !slices.Equal(names, all) {
		t.Errorf("default configuration selected %v instead of %v", names, all)
	}

	cfg := utils.DefaultConfig()
	cfg.Checkers = []string{"unreachable", "dbz"}
	if names := checkerNames(FromConfig(cfg)); !slices.Equal(names, cfg.Checkers) {
		t.Errorf("configuration selected %v instead of %v", names, cfg.Checkers)
	}
}
