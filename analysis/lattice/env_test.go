package lattice

import (
	"go/token"
	"go/types"
	"testing"

	"golang.org/x/tools/go/ssa"
)

// testReg is a stand-in SSA register for environment tests.
type testReg struct {
	name string
}

func (r *testReg) Name() string   { return r.name }
func (r *testReg) String() string { return r.name }

func (*testReg) Type() types.Type              { return types.Typ[types.Int] }
func (*testReg) Parent() *ssa.Function         { return nil }
func (*testReg) Referrers() *[]ssa.Instruction { return nil }
func (*testReg) Pos() token.Pos                { return token.NoPos }

func TestEnvBind(t *testing.T) {
	lat := Create().Lattice().Env()
	itv := Create().Element().IntervalFinite

	x := &testReg{"x"}
	y := &testReg{"y"}

	env := Create().Element().Env()
	if !env.IsTop() {
		t.Errorf("fresh environment %s is not ⊤", env)
	}

	env = env.Bind(x, itv(0, 10))
	if got := env.Get(x); !got.Eq(itv(0, 10)) {
		t.Errorf("x ↦ %s, expected %s", got, itv(0, 10))
	}
	if got := env.Get(y); !got.IsTop() {
		t.Errorf("unbound y ↦ %s, expected ⊤", got)
	}

	// Binding ⊤ discharges the register.
	env2 := env.Bind(x, Create().Lattice().Interval().Top().Interval())
	if env2.Size() != 0 {
		t.Errorf("environment %s still constrains %d registers", env2, env2.Size())
	}

	// Binding ⊥ makes the environment unreachable.
	env3 := env.Bind(y, Create().Lattice().Interval().Bot().Interval())
	if !env3.IsBot() {
		t.Errorf("environment %s is not unreachable", env3)
	}
	if got := env3.Get(x); !got.IsBot() {
		t.Errorf("x in unreachable environment ↦ %s, expected ⊥", got)
	}

	if !lat.Bot().Env().Bind(x, itv(1, 2)).IsBot() {
		t.Errorf("binding into the unreachable environment took effect")
	}
}

func TestEnvLatticeOps(t *testing.T) {
	lat := Create().Lattice().Env()
	itv := Create().Element().IntervalFinite

	x := &testReg{"x"}
	y := &testReg{"y"}

	mk := func(bindings map[ssa.Value]Interval) Env {
		env := Create().Element().Env()
		for k, v := range bindings {
			env = env.Bind(k, v)
		}
		return env
	}

	e1 := mk(map[ssa.Value]Interval{x: itv(0, 10), y: itv(5, 5)})
	e2 := mk(map[ssa.Value]Interval{x: itv(2, 20)})

	// Bottom is below everything, and everything is below top.
	for _, e := range []Env{e1, e2} {
		if !lat.Bot().Leq(e) || !e.Leq(lat.Top()) {
			t.Errorf("⊥ ⊑ %s ⊑ ⊤ violated", e)
		}
	}

	if e1.Leq(e2) {
		t.Errorf("%s ⊑ %s, but x bindings are incomparable", e1, e2)
	}

	join := e1.Join(e2).Env()
	if got := join.Get(x); !got.Eq(itv(0, 20)) {
		t.Errorf("(e1 ⊔ e2)(x) = %s, expected %s", got, itv(0, 20))
	}
	// y is unconstrained on one side, so it joins away.
	if got := join.Get(y); !got.IsTop() {
		t.Errorf("(e1 ⊔ e2)(y) = %s, expected ⊤", got)
	}

	meet := e1.Meet(e2).Env()
	if got := meet.Get(x); !got.Eq(itv(2, 10)) {
		t.Errorf("(e1 ⊓ e2)(x) = %s, expected %s", got, itv(2, 10))
	}
	if got := meet.Get(y); !got.Eq(itv(5, 5)) {
		t.Errorf("(e1 ⊓ e2)(y) = %s, expected %s", got, itv(5, 5))
	}

	// Disjoint bindings on a shared register empty the whole environment.
	e3 := mk(map[ssa.Value]Interval{x: itv(100, 200)})
	if !e1.Meet(e3).Env().IsBot() {
		t.Errorf("%s ⊓ %s is not unreachable", e1, e3)
	}

	if !e1.Join(lat.Bot()).Eq(e1) || !lat.Bot().Env().Join(e1).Eq(e1) {
		t.Errorf("⊥ is not neutral for ⊔")
	}
}

func TestEnvWidenNarrow(t *testing.T) {
	itv := Create().Element().IntervalFinite
	top := Create().Lattice().Interval().Top().Interval()

	x := &testReg{"x"}
	y := &testReg{"y"}

	e1 := Create().Element().Env().Bind(x, itv(0, 0)).Bind(y, itv(1, 2))
	e2 := Create().Element().Env().Bind(x, itv(0, 1)).Bind(y, itv(1, 2))

	w := e1.Widen(e2).Env()
	if got := w.Get(x); !got.Eq(Create().Element().Interval(FiniteBound(0), PlusInfinity{})) {
		t.Errorf("(e1 ∇ e2)(x) = %s, expected [0, ∞]", got)
	}
	if got := w.Get(y); !got.Eq(itv(1, 2)) {
		t.Errorf("(e1 ∇ e2)(y) = %s, expected %s", got, itv(1, 2))
	}

	wt := e1.WidenThreshold(e2, FiniteBound(10)).Env()
	if got := wt.Get(x); !got.Eq(itv(0, 10)) {
		t.Errorf("(e1 ∇τ e2)(x) = %s, expected %s", got, itv(0, 10))
	}

	// Narrowing refines widened registers and recovers discharged ones.
	n := w.Bind(y, top).Narrow(e2).Env()
	if got := n.Get(x); !got.Eq(itv(0, 1)) {
		t.Errorf("narrowed x = %s, expected %s", got, itv(0, 1))
	}
	if got := n.Get(y); !got.Eq(itv(1, 2)) {
		t.Errorf("narrowed y = %s, expected %s", got, itv(1, 2))
	}

	nt := wt.NarrowThreshold(e2, FiniteBound(10)).Env()
	if got := nt.Get(x); !got.Eq(itv(0, 1)) {
		t.Errorf("threshold narrowed x = %s, expected %s", got, itv(0, 1))
	}
}
