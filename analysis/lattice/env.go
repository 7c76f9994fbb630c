package lattice

import (
	"fmt"
	"go/constant"
	"sort"

	"github.com/cs-au-dk/gaia/utils"
	i "github.com/cs-au-dk/gaia/utils/indenter"

	"github.com/benbjohnson/immutable"
	"golang.org/x/tools/go/ssa"
)

// envHasher hashes environment keys by SSA register identity.
var envHasher = utils.PointerHasher[ssa.Value]{}

// Env is an abstract environment and a member of the environment
// lattice. It maps SSA registers to intervals. Registers without a
// binding are implicitly ⊤, so environments stay proportional to the
// number of constrained registers. The `bot` flag denotes the
// unreachable environment.
type Env struct {
	element
	bot bool
	mp  *immutable.Map[ssa.Value, Interval]
}

// Env creates an empty abstract environment, where every register
// is implicitly unconstrained.
func (elementFactory) Env() Env {
	return Env{mp: immutable.NewMap[ssa.Value, Interval](envHasher)}
}

// Lattice retrieves the environment lattice for any environment.
func (Env) Lattice() Lattice {
	return envLattice
}

// Env safely converts an environment.
func (e Env) Env() Env {
	return e
}

// IsBot checks whether the environment is the unreachable environment.
func (e Env) IsBot() bool {
	return e.bot
}

// IsTop checks whether the environment constrains no register.
func (e Env) IsTop() bool {
	return !e.bot && e.mp.Len() == 0
}

// Size returns the number of constrained registers.
func (e Env) Size() int {
	if e.bot {
		return 0
	}
	return e.mp.Len()
}

// Get returns the interval bound to the given register. Unbound
// registers yield ⊤, and any register of the unreachable
// environment yields ⊥.
func (e Env) Get(x ssa.Value) Interval {
	if e.bot {
		return intervalLattice.Bot().Interval()
	}
	if v, found := e.mp.Get(x); found {
		return v
	}
	return intervalLattice.Top().Interval()
}

// Eval returns the interval of an instruction operand. Integer
// constants evaluate to singletons, registers to their binding.
func (e Env) Eval(v ssa.Value) Interval {
	if c, ok := v.(*ssa.Const); ok {
		if c.Value != nil && c.Value.Kind() == constant.Int {
			if x, exact := constant.Int64Val(c.Value); exact {
				return elFact.Constant(int(x))
			}
		}
		return intervalLattice.Top().Interval()
	}
	return e.Get(v)
}

// Bind binds a register to an interval. Binding ⊥ makes the whole
// environment unreachable, and binding ⊤ discharges the register.
// Binding into the unreachable environment has no effect.
func (e Env) Bind(x ssa.Value, v Interval) Env {
	if e.bot {
		return e
	}
	if v.IsBot() {
		return envLattice.Bot().Env()
	}
	if v.IsTop() {
		return e.Forget(x)
	}
	return Env{mp: e.mp.Set(x, v)}
}

// Forget discharges any binding for the given register.
func (e Env) Forget(x ssa.Value) Env {
	if e.bot {
		return e
	}
	return Env{mp: e.mp.Delete(x)}
}

// ForEach calls the given procedure on every constrained register.
func (e Env) ForEach(do func(ssa.Value, Interval)) {
	if e.bot {
		return
	}
	for it := e.mp.Iterator(); !it.Done(); {
		k, v, _ := it.Next()
		do(k, v)
	}
}

// Eq computes m = o. Performs lattice dynamic type checking.
func (e1 Env) Eq(e2 Element) bool {
	checkLatticeMatch(e1.Lattice(), e2.Lattice(), "=")
	return e1.eq(e2)
}

// eq computes m = o.
func (e1 Env) eq(e2 Element) bool {
	return e1.leq(e2) && e1.geq(e2)
}

// Leq computes m ⊑ o. Performs lattice dynamic type checking.
func (e1 Env) Leq(e2 Element) bool {
	checkLatticeMatch(e1.Lattice(), e2.Lattice(), "⊑")
	return e1.leq(e2)
}

// leq computes m ⊑ o, pointwise over the constrained registers of o.
func (e1 Env) leq(e2 Element) bool {
	switch e2 := e2.(type) {
	case Env:
		if e1.bot {
			return true
		}
		if e2.bot {
			return false
		}
		for it := e2.mp.Iterator(); !it.Done(); {
			k, v2, _ := it.Next()
			v1, found := e1.mp.Get(k)
			if !found || !v1.leq(v2) {
				return false
			}
		}
		return true
	}
	panic(errPatternMatch(e2))
}

// Geq computes m ⊒ o. Performs lattice dynamic type checking.
func (e1 Env) Geq(e2 Element) bool {
	checkLatticeMatch(e1.Lattice(), e2.Lattice(), "⊒")
	return e1.geq(e2)
}

// geq computes m ⊒ o.
func (e1 Env) geq(e2 Element) bool {
	switch e2 := e2.(type) {
	case Env:
		return e2.leq(e1)
	}
	panic(errPatternMatch(e2))
}

// Join computes m ⊔ o. Performs lattice dynamic type checking.
func (e1 Env) Join(e2 Element) Element {
	checkLatticeMatch(e1.Lattice(), e2.Lattice(), "⊔")
	return e1.join(e2)
}

// join computes m ⊔ o pointwise. Registers constrained on only one
// side join with ⊤ and are discharged.
func (e1 Env) join(e2 Element) Element {
	switch e2 := e2.(type) {
	case Env:
		if e1.bot {
			return e2
		}
		if e2.bot {
			return e1
		}
		mp := immutable.NewMap[ssa.Value, Interval](envHasher)
		for it := e1.mp.Iterator(); !it.Done(); {
			k, v1, _ := it.Next()
			if v2, found := e2.mp.Get(k); found {
				if j := v1.join(v2).Interval(); !j.IsTop() {
					mp = mp.Set(k, j)
				}
			}
		}
		return Env{mp: mp}
	}
	panic(errPatternMatch(e2))
}

// JoinIter computes the iteration join, which for environments is
// the plain join. Performs lattice dynamic type checking.
func (e1 Env) JoinIter(e2 Element) Element {
	checkLatticeMatch(e1.Lattice(), e2.Lattice(), "⊔")
	return e1.joinIter(e2)
}

func (e1 Env) joinIter(e2 Element) Element {
	return e1.join(e2)
}

// Meet computes m ⊓ o. Performs lattice dynamic type checking.
func (e1 Env) Meet(e2 Element) Element {
	checkLatticeMatch(e1.Lattice(), e2.Lattice(), "⊓")
	return e1.meet(e2)
}

// meet computes m ⊓ o pointwise over the union of constrained
// registers. An empty meet on any register makes the whole
// environment unreachable.
func (e1 Env) meet(e2 Element) Element {
	switch e2 := e2.(type) {
	case Env:
		if e1.bot || e2.bot {
			return envLattice.Bot()
		}
		mp := e1.mp
		for it := e2.mp.Iterator(); !it.Done(); {
			k, v2, _ := it.Next()
			m := v2
			if v1, found := e1.mp.Get(k); found {
				m = v1.meet(v2).Interval()
			}
			if m.IsBot() {
				return envLattice.Bot()
			}
			mp = mp.Set(k, m)
		}
		return Env{mp: mp}
	}
	panic(errPatternMatch(e2))
}

// Widen computes m ∇ o. Performs lattice dynamic type checking.
func (e1 Env) Widen(e2 Element) Element {
	checkLatticeMatch(e1.Lattice(), e2.Lattice(), "∇")
	return e1.widen(e2)
}

// widen computes m ∇ o pointwise. Registers constrained on only one
// side widen to ⊤ and are discharged, so the constrained register
// set never grows along a widening sequence.
func (e1 Env) widen(e2 Element) Element {
	return e1.extrapolate(e2, func(v1, v2 Interval) Interval {
		return v1.widen(v2).Interval()
	})
}

// WidenThreshold computes m ∇τ o for threshold τ.
// Performs lattice dynamic type checking.
func (e1 Env) WidenThreshold(e2 Element, threshold FiniteBound) Element {
	checkLatticeMatch(e1.Lattice(), e2.Lattice(), "∇τ")
	return e1.widenThreshold(e2, threshold)
}

// widenThreshold computes m ∇τ o pointwise.
func (e1 Env) widenThreshold(e2 Element, threshold FiniteBound) Element {
	return e1.extrapolate(e2, func(v1, v2 Interval) Interval {
		return v1.widenThreshold(v2, threshold).Interval()
	})
}

// extrapolate drives pointwise widening with the given bound policy.
func (e1 Env) extrapolate(el Element, ext func(Interval, Interval) Interval) Element {
	switch e2 := el.(type) {
	case Env:
		if e1.bot {
			return e2
		}
		if e2.bot {
			return e1
		}
		mp := immutable.NewMap[ssa.Value, Interval](envHasher)
		for it := e1.mp.Iterator(); !it.Done(); {
			k, v1, _ := it.Next()
			if v2, found := e2.mp.Get(k); found {
				if w := ext(v1, v2); !w.IsTop() {
					mp = mp.Set(k, w)
				}
			}
		}
		return Env{mp: mp}
	}
	panic(errPatternMatch(el))
}

// Narrow computes m △ o. Performs lattice dynamic type checking.
func (e1 Env) Narrow(e2 Element) Element {
	checkLatticeMatch(e1.Lattice(), e2.Lattice(), "△")
	return e1.narrow(e2)
}

// narrow computes m △ o pointwise over the union of constrained
// registers. Registers discharged to ⊤ by widening are recovered
// from o.
func (e1 Env) narrow(e2 Element) Element {
	return e1.refine(e2, func(v1, v2 Interval) Interval {
		return v1.narrow(v2).Interval()
	})
}

// NarrowThreshold computes m △τ o for threshold τ.
// Performs lattice dynamic type checking.
func (e1 Env) NarrowThreshold(e2 Element, threshold FiniteBound) Element {
	checkLatticeMatch(e1.Lattice(), e2.Lattice(), "△τ")
	return e1.narrowThreshold(e2, threshold)
}

// narrowThreshold computes m △τ o pointwise.
func (e1 Env) narrowThreshold(e2 Element, threshold FiniteBound) Element {
	return e1.refine(e2, func(v1, v2 Interval) Interval {
		return v1.narrowThreshold(v2, threshold).Interval()
	})
}

// refine drives pointwise narrowing with the given bound policy.
func (e1 Env) refine(el Element, ref func(Interval, Interval) Interval) Element {
	switch e2 := el.(type) {
	case Env:
		if e1.bot || e2.bot {
			return envLattice.Bot()
		}
		top := intervalLattice.Top().Interval()
		mp := e1.mp
		for it := e2.mp.Iterator(); !it.Done(); {
			k, v2, _ := it.Next()
			v1 := top
			if v, found := e1.mp.Get(k); found {
				v1 = v
			}
			if n := ref(v1, v2); !n.IsTop() {
				mp = mp.Set(k, n)
			}
		}
		for it := e1.mp.Iterator(); !it.Done(); {
			k, v1, _ := it.Next()
			if _, found := e2.mp.Get(k); !found {
				if n := ref(v1, top); !n.IsTop() {
					mp = mp.Set(k, n)
				} else {
					mp = mp.Delete(k)
				}
			}
		}
		return Env{mp: mp}
	}
	panic(errPatternMatch(el))
}

func (e Env) String() string {
	if e.bot {
		return "⊥"
	}
	if e.mp.Len() == 0 {
		return "[]"
	}
	strs := []string{}
	e.ForEach(func(x ssa.Value, v Interval) {
		strs = append(strs, fmt.Sprintf("%s ↦  %s", colorize.Key(x.Name()), v))
	})
	sort.Slice(strs, func(i int, j int) bool {
		return strs[i] < strs[j]
	})
	return i.Indenter().Start("[").
		NestStringsSep(",", strs...).
		End("]")
}
