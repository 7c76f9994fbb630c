package lattice

import (
	"fmt"
	"math"
)

// Interval is an interval and a member of the interval lattice.
// Any interval consists of two interval bounds, `low` and `high`.
type Interval struct {
	element
	low  IntervalBound
	high IntervalBound
}

// Interval creates an interval with possibly infinite bounds.
func (elementFactory) Interval(low IntervalBound, high IntervalBound) Interval {
	return Interval{low: low, high: high}
}

// IntervalFinite creates an interval with finite bounds.
func (elementFactory) IntervalFinite(low int, high int) Interval {
	return Interval{
		low:  FiniteBound(low),
		high: FiniteBound(high),
	}
}

// Constant creates the singleton interval [c, c].
func (elementFactory) Constant(c int) Interval {
	return Interval{
		low:  FiniteBound(c),
		high: FiniteBound(c),
	}
}

// Lattice retrieves the interval lattice for any interval.
func (Interval) Lattice() Lattice {
	return intervalLattice
}

func (e Interval) String() string {
	_, low := e.low.(PlusInfinity)
	_, high := e.high.(MinusInfinity)
	if low && high {
		return "⊥"
	}
	return "[" + e.low.String() + ", " + e.high.String() + "]"
}

// Height returns the height of the interval in the interval lattice.
// The height is computed as the difference between the high and low bounds,
// if both are finite, or -1 otherwise:
//
//	[c1, c2] = c2 - c1, if c1, c2 ∈ ℤ
//	[c1, c2] = -1, if c1 = ±∞  v  c2 = ±∞
func (e Interval) Height() int {
	// Compromise: unknown intervals are represented as height -1
	l, lok := e.low.(FiniteBound)
	h, hok := e.high.(FiniteBound)
	if !(lok && hok) {
		return -1
	}
	return int(math.Max(0, float64(h-l)))
}

// Interval safely converts an interval.
func (e Interval) Interval() Interval {
	return e
}

// IsBot checks that the interval is equal to ⊥ = [∞, -∞].
func (e Interval) IsBot() bool {
	return e == intervalLattice.Bot().Interval()
}

// IsTop checks that the interval is equal to ⊤ = [-∞, ∞].
func (e Interval) IsTop() bool {
	return e == intervalLattice.Top().Interval()
}

// Eq computes m = o. Performs lattice dynamic type checking.
func (e1 Interval) Eq(e2 Element) bool {
	checkLatticeMatch(e1.Lattice(), e2.Lattice(), "=")
	return e1.eq(e2)
}

// eq computes m = o.
func (e1 Interval) eq(e2 Element) bool {
	return e1.leq(e2) && e1.geq(e2)
}

// Leq computes m ⊑ o. Performs lattice dynamic type checking.
func (e1 Interval) Leq(e2 Element) bool {
	checkLatticeMatch(e1.Lattice(), e2.Lattice(), "⊑")
	return e1.leq(e2)
}

// leq computes m ⊑ o.
func (e1 Interval) leq(e2 Element) bool {
	switch e2 := e2.(type) {
	case Interval:
		return e1.low.Geq(e2.low) && e1.high.Leq(e2.high)
	}
	panic(errPatternMatch(e2))
}

// Geq computes m ⊒ o. Performs lattice dynamic type checking.
func (e1 Interval) Geq(e2 Element) bool {
	checkLatticeMatch(e1.Lattice(), e2.Lattice(), "⊒")
	return e1.geq(e2)
}

// geq computes m ⊒ o.
func (e1 Interval) geq(e2 Element) bool {
	switch e2 := e2.(type) {
	case Interval:
		return e1.low.Leq(e2.low) && e1.high.Geq(e2.high)
	}
	panic(errPatternMatch(e2))
}

// Join computes m ⊔ o. Performs lattice dynamic type checking.
func (e1 Interval) Join(e2 Element) Element {
	checkLatticeMatch(e1.Lattice(), e2.Lattice(), "⊔")
	return e1.join(e2)
}

// join computes m ⊔ o.
// The resulting interval takes the lowest of the lower bounds,
// and the highest of the upper bounds.
func (e1 Interval) join(e2 Element) Element {
	switch e2 := e2.(type) {
	case Interval:
		var low, high IntervalBound
		if e1.low.Leq(e2.low) {
			low = e1.low
		} else {
			low = e2.low
		}
		if e1.high.Geq(e2.high) {
			high = e1.high
		} else {
			high = e2.high
		}
		return Interval{low: low, high: high}
	}
	panic(errPatternMatch(e2))
}

// JoinIter computes the iteration join, which for intervals is the
// plain join. Performs lattice dynamic type checking.
func (e1 Interval) JoinIter(e2 Element) Element {
	checkLatticeMatch(e1.Lattice(), e2.Lattice(), "⊔")
	return e1.joinIter(e2)
}

func (e1 Interval) joinIter(e2 Element) Element {
	return e1.join(e2)
}

// Meet computes m ⊓ o. Performs lattice dynamic type checking.
func (e1 Interval) Meet(e2 Element) Element {
	checkLatticeMatch(e1.Lattice(), e2.Lattice(), "⊓")
	return e1.meet(e2)
}

// meet computes m ⊓ o.
func (e1 Interval) meet(e2 Element) Element {
	switch e2 := e2.(type) {
	case Interval:
		// [l1, h1], [l2, h2]:
		switch {
		// h1 < l2 | h2 < l1 => [∞, -∞]
		case e1.high.Lt(e2.low) || e2.high.Lt(e1.low):
			return e1.Lattice().Bot()
		// l1 <= l2 <= h1 <= h2
		case e2.low.Geq(e1.low) && e2.high.Geq(e1.high):
			return Interval{low: e2.low, high: e1.high}
		// l1 <= l2 <= h2 <= h1
		case e2.low.Geq(e1.low) && e1.high.Geq(e2.high):
			return Interval{low: e2.low, high: e2.high}
		// l2 <= l1 <= h1 <= h2
		case e1.low.Geq(e2.low) && e2.high.Geq(e1.high):
			return Interval{low: e1.low, high: e1.high}
		// l2 <= l1 <= h2 <= h1
		case e1.low.Geq(e2.low) && e1.high.Geq(e2.high):
			return Interval{low: e1.low, high: e2.high}
		}
		panic(errInternal)
	}
	panic(errPatternMatch(e2))
}

// Widen computes m ∇ o. Performs lattice dynamic type checking.
func (e1 Interval) Widen(e2 Element) Element {
	checkLatticeMatch(e1.Lattice(), e2.Lattice(), "∇")
	return e1.widen(e2)
}

// widen computes m ∇ o.
// Any bound of o that escapes the corresponding bound of m
// is pushed all the way to (-)∞. Stable bounds are kept.
func (e1 Interval) widen(e2 Element) Element {
	switch e2 := e2.(type) {
	case Interval:
		if e1.IsBot() {
			return e2
		}
		if e2.IsBot() {
			return e1
		}
		low, high := e1.low, e1.high
		if e2.low.Lt(e1.low) {
			low = MinusInfinity{}
		}
		if e2.high.Gt(e1.high) {
			high = PlusInfinity{}
		}
		return Interval{low: low, high: high}
	}
	panic(errPatternMatch(e2))
}

// WidenThreshold computes m ∇τ o for threshold τ.
// Performs lattice dynamic type checking.
func (e1 Interval) WidenThreshold(e2 Element, threshold FiniteBound) Element {
	checkLatticeMatch(e1.Lattice(), e2.Lattice(), "∇τ")
	return e1.widenThreshold(e2, threshold)
}

// widenThreshold computes m ∇τ o.
// An unstable lower bound drops to τ if τ still lies below the
// new bound, and to -∞ otherwise. An unstable upper bound rises
// to τ if τ still lies above the new bound, and to ∞ otherwise.
func (e1 Interval) widenThreshold(e2 Element, threshold FiniteBound) Element {
	switch e2 := e2.(type) {
	case Interval:
		if e1.IsBot() {
			return e2
		}
		if e2.IsBot() {
			return e1
		}
		low, high := e1.low, e1.high
		if e2.low.Lt(e1.low) {
			if threshold.Leq(e2.low) {
				low = threshold
			} else {
				low = MinusInfinity{}
			}
		}
		if e2.high.Gt(e1.high) {
			if threshold.Geq(e2.high) {
				high = threshold
			} else {
				high = PlusInfinity{}
			}
		}
		return Interval{low: low, high: high}
	}
	panic(errPatternMatch(e2))
}

// Narrow computes m △ o. Performs lattice dynamic type checking.
func (e1 Interval) Narrow(e2 Element) Element {
	checkLatticeMatch(e1.Lattice(), e2.Lattice(), "△")
	return e1.narrow(e2)
}

// narrow computes m △ o.
// Bounds of m that were previously widened to (-)∞ are refined
// back to the corresponding bounds of o. Finite bounds are kept.
func (e1 Interval) narrow(e2 Element) Element {
	switch e2 := e2.(type) {
	case Interval:
		if e1.IsBot() || e2.IsBot() {
			return e1.Lattice().Bot()
		}
		low, high := e1.low, e1.high
		if e1.low.IsInfinite() {
			low = e2.low
		}
		if e1.high.IsInfinite() {
			high = e2.high
		}
		return Interval{low: low, high: high}
	}
	panic(errPatternMatch(e2))
}

// NarrowThreshold computes m △τ o for threshold τ.
// Performs lattice dynamic type checking.
func (e1 Interval) NarrowThreshold(e2 Element, threshold FiniteBound) Element {
	checkLatticeMatch(e1.Lattice(), e2.Lattice(), "△τ")
	return e1.narrowThreshold(e2, threshold)
}

// narrowThreshold computes m △τ o.
// Like narrowing, except that bounds resting exactly at the
// threshold τ are also refined back to the bounds of o.
func (e1 Interval) narrowThreshold(e2 Element, threshold FiniteBound) Element {
	switch e2 := e2.(type) {
	case Interval:
		if e1.IsBot() || e2.IsBot() {
			return e1.Lattice().Bot()
		}
		low, high := e1.low, e1.high
		if e1.low.IsInfinite() || e1.low.Eq(threshold) {
			low = e2.low
		}
		if e1.high.IsInfinite() || e1.high.Eq(threshold) {
			high = e2.high
		}
		return Interval{low: low, high: high}
	}
	panic(errPatternMatch(e2))
}

// GetFiniteBounds unpacks the interval bounds, if finite, and panics otherwise.
func (i Interval) GetFiniteBounds() (int, int) {
	if i.low.IsInfinite() || i.high.IsInfinite() {
		panic(fmt.Sprintf("Interval %s does not have finite bounds", i))
	}
	return (int)(i.low.(FiniteBound)), (int)(i.high.(FiniteBound))
}

// Low returns the lower bound as an integer, if finite, and panics otherwise.
func (i Interval) Low() int {
	if i.low.IsInfinite() {
		panic(fmt.Sprintf("Interval %s does not have finite lower bound", i))
	}
	return (int)(i.low.(FiniteBound))
}

// High returns the upper bound as an integer, if finite, and panics otherwise.
func (i Interval) High() int {
	if i.high.IsInfinite() {
		panic(fmt.Sprintf("Interval %s does not have finite upper bound", i))
	}
	return (int)(i.high.(FiniteBound))
}

// LowBound returns the lower bound of the interval.
func (i Interval) LowBound() IntervalBound {
	return i.low
}

// HighBound returns the upper bound of the interval.
func (i Interval) HighBound() IntervalBound {
	return i.high
}

// Contains checks whether the integer c lies within the interval.
func (i Interval) Contains(c int) bool {
	return i.low.Leq(FiniteBound(c)) && i.high.Geq(FiniteBound(c))
}
