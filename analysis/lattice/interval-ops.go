package lattice

// Arithmetic over intervals. The operations are sound over-approximations
// of the corresponding machine integer operations, computed on the bounds.
// Every operation maps ⊥ operands to ⊥.

// negBound flips the sign of an interval bound.
func negBound(b IntervalBound) IntervalBound {
	switch b := b.(type) {
	case FiniteBound:
		return -b
	case PlusInfinity:
		return MinusInfinity{}
	case MinusInfinity:
		return PlusInfinity{}
	}
	panic(errPatternMatch(b))
}

// minBound folds Min over a non-empty list of bounds.
func minBound(b IntervalBound, bs ...IntervalBound) IntervalBound {
	res := b
	for _, b := range bs {
		res = res.Min(b)
	}
	return res
}

// maxBound folds Max over a non-empty list of bounds.
func maxBound(b IntervalBound, bs ...IntervalBound) IntervalBound {
	res := b
	for _, b := range bs {
		res = res.Max(b)
	}
	return res
}

// Plus computes the interval sum [l1 + l2, h1 + h2].
func (e1 Interval) Plus(e2 Interval) Interval {
	if e1.IsBot() || e2.IsBot() {
		return intervalLattice.Bot().Interval()
	}
	return Interval{
		low:  e1.low.Plus(e2.low),
		high: e1.high.Plus(e2.high),
	}
}

// Minus computes the interval difference [l1 - h2, h1 - l2].
func (e1 Interval) Minus(e2 Interval) Interval {
	if e1.IsBot() || e2.IsBot() {
		return intervalLattice.Bot().Interval()
	}
	return Interval{
		low:  e1.low.Minus(e2.high),
		high: e1.high.Minus(e2.low),
	}
}

// Neg computes the interval negation [-h, -l].
func (e1 Interval) Neg() Interval {
	if e1.IsBot() {
		return e1
	}
	return Interval{
		low:  negBound(e1.high),
		high: negBound(e1.low),
	}
}

// Mult computes the interval product. The bounds are the minimum and
// maximum over the pairwise products of the operand bounds.
func (e1 Interval) Mult(e2 Interval) Interval {
	if e1.IsBot() || e2.IsBot() {
		return intervalLattice.Bot().Interval()
	}
	ll := e1.low.Mult(e2.low)
	lh := e1.low.Mult(e2.high)
	hl := e1.high.Mult(e2.low)
	hh := e1.high.Mult(e2.high)
	return Interval{
		low:  minBound(ll, lh, hl, hh),
		high: maxBound(ll, lh, hl, hh),
	}
}

// Div computes the interval quotient, rounding towards zero.
// The divisor is split around zero into its strictly positive and
// strictly negative parts, and the two partial quotients are joined.
// A divisor of exactly [0, 0] yields ⊥.
func (e1 Interval) Div(e2 Interval) Interval {
	if e1.IsBot() || e2.IsBot() {
		return intervalLattice.Bot().Interval()
	}
	pos := e2.meet(Interval{low: FiniteBound(1), high: PlusInfinity{}}).Interval()
	neg := e2.meet(Interval{low: MinusInfinity{}, high: FiniteBound(-1)}).Interval()
	res := intervalLattice.Bot().Interval()
	if !pos.IsBot() {
		res = res.join(e1.divNonZero(pos)).Interval()
	}
	if !neg.IsBot() {
		res = res.join(e1.divNonZero(neg)).Interval()
	}
	return res
}

// divNonZero computes the quotient for a divisor that excludes zero.
func (e1 Interval) divNonZero(e2 Interval) Interval {
	ll := e1.low.Div(e2.low)
	lh := e1.low.Div(e2.high)
	hl := e1.high.Div(e2.low)
	hh := e1.high.Div(e2.high)
	return Interval{
		low:  minBound(ll, lh, hl, hh),
		high: maxBound(ll, lh, hl, hh),
	}
}

// Rem computes the interval remainder, with the sign following the
// dividend. The magnitude of the result is strictly smaller than the
// largest absolute divisor bound. A divisor of exactly [0, 0] yields ⊥.
func (e1 Interval) Rem(e2 Interval) Interval {
	if e1.IsBot() || e2.IsBot() {
		return intervalLattice.Bot().Interval()
	}
	if z := Elements().Constant(0); e2.eq(z) {
		return intervalLattice.Bot().Interval()
	}
	// The largest absolute divisor bound, minus one.
	magnitude := maxBound(negBound(e2.low), e2.high)
	var bound IntervalBound = PlusInfinity{}
	if m, ok := magnitude.(FiniteBound); ok {
		bound = m - 1
	}
	switch {
	case e1.low.Geq(FiniteBound(0)):
		return Interval{low: FiniteBound(0), high: bound}
	case e1.high.Leq(FiniteBound(0)):
		return Interval{low: negBound(bound), high: FiniteBound(0)}
	}
	return Interval{low: negBound(bound), high: bound}
}

// Shl computes the interval left shift. Only shifts by a constant
// amount within the machine word are modelled precisely.
func (e1 Interval) Shl(e2 Interval) Interval {
	if e1.IsBot() || e2.IsBot() {
		return intervalLattice.Bot().Interval()
	}
	l, lok := e2.low.(FiniteBound)
	h, hok := e2.high.(FiniteBound)
	if lok && hok && l == h && 0 <= l && l < 63 {
		return e1.Mult(Elements().Constant(1 << l))
	}
	return intervalLattice.Top().Interval()
}

// Shr computes the interval arithmetic right shift. Only shifts by a
// constant amount within the machine word are modelled precisely.
func (e1 Interval) Shr(e2 Interval) Interval {
	if e1.IsBot() || e2.IsBot() {
		return intervalLattice.Bot().Interval()
	}
	l, lok := e2.low.(FiniteBound)
	h, hok := e2.high.(FiniteBound)
	if lok && hok && l == h && 0 <= l && l < 63 {
		return e1.Div(Elements().Constant(1 << l))
	}
	return intervalLattice.Top().Interval()
}

// Branch refinement operators. Each operator restricts the receiver to
// the subset of values that may satisfy the given comparison against
// the argument interval, suitable for filtering along conditional edges.

// FilterLt refines e1 under the assumption e1 < e2.
func (e1 Interval) FilterLt(e2 Interval) Interval {
	if e1.IsBot() || e2.IsBot() {
		return intervalLattice.Bot().Interval()
	}
	return e1.meet(Interval{
		low:  MinusInfinity{},
		high: e2.high.Minus(FiniteBound(1)),
	}).Interval()
}

// FilterLeq refines e1 under the assumption e1 ≤ e2.
func (e1 Interval) FilterLeq(e2 Interval) Interval {
	if e1.IsBot() || e2.IsBot() {
		return intervalLattice.Bot().Interval()
	}
	return e1.meet(Interval{
		low:  MinusInfinity{},
		high: e2.high,
	}).Interval()
}

// FilterGt refines e1 under the assumption e1 > e2.
func (e1 Interval) FilterGt(e2 Interval) Interval {
	if e1.IsBot() || e2.IsBot() {
		return intervalLattice.Bot().Interval()
	}
	return e1.meet(Interval{
		low:  e2.low.Plus(FiniteBound(1)),
		high: PlusInfinity{},
	}).Interval()
}

// FilterGeq refines e1 under the assumption e1 ≥ e2.
func (e1 Interval) FilterGeq(e2 Interval) Interval {
	if e1.IsBot() || e2.IsBot() {
		return intervalLattice.Bot().Interval()
	}
	return e1.meet(Interval{
		low:  e2.low,
		high: PlusInfinity{},
	}).Interval()
}

// FilterEq refines e1 under the assumption e1 = e2.
func (e1 Interval) FilterEq(e2 Interval) Interval {
	return e1.meet(e2).Interval()
}

// FilterNeq refines e1 under the assumption e1 ≠ e2. The refinement
// only bites when e2 is a singleton meeting one of the bounds of e1.
func (e1 Interval) FilterNeq(e2 Interval) Interval {
	if e1.IsBot() || e2.IsBot() {
		return intervalLattice.Bot().Interval()
	}
	c, cok := e2.low.(FiniteBound)
	if !cok || !e2.low.Eq(e2.high) {
		return e1
	}
	switch {
	case e1.low.Eq(c) && e1.high.Eq(c):
		return intervalLattice.Bot().Interval()
	case e1.low.Eq(c):
		return Interval{low: c + 1, high: e1.high}
	case e1.high.Eq(c):
		return Interval{low: e1.low, high: c - 1}
	}
	return e1
}
