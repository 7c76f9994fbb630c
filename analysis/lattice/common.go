package lattice

import (
	"errors"
	"fmt"

	"github.com/cs-au-dk/gaia/utils"

	"github.com/fatih/color"
)

var colorize = struct {
	Lattice func(...interface{}) string
	Element func(...interface{}) string
	Key     func(...interface{}) string
}{
	Lattice: func(is ...interface{}) string {
		return utils.CanColorize(color.New(color.FgHiBlue).SprintFunc())(is...)
	},
	Element: func(is ...interface{}) string {
		return utils.CanColorize(color.New(color.FgCyan).SprintFunc())(is...)
	},
	Key: func(is ...interface{}) string {
		return utils.CanColorize(color.New(color.FgYellow).SprintFunc())(is...)
	},
}

var (
	errUnsupportedTypeConversion = errors.New("UnsupportedTypeConversion")
	errUnsupportedOperation      = errors.New("UnsupportedOperationError")
	errInternal                  = errors.New("internal error")
	errPatternMatch              = func(v interface{}) error {
		return fmt.Errorf("invalid pattern match: %v %T", v, v)
	}
)

type Element interface {
	// Type conversion API
	Interval() Interval
	Env() Env

	Lattice() Lattice

	// External API for lattice element operations.
	// They dynamically perform lattice type checking.
	Leq(Element) bool
	Geq(Element) bool
	Eq(Element) bool
	Join(Element) Element
	// JoinIter is the join applied along ascending iteration
	// sequences. It coincides with Join for every lattice here.
	JoinIter(Element) Element
	Meet(Element) Element
	Widen(Element) Element
	Narrow(Element) Element
	// Threshold variants of extrapolation and refinement.
	// An unstable bound first jumps to the threshold, and only
	// widens fully when the threshold is also exceeded. Dually,
	// refinement only trims bounds that sit at the threshold
	// or at infinity.
	WidenThreshold(Element, FiniteBound) Element
	NarrowThreshold(Element, FiniteBound) Element

	// Internal lattice element operations, that skip
	// lattice type checking. Only use under the
	// assumption of lattice type safety.
	leq(Element) bool
	geq(Element) bool
	eq(Element) bool
	join(Element) Element
	joinIter(Element) Element
	meet(Element) Element
	widen(Element) Element
	narrow(Element) Element
	widenThreshold(Element, FiniteBound) Element
	narrowThreshold(Element, FiniteBound) Element

	// Representational components
	String() string
	// Encodes the distance from the bottom of the lattice
	// to the element that calls this method.
	Height() int
}

type element struct {
	lattice Lattice
}

func (e element) Lattice() Lattice {
	return e.lattice
}

func (element) Interval() Interval {
	panic(errUnsupportedTypeConversion)
}

func (element) Env() Env {
	panic(errUnsupportedTypeConversion)
}

func (element) Height() int {
	panic(errUnsupportedOperation)
}
