package fixpoint

import (
	"log"

	"github.com/cs-au-dk/gaia/utils"
)

type (
	// WideningStrategy selects the extrapolation operator applied at cycle
	// heads once the exact join iterations are exhausted.
	WideningStrategy int

	// NarrowingStrategy selects the refinement operator applied at cycle
	// heads during the decreasing phase.
	NarrowingStrategy int

	// IterationKind discriminates the two phases of cycle stabilization.
	IterationKind int
)

const (
	// WideningWiden extrapolates with the widening operator, applying the
	// threshold variant once when available.
	WideningWiden WideningStrategy = iota
	// WideningJoin keeps joining. Terminates only on lattices of finite
	// height.
	WideningJoin
)

const (
	// NarrowingNarrow refines with the narrowing operator, applying the
	// threshold variant on the first decreasing iteration when available.
	NarrowingNarrow NarrowingStrategy = iota
	// NarrowingMeet refines with the meet operator. Requires a bounded
	// number of decreasing iterations to terminate in general.
	NarrowingMeet
)

const (
	Increasing IterationKind = iota
	Decreasing
)

func (s WideningStrategy) String() string {
	switch s {
	case WideningWiden:
		return "widen"
	case WideningJoin:
		return "join"
	}
	panic(errUnknownStrategy)
}

func (s NarrowingStrategy) String() string {
	switch s {
	case NarrowingNarrow:
		return "narrow"
	case NarrowingMeet:
		return "meet"
	}
	panic(errUnknownStrategy)
}

func (k IterationKind) String() string {
	switch k {
	case Increasing:
		return "↑"
	case Decreasing:
		return "↓"
	}
	panic(errUnknownStrategy)
}

// Options bundle the knobs steering cycle stabilization.
type Options struct {
	// LoopIterations is the number of exact join iterations performed at
	// each cycle head before extrapolation kicks in.
	LoopIterations uint
	// Widening is the extrapolation strategy.
	Widening WideningStrategy
	// Narrowing is the refinement strategy.
	Narrowing NarrowingStrategy
	// NarrowingIterations caps the decreasing iterations at each cycle
	// head. When nil the decreasing phase runs until stabilization.
	NarrowingIterations *uint
}

// OptionsFromConfig translates the externally provided analysis
// configuration into fixpoint options.
func OptionsFromConfig(cfg utils.Config) Options {
	opts := Options{
		LoopIterations:      cfg.LoopIterations,
		NarrowingIterations: cfg.NarrowingIterations,
	}

	switch cfg.WideningStrategy {
	case "widen":
		opts.Widening = WideningWiden
	case "join":
		opts.Widening = WideningJoin
	default:
		log.Fatalf("Unknown widening strategy: %s", cfg.WideningStrategy)
	}

	switch cfg.NarrowingStrategy {
	case "narrow":
		opts.Narrowing = NarrowingNarrow
	case "meet":
		opts.Narrowing = NarrowingMeet
	default:
		log.Fatalf("Unknown narrowing strategy: %s", cfg.NarrowingStrategy)
	}

	return opts
}
