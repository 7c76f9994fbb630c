package checks

import (
	"errors"
	"go/token"
	"go/types"
	"log"

	"github.com/cs-au-dk/gaia/analysis/defs"
	L "github.com/cs-au-dk/gaia/analysis/lattice"
	"github.com/cs-au-dk/gaia/analysis/upfront"
	u "github.com/cs-au-dk/gaia/utils"

	"github.com/fatih/color"
	"golang.org/x/tools/go/ssa"
)

var errUnknownVerdict = errors.New("unknown check verdict")

var colorize = struct {
	Ok, Warning, Error, Unreachable func(...interface{}) string
}{
	Ok: func(is ...interface{}) string {
		return u.CanColorize(color.New(color.FgHiGreen).SprintFunc())(is...)
	},
	Warning: func(is ...interface{}) string {
		return u.CanColorize(color.New(color.FgHiYellow).SprintFunc())(is...)
	},
	Error: func(is ...interface{}) string {
		return u.CanColorize(color.New(color.FgHiRed).SprintFunc())(is...)
	},
	Unreachable: func(is ...interface{}) string {
		return u.CanColorize(color.New(color.FgHiWhite, color.Faint).SprintFunc())(is...)
	},
}

// Verdict is the outcome of checking one statement.
type Verdict int

const (
	// Ok marks a statement proven safe.
	Ok Verdict = iota
	// Warning marks a statement that may fault on some abstract value.
	Warning
	// Error marks a statement that faults on every abstract value.
	Error
	// Unreachable marks a statement with an unreachable entry state.
	Unreachable
)

func (v Verdict) String() string {
	switch v {
	case Ok:
		return "ok"
	case Warning:
		return "warning"
	case Error:
		return "error"
	case Unreachable:
		return "unreachable"
	}
	panic(errUnknownVerdict)
}

func (v Verdict) colored() string {
	switch v {
	case Ok:
		return colorize.Ok(v.String())
	case Warning:
		return colorize.Warning(v.String())
	case Error:
		return colorize.Error(v.String())
	case Unreachable:
		return colorize.Unreachable(v.String())
	}
	panic(errUnknownVerdict)
}

// Finding is one reported check result, anchored at a source position.
type Finding struct {
	Pos     token.Pos
	Checker string
	Verdict Verdict
	Message string
}

// Checker inspects single statements against the abstract state holding
// before they execute. The driver only hands over instructions that
// carry a source position, together with the call context under which
// the state was computed. The built-in checkers judge the statement on
// the state alone; the context is there for checkers that want to
// qualify their verdicts.
type Checker interface {
	Name() string
	// Check returns nil when the checker has nothing to say about the
	// instruction.
	Check(insn ssa.Instruction, pre L.Env, ctx *defs.CallCtx) *Finding
}

// All returns every known checker, in reporting order.
func All() []Checker {
	return []Checker{
		DivisionByZero{},
		ShiftAmount{},
		IndexBounds{},
		UnreachableCode{},
	}
}

// FromConfig selects the checkers enabled by the configuration. An
// empty selection enables all of them.
func FromConfig(cfg u.Config) []Checker {
	if len(cfg.Checkers) == 0 {
		return All()
	}

	byName := map[string]Checker{}
	for _, c := range All() {
		byName[c.Name()] = c
	}

	cs := make([]Checker, 0, len(cfg.Checkers))
	for _, name := range cfg.Checkers {
		c, found := byName[name]
		if !found {
			log.Fatalf("Unknown checker: %s", name)
		}
		cs = append(cs, c)
	}
	return cs
}

// operandName prefers the source-level name of a register when the
// name collector saw one.
func operandName(v ssa.Value) string {
	if name, found := upfront.VarNames[v.Pos()]; found {
		return name
	}
	return v.Name()
}

func isInteger(t types.Type) bool {
	basic, ok := t.Underlying().(*types.Basic)
	return ok && basic.Info()&types.IsInteger != 0
}

func bitWidth(t types.Type) int {
	if basic, ok := t.Underlying().(*types.Basic); ok {
		switch basic.Kind() {
		case types.Int8, types.Uint8:
			return 8
		case types.Int16, types.Uint16:
			return 16
		case types.Int32, types.Uint32:
			return 32
		}
	}
	return 64
}
