package progress

import (
	"fmt"
	"os"

	"github.com/cs-au-dk/gaia/analysis/cfg"
	"github.com/cs-au-dk/gaia/analysis/defs"
	"github.com/cs-au-dk/gaia/analysis/fixpoint"
	u "github.com/cs-au-dk/gaia/utils"

	"github.com/fatih/color"
	log "github.com/sirupsen/logrus"
	"golang.org/x/term"
	"golang.org/x/tools/go/ssa"
)

var colorize = struct {
	Fun func(...interface{}) string
}{
	Fun: func(is ...interface{}) string {
		return u.CanColorize(color.New(color.FgHiYellow).SprintFunc())(is...)
	},
}

// Logger reports the advance of whole-program analysis. Step marks the
// transition to the next entry function; the callee and cycle events
// trace the interprocedural engine inside the current step.
type Logger interface {
	// Start announces the number of functions expected to be analyzed.
	Start(total int)
	// Step reports that the named function is being analyzed.
	Step(name string)
	// StartCallee reports that the engine descends into fn under the
	// given call context.
	StartCallee(ctx *defs.CallCtx, fn *ssa.Function)
	// EndCallee reports that the engine is done with fn under the
	// given call context.
	EndCallee(ctx *defs.CallCtx, fn *ssa.Function)
	// EnterCycle reports that a fixpoint computation entered the
	// cycle headed by the given node.
	EnterCycle(head cfg.Node)
	// CycleIteration reports one iteration over the cycle headed by
	// the given node.
	CycleIteration(head cfg.Node, iteration uint, kind fixpoint.IterationKind)
	// LeaveCycle reports that the cycle headed by the given node has
	// stabilized.
	LeaveCycle(head cfg.Node)
	// Done finishes reporting.
	Done()
}

// Create builds the logger for the given reporting mode. The auto mode
// picks interactive reporting when out is a terminal and linear
// reporting otherwise.
func Create(mode string, out *os.File) Logger {
	if mode == "auto" {
		if term.IsTerminal(int(out.Fd())) {
			mode = "interactive"
		} else {
			mode = "linear"
		}
	}

	switch mode {
	case "none":
		return noLogger{}
	case "linear":
		return &linearLogger{}
	case "interactive":
		return &interactiveLogger{out: out}
	}
	log.Fatalf("Unknown progress mode: %s", mode)
	return nil
}

type noLogger struct{}

func (noLogger) Start(int)                                             {}
func (noLogger) Step(string)                                           {}
func (noLogger) StartCallee(*defs.CallCtx, *ssa.Function)              {}
func (noLogger) EndCallee(*defs.CallCtx, *ssa.Function)                {}
func (noLogger) EnterCycle(cfg.Node)                                   {}
func (noLogger) CycleIteration(cfg.Node, uint, fixpoint.IterationKind) {}
func (noLogger) LeaveCycle(cfg.Node)                                   {}
func (noLogger) Done()                                                 {}

// linearLogger emits one log line per analyzed function, suitable for
// redirected output. Callee descents are logged in verbose mode only,
// and cycle iterations not at all, as both are far too frequent for a
// scrolling log.
type linearLogger struct {
	total, steps int
}

func (l *linearLogger) Start(total int) {
	l.total = total
}

func (l *linearLogger) Step(name string) {
	l.steps++
	log.Infof("Analyzing %s (%d/%d)", name, l.steps, l.total)
}

func (l *linearLogger) StartCallee(ctx *defs.CallCtx, fn *ssa.Function) {
	u.Opts().OnVerbose(func() {
		log.Infof("Analyzing callee %s @ %s", fn, ctx)
	})
}

func (l *linearLogger) EndCallee(*defs.CallCtx, *ssa.Function) {}

func (l *linearLogger) EnterCycle(cfg.Node) {}

func (l *linearLogger) CycleIteration(cfg.Node, uint, fixpoint.IterationKind) {}

func (l *linearLogger) LeaveCycle(cfg.Node) {}

func (l *linearLogger) Done() {
	log.Infof("Analyzed %d functions", l.steps)
}

// interactiveLogger redraws a single terminal line as the analysis
// advances, showing the innermost active callee and cycle.
type interactiveLogger struct {
	out          *os.File
	total, steps int
	current      string
	callees      []string
	cycles       []string
}

func (l *interactiveLogger) Start(total int) {
	l.total = total
}

func (l *interactiveLogger) Step(name string) {
	l.steps++
	l.current = name
	l.callees = l.callees[:0]
	l.cycles = l.cycles[:0]
	l.redraw()
}

func (l *interactiveLogger) StartCallee(ctx *defs.CallCtx, fn *ssa.Function) {
	l.callees = append(l.callees, fn.Name())
	l.redraw()
}

func (l *interactiveLogger) EndCallee(ctx *defs.CallCtx, fn *ssa.Function) {
	if len(l.callees) > 0 {
		l.callees = l.callees[:len(l.callees)-1]
	}
	l.redraw()
}

func (l *interactiveLogger) EnterCycle(head cfg.Node) {
	l.cycles = append(l.cycles, cycleLabel(head))
	l.redraw()
}

func (l *interactiveLogger) CycleIteration(head cfg.Node, iteration uint, kind fixpoint.IterationKind) {
	if len(l.cycles) > 0 {
		l.cycles[len(l.cycles)-1] = fmt.Sprintf("%s %s%d", cycleLabel(head), kind, iteration)
	}
	l.redraw()
}

func (l *interactiveLogger) LeaveCycle(head cfg.Node) {
	if len(l.cycles) > 0 {
		l.cycles = l.cycles[:len(l.cycles)-1]
	}
	l.redraw()
}

func (l *interactiveLogger) Done() {
	fmt.Fprint(l.out, "\r\x1b[K")
	log.Infof("Analyzed %d functions", l.steps)
}

func (l *interactiveLogger) redraw() {
	suffix := ""
	if n := len(l.callees); n > 0 {
		suffix = " ↝ " + l.callees[n-1]
		if n > 1 {
			suffix += fmt.Sprintf(" (+%d)", n-1)
		}
	}
	if n := len(l.cycles); n > 0 {
		suffix += " [" + l.cycles[n-1] + "]"
	}

	// Long names are clipped to the terminal width before any color
	// codes are attached, so escape sequences never count against it.
	width, _, err := term.GetSize(int(l.out.Fd()))
	if err != nil || width <= 0 {
		width = 80
	}
	name := l.current
	meta := len(fmt.Sprintf("Analyzing  (%d/%d)", l.steps, l.total)) + len(suffix)
	if budget := width - meta; budget > 3 && len(name) > budget {
		name = name[:budget-3] + "..."
	}

	fmt.Fprintf(l.out, "\r\x1b[KAnalyzing %s (%d/%d)%s", colorize.Fun(name), l.steps, l.total, suffix)
}

func cycleLabel(head cfg.Node) string {
	if bn := head.BlockNode(); bn != nil {
		return fmt.Sprintf("b%d", bn.Index())
	}
	return head.String()
}
