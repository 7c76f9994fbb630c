package utils

import (
	"flag"
	"fmt"
	"log"
	"strings"
)

type options struct {
	function     string
	outputFormat string
	gopath       string
	modulePath   string
	task         string
	configFile   string
	progressMode string
	precision    string
	widening     string
	narrowing    string
	loopIters    uint
	narrowIters  int
	minlen       uint
	nodesep      float64
	noColorize   bool
	verbose      bool
	metrics      bool
	includeTests bool
	visualize    bool
	skipChecks   bool
	logFixpoint  bool
}

const (
	_ANALYZE = iota
	_CAN_BUILD
	_CFG_TO_DOT
	_CALLGRAPH
	_WTO
	_POINTS_TO
	_POSITION
)

func CanColorize(col func(...interface{}) string) func(...interface{}) string {
	if opts.noColorize {
		return func(is ...interface{}) string {
			return fmt.Sprintf(strings.Repeat("%s", len(is)), is...)
		}
	}
	return col
}

var task = []struct{ flag, explanation string }{{
	"analyze",
	"Compute interprocedural fixpoints for the target function and run the enabled checkers",
}, {
	"check-can-build",
	"Performs a mock building of the package, attempting pointer analysis and SSA construction",
}, {
	"cfg-to-dot",
	"Create a graph for the control-flow graph, annotated with computed invariants",
}, {
	"callgraph-to-dot",
	"Create a graph for the program call graph, with functions clustered by strongly connected component",
}, {
	"wto",
	"Print the weak topological order of every reachable function body",
}, {
	"points-to",
	"Perform points-to analysis and log all points-to sets",
}, {
	"positions",
	"Print all SSA functions found, and the position of each instruction",
}}

var progressModes = []string{"auto", "none", "linear", "interactive"}
var precisions = []string{"register", "pointer", "memory"}
var wideningStrategies = []string{"widen", "join"}
var narrowingStrategies = []string{"narrow", "meet"}

var opts = &options{}

type optInterface struct{}

type taskInterface struct{}

func Opts() optInterface {
	return optInterface{}
}

func (optInterface) NoColorize() bool {
	return opts.noColorize
}
func (optInterface) Function() string {
	return opts.function
}
func (optInterface) OutputFormat() string {
	return opts.outputFormat
}
func (optInterface) GoPath() string {
	return opts.gopath
}
func (optInterface) ModulePath() string {
	return opts.modulePath
}
func (optInterface) ConfigFile() string {
	return opts.configFile
}
func (optInterface) ProgressMode() string {
	return opts.progressMode
}
func (optInterface) Precision() string {
	return opts.precision
}
func (optInterface) Widening() string {
	return opts.widening
}
func (optInterface) Narrowing() string {
	return opts.narrowing
}
func (optInterface) LoopIterations() uint {
	return opts.loopIters
}
func (optInterface) Minlen() uint {
	return opts.minlen
}
func (optInterface) Nodesep() float64 {
	return opts.nodesep
}

// NarrowingIterations returns the configured cap on descending iterations,
// or false when descending phases run until stabilization.
func (optInterface) NarrowingIterations() (uint, bool) {
	if opts.narrowIters < 0 {
		return 0, false
	}
	return uint(opts.narrowIters), true
}
func (optInterface) Metrics() bool {
	return opts.metrics
}
func (optInterface) Verbose() bool {
	return opts.verbose
}
func (optInterface) IncludeTests() bool {
	return opts.includeTests
}
func (optInterface) Visualize() bool {
	return opts.visualize
}
func (optInterface) SkipChecks() bool {
	return opts.skipChecks
}
func (optInterface) LogFixpoint() bool {
	return opts.logFixpoint
}
func (optInterface) Task() taskInterface {
	return taskInterface{}
}
func (taskInterface) IsAnalyze() bool {
	return opts.task == task[_ANALYZE].flag
}
func (taskInterface) IsCanBuild() bool {
	return opts.task == task[_CAN_BUILD].flag
}
func (taskInterface) IsCfgToDot() bool {
	return opts.task == task[_CFG_TO_DOT].flag
}
func (taskInterface) IsCallGraphToDot() bool {
	return opts.task == task[_CALLGRAPH].flag
}
func (taskInterface) IsWto() bool {
	return opts.task == task[_WTO].flag
}
func (taskInterface) IsPointsTo() bool {
	return opts.task == task[_POINTS_TO].flag
}
func (taskInterface) IsPosition() bool {
	return opts.task == task[_POSITION].flag
}

func init() {
	taskFlag := "\n"
	for _, task := range task {
		taskFlag += task.flag + " -- " + task.explanation + "\n"
	}
	taskFlag += "\n"

	flag.StringVar(&(opts.function), "fun", "main", "target a specific function w. r. t. the given task.\n"+
		"- Function names need not be fully qualified w.r.t. package name. If a simple name is provided, "+
		"the framework will search for a function matching that name in the main package. If one is not found, "+
		"it will proceed to do a search across all packages. Will return the first function matching that name.\n"+
		"- Use '.' to perform targetted analysis on all functions in the main package.\n")
	flag.StringVar(&(opts.outputFormat), "format", "svg", "output file format [svg | png | jpg | ...]")
	flag.StringVar(&(opts.gopath), "gopath", "examples", "specify GOPATH to be used for packages.Load")
	flag.StringVar(&(opts.modulePath), "modulepath", "", `specify a path to a directory containing a Go module.
- If provided this will make our code loading tools (that piggyback on Go's tools) run
in "module-aware" mode (GO111MODULE=on).`)
	flag.StringVar(&(opts.task), "task", task[_ANALYZE].flag, "Set the task to do during execution. Options:"+taskFlag)
	flag.StringVar(&(opts.configFile), "config", "", "path to a yaml file with analysis options; flags override its values")
	flag.StringVar(&(opts.progressMode), "progress", "auto", "progress reporting mode [auto | none | linear | interactive]")
	flag.StringVar(&(opts.precision), "precision", "pointer", "analysis precision [register | pointer | memory]")
	flag.StringVar(&(opts.widening), "widening", "widen", "extrapolation strategy at loop heads [widen | join]")
	flag.StringVar(&(opts.narrowing), "narrowing", "narrow", "refinement strategy at loop heads [narrow | meet]")
	flag.UintVar(&(opts.loopIters), "loop-iterations", 1, "number of exact join iterations at each loop head before extrapolation kicks in")
	flag.IntVar(&(opts.narrowIters), "narrowing-iterations", -1, "cap on descending iterations at each loop head; -1 descends until stabilization")
	flag.UintVar(&(opts.minlen), "minlen", 2, "minimum edge length (for ranking) in graph visualizations")
	flag.Float64Var(&(opts.nodesep), "nodesep", 0.35, "minimum space between two adjacent nodes in the same rank in graph visualizations")
	flag.BoolVar(&(opts.noColorize), "no-colorize", false, "Disable pretty printer colorization")
	flag.BoolVar(&(opts.verbose), "verbose", false, "enable verbose output")
	flag.BoolVar(&(opts.metrics), "metrics", false, "Enable collection of performance metrics for the analysis")
	flag.BoolVar(&(opts.includeTests), "include-tests", false, "include main package test files in the analysis.")
	flag.BoolVar(&(opts.visualize), "visualize", false, "enable visualization via XDot")
	flag.BoolVar(&(opts.skipChecks), "skip-checks", false, "stop after the fixpoint pass, without running checkers")
	flag.BoolVar(&(opts.logFixpoint), "fixpoint-logging", false, "Enable logging of specific events during fixpoint computation")

	// Set up logging
	log.SetFlags(log.Ltime | log.Lshortfile)
}

func contains(haystack []string, needle string) bool {
	for _, s := range haystack {
		if s == needle {
			return true
		}
	}
	return false
}

func ParseArgs() {
	// Calling flag.Parse in init messes up unit tests.
	flag.Parse()

	validTask := false
	for _, task := range task {
		if task.flag == opts.task {
			validTask = true
			break
		}
	}

	if !validTask {
		log.Fatalf("Value \"%s\" is not valid for -task", opts.task)
	}
	if !contains(progressModes, opts.progressMode) {
		log.Fatalf("Value \"%s\" is not valid for -progress", opts.progressMode)
	}
	if !contains(precisions, opts.precision) {
		log.Fatalf("Value \"%s\" is not valid for -precision", opts.precision)
	}
	if !contains(wideningStrategies, opts.widening) {
		log.Fatalf("Value \"%s\" is not valid for -widening", opts.widening)
	}
	if !contains(narrowingStrategies, opts.narrowing) {
		log.Fatalf("Value \"%s\" is not valid for -narrowing", opts.narrowing)
	}

	if Opts().Task().IsCfgToDot() || Opts().Task().IsCallGraphToDot() {
		opts.noColorize = true
	}
}

func (optInterface) AnalyzeAllFuncs() bool {
	return opts.function == "."
}

func (optInterface) IsWholeProgramAnalysis() bool {
	return (Opts().Task().IsAnalyze() ||
		Opts().Task().IsCfgToDot()) &&
		opts.function == "main"
}

func (optInterface) OnVerbose(do func()) {
	if Opts().Verbose() {
		do()
	}
}
