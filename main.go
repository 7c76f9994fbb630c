package main

import (
	"fmt"
	"log"
	"os"
	"time"

	ai "github.com/cs-au-dk/gaia/analysis/absint"
	"github.com/cs-au-dk/gaia/analysis/checks"
	u "github.com/cs-au-dk/gaia/analysis/upfront"
	"github.com/cs-au-dk/gaia/pkgutil"
	"github.com/cs-au-dk/gaia/utils"

	"golang.org/x/tools/go/ssa"
	"golang.org/x/tools/go/ssa/ssautil"
)

var (
	opts = utils.Opts()
	task = opts.Task()
)

func main() {
	utils.ParseArgs()
	path := utils.MakePath()

	pkgs, err := pkgutil.LoadPackages(pkgutil.LoadConfig{
		GoPath:       opts.GoPath(),
		ModulePath:   opts.ModulePath(),
		IncludeTests: opts.IncludeTests(),
	}, path)
	if err != nil {
		log.Println("Failed pkgutil.LoadPackages")
		log.Println(err)
		os.Exit(1)
	}

	prog, _ := ssautil.AllPackages(pkgs, ssa.SanityCheckFunctions|ssa.InstantiateGenerics)
	prog.Build()

	mains := ssautil.MainPackages(prog.AllPackages())
	if len(mains) == 0 && opts.IncludeTests() {
		// Synthesize an entry point per test function when the target has no
		// main package of its own.
		for _, testFun := range pkgutil.TestFunctions(prog) {
			mains = append(mains, pkgutil.CreateFakeTestMainPackage(testFun))
		}
	}
	if len(mains) == 0 {
		log.Println("No main packages detected")
		return
	}

	if err := pkgutil.GetLocalPackages(mains, pkgutil.AllPackages(prog)); err != nil {
		log.Fatalln(err)
	}
	u.CollectNames(pkgs)

	pl := pipeline{prog, mains}

	if task.IsCanBuild() {
		pl.preanalysisPipeline(standardPTAnalysisQueries)
		log.Println("Build succeeded")
		return
	}

	if !task.IsAnalyze() && !task.IsCfgToDot() {
		pl.secondaryTask()
		return
	}

	config, err := utils.CurrentConfig()
	if err != nil {
		log.Fatalln("Invalid analysis configuration:", err)
	}

	loadRes := pl.loadResult(config)

	start := time.Now()
	result := ai.AnalyzeProgram(loadRes, config)
	elapsed := time.Since(start)

	if task.IsCfgToDot() {
		log.Println("Preparing to visualize CFG:")
		for _, fun := range pl.targetFunctions() {
			if fp, found := result.Entries[fun]; found {
				fp.Visualize()
			}
		}
		return
	}

	opts.OnVerbose(func() {
		for _, fun := range pl.targetFunctions() {
			fp, found := result.Entries[fun]
			if !found {
				continue
			}
			fmt.Println()
			log.Println("Exit state of", utils.SSAFunString(fun), ":")
			fmt.Println(fp.Exit())
		}
	})

	if opts.Visualize() {
		for _, fun := range pl.targetFunctions() {
			if fp, found := result.Entries[fun]; found {
				fp.Visualize()
			}
		}
	}

	fmt.Println()
	result.Reporter.Render(os.Stdout)
	gatherMetrics(loadRes, result, elapsed)

	if result.Reporter.Counts()[checks.Error] > 0 {
		os.Exit(1)
	}
}
