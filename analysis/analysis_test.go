package analysis

import (
	"testing"

	"runtime/debug"

	ai "github.com/cs-au-dk/gaia/analysis/absint"
	"github.com/cs-au-dk/gaia/analysis/checks"
	tu "github.com/cs-au-dk/gaia/testutil"
	"github.com/cs-au-dk/gaia/utils"
)

// verdictFor translates the names used in expectation notes to checker
// verdicts.
var verdictFor = map[string]checks.Verdict{
	"ok":          checks.Ok,
	"warning":     checks.Warning,
	"error":       checks.Error,
	"unreachable": checks.Unreachable,
}

// analyzePackage runs the whole-program analysis on one example package
// and matches the reported findings against the expectation notes of its
// source. Every note must be met by a finding on its line, and every
// finding must be covered by a note.
func analyzePackage(t *testing.T, pkg string, loadRes tu.LoadResult) {
	defer func() {
		if err := recover(); err != nil {
			t.Errorf("Panic while analyzing %s\n%v\n%s\n", pkg, err, debug.Stack())
		}
	}()

	nmgr := tu.MakeNotesManager(t, loadRes)

	config := utils.DefaultConfig()
	config.Progress = "none"

	result := ai.AnalyzeProgram(loadRes, config)

	for fun, fp := range result.Entries {
		if !fp.Converged() {
			t.Errorf("the activation of %s did not converge", fun)
		}
	}

	findings := result.Reporter.Findings()
	matched := make([]bool, len(findings))

	for _, ann := range nmgr.Verdicts() {
		want, known := verdictFor[ann.Verdict]
		if !known {
			t.Fatalf("note names no verdict: %s", ann)
		}

		found := false
		for i, f := range findings {
			if matched[i] || f.Verdict != want || nmgr.LineOf(f.Pos) != ann.Line() {
				continue
			}
			if ann.Checker != "" && f.Checker != ann.Checker {
				continue
			}
			matched[i], found = true, true
			break
		}
		if !found {
			t.Errorf("expectation not met: %s", ann)
		}
	}

	for i, f := range findings {
		if !matched[i] {
			t.Errorf("finding without expectation note: %s: %s: %s [%s]",
				loadRes.Prog.Fset.Position(f.Pos), f.Verdict, f.Message, f.Checker)
		}
	}
}

func TestNumericExamples(t *testing.T) {
	for _, pkg := range tu.ListNumericTests(t, "..") {
		pkg := pkg
		t.Run(pkg, func(t *testing.T) {
			t.Parallel()
			pkgs := tu.LoadExampleAsPackages(t, "..", pkg)
			tu.ParallelHelper(t, pkgs, func(loadRes tu.LoadResult) {
				analyzePackage(t, pkg, loadRes)
			})
		})
	}
}
