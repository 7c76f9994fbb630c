package checks

import (
	"bytes"
	"go/token"
	"testing"

	"github.com/fatih/color"
	"github.com/sebdah/goldie/v2"
)

// mintPositions builds a file set over synthetic content so findings
// can be anchored at known lines and columns.
func mintPositions(t *testing.T) (*token.FileSet, func(line int, col int) token.Pos) {
	content := []byte("0123456789abcdef\n0123456789abcdef\n0123456789abcdef\n")
	fset := token.NewFileSet()
	file := fset.AddFile("main.go", -1, len(content))
	file.SetLinesForContent(content)

	return fset, func(line int, col int) token.Pos {
		return file.LineStart(line) + token.Pos(col-1)
	}
}

func TestReporterGolden(t *testing.T) {
	prev := color.NoColor
	color.NoColor = true
	t.Cleanup(func() { color.NoColor = prev })

	fset, at := mintPositions(t)
	r := NewReporter(fset)

	r.Add(nil)
	r.Add(&Finding{at(3, 5), "dbz", Warning, "divisor n may be zero: [-1, 1]"})
	r.Add(&Finding{at(1, 9), "shift", Error, "shift amount s is always negative: [-3, -1]"})
	r.Add(&Finding{at(2, 2), "bounds", Ok, "index i is within the array length 5"})
	r.Add(&Finding{at(3, 5), "unreachable", Unreachable, "statement is never reached"})
	r.Add(&Finding{at(2, 10), "bounds", Warning, "index j may be negative: [-2, 5]"})
	// A context revisiting the same statement with the same verdict
	// must not produce a second line.
	r.Add(&Finding{at(3, 5), "dbz", Warning, "divisor n may be zero: [-1, 1]"})

	var out bytes.Buffer
	r.Render(&out)
	goldie.New(t).Assert(t, t.Name(), out.Bytes())

	findings := r.Findings()
	if len(findings) != 5 {
		t.Errorf("expected 5 findings after deduplication, got %d", len(findings))
	}
	for i := 1; i < len(findings); i++ {
		if findings[i].Pos < findings[i-1].Pos {
			t.Errorf("findings %d and %d are out of source order", i-1, i)
		}
	}

	counts := r.Counts()
	expected := map[Verdict]int{Ok: 1, Warning: 2, Error: 1, Unreachable: 1}
	for verdict, n := range expected {
		if counts[verdict] != n {
			t.Errorf("expected %d %s findings, got %d", n, verdict, counts[verdict])
		}
	}
	if len(counts) != len(expected) {
		t.Errorf("unexpected verdicts in %v", counts)
	}
}
