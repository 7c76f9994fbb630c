package checks

import (
	"fmt"
	"go/token"
	"io"

	"golang.org/x/exp/slices"
)

// Reporter accumulates findings across functions and calling contexts
// and renders them in source order.
type Reporter struct {
	fset     *token.FileSet
	findings []Finding
}

func NewReporter(fset *token.FileSet) *Reporter {
	return &Reporter{fset: fset}
}

// Add records a finding. Nil findings are ignored so checker results
// can be forwarded without a guard.
func (r *Reporter) Add(f *Finding) {
	if f != nil {
		r.findings = append(r.findings, *f)
	}
}

// sorted returns the findings in source order with exact duplicates
// collapsed. Duplicates arise when several calling contexts agree on
// the verdict for a shared statement.
func (r *Reporter) sorted() []Finding {
	fs := slices.Clone(r.findings)
	slices.SortFunc(fs, func(a, b Finding) bool {
		pa, pb := r.fset.Position(a.Pos), r.fset.Position(b.Pos)
		switch {
		case pa.Filename != pb.Filename:
			return pa.Filename < pb.Filename
		case pa.Line != pb.Line:
			return pa.Line < pb.Line
		case pa.Column != pb.Column:
			return pa.Column < pb.Column
		case a.Checker != b.Checker:
			return a.Checker < b.Checker
		case a.Verdict != b.Verdict:
			return a.Verdict < b.Verdict
		}
		return a.Message < b.Message
	})
	return slices.Compact(fs)
}

// Findings returns the recorded findings in source order, with exact
// duplicates collapsed.
func (r *Reporter) Findings() []Finding {
	return r.sorted()
}

// Render writes one "position: verdict: message [checker]" line per
// finding.
func (r *Reporter) Render(w io.Writer) {
	for _, f := range r.sorted() {
		fmt.Fprintf(w, "%s: %s: %s [%s]\n",
			r.fset.Position(f.Pos), f.Verdict.colored(), f.Message, f.Checker)
	}
}

// Counts tallies the rendered findings by verdict.
func (r *Reporter) Counts() map[Verdict]int {
	counts := map[Verdict]int{}
	for _, f := range r.sorted() {
		counts[f.Verdict]++
	}
	return counts
}
