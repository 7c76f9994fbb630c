package testutil

import (
	"fmt"
	"go/token"
	"strings"
	"testing"

	"golang.org/x/tools/go/expect"
)

// The test suites for the interval analysis document expected findings as
// expectation notes in the analyzed example programs:
//
//	//@ error(dbz)     the dbz checker must report a definite error here
//	//@ warning(shift) the shift checker must report a possible error here
//	//@ ok(bounds)     the bounds checker must prove this line safe
//	//@ unreachable()  the analysis must find this line unreachable
//
// Notes attach to the source line they are written on. Several notes on
// one line are separated by commas.
type Annotation interface {
	Note() *expect.Note
	Name() string
	Manager() NotesManager
	Line() int
	String() string
}

type basicAnnotation struct {
	note *expect.Note
	mgr  NotesManager
}

func (a basicAnnotation) Note() *expect.Note {
	return a.note
}

func (a basicAnnotation) Name() string {
	return a.note.Name
}

func (a basicAnnotation) Manager() NotesManager {
	return a.mgr
}

func (a basicAnnotation) Line() int {
	return a.mgr.loadRes.Prog.Fset.Position(a.note.Pos).Line
}

func (a basicAnnotation) String() string {
	fset := a.mgr.loadRes.Prog.Fset
	npos := fset.Position(a.note.Pos)
	args := make([]string, 0, len(a.note.Args))
	for _, arg := range a.note.Args {
		args = append(args, fmt.Sprintf("%v", arg))
	}
	return "//@ " + a.note.Name + "(" +
		strings.Join(args, ", ") + ") at " + npos.String()
}

// AnnVerdict is an annotation stating the verdict a checker must reach for
// the statement on the annotated line. The Checker field is empty for
// unreachable annotations, which do not belong to any single checker.
type AnnVerdict struct {
	basicAnnotation
	Verdict string
	Checker string
}

func (a AnnVerdict) String() string {
	if a.Checker == "" {
		return "//@ " + a.Verdict + "() at line " + fmt.Sprint(a.Line())
	}
	return "//@ " + a.Verdict + "(" + a.Checker + ") at line " + fmt.Sprint(a.Line())
}

// NotesManager indexes every expectation note of a loaded example program.
type NotesManager struct {
	anns  map[*expect.Note]Annotation
	notes []*expect.Note

	loadRes LoadResult
}

func MakeNotesManager(t *testing.T, loadRes LoadResult) (n NotesManager) {
	n.loadRes = loadRes
	n.anns = make(map[*expect.Note]Annotation)

	for _, file := range loadRes.MainPkg.Syntax {
		notes, err := expect.ExtractGo(loadRes.Prog.Fset, file)
		if err != nil {
			t.Fatal(err)
		}

		n.notes = append(n.notes, notes...)
	}

	for _, note := range n.notes {
		n.anns[note] = n.parseNote(t, note)
	}

	return
}

func (n NotesManager) parseNote(t *testing.T, note *expect.Note) Annotation {
	base := basicAnnotation{note, n}

	switch note.Name {
	case "error", "warning", "ok":
		if len(note.Args) != 1 {
			t.Fatalf("%s note takes exactly one checker argument, got %v", note.Name, note.Args)
		}
		id, ok := note.Args[0].(expect.Identifier)
		if !ok {
			t.Fatalf("%s note argument must be a checker name, got %v", note.Name, note.Args[0])
		}
		return AnnVerdict{base, note.Name, string(id)}
	case "unreachable":
		if len(note.Args) != 0 {
			t.Fatalf("unreachable note takes no arguments, got %v", note.Args)
		}
		return AnnVerdict{base, note.Name, ""}
	default:
		t.Fatalf("unrecognized annotation %s", note.Name)
		return nil
	}
}

func (n NotesManager) Annotations() annList {
	res := make(annList, 0, len(n.notes))
	for _, note := range n.notes {
		res = append(res, n.anns[note])
	}
	return res
}

type annList []Annotation

func (la annList) ForEach(do func(Annotation)) {
	for _, ann := range la {
		do(ann)
	}
}

// Verdicts returns every verdict annotation of the program.
func (n NotesManager) Verdicts() (res []AnnVerdict) {
	n.Annotations().ForEach(func(a Annotation) {
		if v, ok := a.(AnnVerdict); ok {
			res = append(res, v)
		}
	})
	return
}

// LineOf translates a position of the analyzed program to its source line.
func (n NotesManager) LineOf(pos token.Pos) int {
	return n.loadRes.Prog.Fset.Position(pos).Line
}
