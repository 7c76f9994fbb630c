package upfront

import (
	"fmt"
	"go/ast"
	"go/token"
	"log"
	"sync"
	"time"

	"github.com/cs-au-dk/gaia/utils"

	"golang.org/x/tools/go/packages"
)

// VarNameCollector walks the AST and records the source-level name bound at
// every definition position. The SSA registers produced for those positions
// can then be reported under their source names.
type VarNameCollector struct {
	function *ast.FuncDecl
}

var (
	lock     = make(chan bool, 1)
	VarNames = make(map[token.Pos]string)
)

func (v *VarNameCollector) addName(pos token.Pos, name string) {
	funName := "<global>"
	if v.function != nil {
		funName = v.function.Name.Name
	}

	lock <- true
	VarNames[pos] = fmt.Sprintf("%s.%s", funName, name)
	<-lock
}

func (v *VarNameCollector) Visit(n ast.Node) ast.Visitor {
	switch s := n.(type) {
	case *ast.FuncDecl:
		// Update enclosing function for children
		return &VarNameCollector{function: s}

	case *ast.AssignStmt:
		for i, name := range s.Lhs {
			switch e1 := name.(type) {
			case *ast.Ident:
				if e1.Name == "_" {
					continue
				}
				v.addName(e1.Pos(), e1.Name)
				if len(s.Rhs) > i {
					// Registers created for call results carry the position
					// of the left parenthesis.
					if e2, ok := s.Rhs[i].(*ast.CallExpr); ok {
						v.addName(e2.Lparen, e1.Name)
					}
				}
			}
		}

	case *ast.ValueSpec:
		for i, ident := range s.Names {
			if ident.Name == "_" {
				continue
			}
			v.addName(ident.Pos(), ident.Name)
			if len(s.Values) > i {
				if e, ok := s.Values[i].(*ast.CallExpr); ok {
					v.addName(e.Lparen, ident.Name)
				}
			}
		}
	}
	return v
}

func CollectNames(pkgs []*packages.Package) {
	if opts.Verbose() {
		defer utils.TimeTrack(time.Now(), "Collect variable names")
	}

	// Reset variable name map
	VarNames = make(map[token.Pos]string)

	var wg sync.WaitGroup

	count := 0
	visitor := new(VarNameCollector)
	for _, pkg := range pkgs {
		for _, file := range pkg.Syntax {
			wg.Add(1)
			go func(file *ast.File) {
				defer wg.Done()
				count++
				ast.Walk(visitor, file)
			}(file)
		}
	}

	wg.Wait()
	opts.OnVerbose(func() { log.Println("Collected names in", count, "files") })
}
