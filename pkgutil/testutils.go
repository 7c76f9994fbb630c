package pkgutil

import (
	"fmt"
	"go/ast"
	"go/parser"
	"go/types"
	"log"
	"strings"

	"golang.org/x/tools/go/ssa"
)

// TestFunctions returns the test functions of the program: package
// level functions named Test* taking a single *testing.T argument.
// Packages must have been loaded with IncludeTests for any to exist.
func TestFunctions(prog *ssa.Program) (res []*ssa.Function) {
	testingPkg := prog.ImportedPackage("testing")
	if testingPkg == nil {
		// The testing package is not loaded, so no tests are defined.
		return
	}

	arg0Type := types.NewPointer(testingPkg.Type("T").Type())

	for _, pkg := range AllPackages(prog) {
		for name, member := range pkg.Members {
			fun, ok := member.(*ssa.Function)
			if !ok || !strings.HasPrefix(name, "Test") {
				continue
			}
			if len(fun.Params) == 1 && types.Identical(arg0Type, fun.Params[0].Type()) {
				res = append(res, fun)
			}
		}
	}

	return
}

// testImporter resolves imports of the synthesized test main package.
// Only the package under test and the testing package can occur.
type testImporter types.Package

func (f *testImporter) Import(path string) (*types.Package, error) {
	p := (*types.Package)(f)
	switch path {
	case p.Path():
		return p, nil
	case "testing":
		for _, pkg := range p.Imports() {
			if pkg.Path() == path {
				return pkg, nil
			}
		}
	}
	log.Fatalln("Unexpected import of", path)
	return nil, nil
}

// CreateFakeTestMainPackage synthesizes a main package whose main
// function calls the supplied test function, so that tests can serve as
// analysis entry points.
func CreateFakeTestMainPackage(testFun *ssa.Function) *ssa.Package {
	testPkg := testFun.Pkg.Pkg
	prog := testFun.Prog

	file, err := parser.ParseFile(
		prog.Fset,
		"main.go",
		fmt.Sprintf(`package main
		import (
			pkg "%s"
			"testing"
		)

		func main() {
			var t testing.T
			pkg.%s(&t)
		}`, testPkg.Path(), testFun.Name()),
		0,
	)
	if err != nil {
		log.Fatalln(err)
	}

	files := []*ast.File{file}

	pkg := types.NewPackage(testPkg.Path()+".synth", "main")
	info := &types.Info{
		Types:      make(map[ast.Expr]types.TypeAndValue),
		Defs:       make(map[*ast.Ident]types.Object),
		Uses:       make(map[*ast.Ident]types.Object),
		Implicits:  make(map[ast.Node]types.Object),
		Scopes:     make(map[ast.Node]*types.Scope),
		Selections: make(map[*ast.SelectorExpr]*types.Selection),
	}

	if err := types.NewChecker(
		&types.Config{Importer: (*testImporter)(testPkg)},
		prog.Fset, pkg, info,
	).Files(files); err != nil {
		log.Fatalln(err)
	}

	spkg := prog.CreatePackage(pkg, files, info, false)
	spkg.Build()
	return spkg
}
