package testutil

import (
	"bytes"
	"go/ast"
	"go/importer"
	"go/parser"
	"go/token"
	"go/types"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	u "github.com/cs-au-dk/gaia/analysis/upfront"
	"github.com/cs-au-dk/gaia/pkgutil"
	"github.com/cs-au-dk/gaia/utils/graph"

	"golang.org/x/tools/go/packages"
	"golang.org/x/tools/go/ssa"
	"golang.org/x/tools/go/ssa/ssautil"
)

// LoadResult contains relevant information obtained after loading a Go program.
// It includes the SSA representation of the program and the results of the
// pre-analyses (points-to analysis, call graph condensation, etc.).
type LoadResult struct {
	// MainPkg is the package focused by the analysis.
	MainPkg *packages.Package
	// Prog is the SSA representation of the entire program.
	Prog *ssa.Program
	// Mains denotes all the packages that can act as entry points.
	Mains []*ssa.Package
	// Pointer represents the result of the points-to analysis.
	Pointer *u.PointerResult
	// CallDAG encodes the SCC decomposition of the complete program call graph.
	CallDAG graph.SCCDecomposition[*ssa.Function]
}

// upfrontAnalyses computes the collection of local packages, and populates the LoadResult
// with the results of the pre-analysis:
//   - The results of the points-to analysis.
//   - The call graph, and its SCC condensation as a call DAG.
func (res *LoadResult) upfrontAnalyses() {
	pkgutil.GetLocalPackages(res.Mains, res.Prog.AllPackages())

	// If the points-to analysis information is not ready, compute it.
	if res.Pointer == nil {
		res.Pointer = u.TotalAndersen(res.Prog, res.Mains)
	}

	// Compute the call graph SCC condensation.
	cg := res.Pointer.CallGraph
	entries := []*ssa.Function{cg.Root.Func}
	res.CallDAG = graph.FromCallGraph(cg, false).SCC(entries)
}

// LoadExampleAsPackages loads an example package to be used for a test.
func LoadExampleAsPackages(t *testing.T, pathToRoot string, pkg string) []*packages.Package {
	// Invoking the package tools is slow because it uses `go list` under the hood.
	// If the package doesn't have imports we can take a fast path by loading the
	// code manually and parsing it ourselves.
	srcDir := pathToRoot + "/examples/src/" + pkg
	if entries, err := os.ReadDir(srcDir); err == nil {
		if len(entries) == 1 {
			entry := entries[0]
			if !entry.IsDir() && entry.Name() == "main.go" {
				if content, err := os.ReadFile(srcDir + "/main.go"); err == nil &&
					// Assert no imports
					!bytes.Contains(content, []byte("import")) {
					return LoadSourceAsPackages(t, pkg, string(content))
				}
			}
		}
	}

	// Create a main-package from the specified package
	pkgs, err := pkgutil.LoadPackages(pkgutil.LoadConfig{GoPath: pathToRoot + "/examples"}, pkg)
	if err != nil {
		t.Fatal(err)
	}

	if len(pkgs) != 1 {
		t.Fatal("Example contains more than just a main package?")
	}

	return pkgs
}

func LoadExamplePackage(t *testing.T, pathToRoot string, pkg string) LoadResult {
	return LoadResultFromPackages(t, LoadExampleAsPackages(t, pathToRoot, pkg))
}

func LoadResultFromPackages(t *testing.T, pkgs []*packages.Package) (res LoadResult) {
	mainpkg := pkgs[0]
	res.MainPkg = mainpkg

	u.CollectNames(pkgs)

	res.Prog, _ = ssautil.AllPackages(pkgs, ssa.SanityCheckFunctions|ssa.InstantiateGenerics)
	res.Prog.Build()

	res.Mains = ssautil.MainPackages(res.Prog.AllPackages())

	res.upfrontAnalyses()

	return
}

func LoadSourceAsPackages(t *testing.T, importPath string, content string) []*packages.Package {
	fset := token.NewFileSet()
	file, err := parser.ParseFile(
		fset,
		"main.go",
		content,
		parser.ParseComments)
	if err != nil {
		t.Fatal(err)
	}

	files := []*ast.File{file}

	// First argument is package path, the second is name.
	pkg := types.NewPackage(importPath, "main")
	info := &types.Info{
		Types:      make(map[ast.Expr]types.TypeAndValue),
		Defs:       make(map[*ast.Ident]types.Object),
		Uses:       make(map[*ast.Ident]types.Object),
		Implicits:  make(map[ast.Node]types.Object),
		Instances:  make(map[*ast.Ident]types.Instance),
		Scopes:     make(map[ast.Node]*types.Scope),
		Selections: make(map[*ast.SelectorExpr]*types.Selection),
	}
	if err := types.NewChecker(
		&types.Config{Importer: importer.Default()},
		fset, pkg, info).Files(files); err != nil {
		t.Fatal(err)
	}

	// If the package does not have imports we can take a fast path.
	if len(pkg.Imports()) == 0 {
		return []*packages.Package{{
			// ID is a unique identifier for a package,
			// in a syntax provided by the underlying build system.
			ID: "pkg-loaded-from-src",

			// Name is the package name as it appears in the package source code.
			Name: pkg.Name(),

			// PkgPath is the package path as used by the go/types package.
			PkgPath: pkg.Path(),

			// Types provides type information for the package.
			Types: pkg,

			// Fset provides position information for Types, TypesInfo, and Syntax.
			Fset: fset,

			// Syntax is the package's syntax trees.
			Syntax: files,

			// TypesInfo provides type information about the package's syntax trees.
			TypesInfo: info,
		}}
	}

	// Otherwise we need to invoke the packages tool that can import code for
	// dependencies. The reason to not just do this for all packages is that
	// it's a lot slower than the above because it needs to invoke the go tool
	// in a subprocess.
	pkgs, err := pkgutil.LoadPackagesFromSource(content)
	if err != nil {
		t.Fatal(err)
	}
	return pkgs
}

func LoadPackageFromSource(t *testing.T, importPath string, content string) (res LoadResult) {
	return LoadResultFromPackages(t, LoadSourceAsPackages(t, importPath, content))
}

var analysisLock sync.Mutex

// Utility function for running analysis tests in parallel. Expensive things
// such as loading code from disk, constructing SSA, performing pointer
// analysis, etc. is done in parallel.
// Call t.Parallel() before calling this function.
func ParallelHelper(t *testing.T, pkgs []*packages.Package, f func(LoadResult)) {
	var res LoadResult

	// Perform expensive pre-analyses in parallel
	res.MainPkg = pkgs[0]
	res.Prog, _ = ssautil.AllPackages(pkgs, ssa.SanityCheckFunctions|ssa.InstantiateGenerics)
	res.Prog.Build()

	res.Mains = ssautil.MainPackages(res.Prog.AllPackages())

	res.Pointer = u.TotalAndersen(res.Prog, res.Mains)

	// Analyses or procedures that touch global state are protected by the
	// analysisLock. This includes CollectNames, GetLocalPackages and the main
	// test function (which we assume will perform a static analysis run).
	analysisLock.Lock()
	defer analysisLock.Unlock()

	t.Logf("Running %v", t.Name())

	u.CollectNames(pkgs)
	res.upfrontAnalyses()

	f(res)
}

// ListNumericTests returns the example packages exercising the numeric
// analysis: every package under examples/src with a main function, except
// the loader fixtures.
func ListNumericTests(t *testing.T, pathToRoot string) []string {
	testPackages := []string{}

	fullPath := filepath.Join(pathToRoot, "examples/src")

	err := filepath.Walk(fullPath, func(path string, info os.FileInfo, e error) error {
		if e != nil {
			return e
		}

		if info.Mode().IsRegular() && strings.HasSuffix(path, ".go") {
			// Check if the file has a main function
			content, err := os.ReadFile(path)
			if err != nil {
				return err
			}

			if strings.Contains(string(content), "func main()") {
				parts := strings.SplitN(filepath.Dir(path), "examples/src/", 2)
				testPackages = append(testPackages, parts[1])
			}
		}

		return nil
	})
	if err != nil {
		t.Fatal(err)
	}

	return testPackages
}
