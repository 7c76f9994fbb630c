package upfront

import (
	"fmt"
	"go/types"
	"log"
	"os"
	"regexp"
	"strings"

	"golang.org/x/tools/go/pointer"
	"golang.org/x/tools/go/ssa"
	"golang.org/x/tools/go/ssa/ssautil"
)

type (
	// TargetType is an alias for int.
	TargetType int

	// IncludeType can be used to configure the values of which types should be
	// included as queries in the points-to analysis.
	// Only pointer-like types appear in this list
	IncludeType struct {
		// All supersedes the other fields if set true.
		All bool

		// Pointer-like types
		Interface bool
		Function  bool
		Map       bool
		Slice     bool
		Pointer   bool
	}
)

// The types of points-to analysis targets, and the corresponding
// points-to query.
const (
	_NOT_TYPE TargetType = 1 << iota
	_DIRECT
	_INDIRECT
)

func (t TargetType) String() string {
	switch t {
	case _DIRECT:
		return "Direct"
	case _INDIRECT:
		return "Indirect"
	}
	return "?"
}

// collectPtsToQueries adds points-to queries to the PTA configuration based
// on the properties of the "include" value.
func collectPtsToQueries(
	prog *ssa.Program,
	config *pointer.Config,
	include IncludeType,
) {
	maybeAdd := func(v ssa.Value) {
		prettyPrint := func(v ssa.Value) {
			opts.OnVerbose(func() {
				pos := prog.Fset.Position(v.Pos())
				fmt.Printf("%d corresponds to: %s\n", v.Pos(), pos)
				fmt.Printf("ssa.Value type: %s, underlying type: %s\n\n",
					v.Type().String(), v.Type().Underlying().String())
			})
		}

		if typ := include.checkType(v.Type()); typ != _NOT_TYPE {
			prettyPrint(v)
			if typ&_DIRECT != 0 {
				config.AddQuery(v)
			}
			if typ&_INDIRECT != 0 {
				config.AddIndirectQuery(v)
			}
		}
	}

	for fun := range ssautil.AllFunctions(prog) {
		verbosePrint("Collecting pointer-like values in: %s\n", fun.Name())
		for _, param := range fun.Params {
			maybeAdd(param)
		}
		for _, fv := range fun.FreeVars {
			maybeAdd(fv)
		}

		for _, block := range fun.Blocks {
			for _, insn := range block.Instrs {
				switch v := insn.(type) {
				case *ssa.Call:
					common := v.Common()
					maybeAdd(common.Value)
					maybeAdd(v)
				case *ssa.Range:
				case ssa.Value:
					maybeAdd(v)
				}
			}
		}
		verbosePrint("\n")
	}
}

// checkType determines which kinds of points-to queries the given type
// calls for, if any.
func (include IncludeType) checkType(t types.Type) TargetType {
	switch t := t.(type) {
	case *types.Named:
		return include.checkType(t.Underlying())
	case *types.Signature:
		if include.All || include.Function {
			return _DIRECT
		}
	case *types.Interface:
		if include.All || include.Interface {
			return _DIRECT
		}
	case *types.Map:
		if include.All || include.Map {
			return _DIRECT
		}
	case *types.Slice:
		if include.All || include.Slice {
			return _DIRECT
		}
	case *types.Pointer:
		// Pointers to included types get indirect queries, so that the
		// pointed-to values are resolvable even when pointers themselves
		// are not included.
		var res = _NOT_TYPE
		if include.checkType(t.Elem()) != _NOT_TYPE {
			res = _INDIRECT
		}
		if include.All || include.Pointer {
			return res + _DIRECT
		}
	}

	return _NOT_TYPE
}

type PointerResult struct {
	pointer.Result
}

// Andersen is a wrapper around the points-to analysis. Requires a program, a list of main packages
// and an include configuration according to which points-to queries may be collected.
func Andersen(prog *ssa.Program, mains []*ssa.Package, include IncludeType) *PointerResult {
	a_config := &pointer.Config{
		Mains:          mains,
		BuildCallGraph: true,
	}

	collectPtsToQueries(prog, a_config, include)

	result, err := pointer.Analyze(a_config)
	if err != nil {
		fmt.Println("Failed pointer analysis")
		fmt.Println(err)
		os.Exit(1)
	}

	return &PointerResult{*result}
}

// TotalAndersen performs points-to analysis for all pointer-like values in the given SSA program.
func TotalAndersen(prog *ssa.Program, mains []*ssa.Package) *PointerResult {
	return Andersen(prog, mains, IncludeType{
		All: true,
	})
}

type (
	// accessPath is embedded by all access actions derived from points-to labels.
	accessPath struct{}

	// FieldAccess models reading a named field of a struct value.
	FieldAccess struct {
		accessPath
		Field string
	}
	// ArrayAccess models reading some index of an array or slice value.
	ArrayAccess struct{ accessPath }

	// Access is implemented by all access actions.
	Access interface{ accessTag() }
)

func (accessPath) accessTag() {}

// Access paths have the form: x.y.[*].
// Field names can contain anything but a dot and an open square bracket.
var pathRegexp = regexp.MustCompile(`\.[^.[]+|\[\*\]`)

// SplitLabel splits a points-to analysis label into its root SSA value and
// the sequence of access actions that make up the label's access path.
func SplitLabel(label *pointer.Label) (ssa.Value, []Access) {
	v := label.Value()
	path := label.Path()
	if path == "" {
		return v, nil
	}

	components := pathRegexp.FindAllString(path, -1)
	if strings.Join(components, "") != path {
		log.Fatalln("Path match was not full", components, path, label)
	}

	accesses := make([]Access, len(components))
	for i, f := range components {
		if f == "[*]" {
			accesses[i] = ArrayAccess{}
		} else {
			// Drop the dot preceding the field name.
			accesses[i] = FieldAccess{Field: f[1:]}
		}
	}
	return v, accesses
}
