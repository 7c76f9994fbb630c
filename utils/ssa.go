package utils

import (
	"fmt"
	"go/token"

	"golang.org/x/tools/go/ssa"
)

// Returns the first instruction in block-instruction order that matches the predicate.
func FindSSAInstruction(fun *ssa.Function, pred func(ssa.Instruction) bool) (ssa.Instruction, bool) {
	for _, block := range fun.Blocks {
		for _, insn := range block.Instrs {
			if pred(insn) {
				return insn, true
			}
		}
	}
	return nil, false
}

// FindSSAFunction locates a function by simple name, searching the main
// packages first and then every package of the program.
func FindSSAFunction(prog *ssa.Program, mains []*ssa.Package, name string) (*ssa.Function, bool) {
	for _, main := range mains {
		if fun := main.Func(name); fun != nil {
			return fun, true
		}
	}

	for _, pkg := range prog.AllPackages() {
		if fun := pkg.Func(name); fun != nil {
			return fun, true
		}
	}
	return nil, false
}

// PrintSSAFunWithPos dumps the function body in SSA form with source
// positions attached to every instruction.
func PrintSSAFunWithPos(fset *token.FileSet, fun *ssa.Function) {
	fmt.Println(fun.Name())
	for bi, b := range fun.Blocks {
		fmt.Println(bi, ":")
		for _, i := range b.Instrs {
			switch v := i.(type) {
			case *ssa.DebugRef:
				// skip
			case ssa.Value:
				fmt.Println(v.Name(), "=", v, "at position:", fset.Position(v.Pos()))
			default:
				fmt.Println(i, "at position:", fset.Position(i.Pos()))
			}
		}
	}
}
