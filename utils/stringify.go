package utils

import (
	"fmt"

	"github.com/fatih/color"

	"golang.org/x/tools/go/ssa"
)

var funColor = func(is ...interface{}) string {
	return CanColorize(color.New(color.FgHiYellow).SprintFunc())(is...)
}
var blkColor = func(is ...interface{}) string {
	return CanColorize(color.New(color.FgHiCyan).SprintFunc())(is...)
}
var nameColor = func(is ...interface{}) string {
	return CanColorize(color.New(color.FgHiGreen).SprintFunc())(is...)
}
var insColor = func(is ...interface{}) string {
	return CanColorize(color.New(color.FgHiWhite, color.Faint).SprintFunc())(is...)
}

func SSAFunString(fun *ssa.Function) string {
	if fun == nil {
		return funColor("<no fun>")
	}
	return funColor(fun.String())
}

func SSABlockString(blk *ssa.BasicBlock) string {
	if blk == nil {
		return SSAFunString(nil)
	}
	return SSAFunString(blk.Parent()) + ":" + blkColor(fmt.Sprintf("%d", blk.Index))
}

func SSAValString(v ssa.Value) string {
	var name string
	if v != nil {
		name = v.Name() + " "
	}
	switch v := v.(type) {
	case ssa.Instruction:
		return SSABlockString(v.Block()) + ": " + nameColor(name) + "= " + insColor(v.String())
	default:
		if v == nil {
			return ""
		}
		return SSAFunString(v.Parent()) + ": " + insColor(v.String())
	}
}
