package defs

import (
	u "github.com/cs-au-dk/gaia/utils"

	c "github.com/fatih/color"
)

type factory struct{}

// Create returns a factory for which the methods are used to create
// analysis definitions.
func Create() factory {
	return factory{}
}

var colorize = struct {
	Ctx  func(...interface{}) string
	Site func(...interface{}) string
	Fun  func(...interface{}) string
}{
	Ctx: func(is ...interface{}) string {
		return u.CanColorize(c.New(c.FgHiMagenta).SprintFunc())(is...)
	},
	Site: func(is ...interface{}) string {
		return u.CanColorize(c.New(c.FgHiBlue).SprintFunc())(is...)
	},
	Fun: func(is ...interface{}) string {
		return u.CanColorize(c.New(c.FgHiYellow).SprintFunc())(is...)
	},
}
