// Package indenter renders nested lattice elements with one indentation
// level per nesting depth. Builders are values: every combinator returns
// the extended builder, so renderings compose without shared state.
package indenter

import (
	"fmt"
	"strings"
)

type indenter struct {
	buf   string
	level int
}

func Indenter() indenter {
	return indenter{}
}

func (i indenter) indent() string {
	return strings.Repeat("  ", i.level)
}

// Start opens a rendering with the given delimiter, typically a bracket.
func (i indenter) Start(str string) indenter {
	i.buf = str
	return i
}

type stringableString string

func (s stringableString) String() string {
	return string(s)
}

func (i indenter) NestStringsSep(sep string, strs ...string) indenter {
	stringers := make([]fmt.Stringer, len(strs))
	for idx, v := range strs {
		stringers[idx] = stringableString(v)
	}
	return i.NestSep(sep, stringers...)
}

// NestSep renders the given elements one level deeper, separated by sep.
// A single element is inlined instead of indented.
func (i indenter) NestSep(sep string, strs ...fmt.Stringer) indenter {
	if len(strs) == 1 {
		i.buf += strs[0].String()
		return i
	}

	i.level++
	for idx, str := range strs {
		i.buf += "\n" + i.indent() + str.String()
		if idx < len(strs)-1 {
			i.buf += sep
		}
	}
	i.level--
	i.buf += "\n"
	return i
}

// End closes the rendering with the given delimiter and returns the
// result.
func (i indenter) End(str string) string {
	if len(i.buf) > 0 && i.buf[len(i.buf)-1] == '\n' {
		return i.buf + i.indent() + str
	}
	return i.buf + str
}
