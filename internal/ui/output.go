package ui

import (
	"fmt"
	"io"

	"github.com/fatih/color"
)

var (
	stdout io.Writer = color.Output
	stderr io.Writer = color.Error
)

// SetOutput redirects regular and error output. Nil keeps the current writer.
func SetOutput(out, errOut io.Writer) {
	if out != nil {
		stdout = out
	}
	if errOut != nil {
		stderr = errOut
	}
}

// SetColorForcing overrides terminal detection. disable wins over force.
func SetColorForcing(force, disable bool) {
	switch {
	case disable:
		color.NoColor = true
	case force:
		color.NoColor = false
	}
}

// C paints s with c; a nil color leaves s untouched.
func C(c *color.Color, s string) string {
	if c == nil {
		return s
	}
	return c.Sprint(s)
}

func OK(msg string)   { fmt.Fprintln(stdout, C(current.Success, current.SymOK+" "+msg)) }
func Fail(msg string) { fmt.Fprintln(stderr, C(current.Error, current.SymFail+" "+msg)) }
func Hint(msg string) { fmt.Fprintln(stderr, C(current.Muted, msg)) }
