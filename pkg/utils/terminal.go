package utils

import (
	"io"
	"os"

	"golang.org/x/term"
)

const (
	disableWrap = "\x1b[?7l"
	enableWrap  = "\x1b[?7h"

	// ClearScreen moves the cursor home and clears the terminal.
	ClearScreen = "\x1b[H\x1b[2J"
)

// IsTerminal reports whether f is attached to a terminal.
func IsTerminal(f *os.File) bool {
	if f == nil {
		return false
	}
	return term.IsTerminal(int(f.Fd()))
}

// NoWrap turns terminal line wrapping off on w and returns the function
// turning it back on. Nothing is written unless terminal is set.
func NoWrap(w io.Writer, terminal bool) func() {
	if !terminal {
		return func() {}
	}
	_, _ = io.WriteString(w, disableWrap)
	return func() {
		_, _ = io.WriteString(w, enableWrap)
	}
}
