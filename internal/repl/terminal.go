package repl

import (
	"os"

	"golang.org/x/term"
)

// IsTerminal 判断文件是否连着终端 / IsTerminal reports whether f is attached to a terminal.
func IsTerminal(f *os.File) bool {
	return f != nil && term.IsTerminal(int(f.Fd()))
}

// TerminalWidth returns the column count of f, or 0 when it is not a terminal.
func TerminalWidth(f *os.File) int {
	if !IsTerminal(f) {
		return 0
	}
	w, _, err := term.GetSize(int(f.Fd()))
	if err != nil || w <= 0 {
		return 0
	}
	return w
}
