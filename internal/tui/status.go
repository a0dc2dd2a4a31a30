package tui

import (
	"fmt"
	"io"

	"github.com/fatih/color"
)

var (
	successText = color.New(color.FgGreen).SprintFunc()
	warnText    = color.New(color.FgYellow).SprintFunc()
	errorText   = color.New(color.FgRed).SprintFunc()
)

// Success prints a green status line.
func Success(out io.Writer, format string, args ...any) {
	fmt.Fprintln(out, successText(fmt.Sprintf(format, args...)))
}

// Warn prints a yellow status line.
func Warn(out io.Writer, format string, args ...any) {
	fmt.Fprintln(out, warnText(fmt.Sprintf(format, args...)))
}

// Error prints a red status line.
func Error(out io.Writer, format string, args ...any) {
	fmt.Fprintln(out, errorText(fmt.Sprintf(format, args...)))
}
