package ux

import (
	"fmt"
	"io"

	"github.com/fatih/color"
)

var (
	bold   = color.New(color.Bold)
	dim    = color.New(color.Faint)
	red    = color.New(color.FgRed)
	green  = color.New(color.FgGreen)
	yellow = color.New(color.FgYellow)
	cyan   = color.New(color.FgCyan)
)

// Error prints err in the CLI error format.
func Error(w io.Writer, err error) {
	fmt.Fprintf(w, "%s %v\n", red.Sprint("error:"), err)
}

// Warn prints a warning line.
func Warn(w io.Writer, msg string) {
	fmt.Fprintf(w, "  %s %s\n", yellow.Sprint("⚠"), msg)
}

// Success prints a completion line.
func Success(w io.Writer, msg string) {
	fmt.Fprintf(w, "%s %s\n", green.Sprint("✓"), msg)
}

// Fail prints a failed check.
func Fail(w io.Writer, msg string) {
	fmt.Fprintf(w, "%s %s\n", red.Sprint("✗"), msg)
}

// Heading prints a bold section title preceded by a blank line.
func Heading(w io.Writer, title string) {
	fmt.Fprintf(w, "\n%s\n", bold.Sprint(title))
}

// KeyValue prints one aligned key and value.
func KeyValue(w io.Writer, key string, value any) {
	fmt.Fprintf(w, "  %s %v\n", bold.Sprintf("%-14s", key+":"), value)
}

// Path renders a file path for inline use.
func Path(p string) string {
	return cyan.Sprint(p)
}

// Muted renders secondary text.
func Muted(s string) string {
	return dim.Sprint(s)
}

// Warnings prints every error in errs as a warning.
func Warnings(w io.Writer, errs []error) {
	for _, err := range errs {
		Warn(w, err.Error())
	}
}
