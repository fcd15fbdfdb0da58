// Package printer formats operator-facing CLI output.
package printer

import (
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/fatih/color"
)

var (
	// Out receives regular output; Err receives fatal error reports.
	Out io.Writer = os.Stdout
	Err io.Writer = os.Stderr

	green  = color.New(color.FgGreen)
	yellow = color.New(color.FgYellow)
	red    = color.New(color.FgRed, color.Bold)
	cyan   = color.New(color.FgCyan)
)

// Success prints a green line prefixed with a checkmark.
func Success(format string, a ...any) {
	green.Fprintf(Out, "✓ %s\n", fmt.Sprintf(format, a...))
}

// Warning prints a yellow line.
func Warning(format string, a ...any) {
	yellow.Fprintf(Out, "⚠️  %s\n", fmt.Sprintf(format, a...))
}

// Step prints a cyan progress line.
func Step(format string, a ...any) {
	cyan.Fprintf(Out, "→ %s\n", fmt.Sprintf(format, a...))
}

// Printf prints plain output.
func Printf(format string, a ...any) {
	fmt.Fprintf(Out, format, a...)
}

// Fatal prints a startup failure with its cause and the settings involved to
// Err, and returns an error carrying only the title for cobra's exit path.
func Fatal(title string, cause error, details map[string]string) error {
	red.Fprintf(Err, "%s\n", title)

	if cause != nil {
		fmt.Fprintf(Err, "\n%v\n", cause)
	}

	if len(details) > 0 {
		keys := make([]string, 0, len(details))
		for k := range details {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		fmt.Fprintf(Err, "\n")
		for _, k := range keys {
			fmt.Fprintf(Err, "  %s: %s\n", k, details[k])
		}
	}

	return fmt.Errorf("%s", title)
}
