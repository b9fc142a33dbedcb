// Package errors defines the syntax and runtime errors raised while
// compiling and rendering templates, along with their formatting.
package errors

import (
	"fmt"
	"strings"
)

// SourceLocation represents a position in template source.
type SourceLocation struct {
	Filename string
	Line     int    // 1-based line number
	Column   int    // 1-based column number
	Source   string // The line of source text
}

// String returns a formatted string representation of the source location.
func (s SourceLocation) String() string {
	if s.Filename != "" {
		if s.Column > 0 {
			return fmt.Sprintf("%s:%d:%d", s.Filename, s.Line, s.Column)
		}
		return fmt.Sprintf("%s:%d", s.Filename, s.Line)
	}
	return fmt.Sprintf("%d:%d", s.Line, s.Column)
}

// IsZero returns true if the location has not been set.
func (s SourceLocation) IsZero() bool {
	return s.Line == 0 && s.Column == 0
}

// StackFrame represents one active template unit (display entry point,
// block, macro or include) at the time of a failure.
type StackFrame struct {
	Function string
	Location SourceLocation
}

// String returns a formatted string representation of the stack frame.
func (f StackFrame) String() string {
	if f.Function != "" {
		return fmt.Sprintf("at %s (%s)", f.Function, f.Location.String())
	}
	return fmt.Sprintf("at %s", f.Location.String())
}

// FormatStackTrace formats a slice of stack frames as a human-readable string.
func FormatStackTrace(frames []StackFrame) string {
	if len(frames) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString("Stack trace:\n")
	for _, frame := range frames {
		b.WriteString("  ")
		b.WriteString(frame.String())
		b.WriteString("\n")
	}
	return b.String()
}

// FormattableError is an interface for errors that can be rendered by the
// Formatter with source context.
type FormattableError interface {
	Error() string
	ToFormatted() *FormattedError
}

// sourceLine returns the 1-based line of the given source text.
func sourceLine(source string, line int) string {
	if source == "" || line < 1 {
		return ""
	}
	lines := strings.Split(source, "\n")
	if line > len(lines) {
		return ""
	}
	return lines[line-1]
}
