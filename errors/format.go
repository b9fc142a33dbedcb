package errors

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
)

// Formatter formats errors with optional colors and source context.
type Formatter struct {
	// UseColor enables ANSI color codes in output.
	UseColor bool
}

// NewFormatter creates a new error formatter.
func NewFormatter(useColor bool) *Formatter {
	return &Formatter{UseColor: useColor}
}

// Colors used for error formatting
var (
	colorError     = color.New(color.FgRed)
	colorErrorBold = color.New(color.FgHiRed, color.Bold)
	colorLocation  = color.New(color.FgCyan)
	colorLineNum   = color.New(color.FgHiBlack)
	colorSource    = color.New(color.FgWhite)
	colorCaret     = color.New(color.FgHiRed)
	colorHint      = color.New(color.FgHiYellow)
	colorNote      = color.New(color.FgHiBlue)
)

// FormattedError represents an error ready for display.
type FormattedError struct {
	Kind        string // "syntax error", "undefined macro", ...
	Message     string
	Filename    string
	Line        int
	Column      int
	EndColumn   int
	SourceLines []SourceLineEntry
	Hint        string
	Note        string
	Stack       []StackFrame
}

// SourceLineEntry represents a line of source text with its number.
type SourceLineEntry struct {
	Number int
	Text   string
	IsMain bool
}

// Format renders err. Errors that do not implement FormattableError are
// rendered as a single message line.
func (f *Formatter) Format(err error) string {
	if fe, ok := err.(FormattableError); ok {
		return f.FormatError(fe.ToFormatted())
	}
	return f.FormatError(&FormattedError{Message: err.Error()})
}

// FormatError formats a FormattedError.
func (f *Formatter) FormatError(err *FormattedError) string {
	return f.FormatWithPrefix(err, "")
}

// FormatWithPrefix formats the error with an optional prefix like "1/5".
func (f *Formatter) FormatWithPrefix(err *FormattedError, prefix string) string {
	var b strings.Builder
	width := 2
	if err.Line >= 100 {
		width = len(fmt.Sprintf("%d", err.Line))
	}
	f.writeHeader(&b, err, prefix)
	f.writeLocation(&b, err, width)
	f.writeSource(&b, err, width)
	if err.Hint != "" {
		f.writeAnnotation(&b, colorHint, "hint: ", err.Hint, width)
	}
	if err.Note != "" {
		f.writeAnnotation(&b, colorNote, "note: ", err.Note, width)
	}
	if len(err.Stack) > 0 {
		f.writeStack(&b, err.Stack, width)
	}
	return b.String()
}

// FormatMultiple formats several errors, numbering them when there is more
// than one.
func (f *Formatter) FormatMultiple(errs []error) string {
	if len(errs) == 0 {
		return ""
	}
	if len(errs) == 1 {
		return f.Format(errs[0])
	}
	var b strings.Builder
	total := len(errs)
	for i, err := range errs {
		if i > 0 {
			b.WriteString("\n")
		}
		fe := &FormattedError{Message: err.Error()}
		if ferr, ok := err.(FormattableError); ok {
			fe = ferr.ToFormatted()
		}
		b.WriteString(f.FormatWithPrefix(fe, fmt.Sprintf("%d/%d", i+1, total)))
	}
	b.WriteString("\n")
	b.WriteString(f.paint(colorErrorBold, fmt.Sprintf("found %d errors", total)))
	b.WriteString("\n")
	return b.String()
}

func (f *Formatter) paint(c *color.Color, s string) string {
	if !f.UseColor {
		return s
	}
	c.EnableColor()
	return c.Sprint(s)
}

func (f *Formatter) writeHeader(b *strings.Builder, err *FormattedError, prefix string) {
	label := "error"
	if err.Kind != "" {
		label = err.Kind
	}
	b.WriteString(f.paint(colorErrorBold, label))
	if prefix != "" {
		b.WriteString(f.paint(colorLineNum, "["+prefix+"]"))
	}
	b.WriteString(f.paint(colorError, ": "))
	b.WriteString(err.Message)
	b.WriteString("\n")
}

func (f *Formatter) writeLocation(b *strings.Builder, err *FormattedError, width int) {
	if err.Line == 0 && err.Filename == "" {
		return
	}
	loc := SourceLocation{Filename: err.Filename, Line: err.Line, Column: err.Column}
	b.WriteString(strings.Repeat(" ", width))
	b.WriteString(f.paint(colorLocation, "-->"))
	b.WriteString(" ")
	b.WriteString(f.paint(colorLocation, loc.String()))
	b.WriteString("\n")
}

func (f *Formatter) writeSource(b *strings.Builder, err *FormattedError, width int) {
	if len(err.SourceLines) == 0 {
		return
	}
	padding := strings.Repeat(" ", width)
	b.WriteString(padding)
	b.WriteString(f.paint(colorLineNum, " |\n"))
	for _, line := range err.SourceLines {
		b.WriteString(f.paint(colorLineNum, fmt.Sprintf("%*d | ", width, line.Number)))
		b.WriteString(f.paint(colorSource, line.Text))
		b.WriteString("\n")
		if !line.IsMain || err.Column <= 0 {
			continue
		}
		b.WriteString(padding)
		b.WriteString(f.paint(colorLineNum, " | "))
		b.WriteString(strings.Repeat(" ", err.Column-1))
		n := 1
		if err.EndColumn > err.Column {
			n = err.EndColumn - err.Column + 1
		}
		b.WriteString(f.paint(colorCaret, strings.Repeat("^", n)))
		b.WriteString("\n")
	}
}

func (f *Formatter) writeAnnotation(b *strings.Builder, c *color.Color, label, text string, width int) {
	padding := strings.Repeat(" ", width)
	b.WriteString(padding)
	b.WriteString(f.paint(colorLineNum, " = "))
	b.WriteString(f.paint(c, label))
	b.WriteString(text)
	b.WriteString("\n")
}

func (f *Formatter) writeStack(b *strings.Builder, stack []StackFrame, width int) {
	padding := strings.Repeat(" ", width)
	b.WriteString(padding)
	b.WriteString(f.paint(colorLineNum, " = "))
	b.WriteString(f.paint(colorNote, "stack trace:\n"))
	for _, frame := range stack {
		b.WriteString(padding)
		b.WriteString("     ")
		b.WriteString(frame.String())
		b.WriteString("\n")
	}
}
