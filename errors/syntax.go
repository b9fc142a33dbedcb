package errors

import "fmt"

// SyntaxError is raised by the token stream and the parser on an unexpected
// token, an unterminated construct or a tag used where it is not allowed.
type SyntaxError struct {
	Message    string
	Value      string // text of the offending token
	File       string
	Line       int
	Column     int
	SourceLine string
	Hint       string
}

// NewSyntaxError returns a SyntaxError located at the given line and column.
func NewSyntaxError(msg, value string, line, column int) *SyntaxError {
	return &SyntaxError{Message: msg, Value: value, Line: line, Column: column}
}

func (e *SyntaxError) Error() string {
	msg := fmt.Sprintf("%s in line %d char %d", e.Message, e.Line, e.Column)
	if e.File != "" {
		return e.File + ": " + msg
	}
	return msg
}

// WithSource attaches the template path and the offending source line.
func (e *SyntaxError) WithSource(file, source string) *SyntaxError {
	e.File = file
	e.SourceLine = sourceLine(source, e.Line)
	return e
}

// WithHint attaches a "did you mean" style hint.
func (e *SyntaxError) WithHint(hint string) *SyntaxError {
	e.Hint = hint
	return e
}

// ToFormatted converts the error for use with a Formatter.
func (e *SyntaxError) ToFormatted() *FormattedError {
	fe := &FormattedError{
		Kind:     "syntax error",
		Message:  e.Message,
		Filename: e.File,
		Line:     e.Line,
		Column:   e.Column,
		Hint:     e.Hint,
	}
	if e.Value != "" {
		fe.EndColumn = e.Column + len(e.Value) - 1
	}
	if e.SourceLine != "" {
		fe.SourceLines = []SourceLineEntry{{Number: e.Line, Text: e.SourceLine, IsMain: true}}
	}
	return fe
}
