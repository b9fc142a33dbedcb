package errors

import (
	stderrors "errors"
	"fmt"
)

// Kind classifies a runtime failure.
type Kind string

const (
	UndefinedHelper       Kind = "undefined helper"
	UndefinedMacro        Kind = "undefined macro"
	InaccessibleAttribute Kind = "inaccessible attribute"
	InvalidAttribute      Kind = "invalid attribute"
	InheritanceCycle      Kind = "inheritance cycle"
	TemplateNotFound      Kind = "template not found"
	TypeError             Kind = "type error"
	DepthExceeded         Kind = "depth exceeded"
	HelperFailed          Kind = "helper failed"
	Internal              Kind = "internal error"
)

// RuntimeError is a failure raised while rendering a template. It carries
// the path of the template and the best known source line.
type RuntimeError struct {
	Kind    Kind
	Message string
	File    string
	Line    int
	Hint    string
	Stack   []StackFrame
	Cause   error
}

// Errorf returns a RuntimeError of the given kind without location; the
// virtual machine fills in the location when the error passes through it.
func Errorf(kind Kind, format string, args ...any) *RuntimeError {
	return &RuntimeError{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap returns a RuntimeError of the given kind that wraps cause.
func Wrap(kind Kind, cause error, format string, args ...any) *RuntimeError {
	e := Errorf(kind, format, args...)
	e.Cause = cause
	return e
}

func (e *RuntimeError) Error() string {
	msg := e.Message
	if e.Cause != nil {
		msg = fmt.Sprintf("%s (%s)", msg, e.Cause)
	}
	switch {
	case e.File != "" && e.Line > 0:
		return fmt.Sprintf("%s in %s line %d", msg, e.File, e.Line)
	case e.File != "":
		return fmt.Sprintf("%s in %s", msg, e.File)
	case e.Line > 0:
		return fmt.Sprintf("%s in line %d", msg, e.Line)
	}
	return msg
}

func (e *RuntimeError) Unwrap() error {
	return e.Cause
}

// HasLocation reports whether the error has been attributed to a template
// location.
func (e *RuntimeError) HasLocation() bool {
	return e.File != "" || e.Line > 0
}

// ToFormatted converts the error for use with a Formatter.
func (e *RuntimeError) ToFormatted() *FormattedError {
	msg := e.Message
	if e.Cause != nil {
		msg = fmt.Sprintf("%s (%s)", msg, e.Cause)
	}
	return &FormattedError{
		Kind:     string(e.Kind),
		Message:  msg,
		Filename: e.File,
		Line:     e.Line,
		Hint:     e.Hint,
		Stack:    e.Stack,
	}
}

// KindOf returns the kind of the first RuntimeError in err's chain, or an
// empty Kind when there is none.
func KindOf(err error) Kind {
	var rerr *RuntimeError
	if stderrors.As(err, &rerr) {
		return rerr.Kind
	}
	return ""
}

// IsKind reports whether err's chain contains a RuntimeError of kind k.
func IsKind(err error, k Kind) bool {
	for err != nil {
		var rerr *RuntimeError
		if !stderrors.As(err, &rerr) {
			return false
		}
		if rerr.Kind == k {
			return true
		}
		err = rerr.Cause
	}
	return false
}
