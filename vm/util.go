package vm

import (
	"context"
	stderrors "errors"
	"reflect"
	"strconv"

	"github.com/scaffold-io/scaffold/bytecode"
	"github.com/scaffold-io/scaffold/errors"
	"github.com/scaffold-io/scaffold/object"
)

// annotate attributes a failure to the instruction the frame was running,
// unless a deeper frame already did.
func (m *machine) annotate(f *frame, err error) error {
	if err == ErrHalted || stderrors.Is(err, context.Canceled) || stderrors.Is(err, context.DeadlineExceeded) {
		return err
	}
	rerr, ok := err.(*errors.RuntimeError)
	if !ok {
		kind := errors.KindOf(err)
		if kind == "" {
			kind = errors.Internal
		}
		rerr = errors.Wrap(kind, err, "render failed")
	}
	if !rerr.HasLocation() {
		rerr.File = f.code.Filename()
		rerr.Line = f.code.LineAt(f.pos)
		rerr.Stack = m.captureStack()
	}
	return rerr
}

// locate attributes a failure that happened outside of any frame to the
// instruction at ip of code.
func locate(err error, code *bytecode.Code, ip int) error {
	if rerr, ok := err.(*errors.RuntimeError); ok && !rerr.HasLocation() {
		rerr.File = code.Filename()
		rerr.Line = code.LineAt(ip)
	}
	return err
}

// captureStack builds a stack trace from the active frames, innermost
// first.
func (m *machine) captureStack() []errors.StackFrame {
	frames := make([]errors.StackFrame, 0, len(m.frames))
	for i := len(m.frames) - 1; i >= 0; i-- {
		f := m.frames[i]
		line := f.code.LineAt(f.pos)
		column := 0
		if loc := f.code.LocationAt(f.pos); loc.Line == line {
			column = loc.Column
		}
		frames = append(frames, errors.StackFrame{
			Function: f.code.ID(),
			Location: errors.SourceLocation{
				Filename: f.code.Filename(),
				Line:     line,
				Column:   column,
				Source:   f.code.GetSourceLine(line),
			},
		})
	}
	return frames
}

// detach copies the lists and maps along path below v, so that assigning
// through path does not change values shared with other frames or with the
// caller's data.
func detach(v any, path []any) any {
	switch c := v.(type) {
	case *object.Map:
		if c == nil {
			return v
		}
		c = c.Copy()
		if len(path) > 1 {
			if key, err := object.MapKey(path[0]); err == nil {
				if child, ok := c.Get(key); ok {
					c.Set(key, detach(child, path[1:]))
				}
			}
		}
		return c
	case []any:
		c = append([]any(nil), c...)
		if len(path) > 1 {
			if key, err := object.MapKey(path[0]); err == nil {
				if i, err := strconv.Atoi(key); err == nil && i >= 0 && i < len(c) {
					c[i] = detach(c[i], path[1:])
				}
			}
		}
		return c
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Map || rv.IsNil() {
		return v
	}
	c := reflect.MakeMapWithSize(rv.Type(), rv.Len())
	iter := rv.MapRange()
	for iter.Next() {
		c.SetMapIndex(iter.Key(), iter.Value())
	}
	if len(path) > 1 {
		if kv, err := object.ConvertTo(path[0], rv.Type().Key()); err == nil {
			if child := c.MapIndex(kv); child.IsValid() {
				if cv, err := object.ConvertTo(detach(child.Interface(), path[1:]), rv.Type().Elem()); err == nil {
					c.SetMapIndex(kv, cv)
				}
			}
		}
	}
	return c.Interface()
}
