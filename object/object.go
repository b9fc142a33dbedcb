// Package object implements the values templates operate on.
//
// Templates work on plain Go values rather than a wrapped object model.
// Scalars are nil, bool, string and any integer or float kind. Keyed
// containers are *Map, []any and any Go slice, array or map. Records are Go
// structs (usually through a pointer) and values implementing Getter or
// Setter. Callables are Func values and Go functions, which are invoked
// through reflection.
//
// The package provides the loose semantics the template language relies on:
// truthiness, string conversion, arithmetic and comparison, attribute access
// and assignment, and iteration with a loop context.
package object

import (
	"context"
	"reflect"
)

// Func is a callable template value.
type Func func(ctx context.Context, args ...any) (any, error)

// Getter is implemented by records that resolve attributes dynamically. It
// is consulted after direct field access fails.
type Getter interface {
	GetAttr(name string) (any, bool)
}

// Setter is implemented by records that accept assignment of attributes
// they do not declare as fields.
type Setter interface {
	SetAttr(name string, value any) error
}

// TypeName returns the template-level type name of a value, as used in
// error messages.
func TypeName(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case bool:
		return "bool"
	case string:
		return "string"
	case int64:
		return "int"
	case float64:
		return "float"
	case []any:
		return "list"
	case *Map:
		return "map"
	case *LoopContext:
		return "loop"
	case Func, *GoFunc:
		return "function"
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return "int"
	case reflect.Float32:
		return "float"
	case reflect.Slice, reflect.Array:
		return "list"
	case reflect.Map:
		return "map"
	case reflect.Func:
		return "function"
	case reflect.Chan:
		return "iterator"
	}
	return rv.Type().String()
}

// IsCallable reports whether v can be invoked with Call.
func IsCallable(v any) bool {
	switch v.(type) {
	case nil:
		return false
	case Func, *GoFunc:
		return true
	}
	return reflect.ValueOf(v).Kind() == reflect.Func
}

// Call invokes a callable value with the given arguments.
func Call(ctx context.Context, fn any, args ...any) (any, error) {
	switch fn := fn.(type) {
	case Func:
		return fn(ctx, args...)
	case func(context.Context, ...any) (any, error):
		return fn(ctx, args...)
	case *GoFunc:
		return fn.Call(ctx, args...)
	}
	rv := reflect.ValueOf(fn)
	if rv.Kind() != reflect.Func {
		return nil, typeErrorf("%s is not callable", TypeName(fn))
	}
	if rv.IsNil() {
		return nil, typeErrorf("cannot call a nil function")
	}
	return NewGoFunc(rv, rv.Type().String()).Call(ctx, args...)
}
