package builtins

import (
	"context"
	"strconv"
	"unicode/utf8"

	"github.com/scaffold-io/scaffold/object"
)

// entriesOf returns the keys and values of a value treated as a list. nil
// is empty and a value that is not iterable is a single entry.
func entriesOf(ctx context.Context, v any) ([]any, []any, error) {
	if v == nil {
		return nil, nil, nil
	}
	if !object.IsIterable(v) {
		return []any{int64(0)}, []any{v}, nil
	}
	it, _ := object.Iter(v)
	return object.Collect(ctx, it)
}

func valuesOf(ctx context.Context, v any) ([]any, error) {
	_, values, err := entriesOf(ctx, v)
	return values, err
}

// keyValue returns map keys that are canonical integers as integers.
func keyValue(k any) any {
	s, ok := k.(string)
	if !ok {
		return k
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil || strconv.FormatInt(n, 10) != s {
		return s
	}
	return n
}

// sizeOf returns the number of entries of a container without consuming
// single-pass iterators.
func sizeOf(ctx context.Context, v any) (int, bool, error) {
	if n, ok := object.Len(v); ok {
		return n, true, nil
	}
	if it, ok := v.(object.Iterable); ok {
		_, values, err := object.Collect(ctx, it.Iter())
		return len(values), true, err
	}
	return 0, false, nil
}

// Length returns the number of characters of a string or the number of
// entries of a container. nil has length 0 and any other value length 1.
func Length(ctx context.Context, args ...any) (any, error) {
	if err := object.Require("length", 1, args); err != nil {
		return nil, err
	}
	switch v := args[0].(type) {
	case nil:
		return int64(0), nil
	case string:
		return int64(utf8.RuneCountInString(v)), nil
	}
	if object.IsIterable(args[0]) {
		if n, ok, err := sizeOf(ctx, args[0]); ok || err != nil {
			return int64(n), err
		}
		values, err := valuesOf(ctx, args[0])
		return int64(len(values)), err
	}
	return int64(1), nil
}

// Join concatenates the string forms of the entries with a separator.
func Join(ctx context.Context, args ...any) (any, error) {
	if err := object.RequireRange("join", 1, 2, args); err != nil {
		return nil, err
	}
	values, err := valuesOf(ctx, args[0])
	if err != nil {
		return nil, err
	}
	sep := stringArg(args, 1, "")
	var out []byte
	for i, v := range values {
		if i > 0 {
			out = append(out, sep...)
		}
		out = append(out, object.ToString(v)...)
	}
	return string(out), nil
}

// Keys returns the keys of a container, or nil for any other value.
func Keys(ctx context.Context, args ...any) (any, error) {
	if err := object.Require("keys", 1, args); err != nil {
		return nil, err
	}
	if args[0] == nil || !object.IsIterable(args[0]) {
		return nil, nil
	}
	keys, _, err := entriesOf(ctx, args[0])
	if err != nil {
		return nil, err
	}
	result := make([]any, len(keys))
	for i, k := range keys {
		result[i] = keyValue(k)
	}
	return result, nil
}

// First returns the first character of a string or the first entry of a
// container, falling back to the second argument when there is none.
func First(ctx context.Context, args ...any) (any, error) {
	if err := object.RequireRange("first", 1, 2, args); err != nil {
		return nil, err
	}
	def := arg(args, 1)
	switch v := args[0].(type) {
	case nil:
		return def, nil
	case string:
		if v == "" {
			return def, nil
		}
		r, _ := utf8.DecodeRuneInString(v)
		return string(r), nil
	}
	if !object.IsIterable(args[0]) {
		return args[0], nil
	}
	it, _ := object.Iter(args[0])
	_, value, ok, err := it.Next(ctx)
	if err != nil {
		return nil, err
	}
	if !ok {
		return def, nil
	}
	return value, nil
}

// Last returns the last character of a string or the last entry of a
// container, falling back to the second argument when there is none.
func Last(ctx context.Context, args ...any) (any, error) {
	if err := object.RequireRange("last", 1, 2, args); err != nil {
		return nil, err
	}
	def := arg(args, 1)
	if s, ok := args[0].(string); ok {
		if s == "" {
			return def, nil
		}
		r, _ := utf8.DecodeLastRuneInString(s)
		return string(r), nil
	}
	values, err := valuesOf(ctx, args[0])
	if err != nil {
		return nil, err
	}
	if len(values) == 0 {
		return def, nil
	}
	return values[len(values)-1], nil
}

// DefaultValue returns its first argument unless it is nil, false, an empty
// string or an empty container, in which case it returns the second.
func DefaultValue(ctx context.Context, args ...any) (any, error) {
	if err := object.RequireRange("default", 1, 2, args); err != nil {
		return nil, err
	}
	switch v := args[0].(type) {
	case nil:
		return arg(args, 1), nil
	case bool:
		if !v {
			return arg(args, 1), nil
		}
		return v, nil
	case string:
		if v == "" {
			return arg(args, 1), nil
		}
		return v, nil
	}
	if n, ok := object.Len(args[0]); ok && n == 0 {
		return arg(args, 1), nil
	}
	return args[0], nil
}

func IsIterable(ctx context.Context, args ...any) (any, error) {
	if err := object.Require("isIterable", 1, args); err != nil {
		return nil, err
	}
	return object.IsIterable(args[0]), nil
}

// IsEmpty reports whether a value is nil, an empty string or an empty
// container. Single-pass iterators are never consumed and are reported as
// not empty.
func IsEmpty(ctx context.Context, args ...any) (any, error) {
	if err := object.Require("isEmpty", 1, args); err != nil {
		return nil, err
	}
	switch v := args[0].(type) {
	case nil:
		return true, nil
	case string:
		return v == "", nil
	case object.Iterator:
		return false, nil
	case object.Iterable:
		if l, ok := v.(object.Lengther); ok {
			return l.Len() == 0, nil
		}
		_, _, ok, err := v.Iter().Next(ctx)
		return !ok, err
	}
	if n, ok := object.Len(args[0]); ok {
		return n == 0, nil
	}
	return false, nil
}

// parity returns the number a parity test applies to: the value of a
// number or numeric string, the length of any other scalar and the size of
// a container.
func parity(ctx context.Context, v any) (int64, bool, error) {
	switch v := v.(type) {
	case nil:
		return 0, true, nil
	case bool, string:
		if object.IsNumeric(v) {
			n, err := object.ToInt(v)
			return n, err == nil, err
		}
		return int64(len(object.ToString(v))), true, nil
	}
	if object.IsNumeric(v) {
		n, err := object.ToInt(v)
		return n, err == nil, err
	}
	if object.IsIterable(v) {
		n, ok, err := sizeOf(ctx, v)
		return int64(n), ok, err
	}
	return 0, false, nil
}

func IsEven(ctx context.Context, args ...any) (any, error) {
	if err := object.Require("isEven", 1, args); err != nil {
		return nil, err
	}
	n, ok, err := parity(ctx, args[0])
	if err != nil || !ok {
		return false, err
	}
	return n%2 == 0, nil
}

func IsOdd(ctx context.Context, args ...any) (any, error) {
	if err := object.Require("isOdd", 1, args); err != nil {
		return nil, err
	}
	n, ok, err := parity(ctx, args[0])
	if err != nil || !ok {
		return false, err
	}
	return n%2 != 0, nil
}

// IsDivisibleBy reports whether a number is divisible by another. Non-numeric
// values and a zero divisor are never divisible.
func IsDivisibleBy(ctx context.Context, args ...any) (any, error) {
	if err := object.RequireRange("isDivisibleBy", 1, 2, args); err != nil {
		return nil, err
	}
	value, divisor := args[0], arg(args, 1)
	if divisor == nil || !object.IsNumeric(value) || !object.IsNumeric(divisor) {
		return false, nil
	}
	a, err := object.ToInt(value)
	if err != nil {
		return false, nil
	}
	b, err := object.ToInt(divisor)
	if err != nil || b == 0 {
		return false, nil
	}
	return a%b == 0, nil
}

// Range returns the sequence from the first to the second argument,
// inclusive, counting by the optional third.
func Range(ctx context.Context, args ...any) (any, error) {
	if err := object.RequireRange("range", 2, 3, args); err != nil {
		return nil, err
	}
	step := any(int64(1))
	if len(args) > 2 {
		step = args[2]
	}
	return object.NewRange(args[0], args[1], step)
}

// Cycle returns a cycler over the entries of its argument.
func Cycle(ctx context.Context, args ...any) (any, error) {
	if err := object.RequireRange("cycle", 0, 1, args); err != nil {
		return nil, err
	}
	values, err := valuesOf(ctx, arg(args, 0))
	if err != nil {
		return nil, err
	}
	return object.NewCycler(values), nil
}
