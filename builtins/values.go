package builtins

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math"

	"github.com/hokaccha/go-prettyjson"
	"github.com/scaffold-io/scaffold/object"
)

// Abs returns the absolute value of a number.
func Abs(ctx context.Context, args ...any) (any, error) {
	if err := object.Require("abs", 1, args); err != nil {
		return nil, err
	}
	n, err := object.ToNumber(args[0])
	if err != nil {
		return nil, err
	}
	switch n := n.(type) {
	case int64:
		if n == math.MinInt64 {
			return -float64(n), nil
		}
		if n < 0 {
			return -n, nil
		}
		return n, nil
	case float64:
		return math.Abs(n), nil
	}
	return n, nil
}

// JSONEncode returns the JSON encoding of a value. HTML characters are not
// escaped; output escaping is left to escape.
func JSONEncode(ctx context.Context, args ...any) (any, error) {
	if err := object.Require("jsonEncode", 1, args); err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(jsonValue(ctx, args[0])); err != nil {
		return nil, fmt.Errorf("jsonEncode: %w", err)
	}
	return string(bytes.TrimRight(buf.Bytes(), "\n")), nil
}

// jsonValue converts the values encoding/json cannot handle on its own.
func jsonValue(ctx context.Context, v any) any {
	switch v := v.(type) {
	case *object.LoopContext:
		m := object.NewMap()
		for _, name := range []string{"index", "index0", "first", "last", "length"} {
			value, _ := v.GetAttr(name)
			m.Set(name, value)
		}
		return m
	case *object.Range, *object.Cycler:
		values, err := valuesOf(ctx, v)
		if err != nil {
			return nil
		}
		return values
	case float64:
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return 0
		}
	}
	return v
}

// Dump returns an indented JSON rendering of a value for debugging.
func Dump(ctx context.Context, args ...any) (any, error) {
	if err := object.Require("dump", 1, args); err != nil {
		return nil, err
	}
	f := prettyjson.NewFormatter()
	f.DisabledColor = true
	out, err := f.Marshal(jsonValue(ctx, args[0]))
	if err != nil {
		return nil, fmt.Errorf("dump: %w", err)
	}
	return string(out), nil
}
