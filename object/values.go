package object

import (
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"
)

// Truthy reports whether a value counts as true in a condition. nil, false,
// numeric zero, "", "0" and empty containers are false. A loop context and
// any other value are true.
func Truthy(v any) bool {
	switch v := v.(type) {
	case nil:
		return false
	case bool:
		return v
	case int64:
		return v != 0
	case int:
		return v != 0
	case float64:
		return v != 0
	case string:
		return v != "" && v != "0"
	case []any:
		return len(v) > 0
	case *Map:
		return v != nil && v.Len() > 0
	case *LoopContext:
		return v != nil
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int() != 0
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return rv.Uint() != 0
	case reflect.Float32, reflect.Float64:
		return rv.Float() != 0
	case reflect.String:
		s := rv.String()
		return s != "" && s != "0"
	case reflect.Bool:
		return rv.Bool()
	case reflect.Slice, reflect.Map:
		return !rv.IsNil() && rv.Len() > 0
	case reflect.Array:
		return rv.Len() > 0
	case reflect.Ptr, reflect.Interface, reflect.Func, reflect.Chan:
		return !rv.IsNil()
	}
	return true
}

// ToString returns the string form of a value as it is written to output.
// nil and false become "", true becomes "1". Lists are written as their
// elements joined with ", ".
func ToString(v any) string {
	switch v := v.(type) {
	case nil:
		return ""
	case string:
		return v
	case bool:
		if v {
			return "1"
		}
		return ""
	case int64:
		return strconv.FormatInt(v, 10)
	case int:
		return strconv.Itoa(v)
	case float64:
		return formatFloat(v)
	case []any:
		parts := make([]string, len(v))
		for i, item := range v {
			parts[i] = ToString(item)
		}
		return strings.Join(parts, ", ")
	case *Map:
		return ToString(v.Values())
	case error:
		return v.Error()
	case fmt.Stringer:
		return v.String()
	}
	if n, ok := numberOf(v); ok {
		return ToString(n)
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.String:
		return rv.String()
	case reflect.Bool:
		return ToString(rv.Bool())
	case reflect.Slice, reflect.Array:
		if b, ok := v.([]byte); ok {
			return string(b)
		}
		return ToString(toList(rv))
	case reflect.Ptr:
		if rv.IsNil() {
			return ""
		}
	}
	return fmt.Sprint(v)
}

func formatFloat(f float64) string {
	switch {
	case math.IsInf(f, 1):
		return "INF"
	case math.IsInf(f, -1):
		return "-INF"
	case math.IsNaN(f):
		return "NAN"
	}
	if f == math.Trunc(f) && math.Abs(f) < 1e15 {
		return strconv.FormatFloat(f, 'f', -1, 64)
	}
	return strconv.FormatFloat(f, 'G', 14, 64)
}

// numberOf returns v as an int64 or float64 when v has a numeric kind.
func numberOf(v any) (any, bool) {
	switch v := v.(type) {
	case int64:
		return v, true
	case float64:
		return v, true
	case int:
		return int64(v), true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int(), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return int64(rv.Uint()), true
	case reflect.Float32, reflect.Float64:
		return rv.Float(), true
	}
	return nil, false
}

// ParseNumeric parses a numeric string: optional surrounding whitespace, a
// sign, digits with an optional fraction and an optional exponent. It
// returns an int64 when the string is integral and fits, a float64
// otherwise.
func ParseNumeric(s string) (any, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, false
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n, true
	}
	if !isNumericSyntax(s) {
		return nil, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		// Out of range values parse to +/-Inf along with an error.
		if ne, ok := err.(*strconv.NumError); ok && ne.Err == strconv.ErrRange {
			return f, true
		}
		return nil, false
	}
	return f, true
}

// isNumericSyntax rejects the forms strconv accepts but templates do not,
// such as "inf", "nan", hex floats and underscores.
func isNumericSyntax(s string) bool {
	i := 0
	if i < len(s) && (s[i] == '+' || s[i] == '-') {
		i++
	}
	digits := 0
	for i < len(s) && s[i] >= '0' && s[i] <= '9' {
		i++
		digits++
	}
	if i < len(s) && s[i] == '.' {
		i++
		for i < len(s) && s[i] >= '0' && s[i] <= '9' {
			i++
			digits++
		}
	}
	if digits == 0 {
		return false
	}
	if i < len(s) && (s[i] == 'e' || s[i] == 'E') {
		i++
		if i < len(s) && (s[i] == '+' || s[i] == '-') {
			i++
		}
		exp := 0
		for i < len(s) && s[i] >= '0' && s[i] <= '9' {
			i++
			exp++
		}
		if exp == 0 {
			return false
		}
	}
	return i == len(s)
}

// IsNumeric reports whether v is a number or a numeric string.
func IsNumeric(v any) bool {
	if _, ok := numberOf(v); ok {
		return true
	}
	if s, ok := v.(string); ok {
		_, ok := ParseNumeric(s)
		return ok
	}
	return false
}

// ToNumber converts a value for arithmetic. nil is 0, booleans are 0 or 1,
// and numeric strings are parsed. Any other value is a type error.
func ToNumber(v any) (any, error) {
	if n, ok := numberOf(v); ok {
		return n, nil
	}
	switch v := v.(type) {
	case nil:
		return int64(0), nil
	case bool:
		if v {
			return int64(1), nil
		}
		return int64(0), nil
	case string:
		if n, ok := ParseNumeric(v); ok {
			return n, nil
		}
		return nil, typeErrorf("non-numeric value %q", v)
	}
	return nil, typeErrorf("unsupported operand type %s", TypeName(v))
}

// ToInt converts a value to an integer, truncating floats.
func ToInt(v any) (int64, error) {
	n, err := ToNumber(v)
	if err != nil {
		return 0, err
	}
	switch n := n.(type) {
	case int64:
		return n, nil
	case float64:
		if math.IsNaN(n) || math.IsInf(n, 0) {
			return 0, typeErrorf("cannot convert %s to an integer", formatFloat(n))
		}
		return int64(n), nil
	}
	return 0, nil
}

// ToFloat converts a value to a float.
func ToFloat(v any) (float64, error) {
	n, err := ToNumber(v)
	if err != nil {
		return 0, err
	}
	return toFloat(n), nil
}

func toFloat(n any) float64 {
	switch n := n.(type) {
	case int64:
		return float64(n)
	case float64:
		return n
	}
	return 0
}

// Normalize converts Go scalars to the canonical template representation:
// integer kinds become int64, float kinds float64 and string kinds string.
// Other values are returned unchanged.
func Normalize(v any) any {
	switch v.(type) {
	case nil, bool, string, int64, float64, []any, *Map:
		return v
	}
	if n, ok := numberOf(v); ok {
		return n
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.String:
		return rv.String()
	case reflect.Bool:
		return rv.Bool()
	}
	return v
}

// toList copies a Go slice or array into a []any.
func toList(rv reflect.Value) []any {
	items := make([]any, rv.Len())
	for i := range items {
		items[i] = rv.Index(i).Interface()
	}
	return items
}
