package object

import (
	"math"
	"reflect"
	"strings"

	"github.com/scaffold-io/scaffold/op"
)

// BinaryOp applies an arithmetic or string operator to two values.
func BinaryOp(opType op.BinaryOpType, a, b any) (any, error) {
	switch opType {
	case op.Concat:
		return ToString(a) + ToString(b), nil
	case op.Join:
		return ToString(a) + " " + ToString(b), nil
	case op.Xor:
		return Truthy(a) != Truthy(b), nil
	}
	x, err := ToNumber(a)
	if err != nil {
		return nil, err
	}
	y, err := ToNumber(b)
	if err != nil {
		return nil, err
	}
	xi, xInt := x.(int64)
	yi, yInt := y.(int64)
	bothInt := xInt && yInt
	switch opType {
	case op.Add:
		if bothInt {
			if sum := xi + yi; (sum > xi) == (yi > 0) {
				return sum, nil
			}
		}
		return toFloat(x) + toFloat(y), nil
	case op.Subtract:
		if bothInt {
			if diff := xi - yi; (diff < xi) == (yi > 0) {
				return diff, nil
			}
		}
		return toFloat(x) - toFloat(y), nil
	case op.Multiply:
		if bothInt {
			if xi == 0 || yi == 0 {
				return int64(0), nil
			}
			if p := xi * yi; p/yi == xi && !(xi == -1 && yi == math.MinInt64) && !(yi == -1 && xi == math.MinInt64) {
				return p, nil
			}
		}
		return toFloat(x) * toFloat(y), nil
	case op.Divide:
		if toFloat(y) == 0 {
			return nil, typeErrorf("division by zero")
		}
		if bothInt && xi%yi == 0 && !(xi == math.MinInt64 && yi == -1) {
			return xi / yi, nil
		}
		return toFloat(x) / toFloat(y), nil
	case op.Modulo:
		if toFloat(y) == 0 {
			return nil, typeErrorf("modulo by zero")
		}
		return math.Mod(toFloat(x), toFloat(y)), nil
	}
	return nil, typeErrorf("unknown operator %s", opType)
}

// Negate implements unary minus.
func Negate(v any) (any, error) {
	n, err := ToNumber(v)
	if err != nil {
		return nil, err
	}
	switch n := n.(type) {
	case int64:
		if n == math.MinInt64 {
			return -float64(n), nil
		}
		return -n, nil
	case float64:
		return -n, nil
	}
	return nil, typeErrorf("unsupported operand type %s", TypeName(v))
}

// Positive implements unary plus: it converts the value to a number.
func Positive(v any) (any, error) {
	return ToNumber(v)
}

// Compare applies a comparison operator. Equality is loose: numbers and
// numeric strings compare by value, booleans and nil compare by truthiness.
// Identity requires the same type and value.
func Compare(opType op.CompareOpType, a, b any) (bool, error) {
	switch opType {
	case op.Equal:
		return Equal(a, b), nil
	case op.NotEqual:
		return !Equal(a, b), nil
	case op.Identical:
		return Identical(a, b), nil
	case op.NotIdentical:
		return !Identical(a, b), nil
	}
	c, err := order(a, b)
	if err != nil {
		return false, err
	}
	switch opType {
	case op.LessThan:
		return c < 0, nil
	case op.LessThanOrEqual:
		return c <= 0, nil
	case op.GreaterThan:
		return c > 0, nil
	case op.GreaterThanOrEqual:
		return c >= 0, nil
	}
	return false, typeErrorf("unknown comparison %s", opType)
}

// Equal reports loose equality.
func Equal(a, b any) bool {
	a, b = Normalize(a), Normalize(b)
	switch x := a.(type) {
	case nil:
		switch y := b.(type) {
		case nil:
			return true
		case string:
			return y == ""
		}
		return !Truthy(b)
	case bool:
		return x == Truthy(b)
	case string:
		switch y := b.(type) {
		case nil:
			return x == ""
		case bool:
			return Truthy(x) == y
		case string:
			if nx, ok := ParseNumeric(x); ok {
				if ny, ok := ParseNumeric(y); ok {
					return compareNumbers(nx, ny) == 0
				}
			}
			return x == y
		case int64, float64:
			if nx, ok := ParseNumeric(x); ok {
				return compareNumbers(nx, y) == 0
			}
			return x == ToString(y)
		}
		return false
	case int64, float64:
		switch y := b.(type) {
		case nil, bool, string:
			return Equal(b, a)
		case int64, float64:
			return compareNumbers(x, y) == 0
		}
		return false
	}
	switch b.(type) {
	case nil, bool:
		return Equal(b, a)
	}
	if xs, ok := listOf(a); ok {
		ys, ok := listOf(b)
		if !ok || len(xs) != len(ys) {
			return false
		}
		for i := range xs {
			if !Equal(xs[i], ys[i]) {
				return false
			}
		}
		return true
	}
	if xm, ok := a.(*Map); ok {
		ym, ok := b.(*Map)
		if !ok || xm.Len() != ym.Len() {
			return false
		}
		for _, k := range xm.keys {
			yv, ok := ym.Get(k)
			if !ok || !Equal(xm.items[k], yv) {
				return false
			}
		}
		return true
	}
	return identicalValues(a, b)
}

// Identical reports strict equality: same type and same value.
func Identical(a, b any) bool {
	a, b = Normalize(a), Normalize(b)
	switch x := a.(type) {
	case nil:
		return b == nil
	case bool, string, int64, float64:
		return a == b
	case []any:
		y, ok := b.([]any)
		if !ok || len(x) != len(y) {
			return false
		}
		for i := range x {
			if !Identical(x[i], y[i]) {
				return false
			}
		}
		return true
	case *Map:
		y, ok := b.(*Map)
		if !ok || x.Len() != y.Len() {
			return false
		}
		for i, k := range x.keys {
			if y.keys[i] != k || !Identical(x.items[k], y.items[k]) {
				return false
			}
		}
		return true
	}
	return identicalValues(a, b)
}

func identicalValues(a, b any) bool {
	if a == nil || b == nil {
		return a == b
	}
	ta, tb := reflect.TypeOf(a), reflect.TypeOf(b)
	if ta != tb {
		return false
	}
	if ta.Comparable() {
		return a == b
	}
	return reflect.DeepEqual(a, b)
}

// order returns the ordering of a and b: negative, zero or positive.
func order(a, b any) (int, error) {
	a, b = Normalize(a), Normalize(b)
	switch a.(type) {
	case nil, bool:
		return compareBools(Truthy(a), Truthy(b)), nil
	}
	switch b.(type) {
	case nil, bool:
		return compareBools(Truthy(a), Truthy(b)), nil
	}
	nx, xNum := numericValue(a)
	ny, yNum := numericValue(b)
	if xNum && yNum {
		return compareNumbers(nx, ny), nil
	}
	xs, xStr := a.(string)
	ys, yStr := b.(string)
	switch {
	case xStr && yStr:
		return strings.Compare(xs, ys), nil
	case xStr && yNum:
		return strings.Compare(xs, ToString(b)), nil
	case xNum && yStr:
		return strings.Compare(ToString(a), ys), nil
	}
	if xl, ok := listOf(a); ok {
		if yl, ok := listOf(b); ok {
			if len(xl) != len(yl) {
				return compareInts(int64(len(xl)), int64(len(yl))), nil
			}
			for i := range xl {
				c, err := order(xl[i], yl[i])
				if err != nil || c != 0 {
					return c, err
				}
			}
			return 0, nil
		}
	}
	return 0, typeErrorf("cannot compare %s with %s", TypeName(a), TypeName(b))
}

// numericValue returns the number held by a number or numeric string.
func numericValue(v any) (any, bool) {
	if n, ok := numberOf(v); ok {
		return n, true
	}
	if s, ok := v.(string); ok {
		return ParseNumeric(s)
	}
	return nil, false
}

func compareNumbers(a, b any) int {
	ai, aInt := a.(int64)
	bi, bInt := b.(int64)
	if aInt && bInt {
		return compareInts(ai, bi)
	}
	x, y := toFloat(a), toFloat(b)
	switch {
	case x < y:
		return -1
	case x > y:
		return 1
	case x == y:
		return 0
	}
	// NaN is never equal to anything
	return 1
}

func compareInts(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func compareBools(a, b bool) int {
	switch {
	case a == b:
		return 0
	case b:
		return -1
	}
	return 1
}

// Contains implements the "in" operator. The haystack is searched by value
// using loose equality: lists by element, maps by value. Any other haystack
// is treated as a list holding only itself, and nil as an empty list.
func Contains(haystack, needle any) bool {
	switch h := haystack.(type) {
	case nil:
		return false
	case *Map:
		for _, k := range h.keys {
			if Equal(h.items[k], needle) {
				return true
			}
		}
		return false
	}
	if items, ok := listOf(haystack); ok {
		for _, item := range items {
			if Equal(item, needle) {
				return true
			}
		}
		return false
	}
	rv := reflect.ValueOf(haystack)
	if rv.Kind() == reflect.Map {
		iter := rv.MapRange()
		for iter.Next() {
			if Equal(iter.Value().Interface(), needle) {
				return true
			}
		}
		return false
	}
	return Equal(haystack, needle)
}

// listOf returns v as a []any when it is a list or a Go slice or array.
func listOf(v any) ([]any, bool) {
	if l, ok := v.([]any); ok {
		return l, true
	}
	if _, ok := v.([]byte); ok {
		return nil, false
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		return toList(rv), true
	}
	return nil, false
}
