package object

import (
	"math"
	"testing"

	"github.com/scaffold-io/scaffold/errors"
	"github.com/scaffold-io/scaffold/op"
	"github.com/stretchr/testify/require"
)

func TestBinaryOp(t *testing.T) {
	tests := []struct {
		op       op.BinaryOpType
		a, b     any
		expected any
	}{
		{op.Add, int64(1), int64(2), int64(3)},
		{op.Add, int64(1), 0.5, 1.5},
		{op.Add, "3", "4", int64(7)},
		{op.Add, nil, true, int64(1)},
		{op.Add, int64(math.MaxInt64), int64(1), float64(math.MaxInt64) + 1},
		{op.Subtract, int64(5), int64(7), int64(-2)},
		{op.Subtract, "1.5", int64(1), 0.5},
		{op.Multiply, int64(6), int64(7), int64(42)},
		{op.Multiply, int64(0), int64(7), int64(0)},
		{op.Multiply, 2, "2.5", 5.0},
		{op.Divide, int64(6), int64(3), int64(2)},
		{op.Divide, int64(7), int64(2), 3.5},
		{op.Modulo, int64(7), int64(3), 1.0},
		{op.Modulo, 7.5, int64(2), 1.5},
		{op.Modulo, int64(-7), int64(3), -1.0},
		{op.Concat, "a", int64(1), "a1"},
		{op.Concat, nil, true, "1"},
		{op.Join, "a", "b", "a b"},
		{op.Join, int64(1), 2.5, "1 2.5"},
		{op.Xor, true, false, true},
		{op.Xor, "x", int64(1), false},
		{op.Xor, nil, "", false},
	}
	for _, tt := range tests {
		got, err := BinaryOp(tt.op, tt.a, tt.b)
		require.NoError(t, err, "%v %s %v", tt.a, tt.op, tt.b)
		require.Equal(t, tt.expected, got, "%v %s %v", tt.a, tt.op, tt.b)
	}
}

func TestBinaryOpErrors(t *testing.T) {
	tests := []struct {
		op       op.BinaryOpType
		a, b     any
		expected string
	}{
		{op.Add, "a", int64(1), `non-numeric value "a"`},
		{op.Multiply, int64(1), []any{}, "unsupported operand type list"},
		{op.Divide, int64(1), int64(0), "division by zero"},
		{op.Divide, int64(1), "0.0", "division by zero"},
		{op.Modulo, int64(1), nil, "modulo by zero"},
	}
	for _, tt := range tests {
		_, err := BinaryOp(tt.op, tt.a, tt.b)
		require.Error(t, err)
		require.Equal(t, tt.expected, err.Error())
		require.True(t, errors.IsKind(err, errors.TypeError))
	}
}

func TestUnary(t *testing.T) {
	v, err := Negate(int64(3))
	require.NoError(t, err)
	require.Equal(t, int64(-3), v)

	v, err = Negate("2.5")
	require.NoError(t, err)
	require.Equal(t, -2.5, v)

	v, err = Negate(int64(math.MinInt64))
	require.NoError(t, err)
	require.Equal(t, -float64(math.MinInt64), v)

	_, err = Negate("x")
	require.Error(t, err)

	v, err = Positive("4")
	require.NoError(t, err)
	require.Equal(t, int64(4), v)

	v, err = Positive(false)
	require.NoError(t, err)
	require.Equal(t, int64(0), v)
}

func TestEqual(t *testing.T) {
	tests := []struct {
		a, b     any
		expected bool
	}{
		{nil, nil, true},
		{nil, false, true},
		{nil, int64(0), true},
		{nil, "", true},
		{nil, "0", false},
		{nil, []any{}, true},
		{true, "x", true},
		{false, "0", true},
		{int64(1), 1.0, true},
		{int64(1), "1", true},
		{"1", "01", true},
		{"1e1", "10", true},
		{"abc", "abc", true},
		{"abc", "ABC", false},
		{int64(0), "a", false},
		{"1", int64(1), true},
		{int(3), int64(3), true},
		{label("x"), "x", true},
		{[]any{int64(1), "2"}, []any{"1", int64(2)}, true},
		{[]any{int64(1)}, []any{int64(1), int64(2)}, false},
		{[]string{"a"}, []any{"a"}, true},
		{NewMapFrom(map[string]any{"a": int64(1)}), NewMapFrom(map[string]any{"a": "1"}), true},
		{NewMapFrom(map[string]any{"a": int64(1)}), NewMapFrom(map[string]any{"b": int64(1)}), false},
		{[]any{}, NewMap(), false},
	}
	for _, tt := range tests {
		require.Equal(t, tt.expected, Equal(tt.a, tt.b), "%#v == %#v", tt.a, tt.b)
		require.Equal(t, tt.expected, Equal(tt.b, tt.a), "%#v == %#v", tt.b, tt.a)
	}
}

func TestIdentical(t *testing.T) {
	tests := []struct {
		a, b     any
		expected bool
	}{
		{nil, nil, true},
		{nil, false, false},
		{int64(1), int64(1), true},
		{int64(1), 1.0, false},
		{int64(1), "1", false},
		{int(1), int64(1), true},
		{"a", "a", true},
		{[]any{int64(1)}, []any{int64(1)}, true},
		{[]any{int64(1)}, []any{"1"}, false},
		{NewMapFrom(map[string]any{"a": "x", "b": "y"}), NewMapFrom(map[string]any{"b": "y", "a": "x"}), true},
	}
	for _, tt := range tests {
		require.Equal(t, tt.expected, Identical(tt.a, tt.b), "%#v === %#v", tt.a, tt.b)
	}
	m1, m2 := NewMap(), NewMap()
	m1.Set("a", int64(1))
	m1.Set("b", int64(2))
	m2.Set("b", int64(2))
	m2.Set("a", int64(1))
	require.False(t, Identical(m1, m2))
	require.True(t, Equal(m1, m2))
}

func TestCompare(t *testing.T) {
	tests := []struct {
		op       string
		a, b     any
		expected bool
	}{
		{"<", int64(1), int64(2), true},
		{"<", int64(2), 1.5, false},
		{"<=", "2", int64(2), true},
		{">", "10", "9", true},
		{">", "abc", "abd", false},
		{">=", "b", "a", true},
		{"<", nil, int64(1), true},
		{">", true, false, true},
		{"<", "a", int64(1), false},
		{"==", "1.0", int64(1), true},
		{"!=", "a", "b", true},
		{"<>", int64(1), int64(1), false},
		{"===", int64(1), int64(1), true},
		{"!==", int64(1), "1", true},
		{"<", []any{int64(1)}, []any{int64(1), int64(0)}, true},
		{"<", []any{int64(1), int64(3)}, []any{int64(1), int64(2)}, false},
	}
	for _, tt := range tests {
		cop, ok := op.CompareOpFor(tt.op)
		require.True(t, ok, tt.op)
		got, err := Compare(cop, tt.a, tt.b)
		require.NoError(t, err)
		require.Equal(t, tt.expected, got, "%#v %s %#v", tt.a, tt.op, tt.b)
	}
}

func TestCompareIncomparable(t *testing.T) {
	_, err := Compare(op.LessThan, NewMap(), int64(1))
	require.Error(t, err)
	require.Equal(t, "cannot compare map with int", err.Error())
}

func TestContains(t *testing.T) {
	tests := []struct {
		haystack any
		needle   any
		expected bool
	}{
		{[]any{int64(1), int64(2)}, int64(2), true},
		{[]any{int64(1), int64(2)}, "2", true},
		{[]any{int64(1), int64(2)}, int64(3), false},
		{[]string{"a", "b"}, "b", true},
		{NewMapFrom(map[string]any{"k": "v"}), "v", true},
		{NewMapFrom(map[string]any{"k": "v"}), "k", false},
		{map[string]string{"k": "v"}, "v", true},
		{"abc", "abc", true},
		{"abc", "b", false},
		{int64(3), "3", true},
		{nil, nil, false},
		{[]any{}, nil, false},
	}
	for _, tt := range tests {
		require.Equal(t, tt.expected, Contains(tt.haystack, tt.needle), "%#v in %#v", tt.needle, tt.haystack)
	}
}
