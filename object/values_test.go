package object

import (
	"errors"
	"math"
	"testing"

	scaffolderrors "github.com/scaffold-io/scaffold/errors"
	"github.com/stretchr/testify/require"
)

type celsius float32

type label string

func TestTruthy(t *testing.T) {
	tests := []struct {
		value    any
		expected bool
	}{
		{nil, false},
		{false, false},
		{true, true},
		{int64(0), false},
		{int64(-1), true},
		{0.0, false},
		{0.5, true},
		{"", false},
		{"0", false},
		{"0.0", true},
		{" ", true},
		{[]any{}, false},
		{[]any{nil}, true},
		{NewMap(), false},
		{NewMapFrom(map[string]any{"a": 1}), true},
		{[]string{}, false},
		{map[string]int{"a": 1}, true},
		{uint8(3), true},
		{celsius(0), false},
		{label("x"), true},
		{(*Map)(nil), false},
		{struct{}{}, true},
	}
	for _, tt := range tests {
		require.Equal(t, tt.expected, Truthy(tt.value), "%#v", tt.value)
	}
}

func TestToString(t *testing.T) {
	tests := []struct {
		value    any
		expected string
	}{
		{nil, ""},
		{true, "1"},
		{false, ""},
		{int64(42), "42"},
		{7, "7"},
		{1.5, "1.5"},
		{2.0, "2"},
		{1e20, "1E+20"},
		{math.Inf(1), "INF"},
		{math.NaN(), "NAN"},
		{"abc", "abc"},
		{[]any{int64(1), "b", nil}, "1, b, "},
		{NewMapFrom(map[string]any{"a": "x", "b": "y"}), "x, y"},
		{[]byte("raw"), "raw"},
		{label("tag"), "tag"},
		{errors.New("boom"), "boom"},
		{uint16(9), "9"},
	}
	for _, tt := range tests {
		require.Equal(t, tt.expected, ToString(tt.value), "%#v", tt.value)
	}
}

func TestParseNumeric(t *testing.T) {
	tests := []struct {
		input    string
		expected any
		ok       bool
	}{
		{"12", int64(12), true},
		{" -3 ", int64(-3), true},
		{"+4", int64(4), true},
		{"1.25", 1.25, true},
		{".5", 0.5, true},
		{"5.", 5.0, true},
		{"1e3", 1000.0, true},
		{"1e", nil, false},
		{"abc", nil, false},
		{"12abc", nil, false},
		{"inf", nil, false},
		{"NaN", nil, false},
		{"0x1A", nil, false},
		{"1_000", nil, false},
		{"", nil, false},
		{".", nil, false},
	}
	for _, tt := range tests {
		got, ok := ParseNumeric(tt.input)
		require.Equal(t, tt.ok, ok, tt.input)
		require.Equal(t, tt.expected, got, tt.input)
	}
}

func TestToNumber(t *testing.T) {
	n, err := ToNumber(nil)
	require.NoError(t, err)
	require.Equal(t, int64(0), n)

	n, err = ToNumber(true)
	require.NoError(t, err)
	require.Equal(t, int64(1), n)

	n, err = ToNumber("2.5")
	require.NoError(t, err)
	require.Equal(t, 2.5, n)

	n, err = ToNumber(int32(7))
	require.NoError(t, err)
	require.Equal(t, int64(7), n)

	_, err = ToNumber("seven")
	require.Error(t, err)
	require.True(t, scaffolderrors.IsKind(err, scaffolderrors.TypeError))
	require.Equal(t, `non-numeric value "seven"`, err.Error())

	_, err = ToNumber([]any{})
	require.EqualError(t, err, "unsupported operand type list")

	i, err := ToInt(3.9)
	require.NoError(t, err)
	require.Equal(t, int64(3), i)

	_, err = ToInt(math.Inf(1))
	require.Error(t, err)

	f, err := ToFloat("3")
	require.NoError(t, err)
	require.Equal(t, 3.0, f)
}

func TestNormalize(t *testing.T) {
	require.Equal(t, int64(3), Normalize(int8(3)))
	require.Equal(t, float64(float32(1.5)), Normalize(float32(1.5)))
	require.Equal(t, "x", Normalize(label("x")))
	require.Equal(t, "x", Normalize("x"))
	list := []any{1}
	require.Equal(t, list, Normalize(list))
}

func TestIsNumeric(t *testing.T) {
	require.True(t, IsNumeric(3))
	require.True(t, IsNumeric("3.5"))
	require.False(t, IsNumeric("x"))
	require.False(t, IsNumeric(nil))
	require.False(t, IsNumeric(true))
}

func TestTypeName(t *testing.T) {
	require.Equal(t, "null", TypeName(nil))
	require.Equal(t, "int", TypeName(int64(1)))
	require.Equal(t, "int", TypeName(uint8(1)))
	require.Equal(t, "float", TypeName(float32(1)))
	require.Equal(t, "list", TypeName([]string{}))
	require.Equal(t, "map", TypeName(map[string]int{}))
	require.Equal(t, "map", TypeName(NewMap()))
	require.Equal(t, "function", TypeName(func() {}))
	require.Equal(t, "loop", TypeName(&LoopContext{}))
	require.Equal(t, "object.Args", TypeName(Args{}))
}
