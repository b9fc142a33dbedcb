package object

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMapOrder(t *testing.T) {
	m := NewMap()
	m.Set("b", int64(1))
	m.Set("a", int64(2))
	m.Set("b", int64(3))
	require.Equal(t, []string{"b", "a"}, m.Keys())
	require.Equal(t, []any{int64(3), int64(2)}, m.Values())
	require.Equal(t, 2, m.Len())

	m.Delete("b")
	require.Equal(t, []string{"a"}, m.Keys())
	require.False(t, m.Has("b"))
	m.Delete("missing")
	require.Equal(t, 1, m.Len())
}

func TestMapAppend(t *testing.T) {
	m := NewMap()
	m.Append("x")
	m.Set("5", "y")
	m.Append("z")
	m.Set("name", "n")
	m.Append("w")
	require.Equal(t, []string{"0", "5", "6", "name", "7"}, m.Keys())

	// Non-canonical integer strings do not move the next index.
	m2 := NewMap()
	m2.Set("07", "a")
	m2.Append("b")
	require.Equal(t, []string{"07", "0"}, m2.Keys())
}

func TestMapKey(t *testing.T) {
	tests := []struct {
		input    any
		expected string
	}{
		{"k", "k"},
		{nil, ""},
		{true, "1"},
		{false, "0"},
		{int64(12), "12"},
		{3.9, "3"},
		{uint8(4), "4"},
		{label("l"), "l"},
	}
	for _, tt := range tests {
		got, err := MapKey(tt.input)
		require.NoError(t, err)
		require.Equal(t, tt.expected, got)
	}
	_, err := MapKey([]any{})
	require.EqualError(t, err, "illegal key type list")
	_, err = MapKey(math.NaN())
	require.EqualError(t, err, "invalid key NAN")
}

func TestMapCopyAndMerge(t *testing.T) {
	m := NewMapFrom(map[string]any{"a": int64(1), "b": int64(2)})
	c := m.Copy()
	c.Set("a", int64(10))
	v, _ := m.Get("a")
	require.Equal(t, int64(1), v)

	other := NewMapFrom(map[string]any{"b": "other", "c": "new"})
	merged := m.Merge(other)
	require.Equal(t, []string{"a", "b", "c"}, merged.Keys())
	v, _ = merged.Get("b")
	require.Equal(t, int64(2), v)
	require.Equal(t, 2, m.Len())

	require.Equal(t, m.Keys(), m.Merge(nil).Keys())
	require.Equal(t, map[string]any{"a": int64(1), "b": int64(2)}, m.Interface())
}

func TestMapJSON(t *testing.T) {
	m := NewMap()
	m.Set("z", int64(1))
	m.Set("a", []any{"x", nil})
	inner := NewMap()
	inner.Set("k", true)
	m.Set("m", inner)
	data, err := json.Marshal(m)
	require.NoError(t, err)
	require.Equal(t, `{"z":1,"a":["x",null],"m":{"k":true}}`, string(data))
}
