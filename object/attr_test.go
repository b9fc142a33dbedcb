package object

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/scaffold-io/scaffold/errors"
	"github.com/stretchr/testify/require"
)

type address struct {
	City string
}

type person struct {
	Name     string
	Nickname string `template:"nick"`
	Age      int
	Address  *address
	Tags     []string
	Greeter  func(string) string
	secret   string
}

func (p *person) Greet(greeting string) string {
	return greeting + ", " + p.Name
}

func (p *person) Initials() string {
	return strings.ToUpper(p.Name[:1])
}

func (p *person) Fail() (string, error) {
	return "", fmt.Errorf("failed on purpose")
}

// dynamic resolves attributes from a plain map and accepts assignment of
// any name.
type dynamic struct {
	values map[string]any
}

func (d *dynamic) GetAttr(name string) (any, bool) {
	v, ok := d.values[name]
	return v, ok
}

func (d *dynamic) SetAttr(name string, value any) error {
	d.values[name] = value
	return nil
}

type base struct {
	ID int64
}

type derived struct {
	base
	Title string
}

func getAttr(t *testing.T, obj, attr any) any {
	t.Helper()
	v, err := GetAttr(context.Background(), obj, attr, nil, false)
	require.NoError(t, err)
	return v
}

func TestGetAttrContainers(t *testing.T) {
	m := NewMapFrom(map[string]any{"a": int64(1), "1": "one"})
	require.Equal(t, int64(1), getAttr(t, m, "a"))
	require.Equal(t, "one", getAttr(t, m, int64(1)))
	require.Nil(t, getAttr(t, m, "missing"))
	require.Nil(t, getAttr(t, m, []any{}))

	list := []any{"x", "y"}
	require.Equal(t, "y", getAttr(t, list, int64(1)))
	require.Equal(t, "x", getAttr(t, list, "0"))
	require.Nil(t, getAttr(t, list, int64(5)))
	require.Nil(t, getAttr(t, list, "name"))

	require.Equal(t, "b", getAttr(t, []string{"a", "b"}, 1))
	require.Equal(t, 2, getAttr(t, map[string]int{"k": 2}, "k"))
	require.Equal(t, "v", getAttr(t, map[int]string{3: "v"}, "3"))
	require.Nil(t, getAttr(t, map[string]int{}, "k"))
	require.Nil(t, getAttr(t, nil, "k"))
	require.Nil(t, getAttr(t, int64(3), "k"))
	require.Nil(t, getAttr(t, "string", "length"))
}

func TestGetAttrStoredCallable(t *testing.T) {
	m := NewMap()
	m.Set("n", int64(2))
	m.Set("times", Func(func(ctx context.Context, args ...any) (any, error) {
		self := args[0].(*Map)
		n, _ := self.Get("n")
		return BinaryOp(3, n, args[1])
	}))

	// A plain access returns the callable itself.
	v := getAttr(t, m, "times")
	require.True(t, IsCallable(v))

	v, err := GetAttr(context.Background(), m, "times", []any{int64(5)}, true)
	require.NoError(t, err)
	require.Equal(t, int64(10), v)

	// Non-callable values are returned even for a call.
	v, err = GetAttr(context.Background(), m, "n", []any{}, true)
	require.NoError(t, err)
	require.Equal(t, int64(2), v)
}

func TestGetAttrRecords(t *testing.T) {
	p := &person{
		Name:     "ada",
		Nickname: "countess",
		Age:      36,
		Address:  &address{City: "London"},
		Greeter:  func(s string) string { return "hi " + s },
		secret:   "s",
	}
	require.Equal(t, "ada", getAttr(t, p, "Name"))
	require.Equal(t, "ada", getAttr(t, p, "name"))
	require.Equal(t, "countess", getAttr(t, p, "nick"))
	require.Equal(t, 36, getAttr(t, p, "age"))
	require.Nil(t, getAttr(t, p, "secret"))
	require.Nil(t, getAttr(t, p, "unknown"))

	// Zero-argument methods are called on plain access.
	require.Equal(t, "A", getAttr(t, p, "initials"))
	// Methods that need arguments are not.
	require.Nil(t, getAttr(t, p, "greet"))

	v, err := GetAttr(context.Background(), p, "greet", []any{"hello"}, true)
	require.NoError(t, err)
	require.Equal(t, "hello, ada", v)

	v, err = GetAttr(context.Background(), p, "greeter", []any{"bob"}, true)
	require.NoError(t, err)
	require.Equal(t, "hi bob", v)

	_, err = GetAttr(context.Background(), p, "fail", []any{}, true)
	require.EqualError(t, err, "failed on purpose")

	_, err = GetAttr(context.Background(), p, "greet", []any{}, true)
	require.EqualError(t, err, "greet() takes exactly 1 argument (0 given)")

	v, err = GetAttr(context.Background(), p, "missing", []any{}, true)
	require.NoError(t, err)
	require.Nil(t, v)

	// Struct values expose fields but not pointer methods.
	require.Equal(t, "ada", getAttr(t, *p, "name"))
	require.Nil(t, getAttr(t, *p, "initials"))

	require.Equal(t, int64(7), getAttr(t, &derived{base: base{ID: 7}}, "ID"))
	require.Equal(t, int64(7), getAttr(t, &derived{base: base{ID: 7}}, "iD"))
}

func TestGetAttrGetter(t *testing.T) {
	d := &dynamic{values: map[string]any{"color": "red"}}
	require.Equal(t, "red", getAttr(t, d, "color"))
	require.Nil(t, getAttr(t, d, "size"))
}

func TestSetAttrAutoVivifies(t *testing.T) {
	root, err := SetAttr(nil, []any{"a", "b", "c"}, int64(1))
	require.NoError(t, err)
	m := root.(*Map)
	a, _ := m.Get("a")
	b, _ := a.(*Map).Get("b")
	c, _ := b.(*Map).Get("c")
	require.Equal(t, int64(1), c)

	// Scalars along the path are replaced.
	root, err = SetAttr(m, []any{"a", "b", "c", "d"}, "x")
	require.NoError(t, err)
	require.Same(t, m, root)
	a, _ = m.Get("a")
	b, _ = a.(*Map).Get("b")
	c, _ = b.(*Map).Get("c")
	d, _ := c.(*Map).Get("d")
	require.Equal(t, "x", d)

	root, err = SetAttr("scalar", []any{"k"}, true)
	require.NoError(t, err)
	v, _ := root.(*Map).Get("k")
	require.Equal(t, true, v)

	root, err = SetAttr(int64(1), nil, "replaced")
	require.NoError(t, err)
	require.Equal(t, "replaced", root)
}

func TestSetAttrLists(t *testing.T) {
	root, err := SetAttr([]any{"a"}, []any{int64(0)}, "b")
	require.NoError(t, err)
	require.Equal(t, []any{"b"}, root)

	root, err = SetAttr([]any{"a"}, []any{int64(1)}, "b")
	require.NoError(t, err)
	require.Equal(t, []any{"a", "b"}, root)

	root, err = SetAttr([]any{"a"}, []any{"name"}, "b")
	require.NoError(t, err)
	m := root.(*Map)
	require.Equal(t, []string{"0", "name"}, m.Keys())
}

func TestSetAttrGoMap(t *testing.T) {
	gm := map[string]any{"a": int64(1)}
	root, err := SetAttr(gm, []any{"b", "c"}, "x")
	require.NoError(t, err)
	require.Equal(t, int64(1), gm["a"])
	inner := gm["b"].(*Map)
	v, _ := inner.Get("c")
	require.Equal(t, "x", v)
	require.Equal(t, gm, root)

	counts := map[string]int{}
	_, err = SetAttr(counts, []any{"n"}, "4")
	require.NoError(t, err)
	require.Equal(t, 4, counts["n"])

	_, err = SetAttr(counts, []any{"n"}, "four")
	require.Error(t, err)
	require.True(t, errors.IsKind(err, errors.InvalidAttribute))
}

func TestSetAttrRecords(t *testing.T) {
	p := &person{Name: "ada"}
	root, err := SetAttr(p, []any{"name"}, "grace")
	require.NoError(t, err)
	require.Same(t, p, root)
	require.Equal(t, "grace", p.Name)

	_, err = SetAttr(p, []any{"age"}, "41")
	require.NoError(t, err)
	require.Equal(t, 41, p.Age)

	require.Nil(t, p.Address)
	_, err = SetAttr(p, []any{"address", "city"}, "Paris")
	require.NoError(t, err)
	require.NotNil(t, p.Address)
	require.Equal(t, "Paris", p.Address.City)

	root, err = SetAttr((*address)(nil), []any{"city"}, "Rome")
	require.NoError(t, err)
	require.Equal(t, &address{City: "Rome"}, root)

	_, err = SetAttr(p, []any{"secret"}, "x")
	require.Error(t, err)
	require.True(t, errors.IsKind(err, errors.InaccessibleAttribute))
	require.Equal(t, "inaccessible secret object attribute", err.Error())

	_, err = SetAttr(p, []any{"unknown"}, "x")
	require.Error(t, err)
	require.True(t, errors.IsKind(err, errors.InvalidAttribute))

	// Struct values are copied.
	value := person{Name: "ada"}
	root, err = SetAttr(value, []any{"nick"}, "countess")
	require.NoError(t, err)
	require.Equal(t, "countess", root.(person).Nickname)
	require.Equal(t, "", value.Nickname)
}

func TestSetAttrSetter(t *testing.T) {
	d := &dynamic{values: map[string]any{}}
	_, err := SetAttr(d, []any{"color"}, "blue")
	require.NoError(t, err)
	require.Equal(t, "blue", d.values["color"])

	_, err = SetAttr(d, []any{"nested", "key"}, int64(1))
	require.NoError(t, err)
	nested := d.values["nested"].(*Map)
	v, _ := nested.Get("key")
	require.Equal(t, int64(1), v)
}

func TestSetAttrInvalidSegments(t *testing.T) {
	tests := []struct {
		segment  any
		expected string
	}{
		{nil, "invalid object attribute (null)"},
		{false, "invalid object attribute (false)"},
		{"", "invalid object attribute (empty string)"},
	}
	for _, tt := range tests {
		_, err := SetAttr(NewMap(), []any{"a", tt.segment}, int64(1))
		require.Error(t, err)
		require.Equal(t, tt.expected, err.Error())
		require.True(t, errors.IsKind(err, errors.InvalidAttribute))
	}
}
