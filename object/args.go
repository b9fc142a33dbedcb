package object

import "strconv"

// Args holds the arguments of a macro call or yield: positional values in
// order and keyword values by name.
type Args struct {
	Positional []any
	Named      *Map
}

// NewArgs returns an empty argument set.
func NewArgs() *Args {
	return &Args{Named: NewMap()}
}

// Add appends an argument. A nil name marks a positional argument.
func (a *Args) Add(name, value any) error {
	if name == nil {
		a.Positional = append(a.Positional, value)
		return nil
	}
	key, err := MapKey(name)
	if err != nil {
		return err
	}
	a.Named.Set(key, value)
	return nil
}

// Lookup resolves a declared parameter: the keyword argument with that
// name, then the positional argument at index.
func (a *Args) Lookup(name string, index int) (any, bool) {
	if a == nil {
		return nil, false
	}
	if v, ok := a.Named.Get(name); ok {
		return v, true
	}
	if index >= 0 && index < len(a.Positional) {
		return a.Positional[index], true
	}
	return nil, false
}

// Map returns the arguments as a single map: keyword arguments first, then
// positional arguments under their index.
func (a *Args) Map() *Map {
	m := a.Named.Copy()
	for i, v := range a.Positional {
		key := strconv.Itoa(i)
		if !m.Has(key) {
			m.Set(key, v)
		}
	}
	return m
}

// Require checks that a call received exactly count arguments.
func Require(funcName string, count int, args []any) error {
	n := len(args)
	if n != count {
		if count == 1 {
			return typeErrorf("args error: %s() takes exactly 1 argument (%d given)", funcName, n)
		}
		return typeErrorf("args error: %s() takes exactly %d arguments (%d given)", funcName, count, n)
	}
	return nil
}

// RequireRange checks that a call received between min and max arguments.
func RequireRange(funcName string, min, max int, args []any) error {
	n := len(args)
	if n < min {
		return typeErrorf("args error: %s() takes at least %d %s (%d given)",
			funcName, min, pluralize("argument", min != 1), n)
	} else if n > max {
		return typeErrorf("args error: %s() takes at most %d %s (%d given)",
			funcName, max, pluralize("argument", max != 1), n)
	}
	return nil
}

func pluralize(s string, do bool) string {
	if do {
		return s + "s"
	}
	return s
}
