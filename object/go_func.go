package object

import (
	"context"
	"fmt"
	"reflect"
)

var (
	contextInterface = reflect.TypeOf((*context.Context)(nil)).Elem()
	errorInterface   = reflect.TypeOf((*error)(nil)).Elem()
	anyType          = reflect.TypeOf((*any)(nil)).Elem()
)

// GoFunc wraps an arbitrary Go function so templates can call it.
// Arguments are converted to the parameter types through reflection.
type GoFunc struct {
	fn         reflect.Value
	fnType     reflect.Type
	name       string
	numIn      int  // excluding context
	isVariadic bool // last parameter is variadic
	hasContext bool // first parameter is context.Context
	hasError   bool // last result is error
}

// NewGoFunc wraps the given function value. It panics if fn is not a func.
func NewGoFunc(fn reflect.Value, name string) *GoFunc {
	fnType := fn.Type()
	if fnType.Kind() != reflect.Func {
		panic(fmt.Sprintf("GoFunc: expected func, got %s", fnType.Kind()))
	}
	g := &GoFunc{
		fn:         fn,
		fnType:     fnType,
		name:       name,
		isVariadic: fnType.IsVariadic(),
	}
	if fnType.NumIn() > 0 && fnType.In(0).Implements(contextInterface) {
		g.hasContext = true
		g.numIn = fnType.NumIn() - 1
	} else {
		g.numIn = fnType.NumIn()
	}
	if fnType.NumOut() > 0 && fnType.Out(fnType.NumOut()-1).Implements(errorInterface) {
		g.hasError = true
	}
	return g
}

// Name returns the name used in error messages.
func (g *GoFunc) Name() string {
	return g.name
}

// Call invokes the wrapped function. A panic in the function is returned
// as an error.
func (g *GoFunc) Call(ctx context.Context, args ...any) (result any, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = typeErrorf("panic in %s: %v", g.name, r)
			result = nil
		}
	}()
	if err := g.validateArgCount(len(args)); err != nil {
		return nil, err
	}
	callArgs, err := g.buildCallArgs(ctx, args)
	if err != nil {
		return nil, err
	}
	var results []reflect.Value
	if g.isVariadic {
		results = g.fn.CallSlice(callArgs)
	} else {
		results = g.fn.Call(callArgs)
	}
	return g.processResults(results)
}

func (g *GoFunc) validateArgCount(n int) error {
	if g.isVariadic {
		if minArgs := g.numIn - 1; n < minArgs {
			return typeErrorf("%s() takes at least %d %s (%d given)", g.name, minArgs, pluralize("argument", minArgs != 1), n)
		}
		return nil
	}
	if n != g.numIn {
		return typeErrorf("%s() takes exactly %d %s (%d given)", g.name, g.numIn, pluralize("argument", g.numIn != 1), n)
	}
	return nil
}

func (g *GoFunc) buildCallArgs(ctx context.Context, args []any) ([]reflect.Value, error) {
	var callArgs []reflect.Value
	start := 0
	if g.hasContext {
		callArgs = append(callArgs, reflect.ValueOf(ctx))
		start = 1
	}
	fixed := len(args)
	if g.isVariadic {
		fixed = g.numIn - 1
	}
	for i := 0; i < fixed; i++ {
		v, err := ConvertTo(args[i], g.fnType.In(start+i))
		if err != nil {
			return nil, typeErrorf("%s: argument %d: %s", g.name, i+1, err)
		}
		callArgs = append(callArgs, v)
	}
	if g.isVariadic {
		sliceType := g.fnType.In(g.fnType.NumIn() - 1)
		rest := reflect.MakeSlice(sliceType, 0, len(args)-fixed)
		for i := fixed; i < len(args); i++ {
			v, err := ConvertTo(args[i], sliceType.Elem())
			if err != nil {
				return nil, typeErrorf("%s: argument %d: %s", g.name, i+1, err)
			}
			rest = reflect.Append(rest, v)
		}
		callArgs = append(callArgs, rest)
	}
	return callArgs, nil
}

func (g *GoFunc) processResults(results []reflect.Value) (any, error) {
	if g.hasError {
		last := results[len(results)-1]
		if !last.IsNil() {
			return nil, last.Interface().(error)
		}
		results = results[:len(results)-1]
	}
	switch len(results) {
	case 0:
		return nil, nil
	case 1:
		return results[0].Interface(), nil
	}
	items := make([]any, len(results))
	for i, r := range results {
		items[i] = r.Interface()
	}
	return items, nil
}

// ConvertTo converts a template value to the Go type t.
func ConvertTo(v any, t reflect.Type) (reflect.Value, error) {
	if t == anyType {
		if v == nil {
			return reflect.Zero(t), nil
		}
		return reflect.ValueOf(v), nil
	}
	if v == nil {
		switch t.Kind() {
		case reflect.Ptr, reflect.Interface, reflect.Slice, reflect.Map, reflect.Func, reflect.Chan:
			return reflect.Zero(t), nil
		}
		return reflect.Value{}, fmt.Errorf("cannot use null as %s", t)
	}
	rv := reflect.ValueOf(v)
	if rv.Type().AssignableTo(t) {
		return rv, nil
	}
	switch t.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, err := ToInt(v)
		if err != nil {
			return reflect.Value{}, err
		}
		return reflect.ValueOf(n).Convert(t), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		n, err := ToInt(v)
		if err != nil {
			return reflect.Value{}, err
		}
		if n < 0 {
			return reflect.Value{}, fmt.Errorf("cannot use negative value %d as %s", n, t)
		}
		return reflect.ValueOf(n).Convert(t), nil
	case reflect.Float32, reflect.Float64:
		f, err := ToFloat(v)
		if err != nil {
			return reflect.Value{}, err
		}
		return reflect.ValueOf(f).Convert(t), nil
	case reflect.String:
		return reflect.ValueOf(ToString(v)).Convert(t), nil
	case reflect.Bool:
		return reflect.ValueOf(Truthy(v)).Convert(t), nil
	case reflect.Slice:
		items, ok := listOf(v)
		if !ok {
			if m, isMap := v.(*Map); isMap {
				items, ok = m.Values(), true
			}
		}
		if !ok {
			break
		}
		out := reflect.MakeSlice(t, len(items), len(items))
		for i, item := range items {
			ev, err := ConvertTo(item, t.Elem())
			if err != nil {
				return reflect.Value{}, err
			}
			out.Index(i).Set(ev)
		}
		return out, nil
	case reflect.Map:
		m, ok := v.(*Map)
		if !ok || t.Key().Kind() != reflect.String {
			break
		}
		out := reflect.MakeMapWithSize(t, m.Len())
		for _, k := range m.keys {
			ev, err := ConvertTo(m.items[k], t.Elem())
			if err != nil {
				return reflect.Value{}, err
			}
			out.SetMapIndex(reflect.ValueOf(k).Convert(t.Key()), ev)
		}
		return out, nil
	}
	if rv.Type().ConvertibleTo(t) && rv.Kind() != reflect.String {
		return rv.Convert(t), nil
	}
	return reflect.Value{}, fmt.Errorf("cannot use %s as %s", TypeName(v), t)
}
