package object

import (
	"context"
	"reflect"
	"strconv"
	"strings"
	"sync"
	"unicode"
	"unicode/utf8"

	"github.com/scaffold-io/scaffold/errors"
)

// GetAttr resolves obj.attr. When call is set the access is a method-style
// call with args.
//
// Keyed containers look attr up as a key. A callable stored under the key
// is invoked, with obj prepended to args, only for a method-style call.
// Records are probed in order: field, Getter, then a method named attr
// (called with args, or with no arguments for a plain access). Anything
// that does not resolve yields nil rather than an error.
func GetAttr(ctx context.Context, obj, attr any, args []any, call bool) (any, error) {
	switch o := obj.(type) {
	case nil:
		return nil, nil
	case *Map:
		key, err := MapKey(attr)
		if err != nil {
			return nil, nil
		}
		v, ok := o.Get(key)
		if !ok {
			return nil, nil
		}
		return invokeStored(ctx, obj, v, args, call)
	case []any:
		i, ok := indexOf(attr)
		if !ok || i < 0 || i >= len(o) {
			return nil, nil
		}
		return invokeStored(ctx, obj, o[i], args, call)
	}
	rv := reflect.ValueOf(obj)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		if _, isBytes := obj.([]byte); isBytes {
			break
		}
		i, ok := indexOf(attr)
		if !ok || i < 0 || i >= rv.Len() {
			return nil, nil
		}
		return invokeStored(ctx, obj, rv.Index(i).Interface(), args, call)
	case reflect.Map:
		kv, err := ConvertTo(attr, rv.Type().Key())
		if err != nil {
			return nil, nil
		}
		v := rv.MapIndex(kv)
		if !v.IsValid() {
			return nil, nil
		}
		return invokeStored(ctx, obj, v.Interface(), args, call)
	}
	name, ok := attrName(attr)
	if !ok {
		return nil, nil
	}
	if call {
		if m, ok := methodOf(rv, name); ok {
			return NewGoFunc(m, name).Call(ctx, args...)
		}
		if f, ok := fieldOf(rv, name); ok && IsCallable(f.Interface()) {
			return Call(ctx, f.Interface(), args...)
		}
		return nil, nil
	}
	if f, ok := fieldOf(rv, name); ok {
		return f.Interface(), nil
	}
	if g, ok := obj.(Getter); ok {
		if v, ok := g.GetAttr(name); ok {
			return v, nil
		}
	}
	if m, ok := methodOf(rv, name); ok {
		fn := NewGoFunc(m, name)
		if fn.numIn == 0 || (fn.isVariadic && fn.numIn == 1) {
			return fn.Call(ctx)
		}
	}
	return nil, nil
}

func invokeStored(ctx context.Context, obj, v any, args []any, call bool) (any, error) {
	if !call || !IsCallable(v) {
		return v, nil
	}
	callArgs := make([]any, 0, len(args)+1)
	callArgs = append(callArgs, obj)
	callArgs = append(callArgs, args...)
	return Call(ctx, v, callArgs...)
}

// indexOf converts an attribute to a list index.
func indexOf(attr any) (int, bool) {
	switch a := attr.(type) {
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(a))
		return n, err == nil
	case bool:
		if a {
			return 1, true
		}
		return 0, true
	}
	n, ok := numberOf(attr)
	if !ok {
		return 0, false
	}
	switch n := n.(type) {
	case int64:
		return int(n), true
	case float64:
		return int(n), true
	}
	return 0, false
}

func attrName(attr any) (string, bool) {
	switch a := attr.(type) {
	case string:
		return a, a != ""
	case nil, bool:
		return "", false
	}
	s := ToString(attr)
	return s, s != ""
}

// SetAttr assigns value at path below root and returns the new root, which
// the caller must store back. Missing intermediate containers are created
// as empty maps and scalars along the path are replaced by maps.
func SetAttr(root any, path []any, value any) (any, error) {
	if len(path) == 0 {
		return value, nil
	}
	seg, rest := path[0], path[1:]
	if err := checkSegment(seg); err != nil {
		return nil, err
	}
	switch o := root.(type) {
	case *Map:
		key, err := MapKey(seg)
		if err != nil {
			return nil, err
		}
		child, _ := o.Get(key)
		child, err = SetAttr(child, rest, value)
		if err != nil {
			return nil, err
		}
		o.Set(key, child)
		return o, nil
	case []any:
		key, err := MapKey(seg)
		if err != nil {
			return nil, err
		}
		if i, err := strconv.Atoi(key); err == nil && strconv.Itoa(i) == key && i >= 0 && i <= len(o) {
			var child any
			if i < len(o) {
				child = o[i]
			}
			child, err := SetAttr(child, rest, value)
			if err != nil {
				return nil, err
			}
			if i == len(o) {
				return append(o, child), nil
			}
			o[i] = child
			return o, nil
		}
		m := NewMap()
		for _, item := range o {
			m.Append(item)
		}
		return SetAttr(m, path, value)
	}
	rv := reflect.ValueOf(root)
	switch rv.Kind() {
	case reflect.Map:
		return setGoMapEntry(rv, seg, rest, value)
	case reflect.Ptr:
		if rv.Type().Elem().Kind() != reflect.Struct {
			break
		}
		if rv.IsNil() {
			rv = reflect.New(rv.Type().Elem())
			root = rv.Interface()
		}
		if err := setRecordAttr(root, rv.Elem(), seg, rest, value); err != nil {
			return nil, err
		}
		return root, nil
	case reflect.Struct:
		// Struct values are copied so the assignment has an addressable target.
		copied := reflect.New(rv.Type()).Elem()
		copied.Set(rv)
		if err := setRecordAttr(root, copied, seg, rest, value); err != nil {
			return nil, err
		}
		return copied.Interface(), nil
	}
	if s, ok := root.(Setter); ok {
		return root, setDynamic(root, s, ToString(seg), rest, value)
	}
	return SetAttr(NewMap(), path, value)
}

func checkSegment(seg any) error {
	var token string
	switch s := seg.(type) {
	case nil:
		token = "null"
	case bool:
		if s {
			return nil
		}
		token = "false"
	case string:
		if s != "" {
			return nil
		}
		token = "empty string"
	default:
		return nil
	}
	return attrErrorf(errors.InvalidAttribute, "invalid object attribute (%s)", token)
}

func setGoMapEntry(rv reflect.Value, seg any, rest []any, value any) (any, error) {
	kv, err := ConvertTo(seg, rv.Type().Key())
	if err != nil {
		return nil, attrErrorf(errors.InvalidAttribute, "invalid key %s for %s", ToString(seg), rv.Type())
	}
	if rv.IsNil() {
		rv = reflect.MakeMap(rv.Type())
	}
	var child any
	if existing := rv.MapIndex(kv); existing.IsValid() {
		child = existing.Interface()
	}
	child, err = SetAttr(child, rest, value)
	if err != nil {
		return nil, err
	}
	cv, err := ConvertTo(child, rv.Type().Elem())
	if err != nil {
		return nil, attrErrorf(errors.InvalidAttribute, "cannot assign %s to %s entry: %s", TypeName(child), rv.Type(), err)
	}
	rv.SetMapIndex(kv, cv)
	return rv.Interface(), nil
}

// setRecordAttr assigns to a field of the addressable struct sv. obj is the
// value the struct was reached through, consulted for Getter and Setter.
func setRecordAttr(obj any, sv reflect.Value, seg any, rest []any, value any) error {
	name := ToString(seg)
	info := structInfoOf(sv.Type())
	if f, ok := info.field(name); ok {
		fv, err := sv.FieldByIndexErr(f.index)
		if err != nil || !fv.CanSet() {
			return attrErrorf(errors.InaccessibleAttribute, "inaccessible %s object attribute", name)
		}
		child, err := SetAttr(fv.Interface(), rest, value)
		if err != nil {
			return err
		}
		cv, err := ConvertTo(child, fv.Type())
		if err != nil {
			return attrErrorf(errors.InvalidAttribute, "cannot assign %s to attribute %s: %s", TypeName(child), name, err)
		}
		fv.Set(cv)
		return nil
	}
	if s, ok := obj.(Setter); ok {
		return setDynamic(obj, s, name, rest, value)
	}
	if info.unexported[name] {
		return attrErrorf(errors.InaccessibleAttribute, "inaccessible %s object attribute", name)
	}
	return attrErrorf(errors.InvalidAttribute, "undeclared %s object attribute", name)
}

func setDynamic(obj any, s Setter, name string, rest []any, value any) error {
	if len(rest) == 0 {
		return s.SetAttr(name, value)
	}
	var child any
	if g, ok := obj.(Getter); ok {
		child, _ = g.GetAttr(name)
	}
	child, err := SetAttr(child, rest, value)
	if err != nil {
		return err
	}
	return s.SetAttr(name, child)
}

type fieldInfo struct {
	index []int
}

type structInfo struct {
	fields     map[string]fieldInfo
	tagged     map[string]fieldInfo
	unexported map[string]bool
}

// field finds the field for a template attribute name: the Go field name,
// then a `template` tag, then the capitalized name.
func (s *structInfo) field(name string) (fieldInfo, bool) {
	if f, ok := s.fields[name]; ok {
		return f, true
	}
	if f, ok := s.tagged[name]; ok {
		return f, true
	}
	if f, ok := s.fields[capitalize(name)]; ok {
		return f, true
	}
	return fieldInfo{}, false
}

var structCache sync.Map // reflect.Type -> *structInfo

func structInfoOf(t reflect.Type) *structInfo {
	if cached, ok := structCache.Load(t); ok {
		return cached.(*structInfo)
	}
	info := &structInfo{
		fields:     map[string]fieldInfo{},
		tagged:     map[string]fieldInfo{},
		unexported: map[string]bool{},
	}
	for _, f := range reflect.VisibleFields(t) {
		if f.Anonymous && f.Type.Kind() == reflect.Struct {
			continue
		}
		if !f.IsExported() {
			info.unexported[f.Name] = true
			continue
		}
		fi := fieldInfo{index: f.Index}
		info.fields[f.Name] = fi
		if tag, ok := f.Tag.Lookup("template"); ok {
			if name, _, _ := strings.Cut(tag, ","); name != "" && name != "-" {
				info.tagged[name] = fi
			}
		}
	}
	actual, _ := structCache.LoadOrStore(t, info)
	return actual.(*structInfo)
}

// fieldOf returns the exported field of a struct (or pointer to struct)
// matching name.
func fieldOf(rv reflect.Value, name string) (reflect.Value, bool) {
	for rv.Kind() == reflect.Ptr || rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			return reflect.Value{}, false
		}
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return reflect.Value{}, false
	}
	f, ok := structInfoOf(rv.Type()).field(name)
	if !ok {
		return reflect.Value{}, false
	}
	fv, err := rv.FieldByIndexErr(f.index)
	if err != nil || !fv.CanInterface() {
		return reflect.Value{}, false
	}
	return fv, true
}

// methodOf returns the exported method matching name, trying the name as
// written and then capitalized.
func methodOf(rv reflect.Value, name string) (reflect.Value, bool) {
	if !rv.IsValid() {
		return reflect.Value{}, false
	}
	for _, candidate := range []string{name, capitalize(name)} {
		if m := rv.MethodByName(candidate); m.IsValid() {
			return m, true
		}
	}
	return reflect.Value{}, false
}

func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError || unicode.IsUpper(r) {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}
