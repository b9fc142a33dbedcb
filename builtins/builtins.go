// Package builtins defines the helper functions available to templates.
//
// Helpers are called from templates either directly, as in
// {{ range(1, 3) }}, or as filters, as in {{ name|upper }}, where the
// filtered value becomes the first argument. The runtime itself relies on
// three of them: escape for {{ }} output, and isIterable and isEmpty.
package builtins

import (
	"context"
	"reflect"
	"sort"
	"sync"

	"github.com/scaffold-io/scaffold/errors"
	"github.com/scaffold-io/scaffold/object"
)

// Helper is a function callable from templates.
type Helper func(ctx context.Context, args ...any) (any, error)

// Registry maps helper names to helpers. It is safe for concurrent use.
type Registry struct {
	mu      sync.RWMutex
	helpers map[string]Helper
}

// New returns an empty registry.
func New() *Registry {
	return &Registry{helpers: map[string]Helper{}}
}

// Default returns a registry holding the default helpers.
func Default() *Registry {
	r := New()
	for name, fn := range Builtins() {
		r.Register(name, fn)
	}
	return r
}

// Register adds or replaces a helper.
func (r *Registry) Register(name string, fn Helper) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.helpers[name] = fn
}

// RegisterFunc adds an arbitrary Go function as a helper. Arguments are
// converted to the function's parameter types; a trailing error result is
// returned as the helper's error.
func (r *Registry) RegisterFunc(name string, fn any) error {
	switch fn := fn.(type) {
	case Helper:
		r.Register(name, fn)
		return nil
	case func(context.Context, ...any) (any, error):
		r.Register(name, fn)
		return nil
	case object.Func:
		r.Register(name, Helper(fn))
		return nil
	}
	rv := reflect.ValueOf(fn)
	if rv.Kind() != reflect.Func || rv.IsNil() {
		return errors.Errorf(errors.TypeError, "helper %s must be a function (%s given)", name, object.TypeName(fn))
	}
	gf := object.NewGoFunc(rv, name)
	r.Register(name, gf.Call)
	return nil
}

// Lookup returns the named helper.
func (r *Registry) Lookup(name string) (Helper, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	fn, ok := r.helpers[name]
	return fn, ok
}

// Names returns the registered helper names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.helpers))
	for name := range r.helpers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Clone returns an independent copy of the registry.
func (r *Registry) Clone() *Registry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c := New()
	for name, fn := range r.helpers {
		c.helpers[name] = fn
	}
	return c
}

// Call invokes the named helper. An unknown name fails with an
// UndefinedHelper error suggesting similar names; a failing helper is
// reported as HelperFailed.
func (r *Registry) Call(ctx context.Context, name string, args ...any) (any, error) {
	fn, ok := r.Lookup(name)
	if !ok {
		err := errors.Errorf(errors.UndefinedHelper, "undefined helper %q", name)
		err.Hint = errors.Hint(name, r.Names())
		return nil, err
	}
	result, err := fn(ctx, args...)
	if err != nil {
		return nil, errors.Wrap(errors.HelperFailed, err, "%s() failed", name)
	}
	return result, nil
}

// Builtins returns the default helpers by name.
func Builtins() map[string]Helper {
	return map[string]Helper{
		"abs":           Abs,
		"capitalize":    Capitalize,
		"cycle":         Cycle,
		"default":       DefaultValue,
		"dump":          Dump,
		"esc":           Escape,
		"escape":        Escape,
		"first":         First,
		"format":        Format,
		"isDivisibleBy": IsDivisibleBy,
		"isEmpty":       IsEmpty,
		"isEven":        IsEven,
		"isIterable":    IsIterable,
		"isOdd":         IsOdd,
		"join":          Join,
		"jsonEncode":    JSONEncode,
		"keys":          Keys,
		"last":          Last,
		"length":        Length,
		"lower":         Lower,
		"nl2br":         Nl2br,
		"range":         Range,
		"repeat":        Repeat,
		"replace":       Replace,
		"title":         Title,
		"trim":          Trim,
		"truncate":      Truncate,
		"unescape":      Unescape,
		"upper":         Upper,
		"urlEncode":     URLEncode,
	}
}
