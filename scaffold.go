// Package scaffold compiles and renders templates.
//
// Templates are compiled once into an immutable unit and rendered any
// number of times, concurrently if needed:
//
//	unit, err := scaffold.Compile("Hello {{ name }}!")
//	out, err := scaffold.Render(ctx, unit, map[string]any{"name": "world"})
//
// Templates that extend, include or import other templates need a loader;
// see the loader package for one reading from directories, S3 or
// PostgreSQL.
package scaffold

import (
	"context"

	"github.com/rs/zerolog"
	"github.com/scaffold-io/scaffold/builtins"
	"github.com/scaffold-io/scaffold/bytecode"
	"github.com/scaffold-io/scaffold/compiler"
	"github.com/scaffold-io/scaffold/parser"
	"github.com/scaffold-io/scaffold/vm"
)

// Option configures a compilation or render.
type Option func(*options)

type options struct {
	helpers  map[string]builtins.Helper
	filename string
	loader   vm.Loader
	logger   *zerolog.Logger
	observer vm.Observer
	maxDepth int
}

func collectOptions(opts ...Option) *options {
	o := &options{helpers: map[string]builtins.Helper{}}
	for _, opt := range opts {
		if opt != nil {
			opt(o)
		}
	}
	return o
}

func (o *options) vmOpts() []vm.Option {
	registry := builtins.Default()
	for name, fn := range o.helpers {
		registry.Register(name, fn)
	}
	opts := []vm.Option{vm.WithHelpers(registry), vm.WithMaxDepth(o.maxDepth)}
	if o.loader != nil {
		opts = append(opts, vm.WithLoader(o.loader))
	}
	if o.logger != nil {
		opts = append(opts, vm.WithLogger(*o.logger))
	}
	if o.observer != nil {
		opts = append(opts, vm.WithObserver(o.observer))
	}
	return opts
}

// WithHelpers adds helpers to the default ones. This option is additive;
// if the same name is supplied more than once, the last helper wins.
func WithHelpers(helpers map[string]builtins.Helper) Option {
	return func(o *options) {
		for name, fn := range helpers {
			o.helpers[name] = fn
		}
	}
}

// WithHelper adds a single helper.
func WithHelper(name string, fn builtins.Helper) Option {
	return func(o *options) {
		o.helpers[name] = fn
	}
}

// WithFilename sets the path recorded for the template being compiled.
// It is used in error messages and stack traces.
func WithFilename(filename string) Option {
	return func(o *options) {
		o.filename = filename
	}
}

// WithLoader sets the loader that resolves extended, included and imported
// templates.
func WithLoader(loader vm.Loader) Option {
	return func(o *options) {
		o.loader = loader
	}
}

// WithLogger sets the logger used while rendering.
func WithLogger(logger zerolog.Logger) Option {
	return func(o *options) {
		o.logger = &logger
	}
}

// WithObserver sets an observer for render events: instruction steps and
// frames being entered and completed. This enables profilers, coverage
// tools and tracers.
func WithObserver(observer vm.Observer) Option {
	return func(o *options) {
		o.observer = observer
	}
}

// WithMaxDepth limits how deeply blocks, macros and includes may nest.
func WithMaxDepth(depth int) Option {
	return func(o *options) {
		o.maxDepth = depth
	}
}

// Helpers returns the default helpers by name. Modify the returned map and
// pass it to WithHelpers to customize a render.
func Helpers() map[string]builtins.Helper {
	return builtins.Builtins()
}

// Compile parses and compiles a template. The returned unit is immutable
// and safe for concurrent use.
func Compile(source string, opts ...Option) (*bytecode.Unit, error) {
	o := collectOptions(opts...)
	var parserOpts []parser.Option
	if o.filename != "" {
		parserOpts = append(parserOpts, parser.WithPath(o.filename))
	}
	module, err := parser.Parse(context.Background(), source, parserOpts...)
	if err != nil {
		return nil, err
	}
	return compiler.Compile(module, compiler.WithSource(source))
}

// Render renders a compiled unit. Each call creates fresh render state,
// allowing concurrent renders of the same unit.
func Render(ctx context.Context, unit *bytecode.Unit, data map[string]any, opts ...Option) (string, error) {
	o := collectOptions(opts...)
	return vm.New(unit, o.vmOpts()...).Render(ctx, data)
}

// RenderString is a convenience function that compiles and renders source.
// It is equivalent to Compile followed by Render.
func RenderString(ctx context.Context, source string, data map[string]any, opts ...Option) (string, error) {
	unit, err := Compile(source, opts...)
	if err != nil {
		return "", err
	}
	return Render(ctx, unit, data, opts...)
}
