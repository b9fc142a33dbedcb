package vm

import (
	"github.com/rs/zerolog"
	"github.com/scaffold-io/scaffold/builtins"
)

// Option is a configuration function for a Template.
type Option func(*Template)

// WithLoader sets the loader used to resolve parents, includes and
// imports. Without one, any of them fails with a TemplateNotFound error.
func WithLoader(loader Loader) Option {
	return func(t *Template) {
		t.loader = loader
	}
}

// WithHelpers sets the helper registry. The default is builtins.Default().
func WithHelpers(helpers *builtins.Registry) Option {
	return func(t *Template) {
		t.helpers = helpers
	}
}

// WithLogger sets the logger. The default discards everything.
func WithLogger(logger zerolog.Logger) Option {
	return func(t *Template) {
		t.logger = logger
	}
}

// WithMaxDepth limits how deeply blocks, macros, call bodies and includes
// may nest. The default is DefaultMaxDepth.
func WithMaxDepth(depth int) Option {
	return func(t *Template) {
		if depth > 0 {
			t.maxDepth = depth
		}
	}
}

// WithContextCheckInterval sets how often the machine checks ctx.Done()
// during a render, in instructions. A value of 0 disables the check. The
// default is DefaultContextCheckInterval (1000).
//
// Lower values make cancellation more responsive at a small cost per
// instruction.
func WithContextCheckInterval(interval int) Option {
	return func(t *Template) {
		t.contextCheckInterval = interval
	}
}

// WithObserver sets an observer for render events. Observer methods are
// called synchronously, so implementations should be fast. Returning false
// from any of them stops the render with ErrHalted.
func WithObserver(observer Observer) Option {
	return func(t *Template) {
		t.observer = observer
	}
}
