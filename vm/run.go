package vm

import (
	"context"

	"github.com/scaffold-io/scaffold/bytecode"
	"github.com/scaffold-io/scaffold/compiler"
	"github.com/scaffold-io/scaffold/parser"
)

// Compile parses and compiles the source of the template at path.
func Compile(ctx context.Context, path, source string) (*bytecode.Unit, error) {
	module, err := parser.Parse(ctx, source, parser.WithPath(path))
	if err != nil {
		return nil, err
	}
	return compiler.Compile(module, compiler.WithSource(source))
}

// Run renders the given unit in a new Template and returns the output.
func Run(ctx context.Context, unit *bytecode.Unit, data map[string]any, options ...Option) (string, error) {
	return New(unit, options...).Render(ctx, data)
}

// RunString compiles and renders source. Templates it references are
// resolved through the loader option, if any.
func RunString(ctx context.Context, source string, data map[string]any, options ...Option) (string, error) {
	unit, err := Compile(ctx, "", source)
	if err != nil {
		return "", err
	}
	return Run(ctx, unit, data, options...)
}
