// Package loader resolves template names to sources and compiles them.
//
// Template names use dot notation for directories: "layouts.base" names
// layouts/base.html when the extension is ".html". A name starting with
// "./" or "../" is resolved against the directory of the template that
// references it. Names never resolve outside of the source.
//
// Compiled units are kept in memory for the life of the Loader, so every
// template is parsed and compiled at most once. A Loader is safe for
// concurrent use.
package loader

import (
	"context"
	"fmt"
	"io"
	"path"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/rs/zerolog"
	"github.com/scaffold-io/scaffold/builtins"
	"github.com/scaffold-io/scaffold/bytecode"
	"github.com/scaffold-io/scaffold/compiler"
	"github.com/scaffold-io/scaffold/dis"
	"github.com/scaffold-io/scaffold/errors"
	"github.com/scaffold-io/scaffold/parser"
	"github.com/scaffold-io/scaffold/source"
	"github.com/scaffold-io/scaffold/vm"
)

// DefaultExtension is appended to template names when none is configured.
const DefaultExtension = ".html"

// knownExtensions are stripped from names before dot notation applies.
var knownExtensions = []string{
	".template.html", ".template.htm", ".template.tpl",
	".html", ".phtml", ".htm", ".tpl", ".txt",
}

// Config configures a Loader.
type Config struct {
	// Source holds the templates. Required.
	Source source.Source

	// Target, when set, receives the disassembled listing of every
	// compiled template, stored under the template's generated name.
	Target source.Source

	// Extension is appended to template names. Defaults to ".html".
	Extension string

	// Helpers are the helpers available to templates. Defaults to
	// builtins.Default().
	Helpers *builtins.Registry

	// Logger receives compile and load events at debug level.
	Logger *zerolog.Logger

	// MaxDepth limits template nesting during a render. Zero selects
	// vm.DefaultMaxDepth.
	MaxDepth int
}

// Loader loads, compiles and renders templates.
type Loader struct {
	src       source.Source
	target    source.Source
	extension string
	helpers   *builtins.Registry
	logger    zerolog.Logger
	maxDepth  int

	mu    sync.Mutex
	paths map[string]string
	units map[string]*bytecode.Unit
}

// New returns a Loader for cfg.
func New(cfg Config) (*Loader, error) {
	if cfg.Source == nil {
		return nil, fmt.Errorf("loader: missing source")
	}
	l := &Loader{
		src:       cfg.Source,
		target:    cfg.Target,
		extension: cfg.Extension,
		helpers:   cfg.Helpers,
		logger:    zerolog.Nop(),
		maxDepth:  cfg.MaxDepth,
		paths:     map[string]string{},
		units:     map[string]*bytecode.Unit{},
	}
	if l.extension == "" {
		l.extension = DefaultExtension
	}
	l.extension = "." + strings.TrimLeft(l.extension, ".")
	if l.helpers == nil {
		l.helpers = builtins.Default()
	}
	if cfg.Logger != nil {
		l.logger = *cfg.Logger
	}
	return l, nil
}

// ResolvePath returns the source path of the template called name, as
// referenced from the template at from.
func (l *Loader) ResolvePath(name, from string) (string, error) {
	key := name + "\x00" + from
	l.mu.Lock()
	p, ok := l.paths[key]
	l.mu.Unlock()
	if ok {
		return p, nil
	}
	p, err := l.resolvePath(name, from)
	if err != nil {
		return "", err
	}
	l.mu.Lock()
	l.paths[key] = p
	l.mu.Unlock()
	return p, nil
}

func (l *Loader) resolvePath(name, from string) (string, error) {
	name = strings.ReplaceAll(name, "\\", "/")
	var prefix []string
	for {
		switch {
		case strings.HasPrefix(name, "./"):
			prefix = append(prefix, ".")
			name = name[2:]
			continue
		case strings.HasPrefix(name, "../"):
			prefix = append(prefix, "..")
			name = name[3:]
			continue
		}
		break
	}
	base := l.stripExtension(name)
	base = strings.ReplaceAll(base, ".", "/") + l.extension

	full := base
	if len(prefix) > 0 {
		full = path.Join(append(append([]string{path.Dir(from)}, prefix...), base)...)
		if strings.HasPrefix(full, "../") || full == ".." {
			return "", errors.Errorf(errors.TemplateNotFound, "%s is outside the source directory", name)
		}
	}
	clean, err := source.Clean(full)
	if err != nil {
		return "", errors.Errorf(errors.TemplateNotFound, "%s is outside the source directory", name)
	}
	return clean, nil
}

func (l *Loader) stripExtension(name string) string {
	if strings.HasSuffix(name, l.extension) {
		return strings.TrimSuffix(name, l.extension)
	}
	for _, ext := range knownExtensions {
		if strings.HasSuffix(name, ext) {
			return strings.TrimSuffix(name, ext)
		}
	}
	return name
}

// Resolve returns the compiled unit of the template called name, as
// referenced from the template at from. It implements vm.Loader.
func (l *Loader) Resolve(ctx context.Context, name, from string) (*bytecode.Unit, error) {
	p, err := l.ResolvePath(name, from)
	if err != nil {
		return nil, err
	}
	l.mu.Lock()
	unit, ok := l.units[p]
	l.mu.Unlock()
	if ok {
		return unit, nil
	}
	if !l.src.IsReadable(ctx, p) {
		return nil, errors.Errorf(errors.TemplateNotFound, "template %s not found", p)
	}
	text, err := l.src.Contents(ctx, p)
	if err != nil {
		return nil, errors.Wrap(errors.TemplateNotFound, err, "%s is not a valid readable template", p)
	}
	unit, err = l.compile(ctx, p, "", text)
	if err != nil {
		return nil, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	// Another goroutine may have compiled the same template meanwhile.
	if existing, ok := l.units[p]; ok {
		return existing, nil
	}
	l.units[p] = unit
	return unit, nil
}

func (l *Loader) compile(ctx context.Context, p, name, text string) (*bytecode.Unit, error) {
	start := time.Now()
	opts := []parser.Option{parser.WithPath(p)}
	if name != "" {
		opts = append(opts, parser.WithName(name))
	}
	module, err := parser.Parse(ctx, text, opts...)
	if err != nil {
		return nil, err
	}
	unit, err := compiler.Compile(module, compiler.WithSource(text))
	if err != nil {
		return nil, err
	}
	l.logger.Debug().
		Str("path", p).
		Str("name", unit.Name()).
		Dur("duration", time.Since(start)).
		Msg("compiled template")
	if l.target != nil {
		if err := l.writeListing(ctx, unit); err != nil {
			return nil, err
		}
	}
	return unit, nil
}

// writeListing stores the disassembled unit in the target source.
func (l *Loader) writeListing(ctx context.Context, unit *bytecode.Unit) error {
	text, _, err := dis.Listing(unit)
	if err != nil {
		return err
	}
	if err := l.target.PutContents(ctx, unit.Name()+".txt", text); err != nil {
		return fmt.Errorf("writing listing of %s: %w", unit.Path(), err)
	}
	return nil
}

func (l *Loader) template(unit *bytecode.Unit) *vm.Template {
	return vm.New(unit,
		vm.WithLoader(l),
		vm.WithHelpers(l.helpers),
		vm.WithLogger(l.logger),
		vm.WithMaxDepth(l.maxDepth))
}

// Load returns the template called name.
func (l *Loader) Load(ctx context.Context, name string) (*vm.Template, error) {
	unit, err := l.Resolve(ctx, name, "")
	if err != nil {
		return nil, err
	}
	return l.template(unit), nil
}

// LoadString compiles a template from text. Units compiled from identical
// text are shared.
func (l *Loader) LoadString(ctx context.Context, text string) (*vm.Template, error) {
	name := parser.GeneratedName(text)
	l.mu.Lock()
	unit, ok := l.units["\x00"+name]
	l.mu.Unlock()
	if !ok {
		var err error
		if unit, err = l.compile(ctx, "", name, text); err != nil {
			return nil, err
		}
		l.mu.Lock()
		l.units["\x00"+name] = unit
		l.mu.Unlock()
	}
	return l.template(unit), nil
}

// Render writes the output of the template called name to w.
func (l *Loader) Render(ctx context.Context, w io.Writer, name string, data map[string]any) error {
	t, err := l.Load(ctx, name)
	if err != nil {
		return err
	}
	return t.Display(ctx, w, data)
}

// RenderString renders a template compiled from text.
func (l *Loader) RenderString(ctx context.Context, text string, data map[string]any) (string, error) {
	t, err := l.LoadString(ctx, text)
	if err != nil {
		return "", err
	}
	return t.Render(ctx, data)
}

// CompileAll compiles the named templates, collecting every failure rather
// than stopping at the first.
func (l *Loader) CompileAll(ctx context.Context, names []string) error {
	var result *multierror.Error
	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return err
		}
		if _, err := l.Resolve(ctx, name, ""); err != nil {
			result = multierror.Append(result, err)
		}
	}
	return result.ErrorOrNil()
}

// Compiled returns the paths of the templates compiled so far, sorted.
func (l *Loader) Compiled() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	paths := make([]string, 0, len(l.units))
	for p := range l.units {
		if !strings.HasPrefix(p, "\x00") {
			paths = append(paths, p)
		}
	}
	sort.Strings(paths)
	return paths
}
