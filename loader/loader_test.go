package loader

import (
	"context"
	stderrors "errors"
	"strings"
	"sync"
	"testing"

	"github.com/hashicorp/go-multierror"
	"github.com/scaffold-io/scaffold/builtins"
	"github.com/scaffold-io/scaffold/errors"
	"github.com/scaffold-io/scaffold/source"
	"github.com/stretchr/testify/require"
)

func newLoader(t *testing.T, files map[string]string) *Loader {
	t.Helper()
	l, err := New(Config{Source: source.NewMemory(files)})
	require.Nil(t, err)
	return l
}

func TestNewRequiresSource(t *testing.T) {
	_, err := New(Config{})
	require.NotNil(t, err)
}

func TestResolvePath(t *testing.T) {
	l := newLoader(t, nil)
	tests := []struct {
		name    string
		from    string
		want    string
		wantErr bool
	}{
		{"index", "", "index.html", false},
		{"index.html", "", "index.html", false},
		{"layouts.base", "", "layouts/base.html", false},
		{"layouts/base", "", "layouts/base.html", false},
		{"partials.nav.tpl", "", "partials/nav.html", false},
		{"/index", "", "index.html", false},
		{"./nav", "partials/list.html", "partials/nav.html", false},
		{"../base", "layouts/admin/page.html", "layouts/base.html", false},
		{"layouts.base", "partials/list.html", "layouts/base.html", false},
		{"../secret", "index.html", "", true},
		{"../../secret", "layouts/page.html", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name+"@"+tt.from, func(t *testing.T) {
			got, err := l.ResolvePath(tt.name, tt.from)
			if tt.wantErr {
				require.NotNil(t, err)
				require.True(t, errors.IsKind(err, errors.TemplateNotFound))
				return
			}
			require.Nil(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestCustomExtension(t *testing.T) {
	l, err := New(Config{Source: source.NewMemory(nil), Extension: "tpl"})
	require.Nil(t, err)
	got, err := l.ResolvePath("mail.welcome", "")
	require.Nil(t, err)
	require.Equal(t, "mail/welcome.tpl", got)
}

func TestRender(t *testing.T) {
	l := newLoader(t, map[string]string{
		"layouts/base.html": "<h1>{% block title %}{% endblock %}</h1>{% include './footer' %}",
		"layouts/footer.html": "<footer>{{ site }}</footer>",
		"forms.html":          "{% macro input(name) %}<input name=\"{{ name }}\">{% endmacro %}",
		"index.html": "{% extends 'layouts.base' %}{% import 'forms' as f %}" +
			"{% block title %}{{ title|upper }}{% call f.input('q') %}{% endblock %}",
	})
	var b strings.Builder
	err := l.Render(context.Background(), &b, "index", map[string]any{"title": "home", "site": "example.org"})
	require.Nil(t, err)
	require.Equal(t, `<h1>HOME<input name="q"></h1><footer>example.org</footer>`, b.String())
	require.Equal(t, []string{"forms.html", "index.html", "layouts/base.html", "layouts/footer.html"}, l.Compiled())
}

func TestLoadIsMemoized(t *testing.T) {
	l := newLoader(t, map[string]string{"index.html": "{{ 1 }}"})
	ctx := context.Background()
	a, err := l.Load(ctx, "index")
	require.Nil(t, err)
	b, err := l.Load(ctx, "index.html")
	require.Nil(t, err)
	require.Same(t, a.Unit(), b.Unit())
}

func TestLoadNotFound(t *testing.T) {
	l := newLoader(t, nil)
	_, err := l.Load(context.Background(), "missing")
	require.True(t, errors.IsKind(err, errors.TemplateNotFound))
	require.Contains(t, err.Error(), "missing.html")
}

func TestIncludeNotFound(t *testing.T) {
	l := newLoader(t, map[string]string{"index.html": "a\n{% include 'nope' %}"})
	var b strings.Builder
	err := l.Render(context.Background(), &b, "index", nil)
	require.True(t, errors.IsKind(err, errors.TemplateNotFound))
	var rerr *errors.RuntimeError
	require.True(t, stderrors.As(err, &rerr))
	require.Equal(t, "index.html", rerr.File)
	require.Equal(t, 2, rerr.Line)
	require.Equal(t, "a\n", b.String())
}

func TestSyntaxError(t *testing.T) {
	l := newLoader(t, map[string]string{"bad.html": "{% if x %}"})
	_, err := l.Load(context.Background(), "bad")
	var serr *errors.SyntaxError
	require.True(t, stderrors.As(err, &serr))
	require.Equal(t, "bad.html", serr.File)
}

func TestRenderString(t *testing.T) {
	helpers := builtins.Default()
	helpers.Register("shout", func(ctx context.Context, args ...any) (any, error) {
		return strings.ToUpper(args[0].(string)) + "!", nil
	})
	l, err := New(Config{
		Source:  source.NewMemory(map[string]string{"part.html": "[{{ x }}]"}),
		Helpers: helpers,
	})
	require.Nil(t, err)
	out, err := l.RenderString(context.Background(), "{{ name|shout }}{% include 'part' with [x => 1] %}", map[string]any{"name": "hi"})
	require.Nil(t, err)
	require.Equal(t, "HI![1]", out)

	a, err := l.LoadString(context.Background(), "same")
	require.Nil(t, err)
	b, err := l.LoadString(context.Background(), "same")
	require.Nil(t, err)
	require.Same(t, a.Unit(), b.Unit())
	require.Equal(t, []string{"part.html"}, l.Compiled())
}

func TestCompileAll(t *testing.T) {
	l := newLoader(t, map[string]string{
		"ok.html":  "fine",
		"bad.html": "{% for %}",
	})
	err := l.CompileAll(context.Background(), []string{"ok", "bad", "missing"})
	require.NotNil(t, err)
	var merr *multierror.Error
	require.True(t, stderrors.As(err, &merr))
	require.Len(t, merr.Errors, 2)

	require.Nil(t, l.CompileAll(context.Background(), []string{"ok"}))
}

func TestTargetListing(t *testing.T) {
	target := source.NewMemory(nil)
	l, err := New(Config{
		Source: source.NewMemory(map[string]string{"index.html": "{% block a %}x{% endblock %}"}),
		Target: target,
	})
	require.Nil(t, err)
	t1, err := l.Load(context.Background(), "index")
	require.Nil(t, err)

	paths := target.Paths()
	require.Equal(t, []string{t1.Unit().Name() + ".txt"}, paths)
	listing, err := target.Contents(context.Background(), paths[0])
	require.Nil(t, err)
	require.Contains(t, listing, "path index.html")
	require.Contains(t, listing, "block a:")
}

func TestConcurrentLoads(t *testing.T) {
	l := newLoader(t, map[string]string{
		"base.html": "<{% block body %}{% endblock %}>",
		"page.html": "{% extends 'base' %}{% block body %}{{ n }}{% endblock %}",
	})
	var wg sync.WaitGroup
	outputs := make([]string, 8)
	for i := range outputs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			var b strings.Builder
			if err := l.Render(context.Background(), &b, "page", map[string]any{"n": i}); err == nil {
				outputs[i] = b.String()
			}
		}(i)
	}
	wg.Wait()
	for i, out := range outputs {
		require.Equal(t, "<"+string(rune('0'+i))+">", out)
	}
}
