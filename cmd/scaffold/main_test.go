package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/scaffold-io/scaffold/source"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	viper.Reset()
	t.Cleanup(viper.Reset)
	cmd := newRootCmd()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(append(args, "--no-color"))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func writeFiles(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, contents := range files {
		p := filepath.Join(dir, filepath.FromSlash(name))
		require.Nil(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.Nil(t, os.WriteFile(p, []byte(contents), 0o644))
	}
	return dir
}

func TestRenderCode(t *testing.T) {
	dir := writeFiles(t, map[string]string{"data.json": `{"name": "world"}`})
	out, _, err := execute(t, "render", "-c", "Hello {{ name }}!",
		"--data", filepath.Join(dir, "data.json"), "--source", dir)
	require.Nil(t, err)
	require.Equal(t, "Hello world!", out)
}

func TestRenderTemplate(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"layouts/base.html": "<{% block body %}{% endblock %}>",
		"pages/index.html":  "{% extends 'layouts.base' %}{% block body %}{{ title }}{% endblock %}",
		"data.yaml":         "title: Home\n",
	})
	out, _, err := execute(t, "render", "pages.index",
		"--source", dir, "--data", filepath.Join(dir, "data.yaml"))
	require.Nil(t, err)
	require.Equal(t, "<Home>", out)
}

func TestRenderOutputFile(t *testing.T) {
	dir := writeFiles(t, map[string]string{"a.html": "{{ 1 + 2 }}"})
	target := filepath.Join(dir, "out.txt")
	out, _, err := execute(t, "render", "a", "--source", dir, "-o", target)
	require.Nil(t, err)
	require.Equal(t, "", out)
	written, err := os.ReadFile(target)
	require.Nil(t, err)
	require.Equal(t, "3", string(written))
}

func TestRenderMultipleInputs(t *testing.T) {
	_, _, err := execute(t, "render", "a", "-c", "x")
	require.NotNil(t, err)
	require.Equal(t, "multiple input sources specified", err.Error())
}

func TestTokens(t *testing.T) {
	out, _, err := execute(t, "tokens", "-c", "a{{ b }}")
	require.Nil(t, err)
	require.Contains(t, out, "OUTPUT_BEGIN")
	require.Contains(t, out, `"b"`)

	out, _, err = execute(t, "tokens", "--json", "-c", "a{{ b }}")
	require.Nil(t, err)
	require.Contains(t, out, `"type": "NAME"`)
}

func TestAst(t *testing.T) {
	out, _, err := execute(t, "ast", "-c", "{% if x %}y{% endif %}")
	require.Nil(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.True(t, strings.HasPrefix(lines[0], "Module"))
	require.Contains(t, out, "If")
}

func TestDis(t *testing.T) {
	out, _, err := execute(t, "dis", "-c", "{% block a %}x{% endblock %}")
	require.Nil(t, err)
	require.Contains(t, out, "block a:")

	out, _, err = execute(t, "dis", "-c", "{% block a %}x{% endblock %}", "--code-id", "block:a")
	require.Nil(t, err)
	require.Contains(t, out, "OPCODE")

	_, _, err = execute(t, "dis", "-c", "x", "--code-id", "macro:nope")
	require.NotNil(t, err)
	require.Contains(t, err.Error(), `code "macro:nope" not found`)
}

func TestCheck(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"ok.html":        "{{ a }}",
		"nested/ok.html": "{% if a %}{% endif %}",
		"broken.html":    "{% if a %}",
		"notes.txt":      "{% if",
	})
	_, stderr, err := execute(t, "check", "--source", dir)
	require.NotNil(t, err)
	require.Equal(t, "1 of 3 templates failed to compile", err.Error())
	require.Contains(t, stderr, "broken.html")

	out, _, err := execute(t, "check", "--source", dir, "ok", "nested.ok")
	require.Nil(t, err)
	require.Equal(t, "2 templates ok\n", out)
}

func TestHelpers(t *testing.T) {
	out, _, err := execute(t, "helpers")
	require.Nil(t, err)
	require.Contains(t, out, "capitalize(value) string")

	out, _, err = execute(t, "helpers", "cptl")
	require.Nil(t, err)
	require.Contains(t, out, "capitalize")
	require.NotContains(t, out, "abs")
}

func TestLoadData(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"d.json": `{"a": 1}`,
		"d.yml":  "a: 1\n",
		"d.toml": "a = 1\n",
		"d.ini":  "a=1",
	})
	for _, name := range []string{"d.json", "d.yml", "d.toml"} {
		data, err := loadData(filepath.Join(dir, name))
		require.Nil(t, err, name)
		require.Contains(t, data, "a", name)
	}
	_, err := loadData(filepath.Join(dir, "d.ini"))
	require.NotNil(t, err)

	data, err := loadData("")
	require.Nil(t, err)
	require.Empty(t, data)
}

func TestTemplateNames(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"a.html":     "",
		"b/c.html":   "",
		"d.min.html": "",
		"e.txt":      "",
	})
	src, err := source.NewDir(dir)
	require.Nil(t, err)
	names, err := templateNames(src, ".html")
	require.Nil(t, err)
	require.Equal(t, []string{"a.html", "b/c.html"}, names)

	names, err = templateNames(source.NewMemory(map[string]string{"x.html": "", "y.css": ""}), ".html")
	require.Nil(t, err)
	require.Equal(t, []string{"x.html"}, names)
}
