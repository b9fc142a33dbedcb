package parser

import (
	"context"
	stderrors "errors"
	"strings"
	"testing"

	"github.com/scaffold-io/scaffold/ast"
	"github.com/scaffold-io/scaffold/errors"
	"github.com/stretchr/testify/require"
)

func parse(t *testing.T, source string) *ast.Module {
	t.Helper()
	module, err := Parse(context.Background(), source)
	require.Nil(t, err)
	return module
}

func parseExpr(t *testing.T, expr string) ast.Expr {
	t.Helper()
	module := parse(t, "{{ "+expr+" }}")
	require.Len(t, module.Body.Nodes, 1)
	out, ok := module.Body.Nodes[0].(*ast.Output)
	require.True(t, ok)
	return out.Expr
}

func TestExpressionPrecedence(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"1 + 2 * 3", "(1 + (2 * 3))"},
		{"(1 + 2) * 3", "((1 + 2) * 3)"},
		{"a - b - c", "((a - b) - c)"},
		{"a * b % c", "((a * b) % c)"},
		{"a / b * c", "((a / b) * c)"},
		{"x-1", "(x - 1)"},
		{"a ~ b .. c", "(a ~ (b .. c))"},
		{"a .. b + c", "(a .. (b + c))"},
		{"not a and b", "((not a) and b)"},
		{"not a in b", "(not (a in b))"},
		{"a or b and c", "(a or (b and c))"},
		{"a xor b or c", "(a xor (b or c))"},
		{"a ? b : c ? d : e", "(a ? b : (c ? d : e))"},
		{"a < b ? 'yes' : 'no'", `((a < b) ? "yes" : "no")`},
		{"a == b == c", "(a == b == c)"},
		{"a <> b", "(a <> b)"},
		{"a == b ~ c", "(a == (b ~ c))"},
		{"a not in b", "(a not in b)"},
		{"x in [1, 2]", "(x in [1, 2])"},
		{"-a + +b", "((-a) + (+b))"},
		{"- a", "(-a)"},
		{"1.5", "1.5"},
		{"true", "true"},
		{"null", "null"},
		{`"a" ~ 'b'`, `("a" ~ "b")`},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			require.Equal(t, tt.expected, parseExpr(t, tt.input).String())
		})
	}
}

func TestPostfixExpressions(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"user.name|upper|truncate(10)", "user.name|upper|truncate(10)"},
		{"items[0].title", "items[0].title"},
		{"items.0", `items["0"]`},
		{"obj.method(1, 'a')", `obj.method(1, "a")`},
		{"obj.method()", "obj.method()"},
		{"range(1, 3)", "range(1, 3)"},
		{"(x|lower).length", "x|lower.length"},
		{"[a => 1, 'b' => 2, 3,]", `["a" => 1, "b" => 2, 3]`},
		{"[x ~ 'k' => y]", `[(x ~ "k") => y]`},
		{"[]", "[]"},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			require.Equal(t, tt.expected, parseExpr(t, tt.input).String())
		})
	}
}

func TestAttributeCallFlag(t *testing.T) {
	attr, ok := parseExpr(t, "a.b").(*ast.Attribute)
	require.True(t, ok)
	require.False(t, attr.Call)

	attr, ok = parseExpr(t, "a.b()").(*ast.Attribute)
	require.True(t, ok)
	require.True(t, attr.Call)
	require.Len(t, attr.Args, 0)
}

func TestNumbers(t *testing.T) {
	c, ok := parseExpr(t, "42").(*ast.Constant)
	require.True(t, ok)
	require.Equal(t, int64(42), c.Value)

	c, ok = parseExpr(t, "2.5").(*ast.Constant)
	require.True(t, ok)
	require.Equal(t, 2.5, c.Value)

	c, ok = parseExpr(t, "99999999999999999999").(*ast.Constant)
	require.True(t, ok)
	require.Equal(t, 1e20, c.Value)
}

func TestIfStatement(t *testing.T) {
	module := parse(t, "{% if a %}A{% elseif b %}B{% elseif c %}C{% else %}D{% endif %}")
	require.Len(t, module.Body.Nodes, 1)
	node, ok := module.Body.Nodes[0].(*ast.If)
	require.True(t, ok)
	require.Len(t, node.Branches, 3)
	require.Equal(t, "c", node.Branches[2].Cond.String())
	require.Equal(t, "D", node.Else.String())
}

func TestForStatement(t *testing.T) {
	module := parse(t, "{% for k, v in items %}{{ v }}{% else %}empty{% endfor %}")
	node, ok := module.Body.Nodes[0].(*ast.For)
	require.True(t, ok)
	require.Equal(t, "k", node.Key)
	require.Equal(t, "v", node.Value)
	require.Equal(t, "items", node.Seq.String())
	require.Equal(t, 1, node.Body.Len())
	require.Equal(t, "empty", node.Else.String())

	module = parse(t, "{% for v in items %}{% break if v %}{% continue %}{% endfor %}")
	node = module.Body.Nodes[0].(*ast.For)
	require.Equal(t, "", node.Key)
	require.Nil(t, node.Else)
	wrapped, ok := node.Body.Nodes[0].(*ast.If)
	require.True(t, ok)
	require.IsType(t, &ast.Break{}, wrapped.Branches[0].Body.Nodes[0])
	require.IsType(t, &ast.Continue{}, node.Body.Nodes[1])
}

func TestAssignStatement(t *testing.T) {
	module := parse(t, "{% assign user.address['city'].name = 'Oslo' %}")
	node, ok := module.Body.Nodes[0].(*ast.Assign)
	require.True(t, ok)
	require.Equal(t, "user", node.Name)
	require.Len(t, node.Path, 3)
	require.Equal(t, `"Oslo"`, node.Value.String())
	require.Nil(t, node.Body)

	module = parse(t, "{% assign greeting %}Hello {{ name }}{% endassign %}")
	node = module.Body.Nodes[0].(*ast.Assign)
	require.Nil(t, node.Value)
	require.Equal(t, 2, node.Body.Len())
}

func TestBlocks(t *testing.T) {
	module := parse(t, "{% block title 'Home' %}{% block body %}{% block inner %}x{% endblock inner %}{% parent %}{% endblock %}")
	require.Len(t, module.Blocks, 3)
	require.Equal(t, "title", module.Blocks[0].Name)
	require.Equal(t, "inner", module.Blocks[1].Name)
	require.Equal(t, "body", module.Blocks[2].Name)

	require.Len(t, module.Body.Nodes, 2)
	require.Equal(t, &ast.BlockDisplay{BlockPos: module.Body.Nodes[0].Pos(), Name: "title"}, module.Body.Nodes[0])

	title, ok := module.Block("title")
	require.True(t, ok)
	require.IsType(t, &ast.Output{}, title.Body.Nodes[0])

	body, _ := module.Block("body")
	require.IsType(t, &ast.BlockDisplay{}, body.Body.Nodes[0])
	parent, ok := body.Body.Nodes[1].(*ast.Parent)
	require.True(t, ok)
	require.Equal(t, "body", parent.Name)
}

func TestMacroDeclaration(t *testing.T) {
	module := parse(t, "{% macro field(name, type='text', size=20|abs) %}{{ name }}{% yield(x=1) %}{% endmacro field %}")
	require.Len(t, module.Body.Nodes, 0)
	macro, ok := module.Macro("field")
	require.True(t, ok)
	require.Len(t, macro.Params, 3)
	require.Equal(t, "null", macro.Params[0].Default.String())
	require.Equal(t, `"text"`, macro.Params[1].Default.String())
	require.Equal(t, "20|abs", macro.Params[2].Default.String())
	yield, ok := macro.Body.Nodes[1].(*ast.Yield)
	require.True(t, ok)
	require.Equal(t, "x", yield.Args[0].Name)
}

func TestCallStatement(t *testing.T) {
	module := parse(t, "{% call forms.field('a', size=10) with %}body{% endcall %}{% call simple %}")
	call, ok := module.Body.Nodes[0].(*ast.Call)
	require.True(t, ok)
	require.Equal(t, "forms", call.Module)
	require.Equal(t, "field", call.Name)
	require.Equal(t, []string{"", "size"}, []string{call.Args[0].Name, call.Args[1].Name})
	require.Equal(t, "body", call.Body.String())

	simple := module.Body.Nodes[1].(*ast.Call)
	require.Equal(t, "", simple.Module)
	require.Nil(t, simple.Body)
}

func TestImportIncludeExtends(t *testing.T) {
	module := parse(t, `{% extends "base" with [title => "x"] if layout %}{% import "a" as m %}{% import "b" as m %}{% include "part" with [x => 1] unless hide %}`)
	require.NotNil(t, module.Extends)
	require.Equal(t, `"base"`, module.Extends.Parent.String())
	require.Equal(t, `["title" => "x"]`, module.Extends.Params.String())
	require.Equal(t, "layout", module.Extends.Cond.String())

	require.Len(t, module.Imports, 1)
	imp, ok := module.Import("m")
	require.True(t, ok)
	require.Equal(t, `"b"`, imp.Source.String())

	wrapped, ok := module.Body.Nodes[0].(*ast.If)
	require.True(t, ok)
	require.Equal(t, "(not hide)", wrapped.Branches[0].Cond.String())
	include := wrapped.Branches[0].Body.Nodes[0].(*ast.Include)
	require.Equal(t, `"part"`, include.Source.String())
}

func TestOutputModifiers(t *testing.T) {
	module := parse(t, "{{ x if y }}{! z unless w !}")
	first := module.Body.Nodes[0].(*ast.If)
	require.IsType(t, &ast.Output{}, first.Branches[0].Body.Nodes[0])
	second := module.Body.Nodes[1].(*ast.If)
	require.IsType(t, &ast.Raw{}, second.Branches[0].Body.Nodes[0])
}

func TestSyntaxErrors(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"{% block a %}{% endblock %}{% block a %}{% endblock %}", `block "a" already defined`},
		{"{% block a %}{% block a %}{% endblock %}{% endblock %}", `block "a" already defined`},
		{"{% break %}", "unexpected break, not in for loop"},
		{"{% continue %}", "unexpected continue, not in for loop"},
		{"{% for x in y %}{% endfor %}{% break %}", "unexpected break, not in for loop"},
		{"{% for x in y %}{% else %}{% break %}{% endfor %}", "unexpected break, not in for loop"},
		{"{% for x in y %}{% macro m() %}{% break %}{% endmacro %}{% endfor %}", "unexpected break, not in for loop"},
		{"{% for x in y %}{% call m() with %}{% continue %}{% endcall %}{% endfor %}", "unexpected continue, not in for loop"},
		{"{% extends 'a' %}{% extends 'b' %}", "multiple extends tags"},
		{"{% block a %}{% extends 'b' %}{% endblock %}", "cannot declare extends inside blocks"},
		{"{% macro m() %}{% extends 'b' %}{% endmacro %}", "cannot declare extends inside macros"},
		{"{% parent %}", "parent must be inside a block"},
		{"{% macro m() %}{% block b %}{% endblock %}{% endmacro %}", "cannot declare blocks inside macros"},
		{"{% block b %}{% macro m() %}{% endmacro %}{% endblock %}", "cannot declare macros inside blocks"},
		{"{% macro m() %}{% macro n() %}{% endmacro %}{% endmacro %}", "cannot declare macros inside another macro"},
		{"{% macro m() %}{% endmacro %}{% macro m() %}{% endmacro %}", `macro "m" already defined`},
		{"{% macro m(a, a) %}{% endmacro %}", `duplicate macro parameter "a"`},
		{"{% macro m(a=b) %}{% endmacro %}", `unexpected "b", expecting a literal`},
		{"{% yield() %}", "unexpected yield, not in macro"},
		{"{% if x %}", "unexpected end of file"},
		{"{{ x ", "unexpected end of file"},
		{"{% foo %}", `unexpected "foo", expecting a valid tag`},
		{"{% if x %}{% endfor %}", `unexpected "endfor", expecting "elseif" or "else" or "endif"`},
		{"{{ }}", `unexpected "}}", expecting an expression`},
		{"{{ a b }}", `unexpected "b", expecting the end of an output tag (either "}}" or "-}}")`},
		{"{% assign a + 1 %}", "malformed assign statement"},
		{"{% for x y %}{% endfor %}", `unexpected "y", expecting "in"`},
		{"{% import 'a' %}", `unexpected "%}", expecting "as"`},
		{"{{ a.( }}", `unexpected "(", expecting name type`},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			_, err := Parse(context.Background(), tt.input)
			require.NotNil(t, err)
			require.Contains(t, err.Error(), tt.expected)
			var serr *errors.SyntaxError
			require.True(t, stderrors.As(err, &serr))
		})
	}
}

func TestSyntaxErrorLocation(t *testing.T) {
	_, err := Parse(context.Background(), "line one\n{{ + }}", WithPath("page.html"))
	require.NotNil(t, err)
	var serr *errors.SyntaxError
	require.True(t, stderrors.As(err, &serr))
	require.Equal(t, 2, serr.Line)
	require.Equal(t, 6, serr.Column)
	require.Equal(t, "{{ + }}", serr.SourceLine)
	require.Equal(t, `page.html: unexpected "}}", expecting an expression in line 2 char 6`, err.Error())
}

func TestUnknownTagHint(t *testing.T) {
	_, err := Parse(context.Background(), "{% if x %}{% endfi %}")
	var serr *errors.SyntaxError
	require.True(t, stderrors.As(err, &serr))
	require.Contains(t, serr.Hint, "endif")
}

func TestGeneratedName(t *testing.T) {
	a := GeneratedName("pages/index.html")
	require.True(t, strings.HasPrefix(a, NamePrefix))
	require.Equal(t, a, GeneratedName("pages/index.html"))
	require.NotEqual(t, a, GeneratedName("pages/other.html"))

	module, err := Parse(context.Background(), "x", WithPath("pages/index.html"))
	require.Nil(t, err)
	require.Equal(t, a, module.Name)
	require.Equal(t, "pages/index.html", module.Path)

	module, err = Parse(context.Background(), "x", WithName("custom"))
	require.Nil(t, err)
	require.Equal(t, "custom", module.Name)
}

func TestCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Parse(ctx, "text")
	require.ErrorIs(t, err, context.Canceled)
}
