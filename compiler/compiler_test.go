package compiler

import (
	"context"
	"testing"

	"github.com/scaffold-io/scaffold/bytecode"
	"github.com/scaffold-io/scaffold/op"
	"github.com/scaffold-io/scaffold/parser"
	"github.com/stretchr/testify/require"
)

func compileSource(t *testing.T, source string) *bytecode.Unit {
	t.Helper()
	module, err := parser.Parse(context.Background(), source, parser.WithPath("test.html"))
	require.Nil(t, err)
	unit, err := Compile(module, WithSource(source))
	require.Nil(t, err)
	return unit
}

func instructions(code *bytecode.Code) [][]op.Code {
	return bytecode.NewInstructionIter(code).All()
}

func opNames(code *bytecode.Code) []string {
	var names []string
	for _, instr := range instructions(code) {
		names = append(names, op.GetInfo(instr[0]).Name)
	}
	return names
}

func TestTextAndOutput(t *testing.T) {
	unit := compileSource(t, "Hello {{ name }}!")
	main := unit.Main()
	require.Equal(t, [][]op.Code{
		{op.LoadConst, 0},
		{op.EchoRaw},
		{op.LoadName, 0},
		{op.Echo},
		{op.LoadConst, 1},
		{op.EchoRaw},
		{op.Return},
	}, instructions(main))
	require.Equal(t, "Hello ", main.ConstantAt(0))
	require.Equal(t, "!", main.ConstantAt(1))
	require.Equal(t, "name", main.NameAt(0))
	require.Equal(t, "test.html", main.Filename())
	require.Equal(t, "test.html", unit.Path())
	require.Equal(t, parser.GeneratedName("test.html"), unit.Name())
}

func TestRawOutput(t *testing.T) {
	unit := compileSource(t, "{! html !}")
	require.Equal(t, []string{"LOAD_NAME", "ECHO_RAW", "RETURN"}, opNames(unit.Main()))
}

func TestArithmeticPrecedence(t *testing.T) {
	unit := compileSource(t, "{{ 1 + 2 * 3 }}")
	main := unit.Main()
	require.Equal(t, [][]op.Code{
		{op.LoadConst, 0},
		{op.LoadConst, 1},
		{op.LoadConst, 2},
		{op.BinaryOp, op.Code(op.Multiply)},
		{op.BinaryOp, op.Code(op.Add)},
		{op.Echo},
		{op.Return},
	}, instructions(main))
	require.Equal(t, int64(1), main.ConstantAt(0))
	require.Equal(t, int64(3), main.ConstantAt(2))
}

func TestConstantsAreShared(t *testing.T) {
	unit := compileSource(t, "{{ 'a' ~ 'a' }}a")
	require.Equal(t, 1, unit.Main().ConstantCount())
}

func TestChainedCompare(t *testing.T) {
	unit := compileSource(t, "{{ a == b == c }}")
	require.Equal(t, [][]op.Code{
		{op.LoadName, 0},
		{op.LoadName, 1},
		{op.Swap, 1},
		{op.Copy, 1},
		{op.CompareOp, op.Code(op.Equal)},
		{op.JumpForwardIfFalseOrPop, 8},
		{op.LoadName, 2},
		{op.CompareOp, op.Code(op.Equal)},
		{op.JumpForward, 5},
		{op.Swap, 1},
		{op.PopTop},
		{op.Echo},
		{op.Return},
	}, instructions(unit.Main()))
}

func TestSingleCompare(t *testing.T) {
	unit := compileSource(t, "{{ a <> b }}")
	require.Equal(t, [][]op.Code{
		{op.LoadName, 0},
		{op.LoadName, 1},
		{op.CompareOp, op.Code(op.NotEqual)},
		{op.Echo},
		{op.Return},
	}, instructions(unit.Main()))
}

func TestLogicalOperators(t *testing.T) {
	unit := compileSource(t, "{{ x or 'd' }}{{ x and y }}")
	require.Equal(t, [][]op.Code{
		{op.LoadName, 0},
		{op.JumpForwardIfTrueOrPop, 4},
		{op.LoadConst, 0},
		{op.Echo},
		{op.LoadName, 0},
		{op.JumpForwardIfFalseOrPop, 4},
		{op.LoadName, 1},
		{op.Echo},
		{op.Return},
	}, instructions(unit.Main()))
}

func TestConditionalAndInclusion(t *testing.T) {
	unit := compileSource(t, "{{ a not in b ? 1 : 2 }}")
	require.Equal(t, [][]op.Code{
		{op.LoadName, 0},
		{op.LoadName, 1},
		{op.ContainsOp, 1},
		{op.PopJumpForwardIfFalse, 6},
		{op.LoadConst, 0},
		{op.JumpForward, 4},
		{op.LoadConst, 1},
		{op.Echo},
		{op.Return},
	}, instructions(unit.Main()))
}

func TestArrays(t *testing.T) {
	unit := compileSource(t, "{{ [1, 2] }}{{ [a => 1, 3] }}")
	require.Equal(t, []string{
		"LOAD_CONST", "LOAD_CONST", "BUILD_LIST", "ECHO",
		"LOAD_CONST", "LOAD_CONST", "NIL", "LOAD_CONST", "BUILD_MAP", "ECHO",
		"RETURN",
	}, opNames(unit.Main()))
}

func TestAttributesAndHelpers(t *testing.T) {
	unit := compileSource(t, "{{ user.name|upper|truncate(5) }}{{ user.greet('x') }}{{ range(1, 3) }}")
	main := unit.Main()
	require.Equal(t, [][]op.Code{
		{op.LoadName, 0},
		{op.LoadConst, 0},
		{op.GetAttr},
		{op.CallHelper, 1, 1},
		{op.LoadConst, 1},
		{op.CallHelper, 2, 2},
		{op.Echo},
		{op.LoadName, 0},
		{op.LoadConst, 2},
		{op.LoadConst, 3},
		{op.CallAttr, 1},
		{op.Echo},
		{op.LoadConst, 4},
		{op.LoadConst, 5},
		{op.CallHelper, 3, 2},
		{op.Echo},
		{op.Return},
	}, instructions(main))
	require.Equal(t, "upper", main.NameAt(1))
	require.Equal(t, "truncate", main.NameAt(2))
	require.Equal(t, "range", main.NameAt(3))
}

func TestIfElse(t *testing.T) {
	unit := compileSource(t, "{% if a %}A{% elseif b %}B{% else %}C{% endif %}")
	require.Equal(t, [][]op.Code{
		{op.LoadName, 0},
		{op.PopJumpForwardIfFalse, 7},
		{op.LoadConst, 0},
		{op.EchoRaw},
		{op.JumpForward, 14},
		{op.LoadName, 1},
		{op.PopJumpForwardIfFalse, 7},
		{op.LoadConst, 1},
		{op.EchoRaw},
		{op.JumpForward, 5},
		{op.LoadConst, 2},
		{op.EchoRaw},
		{op.Return},
	}, instructions(unit.Main()))
}

func TestForLoop(t *testing.T) {
	unit := compileSource(t, "{% for v in items %}{{ v }}{% endfor %}")
	main := unit.Main()
	require.Equal(t, [][]op.Code{
		{op.PushContext, 0},
		{op.PushContext, 1},
		{op.LoadName, 2},
		{op.GetIter},
		{op.Copy, 0},
		{op.StoreName, 0},
		{op.ForIter, 10, 0},
		{op.StoreName, 1},
		{op.LoadName, 1},
		{op.Echo},
		{op.JumpBackward, 8},
		{op.PopIter},
		{op.PopContext, 1},
		{op.PopContext, 0},
		{op.Return},
	}, instructions(main))
	require.Equal(t, "loop", main.NameAt(0))
	require.Equal(t, "v", main.NameAt(1))
	require.Equal(t, "items", main.NameAt(2))
}

func TestForLoopWithKeyAndElse(t *testing.T) {
	unit := compileSource(t, "{% for k, v in items %}x{% else %}empty{% endfor %}")
	require.Equal(t, []string{
		"PUSH_CONTEXT", "PUSH_CONTEXT", "PUSH_CONTEXT",
		"LOAD_NAME", "GET_ITER", "COPY", "STORE_NAME",
		"ITER_EMPTY", "POP_JUMP_FORWARD_IF_TRUE",
		"FOR_ITER", "STORE_NAME", "STORE_NAME",
		"LOAD_CONST", "ECHO_RAW", "JUMP_BACKWARD",
		"POP_ITER", "JUMP_FORWARD",
		"POP_ITER", "LOAD_CONST", "ECHO_RAW",
		"POP_CONTEXT", "POP_CONTEXT", "POP_CONTEXT",
		"RETURN",
	}, opNames(unit.Main()))
}

func TestBreakAndContinue(t *testing.T) {
	unit := compileSource(t, "{% for v in items %}{% break %}{% endfor %}")
	require.Equal(t, [][]op.Code{
		{op.PushContext, 0},
		{op.PushContext, 1},
		{op.LoadName, 2},
		{op.GetIter},
		{op.Copy, 0},
		{op.StoreName, 0},
		{op.ForIter, 9, 0},
		{op.StoreName, 1},
		{op.JumpForward, 4},
		{op.JumpBackward, 7},
		{op.PopIter},
		{op.PopContext, 1},
		{op.PopContext, 0},
		{op.Return},
	}, instructions(unit.Main()))

	unit = compileSource(t, "{% for v in items %}{% continue %}{% endfor %}")
	require.Equal(t, []op.Code{op.JumpBackward, 5}, instructions(unit.Main())[8])
}

func TestBreakClosesCaptures(t *testing.T) {
	unit := compileSource(t, "{% for v in items %}{% assign x.y %}{% break %}{% endassign %}{% endfor %}")
	require.Equal(t, []string{
		"PUSH_CONTEXT", "PUSH_CONTEXT", "LOAD_NAME", "GET_ITER", "COPY", "STORE_NAME",
		"FOR_ITER", "STORE_NAME",
		"LOAD_CONST", "BEGIN_CAPTURE",
		"END_CAPTURE", "POP_TOP", "POP_TOP", "JUMP_FORWARD",
		"END_CAPTURE", "SET_ATTR",
		"JUMP_BACKWARD", "POP_ITER", "POP_CONTEXT", "POP_CONTEXT", "RETURN",
	}, opNames(unit.Main()))
}

func TestAssign(t *testing.T) {
	unit := compileSource(t, "{% assign a = 1 %}{% assign b.c[d] = 2 %}")
	main := unit.Main()
	require.Equal(t, [][]op.Code{
		{op.LoadConst, 0},
		{op.StoreName, 0},
		{op.LoadConst, 1},
		{op.LoadName, 1},
		{op.LoadConst, 2},
		{op.SetAttr, 2, 2},
		{op.Return},
	}, instructions(main))
	require.Equal(t, []string{"a", "d", "b"}, []string{main.NameAt(0), main.NameAt(1), main.NameAt(2)})
}

func TestExtendsIsHoisted(t *testing.T) {
	unit := compileSource(t, "text{% extends 'base' with [x => 1] %}{% block a %}x{% endblock %}")
	require.True(t, unit.Extends())
	require.Equal(t, []string{
		"LOAD_CONST", "LOAD_CONST", "LOAD_CONST", "BUILD_MAP", "EXTENDS", "RETURN",
		"LOAD_CONST", "ECHO_RAW", "DISPLAY_BLOCK", "RETURN",
	}, opNames(unit.Main()))
	block, ok := unit.Block("a")
	require.True(t, ok)
	require.Equal(t, []string{"LOAD_CONST", "ECHO_RAW", "RETURN"}, opNames(block.Code))
}

func TestConditionalExtends(t *testing.T) {
	unit := compileSource(t, "{% extends 'base' if layout %}body")
	require.Equal(t, [][]op.Code{
		{op.LoadName, 0},
		{op.PopJumpForwardIfFalse, 7},
		{op.LoadConst, 0},
		{op.Nil},
		{op.Extends},
		{op.Return},
		{op.LoadConst, 1},
		{op.EchoRaw},
		{op.Return},
	}, instructions(unit.Main()))
}

func TestBlocksAndParent(t *testing.T) {
	unit := compileSource(t, "{% block a %}{% block b 'x' %}{% parent %}{% endblock %}")
	require.Equal(t, 2, unit.BlockCount())
	require.Equal(t, "b", unit.BlockAt(0).Name)
	require.Equal(t, "a", unit.BlockAt(1).Name)
	a, _ := unit.Block("a")
	require.Equal(t, [][]op.Code{
		{op.DisplayBlock, 0},
		{op.DisplayParent, 1},
		{op.Return},
	}, instructions(a.Code))
	require.Equal(t, "b", a.Code.NameAt(0))
	require.Equal(t, "a", a.Code.NameAt(1))
}

func TestMacros(t *testing.T) {
	unit := compileSource(t, "{% macro m(a, b='x') %}{{ a }}{% yield(c=b) %}{% endmacro %}")
	require.Equal(t, []string{"RETURN"}, opNames(unit.Main()))
	m, ok := unit.Macro("m")
	require.True(t, ok)
	require.Equal(t, 2, m.ParamCount())
	require.Equal(t, []string{"NIL", "RETURN"}, opNames(m.ParamAt(0).Default))
	require.Equal(t, []string{"LOAD_CONST", "RETURN"}, opNames(m.ParamAt(1).Default))
	require.Equal(t, "x", m.ParamAt(1).Default.ConstantAt(0))
	require.Equal(t, []string{
		"LOAD_NAME", "ECHO",
		"LOAD_CONST", "LOAD_NAME", "BUILD_ARGS", "YIELD",
		"RETURN",
	}, opNames(m.Code()))
}

func TestCallMacro(t *testing.T) {
	unit := compileSource(t, "{% import 'forms' as f %}{% call f.field('a', size=3) with %}body{% endcall %}{% call local %}")
	main := unit.Main()
	require.Equal(t, [][]op.Code{
		{op.Nil},
		{op.LoadConst, 0},
		{op.LoadConst, 1},
		{op.LoadConst, 2},
		{op.BuildArgs, 2},
		{op.CallMacro, 0, 1, 0},
		{op.BuildArgs, 0},
		{op.CallMacro, op.Code(op.NoOperand), 2, op.Code(op.NoOperand)},
		{op.Return},
	}, instructions(main))
	require.Equal(t, 1, main.ChildCount())
	require.Equal(t, "main.0", main.ChildAt(0).ID())
	require.Equal(t, []string{"LOAD_CONST", "ECHO_RAW", "RETURN"}, opNames(main.ChildAt(0)))

	imp, ok := unit.Import("f")
	require.True(t, ok)
	require.Equal(t, []string{"LOAD_CONST", "RETURN"}, opNames(imp.Source))
	require.Equal(t, "forms", imp.Source.ConstantAt(0))
}

func TestInclude(t *testing.T) {
	unit := compileSource(t, "{% include 'part' %}{% include 'part' with [a => 1] %}")
	require.Equal(t, []string{
		"LOAD_CONST", "NIL", "INCLUDE",
		"LOAD_CONST", "LOAD_CONST", "LOAD_CONST", "BUILD_MAP", "INCLUDE",
		"RETURN",
	}, opNames(unit.Main()))
}

func TestLineTrace(t *testing.T) {
	source := "a\n{{ b }}\n{% if c %}\nx{% endif %}"
	unit := compileSource(t, source)
	main := unit.Main()
	var trace []bytecode.TraceEntry
	for i := 0; i < main.TraceCount(); i++ {
		trace = append(trace, main.TraceAt(i))
	}
	require.Equal(t, []bytecode.TraceEntry{
		{Offset: 0, Line: 1},  // "a\n"
		{Offset: 3, Line: 2},  // {{ b }}
		{Offset: 6, Line: 2},  // "\n"
		{Offset: 9, Line: 3},  // if
		{Offset: 13, Line: 3}, // "\nx"
	}, trace)
	require.Equal(t, 3, main.LineAt(10))
	require.Equal(t, 2, main.LineAt(4))
	require.Equal(t, "{{ b }}", main.GetSourceLine(2))
	require.Equal(t, 2, main.LocationAt(3).Line)
	require.Equal(t, 4, main.LocationAt(3).Column)
}
