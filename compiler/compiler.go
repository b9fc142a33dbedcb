// Package compiler turns a parsed template module into a bytecode.Unit.
//
// The unit holds one code block rendered by display, one per declared block,
// one per macro (each parameter default is its own small code block), one per
// import expression, and one child code block per call body passed to a
// macro. The compiler never evaluates expressions: operators, attribute
// access, helper calls and template resolution are all emitted as
// instructions that the vm package executes.
//
// # Line Trace
//
// Every statement records a bytecode.TraceEntry mapping the offset of its
// first instruction to the template line it was written on, and every
// instruction records the source location of the node being compiled. The vm
// uses both to attribute runtime failures to template lines.
//
// # Jumps
//
// Forward jumps are emitted with a Placeholder operand and patched once the
// destination is known. Jump operands are relative to the position of the
// jump instruction itself.
package compiler

import (
	"fmt"
	"math"

	"github.com/scaffold-io/scaffold/ast"
	"github.com/scaffold-io/scaffold/bytecode"
	"github.com/scaffold-io/scaffold/internal/token"
	"github.com/scaffold-io/scaffold/op"
)

const (
	// MaxArgs is the maximum number of arguments of a single call.
	MaxArgs = 255

	// Placeholder is a temporary value written during compilation, which is
	// always replaced before compilation is complete.
	Placeholder = uint16(math.MaxUint16)
)

// Option is a configuration function for the compiler.
type Option func(*Compiler)

// WithSource records the template source on the compiled unit, enabling
// source lines in error reports.
func WithSource(source string) Option {
	return func(c *Compiler) {
		c.source = source
	}
}

// Compiler compiles one template module. It is not reusable.
type Compiler struct {
	module   *ast.Module
	source   string
	filename string

	// The code we are currently compiling into
	current *code

	// Position of the node being compiled, for source locations
	pos token.Position

	// Set on a compilation error
	failure error
}

// Compile compiles the module into an immutable unit.
func Compile(module *ast.Module, opts ...Option) (*bytecode.Unit, error) {
	c := &Compiler{module: module, filename: module.Path}
	for _, opt := range opts {
		opt(c)
	}
	return c.compileModule()
}

func (c *Compiler) compileModule() (*bytecode.Unit, error) {
	m := c.module

	main := newCode("main", "main")
	if err := c.within(main, func() error {
		if m.Extends != nil {
			if err := c.compileExtends(m.Extends); err != nil {
				return err
			}
		}
		if err := c.compileNodeList(m.Body); err != nil {
			return err
		}
		c.emit(op.Return)
		return nil
	}); err != nil {
		return nil, err
	}

	var blocks []bytecode.Block
	for _, block := range m.Blocks {
		bc := newCode("block:"+block.Name, block.Name)
		if err := c.within(bc, func() error {
			c.pos = block.Pos()
			if err := c.compileNodeList(block.Body); err != nil {
				return err
			}
			c.emit(op.Return)
			return nil
		}); err != nil {
			return nil, err
		}
		blocks = append(blocks, bytecode.Block{Name: block.Name, Code: c.finish(bc)})
	}

	var macros []*bytecode.Macro
	for _, macro := range m.Macros {
		mc, params, err := c.compileMacro(macro)
		if err != nil {
			return nil, err
		}
		macros = append(macros, bytecode.NewMacro(macro.Name, params, mc))
	}

	var imports []bytecode.Import
	for _, imp := range m.Imports {
		ic, err := c.compileExpressionCode("import:"+imp.Alias, imp.Alias, imp.Source)
		if err != nil {
			return nil, err
		}
		imports = append(imports, bytecode.Import{Alias: imp.Alias, Source: ic})
	}

	return bytecode.NewUnit(bytecode.UnitParams{
		Path:    m.Path,
		Name:    m.Name,
		Source:  c.source,
		Main:    c.finish(main),
		Blocks:  blocks,
		Macros:  macros,
		Imports: imports,
		Extends: m.Extends != nil,
	}), nil
}

func (c *Compiler) compileMacro(macro *ast.Macro) (*bytecode.Code, []bytecode.Param, error) {
	var params []bytecode.Param
	for _, param := range macro.Params {
		id := fmt.Sprintf("macro:%s.default:%s", macro.Name, param.Name)
		def, err := c.compileExpressionCode(id, param.Name, param.Default)
		if err != nil {
			return nil, nil, err
		}
		params = append(params, bytecode.Param{Name: param.Name, Default: def})
	}
	mc := newCode("macro:"+macro.Name, macro.Name)
	if err := c.within(mc, func() error {
		c.pos = macro.Pos()
		if err := c.compileNodeList(macro.Body); err != nil {
			return err
		}
		c.emit(op.Return)
		return nil
	}); err != nil {
		return nil, nil, err
	}
	return c.finish(mc), params, nil
}

// compileExpressionCode compiles a standalone code block that leaves the
// value of expr on the stack when it returns.
func (c *Compiler) compileExpressionCode(id, name string, expr ast.Expr) (*bytecode.Code, error) {
	ec := newCode(id, name)
	if err := c.within(ec, func() error {
		c.pos = expr.Pos()
		c.trace(expr.Pos())
		if err := c.compileExpr(expr); err != nil {
			return err
		}
		c.emit(op.Return)
		return nil
	}); err != nil {
		return nil, err
	}
	return c.finish(ec), nil
}

// within compiles into target for the duration of fn.
func (c *Compiler) within(target *code, fn func() error) error {
	prev := c.current
	c.current = target
	defer func() { c.current = prev }()
	if err := fn(); err != nil {
		return err
	}
	return c.failure
}

func (c *Compiler) finish(target *code) *bytecode.Code {
	return target.toBytecode(c.filename, c.source)
}

func (c *Compiler) compileNodeList(list *ast.NodeList) error {
	if list == nil {
		return nil
	}
	for _, node := range list.Nodes {
		if err := c.compileStmt(node); err != nil {
			return err
		}
	}
	return nil
}

func (c *Compiler) compileStmt(node ast.Stmt) error {
	c.pos = node.Pos()
	c.trace(node.Pos())
	switch node := node.(type) {
	case *ast.NodeList:
		return c.compileNodeList(node)
	case *ast.Text:
		c.emit(op.LoadConst, c.constant(node.Data))
		c.emit(op.EchoRaw)
	case *ast.Output:
		if err := c.compileExpr(node.Expr); err != nil {
			return err
		}
		c.emit(op.Echo)
	case *ast.Raw:
		if err := c.compileExpr(node.Expr); err != nil {
			return err
		}
		c.emit(op.EchoRaw)
	case *ast.If:
		return c.compileIf(node)
	case *ast.For:
		return c.compileFor(node)
	case *ast.Break:
		return c.compileBreak(node)
	case *ast.Continue:
		return c.compileContinue(node)
	case *ast.Assign:
		return c.compileAssign(node)
	case *ast.BlockDisplay:
		c.emit(op.DisplayBlock, c.current.addName(node.Name))
	case *ast.Parent:
		c.emit(op.DisplayParent, c.current.addName(node.Name))
	case *ast.Call:
		return c.compileCall(node)
	case *ast.Yield:
		if err := c.compileCallArgs(node.Args); err != nil {
			return err
		}
		c.emit(op.Yield)
	case *ast.Include:
		if err := c.compileExpr(node.Source); err != nil {
			return err
		}
		if err := c.compileOptionalExpr(node.Params); err != nil {
			return err
		}
		c.emit(op.Include)
	case *ast.Extends, *ast.Import, *ast.Macro, *ast.Block:
		// Declarations are compiled into their own code blocks.
	default:
		return c.errorf(node.Pos(), "unsupported statement %T", node)
	}
	return nil
}

// compileExtends emits the hoisted extends check: when the (optional)
// condition holds, the parent is rendered and the child's own body is not.
func (c *Compiler) compileExtends(node *ast.Extends) error {
	c.pos = node.Pos()
	c.trace(node.Pos())
	jumpPos := -1
	if node.Cond != nil {
		if err := c.compileExpr(node.Cond); err != nil {
			return err
		}
		jumpPos = c.emit(op.PopJumpForwardIfFalse, Placeholder)
	}
	if err := c.compileExpr(node.Parent); err != nil {
		return err
	}
	if err := c.compileOptionalExpr(node.Params); err != nil {
		return err
	}
	c.emit(op.Extends)
	c.emit(op.Return)
	if jumpPos >= 0 {
		return c.patchJump(jumpPos)
	}
	return nil
}

func (c *Compiler) compileIf(node *ast.If) error {
	var endJumps []int
	for _, branch := range node.Branches {
		c.pos = branch.Cond.Pos()
		if err := c.compileExpr(branch.Cond); err != nil {
			return err
		}
		jumpIfFalsePos := c.emit(op.PopJumpForwardIfFalse, Placeholder)
		if err := c.compileNodeList(branch.Body); err != nil {
			return err
		}
		endJumps = append(endJumps, c.emit(op.JumpForward, Placeholder))
		if err := c.patchJump(jumpIfFalsePos); err != nil {
			return err
		}
	}
	if err := c.compileNodeList(node.Else); err != nil {
		return err
	}
	for _, pos := range endJumps {
		if err := c.patchJump(pos); err != nil {
			return err
		}
	}
	return nil
}

// compileFor emits:
//
//	PUSH_CONTEXT loop, [key], value
//	<seq> GET_ITER COPY 0 STORE_NAME loop
//	[ITER_EMPTY POP_JUMP_FORWARD_IF_TRUE else]
//	start: FOR_ITER exit
//	STORE_NAME value [STORE_NAME key] <body> JUMP_BACKWARD start
//	exit: POP_ITER
//	[JUMP_FORWARD end  else: POP_ITER <else body>  end:]
//	POP_CONTEXT value, [key], loop
func (c *Compiler) compileFor(node *ast.For) error {
	code := c.current
	loopName := code.addName("loop")
	valueName := code.addName(node.Value)
	var keyName uint16
	hasKey := node.Key != ""

	c.emit(op.PushContext, loopName)
	if hasKey {
		keyName = code.addName(node.Key)
		c.emit(op.PushContext, keyName)
	}
	c.emit(op.PushContext, valueName)

	if err := c.compileExpr(node.Seq); err != nil {
		return err
	}
	c.pos = node.Pos()
	c.emit(op.GetIter)
	c.emit(op.Copy, 0)
	c.emit(op.StoreName, loopName)

	elseJumpPos := -1
	if node.Else != nil {
		c.emit(op.IterEmpty)
		elseJumpPos = c.emit(op.PopJumpForwardIfTrue, Placeholder)
	}

	withKey := uint16(0)
	if hasKey {
		withKey = 1
	}
	start := c.emit(op.ForIter, Placeholder, withKey)
	c.emit(op.StoreName, valueName)
	if hasKey {
		c.emit(op.StoreName, keyName)
	}

	l := &loop{start: start, captureBase: len(code.captures)}
	code.loops = append(code.loops, l)
	err := c.compileNodeList(node.Body)
	code.loops = code.loops[:len(code.loops)-1]
	if err != nil {
		return err
	}
	c.pos = node.Pos()
	c.emit(op.JumpBackward, uint16(len(code.instructions)-start))

	if err := c.patchJump(start); err != nil {
		return err
	}
	for _, pos := range l.breakPos {
		if err := c.patchJump(pos); err != nil {
			return err
		}
	}
	c.emit(op.PopIter)

	if node.Else != nil {
		endJumpPos := c.emit(op.JumpForward, Placeholder)
		if err := c.patchJump(elseJumpPos); err != nil {
			return err
		}
		c.emit(op.PopIter)
		if err := c.compileNodeList(node.Else); err != nil {
			return err
		}
		if err := c.patchJump(endJumpPos); err != nil {
			return err
		}
	}

	c.pos = node.Pos()
	c.emit(op.PopContext, valueName)
	if hasKey {
		c.emit(op.PopContext, keyName)
	}
	c.emit(op.PopContext, loopName)
	return nil
}

// closeCaptures discards the output captures opened inside the current loop
// before a break or continue leaves them.
func (c *Compiler) closeCaptures(l *loop) {
	captures := c.current.captures
	for i := len(captures) - 1; i >= l.captureBase; i-- {
		c.emit(op.EndCapture)
		c.emit(op.PopTop)
		for j := 0; j < captures[i].stackItems; j++ {
			c.emit(op.PopTop)
		}
	}
}

func (c *Compiler) compileBreak(node *ast.Break) error {
	l := c.current.currentLoop()
	if l == nil {
		return c.errorf(node.Pos(), "unexpected break, not in for loop")
	}
	c.closeCaptures(l)
	l.breakPos = append(l.breakPos, c.emit(op.JumpForward, Placeholder))
	return nil
}

func (c *Compiler) compileContinue(node *ast.Continue) error {
	l := c.current.currentLoop()
	if l == nil {
		return c.errorf(node.Pos(), "unexpected continue, not in for loop")
	}
	c.closeCaptures(l)
	pos := len(c.current.instructions)
	c.emit(op.JumpBackward, uint16(pos-l.start))
	return nil
}

func (c *Compiler) compileAssign(node *ast.Assign) error {
	code := c.current
	for _, segment := range node.Path {
		if err := c.compileExpr(segment); err != nil {
			return err
		}
	}
	if node.Body != nil {
		c.emit(op.BeginCapture)
		code.captures = append(code.captures, capture{stackItems: len(node.Path)})
		err := c.compileNodeList(node.Body)
		code.captures = code.captures[:len(code.captures)-1]
		if err != nil {
			return err
		}
		c.pos = node.Pos()
		c.emit(op.EndCapture)
	} else if err := c.compileExpr(node.Value); err != nil {
		return err
	}
	name := code.addName(node.Name)
	if len(node.Path) == 0 {
		c.emit(op.StoreName, name)
		return nil
	}
	c.emit(op.SetAttr, name, uint16(len(node.Path)))
	return nil
}

func (c *Compiler) compileCall(node *ast.Call) error {
	if err := c.compileCallArgs(node.Args); err != nil {
		return err
	}
	code := c.current
	module := op.NoOperand
	if node.Module != "" {
		module = code.addName(node.Module)
	}
	body := op.NoOperand
	if node.Body != nil {
		child := code.newChild("body:" + node.Name)
		if err := c.within(child, func() error {
			if err := c.compileNodeList(node.Body); err != nil {
				return err
			}
			c.emit(op.Return)
			return nil
		}); err != nil {
			return err
		}
		body = uint16(len(code.children) - 1)
	}
	c.pos = node.Pos()
	c.emit(op.CallMacro, module, code.addName(node.Name), body)
	return nil
}

// compileCallArgs pushes (key, value) pairs, a nil key marking a positional
// argument, and builds them into one args value.
func (c *Compiler) compileCallArgs(args []ast.CallArg) error {
	if len(args) > MaxArgs {
		return c.errorf(c.pos, "too many arguments (%d)", len(args))
	}
	for _, arg := range args {
		if arg.Name == "" {
			c.emit(op.Nil)
		} else {
			c.emit(op.LoadConst, c.constant(arg.Name))
		}
		if err := c.compileExpr(arg.Value); err != nil {
			return err
		}
	}
	c.emit(op.BuildArgs, uint16(len(args)))
	return nil
}

func (c *Compiler) compileOptionalExpr(expr ast.Expr) error {
	if expr == nil {
		c.emit(op.Nil)
		return nil
	}
	return c.compileExpr(expr)
}

func (c *Compiler) compileExpr(node ast.Expr) error {
	c.pos = node.Pos()
	switch node := node.(type) {
	case *ast.Constant:
		switch v := node.Value.(type) {
		case nil:
			c.emit(op.Nil)
		case bool:
			if v {
				c.emit(op.True)
			} else {
				c.emit(op.False)
			}
		default:
			c.emit(op.LoadConst, c.constant(v))
		}
	case *ast.String:
		c.emit(op.LoadConst, c.constant(node.Value))
	case *ast.Name:
		c.emit(op.LoadName, c.current.addName(node.Name))
	case *ast.Array:
		return c.compileArray(node)
	case *ast.Attribute:
		return c.compileAttribute(node)
	case *ast.FunctionCall:
		if err := c.compileArgs(node.Args); err != nil {
			return err
		}
		c.pos = node.Pos()
		c.emit(op.CallHelper, c.current.addName(node.Name), uint16(len(node.Args)))
	case *ast.Filter:
		if err := c.compileExpr(node.Node); err != nil {
			return err
		}
		for _, f := range node.Filters {
			if err := c.compileArgs(f.Args); err != nil {
				return err
			}
			c.pos = f.NamePos
			c.emit(op.CallHelper, c.current.addName(f.Name), uint16(len(f.Args)+1))
		}
	case *ast.Binary:
		return c.compileBinary(node)
	case *ast.Logical:
		return c.compileLogical(node)
	case *ast.Inclusion:
		if err := c.compileExpr(node.Left); err != nil {
			return err
		}
		if err := c.compileExpr(node.Right); err != nil {
			return err
		}
		negate := uint16(0)
		if node.Negated {
			negate = 1
		}
		c.pos = node.Pos()
		c.emit(op.ContainsOp, negate)
	case *ast.Compare:
		return c.compileCompare(node)
	case *ast.Conditional:
		return c.compileConditional(node)
	case *ast.Unary:
		if err := c.compileExpr(node.Operand); err != nil {
			return err
		}
		c.pos = node.Pos()
		switch node.Op {
		case ast.Neg:
			c.emit(op.UnaryNegative)
		case ast.Pos:
			c.emit(op.UnaryPositive)
		default:
			c.emit(op.UnaryNot)
		}
	default:
		return c.errorf(node.Pos(), "unsupported expression %T", node)
	}
	return nil
}

func (c *Compiler) compileArgs(args []ast.Expr) error {
	if len(args) >= MaxArgs {
		return c.errorf(c.pos, "too many arguments (%d)", len(args))
	}
	for _, arg := range args {
		if err := c.compileExpr(arg); err != nil {
			return err
		}
	}
	return nil
}

func (c *Compiler) compileArray(node *ast.Array) error {
	if node.IsList() {
		for _, elem := range node.Elements {
			if err := c.compileExpr(elem.Value); err != nil {
				return err
			}
		}
		c.pos = node.Pos()
		c.emit(op.BuildList, uint16(len(node.Elements)))
		return nil
	}
	for _, elem := range node.Elements {
		if err := c.compileOptionalExpr(elem.Key); err != nil {
			return err
		}
		if err := c.compileExpr(elem.Value); err != nil {
			return err
		}
	}
	c.pos = node.Pos()
	c.emit(op.BuildMap, uint16(len(node.Elements)))
	return nil
}

func (c *Compiler) compileAttribute(node *ast.Attribute) error {
	if err := c.compileExpr(node.Object); err != nil {
		return err
	}
	if err := c.compileExpr(node.Attr); err != nil {
		return err
	}
	if !node.Call {
		c.pos = node.Pos()
		c.emit(op.GetAttr)
		return nil
	}
	if err := c.compileArgs(node.Args); err != nil {
		return err
	}
	c.pos = node.Pos()
	c.emit(op.CallAttr, uint16(len(node.Args)))
	return nil
}

var binaryOps = map[ast.BinaryOp]op.BinaryOpType{
	ast.Add:    op.Add,
	ast.Sub:    op.Subtract,
	ast.Mul:    op.Multiply,
	ast.Div:    op.Divide,
	ast.Mod:    op.Modulo,
	ast.Concat: op.Concat,
	ast.Join:   op.Join,
	ast.Xor:    op.Xor,
}

func (c *Compiler) compileBinary(node *ast.Binary) error {
	if err := c.compileExpr(node.Left); err != nil {
		return err
	}
	if err := c.compileExpr(node.Right); err != nil {
		return err
	}
	c.pos = node.Pos()
	bop, ok := binaryOps[node.Op]
	if !ok {
		return c.errorf(node.Pos(), "unknown operator %q", node.Op)
	}
	c.emit(op.BinaryOp, uint16(bop))
	return nil
}

// compileLogical emits and/or with short-circuiting that yields the
// deciding operand itself rather than a boolean.
func (c *Compiler) compileLogical(node *ast.Logical) error {
	if err := c.compileExpr(node.Left); err != nil {
		return err
	}
	c.pos = node.Pos()
	jump := op.JumpForwardIfFalseOrPop
	if node.Op == ast.Or {
		jump = op.JumpForwardIfTrueOrPop
	}
	jumpPos := c.emit(jump, Placeholder)
	if err := c.compileExpr(node.Right); err != nil {
		return err
	}
	return c.patchJump(jumpPos)
}

// compileCompare emits a chain a op1 b op2 c as (a op1 b) and (b op2 c),
// evaluating b once. Intermediate operands are kept on the stack with
// SWAP/COPY and the chain stops at the first false comparison.
func (c *Compiler) compileCompare(node *ast.Compare) error {
	if err := c.compileExpr(node.First); err != nil {
		return err
	}
	var cleanup []int
	last := len(node.Ops) - 1
	for i, operand := range node.Ops {
		if err := c.compileExpr(operand.Expr); err != nil {
			return err
		}
		c.pos = operand.OpPos
		cop, ok := op.CompareOpFor(operand.Operator)
		if !ok {
			return c.errorf(operand.OpPos, "unknown operator %q", operand.Operator)
		}
		if i < last {
			c.emit(op.Swap, 1)
			c.emit(op.Copy, 1)
			c.emit(op.CompareOp, uint16(cop))
			cleanup = append(cleanup, c.emit(op.JumpForwardIfFalseOrPop, Placeholder))
		} else {
			c.emit(op.CompareOp, uint16(cop))
		}
	}
	if len(cleanup) == 0 {
		return nil
	}
	endPos := c.emit(op.JumpForward, Placeholder)
	for _, pos := range cleanup {
		if err := c.patchJump(pos); err != nil {
			return err
		}
	}
	c.emit(op.Swap, 1)
	c.emit(op.PopTop)
	return c.patchJump(endPos)
}

func (c *Compiler) compileConditional(node *ast.Conditional) error {
	if err := c.compileExpr(node.Cond); err != nil {
		return err
	}
	jumpIfFalsePos := c.emit(op.PopJumpForwardIfFalse, Placeholder)
	if err := c.compileExpr(node.Then); err != nil {
		return err
	}
	jumpForwardPos := c.emit(op.JumpForward, Placeholder)
	if err := c.patchJump(jumpIfFalsePos); err != nil {
		return err
	}
	if err := c.compileExpr(node.Else); err != nil {
		return err
	}
	return c.patchJump(jumpForwardPos)
}

// trace records that a statement starts at the next instruction.
func (c *Compiler) trace(pos token.Position) {
	code := c.current
	entry := bytecode.TraceEntry{Offset: len(code.instructions), Line: pos.Line}
	if n := len(code.trace); n > 0 && code.trace[n-1].Offset == entry.Offset {
		code.trace[n-1] = entry
		return
	}
	code.trace = append(code.trace, entry)
}

// patchJump points the jump at pos to the next instruction.
func (c *Compiler) patchJump(pos int) error {
	delta, err := c.calculateDelta(pos)
	if err != nil {
		return err
	}
	c.changeOperand(pos, delta)
	return nil
}

func (c *Compiler) calculateDelta(pos int) (uint16, error) {
	instrCount := len(c.current.instructions)
	delta := instrCount - pos
	if delta >= math.MaxUint16 {
		return 0, fmt.Errorf("compile error: jump destination is too far away")
	}
	return uint16(delta), nil
}

func (c *Compiler) changeOperand(instructionIndex int, operand uint16) {
	c.current.instructions[instructionIndex+1] = op.Code(operand)
}

func (c *Compiler) constant(obj any) uint16 {
	code := c.current
	for i, existing := range code.constants {
		if existing == obj {
			return uint16(i)
		}
	}
	if len(code.constants) >= math.MaxUint16 {
		c.failure = fmt.Errorf("compile error: number of constants exceeded limits")
		return 0
	}
	code.constants = append(code.constants, obj)
	return uint16(len(code.constants) - 1)
}

func (c *Compiler) emit(opcode op.Code, operands ...uint16) int {
	inst := makeInstruction(opcode, operands...)
	code := c.current
	pos := len(code.instructions)
	code.instructions = append(code.instructions, inst...)
	loc := bytecode.SourceLocation{Line: c.pos.Line, Column: c.pos.Column}
	for range inst {
		code.locations = append(code.locations, loc)
	}
	return pos
}

func (c *Compiler) errorf(pos token.Position, format string, args ...any) error {
	msg := fmt.Sprintf(format, args...)
	if c.filename != "" {
		return fmt.Errorf("compile error: %s: %s in line %d", c.filename, msg, pos.Line)
	}
	return fmt.Errorf("compile error: %s in line %d", msg, pos.Line)
}

func makeInstruction(opcode op.Code, operands ...uint16) []op.Code {
	opInfo := op.GetInfo(opcode)
	if len(operands) != opInfo.OperandCount {
		panic("compile error: wrong operand count")
	}
	instruction := make([]op.Code, 1+opInfo.OperandCount)
	instruction[0] = opcode
	offset := 1
	for _, o := range operands {
		instruction[offset] = op.Code(o)
		offset++
	}
	return instruction
}
