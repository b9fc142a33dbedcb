package ast

import (
	"fmt"
	"strings"

	"github.com/scaffold-io/scaffold/internal/token"
)

// NodeList is an ordered sequence of statements, the body of every
// compound statement.
type NodeList struct {
	ListPos token.Position
	Nodes   []Stmt
}

func (x *NodeList) stmtNode() {}

func (x *NodeList) Pos() token.Position { return x.ListPos }

func (x *NodeList) String() string {
	parts := make([]string, 0, len(x.Nodes))
	for _, n := range x.Nodes {
		parts = append(parts, n.String())
	}
	return strings.Join(parts, "")
}

// Len returns the number of statements in the list. It is nil safe.
func (x *NodeList) Len() int {
	if x == nil {
		return 0
	}
	return len(x.Nodes)
}

// Text is literal template text.
type Text struct {
	TextPos token.Position
	Data    string
}

func (x *Text) stmtNode() {}

func (x *Text) Pos() token.Position { return x.TextPos }

func (x *Text) String() string { return x.Data }

// Output writes the escaped value of Expr.
type Output struct {
	OutputPos token.Position
	Expr      Expr
}

func (x *Output) stmtNode() {}

func (x *Output) Pos() token.Position { return x.OutputPos }

func (x *Output) String() string { return "{{ " + x.Expr.String() + " }}" }

// Raw writes the value of Expr without escaping.
type Raw struct {
	RawPos token.Position
	Expr   Expr
}

func (x *Raw) stmtNode() {}

func (x *Raw) Pos() token.Position { return x.RawPos }

func (x *Raw) String() string { return "{! " + x.Expr.String() + " !}" }

// IfBranch is one condition and the body rendered when it holds.
type IfBranch struct {
	Cond Expr
	Body *NodeList
}

// If renders the body of the first branch whose condition is truthy, or
// Else when none is.
type If struct {
	IfPos    token.Position
	Branches []IfBranch
	Else     *NodeList
}

func (x *If) stmtNode() {}

func (x *If) Pos() token.Position { return x.IfPos }

func (x *If) String() string {
	var b strings.Builder
	for i, br := range x.Branches {
		tag := "if"
		if i > 0 {
			tag = "elseif"
		}
		fmt.Fprintf(&b, "{%% %s %s %%}%s", tag, br.Cond, br.Body)
	}
	if x.Else != nil {
		fmt.Fprintf(&b, "{%% else %%}%s", x.Else)
	}
	b.WriteString("{% endif %}")
	return b.String()
}

// For iterates Seq binding Value (and Key when set). Else is rendered when
// the sequence is empty or not iterable.
type For struct {
	ForPos token.Position
	Key    string
	Value  string
	Seq    Expr
	Body   *NodeList
	Else   *NodeList
}

func (x *For) stmtNode() {}

func (x *For) Pos() token.Position { return x.ForPos }

func (x *For) String() string {
	names := x.Value
	if x.Key != "" {
		names = x.Key + ", " + x.Value
	}
	s := fmt.Sprintf("{%% for %s in %s %%}%s", names, x.Seq, x.Body)
	if x.Else != nil {
		s += "{% else %}" + x.Else.String()
	}
	return s + "{% endfor %}"
}

// Break leaves the innermost for loop.
type Break struct {
	BreakPos token.Position
}

func (x *Break) stmtNode() {}

func (x *Break) Pos() token.Position { return x.BreakPos }

func (x *Break) String() string { return "{% break %}" }

// Continue skips to the next iteration of the innermost for loop.
type Continue struct {
	ContinuePos token.Position
}

func (x *Continue) stmtNode() {}

func (x *Continue) Pos() token.Position { return x.ContinuePos }

func (x *Continue) String() string { return "{% continue %}" }

// Assign sets a context variable, or a nested attribute of it when Path is
// not empty. Exactly one of Value and Body is set; a Body is rendered and
// its output assigned.
type Assign struct {
	AssignPos token.Position
	Name      string
	Path      []Expr
	Value     Expr
	Body      *NodeList
}

func (x *Assign) stmtNode() {}

func (x *Assign) Pos() token.Position { return x.AssignPos }

func (x *Assign) String() string {
	var b strings.Builder
	b.WriteString("{% assign " + x.Name)
	for _, p := range x.Path {
		if s, ok := p.(*String); ok && isIdentifier(s.Value) {
			b.WriteString("." + s.Value)
		} else {
			b.WriteString("[" + p.String() + "]")
		}
	}
	if x.Value != nil {
		b.WriteString(" = " + x.Value.String() + " %}")
		return b.String()
	}
	b.WriteString(" %}" + x.Body.String() + "{% endassign %}")
	return b.String()
}

// Block declares a named, overridable region. The statement is recorded on
// the Module; a BlockDisplay is left where it was declared.
type Block struct {
	BlockPos token.Position
	Name     string
	Body     *NodeList
}

func (x *Block) stmtNode() {}

func (x *Block) Pos() token.Position { return x.BlockPos }

func (x *Block) String() string {
	return fmt.Sprintf("{%% block %s %%}%s{%% endblock %%}", x.Name, x.Body)
}

// BlockDisplay renders the block called Name, resolved at run time against
// the override blocks of the inheritance chain.
type BlockDisplay struct {
	BlockPos token.Position
	Name     string
}

func (x *BlockDisplay) stmtNode() {}

func (x *BlockDisplay) Pos() token.Position { return x.BlockPos }

func (x *BlockDisplay) String() string { return "{% block " + x.Name + " %}" }

// Parent renders the parent template's version of the enclosing block.
type Parent struct {
	ParentPos token.Position
	Name      string
}

func (x *Parent) stmtNode() {}

func (x *Parent) Pos() token.Position { return x.ParentPos }

func (x *Parent) String() string { return "{% parent %}" }

// MacroParam is a macro parameter. Default is a Constant null when the
// parameter has no default.
type MacroParam struct {
	Name    string
	Default Expr
}

// Macro declares a named, parameterized body. Like Block it is recorded on
// the Module and produces no output where it is declared.
type Macro struct {
	MacroPos token.Position
	Name     string
	Params   []MacroParam
	Body     *NodeList
}

func (x *Macro) stmtNode() {}

func (x *Macro) Pos() token.Position { return x.MacroPos }

func (x *Macro) String() string {
	params := make([]string, 0, len(x.Params))
	for _, p := range x.Params {
		params = append(params, p.Name+"="+p.Default.String())
	}
	return fmt.Sprintf("{%% macro %s(%s) %%}%s{%% endmacro %%}", x.Name, strings.Join(params, ", "), x.Body)
}

// CallArg is a call or yield argument. Name is empty for positional
// arguments.
type CallArg struct {
	Name  string
	Value Expr
}

func (a CallArg) String() string {
	if a.Name == "" {
		return a.Value.String()
	}
	return a.Name + "=" + a.Value.String()
}

func joinArgs(args []CallArg) string {
	parts := make([]string, 0, len(args))
	for _, a := range args {
		parts = append(parts, a.String())
	}
	return strings.Join(parts, ", ")
}

// Call expands a macro, optionally qualified by an import alias. Body, when
// present, is passed to the macro as a closure invoked by yield.
type Call struct {
	CallPos token.Position
	Module  string
	Name    string
	Args    []CallArg
	Body    *NodeList
}

func (x *Call) stmtNode() {}

func (x *Call) Pos() token.Position { return x.CallPos }

func (x *Call) String() string {
	name := x.Name
	if x.Module != "" {
		name = x.Module + "." + x.Name
	}
	s := fmt.Sprintf("{%% call %s(%s)", name, joinArgs(x.Args))
	if x.Body != nil {
		return s + " with %}" + x.Body.String() + "{% endcall %}"
	}
	return s + " %}"
}

// Yield invokes the body closure supplied by the caller of the enclosing
// macro, with Args layered over the macro's context.
type Yield struct {
	YieldPos token.Position
	Args     []CallArg
}

func (x *Yield) stmtNode() {}

func (x *Yield) Pos() token.Position { return x.YieldPos }

func (x *Yield) String() string { return "{% yield(" + joinArgs(x.Args) + ") %}" }

// Import makes the macros of another template available as Alias.name.
type Import struct {
	ImportPos token.Position
	Alias     string
	Source    Expr
}

func (x *Import) stmtNode() {}

func (x *Import) Pos() token.Position { return x.ImportPos }

func (x *Import) String() string {
	return fmt.Sprintf("{%% import %s as %s %%}", x.Source, x.Alias)
}

// Include renders another template in place. Params, when set, is layered
// over the current context.
type Include struct {
	IncludePos token.Position
	Source     Expr
	Params     Expr
}

func (x *Include) stmtNode() {}

func (x *Include) Pos() token.Position { return x.IncludePos }

func (x *Include) String() string {
	if x.Params != nil {
		return fmt.Sprintf("{%% include %s with %s %%}", x.Source, x.Params)
	}
	return fmt.Sprintf("{%% include %s %%}", x.Source)
}

// Extends makes the template inherit from Parent. Cond, when set, comes
// from an inline if/unless modifier.
type Extends struct {
	ExtendsPos token.Position
	Parent     Expr
	Params     Expr
	Cond       Expr
}

func (x *Extends) stmtNode() {}

func (x *Extends) Pos() token.Position { return x.ExtendsPos }

func (x *Extends) String() string {
	s := "{% extends " + x.Parent.String()
	if x.Params != nil {
		s += " with " + x.Params.String()
	}
	if x.Cond != nil {
		s += " if " + x.Cond.String()
	}
	return s + " %}"
}
