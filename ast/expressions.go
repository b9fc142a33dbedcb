package ast

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/scaffold-io/scaffold/internal/token"
)

// Constant is a boolean, null, integer or float literal. Value holds a
// bool, nil, int64 or float64.
type Constant struct {
	ValuePos token.Position
	Value    any
}

func (x *Constant) exprNode() {}

func (x *Constant) Pos() token.Position { return x.ValuePos }

func (x *Constant) String() string {
	switch v := x.Value.(type) {
	case nil:
		return "null"
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return fmt.Sprintf("%v", v)
	}
}

// String is a string literal. It is also used for attribute names and bare
// array keys.
type String struct {
	ValuePos token.Position
	Value    string
}

func (x *String) exprNode() {}

func (x *String) Pos() token.Position { return x.ValuePos }

func (x *String) String() string { return strconv.Quote(x.Value) }

// Name is a variable resolved from the render context.
type Name struct {
	NamePos token.Position
	Name    string
}

func (x *Name) exprNode() {}

func (x *Name) Pos() token.Position { return x.NamePos }

func (x *Name) String() string { return x.Name }

// ArrayElement is one element of an array literal. Key is nil for
// positional elements.
type ArrayElement struct {
	Key   Expr
	Value Expr
}

// Array is an array literal: a list, a keyed container or a mix of both.
type Array struct {
	Lbrack   token.Position
	Elements []ArrayElement
}

func (x *Array) exprNode() {}

func (x *Array) Pos() token.Position { return x.Lbrack }

// IsList reports whether no element has a key.
func (x *Array) IsList() bool {
	for _, e := range x.Elements {
		if e.Key != nil {
			return false
		}
	}
	return true
}

func (x *Array) String() string {
	parts := make([]string, 0, len(x.Elements))
	for _, e := range x.Elements {
		if e.Key != nil {
			parts = append(parts, e.Key.String()+" => "+e.Value.String())
		} else {
			parts = append(parts, e.Value.String())
		}
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

// Attribute is obj.name, obj[expr] or obj.name(args). Call distinguishes a
// method-style call from a plain lookup.
type Attribute struct {
	Object Expr
	Attr   Expr
	Args   []Expr
	Call   bool
}

func (x *Attribute) exprNode() {}

func (x *Attribute) Pos() token.Position { return x.Object.Pos() }

func (x *Attribute) String() string {
	var s string
	if str, ok := x.Attr.(*String); ok && isIdentifier(str.Value) {
		s = x.Object.String() + "." + str.Value
	} else {
		s = x.Object.String() + "[" + x.Attr.String() + "]"
	}
	if x.Call {
		s += "(" + joinExprs(x.Args) + ")"
	}
	return s
}

// FunctionCall is a bare helper call such as range(1, 3).
type FunctionCall struct {
	NamePos token.Position
	Name    string
	Args    []Expr
}

func (x *FunctionCall) exprNode() {}

func (x *FunctionCall) Pos() token.Position { return x.NamePos }

func (x *FunctionCall) String() string {
	return x.Name + "(" + joinExprs(x.Args) + ")"
}

// FilterCall is one |name(args) application.
type FilterCall struct {
	NamePos token.Position
	Name    string
	Args    []Expr
}

// Filter applies a chain of helpers to Node, the first filter innermost.
type Filter struct {
	Node    Expr
	Filters []FilterCall
}

func (x *Filter) exprNode() {}

func (x *Filter) Pos() token.Position { return x.Node.Pos() }

func (x *Filter) String() string {
	var b strings.Builder
	b.WriteString(x.Node.String())
	for _, f := range x.Filters {
		b.WriteString("|")
		b.WriteString(f.Name)
		if len(f.Args) > 0 {
			b.WriteString("(" + joinExprs(f.Args) + ")")
		}
	}
	return b.String()
}

// BinaryOp identifies the operator of a Binary expression.
type BinaryOp int

const (
	Add BinaryOp = iota
	Sub
	Mul
	Div
	Mod
	Concat
	Join
	Xor
)

func (op BinaryOp) String() string {
	switch op {
	case Add:
		return "+"
	case Sub:
		return "-"
	case Mul:
		return "*"
	case Div:
		return "/"
	case Mod:
		return "%"
	case Concat:
		return "~"
	case Join:
		return ".."
	case Xor:
		return "xor"
	}
	return "?"
}

// Binary is an arithmetic, string or xor operation.
type Binary struct {
	OpPos token.Position
	Op    BinaryOp
	Left  Expr
	Right Expr
}

func (x *Binary) exprNode() {}

func (x *Binary) Pos() token.Position { return x.OpPos }

func (x *Binary) String() string {
	return fmt.Sprintf("(%s %s %s)", x.Left, x.Op, x.Right)
}

// LogicalOp identifies the operator of a Logical expression.
type LogicalOp int

const (
	And LogicalOp = iota
	Or
)

func (op LogicalOp) String() string {
	if op == And {
		return "and"
	}
	return "or"
}

// Logical is a short-circuit and/or. The result is the operand that
// decided it, not a boolean.
type Logical struct {
	OpPos token.Position
	Op    LogicalOp
	Left  Expr
	Right Expr
}

func (x *Logical) exprNode() {}

func (x *Logical) Pos() token.Position { return x.OpPos }

func (x *Logical) String() string {
	return fmt.Sprintf("(%s %s %s)", x.Left, x.Op, x.Right)
}

// Inclusion tests whether Left is an element of Right.
type Inclusion struct {
	OpPos   token.Position
	Left    Expr
	Right   Expr
	Negated bool
}

func (x *Inclusion) exprNode() {}

func (x *Inclusion) Pos() token.Position { return x.OpPos }

func (x *Inclusion) String() string {
	op := "in"
	if x.Negated {
		op = "not in"
	}
	return fmt.Sprintf("(%s %s %s)", x.Left, op, x.Right)
}

// CompareOperand is one (operator, operand) link of a comparison chain.
type CompareOperand struct {
	OpPos    token.Position
	Operator string
	Expr     Expr
}

// Compare is a comparison chain. a < b < c means (a < b) and (b < c) with
// b evaluated once.
type Compare struct {
	First Expr
	Ops   []CompareOperand
}

func (x *Compare) exprNode() {}

func (x *Compare) Pos() token.Position { return x.First.Pos() }

func (x *Compare) String() string {
	var b strings.Builder
	b.WriteString("(")
	b.WriteString(x.First.String())
	for _, o := range x.Ops {
		b.WriteString(" " + o.Operator + " " + o.Expr.String())
	}
	b.WriteString(")")
	return b.String()
}

// Conditional is cond ? then : else.
type Conditional struct {
	Cond Expr
	Then Expr
	Else Expr
}

func (x *Conditional) exprNode() {}

func (x *Conditional) Pos() token.Position { return x.Cond.Pos() }

func (x *Conditional) String() string {
	return fmt.Sprintf("(%s ? %s : %s)", x.Cond, x.Then, x.Else)
}

// UnaryOp identifies the operator of a Unary expression.
type UnaryOp int

const (
	Neg UnaryOp = iota
	Pos
	Not
)

func (op UnaryOp) String() string {
	switch op {
	case Neg:
		return "-"
	case Pos:
		return "+"
	}
	return "not "
}

// Unary is -x, +x or not x.
type Unary struct {
	OpPos   token.Position
	Op      UnaryOp
	Operand Expr
}

func (x *Unary) exprNode() {}

func (x *Unary) Pos() token.Position { return x.OpPos }

func (x *Unary) String() string {
	return fmt.Sprintf("(%s%s)", x.Op, x.Operand)
}

func joinExprs(exprs []Expr) string {
	parts := make([]string, 0, len(exprs))
	for _, e := range exprs {
		parts = append(parts, e.String())
	}
	return strings.Join(parts, ", ")
}

func isIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for i, c := range s {
		switch {
		case c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z'):
		case i > 0 && c >= '0' && c <= '9':
		default:
			return false
		}
	}
	return true
}
