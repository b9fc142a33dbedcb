// Package ast defines the abstract syntax tree of a template.
//
// Expressions evaluate to a value. Statements produce output or control
// flow. A Module aggregates the statements of one template along with its
// declared blocks, macros, imports and optional parent template.
package ast

import "github.com/scaffold-io/scaffold/internal/token"

// Node represents a portion of the syntax tree.
type Node interface {
	// Pos returns the position of the token that begins the node.
	Pos() token.Position

	// String returns a human friendly representation of the Node, close to
	// but not necessarily identical to the template source.
	String() string
}

// Expr represents an expression node.
type Expr interface {
	Node
	exprNode()
}

// Stmt represents a statement node.
type Stmt interface {
	Node
	stmtNode()
}
