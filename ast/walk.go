package ast

// Visitor defines the interface for AST traversal. If Visit returns nil,
// children of the node are not visited. Otherwise, the returned Visitor
// is used to visit children.
type Visitor interface {
	Visit(node Node) (w Visitor)
}

// Walk traverses an AST in depth-first order. It starts by calling
// v.Visit(node); if the returned visitor w is not nil, Walk is invoked
// recursively with visitor w for each of the non-nil children of node.
// Walking a Module also visits its block and macro declarations.
func Walk(v Visitor, node Node) {
	if v = v.Visit(node); v == nil {
		return
	}

	switch n := node.(type) {
	case *Module:
		if n.Extends != nil {
			Walk(v, n.Extends)
		}
		for _, imp := range n.Imports {
			Walk(v, imp)
		}
		for _, b := range n.Blocks {
			Walk(v, b)
		}
		for _, m := range n.Macros {
			Walk(v, m)
		}
		walkList(v, n.Body)

	// Statements
	case *NodeList:
		for _, s := range n.Nodes {
			Walk(v, s)
		}
	case *Output:
		Walk(v, n.Expr)
	case *Raw:
		Walk(v, n.Expr)
	case *If:
		for _, br := range n.Branches {
			Walk(v, br.Cond)
			walkList(v, br.Body)
		}
		walkList(v, n.Else)
	case *For:
		Walk(v, n.Seq)
		walkList(v, n.Body)
		walkList(v, n.Else)
	case *Assign:
		walkExprs(v, n.Path)
		if n.Value != nil {
			Walk(v, n.Value)
		}
		walkList(v, n.Body)
	case *Block:
		walkList(v, n.Body)
	case *Macro:
		for _, p := range n.Params {
			if p.Default != nil {
				Walk(v, p.Default)
			}
		}
		walkList(v, n.Body)
	case *Call:
		for _, a := range n.Args {
			Walk(v, a.Value)
		}
		walkList(v, n.Body)
	case *Yield:
		for _, a := range n.Args {
			Walk(v, a.Value)
		}
	case *Import:
		Walk(v, n.Source)
	case *Include:
		Walk(v, n.Source)
		if n.Params != nil {
			Walk(v, n.Params)
		}
	case *Extends:
		Walk(v, n.Parent)
		if n.Params != nil {
			Walk(v, n.Params)
		}
		if n.Cond != nil {
			Walk(v, n.Cond)
		}
	case *Text, *Break, *Continue, *BlockDisplay, *Parent:
		// no children

	// Expressions
	case *Array:
		for _, e := range n.Elements {
			if e.Key != nil {
				Walk(v, e.Key)
			}
			Walk(v, e.Value)
		}
	case *Attribute:
		Walk(v, n.Object)
		Walk(v, n.Attr)
		walkExprs(v, n.Args)
	case *FunctionCall:
		walkExprs(v, n.Args)
	case *Filter:
		Walk(v, n.Node)
		for _, f := range n.Filters {
			walkExprs(v, f.Args)
		}
	case *Binary:
		Walk(v, n.Left)
		Walk(v, n.Right)
	case *Logical:
		Walk(v, n.Left)
		Walk(v, n.Right)
	case *Inclusion:
		Walk(v, n.Left)
		Walk(v, n.Right)
	case *Compare:
		Walk(v, n.First)
		for _, o := range n.Ops {
			Walk(v, o.Expr)
		}
	case *Conditional:
		Walk(v, n.Cond)
		Walk(v, n.Then)
		Walk(v, n.Else)
	case *Unary:
		Walk(v, n.Operand)
	case *Constant, *String, *Name:
		// no children
	}

	v.Visit(nil)
}

func walkList(v Visitor, list *NodeList) {
	if list != nil {
		Walk(v, list)
	}
}

func walkExprs(v Visitor, exprs []Expr) {
	for _, e := range exprs {
		Walk(v, e)
	}
}

type inspector func(Node) bool

func (f inspector) Visit(node Node) Visitor {
	if node == nil {
		return nil
	}
	if f(node) {
		return f
	}
	return nil
}

// Inspect traverses an AST in depth-first order, calling f for each node.
// If f returns false, the children of that node are skipped.
func Inspect(node Node, f func(Node) bool) {
	Walk(inspector(f), node)
}

// Helpers returns the names of all helpers referenced by filters and
// function calls under node, in first-use order.
func Helpers(node Node) []string {
	var names []string
	seen := map[string]bool{}
	add := func(name string) {
		if !seen[name] {
			seen[name] = true
			names = append(names, name)
		}
	}
	Inspect(node, func(n Node) bool {
		switch x := n.(type) {
		case *FunctionCall:
			add(x.Name)
		case *Filter:
			for _, f := range x.Filters {
				add(f.Name)
			}
		}
		return true
	})
	return names
}
