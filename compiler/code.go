package compiler

import (
	"fmt"

	"github.com/scaffold-io/scaffold/bytecode"
	"github.com/scaffold-io/scaffold/op"
)

type loop struct {
	start       int
	breakPos    []int
	captureBase int
}

// capture tracks an open output capture and how many values the enclosing
// statement left on the stack below it.
type capture struct {
	stackItems int
}

// code is the mutable form of a bytecode.Code, used during compilation only.
type code struct {
	id           string
	name         string
	parent       *code
	children     []*code
	instructions []op.Code
	constants    []any
	names        []string
	nameIndex    map[string]uint16
	locations    []bytecode.SourceLocation
	trace        []bytecode.TraceEntry

	loops    []*loop
	captures []capture
}

func newCode(id, name string) *code {
	return &code{id: id, name: name, nameIndex: map[string]uint16{}}
}

func (c *code) newChild(name string) *code {
	child := newCode(fmt.Sprintf("%s.%d", c.id, len(c.children)), name)
	child.parent = c
	c.children = append(c.children, child)
	return child
}

func (c *code) addName(name string) uint16 {
	if idx, ok := c.nameIndex[name]; ok {
		return idx
	}
	c.names = append(c.names, name)
	idx := uint16(len(c.names) - 1)
	c.nameIndex[name] = idx
	return idx
}

func (c *code) currentLoop() *loop {
	if len(c.loops) == 0 {
		return nil
	}
	return c.loops[len(c.loops)-1]
}

func (c *code) toBytecode(filename, source string) *bytecode.Code {
	children := make([]*bytecode.Code, len(c.children))
	for i, child := range c.children {
		children[i] = child.toBytecode(filename, "")
	}
	return bytecode.NewCode(bytecode.CodeParams{
		ID:           c.id,
		Name:         c.name,
		Children:     children,
		Instructions: c.instructions,
		Constants:    c.constants,
		Names:        c.names,
		Source:       source,
		Filename:     filename,
		Locations:    c.locations,
		Trace:        c.trace,
	})
}
