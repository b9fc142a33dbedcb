package ast

import (
	"strings"

	"github.com/scaffold-io/scaffold/internal/token"
)

// Module is one parsed template. Blocks, macros and imports keep their
// declaration order; names are unique within a module.
type Module struct {
	Path    string
	Name    string
	Extends *Extends
	Imports []*Import
	Blocks  []*Block
	Macros  []*Macro
	Body    *NodeList
}

func (m *Module) Pos() token.Position {
	return token.Position{Line: 1, Column: 1}
}

func (m *Module) String() string {
	var b strings.Builder
	if m.Extends != nil {
		b.WriteString(m.Extends.String())
	}
	for _, imp := range m.Imports {
		b.WriteString(imp.String())
	}
	for _, mac := range m.Macros {
		b.WriteString(mac.String())
	}
	if m.Body != nil {
		b.WriteString(m.Body.String())
	}
	return b.String()
}

// Block returns the block declared with the given name.
func (m *Module) Block(name string) (*Block, bool) {
	for _, b := range m.Blocks {
		if b.Name == name {
			return b, true
		}
	}
	return nil, false
}

// Macro returns the macro declared with the given name.
func (m *Module) Macro(name string) (*Macro, bool) {
	for _, mac := range m.Macros {
		if mac.Name == name {
			return mac, true
		}
	}
	return nil, false
}

// Import returns the import bound to the given alias.
func (m *Module) Import(alias string) (*Import, bool) {
	for _, imp := range m.Imports {
		if imp.Alias == alias {
			return imp, true
		}
	}
	return nil, false
}
