package bytecode

// Param is one macro parameter. Default evaluates the parameter's default
// value and is never nil; a parameter declared without one defaults to nil.
type Param struct {
	Name    string
	Default *Code
}

// Macro is a compiled macro declaration.
type Macro struct {
	name   string
	params []Param
	code   *Code
}

// NewMacro creates an immutable Macro.
func NewMacro(name string, params []Param, code *Code) *Macro {
	var copied []Param
	if len(params) > 0 {
		copied = make([]Param, len(params))
		copy(copied, params)
	}
	return &Macro{name: name, params: copied, code: code}
}

// Name returns the macro name.
func (m *Macro) Name() string {
	return m.name
}

// ParamCount returns the number of declared parameters.
func (m *Macro) ParamCount() int {
	return len(m.params)
}

// ParamAt returns the parameter at the given index.
func (m *Macro) ParamAt(index int) Param {
	return m.params[index]
}

// Code returns the compiled macro body.
func (m *Macro) Code() *Code {
	return m.code
}

// Block is a compiled block declaration.
type Block struct {
	Name string
	Code *Code
}

// Import is a compiled "import ... as alias" declaration. Source evaluates
// the name of the imported template.
type Import struct {
	Alias  string
	Source *Code
}

// Unit is a compiled template: a main code block rendered by display, plus
// the blocks, macros and imports the template declares. A Unit is immutable
// and can back any number of concurrent renders.
type Unit struct {
	path    string
	name    string
	source  string
	main    *Code
	blocks  []Block
	macros  []*Macro
	imports []Import
	extends bool
}

// UnitParams contains parameters for creating a new Unit.
type UnitParams struct {
	Path    string
	Name    string
	Source  string
	Main    *Code
	Blocks  []Block
	Macros  []*Macro
	Imports []Import
	Extends bool
}

// NewUnit creates a new immutable Unit from the given parameters.
func NewUnit(params UnitParams) *Unit {
	u := &Unit{
		path:    params.Path,
		name:    params.Name,
		source:  params.Source,
		main:    params.Main,
		extends: params.Extends,
	}
	if len(params.Blocks) > 0 {
		u.blocks = make([]Block, len(params.Blocks))
		copy(u.blocks, params.Blocks)
	}
	if len(params.Macros) > 0 {
		u.macros = make([]*Macro, len(params.Macros))
		copy(u.macros, params.Macros)
	}
	if len(params.Imports) > 0 {
		u.imports = make([]Import, len(params.Imports))
		copy(u.imports, params.Imports)
	}
	return u
}

// Path returns the template path the unit was compiled from.
func (u *Unit) Path() string {
	return u.path
}

// Name returns the generated module name.
func (u *Unit) Name() string {
	return u.name
}

// Source returns the template source.
func (u *Unit) Source() string {
	return u.source
}

// Main returns the code rendered by display.
func (u *Unit) Main() *Code {
	return u.main
}

// Extends returns true if the template declares a parent.
func (u *Unit) Extends() bool {
	return u.extends
}

// BlockCount returns the number of declared blocks.
func (u *Unit) BlockCount() int {
	return len(u.blocks)
}

// BlockAt returns the block at the given index, in declaration order.
func (u *Unit) BlockAt(index int) Block {
	return u.blocks[index]
}

// Block returns the named block.
func (u *Unit) Block(name string) (Block, bool) {
	for _, b := range u.blocks {
		if b.Name == name {
			return b, true
		}
	}
	return Block{}, false
}

// MacroCount returns the number of declared macros.
func (u *Unit) MacroCount() int {
	return len(u.macros)
}

// MacroAt returns the macro at the given index, in declaration order.
func (u *Unit) MacroAt(index int) *Macro {
	return u.macros[index]
}

// Macro returns the named macro.
func (u *Unit) Macro(name string) (*Macro, bool) {
	for _, m := range u.macros {
		if m.name == name {
			return m, true
		}
	}
	return nil, false
}

// ImportCount returns the number of imports.
func (u *Unit) ImportCount() int {
	return len(u.imports)
}

// ImportAt returns the import at the given index, in declaration order.
func (u *Unit) ImportAt(index int) Import {
	return u.imports[index]
}

// Import returns the import bound to alias.
func (u *Unit) Import(alias string) (Import, bool) {
	for _, imp := range u.imports {
		if imp.Alias == alias {
			return imp, true
		}
	}
	return Import{}, false
}

// Codes returns every code block of the unit: main first, then blocks,
// macros with their defaults, and imports.
func (u *Unit) Codes() []*Code {
	var codes []*Code
	if u.main != nil {
		codes = append(codes, u.main.Flatten()...)
	}
	for _, b := range u.blocks {
		codes = append(codes, b.Code.Flatten()...)
	}
	for _, m := range u.macros {
		codes = append(codes, m.code.Flatten()...)
		for _, p := range m.params {
			codes = append(codes, p.Default.Flatten()...)
		}
	}
	for _, imp := range u.imports {
		codes = append(codes, imp.Source.Flatten()...)
	}
	return codes
}

// Stats returns statistics about the whole unit.
func (u *Unit) Stats() Stats {
	stats := Stats{
		BlockCount:  len(u.blocks),
		MacroCount:  len(u.macros),
		SourceBytes: len(u.source),
	}
	for _, code := range u.Codes() {
		stats.InstructionCount += code.InstructionCount()
		stats.ConstantCount += code.ConstantCount()
	}
	return stats
}
