package vm

import (
	"github.com/scaffold-io/scaffold/bytecode"
	"github.com/scaffold-io/scaffold/object"
)

// frame is one running code block.
type frame struct {
	code  *bytecode.Code
	inst  *instance
	vars  *object.Map
	scope scope
	body  *closure

	ip   int // next instruction
	pos  int // position of the current instruction
	base int // stack pointer on entry

	// Shadowed context values, per name, pushed by for loops
	saved map[string][]savedVar
}

type savedVar struct {
	value any
	ok    bool
}

// pushContext saves the current binding of name.
func (f *frame) pushContext(name string) {
	if f.saved == nil {
		f.saved = map[string][]savedVar{}
	}
	v, ok := f.vars.Get(name)
	f.saved[name] = append(f.saved[name], savedVar{value: v, ok: ok})
}

// popContext restores the binding of name saved by the matching
// pushContext. A name that was unset before is unset again.
func (f *frame) popContext(name string) {
	stack := f.saved[name]
	if len(stack) == 0 {
		return
	}
	top := stack[len(stack)-1]
	f.saved[name] = stack[:len(stack)-1]
	if top.ok {
		f.vars.Set(name, top.value)
	} else {
		f.vars.Delete(name)
	}
}

// closure is the body passed to a macro by a call tag. It runs in the
// template, scope and context of the caller.
type closure struct {
	code  *bytecode.Code
	inst  *instance
	scope scope
	body  *closure
}

type boundBlock struct {
	inst *instance
	code *bytecode.Code
}

type boundMacro struct {
	inst  *instance
	macro *bytecode.Macro
}

// scope holds the blocks, macros and imports visible to a frame in addition
// to those its own template declares. Entries passed in by a child template
// override the template's own.
type scope struct {
	blocks  map[string]boundBlock
	macros  map[string]boundMacro
	imports map[string]map[string]boundMacro
}

// merge returns s extended with the declarations of inst that s lacks.
func (s scope) merge(inst *instance) scope {
	merged := scope{
		blocks:  make(map[string]boundBlock, len(s.blocks)+len(inst.blocks)),
		macros:  make(map[string]boundMacro, len(s.macros)+len(inst.macros)),
		imports: make(map[string]map[string]boundMacro, len(s.imports)+len(inst.imports)),
	}
	for name, b := range s.blocks {
		merged.blocks[name] = b
	}
	for name, b := range inst.blocks {
		if _, ok := merged.blocks[name]; !ok {
			merged.blocks[name] = b
		}
	}
	for name, mac := range s.macros {
		merged.macros[name] = mac
	}
	for name, mac := range inst.macros {
		if _, ok := merged.macros[name]; !ok {
			merged.macros[name] = mac
		}
	}
	for alias, set := range s.imports {
		merged.imports[alias] = set
	}
	for alias, set := range inst.imports {
		if _, ok := merged.imports[alias]; !ok {
			merged.imports[alias] = set
		}
	}
	return merged
}
