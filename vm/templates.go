package vm

import (
	"context"
	stderrors "errors"
	"sort"

	"github.com/scaffold-io/scaffold/bytecode"
	"github.com/scaffold-io/scaffold/errors"
	"github.com/scaffold-io/scaffold/object"
)

// instance is a template taking part in a render. Its parent is set when
// its extends tag runs.
type instance struct {
	unit    *bytecode.Unit
	parent  *instance
	blocks  map[string]boundBlock
	macros  map[string]boundMacro
	imports map[string]map[string]boundMacro
}

// instance returns the render's instance of unit, creating it and resolving
// its imports on first use.
func (m *machine) instance(unit *bytecode.Unit) (*instance, error) {
	if inst, ok := m.instances[unit]; ok {
		return inst, nil
	}
	inst := &instance{
		unit:    unit,
		blocks:  make(map[string]boundBlock, unit.BlockCount()),
		macros:  make(map[string]boundMacro, unit.MacroCount()),
		imports: make(map[string]map[string]boundMacro, unit.ImportCount()),
	}
	for i := 0; i < unit.BlockCount(); i++ {
		b := unit.BlockAt(i)
		inst.blocks[b.Name] = boundBlock{inst: inst, code: b.Code}
	}
	for i := 0; i < unit.MacroCount(); i++ {
		mac := unit.MacroAt(i)
		inst.macros[mac.Name()] = boundMacro{inst: inst, macro: mac}
	}

	// Registered before the imports are resolved so that templates
	// importing each other terminate.
	m.instances[unit] = inst
	for i := 0; i < unit.ImportCount(); i++ {
		if err := m.resolveImport(inst, unit.ImportAt(i)); err != nil {
			delete(m.instances, unit)
			return nil, err
		}
	}
	return inst, nil
}

// resolveImport binds the macros declared by an imported template to the
// import's alias.
func (m *machine) resolveImport(inst *instance, imp bytecode.Import) error {
	name, err := m.run(&frame{code: imp.Source, inst: inst, vars: object.NewMap()})
	if err != nil {
		return err
	}
	unit, err := m.load(name, inst.unit.Path(), "importing")
	if err == nil {
		var imported *instance
		if imported, err = m.instance(unit); err == nil {
			inst.imports[imp.Alias] = imported.macros
			return nil
		}
	}
	return locate(err, imp.Source, 0)
}

// load resolves a template referenced by name from the template at from.
func (m *machine) load(name any, from, verb string) (*bytecode.Unit, error) {
	path := object.ToString(name)
	if m.t.loader == nil {
		return nil, errors.Errorf(errors.TemplateNotFound, "error %s %q (no loader configured)", verb, path)
	}
	unit, err := m.t.loader.Resolve(m.ctx, path, from)
	if err != nil {
		if stderrors.Is(err, context.Canceled) || stderrors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		kind := errors.KindOf(err)
		if kind == "" {
			kind = errors.Internal
		}
		return nil, errors.Wrap(kind, err, "error %s %q", verb, path)
	}
	m.logger.Debug().Str("template", path).Str("from", from).Msg(verb)
	return unit, nil
}

// display renders the main code of a template.
func (m *machine) display(inst *instance, vars *object.Map, sc scope) error {
	_, err := m.run(&frame{code: inst.unit.Main(), inst: inst, vars: vars, scope: sc})
	return err
}

// displayBlock renders the named block: the override passed in by a child
// template if there is one, else the template's own. A block declared
// nowhere renders nothing.
func (m *machine) displayBlock(f *frame, name string) error {
	merged := f.scope.merge(f.inst)
	b, ok := merged.blocks[name]
	if !ok {
		return nil
	}
	_, err := m.run(&frame{code: b.code, inst: b.inst, vars: f.vars.Copy(), scope: merged})
	return err
}

// displayParent renders the closest ancestor's version of the named block,
// walking the inheritance chain outward from the template that declares
// the running block.
func (m *machine) displayParent(f *frame, name string) error {
	for p := f.inst.parent; p != nil; p = p.parent {
		if b, ok := p.blocks[name]; ok {
			_, err := m.run(&frame{code: b.code, inst: b.inst, vars: f.vars.Copy(), scope: f.scope})
			return err
		}
	}
	return nil
}

// callMacro expands a macro. A qualified name is looked up in the macros
// imported under its alias first, then in the macros in scope.
func (m *machine) callMacro(f *frame, alias, name string, args *object.Args, body *closure) error {
	merged := f.scope.merge(f.inst)
	var bm boundMacro
	found := false
	if alias != "" {
		if set, ok := merged.imports[alias]; ok {
			bm, found = set[name]
		}
	}
	if !found {
		bm, found = merged.macros[name]
	}
	if !found {
		return undefinedMacro(merged, alias, name)
	}

	macro := bm.macro
	vars := f.vars.Copy()
	for i := 0; i < macro.ParamCount(); i++ {
		param := macro.ParamAt(i)
		value, ok := args.Lookup(param.Name, i)
		if !ok {
			def, err := m.run(&frame{code: param.Default, inst: bm.inst, vars: f.vars})
			if err != nil {
				return err
			}
			value = def
		}
		vars.Set(param.Name, value)
	}
	for _, key := range args.Named.Keys() {
		value, _ := args.Named.Get(key)
		vars.Set(key, value)
	}
	_, err := m.run(&frame{
		code:  macro.Code(),
		inst:  bm.inst,
		vars:  vars,
		scope: scope{macros: merged.macros, imports: merged.imports},
		body:  body,
	})
	return err
}

func undefinedMacro(sc scope, alias, name string) error {
	qualified := name
	candidates := sc.macros
	if alias != "" {
		qualified = alias + "." + name
		if set, ok := sc.imports[alias]; ok {
			candidates = set
		}
	}
	names := make([]string, 0, len(candidates))
	for n := range candidates {
		names = append(names, n)
	}
	sort.Strings(names)
	err := errors.Errorf(errors.UndefinedMacro, "undefined macro %q", qualified)
	err.Hint = errors.Hint(name, names)
	return err
}

// yield renders the body passed to the running macro, with the yielded
// arguments added to the macro's context. Without a body it does nothing.
func (m *machine) yield(f *frame, args *object.Args) error {
	cl := f.body
	if cl == nil {
		return nil
	}
	vars := f.vars.Copy()
	for _, key := range args.Named.Keys() {
		value, _ := args.Named.Get(key)
		vars.Set(key, value)
	}
	_, err := m.run(&frame{code: cl.code, inst: cl.inst, vars: vars, scope: cl.scope, body: cl.body})
	return err
}

// include renders another template with params added to the current
// context.
func (m *machine) include(f *frame, name, params any) error {
	unit, err := m.load(name, f.inst.unit.Path(), "including")
	if err != nil {
		return err
	}
	inst, err := m.instance(unit)
	if err != nil {
		return err
	}
	p, err := paramsOf(params)
	if err != nil {
		return err
	}
	return m.display(inst, p.Merge(f.vars), scope{})
}

// extends renders the parent template in place of the current one. The
// current template's blocks, macros and imports override the parent's.
func (m *machine) extends(f *frame, name, params any) error {
	unit, err := m.load(name, f.inst.unit.Path(), "extending")
	if err != nil {
		return err
	}
	parent, err := m.instance(unit)
	if err != nil {
		return err
	}
	for p := parent; p != nil; p = p.parent {
		if p == f.inst {
			return errors.Errorf(errors.InheritanceCycle,
				"inheritance cycle: %q extends %q", f.inst.unit.Path(), unit.Path())
		}
	}
	f.inst.parent = parent
	p, err := paramsOf(params)
	if err != nil {
		return err
	}
	return m.display(parent, p.Merge(f.vars), f.scope.merge(f.inst))
}

// paramsOf converts the parameters of an include or extends tag.
func paramsOf(v any) (*object.Map, error) {
	switch p := v.(type) {
	case nil:
		return object.NewMap(), nil
	case *object.Map:
		return p, nil
	case map[string]any:
		return object.NewMapFrom(p), nil
	case []any:
		m := object.NewMap()
		for _, item := range p {
			m.Append(item)
		}
		return m, nil
	}
	return nil, errors.Errorf(errors.TypeError, "template parameters must be an array (%s given)", object.TypeName(v))
}
