// Package vm renders compiled templates.
//
// A Template wraps an immutable bytecode.Unit. Every call to Display runs
// on a fresh machine that owns the value stack, the active frames, the
// output writers and the per-render instances of every template the render
// touches (the template itself, its parents, includes and imports). A
// Template may therefore be rendered from several goroutines at once.
//
// # Frames
//
// The main code of a template, each block, macro, call body, include and
// import expression runs in its own frame. A frame owns a shallow copy of
// the context it was entered with, so assignments never leak out of the
// block, macro or include that made them. Loop variables are shadowed and
// restored through the frame's context stack.
package vm

import (
	"bufio"
	"bytes"
	"context"
	stderrors "errors"
	"io"
	"strings"

	"github.com/rs/zerolog"
	"github.com/scaffold-io/scaffold/builtins"
	"github.com/scaffold-io/scaffold/bytecode"
	"github.com/scaffold-io/scaffold/errors"
	"github.com/scaffold-io/scaffold/object"
	"github.com/scaffold-io/scaffold/op"
)

const (
	// DefaultMaxDepth is the default limit on nested frames: blocks,
	// macros, call bodies and includes.
	DefaultMaxDepth = 128

	// DefaultContextCheckInterval is the number of instructions between
	// checks of ctx.Done(). Set to 0 to disable.
	DefaultContextCheckInterval = 1000
)

// ErrHalted is returned when an observer stops a render.
var ErrHalted = stderrors.New("render halted by observer")

// Loader resolves the templates a render refers to by name: parents,
// includes and imports. from is the path of the referring template.
type Loader interface {
	Resolve(ctx context.Context, name, from string) (*bytecode.Unit, error)
}

// Template is a compiled template ready to render.
type Template struct {
	unit                 *bytecode.Unit
	loader               Loader
	helpers              *builtins.Registry
	logger               zerolog.Logger
	maxDepth             int
	contextCheckInterval int
	observer             Observer
	observerConfig       ObserverConfig
}

// New returns a Template rendering unit.
func New(unit *bytecode.Unit, options ...Option) *Template {
	t := &Template{
		unit:                 unit,
		logger:               zerolog.Nop(),
		maxDepth:             DefaultMaxDepth,
		contextCheckInterval: DefaultContextCheckInterval,
	}
	for _, opt := range options {
		opt(t)
	}
	if t.helpers == nil {
		t.helpers = builtins.Default()
	}
	if t.observer != nil {
		t.observerConfig = NormalizeConfig(t.observer.Config())
	}
	return t
}

// Unit returns the compiled unit.
func (t *Template) Unit() *bytecode.Unit {
	return t.unit
}

// Path returns the path the template was compiled from.
func (t *Template) Path() string {
	return t.unit.Path()
}

// Display renders the template with data as its context and writes the
// output to w.
func (t *Template) Display(ctx context.Context, w io.Writer, data map[string]any) (err error) {
	out := bufio.NewWriter(w)
	m := newMachine(ctx, t, out)
	defer func() {
		if r := recover(); r != nil {
			rerr := errors.Errorf(errors.Internal, "panic: %v", r)
			rerr.File = t.unit.Path()
			err = rerr
		}
	}()
	t.logger.Debug().Str("template", t.unit.Path()).Msg("render")
	inst, err := m.instance(t.unit)
	if err == nil {
		err = m.display(inst, object.NewMapFrom(data), scope{})
	}
	// Output written before a failure is kept.
	if flushErr := out.Flush(); err == nil {
		err = flushErr
	}
	return err
}

// Render renders the template and returns the output.
func (t *Template) Render(ctx context.Context, data map[string]any) (string, error) {
	var buf strings.Builder
	if err := t.Display(ctx, &buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// machine holds the state of one render.
type machine struct {
	ctx       context.Context
	t         *Template
	helpers   *builtins.Registry
	logger    zerolog.Logger
	stack     []any
	sp        int
	frames    []*frame
	out       *bufio.Writer
	captures  []*bytes.Buffer
	instances map[*bytecode.Unit]*instance
	steps     int
	sampled   int
	lastStep  stepKey
}

func newMachine(ctx context.Context, t *Template, out *bufio.Writer) *machine {
	return &machine{
		ctx:       ctx,
		t:         t,
		helpers:   t.helpers,
		logger:    t.logger,
		sp:        -1,
		out:       out,
		instances: map[*bytecode.Unit]*instance{},
	}
}

func (m *machine) push(v any) {
	m.sp++
	if m.sp == len(m.stack) {
		m.stack = append(m.stack, v)
		return
	}
	m.stack[m.sp] = v
}

func (m *machine) pop() any {
	v := m.stack[m.sp]
	m.stack[m.sp] = nil
	m.sp--
	return v
}

func (m *machine) tos() any {
	return m.stack[m.sp]
}

// popN pops n values and returns them in the order they were pushed.
func (m *machine) popN(n int) []any {
	values := make([]any, n)
	for i := n - 1; i >= 0; i-- {
		values[i] = m.pop()
	}
	return values
}

func (m *machine) fetch(f *frame) int {
	v := f.code.InstructionAt(f.ip)
	f.ip++
	return int(v)
}

func (m *machine) write(s string) error {
	if n := len(m.captures); n > 0 {
		m.captures[n-1].WriteString(s)
		return nil
	}
	_, err := m.out.WriteString(s)
	return err
}

// run executes a frame to completion and returns the value it left on the
// stack, if any.
func (m *machine) run(f *frame) (any, error) {
	if len(m.frames) >= m.t.maxDepth {
		return nil, errors.Errorf(errors.DepthExceeded,
			"maximum nesting depth of %d exceeded", m.t.maxDepth)
	}
	f.base = m.sp
	m.frames = append(m.frames, f)
	defer func() { m.frames = m.frames[:len(m.frames)-1] }()

	if err := m.observeCall(f); err != nil {
		return nil, err
	}
	if err := m.eval(f); err != nil {
		for m.sp > f.base {
			m.pop()
		}
		return nil, m.annotate(f, err)
	}
	var result any
	if m.sp > f.base {
		result = m.pop()
	}
	for m.sp > f.base {
		m.pop()
	}
	if err := m.observeReturn(f); err != nil {
		return nil, err
	}
	return result, nil
}

func (m *machine) eval(f *frame) error {
	code := f.code
	count := code.InstructionCount()
	checkInterval := m.t.contextCheckInterval
	doneChan := m.ctx.Done()

	for f.ip < count {
		// Deterministic check of ctx.Done() every N instructions.
		if checkInterval > 0 && doneChan != nil {
			m.steps++
			if m.steps >= checkInterval {
				m.steps = 0
				select {
				case <-doneChan:
					return m.ctx.Err()
				default:
				}
			}
		}

		f.pos = f.ip
		opcode := code.InstructionAt(f.ip)

		if m.t.observer != nil {
			if err := m.observeStep(f, opcode); err != nil {
				return err
			}
		}

		f.ip++

		switch opcode {
		case op.Nop:
		case op.Return:
			return nil
		case op.JumpBackward:
			delta := m.fetch(f)
			f.ip = f.pos - delta
		case op.JumpForward:
			delta := m.fetch(f)
			f.ip = f.pos + delta
		case op.PopJumpForwardIfFalse:
			delta := m.fetch(f)
			if !object.Truthy(m.pop()) {
				f.ip = f.pos + delta
			}
		case op.PopJumpForwardIfTrue:
			delta := m.fetch(f)
			if object.Truthy(m.pop()) {
				f.ip = f.pos + delta
			}
		case op.JumpForwardIfFalseOrPop:
			delta := m.fetch(f)
			if !object.Truthy(m.tos()) {
				f.ip = f.pos + delta
			} else {
				m.pop()
			}
		case op.JumpForwardIfTrueOrPop:
			delta := m.fetch(f)
			if object.Truthy(m.tos()) {
				f.ip = f.pos + delta
			} else {
				m.pop()
			}
		case op.LoadConst:
			m.push(code.ConstantAt(m.fetch(f)))
		case op.LoadName:
			v, _ := f.vars.Get(code.NameAt(m.fetch(f)))
			m.push(v)
		case op.GetAttr:
			attr := m.pop()
			obj := m.pop()
			v, err := object.GetAttr(m.ctx, obj, attr, nil, false)
			if err != nil {
				return err
			}
			m.push(v)
		case op.CallAttr:
			args := m.popN(m.fetch(f))
			attr := m.pop()
			obj := m.pop()
			v, err := object.GetAttr(m.ctx, obj, attr, args, true)
			if err != nil {
				return err
			}
			m.push(v)
		case op.StoreName:
			f.vars.Set(code.NameAt(m.fetch(f)), m.pop())
		case op.SetAttr:
			name := code.NameAt(m.fetch(f))
			pathLen := m.fetch(f)
			value := m.pop()
			path := m.popN(pathLen)
			root, _ := f.vars.Get(name)
			result, err := object.SetAttr(detach(root, path), path, value)
			if err != nil {
				return err
			}
			f.vars.Set(name, result)
		case op.BinaryOp:
			opType := op.BinaryOpType(m.fetch(f))
			b := m.pop()
			a := m.pop()
			result, err := object.BinaryOp(opType, a, b)
			if err != nil {
				return err
			}
			m.push(result)
		case op.CompareOp:
			opType := op.CompareOpType(m.fetch(f))
			right := m.pop()
			left := m.pop()
			result, err := object.Compare(opType, left, right)
			if err != nil {
				return err
			}
			m.push(result)
		case op.UnaryNegative:
			result, err := object.Negate(m.pop())
			if err != nil {
				return err
			}
			m.push(result)
		case op.UnaryPositive:
			result, err := object.Positive(m.pop())
			if err != nil {
				return err
			}
			m.push(result)
		case op.UnaryNot:
			m.push(!object.Truthy(m.pop()))
		case op.ContainsOp:
			negate := m.fetch(f) == 1
			container := m.pop()
			needle := m.pop()
			m.push(object.Contains(container, needle) != negate)
		case op.BuildList:
			m.push(m.popN(m.fetch(f)))
		case op.BuildMap:
			items := m.popN(2 * m.fetch(f))
			result := object.NewMap()
			for i := 0; i < len(items); i += 2 {
				if items[i] == nil {
					result.Append(items[i+1])
					continue
				}
				key, err := object.MapKey(items[i])
				if err != nil {
					return err
				}
				result.Set(key, items[i+1])
			}
			m.push(result)
		case op.BuildArgs:
			items := m.popN(2 * m.fetch(f))
			args := object.NewArgs()
			for i := 0; i < len(items); i += 2 {
				if err := args.Add(items[i], items[i+1]); err != nil {
					return err
				}
			}
			m.push(args)
		case op.Swap:
			n := m.fetch(f)
			m.stack[m.sp], m.stack[m.sp-n] = m.stack[m.sp-n], m.stack[m.sp]
		case op.Copy:
			m.push(m.stack[m.sp-m.fetch(f)])
		case op.PopTop:
			m.pop()
		case op.Nil:
			m.push(nil)
		case op.False:
			m.push(false)
		case op.True:
			m.push(true)
		case op.GetIter:
			seq := m.pop()
			parent, _ := f.vars.Get("loop")
			m.push(object.NewLoopContext(m.ctx, seq, parent))
		case op.ForIter:
			delta := m.fetch(f)
			withKey := m.fetch(f) == 1
			loop, err := loopOf(m.tos())
			if err != nil {
				return err
			}
			key, value, ok, err := loop.Next()
			if err != nil {
				return err
			}
			if !ok {
				f.ip = f.pos + delta
				continue
			}
			if withKey {
				m.push(key)
			}
			m.push(value)
		case op.IterEmpty:
			loop, err := loopOf(m.tos())
			if err != nil {
				return err
			}
			empty, err := loop.Empty()
			if err != nil {
				return err
			}
			m.push(empty)
		case op.PopIter:
			m.pop()
		case op.CallHelper:
			name := code.NameAt(m.fetch(f))
			args := m.popN(m.fetch(f))
			result, err := m.helpers.Call(m.ctx, name, args...)
			if err != nil {
				return err
			}
			m.push(result)
		case op.Echo:
			escaped, err := m.helpers.Call(m.ctx, "escape", m.pop())
			if err != nil {
				return err
			}
			if err := m.write(object.ToString(escaped)); err != nil {
				return err
			}
		case op.EchoRaw:
			if err := m.write(object.ToString(m.pop())); err != nil {
				return err
			}
		case op.BeginCapture:
			m.captures = append(m.captures, &bytes.Buffer{})
		case op.EndCapture:
			n := len(m.captures)
			if n == 0 {
				return errors.Errorf(errors.Internal, "output capture underflow")
			}
			buf := m.captures[n-1]
			m.captures = m.captures[:n-1]
			m.push(buf.String())
		case op.PushContext:
			f.pushContext(code.NameAt(m.fetch(f)))
		case op.PopContext:
			f.popContext(code.NameAt(m.fetch(f)))
		case op.DisplayBlock:
			if err := m.displayBlock(f, code.NameAt(m.fetch(f))); err != nil {
				return err
			}
		case op.DisplayParent:
			if err := m.displayParent(f, code.NameAt(m.fetch(f))); err != nil {
				return err
			}
		case op.CallMacro:
			module := m.fetch(f)
			name := code.NameAt(m.fetch(f))
			body := m.fetch(f)
			args, err := argsOf(m.pop())
			if err != nil {
				return err
			}
			var alias string
			if uint16(module) != op.NoOperand {
				alias = code.NameAt(module)
			}
			var cl *closure
			if uint16(body) != op.NoOperand {
				cl = &closure{code: code.ChildAt(body), inst: f.inst, scope: f.scope, body: f.body}
			}
			if err := m.callMacro(f, alias, name, args, cl); err != nil {
				return err
			}
		case op.Yield:
			args, err := argsOf(m.pop())
			if err != nil {
				return err
			}
			if err := m.yield(f, args); err != nil {
				return err
			}
		case op.Include:
			params := m.pop()
			name := m.pop()
			if err := m.include(f, name, params); err != nil {
				return err
			}
		case op.Extends:
			params := m.pop()
			name := m.pop()
			if err := m.extends(f, name, params); err != nil {
				return err
			}
		default:
			return errors.Errorf(errors.Internal, "unknown opcode: %d", opcode)
		}
	}
	return nil
}

func loopOf(v any) (*object.LoopContext, error) {
	loop, ok := v.(*object.LoopContext)
	if !ok {
		return nil, errors.Errorf(errors.Internal, "expected a loop context (got %s)", object.TypeName(v))
	}
	return loop, nil
}

func argsOf(v any) (*object.Args, error) {
	args, ok := v.(*object.Args)
	if !ok {
		return nil, errors.Errorf(errors.Internal, "expected call arguments (got %s)", object.TypeName(v))
	}
	return args, nil
}
