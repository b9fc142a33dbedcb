package vm

import (
	"github.com/scaffold-io/scaffold/bytecode"
	"github.com/scaffold-io/scaffold/op"
)

// StepMode controls when OnStep callbacks are triggered.
type StepMode uint8

const (
	// StepAll calls OnStep for every instruction.
	StepAll StepMode = iota

	// StepNone never calls OnStep, for observers that only follow
	// frames, such as a profiler timing blocks and macros.
	StepNone

	// StepSampled calls OnStep every SampleInterval instructions.
	StepSampled

	// StepOnLine calls OnStep when the template line changes, which is
	// what template coverage needs.
	StepOnLine
)

// ObserverConfig specifies which render events an observer receives.
type ObserverConfig struct {
	// StepMode controls OnStep callback frequency.
	StepMode StepMode

	// SampleInterval is the number of instructions between OnStep calls
	// when StepMode is StepSampled. Must be > 0; values <= 0 are treated as 1.
	// Ignored for other modes.
	SampleInterval int

	// ObserveCalls enables OnCall callbacks.
	ObserveCalls bool

	// ObserveReturns enables OnReturn callbacks.
	ObserveReturns bool
}

// NewObserverConfig returns a config for mode that also observes frames
// being entered and completed.
func NewObserverConfig(mode StepMode) ObserverConfig {
	return ObserverConfig{
		StepMode:       mode,
		SampleInterval: 1000,
		ObserveCalls:   true,
		ObserveReturns: true,
	}
}

// NormalizeConfig validates and clamps config values.
// Note: Does NOT set defaults for ObserveCalls/ObserveReturns - callers
// should use NewObserverConfig() to get safe defaults.
func NormalizeConfig(cfg ObserverConfig) ObserverConfig {
	// Treat SampleInterval <= 0 as 1 (every instruction, same as StepAll)
	if cfg.StepMode == StepSampled && cfg.SampleInterval <= 0 {
		cfg.SampleInterval = 1
	}
	return cfg
}

// Observer is an interface for observing render events.
// Implementations can be used for profiling, debugging, code coverage,
// or detailed execution tracing without modifying the machine.
//
// All methods are optional - implementations can embed NoOpObserver
// to provide default no-op implementations for methods they don't need.
//
// Observer methods are called synchronously during a render.
// Implementations should be fast to avoid impacting performance.
type Observer interface {
	// Config returns the observer's configuration.
	// Called once when the observer is attached to a Template.
	Config() ObserverConfig

	// OnStep is called based on the StepMode in the observer's config.
	// Returns false to halt execution immediately.
	OnStep(event StepEvent) bool

	// OnCall is called when a frame is entered (if ObserveCalls is true).
	// Returns false to halt execution immediately.
	OnCall(event CallEvent) bool

	// OnReturn is called when a frame completes (if ObserveReturns is true).
	// Returns false to halt execution immediately.
	OnReturn(event ReturnEvent) bool
}

// StepEvent describes a single instruction step.
type StepEvent struct {
	// Code is the ID of the running code block, such as "main",
	// "block:content" or "macro:field".
	Code string

	// Template is the path of the template the code belongs to.
	Template string

	// IP is the instruction pointer (index into the instruction array).
	IP int

	// Opcode is the operation being executed.
	Opcode op.Code

	// OpcodeName is the human-readable name of the opcode.
	OpcodeName string

	// Location is the template location of the instruction.
	Location bytecode.SourceLocation

	// StackDepth is the current depth of the value stack.
	StackDepth int

	// FrameDepth is the current number of active frames.
	FrameDepth int
}

// CallEvent describes a frame being entered: the main code of a template,
// a block, a macro, a call body or an import expression.
type CallEvent struct {
	// Code is the ID of the code block being entered.
	Code string

	// Template is the path of the template the code belongs to.
	Template string

	// Location is the template location of the instruction that entered
	// the frame, when there is a calling frame.
	Location bytecode.SourceLocation

	// FrameDepth is the number of active frames after the call.
	FrameDepth int
}

// ReturnEvent describes a frame completing.
type ReturnEvent struct {
	// Code is the ID of the code block returning.
	Code string

	// Template is the path of the template the code belongs to.
	Template string

	// FrameDepth is the number of active frames after returning.
	FrameDepth int
}

// NoOpObserver is an Observer implementation that does nothing.
// Embed this in your observer to provide default implementations
// for methods you don't need.
//
// Important: NoOpObserver uses StepAll mode by default with ObserveCalls
// and ObserveReturns enabled. Override Config() in your observer to
// use a different mode.
type NoOpObserver struct{}

func (NoOpObserver) Config() ObserverConfig {
	return NewObserverConfig(StepAll)
}

func (NoOpObserver) OnStep(StepEvent) bool     { return true }
func (NoOpObserver) OnCall(CallEvent) bool     { return true }
func (NoOpObserver) OnReturn(ReturnEvent) bool { return true }

// Ensure NoOpObserver implements Observer.
var _ Observer = NoOpObserver{}

// stepKey identifies a template line within a code block.
type stepKey struct {
	code *bytecode.Code
	line int
}

func (m *machine) observeStep(f *frame, opcode op.Code) error {
	cfg := m.t.observerConfig
	loc := f.code.LocationAt(f.pos)
	switch cfg.StepMode {
	case StepNone:
		return nil
	case StepSampled:
		m.sampled++
		if m.sampled < cfg.SampleInterval {
			return nil
		}
		m.sampled = 0
	case StepOnLine:
		key := stepKey{code: f.code, line: loc.Line}
		if key == m.lastStep {
			return nil
		}
		m.lastStep = key
	}
	event := StepEvent{
		Code:       f.code.ID(),
		Template:   f.inst.unit.Path(),
		IP:         f.pos,
		Opcode:     opcode,
		OpcodeName: op.GetInfo(opcode).Name,
		Location:   loc,
		StackDepth: m.sp + 1,
		FrameDepth: len(m.frames),
	}
	if !m.t.observer.OnStep(event) {
		return ErrHalted
	}
	return nil
}

func (m *machine) observeCall(f *frame) error {
	if m.t.observer == nil || !m.t.observerConfig.ObserveCalls {
		return nil
	}
	event := CallEvent{
		Code:       f.code.ID(),
		Template:   f.inst.unit.Path(),
		FrameDepth: len(m.frames),
	}
	if n := len(m.frames); n > 1 {
		caller := m.frames[n-2]
		event.Location = caller.code.LocationAt(caller.pos)
	}
	if !m.t.observer.OnCall(event) {
		return ErrHalted
	}
	return nil
}

func (m *machine) observeReturn(f *frame) error {
	if m.t.observer == nil || !m.t.observerConfig.ObserveReturns {
		return nil
	}
	event := ReturnEvent{
		Code:       f.code.ID(),
		Template:   f.inst.unit.Path(),
		FrameDepth: len(m.frames) - 1,
	}
	if !m.t.observer.OnReturn(event) {
		return ErrHalted
	}
	return nil
}
