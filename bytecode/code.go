package bytecode

import (
	"sort"
	"strings"

	"github.com/scaffold-io/scaffold/op"
)

// Code represents a compiled code block: a template body, a block, a macro,
// a call body or a single expression. It is immutable after creation and
// safe for concurrent use.
type Code struct {
	id       string
	name     string
	children []*Code
	parent   *Code // Parent code (nil for root)

	instructions []op.Code
	constants    []any
	names        []string
	source       string
	filename     string

	// Source map: one location per instruction for error reporting
	locations []SourceLocation

	// One entry per compiled statement, ordered by offset
	trace []TraceEntry
}

// CodeParams contains parameters for creating a new Code.
type CodeParams struct {
	ID           string
	Name         string
	Children     []*Code // Pre-built child code blocks
	Instructions []op.Code
	Constants    []any
	Names        []string
	Source       string
	Filename     string
	Locations    []SourceLocation
	Trace        []TraceEntry
}

// NewCode creates a new immutable Code from the given parameters.
// Input slices are copied to ensure immutability.
func NewCode(params CodeParams) *Code {
	var children []*Code
	if len(params.Children) > 0 {
		children = make([]*Code, len(params.Children))
		copy(children, params.Children)
	}
	code := &Code{
		id:           params.ID,
		name:         params.Name,
		children:     children,
		instructions: copyInstructions(params.Instructions),
		constants:    copyAny(params.Constants),
		names:        copyStrings(params.Names),
		source:       params.Source,
		filename:     params.Filename,
		locations:    copyLocations(params.Locations),
		trace:        copyTrace(params.Trace),
	}
	// Set parent reference on all children for source lookups
	for _, child := range code.children {
		child.parent = code
	}
	return code
}

// ID returns the unique identifier for this code block.
func (c *Code) ID() string {
	return c.id
}

// Name returns the name of this code block.
func (c *Code) Name() string {
	return c.name
}

// ChildCount returns the number of child code blocks.
func (c *Code) ChildCount() int {
	return len(c.children)
}

// ChildAt returns the child code block at the given index.
func (c *Code) ChildAt(index int) *Code {
	return c.children[index]
}

// InstructionCount returns the number of instructions.
func (c *Code) InstructionCount() int {
	return len(c.instructions)
}

// InstructionAt returns the instruction at the given index.
func (c *Code) InstructionAt(index int) op.Code {
	return c.instructions[index]
}

// ConstantCount returns the number of constants.
func (c *Code) ConstantCount() int {
	return len(c.constants)
}

// ConstantAt returns the constant at the given index.
func (c *Code) ConstantAt(index int) any {
	return c.constants[index]
}

// NameCount returns the number of names used in this code.
func (c *Code) NameCount() int {
	return len(c.names)
}

// NameAt returns the name at the given index.
func (c *Code) NameAt(index int) string {
	return c.names[index]
}

// Source returns the template source this block was compiled from.
func (c *Code) Source() string {
	return c.getRootSource()
}

// Filename returns the template path.
func (c *Code) Filename() string {
	return c.filename
}

// LocationAt returns the source location for the instruction at the given index.
func (c *Code) LocationAt(ip int) SourceLocation {
	if ip < 0 || ip >= len(c.locations) {
		return SourceLocation{}
	}
	return c.locations[ip]
}

// LocationCount returns the number of recorded source locations.
func (c *Code) LocationCount() int {
	return len(c.locations)
}

// TraceCount returns the number of trace entries.
func (c *Code) TraceCount() int {
	return len(c.trace)
}

// TraceAt returns the trace entry at the given index.
func (c *Code) TraceAt(index int) TraceEntry {
	return c.trace[index]
}

// LineAt returns the template line of the statement that contains the
// instruction at ip. It falls back to the instruction's own location when
// no statement starts at or before ip.
func (c *Code) LineAt(ip int) int {
	i := sort.Search(len(c.trace), func(i int) bool {
		return c.trace[i].Offset > ip
	})
	if i > 0 {
		return c.trace[i-1].Line
	}
	return c.LocationAt(ip).Line
}

// Flatten returns this code and all descendants in a flat slice.
func (c *Code) Flatten() []*Code {
	var codes []*Code
	codes = append(codes, c)
	for _, child := range c.children {
		codes = append(codes, child.Flatten()...)
	}
	return codes
}

// GetSourceLine returns the source code line at the given 1-based line number.
func (c *Code) GetSourceLine(lineNum int) string {
	if lineNum < 1 {
		return ""
	}
	source := c.getRootSource()
	if source == "" {
		return ""
	}
	lines := strings.Split(source, "\n")
	if lineNum > len(lines) {
		return ""
	}
	return lines[lineNum-1]
}

func (c *Code) getRootSource() string {
	root := c
	for root.parent != nil {
		root = root.parent
	}
	return root.source
}

// Stats returns statistics about this code block and its children.
func (c *Code) Stats() Stats {
	var stats Stats
	for _, code := range c.Flatten() {
		stats.InstructionCount += code.InstructionCount()
		stats.ConstantCount += code.ConstantCount()
	}
	stats.SourceBytes = len(c.getRootSource())
	return stats
}
