package bytecode

import "github.com/scaffold-io/scaffold/op"

// InstructionIter iterates over instructions in a Code object.
type InstructionIter struct {
	code *Code
	pos  int
}

// NewInstructionIter creates a new instruction iterator for the given code.
func NewInstructionIter(code *Code) *InstructionIter {
	return &InstructionIter{code: code}
}

// Offset returns the offset of the instruction the next call to Next returns.
func (i *InstructionIter) Offset() int {
	return i.pos
}

// Next returns the next instruction and its operands.
// Returns false when there are no more instructions.
func (i *InstructionIter) Next() ([]op.Code, bool) {
	if i.pos >= i.code.InstructionCount() {
		return nil, false
	}
	opcode := i.code.InstructionAt(i.pos)
	i.pos++

	info := op.GetInfo(opcode)
	instr := make([]op.Code, 1, info.OperandCount+1)
	instr[0] = opcode
	for j := 0; j < info.OperandCount && i.pos < i.code.InstructionCount(); j++ {
		instr = append(instr, i.code.InstructionAt(i.pos))
		i.pos++
	}
	return instr, true
}

// All returns all remaining instructions as a newly allocated slice.
func (i *InstructionIter) All() [][]op.Code {
	var results [][]op.Code
	for {
		instr, ok := i.Next()
		if !ok {
			break
		}
		results = append(results, instr)
	}
	return results
}
