// Package op defines opcodes used by the scaffold compiler and virtual machine.
package op

// Code is an integer opcode that indicates an operation to execute.
type Code uint16

const (
	Invalid Code = 0

	// Execution
	Nop    Code = 1
	Return Code = 2

	// Jump
	JumpBackward            Code = 10
	JumpForward             Code = 11
	PopJumpForwardIfFalse   Code = 12
	PopJumpForwardIfTrue    Code = 13
	JumpForwardIfFalseOrPop Code = 14 // Jump keeping TOS if falsy, else pop it
	JumpForwardIfTrueOrPop  Code = 15 // Jump keeping TOS if truthy, else pop it

	// Load
	LoadConst Code = 20
	LoadName  Code = 21 // Push a context variable, nil when unset
	GetAttr   Code = 22 // Lenient lookup of TOS on TOS-1
	CallAttr  Code = 23 // Method-style call: object, attr, then argc args

	// Store
	StoreName Code = 30 // Pop TOS into a context variable
	SetAttr   Code = 31 // operand1=name, operand2=path length; value on top

	// Operations
	BinaryOp      Code = 40
	CompareOp     Code = 41
	UnaryNegative Code = 42
	UnaryPositive Code = 43
	UnaryNot      Code = 44
	ContainsOp    Code = 45 // operand1=1 for "not in"

	// Build
	BuildList Code = 50
	BuildMap  Code = 51 // operand1=pair count, keys below their values
	BuildArgs Code = 52 // operand1=pair count, a nil key marks a positional arg

	// Stack
	Swap   Code = 70
	Copy   Code = 71
	PopTop Code = 72

	// Push constants
	Nil   Code = 80
	False Code = 81
	True  Code = 82

	// Iteration
	GetIter   Code = 90
	ForIter   Code = 91 // operand1=exit delta, operand2=1 when a key is pushed
	IterEmpty Code = 92 // Push whether the iterator on TOS yields nothing
	PopIter   Code = 93

	// Helpers and output
	CallHelper   Code = 100 // operand1=name, operand2=argc
	Echo         Code = 101 // Write TOS escaped
	EchoRaw      Code = 102 // Write TOS as is
	BeginCapture Code = 103 // Redirect output to a fresh buffer
	EndCapture   Code = 104 // Restore output and push the captured string

	// Context stack
	PushContext Code = 110
	PopContext  Code = 111

	// Templates
	DisplayBlock  Code = 120
	DisplayParent Code = 121
	CallMacro     Code = 122 // operand1=module name or NoOperand, operand2=name, operand3=body child or NoOperand
	Yield         Code = 123
	Include       Code = 124 // Template name and params on the stack
	Extends       Code = 125 // Template name and params on the stack
)

// NoOperand marks an absent optional operand.
const NoOperand = uint16(0xFFFF)

// BinaryOpType describes a type of binary operation, as in an operation that
// takes two operands. For example, addition, subtraction, multiplication, etc.
type BinaryOpType uint16

const (
	Add      BinaryOpType = 1
	Subtract BinaryOpType = 2
	Multiply BinaryOpType = 3
	Divide   BinaryOpType = 4
	Modulo   BinaryOpType = 5
	Concat   BinaryOpType = 6
	Join     BinaryOpType = 7
	Xor      BinaryOpType = 8
)

// String returns a string representation of the binary operation.
// For example "+" for addition.
func (bop BinaryOpType) String() string {
	switch bop {
	case Add:
		return "+"
	case Subtract:
		return "-"
	case Multiply:
		return "*"
	case Divide:
		return "/"
	case Modulo:
		return "%"
	case Concat:
		return "~"
	case Join:
		return ".."
	case Xor:
		return "xor"
	default:
		return ""
	}
}

// CompareOpType describes a type of comparison operation. For example, less
// than, greater than, equal, etc.
type CompareOpType uint16

const (
	LessThan           CompareOpType = 1
	LessThanOrEqual    CompareOpType = 2
	Equal              CompareOpType = 3
	NotEqual           CompareOpType = 4
	GreaterThan        CompareOpType = 5
	GreaterThanOrEqual CompareOpType = 6
	Identical          CompareOpType = 7
	NotIdentical       CompareOpType = 8
)

// String returns a string representation of the comparison operation.
// For example "<" for less than.
func (cop CompareOpType) String() string {
	switch cop {
	case LessThan:
		return "<"
	case LessThanOrEqual:
		return "<="
	case Equal:
		return "=="
	case NotEqual:
		return "!="
	case GreaterThan:
		return ">"
	case GreaterThanOrEqual:
		return ">="
	case Identical:
		return "==="
	case NotIdentical:
		return "!=="
	default:
		return ""
	}
}

// CompareOpFor returns the comparison for a template operator. "<>" is an
// alias of "!=".
func CompareOpFor(operator string) (CompareOpType, bool) {
	switch operator {
	case "<":
		return LessThan, true
	case "<=":
		return LessThanOrEqual, true
	case "==":
		return Equal, true
	case "!=", "<>":
		return NotEqual, true
	case ">":
		return GreaterThan, true
	case ">=":
		return GreaterThanOrEqual, true
	case "===":
		return Identical, true
	case "!==":
		return NotIdentical, true
	}
	return 0, false
}

// Info contains information about an opcode.
type Info struct {
	Code         Code
	Name         string
	OperandCount int
}

var infos = make([]Info, 256)

func init() {
	type opInfo struct {
		op    Code
		name  string
		count int
	}
	ops := []opInfo{
		{BeginCapture, "BEGIN_CAPTURE", 0},
		{BinaryOp, "BINARY_OP", 1},
		{BuildArgs, "BUILD_ARGS", 1},
		{BuildList, "BUILD_LIST", 1},
		{BuildMap, "BUILD_MAP", 1},
		{CallAttr, "CALL_ATTR", 1},
		{CallHelper, "CALL_HELPER", 2},
		{CallMacro, "CALL_MACRO", 3},
		{CompareOp, "COMPARE_OP", 1},
		{ContainsOp, "CONTAINS_OP", 1},
		{Copy, "COPY", 1},
		{DisplayBlock, "DISPLAY_BLOCK", 1},
		{DisplayParent, "DISPLAY_PARENT", 1},
		{Echo, "ECHO", 0},
		{EchoRaw, "ECHO_RAW", 0},
		{EndCapture, "END_CAPTURE", 0},
		{Extends, "EXTENDS", 0},
		{False, "FALSE", 0},
		{ForIter, "FOR_ITER", 2},
		{GetAttr, "GET_ATTR", 0},
		{GetIter, "GET_ITER", 0},
		{Include, "INCLUDE", 0},
		{IterEmpty, "ITER_EMPTY", 0},
		{JumpBackward, "JUMP_BACKWARD", 1},
		{JumpForward, "JUMP_FORWARD", 1},
		{JumpForwardIfFalseOrPop, "JUMP_FORWARD_IF_FALSE_OR_POP", 1},
		{JumpForwardIfTrueOrPop, "JUMP_FORWARD_IF_TRUE_OR_POP", 1},
		{LoadConst, "LOAD_CONST", 1},
		{LoadName, "LOAD_NAME", 1},
		{Nil, "NIL", 0},
		{Nop, "NOP", 0},
		{PopContext, "POP_CONTEXT", 1},
		{PopIter, "POP_ITER", 0},
		{PopJumpForwardIfFalse, "POP_JUMP_FORWARD_IF_FALSE", 1},
		{PopJumpForwardIfTrue, "POP_JUMP_FORWARD_IF_TRUE", 1},
		{PopTop, "POP_TOP", 0},
		{PushContext, "PUSH_CONTEXT", 1},
		{Return, "RETURN", 0},
		{SetAttr, "SET_ATTR", 2},
		{StoreName, "STORE_NAME", 1},
		{Swap, "SWAP", 1},
		{True, "TRUE", 0},
		{UnaryNegative, "UNARY_NEGATIVE", 0},
		{UnaryNot, "UNARY_NOT", 0},
		{UnaryPositive, "UNARY_POSITIVE", 0},
		{Yield, "YIELD", 0},
	}
	for _, o := range ops {
		infos[o.op] = Info{
			Name:         o.name,
			Code:         o.op,
			OperandCount: o.count,
		}
	}
}

// GetInfo returns information about the given opcode.
func GetInfo(op Code) Info {
	if int(op) >= len(infos) {
		return Info{}
	}
	return infos[op]
}
