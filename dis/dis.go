// Package dis supports analysis of compiled templates by disassembling them.
// This works with the opcodes defined in the `op` package and uses the
// InstructionIter type from the `bytecode` package.
package dis

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/scaffold-io/scaffold/bytecode"
	"github.com/scaffold-io/scaffold/internal/table"
	"github.com/scaffold-io/scaffold/op"
)

// Instruction represents a single bytecode instruction and its operands.
type Instruction struct {
	Offset     int
	Name       string
	Opcode     op.Code
	Operands   []op.Code
	Annotation string
	Constant   any
	Line       int
}

// Disassemble returns a parsed representation of the given bytecode.
func Disassemble(code *bytecode.Code) ([]Instruction, error) {
	var instructions []Instruction
	iter := bytecode.NewInstructionIter(code)
	for {
		offset := iter.Offset()
		val, ok := iter.Next()
		if !ok {
			break
		}
		info := op.GetInfo(val[0])
		if info.Name == "" {
			return nil, fmt.Errorf("unknown opcode %d at offset %d", val[0], offset)
		}
		if len(val) != info.OperandCount+1 {
			return nil, fmt.Errorf("truncated %s instruction at offset %d", info.Name, offset)
		}
		var constant any
		var annotation string
		var err error
		switch val[0] {
		case op.LoadName, op.StoreName, op.PushContext, op.PopContext,
			op.DisplayBlock, op.DisplayParent:
			annotation, err = getName(code, int(val[1]))
		case op.SetAttr:
			annotation, err = getName(code, int(val[1]))
			annotation = fmt.Sprintf("%s (%d segments)", annotation, val[2])
		case op.CallHelper:
			annotation, err = getName(code, int(val[1]))
			annotation = fmt.Sprintf("%s/%d", annotation, val[2])
		case op.CallMacro:
			annotation, err = macroAnnotation(code, val[1:])
		case op.BinaryOp:
			annotation = op.BinaryOpType(val[1]).String()
		case op.CompareOp:
			annotation = op.CompareOpType(val[1]).String()
		case op.ContainsOp:
			annotation = "in"
			if val[1] != 0 {
				annotation = "not in"
			}
		case op.JumpForward, op.PopJumpForwardIfFalse, op.PopJumpForwardIfTrue,
			op.JumpForwardIfFalseOrPop, op.JumpForwardIfTrueOrPop, op.ForIter:
			annotation = fmt.Sprintf("to %d", offset+int(val[1]))
		case op.JumpBackward:
			annotation = fmt.Sprintf("to %d", offset-int(val[1]))
		case op.LoadConst:
			constant, err = getConstantValue(code, int(val[1]))
			annotation = fmt.Sprintf("%v", constant)
		}
		if err != nil {
			return nil, err
		}
		instructions = append(instructions, Instruction{
			Offset:     offset,
			Name:       info.Name,
			Opcode:     val[0],
			Operands:   val[1:],
			Annotation: annotation,
			Constant:   constant,
			Line:       code.LocationAt(offset).Line,
		})
	}
	return instructions, nil
}

func macroAnnotation(code *bytecode.Code, operands []op.Code) (string, error) {
	name, err := getName(code, int(operands[1]))
	if err != nil {
		return "", err
	}
	if uint16(operands[0]) != op.NoOperand {
		module, err := getName(code, int(operands[0]))
		if err != nil {
			return "", err
		}
		name = module + "." + name
	}
	if body := uint16(operands[2]); body != op.NoOperand {
		if int(body) >= code.ChildCount() {
			return "", fmt.Errorf("child index out of range: %d", body)
		}
		name += " with " + code.ChildAt(int(body)).ID()
	}
	return name, nil
}

var (
	boldColor    = color.New(color.Bold)
	yellowColor  = color.New(color.FgYellow)
	greenColor   = color.New(color.FgGreen)
	cyanColor    = color.New(color.FgHiCyan)
	magentaColor = color.New(color.FgMagenta)
)

// Print a string representation of the given instructions to the given writer.
func Print(instructions []Instruction, writer io.Writer) {
	var lines [][]string
	for _, instr := range instructions {
		var values []string
		values = append(values, fmt.Sprintf("%d", instr.Offset))
		values = append(values, boldColor.Sprint(instr.Name))
		values = append(values, formatOperands(instr.Operands))
		if instr.Constant != nil {
			switch c := instr.Constant.(type) {
			case int64:
				values = append(values, yellowColor.Sprintf("%d", c))
			case float64:
				values = append(values, yellowColor.Sprintf("%v", c))
			case string:
				values = append(values, greenColor.Sprintf("%q", truncate(c)))
			default:
				values = append(values, boldColor.Sprintf("%v", c))
			}
		} else if instr.Opcode == op.CallMacro {
			values = append(values, magentaColor.Sprint(instr.Annotation))
		} else if instr.Annotation != "" {
			values = append(values, cyanColor.Sprint(instr.Annotation))
		} else {
			values = append(values, "")
		}
		lines = append(lines, values)
	}

	table.NewTable(writer).
		WithHeader([]string{"OFFSET", "OPCODE", "OPERANDS", "INFO"}).
		WithColumnAlignment([]table.Alignment{
			table.AlignRight,
			table.AlignLeft,
			table.AlignRight,
			table.AlignLeft,
		}).
		WithHeaderAlignment([]table.Alignment{
			table.AlignCenter,
			table.AlignCenter,
			table.AlignCenter,
			table.AlignCenter,
		}).
		WithRows(lines).
		Render()
}

// truncate shortens long string constants. Callers quote the result.
func truncate(s string) string {
	if r := []rune(s); len(r) > 80 {
		return string(r[:77]) + "..."
	}
	return s
}

func formatOperands(ops []op.Code) string {
	var sb strings.Builder
	for i, op := range ops {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(fmt.Sprintf("%d", op))
	}
	return sb.String()
}

func getConstantValue(code *bytecode.Code, index int) (any, error) {
	if code.ConstantCount() <= index {
		return "", fmt.Errorf("constant index out of range: %d", index)
	}
	return code.ConstantAt(index), nil
}

func getName(code *bytecode.Code, index int) (string, error) {
	if code.NameCount() <= index {
		return "", fmt.Errorf("name index out of range: %d", index)
	}
	return code.NameAt(index), nil
}
