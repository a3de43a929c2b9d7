package disassembler

import (
	"fmt"

	"github.com/newhook/asm6502/isa"
)

// PrintOperand wraps an operand literal in the punctuation of its
// addressing mode. The literal is a formatted number for decoded operands,
// or an expression's source text for symbolic ones.
func PrintOperand(mode isa.AddressMode, literal string) string {
	switch mode {
	case isa.Implicit:
		return ""
	case isa.Accumulator:
		return "A"
	case isa.Immediate:
		return "#" + literal
	case isa.ZeroPage, isa.Absolute:
		return literal
	case isa.ZeroPageX, isa.AbsoluteX:
		return literal + ", X"
	case isa.ZeroPageY, isa.AbsoluteY:
		return literal + ", Y"
	case isa.Indirect:
		return "(" + literal + ")"
	case isa.IndirectX:
		return "(" + literal + ", X)"
	case isa.IndirectY:
		return "(" + literal + "), Y"
	case isa.Relative:
		return "#" + literal
	default:
		return "???"
	}
}

// FormatOperand formats decoded operand bytes according to the addressing
// mode. Absolute forms are two bytes, little-endian; immediates are
// zero-extended and branch displacements sign-extended.
func FormatOperand(mode isa.AddressMode, bytes []byte) string {
	switch mode.OperandBytes() {
	case 0:
		return PrintOperand(mode, "")
	case 1:
		if mode == isa.Relative {
			return PrintOperand(mode, fmt.Sprintf("%d", int8(bytes[0])))
		}
		return PrintOperand(mode, fmt.Sprintf("0x%02x", bytes[0]))
	default:
		value := uint16(bytes[0]) | uint16(bytes[1])<<8
		return PrintOperand(mode, fmt.Sprintf("0x%04x", value))
	}
}

// Sprint renders a decoded instruction as assembly text.
func Sprint(inst isa.Instruction, operandBytes []byte) string {
	operand := FormatOperand(inst.Mode, operandBytes)
	if operand == "" {
		return inst.Name
	}
	return fmt.Sprintf("%s %s", inst.Name, operand)
}
