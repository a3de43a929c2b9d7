package assembler

import (
	"github.com/newhook/asm6502/isa"
)

// MCInst is a matched machine instruction: a concrete opcode plus its
// operand, ready for encoding.
type MCInst struct {
	Inst    isa.Instruction
	Operand Operand
	LineNum int
}

// match selects, among the opcodes sharing a mnemonic, the one whose
// addressing mode accepts the parsed operand.
//
// Branch mnemonics accept a single target form: a zero page or absolute
// operand is rewritten to Relative, keeping the expression for PC-relative
// fixup. Bare ASL/LSR/ROL/ROR pick the accumulator encoding. A symbolic
// operand in zero-page-compatible position stays in its widest form and
// remains relaxable; the matcher never guesses a symbol's magnitude.
func match(mnemonic string, op Operand) (MCInst, *Diagnostic) {
	modes, ok := isa.Modes(mnemonic)
	if !ok {
		return MCInst{}, diagf(UnrecognizedMnemonic, op.LineNum, "%s", mnemonic)
	}

	// Branches: rewrite the target operand to Relative.
	if _, branch := modes[isa.Relative]; branch {
		switch op.Mode {
		case isa.ZeroPage, isa.Absolute:
			op.Mode = isa.Relative
			op.Relaxable = false
			return MCInst{Inst: modes[isa.Relative], Operand: op, LineNum: op.LineNum}, nil
		default:
			return MCInst{}, diagf(NoMatchingAddressingMode, op.LineNum, "%s takes a branch target", mnemonic)
		}
	}

	// No operand: implied, or accumulator for the shift/rotate group.
	if op.Mode == isa.Implicit {
		if inst, ok := modes[isa.Implicit]; ok {
			return MCInst{Inst: inst, Operand: op, LineNum: op.LineNum}, nil
		}
		if inst, ok := modes[isa.Accumulator]; ok {
			op.Mode = isa.Accumulator
			return MCInst{Inst: inst, Operand: op, LineNum: op.LineNum}, nil
		}
		return MCInst{}, diagf(NoMatchingAddressingMode, op.LineNum, "%s requires an operand", mnemonic)
	}

	// Exact mode match.
	if inst, ok := modes[op.Mode]; ok {
		return MCInst{Inst: inst, Operand: op, LineNum: op.LineNum}, nil
	}

	// A small constant parsed as zero page, against a mnemonic with only the
	// absolute form (JMP 0x12, JSR 0x30): widen.
	if wide, ok := widen(op.Mode); ok {
		if inst, ok := modes[wide]; ok {
			op.Mode = wide
			return MCInst{Inst: inst, Operand: op, LineNum: op.LineNum}, nil
		}
	}

	// A deferred symbol emitted in the widest form, against a mnemonic with
	// only the zero-page form (STX sym,Y): narrow, with an 8-bit fixup.
	if !op.Resolved {
		if narrowMode, ok := narrow(op.Mode); ok {
			if inst, ok := modes[narrowMode]; ok {
				op.Mode = narrowMode
				op.Relaxable = false
				return MCInst{Inst: inst, Operand: op, LineNum: op.LineNum}, nil
			}
		}
	}

	return MCInst{}, diagf(NoMatchingAddressingMode, op.LineNum, "%s does not support %s addressing", mnemonic, op.Mode)
}

func widen(mode isa.AddressMode) (isa.AddressMode, bool) {
	switch mode {
	case isa.ZeroPage:
		return isa.Absolute, true
	case isa.ZeroPageX:
		return isa.AbsoluteX, true
	case isa.ZeroPageY:
		return isa.AbsoluteY, true
	}
	return mode, false
}

func narrow(mode isa.AddressMode) (isa.AddressMode, bool) {
	switch mode {
	case isa.Absolute:
		return isa.ZeroPage, true
	case isa.AbsoluteX:
		return isa.ZeroPageX, true
	case isa.AbsoluteY:
		return isa.ZeroPageY, true
	}
	return mode, false
}
