package disassembler

import (
	"fmt"
	"strings"

	"github.com/newhook/asm6502/isa"
)

// Location is one decoded position in the byte stream: either a valid
// instruction with its operand bytes, or a single raw data byte.
type Location struct {
	PC           uint16
	Value        uint8
	OperandBytes []byte
	Inst         *isa.Instruction
}

// Decode decodes a single instruction at the start of data. Lookup is
// shortest match first: a valid one-byte instruction is never extended.
// Opcodes that decode to a width longer than the remaining bytes come back
// as data bytes.
func Decode(data []byte, pc uint16) Location {
	l := Location{PC: pc, Value: data[0]}

	inst, ok := isa.Decode(data[0])
	if !ok {
		return l
	}
	if inst.Size > len(data) {
		// Incomplete instruction at the end of the stream.
		return l
	}

	l.Inst = &inst
	if n := inst.Mode.OperandBytes(); n > 0 {
		l.OperandBytes = data[1 : 1+n]
	}
	return l
}

// Size returns how many bytes this location consumed.
func (l Location) Size() int {
	if l.Inst == nil {
		return 1
	}
	return l.Inst.Size
}

// Text renders the location as assembly text.
func (l Location) Text() string {
	if l.Inst == nil {
		return fmt.Sprintf("db 0x%02x", l.Value)
	}
	return Sprint(*l.Inst, l.OperandBytes)
}

// String renders a listing line: address, hex dump, then the instruction.
func (l Location) String() string {
	var hexDump string
	switch len(l.OperandBytes) {
	case 0:
		hexDump = fmt.Sprintf("%02X", l.Value)
	case 1:
		hexDump = fmt.Sprintf("%02X %02X", l.Value, l.OperandBytes[0])
	default:
		hexDump = fmt.Sprintf("%02X %02X %02X", l.Value, l.OperandBytes[0], l.OperandBytes[1])
	}
	return fmt.Sprintf("$%04X: %-8s  %s", l.PC, hexDump, l.Text())
}

// Disassemble decodes the whole byte stream loaded at origin.
func Disassemble(data []byte, origin uint16) []Location {
	var rows []Location
	pc := 0
	for pc < len(data) {
		loc := Decode(data[pc:], origin+uint16(pc))
		rows = append(rows, loc)
		pc += loc.Size()
	}
	return rows
}

// Listing disassembles the stream and formats it one listing line per
// instruction.
func Listing(data []byte, origin uint16) string {
	var out strings.Builder
	for _, loc := range Disassemble(data, origin) {
		out.WriteString(loc.String())
		out.WriteString("\n")
	}
	return out.String()
}
