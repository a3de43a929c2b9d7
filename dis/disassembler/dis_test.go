package disassembler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/newhook/asm6502/isa"
)

func TestDecodeInstructions(t *testing.T) {
	tests := []struct {
		name     string
		bytes    []byte
		expected string
	}{
		{"immediate", []byte{0xA9, 0x01}, "LDA #0x01"},
		{"zero page", []byte{0xA5, 0x12}, "LDA 0x12"},
		{"absolute", []byte{0xAD, 0x34, 0x12}, "LDA 0x1234"},
		{"zero page x", []byte{0xB5, 0xA0}, "LDA 0xa0, X"},
		{"absolute y", []byte{0xB9, 0x34, 0x12}, "LDA 0x1234, Y"},
		{"indirect", []byte{0x6C, 0x34, 0x12}, "JMP (0x1234)"},
		{"indexed indirect", []byte{0x81, 0x20}, "STA (0x20, X)"},
		{"indirect indexed", []byte{0x91, 0x20}, "STA (0x20), Y"},
		{"implied", []byte{0x60}, "RTS"},
		{"accumulator", []byte{0x4A}, "LSR A"},
		{"branch forward", []byte{0xF0, 0x10}, "BEQ #16"},
		{"branch backward", []byte{0xF0, 0x82}, "BEQ #-126"},
		{"invalid opcode", []byte{0x02}, "db 0x02"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			loc := Decode(tt.bytes, 0)
			assert.Equal(t, tt.expected, loc.Text())
			assert.Equal(t, len(tt.bytes), loc.Size())
		})
	}
}

func TestShortestMatchFirst(t *testing.T) {
	// 0xEA is a complete one-byte instruction; trailing bytes belong to the
	// next location, never to the NOP.
	locs := Disassemble([]byte{0xEA, 0xA9, 0x01}, 0)
	require.Len(t, locs, 2)
	assert.Equal(t, "NOP", locs[0].Text())
	assert.Equal(t, "LDA #0x01", locs[1].Text())
}

func TestTruncatedInstruction(t *testing.T) {
	// An absolute load cut off by the end of the stream decodes as data.
	locs := Disassemble([]byte{0xAD, 0x34}, 0)
	require.Len(t, locs, 2)
	assert.Equal(t, "db 0xad", locs[0].Text())
	assert.Equal(t, "db 0x34", locs[1].Text())
}

func TestListing(t *testing.T) {
	listing := Listing([]byte{0xA9, 0x01, 0x4C, 0x00, 0x10}, 0x1000)
	expected := "$1000: A9 01     LDA #0x01\n" +
		"$1002: 4C 00 10  JMP 0x1000\n"
	assert.Equal(t, expected, listing)
}

func TestNopPadding(t *testing.T) {
	locs := Disassemble([]byte{0xEA, 0xEA, 0xEA}, 0)
	require.Len(t, locs, 3)
	for _, loc := range locs {
		assert.Equal(t, "NOP", loc.Text())
	}
}

func TestPrintOperandSymbolic(t *testing.T) {
	// A symbolic operand substitutes its textual form inside the mode's
	// punctuation.
	assert.Equal(t, "#screen", PrintOperand(isa.Immediate, "screen"))
	assert.Equal(t, "screen, X", PrintOperand(isa.AbsoluteX, "screen"))
	assert.Equal(t, "(vector)", PrintOperand(isa.Indirect, "vector"))
	assert.Equal(t, "(ptr), Y", PrintOperand(isa.IndirectY, "ptr"))
}
