package elf

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteReadRoundTrip(t *testing.T) {
	obj := &Object{
		Text: []byte{0xAD, 0x00, 0x00, 0xF0, 0x00, 0x60},
		Symbols: []Symbol{
			{Name: "start", Value: 0x0000, Defined: true},
			{Name: "screen", Defined: false},
		},
		Relocs: []Reloc{
			{Offset: 0, Symbol: "screen", Type: R_MCS6502_SYMBOL16, Addend: 2},
			{Offset: 3, Symbol: "screen", Type: R_MCS6502_BRANCH},
		},
	}

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, obj))

	parsed, err := Read(buf.Bytes())
	require.NoError(t, err)

	assert.Equal(t, obj.Text, parsed.Text)

	require.Len(t, parsed.Symbols, 2)
	assert.Equal(t, "start", parsed.Symbols[0].Name)
	assert.True(t, parsed.Symbols[0].Defined)
	assert.Equal(t, "screen", parsed.Symbols[1].Name)
	assert.False(t, parsed.Symbols[1].Defined)

	require.Len(t, parsed.Relocs, 2)
	assert.Equal(t, uint32(0), parsed.Relocs[0].Offset)
	assert.Equal(t, "screen", parsed.Relocs[0].Symbol)
	assert.Equal(t, uint32(R_MCS6502_SYMBOL16), parsed.Relocs[0].Type)
	assert.Equal(t, int32(2), parsed.Relocs[0].Addend)
	assert.Equal(t, uint32(R_MCS6502_BRANCH), parsed.Relocs[1].Type)
}

func TestWriteEmptyObject(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, &Object{}))

	parsed, err := Read(buf.Bytes())
	require.NoError(t, err)
	assert.Empty(t, parsed.Text)
	assert.Empty(t, parsed.Symbols)
	assert.Empty(t, parsed.Relocs)
}

func TestReadRejectsGarbage(t *testing.T) {
	_, err := Read([]byte{0x00, 0x01, 0x02})
	assert.Error(t, err)

	bad := make([]byte, 64)
	copy(bad, []byte{0x7F, 'E', 'L', 'F', 2, 1, 1})
	_, err = Read(bad)
	assert.Error(t, err)
}

func TestRelocAgainstUnknownSymbol(t *testing.T) {
	obj := &Object{
		Text:   []byte{0xAD, 0x00, 0x00},
		Relocs: []Reloc{{Offset: 0, Symbol: "nowhere", Type: R_MCS6502_SYMBOL16}},
	}
	var buf bytes.Buffer
	assert.Error(t, Write(&buf, obj))
}
