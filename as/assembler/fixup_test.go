package assembler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/newhook/asm6502/isa"
)

func TestFixupKindInfo(t *testing.T) {
	tests := []struct {
		kind   FixupKind
		offset int
		size   int
		pcrel  bool
	}{
		{FixupBranch, 8, 8, true},
		{FixupSymbol8, 8, 8, false},
		{FixupSymbol16, 8, 16, false},
		{FixupAddrRef, 8, 16, false},
	}

	for _, tt := range tests {
		info, ok := tt.kind.Info()
		require.True(t, ok)
		assert.Equal(t, tt.offset, info.TargetOffset)
		assert.Equal(t, tt.size, info.TargetSize)
		assert.Equal(t, tt.pcrel, info.PCRel)
	}

	_, ok := FixupKind(99).Info()
	assert.False(t, ok)
}

func TestApplyFixup(t *testing.T) {
	tests := []struct {
		name     string
		kind     FixupKind
		data     []byte
		value    int64
		expected []byte
		wantCode DiagCode
		wantErr  bool
	}{
		{
			name:     "symbol8",
			kind:     FixupSymbol8,
			data:     []byte{0xA5, 0x00},
			value:    0x42,
			expected: []byte{0xA5, 0x42},
		},
		{
			name:     "symbol16 little endian",
			kind:     FixupSymbol16,
			data:     []byte{0xAD, 0x00, 0x00},
			value:    0x1234,
			expected: []byte{0xAD, 0x34, 0x12},
		},
		{
			name:     "zero leaves placeholder",
			kind:     FixupSymbol16,
			data:     []byte{0xAD, 0x00, 0x00},
			value:    0,
			expected: []byte{0xAD, 0x00, 0x00},
		},
		{
			name:     "or preserves baked bits",
			kind:     FixupSymbol8,
			data:     []byte{0xA5, 0x40},
			value:    0x02,
			expected: []byte{0xA5, 0x42},
		},
		{
			name:     "branch positive",
			kind:     FixupBranch,
			data:     []byte{0xF0, 0x00},
			value:    0x10,
			expected: []byte{0xF0, 0x10},
		},
		{
			name:     "branch negative",
			kind:     FixupBranch,
			data:     []byte{0xF0, 0x00},
			value:    -0x7E,
			expected: []byte{0xF0, 0x82},
		},
		{
			name:     "branch too far forward",
			kind:     FixupBranch,
			data:     []byte{0xF0, 0x00},
			value:    0x80,
			wantErr:  true,
			wantCode: BranchOutOfRange,
		},
		{
			name:     "branch too far backward",
			kind:     FixupBranch,
			data:     []byte{0xF0, 0x00},
			value:    -0x81,
			wantErr:  true,
			wantCode: BranchOutOfRange,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := append([]byte(nil), tt.data...)
			diag := applyFixup(data, Fixup{Kind: tt.kind}, tt.value)
			if tt.wantErr {
				require.NotNil(t, diag)
				assert.Equal(t, tt.wantCode, diag.Code)
				return
			}
			require.Nil(t, diag)
			assert.Equal(t, tt.expected, data)
		})
	}
}

func TestApplyFixupInvalidKind(t *testing.T) {
	diag := applyFixup([]byte{0xA5, 0x00}, Fixup{Kind: FixupKind(42)}, 1)
	require.NotNil(t, diag)
	assert.Equal(t, InvalidFixupKind, diag.Code)
}

func TestRelaxIdempotent(t *testing.T) {
	mi, diag := match("LDA", Operand{Mode: isa.AbsoluteX, Expr: &Expr{Op: ExprSym, Sym: "ptr"}, Relaxable: true})
	require.Nil(t, diag)
	frag := encode(mi)
	require.True(t, frag.Relaxable)
	require.Equal(t, 3, frag.Size())
	require.Equal(t, FixupAddrRef, frag.Fixups[0].Kind)

	assert.True(t, frag.relax(0xA0))
	assert.Equal(t, 2, frag.Size())
	assert.Equal(t, byte(0xB5), frag.Bytes[0])
	assert.Equal(t, FixupSymbol8, frag.Fixups[0].Kind)

	// A second evaluation must not shrink again.
	assert.False(t, frag.relax(0xA0))
	assert.Equal(t, 2, frag.Size())
}

func TestRelaxKeepsWideForm(t *testing.T) {
	mi, diag := match("LDA", Operand{Mode: isa.AbsoluteX, Expr: &Expr{Op: ExprSym, Sym: "ptr"}, Relaxable: true})
	require.Nil(t, diag)
	frag := encode(mi)

	assert.False(t, frag.relax(0x100))
	assert.Equal(t, 3, frag.Size())

	frag.widenFixups()
	assert.Equal(t, FixupSymbol16, frag.Fixups[0].Kind)
}
