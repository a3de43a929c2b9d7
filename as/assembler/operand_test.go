package assembler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/newhook/asm6502/isa"
)

func tokenize(input string) []Token {
	lexer := NewLexer(input)
	var tokens []Token
	for {
		tok := lexer.NextToken()
		if tok.Type == EOF || tok.Type == EOL {
			return tokens
		}
		tokens = append(tokens, tok)
	}
}

func TestOperandClassification(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		mode     isa.AddressMode
		value    int64
		resolved bool
	}{
		{"empty", "", isa.Implicit, 0, false},
		{"accumulator", "A", isa.Accumulator, 0, false},
		{"accumulator lowercase", "a", isa.Accumulator, 0, false},
		{"immediate", "#$42", isa.Immediate, 0x42, true},
		{"zero page low", "$00", isa.ZeroPage, 0, true},
		{"zero page high", "$FF", isa.ZeroPage, 0xFF, true},
		{"absolute low", "$100", isa.Absolute, 0x100, true},
		{"absolute high", "$FFFF", isa.Absolute, 0xFFFF, true},
		{"negative is zero page", "-128", isa.ZeroPage, -128, true},
		{"zero page x", "$12,X", isa.ZeroPageX, 0x12, true},
		{"zero page y", "$12,Y", isa.ZeroPageY, 0x12, true},
		{"absolute x", "$1234,X", isa.AbsoluteX, 0x1234, true},
		{"absolute y", "$1234,y", isa.AbsoluteY, 0x1234, true},
		{"indirect", "($1234)", isa.Indirect, 0x1234, true},
		{"indexed indirect", "($20,X)", isa.IndirectX, 0x20, true},
		{"indirect indexed", "($20),Y", isa.IndirectY, 0x20, true},
		{"binary literal", "%00010010", isa.ZeroPage, 0x12, true},
		{"decimal literal", "255", isa.ZeroPage, 255, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			op, diag := parseOperand(tokenize(tt.input), 1)
			require.Nil(t, diag)
			assert.Equal(t, tt.mode, op.Mode)
			assert.Equal(t, tt.resolved, op.Resolved)
			if tt.resolved {
				assert.Equal(t, tt.value, op.Value)
			}
		})
	}
}

func TestSymbolicOperandsWiden(t *testing.T) {
	tests := []struct {
		name  string
		input string
		mode  isa.AddressMode
	}{
		{"bare symbol", "target", isa.Absolute},
		{"symbol x", "target,X", isa.AbsoluteX},
		{"symbol y", "target,Y", isa.AbsoluteY},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			op, diag := parseOperand(tokenize(tt.input), 1)
			require.Nil(t, diag)
			assert.Equal(t, tt.mode, op.Mode)
			assert.False(t, op.Resolved)
			assert.True(t, op.Relaxable)
		})
	}

	// Zero-page pointer forms defer without widening.
	op, diag := parseOperand(tokenize("(ptr),Y"), 1)
	require.Nil(t, diag)
	assert.Equal(t, isa.IndirectY, op.Mode)
	assert.False(t, op.Resolved)
	assert.False(t, op.Relaxable)
}

func TestHighByteImmediate(t *testing.T) {
	op, diag := parseOperand(tokenize("/$1234"), 1)
	require.Nil(t, diag)
	assert.Equal(t, isa.Immediate, op.Mode)
	assert.True(t, op.HighByte)
	assert.Equal(t, int64(0x1234), op.Value)
}

func TestOperandErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		code  DiagCode
	}{
		{"too large", "$10000", OperandOutOfRange},
		{"too negative", "-129", OperandOutOfRange},
		{"indirect base too large", "($100,X)", OperandOutOfRange},
		{"wrong indexed indirect register", "($20,Y)", InvalidIndirectIndex},
		{"wrong indirect indexed register", "($20),X", InvalidIndirectIndex},
		{"bad index register", "$12,Z", InvalidOperandSyntax},
		{"trailing tokens", "$12 $34", TrailingGarbage},
		{"dangling comma", "$12,", InvalidOperandSyntax},
		{"unclosed paren", "($12", InvalidOperandSyntax},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, diag := parseOperand(tokenize(tt.input), 1)
			require.NotNil(t, diag)
			assert.Equal(t, tt.code, diag.Code)
		})
	}
}

func TestExprEval(t *testing.T) {
	syms := map[string]int64{"base": 0x80, "top": 0x200}
	resolve := func(name string) (int64, bool) {
		v, ok := syms[name]
		return v, ok
	}

	tests := []struct {
		input string
		value int64
		ok    bool
	}{
		{"base", 0x80, true},
		{"base+2", 0x82, true},
		{"top-base", 0x180, true},
		{"2+3-1", 4, true},
		{"-base", -0x80, true},
		{"missing", 0, false},
		{"base+missing", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			c := &cursor{tokens: tokenize(tt.input)}
			expr, err := parseExpr(c)
			require.NoError(t, err)
			v, ok := expr.Eval(resolve)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.value, v)
			}
		})
	}
}

func TestExprSymbolDecomposition(t *testing.T) {
	tests := []struct {
		input  string
		sym    string
		addend int64
		ok     bool
	}{
		{"ext", "ext", 0, true},
		{"ext+4", "ext", 4, true},
		{"ext-1", "ext", -1, true},
		{"2+ext", "ext", 2, true},
		{"12", "", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			c := &cursor{tokens: tokenize(tt.input)}
			expr, err := parseExpr(c)
			require.NoError(t, err)
			sym, addend, ok := expr.Symbol()
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.sym, sym)
				assert.Equal(t, tt.addend, addend)
			}
		})
	}
}
