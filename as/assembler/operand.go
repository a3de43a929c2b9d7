package assembler

import (
	"strings"

	"github.com/newhook/asm6502/isa"
)

// Operand is the parsed, typed form of an instruction operand before
// matching. The addressing mode here is purely syntactic; the matcher may
// still widen or narrow it against the opcode table.
type Operand struct {
	Mode isa.AddressMode
	Expr *Expr

	// Value holds the evaluated constant when Resolved is set.
	Value    int64
	Resolved bool

	// HighByte marks the /expr immediate form: the encoder takes
	// (value >> 8) & 0xFF.
	HighByte bool

	// Relaxable marks a symbolic operand emitted in its widest form that
	// layout may later shrink to the zero-page encoding.
	Relaxable bool

	LineNum int
}

// cursor walks the operand tokens of a single statement.
type cursor struct {
	tokens []Token
	pos    int
}

func (c *cursor) peek() Token {
	if c.pos >= len(c.tokens) {
		return Token{Type: EOF}
	}
	return c.tokens[c.pos]
}

func (c *cursor) next() Token {
	tok := c.peek()
	if c.pos < len(c.tokens) {
		c.pos++
	}
	return tok
}

func (c *cursor) done() bool {
	return c.pos >= len(c.tokens)
}

func isRegister(tok Token, name string) bool {
	return tok.Type == IDENT && strings.EqualFold(tok.Value, name)
}

// parseOperand recognizes the operand forms:
//
//	(empty)     implied
//	A           accumulator
//	#expr       immediate
//	/expr       immediate, high byte of expr
//	expr        zero page or absolute by magnitude
//	expr,X      zero page,X or absolute,X
//	expr,Y      zero page,Y or absolute,Y
//	(expr)      indirect
//	(expr,X)    indexed indirect
//	(expr),Y    indirect indexed
//
// Constants classify by magnitude: [-0x80, 0xFF] is zero page, [0x100,
// 0xFFFF] absolute. A symbolic expression takes the widest form compatible
// with the surface syntax and is flagged relaxable. The opcode table is
// never consulted here.
func parseOperand(tokens []Token, line int) (Operand, *Diagnostic) {
	c := &cursor{tokens: tokens}

	op, diag := parseOperandShape(c, line)
	if diag != nil {
		return Operand{}, diag
	}
	if !c.done() {
		return Operand{}, diagf(TrailingGarbage, line, "unexpected %q", c.peek().Value)
	}
	return op, nil
}

func parseOperandShape(c *cursor, line int) (Operand, *Diagnostic) {
	if c.done() {
		return Operand{Mode: isa.Implicit, LineNum: line}, nil
	}

	// A bare accumulator reference.
	if isRegister(c.peek(), "A") && len(c.tokens) == 1 {
		c.next()
		return Operand{Mode: isa.Accumulator, LineNum: line}, nil
	}

	switch c.peek().Type {
	case HASH:
		c.next()
		return parseImmediate(c, line, false)

	case SLASH:
		c.next()
		return parseImmediate(c, line, true)

	case LPAREN:
		c.next()
		return parseIndirect(c, line)

	case NUMBER, IDENT, MINUS, PLUS:
		return parseDirect(c, line)

	default:
		return Operand{}, diagf(InvalidOperandSyntax, line, "unexpected %q", c.peek().Value)
	}
}

func parseImmediate(c *cursor, line int, highByte bool) (Operand, *Diagnostic) {
	expr, err := parseExpr(c)
	if err != nil {
		return Operand{}, diagf(InvalidOperandSyntax, line, "%v", err)
	}
	op := Operand{Mode: isa.Immediate, Expr: expr, HighByte: highByte, LineNum: line}
	if v, ok := expr.ConstValue(); ok {
		if v < -0x80 || v > 0xFFFF {
			return Operand{}, diagf(OperandOutOfRange, line, "value %d", v)
		}
		op.Value = v
		op.Resolved = true
	}
	return op, nil
}

// parseDirect handles expr, expr,X and expr,Y.
func parseDirect(c *cursor, line int) (Operand, *Diagnostic) {
	expr, err := parseExpr(c)
	if err != nil {
		return Operand{}, diagf(InvalidOperandSyntax, line, "%v", err)
	}

	// Default to the unindexed pair, switch on a trailing ,X or ,Y.
	zpMode, absMode := isa.ZeroPage, isa.Absolute
	if c.peek().Type == COMMA {
		c.next()
		reg := c.next()
		switch {
		case isRegister(reg, "X"):
			zpMode, absMode = isa.ZeroPageX, isa.AbsoluteX
		case isRegister(reg, "Y"):
			zpMode, absMode = isa.ZeroPageY, isa.AbsoluteY
		default:
			return Operand{}, diagf(InvalidOperandSyntax, line, "index register must be X or Y, found %q", reg.Value)
		}
	}

	return classify(expr, zpMode, absMode, line)
}

// classify picks zero page vs absolute by constant magnitude, or defers a
// symbolic expression in its widest form.
func classify(expr *Expr, zpMode, absMode isa.AddressMode, line int) (Operand, *Diagnostic) {
	op := Operand{Expr: expr, LineNum: line}
	if v, ok := expr.ConstValue(); ok {
		if v < -0x80 || v > 0xFFFF {
			return Operand{}, diagf(OperandOutOfRange, line, "value %d", v)
		}
		op.Value = v
		op.Resolved = true
		if v <= 0xFF {
			op.Mode = zpMode
		} else {
			op.Mode = absMode
		}
		return op, nil
	}
	op.Mode = absMode
	op.Relaxable = true
	return op, nil
}

// parseIndirect handles (expr), (expr,X) and (expr),Y. The opening paren has
// been consumed.
func parseIndirect(c *cursor, line int) (Operand, *Diagnostic) {
	expr, err := parseExpr(c)
	if err != nil {
		return Operand{}, diagf(InvalidOperandSyntax, line, "%v", err)
	}

	switch c.peek().Type {
	case COMMA:
		// (expr,X)
		c.next()
		reg := c.next()
		if !isRegister(reg, "X") {
			return Operand{}, diagf(InvalidIndirectIndex, line, "expected X, found %q", reg.Value)
		}
		if c.next().Type != RPAREN {
			return Operand{}, diagf(InvalidOperandSyntax, line, "expected ')'")
		}
		return zeroPagePointer(expr, isa.IndirectX, line)

	case RPAREN:
		c.next()
		if c.peek().Type == COMMA {
			// (expr),Y
			c.next()
			reg := c.next()
			if !isRegister(reg, "Y") {
				return Operand{}, diagf(InvalidIndirectIndex, line, "expected Y, found %q", reg.Value)
			}
			return zeroPagePointer(expr, isa.IndirectY, line)
		}
		// (expr): a plain indirect pointer, 16 bits.
		op := Operand{Mode: isa.Indirect, Expr: expr, LineNum: line}
		if v, ok := expr.ConstValue(); ok {
			if v < -0x80 || v > 0xFFFF {
				return Operand{}, diagf(OperandOutOfRange, line, "value %d", v)
			}
			op.Value = v
			op.Resolved = true
		}
		return op, nil

	default:
		return Operand{}, diagf(InvalidOperandSyntax, line, "expected ',' or ')', found %q", c.peek().Value)
	}
}

// zeroPagePointer builds an (addr,X) or (addr),Y operand, whose base must
// fit in the zero page once resolved.
func zeroPagePointer(expr *Expr, mode isa.AddressMode, line int) (Operand, *Diagnostic) {
	op := Operand{Mode: mode, Expr: expr, LineNum: line}
	if v, ok := expr.ConstValue(); ok {
		if v < -0x80 || v > 0xFF {
			return Operand{}, diagf(OperandOutOfRange, line, "zero page base %d", v)
		}
		op.Value = v
		op.Resolved = true
	}
	return op, nil
}
