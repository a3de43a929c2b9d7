package assembler

import (
	"fmt"
	"strconv"
	"strings"
)

// ExprOp identifies the node type of an operand expression.
type ExprOp int

const (
	ExprConst ExprOp = iota
	ExprSym
	ExprNeg
	ExprAdd
	ExprSub
)

// Expr is a parsed operand expression. Expressions are either integer
// constants, symbol references, or sums and differences of those. A symbolic
// expression survives to layout, where it is evaluated against the final
// symbol table.
type Expr struct {
	Op          ExprOp
	Value       int64
	Sym         string
	Left, Right *Expr
}

// Const builds a constant expression.
func Const(v int64) *Expr {
	return &Expr{Op: ExprConst, Value: v}
}

// Eval evaluates the expression. resolve maps a symbol name to its value and
// reports whether the symbol is defined. Eval reports false if any referenced
// symbol is undefined.
func (e *Expr) Eval(resolve func(string) (int64, bool)) (int64, bool) {
	switch e.Op {
	case ExprConst:
		return e.Value, true
	case ExprSym:
		return resolve(e.Sym)
	case ExprNeg:
		v, ok := e.Left.Eval(resolve)
		return -v, ok
	case ExprAdd:
		l, lok := e.Left.Eval(resolve)
		r, rok := e.Right.Eval(resolve)
		return l + r, lok && rok
	case ExprSub:
		l, lok := e.Left.Eval(resolve)
		r, rok := e.Right.Eval(resolve)
		return l - r, lok && rok
	default:
		return 0, false
	}
}

// ConstValue returns the expression's value when it contains no symbols.
func (e *Expr) ConstValue() (int64, bool) {
	return e.Eval(func(string) (int64, bool) { return 0, false })
}

// Symbol decomposes the expression into a single symbol plus a constant
// addend, the shape a relocation entry can carry. It reports false for
// constants and for expressions over more than one symbol.
func (e *Expr) Symbol() (name string, addend int64, ok bool) {
	switch e.Op {
	case ExprSym:
		return e.Sym, 0, true
	case ExprAdd:
		if name, addend, ok = e.Left.Symbol(); ok {
			if v, cok := e.Right.ConstValue(); cok {
				return name, addend + v, true
			}
		}
		if name, addend, ok = e.Right.Symbol(); ok {
			if v, cok := e.Left.ConstValue(); cok {
				return name, addend + v, true
			}
		}
		return "", 0, false
	case ExprSub:
		if name, addend, ok = e.Left.Symbol(); ok {
			if v, cok := e.Right.ConstValue(); cok {
				return name, addend - v, true
			}
		}
		return "", 0, false
	default:
		return "", 0, false
	}
}

// String renders the expression in source form, as used in diagnostics.
func (e *Expr) String() string {
	switch e.Op {
	case ExprConst:
		if e.Value < 0 {
			return fmt.Sprintf("-0x%x", -e.Value)
		}
		return fmt.Sprintf("0x%x", e.Value)
	case ExprSym:
		return e.Sym
	case ExprNeg:
		return "-" + e.Left.String()
	case ExprAdd:
		return e.Left.String() + "+" + e.Right.String()
	case ExprSub:
		return e.Left.String() + "-" + e.Right.String()
	default:
		return "?"
	}
}

// parseNumberToken converts a NUMBER token's text to a value. The prefix
// selects the base: $ and 0x are hex, % is binary, otherwise decimal.
func parseNumberToken(s string) (int64, error) {
	var val uint64
	var err error
	switch {
	case strings.HasPrefix(s, "$"):
		val, err = strconv.ParseUint(s[1:], 16, 32)
	case strings.HasPrefix(s, "0x"), strings.HasPrefix(s, "0X"):
		val, err = strconv.ParseUint(s[2:], 16, 32)
	case strings.HasPrefix(s, "%"):
		val, err = strconv.ParseUint(s[1:], 2, 32)
	default:
		val, err = strconv.ParseUint(s, 10, 32)
	}
	if err != nil {
		return 0, fmt.Errorf("bad numeric literal %q", s)
	}
	return int64(val), nil
}

// parseExpr parses an additive expression from the cursor: terms joined by
// + and -. Registers are not expression terms, so the caller stops us before
// an indexing comma.
func parseExpr(c *cursor) (*Expr, error) {
	left, err := parseTerm(c)
	if err != nil {
		return nil, err
	}
	for {
		switch c.peek().Type {
		case PLUS:
			c.next()
			right, err := parseTerm(c)
			if err != nil {
				return nil, err
			}
			left = &Expr{Op: ExprAdd, Left: left, Right: right}
		case MINUS:
			c.next()
			right, err := parseTerm(c)
			if err != nil {
				return nil, err
			}
			left = &Expr{Op: ExprSub, Left: left, Right: right}
		default:
			return left, nil
		}
	}
}

func parseTerm(c *cursor) (*Expr, error) {
	tok := c.peek()
	switch tok.Type {
	case NUMBER:
		c.next()
		v, err := parseNumberToken(tok.Value)
		if err != nil {
			return nil, err
		}
		return Const(v), nil
	case IDENT:
		if !isLetter(tok.Value[0]) {
			// Unknown punctuation the lexer passed through as an IDENT.
			return nil, fmt.Errorf("expected expression, found %q", tok.Value)
		}
		c.next()
		return &Expr{Op: ExprSym, Sym: tok.Value}, nil
	case MINUS:
		c.next()
		inner, err := parseTerm(c)
		if err != nil {
			return nil, err
		}
		return &Expr{Op: ExprNeg, Left: inner}, nil
	case PLUS:
		c.next()
		return parseTerm(c)
	default:
		return nil, fmt.Errorf("expected expression, found %q", tok.Value)
	}
}
