package assembler

// directive is a parsed layout directive. Values are evaluated at parse
// time: directive operands take constants (and strings for .byte), not
// symbolic expressions.
type directive struct {
	name  string
	org   uint16 // .org target address
	align int    // .align boundary
	data  []byte // .byte / .word payload, already little-endian
}

// directiveHandler parses the operand tokens of one directive.
type directiveHandler func(args []Token, line int) (*directive, *Diagnostic)

var directiveHandlers = map[string]directiveHandler{
	".org":   parseOrg,
	".byte":  parseByte,
	".word":  parseWord,
	".align": parseAlign,
}

func parseDirective(name string, args []Token, line int) (*directive, *Diagnostic) {
	handler, ok := directiveHandlers[name]
	if !ok {
		return nil, diagf(InvalidOperandSyntax, line, "unknown directive %s", name)
	}
	return handler(args, line)
}

// constArg evaluates one constant expression argument.
func constArg(c *cursor, line int) (int64, *Diagnostic) {
	expr, err := parseExpr(c)
	if err != nil {
		return 0, diagf(InvalidOperandSyntax, line, "%v", err)
	}
	v, ok := expr.ConstValue()
	if !ok {
		return 0, diagf(InvalidOperandSyntax, line, "directive operand must be a constant")
	}
	return v, nil
}

func parseOrg(args []Token, line int) (*directive, *Diagnostic) {
	c := &cursor{tokens: args}
	v, diag := constArg(c, line)
	if diag != nil {
		return nil, diag
	}
	if !c.done() {
		return nil, diagf(TrailingGarbage, line, "unexpected %q", c.peek().Value)
	}
	if v < 0 || v > 0xFFFF {
		return nil, diagf(OperandOutOfRange, line, "address %d", v)
	}
	return &directive{name: ".org", org: uint16(v)}, nil
}

func parseByte(args []Token, line int) (*directive, *Diagnostic) {
	c := &cursor{tokens: args}
	dir := &directive{name: ".byte"}
	for {
		if c.peek().Type == STRING {
			dir.data = append(dir.data, []byte(c.next().Value)...)
		} else {
			v, diag := constArg(c, line)
			if diag != nil {
				return nil, diag
			}
			if v < -0x80 || v > 0xFF {
				return nil, diagf(OperandOutOfRange, line, "byte value %d", v)
			}
			dir.data = append(dir.data, byte(v))
		}
		if c.peek().Type != COMMA {
			break
		}
		c.next()
	}
	if !c.done() {
		return nil, diagf(TrailingGarbage, line, "unexpected %q", c.peek().Value)
	}
	return dir, nil
}

func parseWord(args []Token, line int) (*directive, *Diagnostic) {
	c := &cursor{tokens: args}
	dir := &directive{name: ".word"}
	for {
		v, diag := constArg(c, line)
		if diag != nil {
			return nil, diag
		}
		if v < -0x8000 || v > 0xFFFF {
			return nil, diagf(OperandOutOfRange, line, "word value %d", v)
		}
		dir.data = append(dir.data, byte(v), byte(v>>8))
		if c.peek().Type != COMMA {
			break
		}
		c.next()
	}
	if !c.done() {
		return nil, diagf(TrailingGarbage, line, "unexpected %q", c.peek().Value)
	}
	return dir, nil
}

func parseAlign(args []Token, line int) (*directive, *Diagnostic) {
	c := &cursor{tokens: args}
	v, diag := constArg(c, line)
	if diag != nil {
		return nil, diag
	}
	if !c.done() {
		return nil, diagf(TrailingGarbage, line, "unexpected %q", c.peek().Value)
	}
	if v < 1 || v > 0x1000 {
		return nil, diagf(OperandOutOfRange, line, "alignment %d", v)
	}
	return &directive{name: ".align", align: int(v)}, nil
}

// alignPad returns how many fill bytes are needed to reach the boundary.
func alignPad(pc uint16, boundary int) int {
	rem := int(pc) % boundary
	if rem == 0 {
		return 0
	}
	return boundary - rem
}
