package assembler

import (
	"strings"
)

// Parser turns the token stream into statements, one source line at a time.
type Parser struct {
	lexer *Lexer
}

// Statement is one parsed assembly line: an optional label, then either a
// directive or an instruction fragment.
type Statement struct {
	Label     string
	Directive *directive
	Frag      *Fragment
	LineNum   int
}

func NewParser(lexer *Lexer) *Parser {
	return &Parser{lexer: lexer}
}

// ParseLine parses the next source line. It returns (nil, nil) at end of
// input. On a diagnostic the rest of the line has already been consumed, so
// the caller can simply continue with the next line.
func (p *Parser) ParseLine() (*Statement, *Diagnostic) {
	var tokens []Token

	// Collect all tokens until EOL
	for {
		token := p.lexer.NextToken()
		if token.Type == EOF {
			if len(tokens) == 0 {
				return nil, nil
			}
			break
		}
		if token.Type == EOL {
			break
		}
		if token.Type != COMMENT {
			tokens = append(tokens, token)
		}
	}

	stmt := &Statement{}
	if len(tokens) == 0 {
		return stmt, nil
	}
	stmt.LineNum = tokens[0].LineNum
	pos := 0

	// Leading label: IDENT ':'
	if tokens[0].Type == IDENT && len(tokens) > 1 && tokens[1].Type == COLON {
		stmt.Label = tokens[0].Value
		pos = 2
	}

	if pos >= len(tokens) {
		return stmt, nil
	}

	switch tok := tokens[pos]; tok.Type {
	case DIRECTIVE:
		dir, diag := parseDirective(strings.ToLower(tok.Value), tokens[pos+1:], tok.LineNum)
		if diag != nil {
			return nil, diag
		}
		stmt.Directive = dir
		return stmt, nil

	case INSTRUCTION:
		mnemonic := strings.ToUpper(tok.Value)
		operand, diag := parseOperand(tokens[pos+1:], tok.LineNum)
		if diag != nil {
			return nil, diag
		}
		mi, diag := match(mnemonic, operand)
		if diag != nil {
			return nil, diag
		}
		stmt.Frag = encode(mi)
		return stmt, nil

	case IDENT:
		// An identifier in mnemonic position that isn't in the ISA table.
		return nil, diagf(UnrecognizedMnemonic, tok.LineNum, "%s", tok.Value)

	default:
		return nil, diagf(InvalidOperandSyntax, tok.LineNum, "unexpected %q", tok.Value)
	}
}
