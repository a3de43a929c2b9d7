package assembler

import "fmt"

// DiagCode classifies an assembly diagnostic.
type DiagCode int

const (
	UnrecognizedMnemonic DiagCode = iota
	InvalidOperandSyntax
	OperandOutOfRange
	NoMatchingAddressingMode
	InvalidIndirectIndex
	TrailingGarbage
	BranchOutOfRange
	InvalidFixupKind
	UndefinedSymbol
)

func (c DiagCode) String() string {
	switch c {
	case UnrecognizedMnemonic:
		return "unrecognized mnemonic"
	case InvalidOperandSyntax:
		return "invalid operand syntax"
	case OperandOutOfRange:
		return "operand out of range"
	case NoMatchingAddressingMode:
		return "no matching addressing mode"
	case InvalidIndirectIndex:
		return "invalid indirect index register"
	case TrailingGarbage:
		return "trailing garbage after operand"
	case BranchOutOfRange:
		return "branch out of range"
	case InvalidFixupKind:
		return "invalid fixup kind"
	case UndefinedSymbol:
		return "undefined symbol"
	default:
		return "unknown error"
	}
}

// Diagnostic is a per-statement assembly error. Parse and match failures
// skip the offending statement and assembly continues, so one source file
// can produce several of these.
type Diagnostic struct {
	Code    DiagCode
	LineNum int
	Message string
}

func (d *Diagnostic) Error() string {
	if d.Message == "" {
		return fmt.Sprintf("line %d: %s", d.LineNum, d.Code)
	}
	return fmt.Sprintf("line %d: %s: %s", d.LineNum, d.Code, d.Message)
}

func diagf(code DiagCode, line int, format string, args ...interface{}) *Diagnostic {
	return &Diagnostic{Code: code, LineNum: line, Message: fmt.Sprintf(format, args...)}
}
