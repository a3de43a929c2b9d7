package assembler

import (
	"errors"
)

// Symbol represents a label in the assembly
type Symbol struct {
	Name    string
	Value   uint16
	Defined bool
}

// Reloc is a symbol reference left for the object writer: the referenced
// symbol was not defined in this source file, so the placeholder bytes stay
// zero and the reference is exported.
type Reloc struct {
	Offset  uint32
	Symbol  string
	Kind    FixupKind
	Addend  int64
	LineNum int
}

// Object is the result of assembling one source file.
type Object struct {
	Code    []byte
	Symbols []*Symbol
	Relocs  []Reloc
}

// Assembler holds the state of our assembler
type Assembler struct {
	symbols map[string]*Symbol
	stmts   []*Statement
	diags   []*Diagnostic
	output  []byte
	relocs  []Reloc
}

// NewAssembler creates a new instance of our assembler
func NewAssembler() *Assembler {
	return &Assembler{
		symbols: make(map[string]*Symbol),
	}
}

// Assemble runs the whole pipeline over one source file: parse every
// statement, lay fragments out with relaxation, then patch fixups into the
// output. Parse and match errors skip the offending statement and assembly
// continues; the returned error joins every diagnostic produced.
func (a *Assembler) Assemble(source string) error {
	a.symbols = make(map[string]*Symbol)
	a.stmts = nil
	a.diags = nil

	a.parse(source)
	a.layout()
	a.emit()

	if len(a.diags) > 0 {
		errs := make([]error, len(a.diags))
		for i, d := range a.diags {
			errs[i] = d
		}
		return errors.Join(errs...)
	}
	return nil
}

func (a *Assembler) parse(source string) {
	parser := NewParser(NewLexer(source))
	for {
		stmt, diag := parser.ParseLine()
		if diag != nil {
			a.diags = append(a.diags, diag)
			continue
		}
		if stmt == nil {
			break
		}
		a.stmts = append(a.stmts, stmt)
	}
}

// layout assigns addresses and relaxes. Shrinking an instruction moves every
// later label, which can make further operands fit the zero page, so the
// pass repeats until no fragment changes. Fragments only ever shrink, so the
// loop terminates.
func (a *Assembler) layout() {
	for {
		a.assignAddresses()

		changed := false
		for _, stmt := range a.stmts {
			frag := stmt.Frag
			if frag == nil || !frag.Relaxable {
				continue
			}
			for _, fixup := range frag.Fixups {
				if fixup.Kind != FixupAddrRef {
					continue
				}
				if value, ok := fixup.Expr.Eval(a.resolve); ok {
					if frag.relax(value) {
						changed = true
					}
				}
			}
		}
		if !changed {
			break
		}
	}

	// Whatever stayed absolute keeps its 3-byte form; the reference becomes
	// a plain 16-bit one.
	for _, stmt := range a.stmts {
		if stmt.Frag != nil && stmt.Frag.Relaxable {
			stmt.Frag.widenFixups()
			stmt.Frag.Relaxable = false
		}
	}
}

func (a *Assembler) assignAddresses() {
	var pc uint16
	for _, stmt := range a.stmts {
		if stmt.Label != "" {
			a.symbols[stmt.Label] = &Symbol{
				Name:    stmt.Label,
				Value:   pc,
				Defined: true,
			}
		}
		if dir := stmt.Directive; dir != nil {
			switch dir.name {
			case ".org":
				pc = dir.org
			case ".align":
				pc += uint16(alignPad(pc, dir.align))
			default:
				pc += uint16(len(dir.data))
			}
			// A label on a directive line names the directive's address,
			// which .org just moved.
			if stmt.Label != "" && dir.name == ".org" {
				a.symbols[stmt.Label].Value = pc
			}
		}
		if stmt.Frag != nil {
			stmt.Frag.Addr = pc
			pc += uint16(stmt.Frag.Size())
		}
	}
}

func (a *Assembler) resolve(name string) (int64, bool) {
	if sym, ok := a.symbols[name]; ok && sym.Defined {
		return int64(sym.Value), true
	}
	return 0, false
}

// emit concatenates fragments into the output image, patching each fixup
// whose value is known and exporting the rest as relocations.
func (a *Assembler) emit() {
	a.output = nil
	a.relocs = nil

	var pc uint16
	for _, stmt := range a.stmts {
		if dir := stmt.Directive; dir != nil {
			switch dir.name {
			case ".org":
				// Pad output to reach the org address, unless the directive
				// precedes any output.
				if len(a.output) > 0 {
					for count := int(dir.org) - int(pc); count > 0; count-- {
						a.output = append(a.output, 0)
					}
				}
				pc = dir.org
			case ".align":
				pad := alignPad(pc, dir.align)
				a.output = append(a.output, nopFill(pad)...)
				pc += uint16(pad)
			default:
				a.output = append(a.output, dir.data...)
				pc += uint16(len(dir.data))
			}
		}

		frag := stmt.Frag
		if frag == nil {
			continue
		}
		start := len(a.output)
		a.output = append(a.output, frag.Bytes...)
		pc += uint16(frag.Size())

		for _, fixup := range frag.Fixups {
			a.applyOrExport(a.output[start:], frag, fixup, uint32(start))
		}
	}
}

// applyOrExport resolves one fixup. Known values are patched in place;
// references to symbols this file never defines become relocations.
func (a *Assembler) applyOrExport(data []byte, frag *Fragment, fixup Fixup, textOffset uint32) {
	value, ok := fixup.Expr.Eval(a.resolve)
	if !ok {
		name, addend, decomposed := fixup.Expr.Symbol()
		if !decomposed {
			a.diags = append(a.diags, diagf(UndefinedSymbol, fixup.LineNum, "%s", fixup.Expr))
			return
		}
		kind := fixup.Kind
		if kind == FixupAddrRef {
			// Layout leaves no AddrRef behind; guard anyway.
			kind = FixupSymbol16
		}
		a.relocs = append(a.relocs, Reloc{
			Offset:  textOffset + uint32(fixup.Offset),
			Symbol:  name,
			Kind:    kind,
			Addend:  addend,
			LineNum: fixup.LineNum,
		})
		return
	}

	switch fixup.Kind {
	case FixupBranch:
		// The branch displacement is relative to the next instruction.
		value -= int64(frag.Addr) + 2
	case FixupSymbol8:
		if fixup.HighByte {
			value = (value >> 8) & 0xFF
		} else if value < 0 || value > 0xFF {
			a.diags = append(a.diags, diagf(OperandOutOfRange, fixup.LineNum, "value %d does not fit in 8 bits", value))
			return
		}
	}

	if diag := applyFixup(data, fixup, value); diag != nil {
		a.diags = append(a.diags, diag)
	}
}

// nopFill builds padding of the given size, one NOP per byte.
func nopFill(count int) []byte {
	fill := make([]byte, count)
	for i := range fill {
		fill[i] = 0xEA
	}
	return fill
}

// GetOutput returns the assembled image.
func (a *Assembler) GetOutput() []byte {
	return a.output
}

// Object returns the assembled code together with its symbols and
// unresolved references, ready for an object writer.
func (a *Assembler) Object() *Object {
	obj := &Object{Code: a.output, Relocs: a.relocs}
	for _, sym := range a.symbols {
		obj.Symbols = append(obj.Symbols, sym)
	}
	for _, reloc := range a.relocs {
		if _, ok := a.symbols[reloc.Symbol]; !ok {
			sym := &Symbol{Name: reloc.Symbol}
			a.symbols[reloc.Symbol] = sym
			obj.Symbols = append(obj.Symbols, sym)
		}
	}
	return obj
}

// Diagnostics returns every error produced by the last Assemble call.
func (a *Assembler) Diagnostics() []*Diagnostic {
	return a.diags
}
