package assembler

import (
	"github.com/newhook/asm6502/isa"
)

// Fragment is a contiguous run of emitted bytes for one instruction, tracked
// as a unit through layout and relaxation. Data directives carry their bytes
// in the directive itself, not in a Fragment.
type Fragment struct {
	Bytes  []byte
	Fixups []Fixup

	// Relaxable marks a fragment carrying an AddrRef fixup whose
	// instruction may shrink to the zero-page encoding.
	Relaxable bool

	// Inst is the encoded instruction, used by relaxation to find the
	// zero-page opcode.
	Inst isa.Instruction

	// Addr is the fragment's address, assigned during layout.
	Addr uint16

	LineNum int
}

// Size returns the fragment's current size in bytes.
func (f *Fragment) Size() int {
	return len(f.Bytes)
}

// encode emits a matched instruction as its opcode byte followed by 0-2
// operand bytes, little-endian. Resolved constants are written directly;
// unresolved expressions leave zero placeholders and record a fixup.
func encode(mi MCInst) *Fragment {
	inst := mi.Inst
	op := mi.Operand
	frag := &Fragment{
		Bytes:   make([]byte, inst.Size),
		Inst:    inst,
		LineNum: mi.LineNum,
	}
	frag.Bytes[0] = inst.Opcode

	switch inst.Mode {
	case isa.Implicit, isa.Accumulator:
		// Opcode only.

	case isa.Relative:
		// Branches always fix up: the displacement needs the final PC even
		// when the target is a constant.
		frag.Fixups = append(frag.Fixups, Fixup{
			Expr:    op.Expr,
			Kind:    FixupBranch,
			LineNum: mi.LineNum,
		})

	case isa.Immediate, isa.ZeroPage, isa.ZeroPageX, isa.ZeroPageY,
		isa.IndirectX, isa.IndirectY:
		if op.Resolved {
			v := op.Value
			if op.HighByte {
				v = (v >> 8) & 0xFF
			}
			frag.Bytes[1] = byte(v)
		} else {
			frag.Fixups = append(frag.Fixups, Fixup{
				Expr:     op.Expr,
				Kind:     FixupSymbol8,
				HighByte: op.HighByte,
				LineNum:  mi.LineNum,
			})
		}

	case isa.Absolute, isa.AbsoluteX, isa.AbsoluteY, isa.Indirect:
		if op.Resolved {
			frag.Bytes[1] = byte(op.Value)
			frag.Bytes[2] = byte(op.Value >> 8)
		} else {
			kind := FixupSymbol16
			if op.Relaxable && isa.Relaxed(inst.Opcode) != inst.Opcode {
				kind = FixupAddrRef
				frag.Relaxable = true
			}
			frag.Fixups = append(frag.Fixups, Fixup{
				Expr:    op.Expr,
				Kind:    kind,
				LineNum: mi.LineNum,
			})
		}
	}

	return frag
}

// relax shrinks a relaxable fragment to its zero-page encoding once the
// operand value is known to fit in 8 bits. It reports whether the fragment
// changed; a second call is a no-op.
func (f *Fragment) relax(value int64) bool {
	if !f.Relaxable {
		return false
	}
	if value < 0 || value > 0xFF {
		return false
	}
	zp := isa.Relaxed(f.Inst.Opcode)
	if zp == f.Inst.Opcode {
		return false
	}

	f.Bytes = f.Bytes[:2]
	f.Bytes[0] = zp
	f.Relaxable = false
	if inst, ok := isa.Decode(zp); ok {
		f.Inst = inst
	}
	for i := range f.Fixups {
		if f.Fixups[i].Kind == FixupAddrRef {
			f.Fixups[i].Kind = FixupSymbol8
		}
	}
	return true
}

// widenFixups turns any remaining AddrRef fixup into a plain 16-bit symbol
// fixup once layout decides the instruction keeps its absolute form.
func (f *Fragment) widenFixups() {
	for i := range f.Fixups {
		if f.Fixups[i].Kind == FixupAddrRef {
			f.Fixups[i].Kind = FixupSymbol16
		}
	}
}
