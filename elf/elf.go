// Package elf writes and reads ELF32 relocatable objects for the MCS6502
// target: little-endian, 16-bit addresses, RELA relocations with addends.
package elf

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
)

// Machine and relocation types for the MCS6502 target. There is no
// registered machine number, so the conventional unofficial value is used.
const (
	EM_MCS6502 = 0x6502

	R_MCS6502_NONE     = 0
	R_MCS6502_SYMBOL8  = 1
	R_MCS6502_SYMBOL16 = 2
	R_MCS6502_BRANCH   = 3
)

const (
	elfHeaderSize     = 52
	sectionHeaderSize = 40
	symbolSize        = 16
	relaSize          = 12
)

// Symbol is one .symtab entry. Defined symbols point into .text; undefined
// ones are externals left to a linker.
type Symbol struct {
	Name    string
	Value   uint16
	Defined bool
}

// Reloc is one .rela.text entry.
type Reloc struct {
	Offset uint32
	Symbol string
	Type   uint32
	Addend int32
}

// Object is the content of one relocatable object file.
type Object struct {
	Text    []byte
	Symbols []Symbol
	Relocs  []Reloc
}

type fileHeader struct {
	Ident     [16]byte
	Type      uint16
	Machine   uint16
	Version   uint32
	Entry     uint32
	Phoff     uint32
	Shoff     uint32
	Flags     uint32
	Ehsize    uint16
	Phentsize uint16
	Phnum     uint16
	Shentsize uint16
	Shnum     uint16
	Shstrndx  uint16
}

type sectionHeader struct {
	Name      uint32
	Type      uint32
	Flags     uint32
	Addr      uint32
	Offset    uint32
	Size      uint32
	Link      uint32
	Info      uint32
	Addralign uint32
	Entsize   uint32
}

type symbolEntry struct {
	Name  uint32
	Value uint32
	Size  uint32
	Info  uint8
	Other uint8
	Shndx uint16
}

type relaEntry struct {
	Offset uint32
	Info   uint32
	Addend int32
}

// Section header types and flags.
const (
	shtNull     = 0
	shtProgbits = 1
	shtSymtab   = 2
	shtStrtab   = 3
	shtRela     = 4

	shfAlloc     = 0x2
	shfExecinstr = 0x4

	stbLocal  = 0
	stbGlobal = 1

	etRel = 1
)

// stringTable accumulates a classic ELF string table: a leading NUL, then
// NUL-terminated names.
type stringTable struct {
	buf     bytes.Buffer
	offsets map[string]uint32
}

func newStringTable() *stringTable {
	t := &stringTable{offsets: map[string]uint32{}}
	t.buf.WriteByte(0)
	return t
}

func (t *stringTable) add(name string) uint32 {
	if name == "" {
		return 0
	}
	if off, ok := t.offsets[name]; ok {
		return off
	}
	off := uint32(t.buf.Len())
	t.offsets[name] = off
	t.buf.WriteString(name)
	t.buf.WriteByte(0)
	return off
}

// Write serializes the object: header, .text, .symtab, .strtab, .rela.text,
// .shstrtab, then the section header table.
func Write(w io.Writer, obj *Object) error {
	// Defined symbols are local and must precede the undefined globals, per
	// the symbol table binding rule.
	ordered := make([]Symbol, 0, len(obj.Symbols))
	for _, sym := range obj.Symbols {
		if sym.Defined {
			ordered = append(ordered, sym)
		}
	}
	firstGlobal := uint32(len(ordered) + 1)
	for _, sym := range obj.Symbols {
		if !sym.Defined {
			ordered = append(ordered, sym)
		}
	}

	symIndex := map[string]uint32{}
	strtab := newStringTable()
	syms := make([]symbolEntry, 1, len(ordered)+1)
	for i, sym := range ordered {
		symIndex[sym.Name] = uint32(i + 1)
		entry := symbolEntry{
			Name:  strtab.add(sym.Name),
			Value: uint32(sym.Value),
			Info:  stbGlobal << 4,
		}
		if sym.Defined {
			entry.Info = stbLocal << 4
			entry.Shndx = 1 // .text
		}
		syms = append(syms, entry)
	}

	relas := make([]relaEntry, 0, len(obj.Relocs))
	for _, reloc := range obj.Relocs {
		idx, ok := symIndex[reloc.Symbol]
		if !ok {
			return fmt.Errorf("relocation against unknown symbol %q", reloc.Symbol)
		}
		relas = append(relas, relaEntry{
			Offset: reloc.Offset,
			Info:   idx<<8 | reloc.Type&0xFF,
			Addend: reloc.Addend,
		})
	}

	shstrtab := newStringTable()
	names := []string{"", ".text", ".symtab", ".strtab", ".rela.text", ".shstrtab"}
	nameOffsets := make([]uint32, len(names))
	for i, name := range names {
		nameOffsets[i] = shstrtab.add(name)
	}

	textOff := uint32(elfHeaderSize)
	symtabOff := textOff + uint32(len(obj.Text))
	symtabSize := uint32(len(syms) * symbolSize)
	strtabOff := symtabOff + symtabSize
	strtabSize := uint32(strtab.buf.Len())
	relaOff := strtabOff + strtabSize
	relaSizeTotal := uint32(len(relas) * relaSize)
	shstrtabOff := relaOff + relaSizeTotal
	shstrtabSize := uint32(shstrtab.buf.Len())
	shoff := shstrtabOff + shstrtabSize

	sections := []sectionHeader{
		{},
		{Name: nameOffsets[1], Type: shtProgbits, Flags: shfAlloc | shfExecinstr,
			Offset: textOff, Size: uint32(len(obj.Text)), Addralign: 1},
		{Name: nameOffsets[2], Type: shtSymtab, Offset: symtabOff, Size: symtabSize,
			Link: 3, Info: firstGlobal, Addralign: 4, Entsize: symbolSize},
		{Name: nameOffsets[3], Type: shtStrtab, Offset: strtabOff, Size: strtabSize, Addralign: 1},
		{Name: nameOffsets[4], Type: shtRela, Offset: relaOff, Size: relaSizeTotal,
			Link: 2, Info: 1, Addralign: 4, Entsize: relaSize},
		{Name: nameOffsets[5], Type: shtStrtab, Offset: shstrtabOff, Size: shstrtabSize, Addralign: 1},
	}

	header := fileHeader{
		Type:      etRel,
		Machine:   EM_MCS6502,
		Version:   1,
		Shoff:     shoff,
		Ehsize:    elfHeaderSize,
		Shentsize: sectionHeaderSize,
		Shnum:     uint16(len(sections)),
		Shstrndx:  uint16(len(sections) - 1),
	}
	copy(header.Ident[:], []byte{0x7F, 'E', 'L', 'F', 1 /* ELFCLASS32 */, 1 /* ELFDATA2LSB */, 1 /* EV_CURRENT */})

	var out bytes.Buffer
	le := binary.LittleEndian
	if err := binary.Write(&out, le, &header); err != nil {
		return err
	}
	out.Write(obj.Text)
	for _, sym := range syms {
		if err := binary.Write(&out, le, &sym); err != nil {
			return err
		}
	}
	out.Write(strtab.buf.Bytes())
	for _, rela := range relas {
		if err := binary.Write(&out, le, &rela); err != nil {
			return err
		}
	}
	out.Write(shstrtab.buf.Bytes())
	for _, sh := range sections {
		if err := binary.Write(&out, le, &sh); err != nil {
			return err
		}
	}

	_, err := w.Write(out.Bytes())
	return err
}

// Read parses an object previously produced by Write. It tolerates other
// writers as long as the file is a little-endian ELF32 relocatable with
// .text, .symtab and .rela.text laid out conventionally.
func Read(data []byte) (*Object, error) {
	if len(data) < elfHeaderSize {
		return nil, fmt.Errorf("not an ELF file: %d bytes", len(data))
	}
	var header fileHeader
	le := binary.LittleEndian
	if err := binary.Read(bytes.NewReader(data), le, &header); err != nil {
		return nil, err
	}
	if !bytes.Equal(header.Ident[:4], []byte{0x7F, 'E', 'L', 'F'}) {
		return nil, fmt.Errorf("bad ELF magic")
	}
	if header.Ident[4] != 1 || header.Ident[5] != 1 {
		return nil, fmt.Errorf("not a little-endian ELF32 file")
	}
	if header.Machine != EM_MCS6502 {
		return nil, fmt.Errorf("unexpected machine type 0x%x", header.Machine)
	}

	sections := make([]sectionHeader, header.Shnum)
	for i := range sections {
		off := int(header.Shoff) + i*sectionHeaderSize
		if off+sectionHeaderSize > len(data) {
			return nil, fmt.Errorf("section header %d out of bounds", i)
		}
		if err := binary.Read(bytes.NewReader(data[off:off+sectionHeaderSize]), le, &sections[i]); err != nil {
			return nil, err
		}
	}

	if int(header.Shstrndx) >= len(sections) {
		return nil, fmt.Errorf("bad section name table index %d", header.Shstrndx)
	}
	shstrtab, err := sectionData(data, sections[header.Shstrndx])
	if err != nil {
		return nil, err
	}

	sectionName := func(sh sectionHeader) string {
		return readString(shstrtab, sh.Name)
	}

	obj := &Object{}
	var symtab, strtab, rela []byte
	var symtabIdx int
	for i, sh := range sections {
		switch sectionName(sh) {
		case ".text":
			if obj.Text, err = sectionData(data, sh); err != nil {
				return nil, err
			}
		case ".symtab":
			if symtab, err = sectionData(data, sh); err != nil {
				return nil, err
			}
			symtabIdx = i
		case ".rela.text":
			if rela, err = sectionData(data, sh); err != nil {
				return nil, err
			}
		}
	}
	if symtab != nil {
		link := sections[symtabIdx].Link
		if int(link) < len(sections) {
			if strtab, err = sectionData(data, sections[link]); err != nil {
				return nil, err
			}
		}
	}

	var names []string
	for off := symbolSize; off+symbolSize <= len(symtab); off += symbolSize {
		var entry symbolEntry
		if err := binary.Read(bytes.NewReader(symtab[off:off+symbolSize]), le, &entry); err != nil {
			return nil, err
		}
		name := readString(strtab, entry.Name)
		names = append(names, name)
		obj.Symbols = append(obj.Symbols, Symbol{
			Name:    name,
			Value:   uint16(entry.Value),
			Defined: entry.Shndx != 0,
		})
	}

	for off := 0; off+relaSize <= len(rela); off += relaSize {
		var entry relaEntry
		if err := binary.Read(bytes.NewReader(rela[off:off+relaSize]), le, &entry); err != nil {
			return nil, err
		}
		idx := int(entry.Info >> 8)
		var name string
		if idx >= 1 && idx <= len(names) {
			name = names[idx-1]
		}
		obj.Relocs = append(obj.Relocs, Reloc{
			Offset: entry.Offset,
			Symbol: name,
			Type:   entry.Info & 0xFF,
			Addend: entry.Addend,
		})
	}

	return obj, nil
}

func sectionData(data []byte, sh sectionHeader) ([]byte, error) {
	if sh.Type == shtNull {
		return nil, nil
	}
	end := int(sh.Offset) + int(sh.Size)
	if int(sh.Offset) > len(data) || end > len(data) {
		return nil, fmt.Errorf("section data out of bounds: %d..%d", sh.Offset, end)
	}
	return data[sh.Offset:end], nil
}

func readString(strtab []byte, off uint32) string {
	if int(off) >= len(strtab) {
		return ""
	}
	end := bytes.IndexByte(strtab[off:], 0)
	if end < 0 {
		return string(strtab[off:])
	}
	return string(strtab[off : int(off)+end])
}
