package main

import (
	"fmt"
	"os"

	cli "github.com/urfave/cli/v2"

	"github.com/newhook/asm6502/as/assembler"
	"github.com/newhook/asm6502/elf"
)

func main() {
	app := &cli.App{
		Name:      "as",
		Usage:     "assemble 6502 source to an ELF relocatable object",
		ArgsUsage: "<input.s>",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "output file",
				Value:   "a.out",
			},
			&cli.BoolFlag{
				Name:  "bin",
				Usage: "write a raw binary image instead of an ELF object",
			},
		},
		Action: assemble,
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func assemble(c *cli.Context) error {
	if c.NArg() != 1 {
		return fmt.Errorf("expected one input file")
	}
	input := c.Args().First()

	source, err := os.ReadFile(input)
	if err != nil {
		return err
	}

	asm := assembler.NewAssembler()
	if err := asm.Assemble(string(source)); err != nil {
		for _, diag := range asm.Diagnostics() {
			fmt.Fprintf(os.Stderr, "%s: %s\n", input, diag)
		}
		return fmt.Errorf("%d error(s)", len(asm.Diagnostics()))
	}
	obj := asm.Object()

	out, err := os.Create(c.String("output"))
	if err != nil {
		return err
	}
	defer out.Close()

	if c.Bool("bin") {
		if len(obj.Relocs) > 0 {
			return fmt.Errorf("cannot write raw binary: %d unresolved reference(s)", len(obj.Relocs))
		}
		_, err = out.Write(obj.Code)
		return err
	}

	return elf.Write(out, toELF(obj))
}

// toELF maps the assembler's object model onto the container: fixup kinds
// become relocation types. AddrRef never survives layout, so only the three
// writer-visible kinds appear here.
func toELF(obj *assembler.Object) *elf.Object {
	eobj := &elf.Object{Text: obj.Code}
	for _, sym := range obj.Symbols {
		eobj.Symbols = append(eobj.Symbols, elf.Symbol{
			Name:    sym.Name,
			Value:   sym.Value,
			Defined: sym.Defined,
		})
	}
	for _, reloc := range obj.Relocs {
		eobj.Relocs = append(eobj.Relocs, elf.Reloc{
			Offset: reloc.Offset,
			Symbol: reloc.Symbol,
			Type:   relocType(reloc.Kind),
			Addend: int32(reloc.Addend),
		})
	}
	return eobj
}

func relocType(kind assembler.FixupKind) uint32 {
	switch kind {
	case assembler.FixupSymbol8:
		return elf.R_MCS6502_SYMBOL8
	case assembler.FixupSymbol16:
		return elf.R_MCS6502_SYMBOL16
	case assembler.FixupBranch:
		return elf.R_MCS6502_BRANCH
	default:
		return elf.R_MCS6502_NONE
	}
}
