package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	cli "github.com/urfave/cli/v2"

	"github.com/newhook/asm6502/dis/disassembler"
	"github.com/newhook/asm6502/elf"
)

func main() {
	app := &cli.App{
		Name:  "dis",
		Usage: "disassemble 6502 machine code",
		Commands: []*cli.Command{
			{
				Name:      "objdump",
				Aliases:   []string{"d"},
				Usage:     "disassemble the .text section of an ELF object",
				ArgsUsage: "<object.o>",
				Action:    objdump,
			},
			{
				Name:      "raw",
				Usage:     "disassemble a raw binary image",
				ArgsUsage: "<image.bin>",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "addr",
						Aliases: []string{"a"},
						Usage:   "load address ($hex, 0xhex or decimal)",
						Value:   "0",
					},
				},
				Action: raw,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func objdump(c *cli.Context) error {
	if c.NArg() != 1 {
		return fmt.Errorf("expected one object file")
	}
	data, err := os.ReadFile(c.Args().First())
	if err != nil {
		return err
	}
	obj, err := elf.Read(data)
	if err != nil {
		return err
	}
	fmt.Print(disassembler.Listing(obj.Text, 0))
	return nil
}

func raw(c *cli.Context) error {
	if c.NArg() != 1 {
		return fmt.Errorf("expected one binary file")
	}
	data, err := os.ReadFile(c.Args().First())
	if err != nil {
		return err
	}
	origin, err := parseAddr(c.String("addr"))
	if err != nil {
		return err
	}
	fmt.Print(disassembler.Listing(data, origin))
	return nil
}

func parseAddr(s string) (uint16, error) {
	if strings.HasPrefix(s, "$") {
		s = "0x" + s[1:]
	}
	value, err := strconv.ParseUint(s, 0, 16)
	if err != nil {
		return 0, fmt.Errorf("bad address %q: %v", s, err)
	}
	return uint16(value), nil
}
