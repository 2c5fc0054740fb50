package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"
)

// asmCmd stops the pipeline after x86-64 code generation, printing the
// generated assembly.
type asmCmd struct {
	optimize bool
	out      string
}

func (*asmCmd) Name() string     { return "asm" }
func (*asmCmd) Synopsis() string { return "compile a BX source file to x86-64 assembly" }
func (*asmCmd) Usage() string {
	return `asm <file.bx>:
  Run the full compiler pipeline and print the resulting SysV x86-64
  assembly listing.
`
}

func (c *asmCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.optimize, "optimize", true, "run the control-flow and SSA-based data-flow optimizers first")
	f.StringVar(&c.out, "o", "", "write the assembly to this file instead of stdout")
}

func (c *asmCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	args := f.Args()
	if len(args) < 1 {
		fmt.Fprintf(os.Stderr, "💥 no source file given\n")
		return subcommands.ExitUsageError
	}

	asm, err := compileToAsm(args[0], c.optimize)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}

	if c.out != "" {
		if err := os.WriteFile(c.out, []byte(asm), 0o644); err != nil {
			fmt.Fprintf(os.Stderr, "💥 failed to write %s: %v\n", c.out, err)
			return subcommands.ExitFailure
		}
		return subcommands.ExitSuccess
	}

	fmt.Print(asm)
	return subcommands.ExitSuccess
}
