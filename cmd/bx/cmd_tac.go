package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"

	"bx/tac"
)

// tacCmd stops the pipeline after three-address-code generation,
// before any optimization pass.
type tacCmd struct {
	json bool
}

func (*tacCmd) Name() string     { return "tac" }
func (*tacCmd) Synopsis() string { return "lower a BX source file to unoptimized three-address code" }
func (*tacCmd) Usage() string {
	return `tac <file.bx>:
  Parse, typecheck, and lower a BX source file to TAC, printing a
  disassembly listing.
`
}

func (c *tacCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.json, "json", false, "print the TAC program as JSON instead of a disassembly listing")
}

func (c *tacCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	args := f.Args()
	if len(args) < 1 {
		fmt.Fprintf(os.Stderr, "💥 no source file given\n")
		return subcommands.ExitUsageError
	}

	prog, err := compileToTAC(args[0], false)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}

	if c.json {
		data, err := tac.ToJSON(prog)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return subcommands.ExitFailure
		}
		fmt.Println(string(data))
		return subcommands.ExitSuccess
	}

	fmt.Print(tac.Disassemble(prog))
	return subcommands.ExitSuccess
}
