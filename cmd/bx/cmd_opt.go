package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"

	"bx/tac"
)

// optCmd stops the pipeline after CFG recovery and SSA-based data-flow
// optimization, before code generation.
type optCmd struct {
	json bool
}

func (*optCmd) Name() string     { return "opt" }
func (*optCmd) Synopsis() string { return "lower a BX source file to optimized three-address code" }
func (*optCmd) Usage() string {
	return `opt <file.bx>:
  Parse, typecheck, lower to TAC and run the control-flow and SSA-based
  data-flow optimizers, printing a disassembly listing.
`
}

func (c *optCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.json, "json", false, "print the TAC program as JSON instead of a disassembly listing")
}

func (c *optCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	args := f.Args()
	if len(args) < 1 {
		fmt.Fprintf(os.Stderr, "💥 no source file given\n")
		return subcommands.ExitUsageError
	}

	prog, err := compileToTAC(args[0], true)
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
