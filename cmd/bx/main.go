// Command bx is the BX compiler driver. It is built on
// github.com/google/subcommands; each pipeline stage BX can stop at
// after is its own subcommand.
package main

import (
	"context"
	"flag"
	"os"

	"github.com/google/subcommands"
)

func main() {
	subcommands.Register(subcommands.HelpCommand(), "")
	subcommands.Register(subcommands.FlagsCommand(), "")
	subcommands.Register(subcommands.CommandsCommand(), "")

	subcommands.Register(&parseCmd{}, "pipeline")
	subcommands.Register(&checkCmd{}, "pipeline")
	subcommands.Register(&tacCmd{}, "pipeline")
	subcommands.Register(&optCmd{}, "pipeline")
	subcommands.Register(&asmCmd{}, "pipeline")
	subcommands.Register(&buildCmd{}, "pipeline")
	subcommands.Register(&replCmd{}, "pipeline")

	flag.Parse()
	ctx := context.Background()
	os.Exit(int(subcommands.Execute(ctx)))
}
