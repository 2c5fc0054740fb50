package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/chzyer/readline"
	"github.com/google/subcommands"

	"bx/lexer"
	"bx/parser"
	"bx/sema"
	"bx/ssa"
	"bx/tac"
)

// replCmd runs a read-eval-print loop that lexes, parses, and
// typechecks one BX procedure declaration at a time and prints its
// lowered, optimized TAC. There is no interpreter
// in scope: BX is an ahead-of-time compiler, so "eval" here means
// "run the front half of the pipeline and show the IR".
type replCmd struct{}

func (*replCmd) Name() string     { return "repl" }
func (*replCmd) Synopsis() string { return "start an interactive BX REPL" }
func (*replCmd) Usage() string {
	return `repl:
  Read BX procedure declarations one at a time, printing their
  optimized TAC. Type 'exit' or Ctrl-D to quit.
`
}
func (*replCmd) SetFlags(f *flag.FlagSet) {}

func (r *replCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	rl, err := readline.New("bx> ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "💥 failed to start REPL: %v\n", err)
		return subcommands.ExitFailure
	}
	defer rl.Close()

	fmt.Println("BX REPL. Enter a full procedure declaration; type 'exit' to quit.")

	for {
		line, err := rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			continue
		}
		if errors.Is(err, io.EOF) {
			return subcommands.ExitSuccess
		}
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return subcommands.ExitFailure
		}
		if line == "exit" {
			return subcommands.ExitSuccess
		}
		if line == "" {
			continue
		}

		replEval(line)
	}
}

func replEval(line string) {
	tokens, err := lexer.New(line).Scan()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return
	}
	prog, err := parser.Parse(tokens)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return
	}
	if err := sema.CheckFragment(prog); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return
	}

	tacProg := tac.Generate(prog)
	for _, d := range tacProg.Decls {
		if p, ok := d.(*tac.Proc); ok {
			p.Body = ssa.Optimize(p.Body, p.Params)
		}
	}
	fmt.Print(tac.Disassemble(tacProg))
}
