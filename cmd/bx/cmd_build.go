package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/google/subcommands"
	"golang.org/x/sys/unix"

	"bx/internal/bxruntime"
	"bx/tac"
	"bx/x64"
)

// buildCmd runs the whole pipeline and links the result into a native
// executable via gcc, linking against the embedded C runtime.
type buildCmd struct {
	optimize bool
	keepTAC  bool
	keepAsm  bool
	out      string
}

func (*buildCmd) Name() string     { return "build" }
func (*buildCmd) Synopsis() string { return "compile and link a BX source file into an executable" }
func (*buildCmd) Usage() string {
	return `build <file.bx>:
  Run the full compiler pipeline, assemble and link the result against
  the BX runtime, producing a native executable.
`
}

func (c *buildCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.optimize, "optimize", true, "run the control-flow and SSA-based data-flow optimizers first")
	f.BoolVar(&c.keepTAC, "keep-tac", false, "keep the intermediate .tac.json file")
	f.BoolVar(&c.keepAsm, "keep-asm", false, "keep the intermediate .s file")
	f.StringVar(&c.out, "o", "", "output executable path (default: source file name without extension)")
}

func (c *buildCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	args := f.Args()
	if len(args) < 1 {
		fmt.Fprintf(os.Stderr, "💥 no source file given\n")
		return subcommands.ExitUsageError
	}
	srcFile := args[0]

	outPath := c.out
	if outPath == "" {
		base := filepath.Base(srcFile)
		outPath = strings.TrimSuffix(base, filepath.Ext(base))
	}

	outDir := filepath.Dir(outPath)
	if outDir == "" {
		outDir = "."
	}
	if err := unix.Access(outDir, unix.W_OK); err != nil {
		fmt.Fprintf(os.Stderr, "💥 output directory %s is not writable: %v\n", outDir, err)
		return subcommands.ExitFailure
	}

	tacProg, err := compileToTAC(srcFile, c.optimize)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}

	if c.keepTAC {
		data, err := tac.ToJSON(tacProg)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return subcommands.ExitFailure
		}
		if err := os.WriteFile(outPath+".tac.json", data, 0o644); err != nil {
			fmt.Fprintf(os.Stderr, "💥 failed to write TAC dump: %v\n", err)
			return subcommands.ExitFailure
		}
	}

	asm, err := x64.Lower(tacProg)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}

	asmPath := outPath + ".s"
	if err := os.WriteFile(asmPath, []byte(asm), 0o644); err != nil {
		fmt.Fprintf(os.Stderr, "💥 failed to write assembly: %v\n", err)
		return subcommands.ExitFailure
	}
	if !c.keepAsm {
		defer os.Remove(asmPath)
	}

	runtimeDir, err := os.MkdirTemp("", "bx-runtime-*")
	if err != nil {
		fmt.Fprintf(os.Stderr, "💥 failed to create temp dir: %v\n", err)
		return subcommands.ExitFailure
	}
	defer os.RemoveAll(runtimeDir)

	runtimePath := filepath.Join(runtimeDir, "bx_runtime.c")
	if err := os.WriteFile(runtimePath, bxruntime.Source, 0o644); err != nil {
		fmt.Fprintf(os.Stderr, "💥 failed to write runtime source: %v\n", err)
		return subcommands.ExitFailure
	}

	cmd := exec.CommandContext(ctx, "gcc", "-o", outPath, asmPath, runtimePath)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "💥 linking failed: %v\n", err)
		return subcommands.ExitFailure
	}

	return subcommands.ExitSuccess
}
