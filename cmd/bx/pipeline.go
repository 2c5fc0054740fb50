package main

import (
	"fmt"
	"os"

	"bx/ast"
	"bx/lexer"
	"bx/parser"
	"bx/sema"
	"bx/ssa"
	"bx/tac"
	"bx/x64"
)

// parseFile lexes and parses filename into an AST, or returns the first
// error encountered.
func parseFile(filename string) (*ast.Program, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", filename, err)
	}
	tokens, err := lexer.New(string(data)).Scan()
	if err != nil {
		return nil, err
	}
	return parser.Parse(tokens)
}

// checkFile parses filename and runs the two-phase semantic analyzer
// over the result.
func checkFile(filename string) (*ast.Program, error) {
	prog, err := parseFile(filename)
	if err != nil {
		return nil, err
	}
	if err := sema.Check(prog); err != nil {
		return nil, err
	}
	return prog, nil
}

// compileToTAC runs the front end through TAC generation and,
// optionally, the control-flow and SSA-based data-flow optimizers
//; ssa.Optimize already finishes with a control-flow
// optimization pass, so the single --optimize toggle governs both.
func compileToTAC(filename string, optimize bool) (*tac.Program, error) {
	prog, err := checkFile(filename)
	if err != nil {
		return nil, err
	}
	tacProg := tac.Generate(prog)
	if optimize {
		for _, d := range tacProg.Decls {
			if p, ok := d.(*tac.Proc); ok {
				p.Body = ssa.Optimize(p.Body, p.Params)
			}
		}
	}
	return tacProg, nil
}

// compileToAsm runs the whole pipeline through x86-64 lowering.
func compileToAsm(filename string, optimize bool) (string, error) {
	tacProg, err := compileToTAC(filename, optimize)
	if err != nil {
		return "", err
	}
	return x64.Lower(tacProg)
}
