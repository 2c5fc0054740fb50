package x64

import (
	"fmt"
	"strings"

	"bx/tac"
)

// Runtime ABI symbols this package's output calls into; a small C
// runtime exports these three SysV-calling-convention routines.
const (
	RuntimePrintInt      = "bx_print_int"
	BuiltinPrintIntName  = "__bx_print_int"
	BuiltinPrintBoolName = "__bx_print_bool"
)

// Lower renders an entire TAC program as x86-64 System V assembly text:
// a .data section holding global variables, followed by a .text section
// with one label per procedure. Declaration order is
// preserved; globals and procedures may be interleaved in prog.Decls,
// but the .data section is always emitted before .text since GNU as
// allows only one active section directive run per kind.
func Lower(prog *tac.Program) (string, error) {
	var out strings.Builder

	var globals []*tac.GlobalVar
	var procs []*tac.Proc
	for _, d := range prog.Decls {
		switch decl := d.(type) {
		case *tac.GlobalVar:
			globals = append(globals, decl)
		case *tac.Proc:
			procs = append(procs, decl)
		}
	}

	if len(globals) > 0 {
		out.WriteString("\t.data\n")
		for _, gv := range globals {
			fmt.Fprintf(&out, "\t.globl %s\n", gv.Name)
			fmt.Fprintf(&out, "\t.align 8\n")
			fmt.Fprintf(&out, "%s:\n", gv.Name)
			fmt.Fprintf(&out, "\t.quad %d\n", gv.Init)
		}
	}

	out.WriteString("\t.text\n")
	for _, p := range procs {
		asm, err := LowerProc(p)
		if err != nil {
			return "", fmt.Errorf("lowering procedure %q: %w", p.Name, err)
		}
		out.WriteString(asm)
	}
	return out.String(), nil
}
