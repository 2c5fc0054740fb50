package tac

import (
	"fmt"
	"strings"
)

// Disassemble pretty-prints a TAC program one instruction per line, for
// inspecting what a given pass produced.
func Disassemble(prog *Program) string {
	var b strings.Builder
	for _, d := range prog.Decls {
		switch decl := d.(type) {
		case *GlobalVar:
			fmt.Fprintf(&b, "var @%s = %d\n", decl.Name, decl.Init)
		case *Proc:
			fmt.Fprintf(&b, "proc @%s(%s):\n", decl.Name, strings.Join(decl.Params, ", "))
			for _, in := range decl.Body {
				b.WriteString(disassembleInstruction(in))
				b.WriteString("\n")
			}
		}
	}
	return b.String()
}

func disassembleInstruction(in Instruction) string {
	if in.Op == Label {
		return in.Args[0].Name + ":"
	}
	var line strings.Builder
	line.WriteString("    ")
	line.WriteString(string(in.Op))
	if in.Op == Phi {
		for _, edge := range in.Phi {
			fmt.Fprintf(&line, " [%s: %s]", edge.Pred, edge.Source)
		}
	} else {
		for _, a := range in.Args {
			line.WriteString(" ")
			line.WriteString(a.String())
		}
	}
	if in.Dest != nil {
		line.WriteString(" -> ")
		line.WriteString(in.Dest.String())
	}
	return line.String()
}
