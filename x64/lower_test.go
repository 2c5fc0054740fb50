package x64

import (
	"strconv"
	"strings"
	"testing"

	"bx/lexer"
	"bx/parser"
	"bx/sema"
	"bx/ssa"
	"bx/tac"
)

func compileOK(t *testing.T, src string, optimize bool) *tac.Program {
	t.Helper()
	toks, err := lexer.New(src).Scan()
	if err != nil {
		t.Fatalf("lexer error: %v", err)
	}
	prog, err := parser.Parse(toks)
	if err != nil {
		t.Fatalf("parser error: %v", err)
	}
	if err := sema.Check(prog); err != nil {
		t.Fatalf("checker error: %v", err)
	}
	tacProg := tac.Generate(prog)
	if optimize {
		for _, d := range tacProg.Decls {
			if p, ok := d.(*tac.Proc); ok {
				p.Body = ssa.Optimize(p.Body, p.Params)
			}
		}
	}
	return tacProg
}

func TestLowerProcEmitsBalancedPrologueEpilogue(t *testing.T) {
	prog := compileOK(t, `def main() { var x = 1 : int; print(x); }`, false)
	var main *tac.Proc
	for _, d := range prog.Decls {
		if p, ok := d.(*tac.Proc); ok && p.Name == "main" {
			main = p
		}
	}
	asm, err := LowerProc(main)
	if err != nil {
		t.Fatalf("LowerProc error: %v", err)
	}
	if !strings.Contains(asm, "main:") {
		t.Fatalf("missing function label:\n%s", asm)
	}
	if !strings.Contains(asm, "pushq %rbp") || !strings.Contains(asm, "popq %rbp") {
		t.Fatalf("missing prologue/epilogue frame pointer save/restore:\n%s", asm)
	}
	if !strings.Contains(asm, "retq") {
		t.Fatalf("missing retq:\n%s", asm)
	}
	if !strings.Contains(asm, "callq __bx_print_int") {
		t.Fatalf("print(int) should call __bx_print_int:\n%s", asm)
	}
}

func TestLowerProcFrameIs16ByteAligned(t *testing.T) {
	prog := compileOK(t, `def f(a: int, b: int, c: int): int { return a + b + c; }
def main() { print(f(1, 2, 3)); }`, false)
	for _, d := range prog.Decls {
		p, ok := d.(*tac.Proc)
		if !ok {
			continue
		}
		asm, err := LowerProc(p)
		if err != nil {
			t.Fatalf("LowerProc(%s) error: %v", p.Name, err)
		}
		for _, line := range strings.Split(asm, "\n") {
			line = strings.TrimSpace(line)
			if !strings.HasPrefix(line, "subq $") {
				continue
			}
			digits := line[len("subq $"):strings.Index(line, ",")]
			n, err := strconv.Atoi(digits)
			if err != nil {
				t.Fatalf("unparsable subq line %q: %v", line, err)
			}
			if n%16 != 0 {
				t.Fatalf("frame size %d in %q is not 16-byte aligned", n, line)
			}
		}
	}
}

func TestLowerManyArgsSpillsToStack(t *testing.T) {
	prog := compileOK(t, `def sum7(a: int, b: int, c: int, d: int, e: int, f: int, g: int): int {
  return a + b + c + d + e + f + g;
}
def main() { print(sum7(1, 2, 3, 4, 5, 6, 7)); }`, false)
	var main *tac.Proc
	for _, d := range prog.Decls {
		if p, ok := d.(*tac.Proc); ok && p.Name == "main" {
			main = p
		}
	}
	asm, err := LowerProc(main)
	if err != nil {
		t.Fatalf("LowerProc error: %v", err)
	}
	if !strings.Contains(asm, "pushq $0") {
		t.Fatalf("expected alignment padding push for an odd stack-arg count:\n%s", asm)
	}
	if !strings.Contains(asm, "callq sum7") {
		t.Fatalf("expected call to sum7:\n%s", asm)
	}
}

func TestLowerProgramEmitsDataSection(t *testing.T) {
	prog := compileOK(t, `var counter = 0 : int;
def main() { print(counter); }`, false)
	asm, err := Lower(prog)
	if err != nil {
		t.Fatalf("Lower error: %v", err)
	}
	if !strings.Contains(asm, "\t.data\n") {
		t.Fatalf("expected a .data section:\n%s", asm)
	}
	if !strings.Contains(asm, "counter:\n\t.quad 0\n") {
		t.Fatalf("expected counter's storage:\n%s", asm)
	}
	if !strings.Contains(asm, "\t.text\n") {
		t.Fatalf("expected a .text section:\n%s", asm)
	}
}

func TestLowerWhileLoopThreadsLabels(t *testing.T) {
	prog := compileOK(t, `def main() {
  var x = 0 : int;
  while (x < 3) {
    print(x);
    x = x + 1;
  }
}`, true)
	var main *tac.Proc
	for _, d := range prog.Decls {
		if p, ok := d.(*tac.Proc); ok && p.Name == "main" {
			main = p
		}
	}
	asm, err := LowerProc(main)
	if err != nil {
		t.Fatalf("LowerProc error: %v", err)
	}
	if !strings.Contains(asm, "jl ") && !strings.Contains(asm, "jge ") {
		t.Fatalf("expected a relational conditional jump in the loop test:\n%s", asm)
	}
	if !strings.Contains(asm, "jmp .Lbx_main_") {
		t.Fatalf("expected a mangled intra-procedure jump:\n%s", asm)
	}
}
