package tac

import (
	"testing"

	"bx/ast"
	"bx/lexer"
	"bx/parser"
	"bx/sema"
)

func genOK(t *testing.T, src string) *Program {
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
	return Generate(prog)
}

func findProc(t *testing.T, p *Program, name string) *Proc {
	t.Helper()
	for _, d := range p.Decls {
		if pr, ok := d.(*Proc); ok && pr.Name == name {
			return pr
		}
	}
	t.Fatalf("no proc named %s", name)
	return nil
}

func TestGenerateGlobalVar(t *testing.T) {
	prog := genOK(t, `var x = 42: int;
def main() { }`)
	gv, ok := prog.Decls[0].(*GlobalVar)
	if !ok || gv.Name != "x" || gv.Init != 42 {
		t.Fatalf("unexpected first decl: %+v", prog.Decls[0])
	}
}

func TestGenerateConstAndReturn(t *testing.T) {
	prog := genOK(t, `def f(): int {
  return 7;
}
def main() { }`)
	f := findProc(t, prog, "f")
	if len(f.Body) != 2 {
		t.Fatalf("expected 2 instructions, got %d: %v", len(f.Body), f.Body)
	}
	if f.Body[0].Op != Const || f.Body[1].Op != Ret {
		t.Fatalf("unexpected body: %v", f.Body)
	}
}

func TestGenerateArithmetic(t *testing.T) {
	prog := genOK(t, `def f(): int {
  return 1 + 2;
}
def main() { }`)
	f := findProc(t, prog, "f")
	var sawAdd bool
	for _, instr := range f.Body {
		if instr.Op == Add {
			sawAdd = true
		}
	}
	if !sawAdd {
		t.Fatalf("expected an add instruction, got %v", f.Body)
	}
}

func TestGenerateParamsBoundToNamedOperands(t *testing.T) {
	prog := genOK(t, `def f(a: int): int {
  return a;
}
def main() { }`)
	f := findProc(t, prog, "f")
	if len(f.Params) != 1 || f.Params[0] != "a" {
		t.Fatalf("unexpected params: %v", f.Params)
	}
	copyInstr := f.Body[0]
	if copyInstr.Op != Copy || copyInstr.Args[0].Kind != NamedParam {
		t.Fatalf("expected a copy from the named parameter, got %v", copyInstr)
	}
}

func TestGenerateCallStagesParams(t *testing.T) {
	prog := genOK(t, `def add(a, b: int): int {
  return a + b;
}
def main() {
  var x = 0: int;
  x = add(1, 2);
}`)
	main := findProc(t, prog, "main")
	var paramCount int
	var sawCall bool
	for _, instr := range main.Body {
		if instr.Op == Param {
			paramCount++
		}
		if instr.Op == Call {
			sawCall = true
			if instr.Args[0] != GlobalOperand("add") {
				t.Fatalf("expected call to @add, got %v", instr.Args[0])
			}
		}
	}
	if paramCount != 2 || !sawCall {
		t.Fatalf("expected 2 param instructions and a call, got %d params, sawCall=%v", paramCount, sawCall)
	}
}

func TestGenerateBooleanMaterializationForRelational(t *testing.T) {
	prog := genOK(t, `def main() {
  var b = 1 < 2: bool;
}`)
	main := findProc(t, prog, "main")
	var sawSub, sawJl bool
	for _, instr := range main.Body {
		if instr.Op == Sub {
			sawSub = true
		}
		if instr.Op == Jl {
			sawJl = true
		}
	}
	if !sawSub || !sawJl {
		t.Fatalf("expected sub+jl lowering for a relational expr, got %v", main.Body)
	}
}

func TestGenerateWhileUsesBreakContinueTargets(t *testing.T) {
	prog := genOK(t, `def main() {
  while (true) {
    break;
    continue;
  }
}`)
	main := findProc(t, prog, "main")
	var jmpCount int
	for _, instr := range main.Body {
		if instr.Op == Jmp {
			jmpCount++
		}
	}
	// true->Lbody jmp is folded via munchBool (Bool true emits jmp Lt directly);
	// break, continue, and the loopback jmp at the end all add further jmps.
	if jmpCount < 3 {
		t.Fatalf("expected at least 3 jmp instructions in a loop with break+continue, got %d: %v", jmpCount, main.Body)
	}
}

func TestGeneratePrintRetargetedCallee(t *testing.T) {
	prog := genOK(t, `def main() {
  print(1);
}`)
	main := findProc(t, prog, "main")
	var sawCall bool
	for _, instr := range main.Body {
		if instr.Op == Call {
			sawCall = true
			if instr.Args[0] != GlobalOperand(sema.BuiltinPrintInt) {
				t.Fatalf("expected call to %s, got %v", sema.BuiltinPrintInt, instr.Args[0])
			}
		}
	}
	if !sawCall {
		t.Fatalf("expected a call instruction, got %v", main.Body)
	}
}

func TestToJSONRoundTripsShape(t *testing.T) {
	prog := genOK(t, `var x = 1: int;
def main() {
  print(x);
}`)
	data, err := ToJSON(prog)
	if err != nil {
		t.Fatalf("ToJSON error: %v", err)
	}
	if len(data) == 0 {
		t.Fatal("expected non-empty JSON")
	}
}

func TestUnaryNegGeneratesNegOpcode(t *testing.T) {
	prog := genOK(t, `def f(): int {
  return -5;
}
def main() { }`)
	f := findProc(t, prog, "f")
	var sawNeg bool
	for _, instr := range f.Body {
		if instr.Op == Neg {
			sawNeg = true
		}
	}
	if !sawNeg {
		t.Fatalf("expected a neg instruction, got %v", f.Body)
	}
}

var _ = ast.TyInt
