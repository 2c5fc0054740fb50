package sema

import (
	"testing"

	"bx/ast"
	"bx/lexer"
	"bx/parser"
)

func parseOK(t *testing.T, src string) *ast.Program {
	t.Helper()
	toks, err := lexer.New(src).Scan()
	if err != nil {
		t.Fatalf("lexer error: %v", err)
	}
	prog, err := parser.Parse(toks)
	if err != nil {
		t.Fatalf("parser error: %v", err)
	}
	return prog
}

func TestCheckAcceptsMinimalProgram(t *testing.T) {
	prog := parseOK(t, `def main() { }`)
	if err := Check(prog); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestCheckRejectsMissingMain(t *testing.T) {
	prog := parseOK(t, `def f() { }`)
	err := Check(prog)
	if _, ok := err.(*DeclarationError); !ok {
		t.Fatalf("expected *DeclarationError, got %v (%T)", err, err)
	}
}

func TestCheckRejectsWrongMainSignature(t *testing.T) {
	prog := parseOK(t, `def main(): int { return 0; }`)
	err := Check(prog)
	if _, ok := err.(*DeclarationError); !ok {
		t.Fatalf("expected *DeclarationError, got %v (%T)", err, err)
	}
}

func TestCheckRejectsRedeclaredGlobal(t *testing.T) {
	prog := parseOK(t, `var x = 1: int;
var x = 2: int;
def main() { }`)
	err := Check(prog)
	if _, ok := err.(*DeclarationError); !ok {
		t.Fatalf("expected *DeclarationError, got %v (%T)", err, err)
	}
}

func TestCheckRejectsNonLiteralGlobalInit(t *testing.T) {
	prog := parseOK(t, `var x = 1: int;
var y = x: int;
def main() { }`)
	err := Check(prog)
	if _, ok := err.(*DeclarationError); !ok {
		t.Fatalf("expected *DeclarationError, got %v (%T)", err, err)
	}
}

func TestCheckResolvesVariableType(t *testing.T) {
	prog := parseOK(t, `def main() {
  var x = 1: int;
  x = x + 1;
}`)
	if err := Check(prog); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	pd := prog.Decls[0].(*ast.ProcDecl)
	assign := pd.Body.Stmts[1].(*ast.Assign)
	opapp := assign.Expr.(*ast.OpApp)
	if opapp.ResolvedType() != ast.TyInt {
		t.Fatalf("expected Int, got %v", opapp.ResolvedType())
	}
}

func TestCheckRejectsTypeMismatchInArithmetic(t *testing.T) {
	prog := parseOK(t, `def main() {
  var b = true: bool;
  var x = b + 1: int;
}`)
	err := Check(prog)
	if _, ok := err.(*TypeError); !ok {
		t.Fatalf("expected *TypeError, got %v (%T)", err, err)
	}
}

func TestCheckRejectsBreakOutsideLoop(t *testing.T) {
	prog := parseOK(t, `def main() {
  break;
}`)
	err := Check(prog)
	if _, ok := err.(*TypeError); !ok {
		t.Fatalf("expected *TypeError, got %v (%T)", err, err)
	}
}

func TestCheckAcceptsBreakInsideLoop(t *testing.T) {
	prog := parseOK(t, `def main() {
  while (true) {
    break;
  }
}`)
	if err := Check(prog); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestCheckRejectsMissingReturnOnNonVoidProc(t *testing.T) {
	prog := parseOK(t, `def f(): int {
  if (true) {
    return 1;
  }
}
def main() { }`)
	err := Check(prog)
	if _, ok := err.(*TypeError); !ok {
		t.Fatalf("expected *TypeError, got %v (%T)", err, err)
	}
}

func TestCheckAcceptsReturnOnEveryPath(t *testing.T) {
	prog := parseOK(t, `def f(): int {
  if (true) {
    return 1;
  } else {
    return 2;
  }
}
def main() { }`)
	if err := Check(prog); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestCheckSynthesizesImplicitVoidReturn(t *testing.T) {
	prog := parseOK(t, `def f() {
  var x = 1: int;
}
def main() { }`)
	if err := Check(prog); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	pd := prog.Decls[0].(*ast.ProcDecl)
	last := pd.Body.Stmts[len(pd.Body.Stmts)-1]
	ret, ok := last.(*ast.Return)
	if !ok || ret.Expr != nil {
		t.Fatalf("expected a synthesized bare return, got %+v", last)
	}
}

func TestCheckRetargetsPrintByArgumentType(t *testing.T) {
	prog := parseOK(t, `def main() {
  print(1);
  print(true);
}`)
	if err := Check(prog); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	pd := prog.Decls[0].(*ast.ProcDecl)
	intCall := pd.Body.Stmts[0].(*ast.Eval).Expr.(*ast.Call)
	boolCall := pd.Body.Stmts[1].(*ast.Eval).Expr.(*ast.Call)
	if intCall.Callee != BuiltinPrintInt {
		t.Fatalf("expected retarget to %s, got %s", BuiltinPrintInt, intCall.Callee)
	}
	if boolCall.Callee != BuiltinPrintBool {
		t.Fatalf("expected retarget to %s, got %s", BuiltinPrintBool, boolCall.Callee)
	}
}

func TestCheckCallArityAndTypes(t *testing.T) {
	prog := parseOK(t, `def add(a, b: int): int {
  return a + b;
}
def main() {
  var x = 0: int;
  x = add(1, 2);
}`)
	if err := Check(prog); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestCheckRejectsCallArityMismatch(t *testing.T) {
	prog := parseOK(t, `def add(a, b: int): int {
  return a + b;
}
def main() {
  var x = 0: int;
  x = add(1);
}`)
	err := Check(prog)
	if _, ok := err.(*TypeError); !ok {
		t.Fatalf("expected *TypeError, got %v (%T)", err, err)
	}
}

func TestCheckRejectsUndeclaredVariable(t *testing.T) {
	prog := parseOK(t, `def main() {
  x = 1;
}`)
	err := Check(prog)
	if _, ok := err.(*DeclarationError); !ok {
		t.Fatalf("expected *DeclarationError, got %v (%T)", err, err)
	}
}

func TestCheckAllowsShadowingAcrossScopes(t *testing.T) {
	prog := parseOK(t, `var x = 1: int;
def main() {
  var x = true: bool;
  if (x) {
    var x = 2: int;
  }
}`)
	if err := Check(prog); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
