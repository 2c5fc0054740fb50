package tac

import (
	"strings"
	"testing"
)

func TestDisassembleIncludesGlobalAndProcHeader(t *testing.T) {
	prog := genOK(t, `var counter = 0: int;
def main() {
	print(1 + 2);
	return;
}`)

	out := Disassemble(prog)

	if !strings.Contains(out, "@counter") {
		t.Fatalf("expected global in disassembly, got:\n%s", out)
	}
	if !strings.Contains(out, "proc @main") {
		t.Fatalf("expected proc header in disassembly, got:\n%s", out)
	}
	if !strings.Contains(out, "ret") {
		t.Fatalf("expected a ret instruction in disassembly, got:\n%s", out)
	}
}

func TestDisassembleShowsCallAndParam(t *testing.T) {
	prog := genOK(t, `def add(a: int, b: int): int {
	return a + b;
}
def main() {
	print(add(1, 2));
	return;
}`)

	out := Disassemble(prog)
	if !strings.Contains(out, "call @add") {
		t.Fatalf("expected a call to @add in disassembly, got:\n%s", out)
	}
	if !strings.Contains(out, "param 0") {
		t.Fatalf("expected a param instruction in disassembly, got:\n%s", out)
	}
}
