package parser

import (
	"encoding/json"
	"testing"

	"bx/lexer"
)

func TestToJSONProcDeclAndCall(t *testing.T) {
	toks, err := lexer.New(`def main() { print(1 + 2); }`).Scan()
	if err != nil {
		t.Fatalf("lexer error: %v", err)
	}
	prog, err := Parse(toks)
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}

	data, err := ToJSON(prog)
	if err != nil {
		t.Fatalf("ToJSON error: %v", err)
	}

	var decls []map[string]any
	if err := json.Unmarshal(data, &decls); err != nil {
		t.Fatalf("unmarshal json: %v", err)
	}
	if len(decls) != 1 {
		t.Fatalf("expected 1 declaration, got %d", len(decls))
	}
	if decls[0]["type"] != "ProcDecl" || decls[0]["name"] != "main" {
		t.Fatalf("unexpected decl: %+v", decls[0])
	}

	body, ok := decls[0]["body"].(map[string]any)
	if !ok || body["type"] != "Block" {
		t.Fatalf("expected a Block body, got %+v", decls[0]["body"])
	}
	stmts, ok := body["stmts"].([]any)
	if !ok || len(stmts) != 1 {
		t.Fatalf("expected 1 statement, got %+v", body["stmts"])
	}
	eval, ok := stmts[0].(map[string]any)
	if !ok || eval["type"] != "Eval" {
		t.Fatalf("expected an Eval statement, got %+v", stmts[0])
	}
	call, ok := eval["expr"].(map[string]any)
	if !ok || call["type"] != "Call" || call["callee"] != "print" {
		t.Fatalf("expected a call to print (pre-typecheck), got %+v", eval["expr"])
	}
}

func TestToJSONVarDeclTopLevel(t *testing.T) {
	toks, err := lexer.New(`var x = 42 : int;
def main() { }`).Scan()
	if err != nil {
		t.Fatalf("lexer error: %v", err)
	}
	prog, err := Parse(toks)
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}

	data, err := ToJSON(prog)
	if err != nil {
		t.Fatalf("ToJSON error: %v", err)
	}
	var decls []map[string]any
	if err := json.Unmarshal(data, &decls); err != nil {
		t.Fatalf("unmarshal json: %v", err)
	}
	if decls[0]["type"] != "VarDecl" || decls[0]["declType"] != "int" {
		t.Fatalf("unexpected decl: %+v", decls[0])
	}
}
