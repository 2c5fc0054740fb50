package parser

import (
	"encoding/json"
	"os"

	"bx/ast"
)

// astPrinter builds a JSON-friendly map/slice shadow of the AST using
// the same visitor dispatch as the rest of the package. BX's
// declarations (Program, VarDecl-as-top-level-decl, ProcDecl) sit above
// what ast.ExpressionVisitor/ast.StmtVisitor cover, so visitDecl
// switches over them directly instead of through a third visitor
// interface.
type astPrinter struct{}

func (p astPrinter) VisitNumber(n *ast.Number) any {
	return map[string]any{"type": "Number", "value": n.Value}
}

func (p astPrinter) VisitBool(b *ast.Bool) any {
	return map[string]any{"type": "Bool", "value": b.Value}
}

func (p astPrinter) VisitVar(v *ast.Var) any {
	return map[string]any{"type": "Var", "name": v.Name}
}

func (p astPrinter) VisitOpApp(o *ast.OpApp) any {
	args := make([]any, len(o.Args))
	for i, a := range o.Args {
		args[i] = a.Accept(p)
	}
	return map[string]any{"type": "OpApp", "op": string(o.Op), "args": args}
}

func (p astPrinter) VisitCall(c *ast.Call) any {
	args := make([]any, len(c.Args))
	for i, a := range c.Args {
		args[i] = a.Accept(p)
	}
	return map[string]any{"type": "Call", "callee": c.Callee, "args": args}
}

func (p astPrinter) VisitVarDecl(d *ast.VarDecl) any {
	inits := make([]any, len(d.Inits))
	for i, init := range d.Inits {
		inits[i] = map[string]any{"name": init.Name, "expr": init.Expr.Accept(p)}
	}
	return map[string]any{"type": "VarDecl", "declType": d.Type.String(), "inits": inits}
}

func (p astPrinter) VisitAssign(a *ast.Assign) any {
	return map[string]any{"type": "Assign", "name": a.Name, "expr": a.Expr.Accept(p)}
}

func (p astPrinter) VisitEval(e *ast.Eval) any {
	return map[string]any{"type": "Eval", "expr": e.Expr.Accept(p)}
}

func (p astPrinter) VisitIfElse(i *ast.IfElse) any {
	var elseVal any
	if i.Else != nil {
		elseVal = i.Else.Accept(p)
	}
	return map[string]any{
		"type": "IfElse",
		"cond": i.Condition.Accept(p),
		"then": i.Then.Accept(p),
		"else": elseVal,
	}
}

func (p astPrinter) VisitWhile(w *ast.While) any {
	return map[string]any{"type": "While", "cond": w.Condition.Accept(p), "body": w.Body.Accept(p)}
}

func (p astPrinter) VisitJump(j *ast.Jump) any {
	return map[string]any{"type": "Jump", "kind": j.Kind.String()}
}

func (p astPrinter) VisitReturn(r *ast.Return) any {
	var exprVal any
	if r.Expr != nil {
		exprVal = r.Expr.Accept(p)
	}
	return map[string]any{"type": "Return", "expr": exprVal}
}

func (p astPrinter) VisitBlock(b *ast.Block) any {
	stmts := make([]any, len(b.Stmts))
	for i, s := range b.Stmts {
		stmts[i] = s.Accept(p)
	}
	return map[string]any{"type": "Block", "stmts": stmts}
}

func (p astPrinter) visitDecl(d ast.Decl) any {
	switch decl := d.(type) {
	case *ast.VarDecl:
		return decl.Accept(p)
	case *ast.ProcDecl:
		params := make([]any, len(decl.Params))
		for i, group := range decl.Params {
			params[i] = map[string]any{"names": group.Names, "type": group.Type.String()}
		}
		return map[string]any{
			"type":   "ProcDecl",
			"name":   decl.Name,
			"params": params,
			"return": decl.ReturnType.String(),
			"body":   decl.Body.Accept(p),
		}
	default:
		return map[string]any{"type": "unknown"}
	}
}

// ToJSON renders prog as a pretty-printable JSON mirror of the AST,
// built by walking the visitor into map[string]any rather than relying
// on struct tags on the AST itself.
func ToJSON(prog *ast.Program) ([]byte, error) {
	p := astPrinter{}
	decls := make([]any, len(prog.Decls))
	for i, d := range prog.Decls {
		decls[i] = p.visitDecl(d)
	}
	return json.MarshalIndent(decls, "", "  ")
}

// WriteJSONFile writes prog's JSON AST dump to path.
func WriteJSONFile(prog *ast.Program, path string) error {
	data, err := ToJSON(prog)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
