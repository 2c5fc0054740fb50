package tac

import "bx/ast"

// opcodeFor maps an int-valued AST operator to its TAC opcode.
var opcodeFor = map[ast.Operator]Opcode{
	ast.PLUS:    Add,
	ast.MINUS:   Sub,
	ast.TIMES:   Mul,
	ast.DIV:     Div,
	ast.MODULUS: Mod,
	ast.BITAND:  And,
	ast.BITOR:   Or,
	ast.BITXOR:  Xor,
	ast.BITSHL:  Shl,
	ast.BITSHR:  Shr,
	ast.BITCOMPL: Not,
	ast.UMINUS:  Neg,
}

// jumpFor maps a relational AST operator to the conditional jump taken
// when the operator holds, after the operands have been subtracted.
var jumpFor = map[ast.Operator]Opcode{
	ast.EQUALITY:    Je,
	ast.DISEQUALITY: Jne,
	ast.LT:          Jl,
	ast.LEQ:         Jle,
	ast.GT:          Jg,
	ast.GEQ:         Jge,
}

// scope maps a source name to the TAC operand that currently holds its
// value: a temporary, a named parameter, or a global reference.
type scope map[string]Operand

// Generator lowers a type-checked AST into TAC. It
// maintains fresh-temporary and fresh-label counters, a scope stack,
// and break/continue label stacks — all reset per procedure.
type Generator struct {
	scopes   []scope
	temps    int
	labels   int
	breaks   []Operand
	continues []Operand
	instrs   []Instruction
}

// Generate lowers an entire type-checked program to a TAC Program
//. prog must already have passed sema.Check.
func Generate(prog *ast.Program) *Program {
	g := &Generator{}
	global := scope{}
	for _, decl := range prog.Decls {
		switch d := decl.(type) {
		case *ast.VarDecl:
			for _, init := range d.Inits {
				global[init.Name] = GlobalOperand(init.Name)
			}
		case *ast.ProcDecl:
			global[d.Name] = GlobalOperand(d.Name)
		}
	}

	out := &Program{}
	for _, decl := range prog.Decls {
		switch d := decl.(type) {
		case *ast.VarDecl:
			for _, init := range d.Inits {
				out.Decls = append(out.Decls, &GlobalVar{Name: init.Name, Init: literalValue(init.Expr)})
			}
		case *ast.ProcDecl:
			out.Decls = append(out.Decls, g.generateProc(d, global))
		}
	}
	return out
}

func literalValue(e ast.Expression) int64 {
	switch lit := e.(type) {
	case *ast.Number:
		return lit.Value
	case *ast.Bool:
		if lit.Value {
			return 1
		}
		return 0
	default:
		panic("bx/tac: global initializer is not a literal (checker should have rejected this)")
	}
}

func (g *Generator) generateProc(d *ast.ProcDecl, global scope) *Proc {
	g.temps = 0
	g.labels = 0
	g.breaks = nil
	g.continues = nil
	g.instrs = nil

	paramScope := scope{}
	var paramNames []string
	for _, group := range d.Params {
		for _, name := range group.Names {
			paramScope[name] = NamedParamOperand(name)
			paramNames = append(paramNames, name)
		}
	}
	g.scopes = []scope{global, paramScope}

	g.munchBlock(d.Body)

	return &Proc{Name: d.Name, Params: paramNames, Body: g.instrs}
}

// --- fresh names / scopes --------------------------------------------

func (g *Generator) fresh() Operand {
	t := TempOperand(g.temps)
	g.temps++
	return t
}

func (g *Generator) freshLabel() Operand {
	l := LabelOperandOf(g.labels)
	g.labels++
	return l
}

func (g *Generator) emit(i Instruction) {
	g.instrs = append(g.instrs, i)
}

func (g *Generator) pushScope() { g.scopes = append(g.scopes, scope{}) }
func (g *Generator) popScope()  { g.scopes = g.scopes[:len(g.scopes)-1] }

func (g *Generator) bind(name string, op Operand) {
	g.scopes[len(g.scopes)-1][name] = op
}

func (g *Generator) lookup(name string) Operand {
	for i := len(g.scopes) - 1; i >= 0; i-- {
		if op, ok := g.scopes[i][name]; ok {
			return op
		}
	}
	panic("bx/tac: unresolved name '" + name + "' (checker should have rejected this)")
}

// --- expression munch ---------------------------------

// munchExpr emits instructions that compute expr's value into dest.
func (g *Generator) munchExpr(expr ast.Expression, dest Operand) {
	switch e := expr.(type) {
	case *ast.Number:
		g.emit(Instruction{Op: Const, Args: []Operand{ImmOperand(e.Value)}, Dest: &dest})
	case *ast.Bool:
		v := int64(0)
		if e.Value {
			v = 1
		}
		g.emit(Instruction{Op: Const, Args: []Operand{ImmOperand(v)}, Dest: &dest})
	case *ast.Var:
		src := g.lookup(e.Name)
		g.emit(Instruction{Op: Copy, Args: []Operand{src}, Dest: &dest})
	case *ast.OpApp:
		if ast.IsArithmeticOrBitwise(e.Op) {
			g.munchIntOpApp(e, dest)
			return
		}
		g.munchBoolMaterialize(e, dest)
	case *ast.Call:
		g.munchCall(e, &dest)
	default:
		panic("bx/tac: unknown expression kind")
	}
}

func (g *Generator) munchIntOpApp(e *ast.OpApp, dest Operand) {
	args := make([]Operand, len(e.Args))
	for i, a := range e.Args {
		t := g.fresh()
		g.munchExpr(a, t)
		args[i] = t
	}
	g.emit(Instruction{Op: opcodeFor[e.Op], Args: args, Dest: &dest})
}

// munchBoolMaterialize lowers a Bool-valued OpApp into a canonical 0/1
// value in dest.
func (g *Generator) munchBoolMaterialize(e ast.Expression, dest Operand) {
	lt, lf := g.freshLabel(), g.freshLabel()
	g.emit(Instruction{Op: Const, Args: []Operand{ImmOperand(0)}, Dest: &dest})
	g.munchBool(e, lt, lf)
	g.emit(Instruction{Op: Label, Args: []Operand{lt}})
	g.emit(Instruction{Op: Const, Args: []Operand{ImmOperand(1)}, Dest: &dest})
	g.emit(Instruction{Op: Label, Args: []Operand{lf}})
}

// munchCall evaluates each argument into a fresh temporary, stages them
// with param, then emits the call; dest is nil for a void call.
func (g *Generator) munchCall(call *ast.Call, dest *Operand) {
	for i, a := range call.Args {
		t := g.fresh()
		g.munchExpr(a, t)
		g.emit(Instruction{Op: Param, Args: []Operand{ImmOperand(int64(i)), t}})
	}
	g.emit(Instruction{Op: Call, Args: []Operand{GlobalOperand(call.Callee), ImmOperand(int64(len(call.Args)))}, Dest: dest})
}

// munchBool is tmm_bool(expr, Lt, Lf): a short-circuit, label-threading
// lowering that never materializes an intermediate boolean value.
func (g *Generator) munchBool(expr ast.Expression, lt, lf Operand) {
	switch e := expr.(type) {
	case *ast.Bool:
		if e.Value {
			g.emit(Instruction{Op: Jmp, Args: []Operand{lt}})
		} else {
			g.emit(Instruction{Op: Jmp, Args: []Operand{lf}})
		}
	case *ast.Var:
		v := g.lookup(e.Name)
		g.emit(Instruction{Op: Jz, Args: []Operand{v, lf}})
		g.emit(Instruction{Op: Jmp, Args: []Operand{lt}})
	case *ast.OpApp:
		g.munchBoolOpApp(e, lt, lf)
	case *ast.Call:
		t := g.fresh()
		g.munchCall(e, &t)
		g.emit(Instruction{Op: Jz, Args: []Operand{t, lf}})
		g.emit(Instruction{Op: Jmp, Args: []Operand{lt}})
	default:
		panic("bx/tac: unknown boolean expression kind")
	}
}

func (g *Generator) munchBoolOpApp(e *ast.OpApp, lt, lf Operand) {
	switch e.Op {
	case ast.BOOLAND:
		li := g.freshLabel()
		g.munchBool(e.Args[0], li, lf)
		g.emit(Instruction{Op: Label, Args: []Operand{li}})
		g.munchBool(e.Args[1], lt, lf)
	case ast.BOOLOR:
		li := g.freshLabel()
		g.munchBool(e.Args[0], lt, li)
		g.emit(Instruction{Op: Label, Args: []Operand{li}})
		g.munchBool(e.Args[1], lt, lf)
	case ast.BOOLNEG:
		g.munchBool(e.Args[0], lf, lt)
	default:
		if jcc, ok := jumpFor[e.Op]; ok {
			ta, tb := g.fresh(), g.fresh()
			g.munchExpr(e.Args[0], ta)
			g.munchExpr(e.Args[1], tb)
			g.emit(Instruction{Op: Sub, Args: []Operand{ta, tb}, Dest: &ta})
			g.emit(Instruction{Op: jcc, Args: []Operand{ta, lt}})
			g.emit(Instruction{Op: Jmp, Args: []Operand{lf}})
			return
		}
		panic("bx/tac: unknown boolean operator " + string(e.Op))
	}
}

// --- statement munch -----------------------------------

func (g *Generator) munchBlock(b *ast.Block) {
	g.pushScope()
	for _, s := range b.Stmts {
		g.munchStmt(s)
	}
	g.popScope()
}

func (g *Generator) munchStmt(stmt ast.Stmt) {
	switch s := stmt.(type) {
	case *ast.VarDecl:
		for _, init := range s.Inits {
			t := g.fresh()
			g.munchExpr(init.Expr, t)
			g.bind(init.Name, t)
		}
	case *ast.Assign:
		g.munchExpr(s.Expr, g.lookup(s.Name))
	case *ast.Eval:
		g.munchEval(s.Expr)
	case *ast.IfElse:
		g.munchIfElse(s)
	case *ast.While:
		g.munchWhile(s)
	case *ast.Jump:
		g.munchJump(s)
	case *ast.Return:
		g.munchReturn(s)
	case *ast.Block:
		g.munchBlock(s)
	default:
		panic("bx/tac: unknown statement kind")
	}
}

// munchEval evaluates e with no destination, but still emits any
// side-effecting call.
func (g *Generator) munchEval(e ast.Expression) {
	if call, ok := e.(*ast.Call); ok {
		if call.ResolvedType() == ast.TyVoid {
			g.munchCall(call, nil)
			return
		}
		t := g.fresh()
		g.munchCall(call, &t)
		return
	}
	t := g.fresh()
	g.munchExpr(e, t)
}

func (g *Generator) munchIfElse(s *ast.IfElse) {
	lt, lf, lo := g.freshLabel(), g.freshLabel(), g.freshLabel()
	g.munchBool(s.Condition, lt, lf)
	g.emit(Instruction{Op: Label, Args: []Operand{lt}})
	g.munchBlock(s.Then)
	g.emit(Instruction{Op: Jmp, Args: []Operand{lo}})
	g.emit(Instruction{Op: Label, Args: []Operand{lf}})
	if s.Else != nil {
		g.munchStmt(s.Else)
	}
	g.emit(Instruction{Op: Label, Args: []Operand{lo}})
}

func (g *Generator) munchWhile(s *ast.While) {
	lhead, lbody, lend := g.freshLabel(), g.freshLabel(), g.freshLabel()
	g.breaks = append(g.breaks, lend)
	g.continues = append(g.continues, lhead)

	g.emit(Instruction{Op: Label, Args: []Operand{lhead}})
	g.munchBool(s.Condition, lbody, lend)
	g.emit(Instruction{Op: Label, Args: []Operand{lbody}})
	g.munchBlock(s.Body)
	g.emit(Instruction{Op: Jmp, Args: []Operand{lhead}})
	g.emit(Instruction{Op: Label, Args: []Operand{lend}})

	g.breaks = g.breaks[:len(g.breaks)-1]
	g.continues = g.continues[:len(g.continues)-1]
}

func (g *Generator) munchJump(s *ast.Jump) {
	targets := g.continues
	if s.Kind == ast.Break {
		targets = g.breaks
	}
	if len(targets) == 0 {
		panic("bx/tac: empty jump-target stack (checker should have rejected this)")
	}
	g.emit(Instruction{Op: Jmp, Args: []Operand{targets[len(targets)-1]}})
}

func (g *Generator) munchReturn(s *ast.Return) {
	if s.Expr == nil {
		g.emit(Instruction{Op: Ret})
		return
	}
	t := g.fresh()
	g.munchExpr(s.Expr, t)
	g.emit(Instruction{Op: Ret, Args: []Operand{t}})
}
