package sema

import "bx/ast"

// Builtin callee names that print(...) is retargeted to once the
// argument's type is known.
const (
	BuiltinPrintInt  = "__bx_print_int"
	BuiltinPrintBool = "__bx_print_bool"
)

// ProcSig is a procedure's call signature: its ordered parameter types
// and its return type.
type ProcSig struct {
	Params []ast.Type
	Return ast.Type
}

// scope maps a name to its type within one lexical level, alongside the
// line it was first bound at (for "earlier declaration of X" notes and
// redeclaration errors).
type scope struct {
	types map[string]ast.Type
	lines map[string]int32
}

func newScope() *scope {
	return &scope{types: map[string]ast.Type{}, lines: map[string]int32{}}
}

// Checker carries the two-phase checker's whole-program state: the
// global scope (variables and procedure signatures) and, while checking
// one procedure's body, a stack of local scopes plus loop-nesting depth
// for break/continue validation.
type Checker struct {
	globals     *scope
	procs       map[string]ProcSig
	procLines   map[string]int32
	scopes      []*scope
	currentProc *ast.ProcDecl
	loopDepth   int
}

// Check runs BX's two-phase semantic analysis over prog, mutating its
// AST in place (filling resolved types, retargeting print calls,
// synthesizing missing void returns) and returning the first error
// encountered, or nil if the program is well-formed.
func Check(prog *ast.Program) error {
	return check(prog, true)
}

// CheckFragment runs the same two-phase analysis as Check but without
// requiring a "main" declaration, for use against the single-declaration
// fragments the REPL feeds it one line at a time.
func CheckFragment(prog *ast.Program) error {
	return check(prog, false)
}

func check(prog *ast.Program, requireMain bool) (err error) {
	c := &Checker{
		globals:   newScope(),
		procs:     map[string]ProcSig{},
		procLines: map[string]int32{},
	}
	defer func() {
		if r := recover(); r != nil {
			if asErr, ok := r.(error); ok {
				err = asErr
				return
			}
			panic(r)
		}
	}()
	c.checkGlobals(prog, requireMain)
	c.checkProcBodies(prog)
	return nil
}

// checkGlobals is phase 1: it walks top-level
// declarations, populating the global scope and the procedure-signature
// table, and verifies every global VarInit is a literal of the declared
// type. When requireMain is set it also requires a parameterless,
// Void-returning "main" (the REPL's fragment checking skips this, since
// a fragment is rarely a whole program).
func (c *Checker) checkGlobals(prog *ast.Program, requireMain bool) {
	for _, decl := range prog.Decls {
		switch d := decl.(type) {
		case *ast.VarDecl:
			for _, init := range d.Inits {
				c.declareGlobal(init.Name, d.Type, init.Line)
				c.checkGlobalInitializer(init, d.Type)
			}
		case *ast.ProcDecl:
			c.declareProc(d)
		default:
			panic(&InternalError{Message: "unknown top-level declaration kind"})
		}
	}
	if !requireMain {
		return
	}
	main, ok := c.procs["main"]
	if !ok {
		panic(declErrorf(0, "program must declare a procedure named 'main'"))
	}
	if len(main.Params) != 0 || main.Return != ast.TyVoid {
		panic(declErrorf(c.procLines["main"], "'main' must take no parameters and return void"))
	}
}

func (c *Checker) declareGlobal(name string, ty ast.Type, line int32) {
	if prev, ok := c.globals.lines[name]; ok {
		panic(declErrorf(line, "redeclaration of global '%s' (earlier declaration at line %d)", name, prev))
	}
	if prev, ok := c.procLines[name]; ok {
		panic(declErrorf(line, "'%s' already names a procedure (earlier declaration at line %d)", name, prev))
	}
	c.globals.types[name] = ty
	c.globals.lines[name] = line
}

func (c *Checker) declareProc(d *ast.ProcDecl) {
	if prev, ok := c.procLines[d.Name]; ok {
		panic(declErrorf(d.Line, "redeclaration of procedure '%s' (earlier declaration at line %d)", d.Name, prev))
	}
	if prev, ok := c.globals.lines[d.Name]; ok {
		panic(declErrorf(d.Line, "'%s' already names a global variable (earlier declaration at line %d)", d.Name, prev))
	}
	var params []ast.Type
	for _, group := range d.Params {
		for range group.Names {
			params = append(params, group.Type)
		}
	}
	c.procs[d.Name] = ProcSig{Params: params, Return: d.ReturnType}
	c.procLines[d.Name] = d.Line
}

// checkGlobalInitializer enforces that a global VarInit's RHS is a
// literal matching the declared type: anything else is a
// non-constant global initializer, a DeclarationError.
func (c *Checker) checkGlobalInitializer(init ast.VarInit, declared ast.Type) {
	switch lit := init.Expr.(type) {
	case *ast.Number:
		if declared != ast.TyInt {
			panic(typeErrorf(init.Line, "global '%s' declared as %s but initialized with an int literal", init.Name, declared))
		}
	case *ast.Bool:
		if declared != ast.TyBool {
			panic(typeErrorf(init.Line, "global '%s' declared as %s but initialized with a bool literal", init.Name, declared))
		}
	default:
		_ = lit
		panic(declErrorf(init.Line, "global '%s' must be initialized with a literal", init.Name))
	}
}

// checkProcBodies is phase 2: for each ProcDecl, push a
// scope pre-populated from its parameters and type-check its body.
func (c *Checker) checkProcBodies(prog *ast.Program) {
	for _, decl := range prog.Decls {
		pd, ok := decl.(*ast.ProcDecl)
		if !ok {
			continue
		}
		c.checkProc(pd)
	}
}

func (c *Checker) checkProc(pd *ast.ProcDecl) {
	c.currentProc = pd
	c.loopDepth = 0
	paramScope := newScope()
	for _, group := range pd.Params {
		for _, name := range group.Names {
			if prev, ok := paramScope.lines[name]; ok {
				panic(declErrorf(group.Line, "redeclaration of parameter '%s' (earlier declaration at line %d)", name, prev))
			}
			paramScope.types[name] = group.Type
			paramScope.lines[name] = group.Line
		}
	}
	c.scopes = []*scope{paramScope}

	returns := c.checkBlock(pd.Body)

	if pd.ReturnType == ast.TyVoid {
		if !returns {
			pd.Body.Stmts = append(pd.Body.Stmts, &ast.Return{Expr: nil, Line: pd.Body.SourceLine()})
		}
		return
	}
	if !returns {
		panic(typeErrorf(pd.Line, "procedure '%s' does not return on every control path", pd.Name))
	}
}

// --- scope stack ------------------------------------------------------

func (c *Checker) pushScope() {
	c.scopes = append(c.scopes, newScope())
}

func (c *Checker) popScope() {
	c.scopes = c.scopes[:len(c.scopes)-1]
}

// lookupVar resolves name against the scope stack innermost-first, then
// the globals.
func (c *Checker) lookupVar(name string) (ast.Type, bool) {
	for i := len(c.scopes) - 1; i >= 0; i-- {
		if ty, ok := c.scopes[i].types[name]; ok {
			return ty, true
		}
	}
	if ty, ok := c.globals.types[name]; ok {
		return ty, true
	}
	return ast.TyUnresolved, false
}

func (c *Checker) declareLocal(name string, ty ast.Type, line int32) {
	top := c.scopes[len(c.scopes)-1]
	if prev, ok := top.lines[name]; ok {
		panic(declErrorf(line, "redeclaration of '%s' (earlier declaration at line %d)", name, prev))
	}
	top.types[name] = ty
	top.lines[name] = line
}

// --- statements ---------------------------------------------------------
//
// checkStmt reports whether execution of stmt is guaranteed to reach a
// Return.

func (c *Checker) checkBlock(b *ast.Block) bool {
	c.pushScope()
	defer c.popScope()
	returns := false
	for _, stmt := range b.Stmts {
		if c.checkStmt(stmt) {
			returns = true
		}
	}
	return returns
}

func (c *Checker) checkStmt(stmt ast.Stmt) bool {
	switch s := stmt.(type) {
	case *ast.VarDecl:
		for _, init := range s.Inits {
			ty := c.checkExpr(init.Expr)
			if ty != s.Type {
				panic(typeErrorf(init.Line, "variable '%s' declared as %s but initialized with %s", init.Name, s.Type, ty))
			}
			c.declareLocal(init.Name, s.Type, init.Line)
		}
		return false
	case *ast.Assign:
		ty, ok := c.lookupVar(s.Name)
		if !ok {
			panic(declErrorf(s.Line, "undeclared variable '%s'", s.Name))
		}
		rhs := c.checkExpr(s.Expr)
		if rhs != ty {
			panic(typeErrorf(s.Line, "cannot assign %s to '%s' of type %s", rhs, s.Name, ty))
		}
		return false
	case *ast.Eval:
		c.checkExpr(s.Expr)
		return false
	case *ast.IfElse:
		cond := c.checkExpr(s.Condition)
		if cond != ast.TyBool {
			panic(typeErrorf(s.Line, "if condition must be bool, got %s", cond))
		}
		thenReturns := c.checkBlock(s.Then)
		if s.Else == nil {
			return false
		}
		elseReturns := c.checkStmt(s.Else)
		return thenReturns && elseReturns
	case *ast.While:
		cond := c.checkExpr(s.Condition)
		if cond != ast.TyBool {
			panic(typeErrorf(s.Line, "while condition must be bool, got %s", cond))
		}
		c.loopDepth++
		c.checkBlock(s.Body)
		c.loopDepth--
		return false
	case *ast.Jump:
		if c.loopDepth == 0 {
			panic(typeErrorf(s.Line, "'%s' outside any while loop", s.Kind))
		}
		return false
	case *ast.Return:
		return c.checkReturn(s)
	case *ast.Block:
		return c.checkBlock(s)
	default:
		panic(&InternalError{Message: "unknown statement kind in checker"})
	}
}

func (c *Checker) checkReturn(r *ast.Return) bool {
	want := c.currentProc.ReturnType
	if r.Expr == nil {
		if want != ast.TyVoid {
			panic(typeErrorf(r.Line, "bare return in procedure '%s' returning %s", c.currentProc.Name, want))
		}
		return true
	}
	got := c.checkExpr(r.Expr)
	if got != want {
		panic(typeErrorf(r.Line, "return type %s does not match procedure '%s' returning %s", got, c.currentProc.Name, want))
	}
	return true
}

// --- expressions ---------------------------------------------------------

func (c *Checker) checkExpr(e ast.Expression) ast.Type {
	switch expr := e.(type) {
	case *ast.Number:
		return ast.TyInt
	case *ast.Bool:
		return ast.TyBool
	case *ast.Var:
		ty, ok := c.lookupVar(expr.Name)
		if !ok {
			panic(declErrorf(expr.Line, "undeclared variable '%s'", expr.Name))
		}
		expr.Ty = ty
		return ty
	case *ast.OpApp:
		return c.checkOpApp(expr)
	case *ast.Call:
		return c.checkCall(expr)
	default:
		panic(&InternalError{Message: "unknown expression kind in checker"})
	}
}

func (c *Checker) checkOpApp(o *ast.OpApp) ast.Type {
	switch o.Op {
	case ast.PLUS, ast.MINUS, ast.TIMES, ast.DIV, ast.MODULUS,
		ast.BITAND, ast.BITOR, ast.BITXOR, ast.BITSHL, ast.BITSHR:
		c.requireArgTypes(o, 2, ast.TyInt)
		o.Ty = ast.TyInt
	case ast.UMINUS, ast.BITCOMPL:
		c.requireArgTypes(o, 1, ast.TyInt)
		o.Ty = ast.TyInt
	case ast.EQUALITY, ast.DISEQUALITY, ast.LT, ast.LEQ, ast.GT, ast.GEQ:
		c.requireArgTypes(o, 2, ast.TyInt)
		o.Ty = ast.TyBool
	case ast.BOOLAND, ast.BOOLOR:
		c.requireArgTypes(o, 2, ast.TyBool)
		o.Ty = ast.TyBool
	case ast.BOOLNEG:
		c.requireArgTypes(o, 1, ast.TyBool)
		o.Ty = ast.TyBool
	default:
		panic(&InternalError{Message: "unknown operator " + string(o.Op)})
	}
	return o.Ty
}

func (c *Checker) requireArgTypes(o *ast.OpApp, arity int, want ast.Type) {
	if len(o.Args) != arity {
		panic(&InternalError{Message: "operator " + string(o.Op) + " has wrong arity"})
	}
	for _, arg := range o.Args {
		got := c.checkExpr(arg)
		if got != want {
			panic(typeErrorf(o.Line, "operator %s requires %s operands, got %s", o.Op, want, got))
		}
	}
}

// checkCall handles both print(...) retargeting and ordinary procedure
// calls.
func (c *Checker) checkCall(call *ast.Call) ast.Type {
	if call.Callee == "print" {
		if len(call.Args) != 1 {
			panic(typeErrorf(call.Line, "print takes exactly one argument, got %d", len(call.Args)))
		}
		argTy := c.checkExpr(call.Args[0])
		switch argTy {
		case ast.TyInt:
			call.Callee = BuiltinPrintInt
		case ast.TyBool:
			call.Callee = BuiltinPrintBool
		default:
			panic(typeErrorf(call.Line, "print requires an int or bool argument, got %s", argTy))
		}
		call.Ty = ast.TyVoid
		return ast.TyVoid
	}

	sig, ok := c.procs[call.Callee]
	if !ok {
		panic(declErrorf(call.Line, "call to undeclared procedure '%s'", call.Callee))
	}
	if len(call.Args) != len(sig.Params) {
		panic(typeErrorf(call.Line, "'%s' expects %d argument(s), got %d", call.Callee, len(sig.Params), len(call.Args)))
	}
	for i, arg := range call.Args {
		got := c.checkExpr(arg)
		if got != sig.Params[i] {
			panic(typeErrorf(call.Line, "argument %d of '%s' must be %s, got %s", i+1, call.Callee, sig.Params[i], got))
		}
	}
	call.Ty = sig.Return
	return sig.Return
}
