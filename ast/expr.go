// expr.go contains all expression AST nodes. An expression always
// evaluates to a value; every node here implements Expression and, after
// a successful type-check, carries a resolved Type.
//
// Nodes are pointers rather than values so the checker can annotate a
// node's type in place instead of rebuilding the tree.
package ast

// ExpressionVisitor is implemented by anything that operates over
// expression nodes: the type checker, the TAC generator, a printer.
type ExpressionVisitor interface {
	VisitNumber(n *Number) any
	VisitBool(b *Bool) any
	VisitVar(v *Var) any
	VisitOpApp(o *OpApp) any
	VisitCall(c *Call) any
}

// Expression is the base interface for all expression AST nodes.
type Expression interface {
	Accept(v ExpressionVisitor) any
	SourceLine() int32
	ResolvedType() Type
}

// Number is an integer literal: literals are non-negative and strictly
// less than 2**63.
type Number struct {
	Value int64
	Line  int32
	Ty    Type
}

func (n *Number) Accept(v ExpressionVisitor) any { return v.VisitNumber(n) }
func (n *Number) SourceLine() int32              { return n.Line }
func (n *Number) ResolvedType() Type             { return TyInt }

// Bool is a boolean literal (true or false).
type Bool struct {
	Value bool
	Line  int32
	Ty    Type
}

func (b *Bool) Accept(v ExpressionVisitor) any { return v.VisitBool(b) }
func (b *Bool) SourceLine() int32              { return b.Line }
func (b *Bool) ResolvedType() Type             { return TyBool }

// Var is a reference to a declared variable. Ty is filled in by the
// checker once the name is resolved against the scope stack.
type Var struct {
	Name string
	Line int32
	Ty   Type
}

func (v *Var) Accept(vis ExpressionVisitor) any { return vis.VisitVar(v) }
func (v *Var) SourceLine() int32                { return v.Line }
func (v *Var) ResolvedType() Type               { return v.Ty }

// OpApp applies an operator to one or two argument expressions. Ty is
// filled in by the checker.
type OpApp struct {
	Op   Operator
	Args []Expression
	Line int32
	Ty   Type
}

func (o *OpApp) Accept(v ExpressionVisitor) any { return v.VisitOpApp(o) }
func (o *OpApp) SourceLine() int32              { return o.Line }
func (o *OpApp) ResolvedType() Type             { return o.Ty }

// Call invokes a named procedure with the given argument expressions.
// Ty becomes the callee's return type once resolved; it may be Void.
type Call struct {
	Callee string
	Args   []Expression
	Line   int32
	Ty     Type
}

func (c *Call) Accept(v ExpressionVisitor) any { return v.VisitCall(c) }
func (c *Call) SourceLine() int32              { return c.Line }
func (c *Call) ResolvedType() Type             { return c.Ty }
