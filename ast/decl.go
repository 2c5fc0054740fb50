package ast

// Decl is the base interface for top-level declarations: global variable
// declarations and procedure declarations.
type Decl interface {
	declNode()
	SourceLine() int32
}

// Param groups one or more parameter names under a shared type, mirroring
// BX's grammar for parameter lists ("a, b: int").
type Param struct {
	Names []string
	Type  Type
	Line  int32
}

// ProcDecl declares a procedure: its name, parameters, return type, and
// body block.
type ProcDecl struct {
	Name       string
	Params     []Param
	ReturnType Type
	Body       *Block
	Line       int32
}

func (p *ProcDecl) declNode()        {}
func (p *ProcDecl) SourceLine() int32 { return p.Line }

// Program is the root AST node: an ordered list of declarations. Exactly
// one declaration named "main" must exist, with no parameters and return
// type Void.
type Program struct {
	Decls []Decl
}
