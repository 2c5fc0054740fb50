package ast

// Type is a BX value type. Type equality is nominal and simple: there are
// exactly three types, and two types are equal iff they are the same
// constant.
type Type int

const (
	// TyUnresolved marks an expression whose type has not yet been filled
	// in by the checker. It never appears in a successfully checked AST.
	TyUnresolved Type = iota
	TyInt
	TyBool
	TyVoid
)

func (t Type) String() string {
	switch t {
	case TyInt:
		return "int"
	case TyBool:
		return "bool"
	case TyVoid:
		return "void"
	default:
		return "<unresolved>"
	}
}
