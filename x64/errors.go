package x64

import "fmt"

// InternalError marks an invariant violation in the TAC being lowered
// that valid compiler output can never trigger: an unknown opcode, a
// missing destination, or a phi instruction that should have been
// removed by SSA deconstruction before reaching this stage.
type InternalError struct {
	Message string
}

func (e *InternalError) Error() string {
	return fmt.Sprintf("💥 BX internal error (x64): %s", e.Message)
}
