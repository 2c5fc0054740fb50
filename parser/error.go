package parser

import "fmt"

// SyntaxError reports a single unparseable construct. The parser never
// attempts error recovery: the first syntax error aborts
// parsing and is returned to the caller.
type SyntaxError struct {
	Line    int32
	Message string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("💥 BX syntax error: line %d - %s", e.Line, e.Message)
}

func newSyntaxError(line int32, format string, args ...any) *SyntaxError {
	return &SyntaxError{Line: line, Message: fmt.Sprintf(format, args...)}
}
