package vm

import (
	"fmt"

	"github.com/chazu/treelox/compiler"
)

// RuntimeError aborts the current run. Token locates the construct that
// failed.
type RuntimeError struct {
	Token   compiler.Token
	Message string
}

func (e *RuntimeError) Error() string {
	return fmt.Sprintf("%s\n[line %d]", e.Message, e.Token.Line)
}

// Line returns the 1-based source line of the error.
func (e *RuntimeError) Line() int {
	return e.Token.Line
}

func runtimeErrorf(tok compiler.Token, format string, args ...any) *RuntimeError {
	return &RuntimeError{Token: tok, Message: fmt.Sprintf(format, args...)}
}
