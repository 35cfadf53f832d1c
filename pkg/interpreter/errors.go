package interpreter

import (
	"errors"
	"fmt"
)

var (
	ErrUndefinedSymbol = errors.New("undefined symbol")
	ErrLoopLimit       = errors.New("loop iteration limit exceeded")
)

// RuntimeError is raised by evaluation itself, as opposed to value errors
// such as division by zero, which pass through from the runtime package.
type RuntimeError struct {
	Line    int
	Message string
	Err     error
}

func (e *RuntimeError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("line %d: %s", e.Line, e.Message)
	}
	return e.Message
}

func (e *RuntimeError) Unwrap() error { return e.Err }

func undefinedSymbol(name string, line int) error {
	return &RuntimeError{
		Line:    line,
		Message: fmt.Sprintf("Symbol %s not defined", name),
		Err:     ErrUndefinedSymbol,
	}
}
