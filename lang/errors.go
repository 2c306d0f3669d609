package lang

import (
	"fmt"

	"github.com/pkg/errors"
)

// UnsupportedOperandError is returned, or panicked with, when an operation is
// handed a value it cannot classify: a complex number where a numeric category
// is needed, or an unhashable value used as a key.
type UnsupportedOperandError struct {
	Op      string
	Operand interface{}
}

func (e *UnsupportedOperandError) Error() string {
	return fmt.Sprintf("%s: unsupported operand of type %T", e.Op, e.Operand)
}

func unsupported(op string, x interface{}) error {
	return errors.WithStack(&UnsupportedOperandError{Op: op, Operand: x})
}
