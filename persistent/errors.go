package persistent

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	// ErrTransientReused is panicked with when a transient is used after
	// Persistent has been called on it.
	ErrTransientReused = errors.New("transient used after persistent call")

	// ErrPopEmpty is panicked with when popping an empty vector.
	ErrPopEmpty = errors.New("can't pop empty vector")

	// ErrOddKeyValues is returned when a map constructor gets a key without
	// a value.
	ErrOddKeyValues = errors.New("no value supplied for key")
)

// DuplicateKeyError is returned by the strict constructors at the first key
// (or set element) that appears twice.
type DuplicateKeyError struct {
	Key interface{}
}

func (e *DuplicateKeyError) Error() string {
	return fmt.Sprintf("duplicate key: %v", e.Key)
}

// IndexOutOfBoundsError is panicked with by vector accesses and updates outside
// of [0, Count).
type IndexOutOfBoundsError struct {
	Index int
	Count int
}

func (e *IndexOutOfBoundsError) Error() string {
	return fmt.Sprintf("index out of bounds: %d (count %d)", e.Index, e.Count)
}

func outOfBounds(i, count int) error {
	return errors.WithStack(&IndexOutOfBoundsError{Index: i, Count: count})
}

func duplicateKey(k interface{}) error {
	return errors.WithStack(&DuplicateKeyError{Key: k})
}
