package enumerate

import (
	"errors"
	"fmt"
)

// ErrEmptyInput is returned when enumeration is seeded with no leaves.
var ErrEmptyInput = errors.New("enumerate: empty leaf list")

// UndecomposableError reports a node kind inside a join core that leaf
// collection cannot split. It is only returned in strict mode; lenient
// mode logs and skips the node.
type UndecomposableError struct {
	Kind string
}

func (e *UndecomposableError) Error() string {
	return fmt.Sprintf("enumerate: cannot decompose %s inside a join core", e.Kind)
}

// TooManyLeavesError reports a join core whose leaf count exceeds the
// configured maximum.
type TooManyLeavesError struct {
	Leaves int
	Max    int
}

func (e *TooManyLeavesError) Error() string {
	return fmt.Sprintf("enumerate: %d join leaves exceed the maximum of %d (%d candidates)",
		e.Leaves, e.Max, MergeSequenceCount(e.Leaves))
}
