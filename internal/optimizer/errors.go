package optimizer

import (
	"errors"
	"fmt"

	"github.com/roach88/tripleopt/internal/enumerate"
	"github.com/roach88/tripleopt/internal/physical"
	"github.com/roach88/tripleopt/internal/selector"
)

// Error is returned by every failing Optimizer operation.
//
// Code classifies the failure; Err keeps the underlying cause for
// errors.Is and errors.As.
type Error struct {
	// Code identifies the error category.
	Code ErrorCode

	// Message is a human-readable description.
	Message string

	// Session identifies the optimization run, when one was started.
	Session string

	Err error
}

// ErrorCode categorizes optimizer errors.
type ErrorCode string

const (
	// ErrCodeInvalidInput indicates an empty plan, an empty join core or
	// too many join leaves.
	ErrCodeInvalidInput ErrorCode = "INVALID_INPUT"

	// ErrCodeUnsupportedOperator indicates a candidate with no physical
	// counterpart.
	ErrCodeUnsupportedOperator ErrorCode = "UNSUPPORTED_OPERATOR"

	// ErrCodeUndecomposable indicates a join core node that strict
	// enumeration refused to split.
	ErrCodeUndecomposable ErrorCode = "UNDECOMPOSABLE"

	// ErrCodeNoCandidates indicates nothing was left to select from.
	ErrCodeNoCandidates ErrorCode = "NO_CANDIDATES"
)

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Session != "" {
		return fmt.Sprintf("%s: %s (session=%s)", e.Code, e.Message, e.Session)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// IsInvalidInput returns true if err is an INVALID_INPUT optimizer error.
// Uses errors.As to handle wrapped errors.
func IsInvalidInput(err error) bool {
	return hasCode(err, ErrCodeInvalidInput)
}

// IsUnsupportedOperator returns true if err is an UNSUPPORTED_OPERATOR
// optimizer error.
func IsUnsupportedOperator(err error) bool {
	return hasCode(err, ErrCodeUnsupportedOperator)
}

// IsUndecomposable returns true if err is an UNDECOMPOSABLE optimizer error.
func IsUndecomposable(err error) bool {
	return hasCode(err, ErrCodeUndecomposable)
}

// IsNoCandidates returns true if err is a NO_CANDIDATES optimizer error.
func IsNoCandidates(err error) bool {
	return hasCode(err, ErrCodeNoCandidates)
}

func hasCode(err error, code ErrorCode) bool {
	var oe *Error
	if errors.As(err, &oe) {
		return oe.Code == code
	}
	return false
}

// classify wraps err from a pipeline stage into an *Error.
func classify(err error, session string) *Error {
	var (
		tooMany *enumerate.TooManyLeavesError
		undec   *enumerate.UndecomposableError
	)
	code := ErrCodeInvalidInput
	switch {
	case errors.Is(err, selector.ErrNoCandidates):
		code = ErrCodeNoCandidates
	case errors.As(err, &undec):
		code = ErrCodeUndecomposable
	case errors.Is(err, physical.ErrUnsupportedOperator):
		code = ErrCodeUnsupportedOperator
	case errors.Is(err, enumerate.ErrEmptyInput), errors.As(err, &tooMany):
		code = ErrCodeInvalidInput
	}
	return &Error{Code: code, Message: err.Error(), Session: session, Err: err}
}
