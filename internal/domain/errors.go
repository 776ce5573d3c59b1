package domain

import (
	"errors"
	"fmt"
)

// Error kinds. Callers match on these with errors.Is; the concrete
// *Error carries the operation and a human-readable message.
var (
	ErrNotFound   = errors.New("not found")
	ErrValidation = errors.New("validation failed")
	ErrConflict   = errors.New("constraint violation")
	ErrTimeout    = errors.New("timed out")
	ErrStorage    = errors.New("storage failure")
)

// Error is the structured failure descriptor every core operation
// returns on the error path. No other error type crosses the
// repository/engine boundary.
type Error struct {
	Op      string // failing operation, e.g. "student.Update"
	Kind    error  // one of the sentinel kinds above
	Message string
	Err     error // underlying cause, optional
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Message)
}

func (e *Error) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return e.Kind
}

func (e *Error) Is(target error) bool {
	if e.Kind != nil && errors.Is(e.Kind, target) {
		return true
	}
	return e.Err != nil && errors.Is(e.Err, target)
}

func NewNotFound(op, msg string) *Error {
	return &Error{Op: op, Kind: ErrNotFound, Message: msg}
}

func NewValidation(op, msg string) *Error {
	return &Error{Op: op, Kind: ErrValidation, Message: msg}
}

func NewConflict(op, msg string) *Error {
	return &Error{Op: op, Kind: ErrConflict, Message: msg}
}

func NewTimeout(op, msg string) *Error {
	return &Error{Op: op, Kind: ErrTimeout, Message: msg}
}

func WrapStorage(op, msg string, err error) *Error {
	return &Error{Op: op, Kind: ErrStorage, Message: msg, Err: err}
}

// Wrap attaches op/kind context to an underlying error. If err is
// already a *Error it is returned unchanged so kinds survive layering.
func Wrap(op string, kind error, msg string, err error) error {
	var de *Error
	if errors.As(err, &de) {
		return err
	}
	return &Error{Op: op, Kind: kind, Message: msg, Err: err}
}
