package usecase

import (
	"errors"
	"fmt"
)

// Error kinds. Match them with errors.Is.
var (
	ErrValidation  = errors.New("validation error")
	ErrNotFound    = errors.New("not found")
	ErrTransaction = errors.New("transaction error")
	ErrForbidden   = errors.New("forbidden")
	ErrDuplicate   = errors.New("duplicate request")
)

// Error carries a kind, the failing operation and a message safe to show to
// the caller. Err is the underlying cause, if any.
type Error struct {
	Kind error
	Op   string
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	switch {
	case e.Msg != "":
		return e.Msg
	case e.Err != nil:
		return e.Err.Error()
	default:
		return e.Kind.Error()
	}
}

func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

func Validation(op, format string, args ...any) *Error {
	return &Error{Kind: ErrValidation, Op: op, Msg: fmt.Sprintf(format, args...)}
}

func NotFound(op, msg string) *Error {
	return &Error{Kind: ErrNotFound, Op: op, Msg: msg}
}

func Forbidden(op, msg string) *Error {
	return &Error{Kind: ErrForbidden, Op: op, Msg: msg}
}

// Transaction wraps a persistence failure that caused a rollback.
func Transaction(op string, err error) *Error {
	return &Error{Kind: ErrTransaction, Op: op, Err: err}
}

// Internal wraps an unexpected failure outside a transaction.
func Internal(op string, err error) error {
	return fmt.Errorf("%s: %w", op, err)
}
