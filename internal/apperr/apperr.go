package apperr

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
)

// Error codes surfaced to handlers. Store-level unique violations are
// translated into domain outcomes before they ever reach this layer; the
// codes here are the ones callers are expected to branch on.
const (
	CodeInvalidArgument = "INVALID_ARGUMENT"
	CodeNotFound        = "NOT_FOUND"
	CodeAlreadyResolved = "ALREADY_RESOLVED"
	CodeConflict        = "CONFLICT"
	CodeUnavailable     = "UNAVAILABLE"
)

type Error struct {
	Code    string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func New(code, msg string) *Error {
	return &Error{Code: code, Message: msg}
}

func Wrap(code, msg string, err error) *Error {
	return &Error{Code: code, Message: msg, Err: err}
}

func InvalidArgument(msg string) *Error {
	return New(CodeInvalidArgument, msg)
}

func NotFound(msg string) *Error {
	return New(CodeNotFound, msg)
}

func AlreadyResolved(msg string) *Error {
	return New(CodeAlreadyResolved, msg)
}

func Conflict(msg string) *Error {
	return New(CodeConflict, msg)
}

func Unavailable(msg string, err error) *Error {
	return Wrap(CodeUnavailable, msg, err)
}

// CodeOf extracts the domain code from an error chain, defaulting to
// UNAVAILABLE for anything the engine did not classify.
func CodeOf(err error) string {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Code
	}
	return CodeUnavailable
}

func Is(err error, code string) bool {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Code == code
	}
	return false
}

const pgUniqueViolation = "23505"

// IsUniqueViolation reports whether err is a postgres unique-constraint
// violation. Races on the pending-suggestion and active-edge partial
// indexes are resolved by catching this and falling back to the
// fold-in/merge path.
func IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}
