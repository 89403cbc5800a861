package service

import (
	"errors"
)

var (
	ErrUnauthorized = errors.New("unauthorized")
	ErrInvalid      = errors.New("invalid request")
	ErrNotFound     = errors.New("not found")
)

// userError carries a message that is safe to show to the caller.
type userError struct {
	kind error
	msg  string
}

func (e *userError) Error() string { return e.msg }

func (e *userError) Unwrap() error { return e.kind }

func invalid(msg string) error  { return &userError{kind: ErrInvalid, msg: msg} }
func notFound(msg string) error { return &userError{kind: ErrNotFound, msg: msg} }

// Message returns the caller-facing text for err, or "" when err carries
// none and should be reported as an internal error.
func Message(err error) string {
	var ue *userError
	if errors.As(err, &ue) {
		return ue.msg
	}
	if errors.Is(err, ErrUnauthorized) {
		return "Unauthorized"
	}
	return ""
}
