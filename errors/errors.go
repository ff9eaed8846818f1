// Package errors provides the error constructors shared by the bucket
// packages. It re-exports the standard helpers so callers need only one
// import.
package errors

import (
	"errors"
)

var (
	As     = errors.As
	Is     = errors.Is
	New    = errors.New
	Msg    = errors.New
	Unwrap = errors.Unwrap
)

var (
	ErrUnimplemented = Msg("unimplemented")
	ErrNotFound      = Msg("not found")
)

type Unwrappable interface {
	error
	Unwrap() error
}

// Wrap prefixes causeErr with contextMessage. The result unwraps to
// causeErr.
func Wrap(contextMessage string, causeErr error) error {
	return &wrapError{msg: contextMessage, err: causeErr}
}

type wrapError struct {
	msg string
	err error
}

var _ Unwrappable = &wrapError{}

func (e *wrapError) Error() string {
	switch {
	case e.err == nil:
		return e.msg
	case e.msg == "":
		return e.err.Error()
	}
	return e.msg + ": " + e.err.Error()
}

func (e *wrapError) Unwrap() error { return e.err }
