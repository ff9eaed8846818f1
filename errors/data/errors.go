// Package data holds the errors about the content a caller sent, as
// opposed to the arguments of a call.
package data

import (
	"github.com/timemore/bucket/errors"
)

type Error interface {
	error
	DataError() Error
}

// IsDataError reports whether err is, or wraps, a data Error.
func IsDataError(err error) bool {
	var d Error
	return errors.As(err, &d)
}

type wrappingError struct {
	err error
}

func (e *wrappingError) Error() string    { return e.err.Error() }
func (e *wrappingError) Unwrap() error    { return e.err }
func (e *wrappingError) DataError() Error { return e }

var _ Error = &wrappingError{}

func Err(err error) error { return &wrappingError{err} }

type msgError struct {
	msg string
}

func (e *msgError) Error() string    { return e.msg }
func (e *msgError) DataError() Error { return e }

var _ Error = &msgError{}

type malformedError struct {
	err error
}

func (e *malformedError) DataError() Error { return e }
func (e *malformedError) Unwrap() error    { return e.err }

var _ Error = &malformedError{}

func (e *malformedError) Error() string {
	if e.err != nil {
		return "malformed: " + e.err.Error()
	}
	return "malformed"
}

func Malformed(err error) error {
	return &malformedError{err}
}

var (
	ErrEmpty           = &msgError{"empty"}
	ErrMalformed       = Malformed(nil)
	ErrTypeUnsupported = &msgError{"type unsupported"}
)
