package bucket

import (
	"github.com/timemore/bucket/errors"
)

// UploadOptions control where and how an object is written. Objects are
// always written public.
type UploadOptions struct {
	// Name replaces the file name taken from the source.
	Name string `schema:"name" json:"name,omitempty"`

	// Overwrite deletes an existing object at the destination first.
	// It wins over Rename.
	Overwrite bool `schema:"overwrite" json:"overwrite,omitempty"`

	// Rename stores the object under "<unix>_<token>_<name>" when the
	// destination is taken.
	Rename bool `schema:"rename" json:"rename,omitempty"`
}

// Result is the outcome of a write. A failed write has Stored false and
// Err set; the same message is recorded in the handle's errors. A stored
// object without a resolvable public URL has an empty URL.
type Result struct {
	Stored bool
	Path   string
	URL    string
	Err    error
}

func (r Result) OK() bool { return r.Stored }

var (
	ErrSourceNotFound    = errors.Msg("source not found")
	ErrSourceUnreadable  = errors.Msg("source unreadable")
	ErrDestinationExists = errors.Msg("destination exists")
	ErrWriteFailed       = errors.Msg("write failed")
)

// OperationError is the failure of a write, keyed by what the caller
// passed in.
type OperationError struct {
	Key  string
	Kind error
	Err  error
}

func (e *OperationError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.Kind.Error()
}

func (e *OperationError) Unwrap() error { return e.Err }

func (e *OperationError) Is(target error) bool { return target == e.Kind }
