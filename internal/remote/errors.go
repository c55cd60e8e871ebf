package remote

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned by UpdateFields when the document does not exist.
var ErrNotFound = errors.New("document not found")

// ErrUnauthorized is returned by networked adapters when the token is rejected.
var ErrUnauthorized = errors.New("unauthorized")

// WriteError is a failed write, update or delete.
type WriteError struct {
	Op  string
	ID  string
	Err error
}

func (e *WriteError) Error() string {
	if e.ID == "" {
		return fmt.Sprintf("remote %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("remote %s %s: %v", e.Op, e.ID, e.Err)
}

func (e *WriteError) Unwrap() error { return e.Err }

// ReadError is a failed read or subscription.
type ReadError struct {
	Op  string
	Err error
}

func (e *ReadError) Error() string { return fmt.Sprintf("remote %s: %v", e.Op, e.Err) }

func (e *ReadError) Unwrap() error { return e.Err }

// IsWriteFailure reports whether err is, or wraps, a WriteError.
func IsWriteFailure(err error) bool {
	var we *WriteError
	return errors.As(err, &we)
}

// IsReadFailure reports whether err is, or wraps, a ReadError.
func IsReadFailure(err error) bool {
	var re *ReadError
	return errors.As(err, &re)
}

// Write operation names used in WriteError.Op.
const (
	OpWrite           = "write"
	OpUpdate          = "update"
	OpDelete          = "delete"
	OpWriteCategories = "write_categories"
	OpBatch           = "batch"
	OpRead            = "read"
	OpReadCategories  = "read_categories"
	OpSubscribe       = "subscribe"
)
