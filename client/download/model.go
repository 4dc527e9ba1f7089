package download

import (
	"errors"
	"fmt"
)

var (
	// ErrDownloadCancelled indicates the copy was interrupted by the context.
	ErrDownloadCancelled = errors.New("download cancelled")
	// ErrNoFileName indicates the URL path has no usable final segment.
	ErrNoFileName = errors.New("url path has no file name")
	// ErrLockFailed indicates the per-URL lock could not be acquired.
	ErrLockFailed = errors.New("acquiring download lock")
)

// Error wraps a sentinel error with additional detail.
type Error struct {
	Detail string
	Err    error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%v: %s", e.Err, e.Detail)
}

func (e *Error) Unwrap() error {
	return e.Err
}
