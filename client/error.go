package client

import (
	"errors"
	"fmt"
)

var (
	// ErrMalformedURL indicates the input could not be used as an http(s) URL.
	ErrMalformedURL = errors.New("malformed url")
	// ErrAuthFailure is wrapped by the [ConnectionError] returned for
	// a 401 Unauthorized response.
	ErrAuthFailure = errors.New("auth failure")
	// ErrStreamUnavailable is wrapped by the [ConnectionError] returned
	// once every stream acquisition attempt has failed.
	ErrStreamUnavailable = errors.New("response stream unavailable")
	// ErrUnexpectedStatusCode is the sentinel error wrapped by [UnexpectedStatusError].
	ErrUnexpectedStatusCode = errors.New("unexpected status code")
)

// ConnectionError reports a failure to obtain the remote file. Message
// is the human readable reason, Err carries the sentinel and cause.
type ConnectionError struct {
	Message string
	Err     error
}

func (e *ConnectionError) Error() string {
	return e.Message
}

func (e *ConnectionError) Unwrap() error {
	return e.Err
}

// UnexpectedStatusError is returned by [DefaultStreamOpener] when the
// response status does not carry a readable body.
type UnexpectedStatusError struct {
	StatusCode int
	Status     string
	Err        error
}

func (e *UnexpectedStatusError) Error() string {
	return fmt.Sprintf("%v: %d, status: %s", e.Err, e.StatusCode, e.Status)
}

func (e *UnexpectedStatusError) Unwrap() error {
	return e.Err
}
