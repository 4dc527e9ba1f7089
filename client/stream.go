package client

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
)

// DefaultStreamAttempts is how many times the response stream is
// requested before the download fails.
const DefaultStreamAttempts = 3

// maxDiscardSize caps how much of an unused body is drained so the
// connection can be reused.
const maxDiscardSize = 4 << 10 // 4KB

// StreamOpener obtains the readable body of an already received response.
// It may be called more than once for the same response; attempts are
// made back to back with no delay.
type StreamOpener func(resp *http.Response) (io.ReadCloser, error)

// DefaultStreamOpener returns resp.Body. Error statuses (4xx and 5xx)
// have no readable artifact and fail with an [UnexpectedStatusError].
func DefaultStreamOpener(resp *http.Response) (io.ReadCloser, error) {
	if resp.StatusCode >= http.StatusBadRequest {
		return nil, &UnexpectedStatusError{
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			Err:        ErrUnexpectedStatusCode,
		}
	}

	if resp.Body == nil {
		return nil, errors.New("response has no body")
	}

	return resp.Body, nil
}

// acquireStream calls the opener up to c.attempts times, logging each
// failure, and returns the last error if none succeeded.
func (c *Client) acquireStream(resp *http.Response, logger *slog.Logger) (io.ReadCloser, error) {
	var lastErr error
	for attempt := 1; attempt <= c.attempts; attempt++ {
		stream, err := c.opener(resp)
		if err == nil && stream == nil {
			err = errors.New("stream opener returned no stream")
		}
		if err == nil {
			return stream, nil
		}

		lastErr = err
		logger.Error("acquiring response stream", "attempt", attempt, "max_attempts", c.attempts, "error", err)
	}

	return nil, lastErr
}
