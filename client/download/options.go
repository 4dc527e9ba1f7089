package download

import (
	"errors"
)

// DefaultBufferSize is the chunk size used when copying a body to disk.
const DefaultBufferSize = 1024

// Option defines optional settings for writing a download to the stage.
//
// WithProgress enables periodic progress logging via the stage's logger.
//
// WithRemovePartial deletes the temp file when the copy fails. Without it
// a failed copy leaves the partial temp file in place.
//
// WithBufferSize overrides [DefaultBufferSize].
type Option func(*options) error

type options struct {
	progress      bool
	removePartial bool
	bufferSize    int
}

func WithProgress() Option {
	return func(opts *options) error {
		opts.progress = true
		return nil
	}
}

func WithRemovePartial() Option {
	return func(opts *options) error {
		opts.removePartial = true
		return nil
	}
}

func WithBufferSize(n int) Option {
	return func(opts *options) error {
		if n <= 0 {
			return errors.New("buffer size must be greater than zero")
		}

		opts.bufferSize = n
		return nil
	}
}

func applyOptions(optFns []Option) (options, error) {
	opts := options{bufferSize: DefaultBufferSize}
	for _, opt := range optFns {
		if err := opt(&opts); err != nil {
			return options{}, err
		}
	}

	return opts, nil
}
