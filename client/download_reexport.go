package client

import (
	"github.com/adamwoolhether/pluginfetch/client/download"
)

// -------------------------------------------------------------------------
// Type aliases – re-export user-facing types from [download].
// -------------------------------------------------------------------------

type (
	// DownloadError wraps a sentinel error with additional detail.
	DownloadError = download.Error

	// DownloadOption configures how a body is written to the stage.
	DownloadOption = download.Option
)

// -------------------------------------------------------------------------
// Sentinel errors
// -------------------------------------------------------------------------

var (
	// ErrDownloadCancelled indicates the copy was cancelled via context.
	ErrDownloadCancelled = download.ErrDownloadCancelled

	// ErrNoFileName indicates the URL path has no final segment to name the file.
	ErrNoFileName = download.ErrNoFileName

	// ErrLockFailed indicates the per-URL lock could not be acquired.
	ErrLockFailed = download.ErrLockFailed
)

// -------------------------------------------------------------------------
// Download option forwarding functions
// -------------------------------------------------------------------------

// WithProgress enables periodic download progress logging.
func WithProgress() DownloadOption { return download.WithProgress() }

// WithRemovePartial deletes the temp file when copying the body fails.
func WithRemovePartial() DownloadOption { return download.WithRemovePartial() }

// WithBufferSize sets the copy chunk size.
func WithBufferSize(n int) DownloadOption { return download.WithBufferSize(n) }
