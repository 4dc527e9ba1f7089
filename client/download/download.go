package download

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofrs/flock"
)

const (
	tempSuffix = ".tmp"
	lockSuffix = ".lock"

	lockRetryDelay = 50 * time.Millisecond
)

// Stage is a staging directory that downloads are written to and
// published in. Both the temp file and the final file live directly
// inside the directory, so publishing is a same-directory rename.
type Stage struct {
	dir    string
	logger *slog.Logger
}

// NewStage returns a Stage rooted at dir. The directory is not created
// until [Stage.Ensure] is called.
func NewStage(dir string, logger *slog.Logger) (*Stage, error) {
	if dir == "" {
		return nil, errors.New("stage dir must not be empty")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &Stage{dir: dir, logger: logger}, nil
}

// WithLogger returns a copy of s that logs to logger.
func (s *Stage) WithLogger(logger *slog.Logger) *Stage {
	cpy := *s
	cpy.logger = logger
	return &cpy
}

// Dir returns the staging directory path.
func (s *Stage) Dir() string {
	return s.dir
}

// Ensure creates the staging directory and any missing parents.
func (s *Stage) Ensure() error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("creating stage dir: %w", err)
	}

	return nil
}

// TempPath returns the stable temp file path for rawURL.
func (s *Stage) TempPath(rawURL string) string {
	return filepath.Join(s.dir, HashName(rawURL)+tempSuffix)
}

// RemoveStale deletes a leftover file at path. A missing file is not an error.
func (s *Stage) RemoveStale(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("removing stale temp file: %w", err)
	}

	return nil
}

// Lock takes an exclusive file lock scoped to rawURL, blocking until it is
// available or ctx ends. The returned func releases it.
func (s *Stage) Lock(ctx context.Context, rawURL string) (func(), error) {
	path := filepath.Join(s.dir, HashName(rawURL)+lockSuffix)
	fileLock := flock.New(path)

	locked, err := fileLock.TryLockContext(ctx, lockRetryDelay)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLockFailed, err)
	}
	if !locked {
		return nil, &Error{Err: ErrLockFailed, Detail: path}
	}

	unlock := func() {
		if err := fileLock.Unlock(); err != nil {
			s.logger.Error("releasing download lock", "path", path, "error", err)
		}
	}

	return unlock, nil
}

// Write streams body into tmpPath, truncating anything already there.
// size is the expected length, or -1 when unknown, and is only used for
// progress reporting. The file handle is closed on every return path.
//
// A failed copy leaves the partial file behind unless WithRemovePartial
// is given.
func (s *Stage) Write(ctx context.Context, body io.Reader, size int64, tmpPath string, optFns ...Option) (int64, error) {
	opts, err := applyOptions(optFns)
	if err != nil {
		return 0, fmt.Errorf("applying option: %w", err)
	}

	file, err := os.Create(tmpPath)
	if err != nil {
		return 0, fmt.Errorf("creating temp file: %w", err)
	}

	var successful bool
	defer func() {
		if err := file.Close(); err != nil && !errors.Is(err, os.ErrClosed) {
			s.logger.Error("defer closing temp file", "path", tmpPath, "error", err)
		}
		if !successful && opts.removePartial {
			if err := os.Remove(tmpPath); err != nil {
				s.logger.Error("removing partial temp file", "path", tmpPath, "error", err)
			}
		}
	}()

	// Hide *os.File's ReadFrom so the copy goes through our buffer.
	var writer io.Writer = struct{ io.Writer }{file}
	if opts.progress {
		writer = &progressWriter{
			w:         writer,
			logger:    s.logger,
			total:     size,
			startTime: time.Now(),
		}
	}

	n, err := io.CopyBuffer(writer, &contextReader{ctx: ctx, r: body}, make([]byte, opts.bufferSize))
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return n, fmt.Errorf("%w: %w", ErrDownloadCancelled, err)
		}

		return n, fmt.Errorf("copying body: %w", err)
	}

	if err := file.Close(); err != nil {
		return n, fmt.Errorf("closing temp file: %w", err)
	}

	successful = true

	return n, nil
}

// Publish moves tmpPath to name inside the stage, replacing any file
// already there, and stamps it with modTime. It returns the final path.
func (s *Stage) Publish(tmpPath, name string, modTime time.Time) (string, error) {
	dest := filepath.Join(s.dir, name)

	_, err := os.Lstat(dest)
	switch {
	case err == nil:
		s.logger.Debug("deleting old file", "path", dest)
		if err := os.Remove(dest); err != nil {
			return "", fmt.Errorf("removing old file: %w", err)
		}
	case !errors.Is(err, fs.ErrNotExist):
		return "", fmt.Errorf("checking old file: %w", err)
	}

	s.logger.Debug("renaming temp file", "from", tmpPath, "to", dest)
	if err := os.Rename(tmpPath, dest); err != nil {
		return "", fmt.Errorf("renaming temp file: %w", err)
	}

	s.logger.Debug("setting last modified", "path", dest, "last_modified", modTime)
	if err := os.Chtimes(dest, modTime, modTime); err != nil {
		return "", fmt.Errorf("setting last modified: %w", err)
	}

	return dest, nil
}

// HashName returns the hex SHA-1 of rawURL. It only gives the temp file
// a stable name and carries no integrity meaning.
func HashName(rawURL string) string {
	sum := sha1.Sum([]byte(rawURL))
	return hex.EncodeToString(sum[:])
}

// FileName returns the part of urlPath after the last '/'. urlPath is
// the escaped form, and the segment is returned without decoding.
func FileName(urlPath string) (string, error) {
	name := urlPath[strings.LastIndex(urlPath, "/")+1:]

	switch name {
	case "", ".", "..":
		return "", &Error{Err: ErrNoFileName, Detail: fmt.Sprintf("path %q", urlPath)}
	}

	return name, nil
}

// contextReader stops a copy once ctx is done.
type contextReader struct {
	ctx context.Context
	r   io.Reader
}

func (cr *contextReader) Read(p []byte) (int, error) {
	if err := cr.ctx.Err(); err != nil {
		return 0, err
	}

	return cr.r.Read(p)
}
