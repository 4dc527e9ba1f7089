// Package client downloads plugin artifacts over HTTP(S) into a
// local staging directory.
package client

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/adamwoolhether/pluginfetch/client/download"
	"github.com/adamwoolhether/pluginfetch/client/throttle"
)

const tracerName = "github.com/adamwoolhether/pluginfetch/client"

// Client wraps the std-lib *http.Client together with the staging
// directory downloads are published in. A fresh *http.Client is used
// unless one is given, and it can be customized via optional funcs.
type Client struct {
	c         *http.Client
	logger    *slog.Logger
	tracer    trace.Tracer
	stage     *download.Stage
	attempts  int
	opener    StreamOpener
	serialize bool
	dlOpts    []download.Option
}

func Build(optFns ...Option) (*Client, error) {
	var opts options
	for _, opt := range optFns {
		if err := opt(&opts); err != nil {
			return nil, fmt.Errorf("applying client option: %w", err)
		}
	}

	client := &Client{
		c:         &http.Client{},
		logger:    slog.Default(),
		tracer:    otel.Tracer(tracerName),
		attempts:  DefaultStreamAttempts,
		opener:    DefaultStreamOpener,
		serialize: opts.serialize,
		dlOpts:    opts.downloadOpts,
	}

	if opts.client != nil {
		cpy := *opts.client
		client.c = &cpy
	}

	if opts.logger != nil {
		client.logger = opts.logger
	}

	if opts.tracer != nil {
		client.tracer = opts.tracer
	}

	if opts.attempts > 0 {
		client.attempts = opts.attempts
	}

	if opts.opener != nil {
		client.opener = opts.opener
	}

	if opts.timeout != nil {
		client.c.Timeout = *opts.timeout
	}

	if opts.noFollowRedirects {
		client.c.CheckRedirect = func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		}
	}

	var transport http.RoundTripper
	switch {
	case opts.rt != nil:
		transport = opts.rt
	case opts.client != nil && opts.client.Transport != nil:
		transport = opts.client.Transport
	default:
		transport = http.DefaultTransport
	}
	if opts.userAgent != "" {
		transport = userAgent{value: opts.userAgent, base: transport}
	}
	if opts.throttle != nil {
		rt, err := throttle.NewRoundTripper(*opts.throttle, func() *slog.Logger { return client.logger }, transport)
		if err != nil {
			return nil, fmt.Errorf("configuring throttle: %w", err)
		}
		transport = rt
	}
	client.c.Transport = transport

	dir := DefaultPluginsDir
	if opts.pluginsDir != "" {
		dir = opts.pluginsDir
	}
	stage, err := download.NewStage(dir, client.logger)
	if err != nil {
		return nil, fmt.Errorf("configuring stage: %w", err)
	}
	client.stage = stage

	return client, nil
}

// PluginsDir returns the staging directory downloads are published in.
func (c *Client) PluginsDir() string {
	return c.stage.Dir()
}

// Download fetches rawURL into the staging directory and returns the path
// of the published file, named after the last segment of the URL path.
//
// The body is written to <dir>/<sha1(rawURL)>.tmp and renamed over any
// existing file of the final name. The file's modification time is the
// response's Last-Modified, or the request time when that is missing.
// The response stream is requested up to the configured number of times
// on the single response before giving up with [ErrStreamUnavailable].
// A 401 fails at once with [ErrAuthFailure].
//
// A failed copy leaves the partial temp file in place unless
// [WithRemovePartial] was given. Concurrent calls for the same URL are
// only safe with [WithSerialize].
func (c *Client) Download(ctx context.Context, rawURL string) (path string, err error) {
	ctx, span := c.tracer.Start(ctx, "client.download", trace.WithAttributes(
		attribute.String("url.full", rawURL),
		attribute.String("plugins.dir", c.stage.Dir()),
	))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		} else {
			span.SetAttributes(attribute.String("file.path", path))
		}
		span.End()
	}()

	logger := c.logger.With("download_id", downloadID(span))
	stage := c.stage.WithLogger(logger)

	if err := stage.Ensure(); err != nil {
		return "", err
	}

	u, err := parseURL(rawURL)
	if err != nil {
		return "", err
	}

	if c.serialize {
		unlock, err := stage.Lock(ctx, rawURL)
		if err != nil {
			return "", err
		}
		defer unlock()
	}

	tmpPath := stage.TempPath(rawURL)
	if err := stage.RemoveStale(tmpPath); err != nil {
		return "", err
	}

	logger.Debug("downloading", "url", rawURL, "temp", tmpPath)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return "", fmt.Errorf("instantiating request: %w", err)
	}

	requestedAt := time.Now()
	resp, err := c.c.Do(req)
	if err != nil {
		return "", fmt.Errorf("exec http do: %w", err)
	}

	discardBody := true
	defer func() {
		if discardBody {
			if _, err := io.Copy(io.Discard, io.LimitReader(resp.Body, maxDiscardSize)); err != nil {
				logger.Error("failed to discard unused body", "error", err)
			}
		}
		if err := resp.Body.Close(); err != nil {
			logger.Error("failed to close response body", "error", err)
		}
	}()

	if resp.StatusCode == http.StatusUnauthorized {
		return "", &ConnectionError{Message: "HTTP Authorization failure", Err: ErrAuthFailure}
	}

	modTime := lastModified(resp.Header, requestedAt)

	stream, err := c.acquireStream(resp, logger)
	if err != nil {
		return "", &ConnectionError{
			Message: fmt.Sprintf("Can't get '%s' to '%s'", rawURL, tmpPath),
			Err:     fmt.Errorf("%w: %w", ErrStreamUnavailable, err),
		}
	}
	// Closing resp.Body twice is harmless when the opener returned it as is.
	defer func() {
		if err := stream.Close(); err != nil {
			logger.Error("failed to close response stream", "error", err)
		}
	}()

	discardBody = false

	if _, err := stage.Write(ctx, stream, resp.ContentLength, tmpPath, c.dlOpts...); err != nil {
		return "", fmt.Errorf("download: %w", err)
	}

	name, err := download.FileName(u.EscapedPath())
	if err != nil {
		return "", err
	}

	path, err = stage.Publish(tmpPath, name, modTime)
	if err != nil {
		return "", fmt.Errorf("publish: %w", err)
	}

	return path, nil
}

// parseURL accepts absolute http and https URLs only.
func parseURL(rawURL string) (*url.URL, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedURL, err)
	}

	switch {
	case u.Scheme != "http" && u.Scheme != "https":
		return nil, fmt.Errorf("%w: unsupported scheme %q in %q", ErrMalformedURL, u.Scheme, rawURL)
	case u.Host == "":
		return nil, fmt.Errorf("%w: missing host in %q", ErrMalformedURL, rawURL)
	}

	return u, nil
}

// lastModified parses the Last-Modified header, falling back to
// fallback when it is absent or not an HTTP date.
func lastModified(h http.Header, fallback time.Time) time.Time {
	if v := h.Get("Last-Modified"); v != "" {
		if t, err := http.ParseTime(v); err == nil {
			return t
		}
	}

	return fallback
}

// downloadID correlates the log lines of one download. It is the trace
// ID when a real tracer is recording, a random uuid otherwise.
func downloadID(span trace.Span) string {
	if traceID := span.SpanContext().TraceID(); traceID.IsValid() {
		return traceID.String()
	}

	return uuid.New().String()
}
