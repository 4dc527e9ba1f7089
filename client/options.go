package client

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/adamwoolhether/pluginfetch/client/download"
	"github.com/adamwoolhether/pluginfetch/client/throttle"
)

// DefaultPluginsDir is the staging directory used when none is configured.
const DefaultPluginsDir = "plugins"

// Option is a functional option for configuring a [Client] via [Build].
type Option func(*options) error
type options struct {
	client            *http.Client
	rt                http.RoundTripper
	timeout           *time.Duration
	userAgent         string
	throttle          *throttle.Config
	noFollowRedirects bool
	logger            *slog.Logger
	tracer            trace.Tracer
	pluginsDir        string
	attempts          int
	opener            StreamOpener
	serialize         bool
	downloadOpts      []download.Option
}

// WithClient replaces the default [http.Client] used by the [Client].
// Build works on a copy, so hc itself is never modified.
func WithClient(hc *http.Client) Option {
	return func(c *options) error {
		if hc == nil {
			return errors.New("client must not be nil")
		}
		c.client = hc
		return nil
	}
}

// WithTransport sets a custom [http.RoundTripper] as the base transport.
func WithTransport(rt http.RoundTripper) Option {
	return func(c *options) error {
		if rt == nil {
			return errors.New("transport must not be nil")
		}
		c.rt = rt
		return nil
	}
}

// WithTimeout sets the overall request timeout on the underlying [http.Client].
// Without it a download may block for as long as the server keeps the
// connection open.
func WithTimeout(d time.Duration) Option {
	return func(c *options) error {
		if d < 0 {
			return errors.New("timeout must not be negative")
		}
		c.timeout = &d
		return nil
	}
}

// WithUserAgent adds a persistent User-Agent header to all outgoing requests.
func WithUserAgent(header string) Option {
	return func(c *options) error {
		c.userAgent = header
		return nil
	}
}

// WithThrottle enables token-bucket rate limiting with the given requests per second and burst capacity.
func WithThrottle(rps, burst int) Option {
	return func(c *options) error {
		cfg := throttle.Config{RPS: rps, Burst: burst}
		if err := cfg.Validate(); err != nil {
			return err
		}
		c.throttle = &cfg
		return nil
	}
}

// WithNoFollowRedirects prevents the [Client] from following HTTP redirects.
func WithNoFollowRedirects() Option {
	return func(c *options) error {
		c.noFollowRedirects = true
		return nil
	}
}

// WithLogger injects a custom [slog.Logger] into the [Client].
func WithLogger(logger *slog.Logger) Option {
	return func(c *options) error {
		if logger == nil {
			return errors.New("logger must not be nil")
		}
		c.logger = logger
		return nil
	}
}

// WithTracer sets the tracer used for download spans. The global
// otel provider is used otherwise.
func WithTracer(tracer trace.Tracer) Option {
	return func(c *options) error {
		if tracer == nil {
			return errors.New("tracer must not be nil")
		}
		c.tracer = tracer
		return nil
	}
}

// WithPluginsDir sets the staging directory, [DefaultPluginsDir] otherwise.
func WithPluginsDir(dir string) Option {
	return func(c *options) error {
		if dir == "" {
			return errors.New("plugins dir must not be empty")
		}
		c.pluginsDir = dir
		return nil
	}
}

// WithStreamAttempts overrides [DefaultStreamAttempts].
func WithStreamAttempts(n int) Option {
	return func(c *options) error {
		if n <= 0 {
			return fmt.Errorf("stream attempts[%d] %w", n, throttle.ErrMustNotBeZero)
		}
		c.attempts = n
		return nil
	}
}

// WithStreamOpener replaces [DefaultStreamOpener].
func WithStreamOpener(fn StreamOpener) Option {
	return func(c *options) error {
		if fn == nil {
			return errors.New("stream opener must not be nil")
		}
		c.opener = fn
		return nil
	}
}

// WithSerialize makes downloads of the same URL wait for each other,
// using a lock file in the staging directory. Without it concurrent
// downloads of one URL share temp and final files and the last writer wins.
func WithSerialize() Option {
	return func(c *options) error {
		c.serialize = true
		return nil
	}
}

// WithDownloadOptions forwards options to every [download.Stage.Write].
func WithDownloadOptions(opts ...download.Option) Option {
	return func(c *options) error {
		c.downloadOpts = append(c.downloadOpts, opts...)
		return nil
	}
}

// userAgent is an http.RoundTripper, enabling the persistent User-Agent header.
type userAgent struct {
	value string
	base  http.RoundTripper
}

func (ua userAgent) RoundTrip(r *http.Request) (*http.Response, error) {
	cpy := r.Clone(r.Context())
	cpy.Header.Set("User-Agent", ua.value)
	return ua.base.RoundTrip(cpy)
}
