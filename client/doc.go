// Package client provides the plugin downloader built on [net/http].
//
// # Building a Client
//
// Use [Build] to create a [Client] with functional options:
//
//	c, err := client.Build(
//		client.WithPluginsDir("plugins"),
//		client.WithUserAgent("myapp/1.0"),
//	)
//
// No timeout is set by default. Use [WithTimeout] or a context deadline
// to bound a download against a server that stops responding.
//
// # Downloading Plugins
//
// [Client.Download] fetches a URL into the staging directory and returns
// the final path:
//
//	path, err := c.Download(ctx, "https://repo.example.com/plugins/sample-plugin-1.0.zip")
//	// path == "plugins/sample-plugin-1.0.zip"
//
// Failures are reported with sentinel errors:
//
//	switch {
//	case errors.Is(err, client.ErrMalformedURL):
//	case errors.Is(err, client.ErrAuthFailure):
//	case errors.Is(err, client.ErrStreamUnavailable):
//	}
//
// Both auth and stream failures are a [*ConnectionError].
//
// # Concurrency
//
// Downloads of the same URL write the same temp and final files. Callers
// that may overlap them should either serialize the calls or build the
// client with [WithSerialize].
//
// For lower-level control see the
// [github.com/adamwoolhether/pluginfetch/client/download] package.
package client
