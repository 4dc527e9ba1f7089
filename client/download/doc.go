// Package download manages the plugin staging directory: temp file
// naming, streaming a response body to disk, and publishing the result
// under its final name.
//
// # Staging
//
// A [Stage] owns one directory. A download for a URL is written to
// <dir>/<sha1(url)>.tmp and then renamed to <dir>/<name>, where name is
// the final segment of the URL path:
//
//	stage, _ := download.NewStage("plugins", logger)
//	tmp := stage.TempPath(rawURL)
//	if _, err := stage.Write(ctx, body, size, tmp); err != nil { ... }
//	path, err := stage.Publish(tmp, "sample-plugin-1.0.zip", lastModified)
//
// Two downloads of the same URL share the temp and final names. Callers
// that may run them concurrently should hold [Stage.Lock] for the whole
// download.
//
// Most callers should use the higher-level
// [github.com/adamwoolhether/pluginfetch/client] package.
package download
