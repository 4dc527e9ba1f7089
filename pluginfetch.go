// Package pluginfetch exposes the plugin downloader builder.
package pluginfetch

import (
	"github.com/adamwoolhether/pluginfetch/client"
)

// NewDownloader instantiates a new *client.Client with the provided options.
// If not specified, downloads are staged in the "plugins" directory
// relative to the working directory.
func NewDownloader(opts ...client.Option) (*client.Client, error) {
	return client.Build(opts...)
}
