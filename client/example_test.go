package client_test

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"time"

	"github.com/adamwoolhether/pluginfetch/client"
)

func ExampleBuild() {
	c, err := client.Build(
		client.WithPluginsDir("plugins"),
		client.WithTimeout(10*time.Second),
		client.WithUserAgent("example/1.0"),
	)
	if err != nil {
		fmt.Println("error:", err)
		return
	}

	fmt.Println(c.PluginsDir())
	// Output: plugins
}

func ExampleClient_Download() {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Last-Modified", "Tue, 15 Nov 1994 08:12:31 GMT")
		fmt.Fprint(w, "plugin archive")
	}))
	defer ts.Close()

	dir, err := os.MkdirTemp("", "plugins-*")
	if err != nil {
		fmt.Println("error:", err)
		return
	}
	defer os.RemoveAll(dir)

	c, err := client.Build(
		client.WithPluginsDir(dir),
		client.WithLogger(slog.New(slog.DiscardHandler)),
	)
	if err != nil {
		fmt.Println("error:", err)
		return
	}

	path, err := c.Download(context.Background(), ts.URL+"/plugins/sample-plugin-1.0.zip")
	if err != nil {
		fmt.Println("error:", err)
		return
	}

	info, err := os.Stat(path)
	if err != nil {
		fmt.Println("error:", err)
		return
	}

	fmt.Println(filepath.Base(path), info.Size(), info.ModTime().UTC().Format(time.RFC3339))
	// Output: sample-plugin-1.0.zip 14 1994-11-15T08:12:31Z
}

func ExampleClient_Download_unauthorized() {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer ts.Close()

	dir, err := os.MkdirTemp("", "plugins-*")
	if err != nil {
		fmt.Println("error:", err)
		return
	}
	defer os.RemoveAll(dir)

	c, err := client.Build(
		client.WithPluginsDir(dir),
		client.WithLogger(slog.New(slog.DiscardHandler)),
	)
	if err != nil {
		fmt.Println("error:", err)
		return
	}

	_, err = c.Download(context.Background(), ts.URL+"/private.zip")
	fmt.Println(err, errors.Is(err, client.ErrAuthFailure))
	// Output: HTTP Authorization failure true
}
