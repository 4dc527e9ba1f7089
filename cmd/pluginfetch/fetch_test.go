package main

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/adamwoolhether/pluginfetch/internal/config"
)

func pluginServer(t *testing.T) *httptest.Server {
	t.Helper()

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/private/") {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		fmt.Fprintf(w, "archive %s", r.URL.Path)
	}))
	t.Cleanup(ts.Close)

	return ts
}

func noEnv(string) (string, bool) { return "", false }

func execute(t *testing.T, lookup func(string) (string, bool), args ...string) (string, string, error) {
	t.Helper()

	var out, errOut bytes.Buffer
	cmd := newFetchCmd(&out, &errOut, lookup)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(t.Context())

	return out.String(), errOut.String(), err
}

func TestFetchPrintsPaths(t *testing.T) {
	ts := pluginServer(t)
	dir := t.TempDir()

	out, _, err := execute(t, noEnv, "--plugins-dir", dir, ts.URL+"/a/one.zip", ts.URL+"/two.jar")
	if err != nil {
		t.Fatalf("execute: %v", err)
	}

	want := filepath.Join(dir, "one.zip") + "\n" + filepath.Join(dir, "two.jar") + "\n"
	if diff := cmp.Diff(want, out); diff != "" {
		t.Errorf("stdout mismatch (-want +got):\n%s", diff)
	}

	data, err := os.ReadFile(filepath.Join(dir, "one.zip"))
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "archive /a/one.zip" {
		t.Errorf("content = %q", data)
	}
}

func TestFetchRequiresURL(t *testing.T) {
	_, _, err := execute(t, noEnv, "--plugins-dir", t.TempDir())
	if !errors.Is(err, errURLRequired) {
		t.Fatalf("exp errURLRequired, got %v", err)
	}
}

func TestFetchContinuesAfterFailure(t *testing.T) {
	ts := pluginServer(t)
	dir := t.TempDir()

	out, errOut, err := execute(t, noEnv, "--plugins-dir", dir, ts.URL+"/private/x.zip", ts.URL+"/ok.zip")
	if err == nil || err.Error() != "1 of 2 downloads failed" {
		t.Fatalf("exp failure count error, got %v", err)
	}
	if out != filepath.Join(dir, "ok.zip")+"\n" {
		t.Errorf("stdout = %q", out)
	}
	if !strings.Contains(errOut, "HTTP Authorization failure") {
		t.Errorf("stderr missing auth failure: %s", errOut)
	}
}

func TestFetchInvalidConfig(t *testing.T) {
	_, _, err := execute(t, noEnv, "--plugins-dir", t.TempDir(), "--attempts", "0", "http://example.test/a.zip")

	var fe config.FieldErrors
	if !errors.As(err, &fe) {
		t.Fatalf("exp FieldErrors, got %T: %v", err, err)
	}
	if fe[0].Field != "stream_attempts" {
		t.Errorf("field = %q", fe[0].Field)
	}
}

func TestFetchPrecedence(t *testing.T) {
	ts := pluginServer(t)
	root := t.TempDir()
	fileDir := filepath.Join(root, "from-file")
	envDir := filepath.Join(root, "from-env")
	flagDir := filepath.Join(root, "from-flag")

	cfgPath := filepath.Join(root, "pluginfetch.yaml")
	if err := os.WriteFile(cfgPath, []byte("plugins_dir: "+fileDir+"\nlog_level: debug\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	env := func(key string) (string, bool) {
		if key == config.PluginsDirKey {
			return envDir, true
		}
		return "", false
	}

	tests := []struct {
		name   string
		lookup func(string) (string, bool)
		args   []string
		want   string
	}{
		{"file", noEnv, []string{"--config", cfgPath}, fileDir},
		{"env over file", env, []string{"--config", cfgPath}, envDir},
		{"flag over env", env, []string{"--config", cfgPath, "--plugins-dir", flagDir}, flagDir},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := append(tt.args, ts.URL+"/p.zip")
			out, errOut, err := execute(t, tt.lookup, args...)
			if err != nil {
				t.Fatalf("execute: %v", err)
			}
			if out != filepath.Join(tt.want, "p.zip")+"\n" {
				t.Errorf("stdout = %q, want dir %s", out, tt.want)
			}
			if !strings.Contains(errOut, "level=DEBUG") {
				t.Errorf("exp debug logging from config file, got:\n%s", errOut)
			}
		})
	}
}
