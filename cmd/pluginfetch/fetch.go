package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/adamwoolhether/pluginfetch/client"
	"github.com/adamwoolhether/pluginfetch/internal/config"
)

const fetchDesc = `
Download one or more plugin archives into the plugins directory.

Each URL is fetched into a temporary file named after the SHA-1 of the URL,
then renamed to the last path segment of the URL. An existing file with the
same name is replaced. The file's modification time is taken from the
Last-Modified response header when present.

Settings are read from the optional --config file, then from the environment
(pf4j.pluginsDir, PF4J_PLUGINS_DIR, PF4J_STREAM_ATTEMPTS, PF4J_TIMEOUT,
PF4J_USER_AGENT, PF4J_LOG_LEVEL), then from flags.
`

var errURLRequired = errors.New("at least one plugin URL is required")

type fetchCmd struct {
	configPath string
	cfg        config.Config
	lookup     func(string) (string, bool)

	out    io.Writer
	errOut io.Writer
}

func newFetchCmd(out, errOut io.Writer, lookup func(string) (string, bool)) *cobra.Command {
	fc := &fetchCmd{
		cfg:    config.Default(),
		lookup: lookup,
		out:    out,
		errOut: errOut,
	}

	cmd := &cobra.Command{
		Use:           "pluginfetch [flags] URL [URL...]",
		Short:         "download plugin archives into a staging directory",
		Long:          fetchDesc,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return errURLRequired
			}
			if err := fc.resolve(cmd.Flags()); err != nil {
				return err
			}

			return fc.run(cmd.Context(), args)
		},
	}
	cmd.SetOut(out)
	cmd.SetErr(errOut)

	fc.bindFlags(cmd.Flags())

	return cmd
}

func (fc *fetchCmd) bindFlags(f *pflag.FlagSet) {
	f.StringVarP(&fc.configPath, "config", "c", "", "path to a YAML configuration file")
	f.StringVarP(&fc.cfg.PluginsDir, "plugins-dir", "d", fc.cfg.PluginsDir, "directory downloads are staged into")
	f.IntVar(&fc.cfg.StreamAttempts, "attempts", fc.cfg.StreamAttempts, "attempts at acquiring the response stream")
	f.DurationVar(&fc.cfg.Timeout, "timeout", 0, "overall timeout per download, 0 for none")
	f.StringVar(&fc.cfg.UserAgent, "user-agent", "", "User-Agent header sent with requests")
	f.BoolVar(&fc.cfg.Serialize, "serialize", false, "lock the temp file so concurrent fetches of one URL run one at a time")
	f.BoolVar(&fc.cfg.RemovePartial, "remove-partial", false, "remove the temp file when a transfer fails")
	f.BoolVar(&fc.cfg.Progress, "progress", false, "log transfer progress")
	f.StringVar(&fc.cfg.LogLevel, "log-level", fc.cfg.LogLevel, "log level: debug, info, warn or error")
	f.IntVar(&fc.cfg.Throttle.RPS, "throttle-rps", 0, "maximum requests per second, 0 disables throttling")
	f.IntVar(&fc.cfg.Throttle.Burst, "throttle-burst", 0, "request burst allowed by the throttle")
}

// resolve layers the config file and environment underneath any flag
// set explicitly on the command line.
func (fc *fetchCmd) resolve(f *pflag.FlagSet) error {
	flagged := fc.cfg

	base := config.Default()
	if fc.configPath != "" {
		var err error
		if base, err = config.LoadFromFile(fc.configPath); err != nil {
			return err
		}
	}
	if err := base.LoadFromEnv(fc.lookup); err != nil {
		return err
	}

	f.Visit(func(fl *pflag.Flag) {
		switch fl.Name {
		case "plugins-dir":
			base.PluginsDir = flagged.PluginsDir
		case "attempts":
			base.StreamAttempts = flagged.StreamAttempts
		case "timeout":
			base.Timeout = flagged.Timeout
		case "user-agent":
			base.UserAgent = flagged.UserAgent
		case "serialize":
			base.Serialize = flagged.Serialize
		case "remove-partial":
			base.RemovePartial = flagged.RemovePartial
		case "progress":
			base.Progress = flagged.Progress
		case "log-level":
			base.LogLevel = flagged.LogLevel
		case "throttle-rps":
			base.Throttle.RPS = flagged.Throttle.RPS
		case "throttle-burst":
			base.Throttle.Burst = flagged.Throttle.Burst
		}
	})

	if err := base.Validate(); err != nil {
		return err
	}
	fc.cfg = base

	return nil
}

func (fc *fetchCmd) run(ctx context.Context, urls []string) error {
	logger := slog.New(slog.NewTextHandler(fc.errOut, &slog.HandlerOptions{Level: fc.cfg.Level()}))

	c, err := client.Build(fc.cfg.ClientOptions(logger)...)
	if err != nil {
		return err
	}

	var failed int
	for _, u := range urls {
		start := time.Now()
		path, err := c.Download(ctx, u)
		if err != nil {
			failed++
			logger.Error("download failed", "url", u, "error", err)
			if ctx.Err() != nil {
				break
			}
			continue
		}

		logger.Info("download complete", "url", u, "path", path, "took", time.Since(start))
		fmt.Fprintln(fc.out, path)
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d downloads failed", failed, len(urls))
	}

	return nil
}
