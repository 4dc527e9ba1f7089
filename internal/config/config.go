package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/adamwoolhether/pluginfetch/client"
)

// Environment keys. PluginsDirKey keeps the historical property name;
// PluginsDirEnv is the shell friendly spelling.
const (
	PluginsDirKey     = "pf4j.pluginsDir"
	PluginsDirEnv     = "PF4J_PLUGINS_DIR"
	StreamAttemptsEnv = "PF4J_STREAM_ATTEMPTS"
	TimeoutEnv        = "PF4J_TIMEOUT"
	UserAgentEnv      = "PF4J_USER_AGENT"
	LogLevelEnv       = "PF4J_LOG_LEVEL"
)

// Config defines configuration for the plugin downloader.
type Config struct {
	PluginsDir     string         `yaml:"plugins_dir" validate:"required"`
	StreamAttempts int            `yaml:"stream_attempts" validate:"min=1,max=10"`
	Timeout        time.Duration  `yaml:"timeout" validate:"min=0"`
	UserAgent      string         `yaml:"user_agent"`
	Serialize      bool           `yaml:"serialize"`
	RemovePartial  bool           `yaml:"remove_partial"`
	Progress       bool           `yaml:"progress"`
	LogLevel       string         `yaml:"log_level" validate:"oneof=debug info warn error"`
	Throttle       ThrottleConfig `yaml:"throttle"`
}

// ThrottleConfig enables request rate limiting when both values are set.
type ThrottleConfig struct {
	RPS   int `yaml:"rps" validate:"min=0,required_with=Burst"`
	Burst int `yaml:"burst" validate:"min=0,required_with=RPS"`
}

// Default returns a Config with the downloader's defaults. There is
// no timeout unless one is configured.
func Default() Config {
	return Config{
		PluginsDir:     client.DefaultPluginsDir,
		StreamAttempts: client.DefaultStreamAttempts,
		LogLevel:       "info",
	}
}

// yamlConfig is used for YAML unmarshaling with a string timeout.
type yamlConfig struct {
	PluginsDir     string         `yaml:"plugins_dir"`
	StreamAttempts int            `yaml:"stream_attempts"`
	Timeout        string         `yaml:"timeout"`
	UserAgent      string         `yaml:"user_agent"`
	Serialize      bool           `yaml:"serialize"`
	RemovePartial  bool           `yaml:"remove_partial"`
	Progress       bool           `yaml:"progress"`
	LogLevel       string         `yaml:"log_level"`
	Throttle       ThrottleConfig `yaml:"throttle"`
}

// LoadFromFile loads configuration from a YAML file on top of [Default].
func LoadFromFile(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config file: %w", err)
	}

	var yc yamlConfig
	if err := yaml.Unmarshal(data, &yc); err != nil {
		return Config{}, fmt.Errorf("parse config file: %w", err)
	}

	cfg := Default()
	if yc.PluginsDir != "" {
		cfg.PluginsDir = yc.PluginsDir
	}
	if yc.StreamAttempts != 0 {
		cfg.StreamAttempts = yc.StreamAttempts
	}
	if yc.Timeout != "" {
		d, err := time.ParseDuration(yc.Timeout)
		if err != nil {
			return Config{}, fmt.Errorf("parse timeout: %w", err)
		}
		cfg.Timeout = d
	}
	if yc.UserAgent != "" {
		cfg.UserAgent = yc.UserAgent
	}
	if yc.LogLevel != "" {
		cfg.LogLevel = strings.ToLower(yc.LogLevel)
	}
	cfg.Serialize = yc.Serialize
	cfg.RemovePartial = yc.RemovePartial
	cfg.Progress = yc.Progress
	cfg.Throttle = yc.Throttle

	return cfg, nil
}

// LoadFromEnv overrides c with values found through lookup, which is
// usually [os.LookupEnv]. For the staging directory PluginsDirKey wins
// over PluginsDirEnv.
func (c *Config) LoadFromEnv(lookup func(string) (string, bool)) error {
	if v, ok := lookup(PluginsDirEnv); ok && v != "" {
		c.PluginsDir = v
	}
	if v, ok := lookup(PluginsDirKey); ok && v != "" {
		c.PluginsDir = v
	}
	if v, ok := lookup(StreamAttemptsEnv); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("parse %s: %w", StreamAttemptsEnv, err)
		}
		c.StreamAttempts = n
	}
	if v, ok := lookup(TimeoutEnv); ok && v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("parse %s: %w", TimeoutEnv, err)
		}
		c.Timeout = d
	}
	if v, ok := lookup(UserAgentEnv); ok && v != "" {
		c.UserAgent = v
	}
	if v, ok := lookup(LogLevelEnv); ok && v != "" {
		c.LogLevel = strings.ToLower(v)
	}

	return nil
}

// Level maps LogLevel to a slog level, info when unknown.
func (c Config) Level() slog.Level {
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// ClientOptions translates c into options for [client.Build].
func (c Config) ClientOptions(logger *slog.Logger) []client.Option {
	opts := []client.Option{
		client.WithPluginsDir(c.PluginsDir),
		client.WithStreamAttempts(c.StreamAttempts),
	}

	if logger != nil {
		opts = append(opts, client.WithLogger(logger))
	}
	if c.Timeout > 0 {
		opts = append(opts, client.WithTimeout(c.Timeout))
	}
	if c.UserAgent != "" {
		opts = append(opts, client.WithUserAgent(c.UserAgent))
	}
	if c.Throttle.RPS > 0 {
		opts = append(opts, client.WithThrottle(c.Throttle.RPS, c.Throttle.Burst))
	}
	if c.Serialize {
		opts = append(opts, client.WithSerialize())
	}

	var dlOpts []client.DownloadOption
	if c.RemovePartial {
		dlOpts = append(dlOpts, client.WithRemovePartial())
	}
	if c.Progress {
		dlOpts = append(dlOpts, client.WithProgress())
	}
	if len(dlOpts) > 0 {
		opts = append(opts, client.WithDownloadOptions(dlOpts...))
	}

	return opts
}
