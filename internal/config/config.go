package config

import (
	"errors"
	"io/fs"
	"log/slog"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	ferrors "github.com/sleep909/multipage/internal/foundation/errors"
)

// DefaultConfigFile is the configuration file looked up when none is given.
const DefaultConfigFile = "multipage.yaml"

// Config represents the application configuration. It is loaded once per
// invocation and passed explicitly to every phase that needs it.
type Config struct {
	// Root is the project root; page directories are resolved against it.
	Root string `yaml:"root,omitempty"`
	// OutDir is the build output directory, relative to Root unless absolute.
	OutDir    string          `yaml:"out_dir,omitempty"`
	Multipage MultipageConfig `yaml:"multipage"`
	Server    ServerConfig    `yaml:"server"`
	Logging   LoggingConfig   `yaml:"logging"`
	Events    EventsConfig    `yaml:"events"`
}

// MultipageConfig holds the page mapping options.
type MultipageConfig struct {
	Open           string `yaml:"open"`             // Path the dev server opens on start
	PageDir        string `yaml:"page_dir"`         // Root-relative directory containing page subdirectories
	PurgeDir       string `yaml:"purge_dir"`        // Output-relative directory removed after reorganization; empty disables
	RemovePageDirs bool   `yaml:"remove_page_dirs"` // Flatten page directories into <page>.html
	RootPage       string `yaml:"root_page"`        // Entry document inside each page directory
	MimeCheck      bool   `yaml:"mime_check"`       // Infer Content-Type from the request path
}

// ServerConfig configures the development server.
type ServerConfig struct {
	Host         string        `yaml:"host"`
	Port         int           `yaml:"port"`
	Watch        WatchMode     `yaml:"watch"`
	PollInterval time.Duration `yaml:"poll_interval"`
	Metrics      MetricsConfig `yaml:"metrics"`
}

// MetricsConfig toggles the Prometheus endpoint on the dev server.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// LoggingConfig selects log level and handler format.
type LoggingConfig struct {
	Level  LogLevel  `yaml:"level"`
	Format LogFormat `yaml:"format"`
}

// EventsConfig configures build event publishing. An empty NATSURL disables it.
type EventsConfig struct {
	NATSURL string      `yaml:"nats_url,omitempty"`
	Subject string      `yaml:"subject"`
	Retry   RetryConfig `yaml:"retry"`
}

// RetryConfig controls retries of transient publish failures.
type RetryConfig struct {
	Backoff    RetryBackoffMode `yaml:"backoff"` // fixed|linear|exponential
	Initial    time.Duration    `yaml:"initial"`
	Max        time.Duration    `yaml:"max"`
	MaxRetries int              `yaml:"max_retries"`
}

// Default returns a configuration populated with the documented defaults.
// Root is left empty and resolved to the working directory by Resolve.
func Default() *Config {
	return &Config{
		OutDir: "dist",
		Multipage: MultipageConfig{
			Open:           "/",
			PageDir:        "pages",
			PurgeDir:       "pages",
			RemovePageDirs: true,
			RootPage:       "index.html",
			MimeCheck:      true,
		},
		Server: ServerConfig{
			Host:         "localhost",
			Port:         5173,
			Watch:        WatchFSNotify,
			PollInterval: 2 * time.Second,
			Metrics:      MetricsConfig{Path: "/metrics"},
		},
		Logging: LoggingConfig{Level: LogLevelInfo, Format: LogFormatText},
		Events: EventsConfig{
			Subject: "multipage.build",
			Retry: RetryConfig{
				Backoff:    RetryBackoffExponential,
				Initial:    250 * time.Millisecond,
				Max:        2 * time.Second,
				MaxRetries: 2,
			},
		},
	}
}

// Load reads configuration from configPath. Defaults are applied before
// unmarshalling, so keys absent from the file keep their defaults while
// explicit empty values (purge_dir: "") and false booleans take effect.
func Load(configPath string) (*Config, error) {
	if err := loadEnvFile(); err != nil {
		slog.Debug("No .env file loaded", "error", err)
	}

	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ferrors.WrapError(err, ferrors.CategoryConfig, "configuration file not found").
				WithContext("path", configPath).Build()
		}
		return nil, ferrors.WrapError(err, ferrors.CategoryConfig, "failed to read config file").
			WithContext("path", configPath).Build()
	}

	cfg := Default()
	if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(data))), cfg); err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryConfig, "failed to parse config file").
			Fatal().WithContext("path", configPath).Build()
	}
	if err := cfg.Resolve(filepath.Dir(configPath)); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadOrDefault behaves like Load but falls back to Default when the file does
// not exist. It is used for the implicit default config path.
func LoadOrDefault(configPath string) (*Config, error) {
	if _, err := os.Stat(configPath); errors.Is(err, fs.ErrNotExist) {
		if envErr := loadEnvFile(); envErr != nil {
			slog.Debug("No .env file loaded", "error", envErr)
		}
		cfg := Default()
		if err := cfg.Resolve(""); err != nil {
			return nil, err
		}
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
		return cfg, nil
	}
	return Load(configPath)
}

// Resolve makes Root absolute and applies the env log level override. An empty
// Root becomes base (the config file's directory), or the working directory
// when base is empty. Relative roots resolve against base.
func (c *Config) Resolve(base string) error {
	root := c.Root
	switch {
	case root == "" && base != "":
		root = base
	case root == "":
		wd, err := os.Getwd()
		if err != nil {
			return ferrors.WrapError(err, ferrors.CategoryRuntime, "resolve working directory").Build()
		}
		root = wd
	case !filepath.IsAbs(root) && base != "":
		root = filepath.Join(base, root)
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return ferrors.WrapError(err, ferrors.CategoryConfig, "resolve project root").
			WithContext("root", c.Root).Build()
	}
	c.Root = abs

	if lvl := os.Getenv(LogLevelEnv); lvl != "" {
		c.Logging.Level = LogLevel(lvl)
	}
	return nil
}

// OutputPath returns the absolute output directory.
func (c *Config) OutputPath() string {
	if filepath.IsAbs(c.OutDir) {
		return c.OutDir
	}
	return filepath.Join(c.Root, c.OutDir)
}

// Address returns the dev server listen address.
func (c *Config) Address() string {
	return net.JoinHostPort(c.Server.Host, strconv.Itoa(c.Server.Port))
}
