// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 AuraMatch Contributors

// Package config loads AuraMatch settings from defaults, an optional YAML file,
// the environment and command-line flags, in increasing order of precedence.
package config

import (
	"errors"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/samber/oops"
	"github.com/spf13/pflag"

	"github.com/auramatch/auramatch/internal/logging"
)

// EnvPrefix is the prefix of environment variables read as configuration.
// AURAMATCH_HTTP_ADDR maps to http_addr.
const EnvPrefix = "AURAMATCH_"

// Default values.
const (
	DefaultHTTPAddr        = "0.0.0.0:8080"
	DefaultMetricsAddr     = "127.0.0.1:9100"
	DefaultLogFormat       = "json"
	DefaultLogLevel        = "info"
	DefaultSweepInterval   = time.Hour
	DefaultShutdownTimeout = 10 * time.Second
	DefaultStaticDir       = "static"
)

// Config is the process configuration.
type Config struct {
	HTTPAddr        string        `koanf:"http_addr" yaml:"http_addr"`
	MetricsAddr     string        `koanf:"metrics_addr" yaml:"metrics_addr"`
	DatabaseURL     string        `koanf:"database_url" yaml:"database_url"`
	LogFormat       string        `koanf:"log_format" yaml:"log_format"`
	LogLevel        string        `koanf:"log_level" yaml:"log_level"`
	SweepInterval   time.Duration `koanf:"sweep_interval" yaml:"sweep_interval"`
	AutoMigrate     bool          `koanf:"auto_migrate" yaml:"auto_migrate"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout" yaml:"shutdown_timeout"`
	// StaticDir holds the browser frontend served outside /api. Empty disables it.
	StaticDir string `koanf:"static_dir" yaml:"static_dir"`
	// CORSOrigins lists origins allowed to call the API cross-origin; "*" allows any.
	// Empty disables CORS headers.
	CORSOrigins []string `koanf:"cors_origins" yaml:"cors_origins"`
}

// defaults seeds every key so later layers only override.
func defaults() map[string]any {
	return map[string]any{
		"http_addr":        DefaultHTTPAddr,
		"metrics_addr":     DefaultMetricsAddr,
		"database_url":     "",
		"log_format":       DefaultLogFormat,
		"log_level":        DefaultLogLevel,
		"sweep_interval":   DefaultSweepInterval,
		"auto_migrate":     false,
		"shutdown_timeout": DefaultShutdownTimeout,
		"static_dir":       DefaultStaticDir,
		"cors_origins":     []string{},
	}
}

// RegisterFlags adds the configuration flags to fs. Flags only override the
// lower layers when set explicitly.
func RegisterFlags(fs *pflag.FlagSet) {
	fs.String("http-addr", DefaultHTTPAddr, "HTTP API listen address")
	fs.String("metrics-addr", DefaultMetricsAddr, "metrics/health HTTP address (empty = disabled)")
	fs.String("database-url", "", "PostgreSQL connection URL")
	fs.String("log-format", DefaultLogFormat, "log format (json or text)")
	fs.String("log-level", DefaultLogLevel, "log level (debug, info, warn, error)")
	fs.Duration("sweep-interval", DefaultSweepInterval, "expired session sweep interval (0 = disabled)")
	fs.Bool("auto-migrate", false, "apply pending migrations on startup")
	fs.Duration("shutdown-timeout", DefaultShutdownTimeout, "graceful shutdown timeout")
	fs.String("static-dir", DefaultStaticDir, "directory of frontend files served at / (empty = disabled)")
	fs.StringSlice("cors-origins", nil, "origins allowed for cross-origin API calls (\"*\" = any)")
}

// LoadOptions selects the optional sources for Load.
type LoadOptions struct {
	// File is a YAML config file. Empty skips the file layer.
	File string
	// EnvFile is a dotenv file loaded into the process environment before the
	// environment layer is read. A missing file is ignored.
	EnvFile string
	// Flags are parsed command-line flags registered with RegisterFlags.
	Flags *pflag.FlagSet
}

// Load builds a Config from defaults, File, the environment and Flags.
// The result is validated.
func Load(opts LoadOptions) (*Config, error) {
	k := koanf.New(".")

	for key, value := range defaults() {
		if err := k.Set(key, value); err != nil {
			return nil, oops.Code("CONFIG_LOAD_FAILED").With("key", key).Wrap(err)
		}
	}

	if opts.File != "" {
		if err := k.Load(file.Provider(opts.File), yaml.Parser()); err != nil {
			return nil, oops.Code("CONFIG_LOAD_FAILED").
				With("operation", "load config file").
				With("file", opts.File).
				Wrap(err)
		}
	}

	if opts.EnvFile != "" {
		if err := godotenv.Load(opts.EnvFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, oops.Code("CONFIG_LOAD_FAILED").
				With("operation", "load env file").
				With("file", opts.EnvFile).
				Wrap(err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, oops.Code("CONFIG_LOAD_FAILED").With("operation", "load environment").Wrap(err)
	}

	if opts.Flags != nil {
		provider := posflag.ProviderWithFlag(opts.Flags, ".", k, func(f *pflag.Flag) (string, any) {
			key := flagKey(f.Name)
			if _, known := defaults()[key]; !known {
				return "", nil
			}
			return key, posflag.FlagVal(opts.Flags, f)
		})
		if err := k.Load(provider, nil); err != nil {
			return nil, oops.Code("CONFIG_LOAD_FAILED").With("operation", "load flags").Wrap(err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, oops.Code("CONFIG_LOAD_FAILED").With("operation", "decode config").Wrap(err)
	}

	// DATABASE_URL is the conventional name used by hosting platforms.
	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func envKey(s string) string {
	return strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
}

func flagKey(name string) string {
	return strings.ReplaceAll(name, "-", "_")
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	invalid := func(key string, format string, args ...any) error {
		return oops.Code("CONFIG_INVALID").With("key", key).Errorf(format, args...)
	}

	switch {
	case c.HTTPAddr == "":
		return invalid("http_addr", "http_addr is required")
	case c.DatabaseURL == "":
		return invalid("database_url", "database_url is required (set %sDATABASE_URL or DATABASE_URL)", EnvPrefix)
	case c.LogFormat != "json" && c.LogFormat != "text":
		return invalid("log_format", "log_format must be 'json' or 'text', got %q", c.LogFormat)
	case !validLevel(c.LogLevel):
		return invalid("log_level", "log_level must be debug, info, warn or error, got %q", c.LogLevel)
	case c.SweepInterval < 0:
		return invalid("sweep_interval", "sweep_interval cannot be negative, got %s", c.SweepInterval)
	case c.ShutdownTimeout <= 0:
		return invalid("shutdown_timeout", "shutdown_timeout must be positive, got %s", c.ShutdownTimeout)
	}
	for _, origin := range c.CORSOrigins {
		if strings.TrimSpace(origin) == "" {
			return invalid("cors_origins", "cors_origins cannot contain empty entries")
		}
	}
	return nil
}

func validLevel(level string) bool {
	_, err := logging.ParseLevel(level)
	return err == nil
}
