// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package config loads formgate configuration from flag defaults, an optional
// YAML file and command-line overrides, in increasing order of precedence.
package config

import (
	"errors"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/samber/oops"
	"github.com/spf13/pflag"
	yamlv3 "gopkg.in/yaml.v3"

	"github.com/holomush/formgate/internal/xdg"
)

// Default values for configuration keys.
const (
	DefaultWebAddr         = "127.0.0.1:8080"
	DefaultTelnetAddr      = "127.0.0.1:4201"
	DefaultMetricsAddr     = "127.0.0.1:9101"
	DefaultLogFormat       = "json"
	DefaultLogLevel        = "info"
	DefaultShutdownTimeout = "5s"
)

// Config is the full formgate configuration.
type Config struct {
	Web      WebConfig      `koanf:"web" json:"web,omitempty" yaml:"web"`
	Telnet   TelnetConfig   `koanf:"telnet" json:"telnet,omitempty" yaml:"telnet"`
	Metrics  MetricsConfig  `koanf:"metrics" json:"metrics,omitempty" yaml:"metrics"`
	Log      LogConfig      `koanf:"log" json:"log,omitempty" yaml:"log"`
	Shutdown ShutdownConfig `koanf:"shutdown" json:"shutdown,omitempty" yaml:"shutdown"`
}

// WebConfig configures the HTML/JSON form server.
type WebConfig struct {
	Addr string `koanf:"addr" json:"addr,omitempty" yaml:"addr" jsonschema:"description=HTTP listen address (empty disables)"`
}

// TelnetConfig configures the line-oriented form server.
type TelnetConfig struct {
	Addr string `koanf:"addr" json:"addr,omitempty" yaml:"addr" jsonschema:"description=Telnet listen address (empty disables)"`
}

// MetricsConfig configures the metrics and health server.
type MetricsConfig struct {
	Addr string `koanf:"addr" json:"addr,omitempty" yaml:"addr" jsonschema:"description=Metrics/health HTTP address (empty disables)"`
}

// LogConfig configures structured logging.
type LogConfig struct {
	Format string `koanf:"format" json:"format,omitempty" yaml:"format" jsonschema:"enum=json,enum=text"`
	Level  string `koanf:"level" json:"level,omitempty" yaml:"level" jsonschema:"enum=debug,enum=info,enum=warn,enum=error"`
}

// ShutdownConfig bounds graceful shutdown.
type ShutdownConfig struct {
	Timeout string `koanf:"timeout" json:"timeout,omitempty" yaml:"timeout" jsonschema:"description=Graceful shutdown timeout as a Go duration,pattern=^[0-9]+(\\.[0-9]+)?(ns|us|ms|s|m|h)([0-9]+(\\.[0-9]+)?(ns|us|ms|s|m|h))*$"`
}

// RegisterFlags adds one flag per configuration key to flags. Flag names are
// the keys with "." replaced by "-".
func RegisterFlags(flags *pflag.FlagSet) {
	flags.String("web-addr", DefaultWebAddr, "web listen address (empty = disabled)")
	flags.String("telnet-addr", DefaultTelnetAddr, "telnet listen address (empty = disabled)")
	flags.String("metrics-addr", DefaultMetricsAddr, "metrics/health HTTP address (empty = disabled)")
	flags.String("log-format", DefaultLogFormat, "log format (json or text)")
	flags.String("log-level", DefaultLogLevel, "log level (debug, info, warn, error)")
	flags.String("shutdown-timeout", DefaultShutdownTimeout, "graceful shutdown timeout")
}

// configKeys is the set of dotted keys that flags may populate.
var configKeys = map[string]bool{
	"web.addr":         true,
	"telnet.addr":      true,
	"metrics.addr":     true,
	"log.format":       true,
	"log.level":        true,
	"shutdown.timeout": true,
}

// Load builds a Config. When path is empty the XDG config file is used if it
// exists. flags may be nil, in which case built-in defaults apply.
func Load(path string, flags *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	filePath, err := resolvePath(path)
	if err != nil {
		return nil, err
	}
	if filePath != "" {
		if err := k.Load(file.Provider(filePath), yaml.Parser()); err != nil {
			return nil, oops.Code("CONFIG_LOAD_FAILED").With("path", filePath).Wrap(err)
		}
		if err := ValidateRaw(k.Raw()); err != nil {
			return nil, oops.Code("CONFIG_SCHEMA_INVALID").With("path", filePath).Wrap(err)
		}
	}

	if flags == nil {
		flags = pflag.NewFlagSet("defaults", pflag.ContinueOnError)
		RegisterFlags(flags)
	}
	provider := posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, any) {
		key := strings.ReplaceAll(f.Name, "-", ".")
		if !configKeys[key] {
			return "", nil
		}
		return key, posflag.FlagVal(flags, f)
	})
	if err := k.Load(provider, nil); err != nil {
		return nil, oops.Code("CONFIG_FLAGS_FAILED").Wrap(err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, oops.Code("CONFIG_UNMARSHAL_FAILED").Wrap(err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func resolvePath(path string) (string, error) {
	if path != "" {
		if _, err := os.Stat(path); err != nil {
			return "", oops.Code("CONFIG_FILE_NOT_FOUND").With("path", path).Wrap(err)
		}
		return path, nil
	}
	def, err := xdg.ConfigFile()
	if err != nil {
		// No home directory means no default file; flags and defaults still apply.
		return "", nil
	}
	if _, err := os.Stat(def); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", nil
		}
		return "", oops.Code("CONFIG_LOAD_FAILED").With("path", def).Wrap(err)
	}
	return def, nil
}

// Validate checks values that flags can set without passing through the
// file schema.
func (c *Config) Validate() error {
	switch c.Log.Format {
	case "json", "text":
	default:
		return oops.Code("CONFIG_INVALID").
			With("key", "log.format").
			With("value", c.Log.Format).
			Errorf("log.format must be 'json' or 'text'")
	}
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return oops.Code("CONFIG_INVALID").
			With("key", "log.level").
			With("value", c.Log.Level).
			Errorf("log.level must be one of debug, info, warn, error")
	}
	if _, err := c.ShutdownTimeout(); err != nil {
		return err
	}
	return nil
}

// ShutdownTimeout parses shutdown.timeout.
func (c *Config) ShutdownTimeout() (time.Duration, error) {
	d, err := time.ParseDuration(c.Shutdown.Timeout)
	if err != nil {
		return 0, oops.Code("CONFIG_INVALID").
			With("key", "shutdown.timeout").
			With("value", c.Shutdown.Timeout).
			Wrap(err)
	}
	if d <= 0 {
		return 0, oops.Code("CONFIG_INVALID").
			With("key", "shutdown.timeout").
			With("value", c.Shutdown.Timeout).
			Errorf("shutdown.timeout must be positive")
	}
	return d, nil
}

// YAML renders the effective configuration.
func (c *Config) YAML() ([]byte, error) {
	out, err := yamlv3.Marshal(c)
	if err != nil {
		return nil, oops.Code("CONFIG_MARSHAL_FAILED").Wrap(err)
	}
	return out, nil
}
