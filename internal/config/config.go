// Copyright 2025 Tom Barlow
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package config loads seqbridge configuration.
//
// Values come from three layers, later ones winning: built-in defaults, an
// optional YAML file, and environment variables. Telemetry targets follow
// the SEQ_EVERRUNS_MAPLE_* variables used by the rest of the Everruns
// tooling, so an existing environment works unchanged.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/tombee/seqbridge/internal/rpc"
	"github.com/tombee/seqbridge/internal/tracing"
	"github.com/tombee/seqbridge/internal/tracing/redact"
	bridgeerrors "github.com/tombee/seqbridge/pkg/errors"
)

// DefaultSocketPath is where seqd listens unless told otherwise.
const DefaultSocketPath = rpc.DefaultSocketPath

// Config is the complete seqbridge configuration.
type Config struct {
	// Socket configures the connection to seqd.
	Socket SocketConfig `yaml:"socket"`

	// Log configures structured logging.
	Log LogConfig `yaml:"log"`

	// MCP configures the stdio tool server.
	MCP MCPConfig `yaml:"mcp"`

	// Telemetry configures span export. Export is disabled when no target
	// is configured.
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// SocketConfig configures the seqd connection.
type SocketConfig struct {
	// Path is the unix socket path. Env: SEQ_SOCKET_PATH.
	Path string `yaml:"path"`

	// Timeout bounds each request/response exchange. Zero means no limit.
	Timeout time.Duration `yaml:"timeout"`
}

// LogConfig configures logging. Output always goes to stderr.
type LogConfig struct {
	// Level is trace, debug, info, warn or error.
	Level string `yaml:"level"`

	// Format is json or text.
	Format string `yaml:"format"`

	// AddSource adds file:line to each record.
	AddSource bool `yaml:"add_source"`
}

// MCPConfig configures the MCP tool server.
type MCPConfig struct {
	// SessionID correlates every tool call served by this process. A random
	// id is generated when empty.
	SessionID string `yaml:"session_id"`

	// RateLimit is the maximum tool calls per minute. Zero disables limiting.
	RateLimit int `yaml:"rate_limit"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Socket: SocketConfig{
			Path:    DefaultSocketPath,
			Timeout: 30 * time.Second,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
		MCP: MCPConfig{
			RateLimit: 100,
		},
		Telemetry: defaultTelemetry(),
	}
}

// Load reads configuration from configPath (optional), then applies
// defaults and environment overrides, and validates the result.
func Load(configPath string) (*Config, error) {
	cfg := Default()

	if configPath != "" {
		if err := cfg.loadFromFile(configPath); err != nil {
			return nil, &bridgeerrors.ConfigError{
				Key:    "config_file",
				Reason: fmt.Sprintf("failed to load from %s", configPath),
				Cause:  err,
			}
		}
	}

	cfg.applyDefaults()

	if err := cfg.loadFromEnv(os.Getenv); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, &bridgeerrors.ConfigError{
			Key:    "validation",
			Reason: "configuration validation failed",
			Cause:  err,
		}
	}

	return cfg, nil
}

func (c *Config) loadFromFile(path string) error {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return bridgeerrors.Wrap(err, "failed to get home directory")
		}
		path = filepath.Join(home, path[2:])
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return bridgeerrors.Wrap(err, "failed to read config file")
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return bridgeerrors.Wrap(err, "failed to parse YAML")
	}

	return nil
}

// applyDefaults fills zero values left by a partial config file.
func (c *Config) applyDefaults() {
	defaults := Default()

	if c.Socket.Path == "" {
		c.Socket.Path = defaults.Socket.Path
	}
	if c.Log.Level == "" {
		c.Log.Level = defaults.Log.Level
	}
	if c.Log.Format == "" {
		c.Log.Format = defaults.Log.Format
	}

	c.Telemetry.applyDefaults()
}

// loadFromEnv overlays environment variables. getenv is os.Getenv outside
// of tests.
func (c *Config) loadFromEnv(getenv func(string) string) error {
	if val := nonEmpty(getenv("SEQ_SOCKET_PATH")); val != "" {
		c.Socket.Path = val
	}

	if val := nonEmpty(getenv("SEQ_BRIDGE_LOG_LEVEL")); val != "" {
		c.Log.Level = strings.ToLower(val)
	} else if val := nonEmpty(getenv("LOG_LEVEL")); val != "" {
		c.Log.Level = strings.ToLower(val)
	}
	if val := nonEmpty(getenv("LOG_FORMAT")); val != "" {
		c.Log.Format = strings.ToLower(val)
	}
	if val := nonEmpty(getenv("LOG_SOURCE")); val != "" {
		c.Log.AddSource = val == "1" || strings.ToLower(val) == "true"
	}

	return c.Telemetry.loadFromEnv(getenv)
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.Socket.Path == "" {
		return &bridgeerrors.ValidationError{Field: "socket.path", Message: "is required"}
	}
	if c.Socket.Timeout < 0 {
		return &bridgeerrors.ValidationError{Field: "socket.timeout", Message: "must be >= 0"}
	}

	switch c.Log.Level {
	case "trace", "debug", "info", "warn", "warning", "error":
	default:
		return &bridgeerrors.ValidationError{
			Field:      "log.level",
			Message:    fmt.Sprintf("unknown level %q", c.Log.Level),
			Suggestion: "use one of trace, debug, info, warn, error",
		}
	}
	switch c.Log.Format {
	case "json", "text":
	default:
		return &bridgeerrors.ValidationError{Field: "log.format", Message: fmt.Sprintf("unknown format %q", c.Log.Format)}
	}

	if c.MCP.RateLimit < 0 {
		return &bridgeerrors.ValidationError{Field: "mcp.rate_limit", Message: "must be >= 0"}
	}

	return c.Telemetry.Validate()
}

// TelemetryEnabled reports whether at least one target is configured.
func (c *Config) TelemetryEnabled() bool {
	return len(c.Telemetry.Targets()) > 0
}

// RedactionMode returns the parsed telemetry redaction mode.
func (c *Config) RedactionMode() redact.Mode {
	mode, err := redact.ParseMode(c.Telemetry.Redaction)
	if err != nil {
		return redact.ModeStandard
	}
	return mode
}

func defaultTelemetry() TelemetryConfig {
	d := tracing.DefaultExporterConfig()
	return TelemetryConfig{
		ServiceName:     d.ServiceName,
		Environment:     d.DeploymentEnvironment,
		ScopeName:       d.ScopeName,
		QueueCapacity:   d.QueueCapacity,
		MaxBatchSize:    d.MaxBatchSize,
		FlushInterval:   d.FlushInterval,
		ConnectTimeout:  d.ConnectTimeout,
		RequestTimeout:  d.RequestTimeout,
		ShutdownTimeout: 2 * time.Second,
		Redaction:       string(redact.ModeStandard),
	}
}

// nonEmpty trims s; blank values count as unset.
func nonEmpty(s string) string {
	return strings.TrimSpace(s)
}
