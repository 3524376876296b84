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

package config

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tombee/seqbridge/internal/secrets"
	"github.com/tombee/seqbridge/internal/tracing"
	"github.com/tombee/seqbridge/internal/tracing/redact"
	bridgeerrors "github.com/tombee/seqbridge/pkg/errors"
)

var envVars = []string{
	"SEQ_SOCKET_PATH", "SEQ_BRIDGE_LOG_LEVEL", "LOG_LEVEL", "LOG_FORMAT", "LOG_SOURCE",
	"SEQ_EVERRUNS_MAPLE_LOCAL_ENDPOINT", "SEQ_EVERRUNS_MAPLE_LOCAL_INGEST_KEY",
	"SEQ_EVERRUNS_MAPLE_HOSTED_ENDPOINT", "SEQ_EVERRUNS_MAPLE_HOSTED_INGEST_KEY",
	"SEQ_EVERRUNS_MAPLE_TRACES_ENDPOINTS", "SEQ_EVERRUNS_MAPLE_INGEST_KEYS",
	"SEQ_EVERRUNS_MAPLE_QUEUE_CAPACITY", "SEQ_EVERRUNS_MAPLE_MAX_BATCH_SIZE",
	"SEQ_EVERRUNS_MAPLE_FLUSH_INTERVAL_MS",
}

// clearEnv blanks every variable Load reads. Blank counts as unset.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, name := range envVars {
		t.Setenv(name, "")
	}
}

func mapEnv(vars map[string]string) func(string) string {
	return func(key string) string { return vars[key] }
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, DefaultSocketPath, cfg.Socket.Path)
	assert.Equal(t, 30*time.Second, cfg.Socket.Timeout)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, 100, cfg.MCP.RateLimit)

	assert.Equal(t, tracing.DefaultQueueCapacity, cfg.Telemetry.QueueCapacity)
	assert.Equal(t, tracing.DefaultMaxBatchSize, cfg.Telemetry.MaxBatchSize)
	assert.Equal(t, tracing.DefaultFlushInterval, cfg.Telemetry.FlushInterval)
	assert.Equal(t, 2*time.Second, cfg.Telemetry.ShutdownTimeout)
	assert.False(t, cfg.TelemetryEnabled())
	assert.NoError(t, cfg.Validate())
}

func TestLoad_NoFile(t *testing.T) {
	clearEnv(t)

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, DefaultSocketPath, cfg.Socket.Path)
	assert.False(t, cfg.TelemetryEnabled())
}

func TestLoad_File(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, `
socket:
  path: /run/seqd.sock
log:
  level: debug
telemetry:
  service_name: bridge-test
  max_batch_size: 16
  flush_interval: 100ms
  local:
    endpoint: http://localhost:4318/v1/traces
    ingest_key: local-key
  targets:
    - endpoint: https://extra.example/v1/traces
      ingest_key: extra-key
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/run/seqd.sock", cfg.Socket.Path)
	assert.Equal(t, 30*time.Second, cfg.Socket.Timeout, "unset fields keep defaults")
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, "bridge-test", cfg.Telemetry.ServiceName)
	assert.Equal(t, 16, cfg.Telemetry.MaxBatchSize)
	assert.Equal(t, 100*time.Millisecond, cfg.Telemetry.FlushInterval)
	assert.Equal(t, tracing.DefaultQueueCapacity, cfg.Telemetry.QueueCapacity)

	assert.Equal(t, []TargetConfig{
		{Endpoint: "http://localhost:4318/v1/traces", IngestKey: "local-key"},
		{Endpoint: "https://extra.example/v1/traces", IngestKey: "extra-key"},
	}, cfg.Telemetry.Targets())
}

func TestLoad_MissingFile(t *testing.T) {
	clearEnv(t)

	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)

	var cfgErr *bridgeerrors.ConfigError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "config_file", cfgErr.Key)
}

func TestLoad_InvalidYAML(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, "socket: [unterminated")

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse YAML")
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, `
socket:
  path: /run/seqd.sock
telemetry:
  local:
    endpoint: http://file.local/v1/traces
    ingest_key: file-key
`)
	t.Setenv("SEQ_SOCKET_PATH", "/tmp/other.sock")
	t.Setenv("LOG_FORMAT", "TEXT")
	t.Setenv("SEQ_EVERRUNS_MAPLE_LOCAL_ENDPOINT", "http://env.local/v1/traces")
	t.Setenv("SEQ_EVERRUNS_MAPLE_LOCAL_INGEST_KEY", "env-key")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/tmp/other.sock", cfg.Socket.Path)
	assert.Equal(t, "text", cfg.Log.Format)
	assert.Equal(t, TargetConfig{Endpoint: "http://env.local/v1/traces", IngestKey: "env-key"}, cfg.Telemetry.Local)
}

func TestLoad_IncompleteFilePair(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, `
telemetry:
  hosted:
    endpoint: https://hosted.example/v1/traces
`)

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "telemetry.hosted")
	assert.Contains(t, err.Error(), "endpoint/key must both be set")
}

func TestLoad_InvalidLogLevel(t *testing.T) {
	clearEnv(t)
	t.Setenv("LOG_LEVEL", "chatty")

	_, err := Load("")
	require.Error(t, err)

	var valErr *bridgeerrors.ValidationError
	require.ErrorAs(t, err, &valErr)
	assert.Equal(t, "log.level", valErr.Field)
}

func TestLoadFromEnv_LogLevelPrecedence(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.loadFromEnv(mapEnv(map[string]string{
		"SEQ_BRIDGE_LOG_LEVEL": "Debug",
		"LOG_LEVEL":            "error",
		"LOG_SOURCE":           "true",
	})))

	assert.Equal(t, "debug", cfg.Log.Level)
	assert.True(t, cfg.Log.AddSource)
}

func TestTelemetryEnv_DualTargets(t *testing.T) {
	cfg := Default()
	err := cfg.loadFromEnv(mapEnv(map[string]string{
		"SEQ_EVERRUNS_MAPLE_LOCAL_ENDPOINT":    "http://127.0.0.1:3474/v1/traces",
		"SEQ_EVERRUNS_MAPLE_LOCAL_INGEST_KEY":  "maple_pk_local",
		"SEQ_EVERRUNS_MAPLE_HOSTED_ENDPOINT":   "https://ingest.maple.dev/v1/traces",
		"SEQ_EVERRUNS_MAPLE_HOSTED_INGEST_KEY": "maple_pk_hosted",
	}))
	require.NoError(t, err)

	assert.Equal(t, []TargetConfig{
		{Endpoint: "http://127.0.0.1:3474/v1/traces", IngestKey: "maple_pk_local"},
		{Endpoint: "https://ingest.maple.dev/v1/traces", IngestKey: "maple_pk_hosted"},
	}, cfg.Telemetry.Targets())
	assert.True(t, cfg.TelemetryEnabled())
}

func TestTelemetryEnv_IncompleteLocalPair(t *testing.T) {
	cfg := Default()
	err := cfg.loadFromEnv(mapEnv(map[string]string{
		"SEQ_EVERRUNS_MAPLE_LOCAL_ENDPOINT": "http://127.0.0.1:3474/v1/traces",
	}))
	require.Error(t, err)

	var cfgErr *bridgeerrors.ConfigError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "SEQ_EVERRUNS_MAPLE_LOCAL", cfgErr.Key)
	assert.Contains(t, err.Error(), "endpoint/key must both be set")
}

func TestTelemetryEnv_IncompleteHostedPair(t *testing.T) {
	cfg := Default()
	err := cfg.loadFromEnv(mapEnv(map[string]string{
		"SEQ_EVERRUNS_MAPLE_HOSTED_INGEST_KEY": "maple_pk_hosted",
	}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SEQ_EVERRUNS_MAPLE_HOSTED")
}

func TestTelemetryEnv_CSVCountMismatch(t *testing.T) {
	cfg := Default()
	err := cfg.loadFromEnv(mapEnv(map[string]string{
		"SEQ_EVERRUNS_MAPLE_TRACES_ENDPOINTS": "http://a/v1/traces,http://b/v1/traces",
		"SEQ_EVERRUNS_MAPLE_INGEST_KEYS":      "only-one",
	}))
	require.Error(t, err)
	assert.Contains(t, err.Error(),
		"SEQ_EVERRUNS_MAPLE_TRACES_ENDPOINTS count (2) does not match SEQ_EVERRUNS_MAPLE_INGEST_KEYS count (1)")
}

func TestTelemetryEnv_CSVAfterPairs(t *testing.T) {
	cfg := Default()
	err := cfg.loadFromEnv(mapEnv(map[string]string{
		"SEQ_EVERRUNS_MAPLE_LOCAL_ENDPOINT":   " http://local/v1/traces ",
		"SEQ_EVERRUNS_MAPLE_LOCAL_INGEST_KEY": "k-local",
		"SEQ_EVERRUNS_MAPLE_TRACES_ENDPOINTS": "http://a/v1/traces, ,http://local/v1/traces",
		"SEQ_EVERRUNS_MAPLE_INGEST_KEYS":      "k-a,k-local",
	}))
	require.NoError(t, err)

	assert.Equal(t, []TargetConfig{
		{Endpoint: "http://local/v1/traces", IngestKey: "k-local"},
		{Endpoint: "http://a/v1/traces", IngestKey: "k-a"},
		{Endpoint: "http://local/v1/traces", IngestKey: "k-local"},
	}, cfg.Telemetry.Targets(), "blank CSV entries are skipped; duplicates survive until export")
}

func TestTelemetryEnv_Numbers(t *testing.T) {
	tests := []struct {
		name      string
		env       map[string]string
		wantCap   int
		wantBatch int
		wantFlush time.Duration
	}{
		{
			name:      "valid",
			env:       map[string]string{"SEQ_EVERRUNS_MAPLE_QUEUE_CAPACITY": "10", "SEQ_EVERRUNS_MAPLE_MAX_BATCH_SIZE": "5", "SEQ_EVERRUNS_MAPLE_FLUSH_INTERVAL_MS": "20"},
			wantCap:   10,
			wantBatch: 5,
			wantFlush: 20 * time.Millisecond,
		},
		{
			name:      "zero is clamped",
			env:       map[string]string{"SEQ_EVERRUNS_MAPLE_QUEUE_CAPACITY": "0", "SEQ_EVERRUNS_MAPLE_MAX_BATCH_SIZE": "0", "SEQ_EVERRUNS_MAPLE_FLUSH_INTERVAL_MS": "0"},
			wantCap:   1,
			wantBatch: 1,
			wantFlush: time.Millisecond,
		},
		{
			name:      "unparseable falls back to default",
			env:       map[string]string{"SEQ_EVERRUNS_MAPLE_QUEUE_CAPACITY": "lots", "SEQ_EVERRUNS_MAPLE_MAX_BATCH_SIZE": "-3", "SEQ_EVERRUNS_MAPLE_FLUSH_INTERVAL_MS": "1.5"},
			wantCap:   tracing.DefaultQueueCapacity,
			wantBatch: tracing.DefaultMaxBatchSize,
			wantFlush: tracing.DefaultFlushInterval,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			require.NoError(t, cfg.loadFromEnv(mapEnv(tt.env)))

			assert.Equal(t, tt.wantCap, cfg.Telemetry.QueueCapacity)
			assert.Equal(t, tt.wantBatch, cfg.Telemetry.MaxBatchSize)
			assert.Equal(t, tt.wantFlush, cfg.Telemetry.FlushInterval)
		})
	}
}

func TestTelemetryValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*TelemetryConfig)
		wantErr string
	}{
		{name: "defaults", mutate: func(*TelemetryConfig) {}},
		{name: "zero batch", mutate: func(c *TelemetryConfig) { c.MaxBatchSize = 0 }, wantErr: "max_batch_size"},
		{name: "zero flush", mutate: func(c *TelemetryConfig) { c.FlushInterval = 0 }, wantErr: "flush_interval"},
		{name: "negative shutdown", mutate: func(c *TelemetryConfig) { c.ShutdownTimeout = -time.Second }, wantErr: "timeouts"},
		{name: "unknown redaction", mutate: func(c *TelemetryConfig) { c.Redaction = "paranoid" }, wantErr: "redaction"},
		{name: "extra missing key", mutate: func(c *TelemetryConfig) {
			c.Extra = []TargetConfig{{Endpoint: "http://x/v1/traces"}}
		}, wantErr: "telemetry.targets[0]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tc := defaultTelemetry()
			tt.mutate(&tc)

			err := tc.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestTelemetryValidate_ReportsFirstIncompletePair(t *testing.T) {
	tc := defaultTelemetry()
	tc.Local = TargetConfig{Endpoint: "http://127.0.0.1:3474/v1/traces"}
	tc.Hosted = TargetConfig{IngestKey: "maple_pk_hosted"}
	tc.Extra = []TargetConfig{{Endpoint: "http://x/v1/traces"}}

	for i := 0; i < 50; i++ {
		err := tc.Validate()
		require.Error(t, err)

		var cfgErr *bridgeerrors.ConfigError
		require.ErrorAs(t, err, &cfgErr)
		assert.Equal(t, "telemetry.local", cfgErr.Key)
	}

	tc.Local = TargetConfig{}
	for i := 0; i < 50; i++ {
		var cfgErr *bridgeerrors.ConfigError
		require.ErrorAs(t, tc.Validate(), &cfgErr)
		assert.Equal(t, "telemetry.hosted", cfgErr.Key)
	}
}

func TestRedactionMode(t *testing.T) {
	cfg := Default()
	assert.Equal(t, redact.ModeStandard, cfg.RedactionMode())

	cfg.Telemetry.Redaction = "strict"
	assert.Equal(t, redact.ModeStrict, cfg.RedactionMode())
}

func TestExporterConfig_NoTargets(t *testing.T) {
	tc := defaultTelemetry()

	exp, err := tc.ExporterConfig(context.Background(), secrets.NewResolver())
	require.NoError(t, err)
	assert.Nil(t, exp)
}

func TestExporterConfig_ResolvesAndDedups(t *testing.T) {
	t.Setenv("SEQBRIDGE_TEST_HOSTED_KEY", "maple_sk_resolved")

	tc := defaultTelemetry()
	tc.ServiceVersion = "1.2.3"
	tc.Local = TargetConfig{Endpoint: "http://local/v1/traces", IngestKey: "literal-key"}
	tc.Hosted = TargetConfig{Endpoint: "https://hosted/v1/traces", IngestKey: "env:SEQBRIDGE_TEST_HOSTED_KEY"}
	tc.Extra = []TargetConfig{{Endpoint: "http://local/v1/traces", IngestKey: "literal-key"}}

	exp, err := tc.ExporterConfig(context.Background(), secrets.NewResolver(secrets.NewEnvBackend()))
	require.NoError(t, err)
	require.NotNil(t, exp)

	assert.Equal(t, []tracing.Target{
		{Endpoint: "http://local/v1/traces", IngestKey: "literal-key"},
		{Endpoint: "https://hosted/v1/traces", IngestKey: "maple_sk_resolved"},
	}, exp.Targets)
	assert.Equal(t, "1.2.3", exp.ServiceVersion)
	assert.Equal(t, tc.MaxBatchSize, exp.MaxBatchSize)
	assert.NoError(t, exp.Validate())
}

func TestExporterConfig_UnresolvableKey(t *testing.T) {
	t.Setenv("SEQBRIDGE_TEST_MISSING_KEY", "")

	tc := defaultTelemetry()
	tc.Hosted = TargetConfig{Endpoint: "https://hosted/v1/traces", IngestKey: "env:SEQBRIDGE_TEST_MISSING_KEY"}

	_, err := tc.ExporterConfig(context.Background(), secrets.NewResolver(secrets.NewEnvBackend()))
	require.Error(t, err)
	assert.True(t, errors.Is(err, secrets.ErrSecretNotFound))
	assert.Contains(t, err.Error(), "https://hosted/v1/traces")
	assert.NotContains(t, err.Error(), "SEQBRIDGE_TEST_MISSING_KEY=")
}

func TestConfigDir(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/xdg")

	dir, err := ConfigDir()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("/xdg", "seqbridge"), dir)
}

func TestDefaultPath(t *testing.T) {
	base := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", base)
	assert.Empty(t, DefaultPath())

	require.NoError(t, os.MkdirAll(filepath.Join(base, "seqbridge"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(base, "seqbridge", "config.yaml"), []byte("{}"), 0o600))
	assert.Equal(t, filepath.Join(base, "seqbridge", "config.yaml"), DefaultPath())
}
