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
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/tombee/seqbridge/internal/tracing"
	"github.com/tombee/seqbridge/internal/tracing/redact"
	bridgeerrors "github.com/tombee/seqbridge/pkg/errors"
)

// envPrefix prefixes every telemetry environment variable.
const envPrefix = "SEQ_EVERRUNS_MAPLE_"

// TelemetryConfig configures the trace exporter.
type TelemetryConfig struct {
	ServiceName    string `yaml:"service_name"`
	ServiceVersion string `yaml:"service_version"`
	Environment    string `yaml:"environment"`
	ScopeName      string `yaml:"scope_name"`

	QueueCapacity int           `yaml:"queue_capacity"`
	MaxBatchSize  int           `yaml:"max_batch_size"`
	FlushInterval time.Duration `yaml:"flush_interval"`

	ConnectTimeout time.Duration `yaml:"connect_timeout"`
	RequestTimeout time.Duration `yaml:"request_timeout"`

	// ShutdownTimeout bounds how long commands wait for queued spans to be
	// flushed on exit. Zero means do not wait.
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`

	// Redaction is none, standard or strict.
	Redaction string `yaml:"redaction"`

	// CACertPath optionally replaces the system CA pool for all targets.
	CACertPath string `yaml:"ca_cert_path"`

	// Local is the developer ingest endpoint.
	Local TargetConfig `yaml:"local"`

	// Hosted is the shared ingest endpoint.
	Hosted TargetConfig `yaml:"hosted"`

	// Extra lists further targets.
	Extra []TargetConfig `yaml:"targets"`
}

// TargetConfig is one endpoint/key pair as configured. IngestKey may be a
// secret reference such as "env:NAME" or "keychain:NAME".
type TargetConfig struct {
	Endpoint  string `yaml:"endpoint"`
	IngestKey string `yaml:"ingest_key"`
}

func (t TargetConfig) complete() bool {
	return t.Endpoint != "" && t.IngestKey != ""
}

func (t TargetConfig) empty() bool {
	return t.Endpoint == "" && t.IngestKey == ""
}

// SecretResolver turns a configured ingest key into the real key.
type SecretResolver interface {
	Resolve(ctx context.Context, value string) (string, error)
}

func (t *TelemetryConfig) applyDefaults() {
	d := defaultTelemetry()

	if t.ServiceName == "" {
		t.ServiceName = d.ServiceName
	}
	if t.Environment == "" {
		t.Environment = d.Environment
	}
	if t.ScopeName == "" {
		t.ScopeName = d.ScopeName
	}
	if t.QueueCapacity == 0 {
		t.QueueCapacity = d.QueueCapacity
	}
	if t.MaxBatchSize == 0 {
		t.MaxBatchSize = d.MaxBatchSize
	}
	if t.FlushInterval == 0 {
		t.FlushInterval = d.FlushInterval
	}
	if t.ConnectTimeout == 0 {
		t.ConnectTimeout = d.ConnectTimeout
	}
	if t.RequestTimeout == 0 {
		t.RequestTimeout = d.RequestTimeout
	}
	if t.Redaction == "" {
		t.Redaction = d.Redaction
	}
}

// loadFromEnv overlays the SEQ_EVERRUNS_MAPLE_* variables. A pair with only
// one half set, or CSV lists of different lengths, is an error.
func (t *TelemetryConfig) loadFromEnv(getenv func(string) string) error {
	env := func(name string) string { return nonEmpty(getenv(envPrefix + name)) }

	if val := env("SERVICE_NAME"); val != "" {
		t.ServiceName = val
	}
	if val := env("SERVICE_VERSION"); val != "" {
		t.ServiceVersion = val
	}
	if val := env("ENV"); val != "" {
		t.Environment = val
	}
	if val := env("SCOPE_NAME"); val != "" {
		t.ScopeName = val
	}

	if n, ok := parseCount(env("QUEUE_CAPACITY")); ok {
		t.QueueCapacity = n
	}
	if n, ok := parseCount(env("MAX_BATCH_SIZE")); ok {
		t.MaxBatchSize = n
	}
	if d, ok := parseMillis(env("FLUSH_INTERVAL_MS")); ok {
		// A zero interval would spin the worker.
		t.FlushInterval = max(d, time.Millisecond)
	}
	if d, ok := parseMillis(env("CONNECT_TIMEOUT_MS")); ok {
		t.ConnectTimeout = d
	}
	if d, ok := parseMillis(env("REQUEST_TIMEOUT_MS")); ok {
		t.RequestTimeout = d
	}

	local, err := envPair(env, "LOCAL")
	if err != nil {
		return err
	}
	if local != nil {
		t.Local = *local
	}

	hosted, err := envPair(env, "HOSTED")
	if err != nil {
		return err
	}
	if hosted != nil {
		t.Hosted = *hosted
	}

	endpoints := splitCSV(env("TRACES_ENDPOINTS"))
	keys := splitCSV(env("INGEST_KEYS"))
	if len(endpoints) > 0 || len(keys) > 0 {
		if len(endpoints) != len(keys) {
			return &bridgeerrors.ConfigError{
				Key: envPrefix + "TRACES_ENDPOINTS",
				Reason: fmt.Sprintf("%sTRACES_ENDPOINTS count (%d) does not match %sINGEST_KEYS count (%d)",
					envPrefix, len(endpoints), envPrefix, len(keys)),
			}
		}
		t.Extra = make([]TargetConfig, len(endpoints))
		for i := range endpoints {
			t.Extra[i] = TargetConfig{Endpoint: endpoints[i], IngestKey: keys[i]}
		}
	}

	return nil
}

// envPair reads <PREFIX>_ENDPOINT and <PREFIX>_INGEST_KEY. It returns nil
// when neither is set.
func envPair(env func(string) string, name string) (*TargetConfig, error) {
	pair := TargetConfig{
		Endpoint:  env(name + "_ENDPOINT"),
		IngestKey: env(name + "_INGEST_KEY"),
	}
	switch {
	case pair.empty():
		return nil, nil
	case pair.complete():
		return &pair, nil
	default:
		return nil, &bridgeerrors.ConfigError{
			Key:    envPrefix + name,
			Reason: "endpoint/key must both be set",
		}
	}
}

// Validate checks the telemetry section.
func (t *TelemetryConfig) Validate() error {
	if t.QueueCapacity < 1 {
		return &bridgeerrors.ValidationError{Field: "telemetry.queue_capacity", Message: "must be >= 1"}
	}
	if t.MaxBatchSize < 1 {
		return &bridgeerrors.ValidationError{Field: "telemetry.max_batch_size", Message: "must be >= 1"}
	}
	if t.FlushInterval <= 0 {
		return &bridgeerrors.ValidationError{Field: "telemetry.flush_interval", Message: "must be > 0"}
	}
	if t.ConnectTimeout < 0 || t.RequestTimeout < 0 || t.ShutdownTimeout < 0 {
		return &bridgeerrors.ValidationError{Field: "telemetry", Message: "timeouts must be >= 0"}
	}
	if _, err := redact.ParseMode(t.Redaction); err != nil {
		return &bridgeerrors.ValidationError{Field: "telemetry.redaction", Message: err.Error()}
	}

	// Checked in delivery order so the first incomplete pair is reported.
	type namedTarget struct {
		key    string
		target TargetConfig
	}
	named := []namedTarget{{"telemetry.local", t.Local}, {"telemetry.hosted", t.Hosted}}
	for i, extra := range t.Extra {
		named = append(named, namedTarget{fmt.Sprintf("telemetry.targets[%d]", i), extra})
	}
	for _, n := range named {
		if !n.target.empty() && !n.target.complete() {
			return &bridgeerrors.ConfigError{Key: n.key, Reason: "endpoint/key must both be set"}
		}
	}
	return nil
}

// Targets returns the configured pairs in delivery order: local, hosted,
// then the extra list. Keys are returned unresolved and duplicates are kept.
func (t *TelemetryConfig) Targets() []TargetConfig {
	var out []TargetConfig
	for _, target := range append([]TargetConfig{t.Local, t.Hosted}, t.Extra...) {
		if target.complete() {
			out = append(out, target)
		}
	}
	return out
}

// ExporterConfig resolves secret references and returns the exporter
// config, or nil when no target is configured.
func (t *TelemetryConfig) ExporterConfig(ctx context.Context, resolver SecretResolver) (*tracing.ExporterConfig, error) {
	configured := t.Targets()
	if len(configured) == 0 {
		return nil, nil
	}

	targets := make([]tracing.Target, 0, len(configured))
	for _, target := range configured {
		key, err := resolver.Resolve(ctx, target.IngestKey)
		if err != nil {
			return nil, &bridgeerrors.ConfigError{
				Key:    "telemetry.ingest_key",
				Reason: fmt.Sprintf("cannot resolve ingest key for %s", target.Endpoint),
				Cause:  err,
			}
		}
		targets = append(targets, tracing.Target{Endpoint: target.Endpoint, IngestKey: key})
	}

	return &tracing.ExporterConfig{
		ServiceName:           t.ServiceName,
		ServiceVersion:        t.ServiceVersion,
		DeploymentEnvironment: t.Environment,
		ScopeName:             t.ScopeName,
		QueueCapacity:         t.QueueCapacity,
		MaxBatchSize:          t.MaxBatchSize,
		FlushInterval:         t.FlushInterval,
		ConnectTimeout:        t.ConnectTimeout,
		RequestTimeout:        t.RequestTimeout,
		CACertPath:            t.CACertPath,
		Targets:               tracing.ResolveTargets(targets),
	}, nil
}

func splitCSV(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if v := nonEmpty(part); v != "" {
			out = append(out, v)
		}
	}
	return out
}

// parseCount parses a non-negative integer, clamping it to at least 1.
// Unparseable values are ignored.
func parseCount(s string) (int, bool) {
	if s == "" {
		return 0, false
	}
	n, err := strconv.ParseUint(s, 10, 31)
	if err != nil {
		return 0, false
	}
	return max(int(n), 1), true
}

func parseMillis(s string) (time.Duration, bool) {
	if s == "" {
		return 0, false
	}
	ms, err := strconv.ParseUint(s, 10, 32)
	if err != nil {
		return 0, false
	}
	return time.Duration(ms) * time.Millisecond, true
}
