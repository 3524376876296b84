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

package shared

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"

	"github.com/tombee/seqbridge/internal/bridge"
	"github.com/tombee/seqbridge/internal/config"
	"github.com/tombee/seqbridge/internal/log"
	"github.com/tombee/seqbridge/internal/rpc"
	"github.com/tombee/seqbridge/internal/secrets"
	"github.com/tombee/seqbridge/internal/tracing"
	"github.com/tombee/seqbridge/internal/tracing/redact"
	"github.com/tombee/seqbridge/pkg/observability"
)

// Runtime holds what every bridge command needs: configuration, a logger
// and, when telemetry is configured, a running trace exporter.
type Runtime struct {
	Config *config.Config
	Logger *slog.Logger

	// Exporter is nil when no telemetry target is configured.
	Exporter *tracing.Exporter

	// Emitter redacts spans before handing them to Exporter. Nil when
	// Exporter is nil.
	Emitter observability.Emitter

	// TracerProvider feeds OpenTelemetry spans into Emitter. Nil when
	// Exporter is nil.
	TracerProvider *sdktrace.TracerProvider
}

// LoadConfig loads configuration from --config (or the default location)
// and applies the --socket and --verbose overrides.
func LoadConfig() (*config.Config, error) {
	path := GetConfigPath()
	if path == "" {
		path = config.DefaultPath()
	}

	cfg, err := config.Load(path)
	if err != nil {
		return nil, NewConfigError("failed to load configuration", err)
	}

	if socket := GetSocketPath(); socket != "" {
		cfg.Socket.Path = socket
	}
	if GetVerbose() {
		cfg.Log.Level = "debug"
	}
	return cfg, nil
}

// NewLogger builds the stderr logger described by cfg.
func NewLogger(cfg *config.Config) *slog.Logger {
	return log.New(&log.Config{
		Level:     cfg.Log.Level,
		Format:    log.Format(cfg.Log.Format),
		Output:    os.Stderr,
		AddSource: cfg.Log.AddSource,
	})
}

// NewRuntime loads configuration and starts the exporter if telemetry is
// configured.
func NewRuntime(ctx context.Context) (*Runtime, error) {
	cfg, err := LoadConfig()
	if err != nil {
		return nil, err
	}
	return NewRuntimeFromConfig(ctx, cfg, NewLogger(cfg))
}

// NewRuntimeFromConfig builds a Runtime from an already loaded config.
func NewRuntimeFromConfig(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Runtime, error) {
	rt := &Runtime{Config: cfg, Logger: logger}

	resolver := secrets.NewResolver(secrets.NewEnvBackend(), secrets.NewKeychainBackend())
	expCfg, err := cfg.Telemetry.ExporterConfig(ctx, resolver)
	if err != nil {
		return nil, NewConfigError("failed to configure telemetry", err)
	}
	if expCfg == nil {
		logger.Debug("telemetry disabled: no ingest targets configured")
		return rt, nil
	}

	exp, err := tracing.New(*expCfg, tracing.WithLogger(logger))
	if err != nil {
		return nil, NewConfigError("failed to start trace exporter", err)
	}
	rt.Exporter = exp
	rt.Emitter = redact.NewRedactor(cfg.RedactionMode()).Wrap(exp)
	rt.TracerProvider = sdktrace.NewTracerProvider(
		sdktrace.WithSyncer(tracing.NewSpanExporterAdapter(rt.Emitter)))

	targets := make([]string, 0, len(expCfg.Targets))
	for _, t := range exp.Targets() {
		targets = append(targets, t.String())
		logger.Debug("ingest target",
			slog.String(log.EndpointKey, t.Endpoint),
			slog.String("ingest_key", log.SanitizeAPIKey(t.IngestKey)))
	}
	logger.Info("telemetry enabled",
		slog.Any("targets", targets),
		slog.String("redaction", string(cfg.RedactionMode())))

	return rt, nil
}

// Dial connects to seqd using the configured socket and timeout.
func (r *Runtime) Dial(ctx context.Context) (*rpc.Client, error) {
	client, err := rpc.Dial(ctx, r.Config.Socket.Path,
		rpc.WithTimeout(r.Config.Socket.Timeout),
		rpc.WithLogger(r.Logger))
	if err != nil {
		return nil, NewSeqdUnavailableError("seqd is not reachable (is it running?)", err)
	}
	return client, nil
}

// Bridge creates a bridge over caller that reports spans to the exporter
// when one is running.
func (r *Runtime) Bridge(caller bridge.Caller) *bridge.Bridge {
	opts := []bridge.Option{bridge.WithLogger(r.Logger)}
	if r.Emitter != nil {
		opts = append(opts, bridge.WithEmitter(r.Emitter))
	}
	return bridge.New(caller, opts...)
}

// Tracer returns a tracer that exports through the runtime's emitter, or
// nil when telemetry is disabled.
func (r *Runtime) Tracer(name string) trace.Tracer {
	if r.TracerProvider == nil {
		return nil
	}
	return r.TracerProvider.Tracer(name)
}

// Close flushes the exporter, waiting at most the configured shutdown
// timeout, and logs the final delivery counters.
func (r *Runtime) Close() error {
	if r.Exporter == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), r.Config.Telemetry.ShutdownTimeout)
	defer cancel()

	if r.TracerProvider != nil {
		if err := r.TracerProvider.Shutdown(ctx); err != nil {
			r.Logger.Debug("tracer provider shutdown failed", log.Error(err))
		}
	}

	err := r.Exporter.Close(ctx)
	stats := r.Exporter.Stats()
	if err != nil {
		r.Logger.Warn("telemetry flush incomplete",
			slog.Any("stats", stats),
			slog.Int("queued", r.Exporter.QueueLen()),
			log.Error(err))
		if errors.Is(err, context.DeadlineExceeded) {
			return nil
		}
		return fmt.Errorf("failed to close trace exporter: %w", err)
	}

	r.Logger.Info("telemetry exporter closed", slog.Any("stats", stats))
	return nil
}
