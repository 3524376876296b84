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

package tracing

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/tombee/seqbridge/internal/tracing/export"
	"github.com/tombee/seqbridge/pkg/httpclient"
	"github.com/tombee/seqbridge/pkg/observability"
)

// Exporter queues spans without blocking and delivers them in batches from a
// single worker goroutine. It is safe for concurrent use.
type Exporter struct {
	cfg      ExporterConfig
	resource export.Resource
	clients  []*export.Client
	logger   *slog.Logger

	queue   chan observability.Span
	closing chan struct{}
	done    chan struct{}

	// gate orders Emit against Close: closing is closed under the write
	// lock, so every accepted span is in the queue before the final drain.
	gate sync.RWMutex

	startOnce sync.Once
	closeOnce sync.Once

	stats counters
}

// Option configures an Exporter.
type Option func(*Exporter)

// WithLogger sets the logger used for delivery failures and lifecycle events.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Exporter) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithHTTPClient makes every target share client instead of one built from
// the config's timeouts.
func WithHTTPClient(client *http.Client) Option {
	return func(e *Exporter) {
		for i, t := range e.cfg.Targets {
			e.clients[i] = export.NewClient(t.Endpoint, t.IngestKey, client)
		}
	}
}

// New validates cfg, builds the HTTP clients and starts the worker.
func New(cfg ExporterConfig, opts ...Option) (*Exporter, error) {
	e, err := newExporter(cfg, opts...)
	if err != nil {
		return nil, err
	}
	e.start()
	return e, nil
}

// newExporter builds an Exporter without starting its worker.
func newExporter(cfg ExporterConfig, opts ...Option) (*Exporter, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid exporter config: %w", err)
	}
	cfg.Targets = ResolveTargets(cfg.Targets)

	e := &Exporter{
		cfg: cfg,
		resource: export.Resource{
			ServiceName:           cfg.ServiceName,
			ServiceVersion:        cfg.ServiceVersion,
			DeploymentEnvironment: cfg.DeploymentEnvironment,
			ScopeName:             cfg.ScopeName,
		},
		clients: make([]*export.Client, len(cfg.Targets)),
		logger:  slog.Default(),
		queue:   make(chan observability.Span, cfg.QueueCapacity),
		closing: make(chan struct{}),
		done:    make(chan struct{}),
	}

	for _, opt := range opts {
		opt(e)
	}
	e.logger = e.logger.With("component", "trace_exporter")

	if e.clients[0] == nil {
		httpClient, err := httpclient.New(httpclient.Config{
			Timeout:        cfg.RequestTimeout,
			ConnectTimeout: cfg.ConnectTimeout,
			UserAgent:      "seqbridge-exporter/1.0",
			CACertPath:     cfg.CACertPath,
			Logger:         e.logger,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create HTTP client: %w", err)
		}
		for i, t := range cfg.Targets {
			e.clients[i] = export.NewClient(t.Endpoint, t.IngestKey, httpClient)
		}
	}

	return e, nil
}

func (e *Exporter) start() {
	e.startOnce.Do(func() {
		go e.run()
	})
}

// Emit queues span for delivery. It never blocks: when the queue is full, or
// the exporter is closed, the span is counted as dropped and discarded.
func (e *Exporter) Emit(span observability.Span) {
	e.gate.RLock()
	defer e.gate.RUnlock()

	select {
	case <-e.closing:
		e.stats.dropped.Add(1)
		return
	default:
	}

	select {
	case e.queue <- span:
		e.stats.enqueued.Add(1)
	default:
		e.stats.dropped.Add(1)
	}
}

// Stats returns a snapshot of the exporter's counters.
func (e *Exporter) Stats() Stats {
	return e.stats.snapshot()
}

// QueueLen returns the number of spans waiting for the worker.
func (e *Exporter) QueueLen() int {
	return len(e.queue)
}

// Targets returns the deduplicated targets in delivery order.
func (e *Exporter) Targets() []Target {
	return append([]Target(nil), e.cfg.Targets...)
}

// Done is closed once the worker has exited.
func (e *Exporter) Done() <-chan struct{} {
	return e.done
}

// Close stops accepting spans and waits for the worker to flush what is
// still queued. It returns ctx.Err() if ctx ends first; the worker keeps
// draining in the background. Close is idempotent.
func (e *Exporter) Close(ctx context.Context) error {
	e.closeOnce.Do(func() {
		e.gate.Lock()
		close(e.closing)
		e.gate.Unlock()
		e.start()
	})

	select {
	case <-e.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (e *Exporter) run() {
	defer close(e.done)

	batch := make([]observability.Span, 0, e.cfg.MaxBatchSize)
	timer := time.NewTimer(e.cfg.FlushInterval)
	defer timer.Stop()

	for {
		select {
		case span := <-e.queue:
			batch = e.drain(append(batch, span))
			e.flush(batch)
			batch = batch[:0]
		case <-timer.C:
			// Nothing arrived within the interval; keep waiting.
		case <-e.closing:
			e.shutdown(batch)
			return
		}
		resetTimer(timer, e.cfg.FlushInterval)
	}
}

// drain appends queued spans to batch until it is full or the queue is
// momentarily empty.
func (e *Exporter) drain(batch []observability.Span) []observability.Span {
	for len(batch) < e.cfg.MaxBatchSize {
		select {
		case span := <-e.queue:
			batch = append(batch, span)
		default:
			return batch
		}
	}
	return batch
}

// shutdown flushes every span left in the queue, MaxBatchSize at a time.
func (e *Exporter) shutdown(batch []observability.Span) {
	for {
		batch = e.drain(batch)
		if len(batch) == 0 {
			break
		}
		e.flush(batch)
		batch = batch[:0]
	}
	e.logger.Debug("trace exporter stopped", "stats", e.Stats())
}

func (e *Exporter) flush(batch []observability.Span) {
	if len(batch) == 0 {
		return
	}

	body, err := export.EncodeTraces(e.resource, batch)
	if err != nil {
		panic(fmt.Sprintf("tracing: encode batch: %v", err))
	}

	n := uint64(len(batch))
	for _, client := range e.clients {
		if err := client.Deliver(context.Background(), body); err != nil {
			e.stats.failed.Add(n)
			e.logger.Warn("span delivery failed",
				"endpoint", client.Endpoint(),
				"spans", n,
				"error", err)
			continue
		}
		e.stats.sent.Add(n)
	}
}

func resetTimer(t *time.Timer, d time.Duration) {
	if !t.Stop() {
		select {
		case <-t.C:
		default:
		}
	}
	t.Reset(d)
}

var _ observability.Emitter = (*Exporter)(nil)
