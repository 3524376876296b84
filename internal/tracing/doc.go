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

/*
Package tracing implements the asynchronous batched trace exporter.

Producers hand finished spans to Exporter.Emit, which never blocks: a span
either enters a bounded queue or is counted as dropped. A single worker
goroutine drains the queue in batches, encodes each batch once as an
OTLP/JSON payload and POSTs it to every configured target in turn.

# Quick Start

	cfg := tracing.DefaultExporterConfig()
	cfg.Targets = tracing.ResolveTargets([]tracing.Target{
	    {Endpoint: "http://ingest.maple.localhost/v1/traces", IngestKey: "maple_pk_local"},
	})

	exp, err := tracing.New(cfg, tracing.WithLogger(logger))
	if err != nil {
	    return err
	}
	defer exp.Close(ctx)

	exp.Emit(observability.ForToolCall(call))

# Delivery

Delivery is best effort. A 2xx response adds the batch size to Sent for that
target; any other outcome adds it to Failed. Nothing is retried and a failing
target does not affect the others. Spans still queued when Close is called are
flushed before the worker exits; Close waits for that only as long as its
context allows.

# Metrics

MetricsCollector exposes the exporter's counters as OpenTelemetry observable
counters:

  - seqbridge_spans_enqueued_total
  - seqbridge_spans_sent_total
  - seqbridge_spans_failed_total
  - seqbridge_spans_dropped_total
  - seqbridge_queue_depth

# Key Components

  - Exporter: bounded queue plus flush worker
  - Target: one ingest endpoint and its key
  - SpanExporterAdapter: routes OpenTelemetry SDK spans into an Exporter

# Subpackages

  - export: OTLP/JSON encoding and HTTP delivery
  - redact: secret scrubbing for span attributes
*/
package tracing
