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
	"sync/atomic"

	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"

	"github.com/tombee/seqbridge/pkg/observability"
)

// SpanExporterAdapter lets an OpenTelemetry SDK tracer provider feed spans
// into an Emitter such as *Exporter. Batching and delivery stay with the
// emitter; the adapter only converts.
type SpanExporterAdapter struct {
	emitter  observability.Emitter
	shutdown atomic.Bool
}

// NewSpanExporterAdapter creates an adapter that emits to emitter.
func NewSpanExporterAdapter(emitter observability.Emitter) *SpanExporterAdapter {
	return &SpanExporterAdapter{emitter: emitter}
}

// ExportSpans converts and emits each span. It never fails: a full queue
// shows up in the emitter's dropped count instead.
func (a *SpanExporterAdapter) ExportSpans(ctx context.Context, spans []sdktrace.ReadOnlySpan) error {
	if a.shutdown.Load() {
		return nil
	}
	for _, s := range spans {
		a.emitter.Emit(convertOTelSpan(s))
	}
	return nil
}

// Shutdown stops forwarding spans. The emitter's lifecycle belongs to its
// owner and is left alone.
func (a *SpanExporterAdapter) Shutdown(ctx context.Context) error {
	a.shutdown.Store(true)
	return nil
}

// convertOTelSpan converts an OpenTelemetry span to observability.Span.
// Attribute values of every type are rendered as strings; span events and
// links have no place in the wire format and are skipped.
func convertOTelSpan(otelSpan sdktrace.ReadOnlySpan) observability.Span {
	span := observability.Span{
		TraceID:           otelSpan.SpanContext().TraceID().String(),
		SpanID:            otelSpan.SpanContext().SpanID().String(),
		Name:              otelSpan.Name(),
		StartTimeUnixNano: unixNano(otelSpan.StartTime().UnixNano()),
		EndTimeUnixNano:   unixNano(otelSpan.EndTime().UnixNano()),
	}
	if span.EndTimeUnixNano < span.StartTimeUnixNano {
		span.EndTimeUnixNano = span.StartTimeUnixNano
	}

	if otelSpan.Parent().IsValid() {
		span.ParentSpanID = otelSpan.Parent().SpanID().String()
	}

	switch otelSpan.SpanKind() {
	case trace.SpanKindInternal:
		span.Kind = observability.SpanKindInternal
	case trace.SpanKindClient:
		span.Kind = observability.SpanKindClient
	case trace.SpanKindServer:
		span.Kind = observability.SpanKindServer
	case trace.SpanKindProducer:
		span.Kind = observability.SpanKindProducer
	case trace.SpanKindConsumer:
		span.Kind = observability.SpanKindConsumer
	default:
		span.Kind = observability.SpanKindInternal
	}

	status := otelSpan.Status()
	switch status.Code {
	case codes.Ok:
		span.StatusCode = observability.StatusCodeOK
	case codes.Error:
		span.StatusCode = observability.StatusCodeError
		span.StatusMessage = status.Description
	default:
		span.StatusCode = observability.StatusCodeUnset
	}

	attrs := otelSpan.Attributes()
	span.Attributes = make([]observability.Attribute, 0, len(attrs))
	for _, attr := range attrs {
		span.Attributes = append(span.Attributes, observability.Attr(string(attr.Key), attr.Value.Emit()))
	}

	return span
}

func unixNano(n int64) uint64 {
	if n < 0 {
		return 0
	}
	return uint64(n)
}

var _ sdktrace.SpanExporter = (*SpanExporterAdapter)(nil)
