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

package export

import (
	"bytes"
	"encoding/json"
	"strconv"

	"github.com/tombee/seqbridge/pkg/observability"
)

// Resource identifies the service that produced a batch of spans.
type Resource struct {
	ServiceName           string
	ServiceVersion        string
	DeploymentEnvironment string
	ScopeName             string
}

// Attributes returns the resource attributes in wire order. service.version
// is omitted when empty.
func (r Resource) Attributes() []observability.Attribute {
	attrs := []observability.Attribute{
		observability.Attr("service.name", r.ServiceName),
		observability.Attr("deployment.environment", r.DeploymentEnvironment),
	}
	if r.ServiceVersion != "" {
		attrs = append(attrs, observability.Attr("service.version", r.ServiceVersion))
	}
	return attrs
}

// TracesPayload is the top-level OTLP/JSON export request.
type TracesPayload struct {
	ResourceSpans []ResourceSpans `json:"resourceSpans"`
}

// ResourceSpans groups the spans of one resource.
type ResourceSpans struct {
	Resource   ResourceJSON `json:"resource"`
	ScopeSpans []ScopeSpans `json:"scopeSpans"`
}

// ResourceJSON carries the resource attributes.
type ResourceJSON struct {
	Attributes []KeyValue `json:"attributes"`
}

// ScopeSpans groups the spans of one instrumentation scope.
type ScopeSpans struct {
	Scope Scope      `json:"scope"`
	Spans []SpanJSON `json:"spans"`
}

// Scope names the instrumentation scope.
type Scope struct {
	Name string `json:"name"`
}

// SpanJSON is one span on the wire. Timestamps are decimal strings so that
// consumers parsing JSON numbers as float64 keep full precision.
type SpanJSON struct {
	TraceID           string     `json:"traceId"`
	SpanID            string     `json:"spanId"`
	ParentSpanID      string     `json:"parentSpanId"`
	Name              string     `json:"name"`
	Kind              int        `json:"kind"`
	StartTimeUnixNano string     `json:"startTimeUnixNano"`
	EndTimeUnixNano   string     `json:"endTimeUnixNano"`
	Attributes        []KeyValue `json:"attributes"`
	Status            Status     `json:"status"`
}

// KeyValue is one attribute. Every value is sent as a string.
type KeyValue struct {
	Key   string   `json:"key"`
	Value AnyValue `json:"value"`
}

// AnyValue holds an attribute value.
type AnyValue struct {
	StringValue string `json:"stringValue"`
}

// Status is the span status. Code 1 is ok and 2 is error.
type Status struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// EncodeTraces builds the JSON document for one flush. HTML characters in
// attribute values are written as-is, not as \u escapes.
func EncodeTraces(resource Resource, spans []observability.Span) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(BuildPayload(resource, spans)); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

// BuildPayload converts spans into the wire structure without serializing it.
func BuildPayload(resource Resource, spans []observability.Span) TracesPayload {
	wire := make([]SpanJSON, 0, len(spans))
	for _, span := range spans {
		wire = append(wire, convertSpan(span))
	}

	return TracesPayload{
		ResourceSpans: []ResourceSpans{{
			Resource: ResourceJSON{Attributes: convertAttributes(resource.Attributes())},
			ScopeSpans: []ScopeSpans{{
				Scope: Scope{Name: resource.ScopeName},
				Spans: wire,
			}},
		}},
	}
}

func convertSpan(span observability.Span) SpanJSON {
	return SpanJSON{
		TraceID:           span.TraceID,
		SpanID:            span.SpanID,
		ParentSpanID:      span.ParentSpanID,
		Name:              span.Name,
		Kind:              int(span.Kind),
		StartTimeUnixNano: strconv.FormatUint(span.StartTimeUnixNano, 10),
		EndTimeUnixNano:   strconv.FormatUint(span.EndTimeUnixNano, 10),
		Attributes:        convertAttributes(span.Attributes),
		Status: Status{
			Code:    int(span.StatusCode),
			Message: span.StatusMessage,
		},
	}
}

func convertAttributes(attrs []observability.Attribute) []KeyValue {
	out := make([]KeyValue, 0, len(attrs))
	for _, attr := range attrs {
		out = append(out, KeyValue{Key: attr.Key, Value: AnyValue{StringValue: attr.Value}})
	}
	return out
}

// DecodeSpans parses a payload produced by EncodeTraces back into spans.
// Used by tests and by the CLI when inspecting captured payloads.
func DecodeSpans(data []byte) ([]observability.Span, error) {
	var payload TracesPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, err
	}

	var spans []observability.Span
	for _, rs := range payload.ResourceSpans {
		for _, ss := range rs.ScopeSpans {
			for _, w := range ss.Spans {
				start, err := strconv.ParseUint(w.StartTimeUnixNano, 10, 64)
				if err != nil {
					return nil, err
				}
				end, err := strconv.ParseUint(w.EndTimeUnixNano, 10, 64)
				if err != nil {
					return nil, err
				}
				span := observability.Span{
					TraceID:           w.TraceID,
					SpanID:            w.SpanID,
					ParentSpanID:      w.ParentSpanID,
					Name:              w.Name,
					Kind:              observability.SpanKind(w.Kind),
					StartTimeUnixNano: start,
					EndTimeUnixNano:   end,
					StatusCode:        observability.StatusCode(w.Status.Code),
					StatusMessage:     w.Status.Message,
				}
				for _, kv := range w.Attributes {
					span.Attributes = append(span.Attributes, observability.Attr(kv.Key, kv.Value.StringValue))
				}
				spans = append(spans, span)
			}
		}
	}
	return spans, nil
}
