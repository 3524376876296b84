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

// Package observability provides the span model shared by the bridge and
// the trace exporter. Spans are plain values: they are built once by the
// producer and never modified after being handed to an Emitter.
package observability

import (
	"strconv"
)

// Span is one completed or failed remote operation.
type Span struct {
	// TraceID is 32 lowercase hex characters.
	TraceID string

	// SpanID is 16 lowercase hex characters.
	SpanID string

	// ParentSpanID is the SpanID of the parent span. Empty for root spans.
	ParentSpanID string

	// Name is a human-readable description of this span.
	Name string

	// Kind indicates the span's role in the trace.
	Kind SpanKind

	// StartTimeUnixNano is when the operation began.
	StartTimeUnixNano uint64

	// EndTimeUnixNano is when the operation completed. Never before StartTimeUnixNano.
	EndTimeUnixNano uint64

	// StatusCode indicates the span's outcome.
	StatusCode StatusCode

	// StatusMessage is only set when StatusCode is StatusCodeError.
	StatusMessage string

	// Attributes are kept in insertion order. Duplicate keys are preserved.
	Attributes []Attribute
}

// Attribute is a single string-valued key/value pair.
type Attribute struct {
	Key   string
	Value string
}

// Attr creates an Attribute.
func Attr(key, value string) Attribute {
	return Attribute{Key: key, Value: value}
}

// SpanKind categorizes the type of work represented by a span.
// Values match the OTLP enum.
type SpanKind int

const (
	// SpanKindUnspecified is the zero value.
	SpanKindUnspecified SpanKind = 0

	// SpanKindInternal represents work happening within the bridge.
	SpanKindInternal SpanKind = 1

	// SpanKindServer represents handling an inbound synchronous request.
	SpanKindServer SpanKind = 2

	// SpanKindClient represents an outbound call, such as a seqd request.
	SpanKindClient SpanKind = 3

	// SpanKindProducer represents sending a message to a queue/broker.
	SpanKindProducer SpanKind = 4

	// SpanKindConsumer represents receiving a message from a queue/broker.
	SpanKindConsumer SpanKind = 5
)

// StatusCode represents the outcome of a span.
type StatusCode int

const (
	// StatusCodeUnset indicates no status was explicitly set.
	StatusCodeUnset StatusCode = 0

	// StatusCodeOK indicates successful completion.
	StatusCodeOK StatusCode = 1

	// StatusCodeError indicates an error occurred.
	StatusCodeError StatusCode = 2
)

// DurationNanos returns the span's execution time in nanoseconds.
func (s Span) DurationNanos() uint64 {
	if s.EndTimeUnixNano < s.StartTimeUnixNano {
		return 0
	}
	return s.EndTimeUnixNano - s.StartTimeUnixNano
}

// Success returns true if the span completed successfully.
func (s Span) Success() bool {
	return s.StatusCode == StatusCodeOK
}

// IsRoot reports whether the span has no parent.
func (s Span) IsRoot() bool {
	return s.ParentSpanID == ""
}

// ToolCallSpan describes a single bridged tool call.
type ToolCallSpan struct {
	SessionID  string
	EventID    string
	ToolCallID string
	ToolName   string
	Op         string
	OK         bool

	// Error is the failure message; empty when OK.
	Error string

	StartTimeUnixNano uint64
	EndTimeUnixNano   uint64
	DurationMillis    uint64
}

// ForToolCall builds the client span recorded for one tool call. The trace
// id is shared by every span of the same session/event pair; the span id
// also folds in the tool call id and start time.
func ForToolCall(tc ToolCallSpan) Span {
	attrs := []Attribute{
		Attr("session_id", tc.SessionID),
		Attr("event_id", tc.EventID),
		Attr("tool_call_id", tc.ToolCallID),
		Attr("tool_name", tc.ToolName),
		Attr("seq_op", tc.Op),
		Attr("bridge.ok", strconv.FormatBool(tc.OK)),
		Attr("bridge.duration_ms", strconv.FormatUint(tc.DurationMillis, 10)),
	}

	span := Span{
		TraceID:           StableTraceID(tc.SessionID, tc.EventID),
		SpanID:            StableSpanID(SpanSeed(tc.SessionID, tc.EventID, tc.ToolCallID, tc.StartTimeUnixNano)),
		Name:              "everruns.tool_call",
		Kind:              SpanKindClient,
		StartTimeUnixNano: tc.StartTimeUnixNano,
		EndTimeUnixNano:   tc.EndTimeUnixNano,
	}
	applyOutcome(&span, &attrs, tc.OK, tc.Error)
	span.Attributes = attrs
	return span
}

// ForRuntimeEvent builds the internal span recorded for a bridge lifecycle
// stage (for example "event_received"). Extra attributes come first, then
// the correlation attributes.
func ForRuntimeEvent(sessionID, eventID, stage string, ok bool, errMsg string, startUnixNano, endUnixNano uint64, extra ...Attribute) Span {
	attrs := make([]Attribute, 0, len(extra)+5)
	attrs = append(attrs, extra...)
	attrs = append(attrs,
		Attr("session_id", sessionID),
		Attr("event_id", eventID),
		Attr("stage", stage),
		Attr("bridge.ok", strconv.FormatBool(ok)),
	)

	span := Span{
		TraceID:           StableTraceID(sessionID, eventID),
		SpanID:            StableSpanID(SpanSeed(sessionID, eventID, stage, startUnixNano)),
		Name:              "everruns." + stage,
		Kind:              SpanKindInternal,
		StartTimeUnixNano: startUnixNano,
		EndTimeUnixNano:   endUnixNano,
	}
	applyOutcome(&span, &attrs, ok, errMsg)
	span.Attributes = attrs
	return span
}

func applyOutcome(span *Span, attrs *[]Attribute, ok bool, errMsg string) {
	if errMsg != "" {
		*attrs = append(*attrs, Attr("error.message", errMsg))
	}
	if ok {
		span.StatusCode = StatusCodeOK
		return
	}
	span.StatusCode = StatusCodeError
	span.StatusMessage = errMsg
}
