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

package bridge

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/tombee/seqbridge/internal/log"
	"github.com/tombee/seqbridge/internal/rpc"
	"github.com/tombee/seqbridge/pkg/observability"
)

// Caller sends one request to seqd. *rpc.Client implements it.
type Caller interface {
	Call(ctx context.Context, req rpc.Request) (*rpc.Response, error)
}

// Bridge executes tool calls through a Caller.
type Bridge struct {
	caller  Caller
	emitter observability.Emitter
	logger  *slog.Logger
	now     func() time.Time
}

// Option configures a Bridge.
type Option func(*Bridge)

// WithEmitter attaches a span emitter. Without one no spans are produced.
func WithEmitter(emitter observability.Emitter) Option {
	return func(b *Bridge) {
		b.emitter = emitter
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(b *Bridge) {
		if logger != nil {
			b.logger = logger
		}
	}
}

// New creates a Bridge.
func New(caller Caller, opts ...Option) *Bridge {
	b := &Bridge{
		caller: caller,
		logger: log.Discard(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(b)
	}
	b.logger = log.WithComponent(b.logger, "bridge")
	return b
}

// Execute runs one tool call. Failures are reported in the result rather
// than returned.
func (b *Bridge) Execute(ctx context.Context, sessionID, eventID string, call ToolCall) ToolResult {
	start := b.now()
	op, ok := MapToolNameToOp(call.Name)
	if !ok {
		op = "unknown"
	}

	result := b.execute(ctx, sessionID, eventID, op, call)

	if b.emitter != nil {
		elapsed := b.now().Sub(start)
		startNanos := unixNanos(start)
		b.emitter.Emit(observability.ForToolCall(observability.ToolCallSpan{
			SessionID:         sessionID,
			EventID:           eventID,
			ToolCallID:        call.ID,
			ToolName:          call.Name,
			Op:                op,
			OK:                result.OK(),
			Error:             result.Error,
			StartTimeUnixNano: startNanos,
			EndTimeUnixNano:   startNanos + uint64(max(elapsed, 0)),
			DurationMillis:    uint64(max(elapsed.Milliseconds(), 0)),
		}))
	}

	return result
}

func (b *Bridge) execute(ctx context.Context, sessionID, eventID, op string, call ToolCall) ToolResult {
	req, err := BuildRequest(sessionID, eventID, call)
	if err != nil {
		return ToolResult{ToolCallID: call.ID, Error: err.Error()}
	}

	resp, err := b.caller.Call(ctx, req)
	if err != nil {
		log.WithToolCall(b.logger, sessionID, eventID, call.ID).Debug("seqd call failed",
			slog.String(log.OpKey, op),
			log.Error(err))
		return ToolResult{ToolCallID: call.ID, Error: fmt.Sprintf("seq %s call failed: %v", op, err)}
	}

	if !resp.OK {
		msg := resp.Error
		if msg == "" {
			msg = fmt.Sprintf("seq %s failed with unknown error", op)
		}
		return ToolResult{ToolCallID: call.ID, Error: msg}
	}

	return ToolResult{ToolCallID: call.ID, Result: resp.ResultOrEmpty()}
}

// HandleToolCallRequested executes every call in a tool_call.requested
// payload in order. When an Emitter is attached it also records an
// "everruns.tool_call_requested" span covering the whole event.
func (b *Bridge) HandleToolCallRequested(ctx context.Context, sessionID, eventID string, data json.RawMessage) ([]ToolResult, error) {
	start := b.now()

	calls, err := ParseToolCallRequested(data)
	if err != nil {
		b.emitStage(sessionID, eventID, "tool_call_requested", false, err.Error(), start, 0)
		return nil, err
	}

	results := make([]ToolResult, 0, len(calls))
	failed := 0
	for _, call := range calls {
		result := b.Execute(ctx, sessionID, eventID, call)
		if !result.OK() {
			failed++
		}
		results = append(results, result)
	}

	errMsg := ""
	if failed > 0 {
		errMsg = fmt.Sprintf("%d of %d tool calls failed", failed, len(calls))
	}
	b.emitStage(sessionID, eventID, "tool_call_requested", failed == 0, errMsg, start, len(calls))
	return results, nil
}

func (b *Bridge) emitStage(sessionID, eventID, stage string, ok bool, errMsg string, start time.Time, calls int) {
	if b.emitter == nil {
		return
	}
	startNanos := unixNanos(start)
	endNanos := max(unixNanos(b.now()), startNanos)
	b.emitter.Emit(observability.ForRuntimeEvent(
		sessionID, eventID, stage, ok, errMsg,
		startNanos, endNanos,
		observability.Attr("bridge.tool_call_count", strconv.Itoa(calls)),
	))
}

func unixNanos(t time.Time) uint64 {
	n := t.UnixNano()
	if n < 0 {
		return 0
	}
	return uint64(n)
}
