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

package log

import (
	"context"
	"log/slog"
	"time"
)

// ToolCallRequest describes an incoming tool call for logging purposes.
type ToolCallRequest struct {
	// ToolName is the name the orchestrator used (e.g. "seq_open_app").
	ToolName string

	// Op is the resolved seqd operation, empty when the name is unsupported.
	Op string

	SessionID  string
	EventID    string
	ToolCallID string
}

// ToolCallResponse describes the outcome of a tool call for logging purposes.
type ToolCallResponse struct {
	Success    bool
	Error      string
	DurationMs int64
}

func (r *ToolCallRequest) attrs() []any {
	attrs := []any{"tool", r.ToolName}
	if r.Op != "" {
		attrs = append(attrs, OpKey, r.Op)
	}
	if r.SessionID != "" {
		attrs = append(attrs, SessionIDKey, r.SessionID)
	}
	if r.EventID != "" {
		attrs = append(attrs, EventIDKey, r.EventID)
	}
	if r.ToolCallID != "" {
		attrs = append(attrs, ToolCallIDKey, r.ToolCallID)
	}
	return attrs
}

// LogToolCallRequest logs an incoming tool call at debug level.
func LogToolCallRequest(logger *slog.Logger, req *ToolCallRequest) {
	logger.Debug("tool call received", req.attrs()...)
}

// LogToolCallResponse logs a completed tool call. Failures are logged at warn.
func LogToolCallResponse(logger *slog.Logger, req *ToolCallRequest, resp *ToolCallResponse) {
	attrs := append(req.attrs(), "success", resp.Success, DurationKey, resp.DurationMs)
	if resp.Error != "" {
		attrs = append(attrs, "error", resp.Error)
	}

	level := slog.LevelInfo
	message := "tool call completed"
	if !resp.Success {
		level = slog.LevelWarn
		message = "tool call failed"
	}

	logger.Log(context.Background(), level, message, attrs...)
}

// ToolCallMiddleware wraps tool call handlers with request/response logging.
type ToolCallMiddleware struct {
	logger *slog.Logger
}

// NewToolCallMiddleware creates a new tool call logging middleware.
func NewToolCallMiddleware(logger *slog.Logger) *ToolCallMiddleware {
	return &ToolCallMiddleware{logger: logger}
}

// Handler runs handler and logs the call before and after. The handler
// reports success and an error message rather than a Go error, matching
// how tool results carry failures.
func (m *ToolCallMiddleware) Handler(req *ToolCallRequest, handler func() (bool, string)) (bool, string) {
	start := time.Now()

	LogToolCallRequest(m.logger, req)

	ok, errMsg := handler()

	LogToolCallResponse(m.logger, req, &ToolCallResponse{
		Success:    ok,
		Error:      errMsg,
		DurationMs: time.Since(start).Milliseconds(),
	})

	return ok, errMsg
}
