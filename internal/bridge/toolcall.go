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
	"encoding/json"
	"fmt"
	"strings"

	"github.com/tombee/seqbridge/internal/rpc"
)

// ToolCall is one call requested by the orchestrator.
type ToolCall struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments,omitempty"`
}

// ToolResult is the outcome reported back for a ToolCall. Exactly one of
// Result and Error is set.
type ToolResult struct {
	ToolCallID string          `json:"tool_call_id"`
	Result     json.RawMessage `json:"result,omitempty"`
	Error      string          `json:"error,omitempty"`
}

// OK reports whether the call succeeded.
func (r ToolResult) OK() bool {
	return r.Error == ""
}

// UnsupportedToolError is returned for a tool name with no seqd op.
type UnsupportedToolError struct {
	Name string
}

func (e *UnsupportedToolError) Error() string {
	return "unsupported seq tool name: " + e.Name
}

type toolCallRequested struct {
	ToolCalls []ToolCall `json:"tool_calls"`
}

// ParseToolCallRequested extracts the calls from a tool_call.requested
// event payload.
func ParseToolCallRequested(data json.RawMessage) ([]ToolCall, error) {
	var parsed toolCallRequested
	if err := json.Unmarshal(data, &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse tool_call.requested payload: %w", err)
	}
	if parsed.ToolCalls == nil {
		return nil, fmt.Errorf("failed to parse tool_call.requested payload: missing tool_calls")
	}
	return parsed.ToolCalls, nil
}

// supportedOps is the set of seqd ops reachable through tool calls.
var supportedOps = map[string]bool{
	"ping":            true,
	"app_state":       true,
	"perf":            true,
	"open_app":        true,
	"open_app_toggle": true,
	"run_macro":       true,
	"click":           true,
	"right_click":     true,
	"double_click":    true,
	"move":            true,
	"scroll":          true,
	"drag":            true,
	"screenshot":      true,
}

// MapToolNameToOp normalizes a tool name and returns its seqd op. Matching
// is case-insensitive, treats '-' as '_', and strips one leading "seq.",
// "seq:" or "seq_".
func MapToolNameToOp(name string) (string, bool) {
	op := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), "-", "_")
	for _, prefix := range []string{"seq.", "seq:", "seq_"} {
		if rest, ok := strings.CutPrefix(op, prefix); ok {
			op = rest
			break
		}
	}
	if !supportedOps[op] {
		return "", false
	}
	return op, true
}

// BuildRequest converts a tool call into a seqd request. The request id is
// "everruns:<event>:<call id>" and the run id is the session.
func BuildRequest(sessionID, eventID string, call ToolCall) (rpc.Request, error) {
	op, ok := MapToolNameToOp(call.Name)
	if !ok {
		return rpc.Request{}, &UnsupportedToolError{Name: call.Name}
	}

	req := rpc.Request{
		Op:         op,
		RequestID:  fmt.Sprintf("everruns:%s:%s", eventID, call.ID),
		RunID:      sessionID,
		ToolCallID: call.ID,
	}
	if !isNull(call.Arguments) {
		req.Args = call.Arguments
	}
	return req, nil
}

func isNull(raw json.RawMessage) bool {
	trimmed := strings.TrimSpace(string(raw))
	return trimmed == "" || trimmed == "null"
}
