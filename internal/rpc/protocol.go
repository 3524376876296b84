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

package rpc

import (
	"encoding/json"
	"fmt"
)

// MaxResponseBytes caps a single response line.
const MaxResponseBytes = 1 << 20

// Request is one seqd operation.
type Request struct {
	// Op names the operation, e.g. "open_app".
	Op string `json:"op"`

	// RequestID is echoed back in the response.
	RequestID string `json:"request_id,omitempty"`

	// RunID groups requests from one agent run.
	RunID string `json:"run_id,omitempty"`

	// ToolCallID links the request to the tool call that caused it.
	ToolCallID string `json:"tool_call_id,omitempty"`

	// Args holds the operation arguments. Omitted when empty.
	Args json.RawMessage `json:"args,omitempty"`
}

// NewRequest creates a request for op with optional JSON-encodable args.
func NewRequest(op string, args any) (Request, error) {
	req := Request{Op: op}
	if args != nil {
		data, err := json.Marshal(args)
		if err != nil {
			return Request{}, fmt.Errorf("failed to marshal %s args: %w", op, err)
		}
		req.Args = data
	}
	return req, nil
}

// Response is seqd's reply to a Request.
type Response struct {
	OK         bool   `json:"ok"`
	Op         string `json:"op"`
	RequestID  string `json:"request_id"`
	RunID      string `json:"run_id"`
	ToolCallID string `json:"tool_call_id"`

	// TsMs is the daemon's wall clock when the request completed.
	TsMs uint64 `json:"ts_ms"`

	// DurUs is how long the daemon spent on the request.
	DurUs uint64 `json:"dur_us"`

	Result json.RawMessage `json:"result,omitempty"`
	Error  string          `json:"error,omitempty"`
}

// ResultOrEmpty returns the result, or an empty object when there is none.
func (r *Response) ResultOrEmpty() json.RawMessage {
	if len(r.Result) == 0 || string(r.Result) == "null" {
		return json.RawMessage("{}")
	}
	return r.Result
}

// ProtocolError reports a malformed exchange with seqd.
type ProtocolError struct {
	Reason string
}

func (e *ProtocolError) Error() string {
	return "invalid protocol: " + e.Reason
}

// RemoteError is a failure reported by seqd in a response with ok=false.
type RemoteError struct {
	Op      string
	Message string
}

func (e *RemoteError) Error() string {
	return "remote error: " + e.Message
}

// remoteError builds the error for a failed response.
func remoteError(resp *Response) *RemoteError {
	msg := resp.Error
	if msg == "" {
		msg = "unknown_error"
	}
	return &RemoteError{Op: resp.Op, Message: msg}
}
