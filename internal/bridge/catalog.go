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
)

// ToolDefinition describes a client-side tool to the orchestrator.
type ToolDefinition struct {
	Type        string          `json:"type"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Parameters  json.RawMessage `json:"parameters"`
}

const (
	noArgsSchema  = `{"type":"object","properties":{},"additionalProperties":false}`
	appNameSchema = `{"type":"object","properties":{"name":{"type":"string","description":"App name (e.g. Safari)"}},"required":["name"],"additionalProperties":false}`
	pointSchema   = `{"type":"object","properties":{"x":{"type":"number"},"y":{"type":"number"}},"required":["x","y"],"additionalProperties":false}`
)

var catalog = []struct {
	name, description, schema string
}{
	{"seq_ping", "Health check seqd runtime", noArgsSchema},
	{"seq_app_state", "Get frontmost/previous app snapshot", noArgsSchema},
	{"seq_perf", "Get seqd performance snapshot", noArgsSchema},
	{"seq_open_app", "Open application by name", appNameSchema},
	{"seq_open_app_toggle", "Toggle to app by name", appNameSchema},
	{"seq_run_macro", "Run seq macro by name",
		`{"type":"object","properties":{"name":{"type":"string","description":"Macro name"}},"required":["name"],"additionalProperties":false}`},
	{"seq_click", "Click at screen coordinates", pointSchema},
	{"seq_right_click", "Right click at screen coordinates", pointSchema},
	{"seq_double_click", "Double click at screen coordinates", pointSchema},
	{"seq_move", "Move pointer to coordinates", pointSchema},
	{"seq_scroll", "Scroll at coordinates by delta",
		`{"type":"object","properties":{"x":{"type":"number"},"y":{"type":"number"},"dy":{"type":"integer"}},"required":["x","y","dy"],"additionalProperties":false}`},
	{"seq_drag", "Drag from one coordinate to another",
		`{"type":"object","properties":{"x1":{"type":"number"},"y1":{"type":"number"},"x2":{"type":"number"},"y2":{"type":"number"}},"required":["x1","y1","x2","y2"],"additionalProperties":false}`},
	{"seq_screenshot", "Capture screenshot to optional path",
		`{"type":"object","properties":{"path":{"type":"string","description":"Output path (optional)"}},"additionalProperties":false}`},
}

// ClientSideToolDefinitions returns the catalog of seq tools, one per
// supported op.
func ClientSideToolDefinitions() []ToolDefinition {
	defs := make([]ToolDefinition, len(catalog))
	for i, tool := range catalog {
		defs[i] = ToolDefinition{
			Type:        "client_side",
			Name:        tool.name,
			Description: tool.description,
			Parameters:  json.RawMessage(tool.schema),
		}
	}
	return defs
}
