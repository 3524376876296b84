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

// Package bridge executes orchestrator tool calls against seqd.
//
// A tool call names a seq tool ("seq_open_app", "seq.click", ...) and carries
// JSON arguments. The bridge maps the name to a seqd op, forwards the call
// with correlation ids derived from the session and event, and converts the
// reply into a ToolResult. When an Emitter is attached, every call produces
// one "everruns.tool_call" span.
package bridge
