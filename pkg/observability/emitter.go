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

package observability

// Emitter accepts finished spans. Implementations must not block the
// caller and must be safe for concurrent use.
type Emitter interface {
	Emit(span Span)
}

// EmitterFunc adapts a function to the Emitter interface.
type EmitterFunc func(Span)

// Emit calls f(span).
func (f EmitterFunc) Emit(span Span) {
	f(span)
}

// Discard is an Emitter that drops every span.
var Discard Emitter = EmitterFunc(func(Span) {})
