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

import (
	"fmt"
	"hash/fnv"
)

// StableTraceID derives a 32-character trace id from a session and event
// id. The first half depends only on the session, the second only on the
// event, so every span of one session/event pair shares a trace.
func StableTraceID(sessionID, eventID string) string {
	return fmt.Sprintf("%016x%016x", fnv1a64(sessionID), fnv1a64(eventID))
}

// StableSpanID derives a 16-character span id from an arbitrary seed.
func StableSpanID(seed string) string {
	return fmt.Sprintf("%016x", fnv1a64(seed))
}

// SpanSeed joins the correlation fields used to seed a span id. Including
// the start time keeps retries of the same operation distinct.
func SpanSeed(sessionID, eventID, operation string, startUnixNano uint64) string {
	return fmt.Sprintf("%s:%s:%s:%d", sessionID, eventID, operation, startUnixNano)
}

func fnv1a64(s string) uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(s))
	return h.Sum64()
}
