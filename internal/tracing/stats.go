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

package tracing

import (
	"log/slog"
	"sync/atomic"
)

// Stats is a snapshot of an exporter's counters. Each field is read
// atomically; the four reads together are not a single point in time.
// Once Close has returned, every enqueued span has been counted as sent or
// failed for each target.
type Stats struct {
	// Enqueued counts spans accepted into the queue.
	Enqueued uint64

	// Sent counts spans delivered with a 2xx response, once per target.
	Sent uint64

	// Failed counts spans whose delivery failed, once per target.
	Failed uint64

	// Dropped counts spans rejected because the queue was full or the
	// exporter was closed.
	Dropped uint64
}

// LogValue renders the snapshot as a log group.
func (s Stats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Uint64("enqueued", s.Enqueued),
		slog.Uint64("sent", s.Sent),
		slog.Uint64("failed", s.Failed),
		slog.Uint64("dropped", s.Dropped),
	)
}

type counters struct {
	enqueued atomic.Uint64
	sent     atomic.Uint64
	failed   atomic.Uint64
	dropped  atomic.Uint64
}

func (c *counters) snapshot() Stats {
	return Stats{
		Enqueued: c.enqueued.Load(),
		Sent:     c.sent.Load(),
		Failed:   c.failed.Load(),
		Dropped:  c.dropped.Load(),
	}
}
