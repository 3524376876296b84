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
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixedStats struct {
	stats Stats
	queue int
}

func (f fixedStats) Stats() Stats  { return f.stats }
func (f fixedStats) QueueLen() int { return f.queue }

func TestPrometheusMetrics_Handler(t *testing.T) {
	source := fixedStats{stats: Stats{Enqueued: 12, Sent: 20, Failed: 4, Dropped: 3}, queue: 2}

	pm, err := NewPrometheusMetrics("seqbridge-test", "1.0.0", source)
	require.NoError(t, err)
	defer pm.Shutdown(context.Background())

	srv := httptest.NewServer(pm.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	text := string(body)

	assert.Contains(t, text, "seqbridge_spans_enqueued")
	assert.Contains(t, text, "seqbridge_spans_sent")
	assert.Contains(t, text, "seqbridge_spans_failed")
	assert.Contains(t, text, "seqbridge_spans_dropped")
	assert.Contains(t, text, "seqbridge_queue_depth")
	assert.Contains(t, text, `service_name="seqbridge-test"`)
}

func TestPrometheusMetrics_Shutdown(t *testing.T) {
	pm, err := NewPrometheusMetrics("seqbridge-test", "", fixedStats{})
	require.NoError(t, err)

	assert.NoError(t, pm.Shutdown(context.Background()))
}
