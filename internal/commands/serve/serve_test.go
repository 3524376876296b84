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

package serve

import (
	"io"
	"log/slog"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tombee/seqbridge/internal/tracing"
)

type fixedStats struct{}

func (fixedStats) Stats() tracing.Stats {
	return tracing.Stats{Enqueued: 5, Sent: 4, Dropped: 1}
}

func (fixedStats) QueueLen() int { return 0 }

func TestStartMetrics(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	addr, shutdown, err := startMetrics("127.0.0.1:0", "seqbridge", "test", fixedStats{}, logger)
	require.NoError(t, err)
	defer shutdown()

	resp, err := http.Get("http://" + addr.String() + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "seqbridge_spans_sent")
}

func TestStartMetrics_BadAddress(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	_, _, err := startMetrics("not-an-address", "seqbridge", "test", fixedStats{}, logger)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to listen on not-an-address")
}

func TestNewCommand_Flags(t *testing.T) {
	cmd := NewCommand()
	assert.Equal(t, "serve", cmd.Use)
	assert.NotNil(t, cmd.Flags().Lookup("metrics-addr"))
	assert.NotNil(t, cmd.Flags().Lookup("session"))
}
