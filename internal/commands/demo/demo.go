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

// Package demo implements the demo command, a short scripted agent loop
// against seqd.
package demo

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tombee/seqbridge/internal/commands/shared"
	"github.com/tombee/seqbridge/internal/rpc"
)

// Settings are the demo inputs. Each falls back to an environment
// variable, then to a default.
type Settings struct {
	RunID          string
	App            string
	ScreenshotPath string
}

// SettingsFromEnv reads SEQ_RUN_ID, SEQ_APP and SEQ_SCREENSHOT_PATH.
func SettingsFromEnv(getenv func(string) string) Settings {
	value := func(name, fallback string) string {
		if v := strings.TrimSpace(getenv(name)); v != "" {
			return v
		}
		return fallback
	}
	return Settings{
		RunID:          value("SEQ_RUN_ID", "agent-loop-example"),
		App:            value("SEQ_APP", "Safari"),
		ScreenshotPath: value("SEQ_SCREENSHOT_PATH", "/tmp/seq-agent-loop.png"),
	}
}

// NewCommand creates the demo command
func NewCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "demo",
		Short: "Run a short agent loop against seqd",
		Long: `Run ping, open_app, screenshot and app_state against seqd and print each
outcome. This is the smallest end-to-end check that seqd is reachable and
responding.

Environment:
  SEQ_RUN_ID           run id for every request (default: agent-loop-example)
  SEQ_APP              application to open (default: Safari)
  SEQ_SCREENSHOT_PATH  where seqd writes the screenshot (default: /tmp/seq-agent-loop.png)`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := shared.LoadConfig()
			if err != nil {
				return err
			}
			rt := &shared.Runtime{Config: cfg, Logger: shared.NewLogger(cfg)}

			client, err := rt.Dial(cmd.Context())
			if err != nil {
				return err
			}
			defer client.Close()

			return Run(cmd.Context(), client, SettingsFromEnv(os.Getenv), cmd.OutOrStdout())
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}
}

// Caller sends one request to seqd.
type Caller interface {
	Call(ctx context.Context, req rpc.Request) (*rpc.Response, error)
}

// Run performs the loop. Only a failed ping or a transport error stops it.
func Run(ctx context.Context, client Caller, s Settings, out io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}

	ping, err := client.Call(ctx, rpc.Request{
		Op:         "ping",
		RequestID:  "boot-ping",
		RunID:      s.RunID,
		ToolCallID: "tool-ping",
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "ping: ok=%t dur_us=%d\n", ping.OK, ping.DurUs)
	if !ping.OK {
		return fmt.Errorf("ping failed: %s", ping.Error)
	}

	open, err := client.Call(ctx, rpc.Request{
		Op:         "open_app",
		RequestID:  "open-app",
		RunID:      s.RunID,
		ToolCallID: "tool-open-app",
		Args:       mustJSON(map[string]string{"name": s.App}),
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "open_app: ok=%t err=%q\n", open.OK, open.Error)

	shot, err := client.Call(ctx, rpc.Request{
		Op:         "screenshot",
		RequestID:  "screenshot",
		RunID:      s.RunID,
		ToolCallID: "tool-screenshot",
		Args:       mustJSON(map[string]string{"path": s.ScreenshotPath}),
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "screenshot: ok=%t result=%s\n", shot.OK, shot.ResultOrEmpty())

	state, err := client.Call(ctx, rpc.Request{
		Op:         "app_state",
		RequestID:  "app-state",
		RunID:      s.RunID,
		ToolCallID: "tool-app-state",
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "app_state: ok=%t result=%s\n", state.OK, state.ResultOrEmpty())

	return nil
}

func mustJSON(v map[string]string) json.RawMessage {
	data, _ := json.Marshal(v)
	return data
}
