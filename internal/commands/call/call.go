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

// Package call implements the call and handle commands, which run tool
// calls against seqd once from the command line.
package call

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/tombee/seqbridge/internal/bridge"
	"github.com/tombee/seqbridge/internal/commands/shared"
)

type callOptions struct {
	args      string
	sessionID string
	eventID   string
}

// NewCommand creates the call command
func NewCommand() *cobra.Command {
	var opts callOptions

	cmd := &cobra.Command{
		Use:   "call <tool>",
		Short: "Run one seq tool call",
		Long: `Run one seq tool call and print the tool result as JSON.

Tool names are matched leniently: seq_open_app, seq.open_app, seq:open-app
and open_app all reach the same seqd op.

Examples:
  seqbridge call seq_ping
  seqbridge call seq_open_app --args '{"name":"Safari"}'
  seqbridge call seq_click --args '{"x":100,"y":200}' --session run-1`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCall(cmd, args[0], opts)
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.Flags().StringVar(&opts.args, "args", "", "Tool arguments as a JSON object")
	cmd.Flags().StringVar(&opts.sessionID, "session", "", "Session id (default: random)")
	cmd.Flags().StringVar(&opts.eventID, "event", "", "Event id (default: random)")

	return cmd
}

func runCall(cmd *cobra.Command, tool string, opts callOptions) error {
	var arguments json.RawMessage
	if opts.args != "" {
		if !json.Valid([]byte(opts.args)) {
			return fmt.Errorf("--args is not valid JSON")
		}
		arguments = json.RawMessage(opts.args)
	}

	call := bridge.ToolCall{ID: uuid.NewString(), Name: tool, Arguments: arguments}
	sessionID, eventID := defaultIDs(opts.sessionID, opts.eventID)

	return withBridge(cmd.Context(), func(b *bridge.Bridge) error {
		result := b.Execute(cmd.Context(), sessionID, eventID, call)
		if err := shared.EmitJSON(cmd.OutOrStdout(), result); err != nil {
			return err
		}
		if !result.OK() {
			return shared.NewToolFailedError(fmt.Sprintf("%s failed", tool))
		}
		return nil
	})
}

// NewHandleCommand creates the handle command
func NewHandleCommand() *cobra.Command {
	var opts callOptions

	cmd := &cobra.Command{
		Use:   "handle",
		Short: "Run every call in a tool_call.requested payload",
		Long: `Read a tool_call.requested event payload and run its tool calls in order.

The payload is read from --data, or from stdin when --data is not set:
  {"tool_calls":[{"id":"tc1","name":"seq_ping","arguments":{}}]}

The results are printed as a JSON array in the same order.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHandle(cmd, opts)
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.Flags().StringVar(&opts.args, "data", "", "Event payload as JSON (default: read stdin)")
	cmd.Flags().StringVar(&opts.sessionID, "session", "", "Session id (default: random)")
	cmd.Flags().StringVar(&opts.eventID, "event", "", "Event id (default: random)")

	return cmd
}

func runHandle(cmd *cobra.Command, opts callOptions) error {
	data := opts.args
	if data == "" {
		raw, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return fmt.Errorf("failed to read payload: %w", err)
		}
		data = strings.TrimSpace(string(raw))
	}

	if !json.Valid([]byte(data)) {
		return fmt.Errorf("payload is not valid JSON")
	}
	sessionID, eventID := defaultIDs(opts.sessionID, opts.eventID)

	return withBridge(cmd.Context(), func(b *bridge.Bridge) error {
		results, err := b.HandleToolCallRequested(cmd.Context(), sessionID, eventID, json.RawMessage(data))
		if err != nil {
			return err
		}
		if err := shared.EmitJSON(cmd.OutOrStdout(), results); err != nil {
			return err
		}

		failed := 0
		for _, result := range results {
			if !result.OK() {
				failed++
			}
		}
		if failed > 0 {
			return shared.NewToolFailedError(fmt.Sprintf("%d of %d tool calls failed", failed, len(results)))
		}
		return nil
	})
}

func defaultIDs(sessionID, eventID string) (string, string) {
	if sessionID == "" {
		sessionID = "cli-" + uuid.NewString()
	}
	if eventID == "" {
		eventID = uuid.NewString()
	}
	return sessionID, eventID
}

// withBridge sets up the runtime and a seqd connection, runs fn, and then
// flushes telemetry.
func withBridge(ctx context.Context, fn func(b *bridge.Bridge) error) error {
	if ctx == nil {
		ctx = context.Background()
	}

	rt, err := shared.NewRuntime(ctx)
	if err != nil {
		return err
	}
	defer rt.Close()

	client, err := rt.Dial(ctx)
	if err != nil {
		return err
	}
	defer client.Close()

	return fn(rt.Bridge(client))
}
