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

// Package tools implements the tools command.
package tools

import (
	"github.com/spf13/cobra"

	"github.com/tombee/seqbridge/internal/bridge"
	"github.com/tombee/seqbridge/internal/commands/shared"
)

// NewCommand creates the tools command
func NewCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "tools",
		Short: "Print the client-side tool catalog as JSON",
		Long: `Print the seq tool definitions in the client_side format expected by the
orchestrator. Each entry has a type, name, description and JSON-schema
parameters.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return shared.EmitJSON(cmd.OutOrStdout(), bridge.ClientSideToolDefinitions())
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}
}
