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

package cli

import (
	"github.com/spf13/cobra"

	"github.com/tombee/seqbridge/internal/commands/shared"
)

// SetVersion sets the version information (called from main)
func SetVersion(v, c, b string) {
	shared.SetVersion(v, c, b)
}

// NewRootCommand creates the root Cobra command for seqbridge
func NewRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "seqbridge",
		Short: "seqbridge - bridge agent tool calls to seqd",
		Long: `seqbridge connects an agent runtime to seqd, the local desktop automation
daemon. It maps seq_* tool calls onto seqd socket requests and exports a
trace span for every call to one or more OTLP/JSON ingest endpoints.

Run 'seqbridge serve' to expose the tools over MCP on stdio.
Run 'seqbridge demo' to check that seqd is reachable.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	verbose, config, socket := shared.RegisterFlagPointers()

	cmd.PersistentFlags().BoolVarP(verbose, "verbose", "v", false, "Enable verbose output")
	cmd.PersistentFlags().StringVar(config, "config", "", "Path to config file (default: ~/.config/seqbridge/config.yaml)")
	cmd.PersistentFlags().StringVar(socket, "socket", "", "Path to the seqd socket (default: /tmp/seqd.sock)")

	return cmd
}

// GetVersion returns version information
func GetVersion() (string, string, string) {
	return shared.GetVersion()
}

// HandleExitError handles exit errors with proper exit codes
func HandleExitError(err error) {
	shared.HandleExitError(err)
}
