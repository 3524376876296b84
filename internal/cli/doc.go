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

/*
Package cli provides the root command for seqbridge.

This package creates the Cobra root command and handles global concerns like
version information, persistent flags, and exit codes. Individual commands
are implemented in the internal/commands subpackages.

# Command Tree

	seqbridge
	├── serve      MCP server on stdio
	├── call       Run one seq tool call
	├── handle     Run every call in a tool_call_requested payload
	├── tools      Print the client-side tool catalog
	├── demo       Scripted agent loop against seqd
	├── keys       Manage ingest keys in the keychain
	├── version    Show version
	└── help       Show help (--json for machine-readable output)

# Global Flags

	--verbose, -v    Enable debug logging
	--config         Path to config file
	--socket         Path to the seqd socket

# Exit Codes

  - 0: Success
  - 1: General error
  - 2: Configuration error
  - 3: seqd unavailable
  - 4: Tool call failed
*/
package cli
