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
Package rpc is a client for seqd, the local desktop automation daemon.

seqd listens on a unix socket and speaks newline-delimited JSON: the client
writes one request object followed by '\n' and reads back one response line.
A connection carries one request at a time.

# Usage

	client, err := rpc.Dial(ctx, rpc.DefaultSocketPath, rpc.WithTimeout(5*time.Second))
	if err != nil {
	    return err
	}
	defer client.Close()

	resp, err := client.OpenApp(ctx, "Safari")

Call returns the raw response whatever its ok flag. CallOK turns a response
with ok=false into a *RemoteError and returns only the result.
*/
package rpc
