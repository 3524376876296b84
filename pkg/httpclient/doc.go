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

// Package httpclient builds HTTP clients with consistent timeout and
// logging behavior for seqbridge's outbound calls.
//
// Clients created here have:
//   - A connect timeout applied at dial time, separate from the overall request timeout
//   - Request logging with sanitized URLs (sensitive parameters and userinfo redacted)
//   - User-Agent header injection
//   - TLS 1.2 minimum (TLS 1.3 preferred)
//   - Connection pooling so repeated posts to one ingest endpoint reuse connections
//
// Clients never retry. Callers that deliver telemetry count a failed
// request and move on.
//
// # Usage
//
//	cfg := httpclient.DefaultConfig()
//	cfg.ConnectTimeout = 400 * time.Millisecond
//	cfg.Timeout = 800 * time.Millisecond
//	client, err := httpclient.New(cfg)
//	if err != nil {
//	    return err
//	}
package httpclient
