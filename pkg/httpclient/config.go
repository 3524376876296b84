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

package httpclient

import (
	"log/slog"
	"time"

	bridgeerrors "github.com/tombee/seqbridge/pkg/errors"
)

// Config holds HTTP client configuration.
type Config struct {
	// Timeout bounds the whole request, including reading the response.
	// Zero means no limit. Must be >= 0.
	Timeout time.Duration

	// ConnectTimeout bounds establishing the TCP connection.
	// Zero means no limit. Must be >= 0.
	ConnectTimeout time.Duration

	// UserAgent is the User-Agent header value.
	// Required. Must be non-empty.
	UserAgent string

	// CACertPath optionally names a PEM file of CA certificates to trust
	// instead of the system pool, for self-hosted endpoints.
	CACertPath string

	// Logger receives request logs. Defaults to slog.Default().
	Logger *slog.Logger
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Timeout:        30 * time.Second,
		ConnectTimeout: 10 * time.Second,
		UserAgent:      "seqbridge-http-client/1.0",
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Timeout < 0 {
		return &bridgeerrors.ValidationError{Field: "timeout", Message: "must be >= 0, got " + c.Timeout.String()}
	}

	if c.ConnectTimeout < 0 {
		return &bridgeerrors.ValidationError{Field: "connect_timeout", Message: "must be >= 0, got " + c.ConnectTimeout.String()}
	}

	if c.UserAgent == "" {
		return &bridgeerrors.ValidationError{Field: "user_agent", Message: "is required and must be non-empty"}
	}

	return nil
}
