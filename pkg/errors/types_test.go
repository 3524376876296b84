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

package errors_test

import (
	"errors"
	"os"
	"testing"
	"time"

	bridgeerrors "github.com/tombee/seqbridge/pkg/errors"
)

func TestValidationError_Error(t *testing.T) {
	tests := []struct {
		name    string
		err     *bridgeerrors.ValidationError
		wantMsg string
	}{
		{
			name:    "with field",
			err:     &bridgeerrors.ValidationError{Field: "queue_capacity", Message: "must be >= 1"},
			wantMsg: "validation failed on queue_capacity: must be >= 1",
		},
		{
			name:    "without field",
			err:     &bridgeerrors.ValidationError{Message: "no targets"},
			wantMsg: "validation failed: no targets",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.wantMsg {
				t.Errorf("ValidationError.Error() = %q, want %q", got, tt.wantMsg)
			}
		})
	}
}

func TestConfigError(t *testing.T) {
	tests := []struct {
		name    string
		err     *bridgeerrors.ConfigError
		wantMsg string
	}{
		{
			name:    "with key",
			err:     &bridgeerrors.ConfigError{Key: "SEQ_EVERRUNS_MAPLE_LOCAL", Reason: "endpoint/key must both be set"},
			wantMsg: "config error at SEQ_EVERRUNS_MAPLE_LOCAL: endpoint/key must both be set",
		},
		{
			name:    "without key",
			err:     &bridgeerrors.ConfigError{Reason: "bad file"},
			wantMsg: "config error: bad file",
		},
		{
			name:    "with cause",
			err:     &bridgeerrors.ConfigError{Key: "config_file", Reason: "failed to load", Cause: os.ErrNotExist},
			wantMsg: "config error at config_file: failed to load: file does not exist",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.wantMsg {
				t.Errorf("ConfigError.Error() = %q, want %q", got, tt.wantMsg)
			}
		})
	}
}

func TestConfigError_Unwrap(t *testing.T) {
	err := error(&bridgeerrors.ConfigError{Key: "k", Reason: "r", Cause: os.ErrNotExist})

	if !errors.Is(err, os.ErrNotExist) {
		t.Error("ConfigError should unwrap to its cause")
	}

	var cfgErr *bridgeerrors.ConfigError
	if !errors.As(bridgeerrors.Wrap(err, "loading"), &cfgErr) {
		t.Fatal("errors.As should find ConfigError through Wrap")
	}
	if cfgErr.Key != "k" {
		t.Errorf("Key = %q, want %q", cfgErr.Key, "k")
	}
}

func TestTimeoutError(t *testing.T) {
	cause := errors.New("i/o timeout")
	err := &bridgeerrors.TimeoutError{Operation: "seqd call ping", Duration: 5 * time.Second, Cause: cause}

	if got := err.Error(); got != "seqd call ping operation timed out after 5s" {
		t.Errorf("TimeoutError.Error() = %q", got)
	}
	if !errors.Is(err, cause) {
		t.Error("TimeoutError should unwrap to its cause")
	}
}

func TestWrap_Nil(t *testing.T) {
	if bridgeerrors.Wrap(nil, "context") != nil {
		t.Error("Wrap(nil) should return nil")
	}
}
