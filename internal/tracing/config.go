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

package tracing

import (
	"fmt"
	"time"

	bridgeerrors "github.com/tombee/seqbridge/pkg/errors"
)

// Defaults for ExporterConfig.
const (
	DefaultServiceName           = "seq-everruns-bridge"
	DefaultDeploymentEnvironment = "local"
	DefaultScopeName             = "seq_everruns_bridge"
	DefaultQueueCapacity         = 4096
	DefaultMaxBatchSize          = 128
	DefaultFlushInterval         = 50 * time.Millisecond
	DefaultConnectTimeout        = 400 * time.Millisecond
	DefaultRequestTimeout        = 800 * time.Millisecond
)

// ExporterConfig holds the tunables of one Exporter. It is fixed for the
// exporter's lifetime.
type ExporterConfig struct {
	// ServiceName identifies this service in traces.
	ServiceName string

	// ServiceVersion is optional and omitted from the payload when empty.
	ServiceVersion string

	// DeploymentEnvironment is reported as deployment.environment.
	DeploymentEnvironment string

	// ScopeName names the instrumentation scope of every span.
	ScopeName string

	// QueueCapacity bounds the number of spans waiting for the worker (>= 1).
	QueueCapacity int

	// MaxBatchSize bounds the number of spans per payload (>= 1).
	MaxBatchSize int

	// FlushInterval bounds how long the worker waits on an empty queue
	// before checking again.
	FlushInterval time.Duration

	// ConnectTimeout bounds establishing a connection to a target.
	ConnectTimeout time.Duration

	// RequestTimeout bounds one POST, including reading the response.
	RequestTimeout time.Duration

	// CACertPath optionally replaces the system CA pool for all targets.
	CACertPath string

	// Targets receive every batch, in order.
	Targets []Target
}

// DefaultExporterConfig returns the default tunables with no targets.
func DefaultExporterConfig() ExporterConfig {
	return ExporterConfig{
		ServiceName:           DefaultServiceName,
		DeploymentEnvironment: DefaultDeploymentEnvironment,
		ScopeName:             DefaultScopeName,
		QueueCapacity:         DefaultQueueCapacity,
		MaxBatchSize:          DefaultMaxBatchSize,
		FlushInterval:         DefaultFlushInterval,
		ConnectTimeout:        DefaultConnectTimeout,
		RequestTimeout:        DefaultRequestTimeout,
	}
}

// Validate checks that the config can start an exporter.
func (c *ExporterConfig) Validate() error {
	if c.ServiceName == "" {
		return &bridgeerrors.ValidationError{Field: "service_name", Message: "is required"}
	}
	if c.QueueCapacity < 1 {
		return &bridgeerrors.ValidationError{
			Field:   "queue_capacity",
			Message: fmt.Sprintf("must be >= 1, got %d", c.QueueCapacity),
		}
	}
	if c.MaxBatchSize < 1 {
		return &bridgeerrors.ValidationError{
			Field:   "max_batch_size",
			Message: fmt.Sprintf("must be >= 1, got %d", c.MaxBatchSize),
		}
	}
	if c.FlushInterval <= 0 {
		return &bridgeerrors.ValidationError{
			Field:   "flush_interval",
			Message: fmt.Sprintf("must be > 0, got %v", c.FlushInterval),
		}
	}
	if c.ConnectTimeout < 0 {
		return &bridgeerrors.ValidationError{
			Field:   "connect_timeout",
			Message: fmt.Sprintf("must be >= 0, got %v", c.ConnectTimeout),
		}
	}
	if c.RequestTimeout < 0 {
		return &bridgeerrors.ValidationError{
			Field:   "request_timeout",
			Message: fmt.Sprintf("must be >= 0, got %v", c.RequestTimeout),
		}
	}
	if len(c.Targets) == 0 {
		return &bridgeerrors.ValidationError{
			Field:      "targets",
			Message:    "at least one target is required",
			Suggestion: "set SEQ_EVERRUNS_MAPLE_LOCAL_ENDPOINT and SEQ_EVERRUNS_MAPLE_LOCAL_INGEST_KEY",
		}
	}
	for i, t := range c.Targets {
		if t.Endpoint == "" {
			return &bridgeerrors.ValidationError{Field: fmt.Sprintf("targets[%d].endpoint", i), Message: "is required"}
		}
		if t.IngestKey == "" {
			return &bridgeerrors.ValidationError{Field: fmt.Sprintf("targets[%d].ingest_key", i), Message: "is required"}
		}
	}
	return nil
}
