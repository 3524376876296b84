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
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	otelprom "go.opentelemetry.io/otel/exporters/prometheus"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

// PrometheusMetrics exposes exporter counters in the Prometheus text format.
// It uses its own registry so nothing else registered on the process
// default registry leaks into the endpoint.
type PrometheusMetrics struct {
	registry  *prometheus.Registry
	provider  *sdkmetric.MeterProvider
	collector *MetricsCollector
}

// NewPrometheusMetrics wires source into an OpenTelemetry meter provider
// backed by a Prometheus exporter.
func NewPrometheusMetrics(serviceName, serviceVersion string, source StatsSource) (*PrometheusMetrics, error) {
	res, err := resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(
			"",
			semconv.ServiceName(serviceName),
			semconv.ServiceVersion(serviceVersion),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	registry := prometheus.NewRegistry()
	promExporter, err := otelprom.New(otelprom.WithRegisterer(registry))
	if err != nil {
		return nil, fmt.Errorf("failed to create prometheus exporter: %w", err)
	}

	provider := sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(promExporter),
	)

	collector, err := NewMetricsCollector(provider, source)
	if err != nil {
		_ = provider.Shutdown(context.Background())
		return nil, fmt.Errorf("failed to create metrics collector: %w", err)
	}

	return &PrometheusMetrics{
		registry:  registry,
		provider:  provider,
		collector: collector,
	}, nil
}

// Handler serves the metrics endpoint.
func (p *PrometheusMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{})
}

// Shutdown unregisters the collector and stops the meter provider.
func (p *PrometheusMetrics) Shutdown(ctx context.Context) error {
	return errors.Join(p.collector.Unregister(), p.provider.Shutdown(ctx))
}
