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

	"go.opentelemetry.io/otel/metric"
)

// StatsSource is anything that reports exporter counters. *Exporter
// implements it.
type StatsSource interface {
	Stats() Stats
	QueueLen() int
}

// MetricsCollector publishes exporter counters through OpenTelemetry metrics.
// Values are read from the source on each collection, so the exporter hot
// path never touches the metrics SDK.
type MetricsCollector struct {
	meter        metric.Meter
	registration metric.Registration

	enqueued   metric.Int64ObservableCounter
	sent       metric.Int64ObservableCounter
	failed     metric.Int64ObservableCounter
	dropped    metric.Int64ObservableCounter
	queueDepth metric.Int64ObservableGauge
}

// NewMetricsCollector registers the exporter instruments on the given meter
// provider.
func NewMetricsCollector(meterProvider metric.MeterProvider, source StatsSource) (*MetricsCollector, error) {
	meter := meterProvider.Meter("seqbridge")

	mc := &MetricsCollector{meter: meter}

	var err error

	mc.enqueued, err = meter.Int64ObservableCounter(
		"seqbridge_spans_enqueued_total",
		metric.WithDescription("Total number of spans accepted into the export queue"),
		metric.WithUnit("{span}"),
	)
	if err != nil {
		return nil, err
	}

	mc.sent, err = meter.Int64ObservableCounter(
		"seqbridge_spans_sent_total",
		metric.WithDescription("Total number of spans delivered, counted once per target"),
		metric.WithUnit("{span}"),
	)
	if err != nil {
		return nil, err
	}

	mc.failed, err = meter.Int64ObservableCounter(
		"seqbridge_spans_failed_total",
		metric.WithDescription("Total number of spans whose delivery failed, counted once per target"),
		metric.WithUnit("{span}"),
	)
	if err != nil {
		return nil, err
	}

	mc.dropped, err = meter.Int64ObservableCounter(
		"seqbridge_spans_dropped_total",
		metric.WithDescription("Total number of spans dropped because the queue was full or closed"),
		metric.WithUnit("{span}"),
	)
	if err != nil {
		return nil, err
	}

	mc.queueDepth, err = meter.Int64ObservableGauge(
		"seqbridge_queue_depth",
		metric.WithDescription("Number of spans waiting for the flush worker"),
		metric.WithUnit("{span}"),
	)
	if err != nil {
		return nil, err
	}

	mc.registration, err = meter.RegisterCallback(
		func(ctx context.Context, o metric.Observer) error {
			s := source.Stats()
			o.ObserveInt64(mc.enqueued, int64(s.Enqueued))
			o.ObserveInt64(mc.sent, int64(s.Sent))
			o.ObserveInt64(mc.failed, int64(s.Failed))
			o.ObserveInt64(mc.dropped, int64(s.Dropped))
			o.ObserveInt64(mc.queueDepth, int64(source.QueueLen()))
			return nil
		},
		mc.enqueued, mc.sent, mc.failed, mc.dropped, mc.queueDepth,
	)
	if err != nil {
		return nil, err
	}

	return mc, nil
}

// Unregister stops reporting the exporter's counters.
func (mc *MetricsCollector) Unregister() error {
	return mc.registration.Unregister()
}
