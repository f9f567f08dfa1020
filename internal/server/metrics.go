package server

import (
	"context"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"

	"github.com/Brownie44l1/webserver/internal/response"
)

const instrumentationName = "github.com/Brownie44l1/webserver/internal/server"

// Metrics holds server runtime metrics. The counters are kept locally for
// Snapshot and mirrored to the global OpenTelemetry meter provider, which
// is a no-op unless the host program installs one.
type Metrics struct {
	RequestsTotal     atomic.Int64
	ActiveConnections atomic.Int64
	ErrorsTotal       atomic.Int64
	Errors4xx         atomic.Int64
	Errors5xx         atomic.Int64

	TotalLatencyNs atomic.Int64

	requests    metric.Int64Counter
	connections metric.Int64UpDownCounter
	duration    metric.Float64Histogram
}

// NewMetrics creates a new metrics instance
func NewMetrics() *Metrics {
	return newMetrics(otel.Meter(instrumentationName))
}

func newMetrics(meter metric.Meter) *Metrics {
	m := &Metrics{}
	fallback := noop.NewMeterProvider().Meter(instrumentationName)

	var err error
	m.requests, err = meter.Int64Counter("webserver.requests",
		metric.WithDescription("Responses written, by status code"),
		metric.WithUnit("{request}"))
	if err != nil {
		m.requests, _ = fallback.Int64Counter("webserver.requests")
	}
	m.connections, err = meter.Int64UpDownCounter("webserver.connections.active",
		metric.WithDescription("Connections currently held by a worker"),
		metric.WithUnit("{connection}"))
	if err != nil {
		m.connections, _ = fallback.Int64UpDownCounter("webserver.connections.active")
	}
	m.duration, err = meter.Float64Histogram("webserver.request.duration",
		metric.WithDescription("Time from parsed request to flushed response"),
		metric.WithUnit("s"))
	if err != nil {
		m.duration, _ = fallback.Float64Histogram("webserver.request.duration")
	}
	return m
}

func (m *Metrics) connOpened(ctx context.Context) {
	m.ActiveConnections.Add(1)
	m.connections.Add(ctx, 1)
}

func (m *Metrics) connClosed(ctx context.Context) {
	m.ActiveConnections.Add(-1)
	m.connections.Add(ctx, -1)
}

// RecordRequest records a completed request
func (m *Metrics) RecordRequest(ctx context.Context, code response.StatusCode, duration time.Duration) {
	m.RequestsTotal.Add(1)
	m.TotalLatencyNs.Add(duration.Nanoseconds())

	switch {
	case code.IsClientError():
		m.Errors4xx.Add(1)
	case code.IsServerError():
		m.Errors5xx.Add(1)
		m.ErrorsTotal.Add(1)
	}

	attrs := metric.WithAttributes(attribute.Int("http.response.status_code", int(code)))
	m.requests.Add(ctx, 1, attrs)
	m.duration.Record(ctx, duration.Seconds(), attrs)
}

// AverageLatency returns average request latency
func (m *Metrics) AverageLatency() time.Duration {
	total := m.RequestsTotal.Load()
	if total == 0 {
		return 0
	}
	return time.Duration(m.TotalLatencyNs.Load() / total)
}

type MetricsSnapshot struct {
	RequestsTotal     int64
	ActiveConnections int64
	ErrorsTotal       int64
	Errors4xx         int64
	Errors5xx         int64
	AverageLatency    time.Duration
}

func (m *Metrics) Snapshot() MetricsSnapshot {
	return MetricsSnapshot{
		RequestsTotal:     m.RequestsTotal.Load(),
		ActiveConnections: m.ActiveConnections.Load(),
		ErrorsTotal:       m.ErrorsTotal.Load(),
		Errors4xx:         m.Errors4xx.Load(),
		Errors5xx:         m.Errors5xx.Load(),
		AverageLatency:    m.AverageLatency(),
	}
}
