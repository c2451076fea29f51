// Package observability provides Prometheus metrics for gateway traffic,
// streamed responses and tool execution.
package observability

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// LLMBuckets defines histogram buckets suited for LLM inference latencies,
// ranging from 100ms to 120s.
var LLMBuckets = []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120}

// Metrics holds the collectors of one client. A nil *Metrics is valid and
// records nothing.
type Metrics struct {
	// RequestsTotal counts gateway requests by endpoint and outcome.
	RequestsTotal *prometheus.CounterVec

	// RequestDuration records gateway request duration in seconds by endpoint.
	RequestDuration *prometheus.HistogramVec

	// StreamingConnections tracks the number of open SSE streams.
	StreamingConnections prometheus.Gauge

	// StreamEventsTotal counts assembled stream events by kind.
	StreamEventsTotal *prometheus.CounterVec

	// MalformedFramesTotal counts stream frames that could not be decoded.
	MalformedFramesTotal prometheus.Counter

	// ToolExecutionsTotal counts tool executions by name and outcome.
	ToolExecutionsTotal *prometheus.CounterVec

	// ToolRoundsTotal counts completed tool rounds.
	ToolRoundsTotal prometheus.Counter

	registry *prometheus.Registry
}

// NewMetrics creates the collectors and registers them with reg. When reg is
// nil a private registry is used. Collectors already registered by another
// client on the same registerer are shared.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{}
	if reg == nil {
		m.registry = prometheus.NewRegistry()
		reg = m.registry
	}

	m.RequestsTotal = register(reg, prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "litellm_client_requests_total",
			Help: "Gateway requests",
		},
		[]string{"endpoint", "status"},
	))
	m.RequestDuration = register(reg, prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "litellm_client_request_duration_seconds",
			Help:    "Gateway request duration",
			Buckets: LLMBuckets,
		},
		[]string{"endpoint"},
	))
	m.StreamingConnections = register(reg, prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "litellm_client_streams_active",
			Help: "Open streaming responses",
		},
	))
	m.StreamEventsTotal = register(reg, prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "litellm_client_stream_events_total",
			Help: "Assembled stream events",
		},
		[]string{"kind"},
	))
	m.MalformedFramesTotal = register(reg, prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "litellm_client_stream_malformed_frames_total",
			Help: "Stream frames skipped because they were not valid JSON",
		},
	))
	m.ToolExecutionsTotal = register(reg, prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "litellm_client_tool_executions_total",
			Help: "Tool executions",
		},
		[]string{"tool_name", "status"},
	))
	m.ToolRoundsTotal = register(reg, prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "litellm_client_tool_rounds_total",
			Help: "Tool rounds completed by the completion loop",
		},
	))

	return m
}

// register adds c to reg, returning the collector that is already there when
// an identical one was registered first
func register[C prometheus.Collector](reg prometheus.Registerer, c C) C {
	if err := reg.Register(c); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing
			}
		}
		panic(err)
	}
	return c
}

// Gatherer returns the private registry, or nil when an external registerer was supplied
func (m *Metrics) Gatherer() prometheus.Gatherer {
	if m == nil || m.registry == nil {
		return nil
	}
	return m.registry
}

// StatusLabel maps an HTTP status onto its class ("2xx", "4xx", ...)
func StatusLabel(status int) string {
	if status < 100 || status > 599 {
		return strconv.Itoa(status)
	}
	return strconv.Itoa(status/100) + "xx"
}

// ObserveRequest records one finished gateway request. status is a status
// class or an error kind for requests that produced no response.
func (m *Metrics) ObserveRequest(endpoint, status string, d time.Duration) {
	if m == nil {
		return
	}
	m.RequestsTotal.WithLabelValues(endpoint, status).Inc()
	m.RequestDuration.WithLabelValues(endpoint).Observe(d.Seconds())
}

// StreamOpened increments the open stream gauge and returns the matching decrement
func (m *Metrics) StreamOpened() func() {
	if m == nil {
		return func() {}
	}
	m.StreamingConnections.Inc()
	return m.StreamingConnections.Dec
}

// StreamEvent counts one assembled stream event
func (m *Metrics) StreamEvent(kind string) {
	if m == nil {
		return
	}
	m.StreamEventsTotal.WithLabelValues(kind).Inc()
}

// MalformedFrame counts one skipped stream frame
func (m *Metrics) MalformedFrame() {
	if m == nil {
		return
	}
	m.MalformedFramesTotal.Inc()
}

// ToolExecuted counts one tool execution
func (m *Metrics) ToolExecuted(name string, failed bool) {
	if m == nil {
		return
	}
	status := "ok"
	if failed {
		status = "error"
	}
	m.ToolExecutionsTotal.WithLabelValues(name, status).Inc()
}

// ToolRound counts one completed tool round
func (m *Metrics) ToolRound() {
	if m == nil {
		return
	}
	m.ToolRoundsTotal.Inc()
}
