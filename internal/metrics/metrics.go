// Package metrics holds the gateway's Prometheus collectors.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Chat request outcomes.
const (
	OutcomeStream      = "stream"
	OutcomeTools       = "tools"
	OutcomeRateLimited = "rate_limited"
	OutcomeQuota       = "quota_exhausted"
	OutcomeBadRequest  = "bad_request"
	OutcomeError       = "error"
)

// Metrics is registered on its own registry so every server and test gets a fresh set.
type Metrics struct {
	registry *prometheus.Registry

	ChatRequestsTotal   *prometheus.CounterVec
	ChatRequestDuration prometheus.Histogram
	ToolCallsTotal      *prometheus.CounterVec
	UpstreamErrorsTotal *prometheus.CounterVec
	RelayBytesTotal     prometheus.Counter
	TaskRequestsTotal   *prometheus.CounterVec
}

// New creates and registers all collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	m := &Metrics{registry: reg}

	m.ChatRequestsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "flowboard_chat_requests_total",
			Help: "Total number of chat requests by outcome",
		},
		[]string{"outcome"},
	)

	m.ChatRequestDuration = factory.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "flowboard_chat_request_duration_seconds",
			Help:    "Duration of chat requests in seconds, including the streamed relay",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		},
	)

	m.ToolCallsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "flowboard_tool_calls_total",
			Help: "Total number of executed tool calls",
		},
		[]string{"tool", "success"},
	)

	m.UpstreamErrorsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "flowboard_upstream_errors_total",
			Help: "Total number of model backend failures by kind",
		},
		[]string{"kind"},
	)

	m.RelayBytesTotal = factory.NewCounter(
		prometheus.CounterOpts{
			Name: "flowboard_relay_bytes_total",
			Help: "Bytes relayed from the model stream to clients",
		},
	)

	m.TaskRequestsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "flowboard_task_requests_total",
			Help: "Total number of task REST requests",
		},
		[]string{"route", "code"},
	)

	return m
}

// Registry exposes the underlying registry, mainly for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Metrics) ObserveChat(outcome string, started time.Time) {
	m.ChatRequestsTotal.WithLabelValues(outcome).Inc()
	m.ChatRequestDuration.Observe(time.Since(started).Seconds())
}

func (m *Metrics) ObserveToolCall(tool string, success bool) {
	m.ToolCallsTotal.WithLabelValues(tool, strconv.FormatBool(success)).Inc()
}

func (m *Metrics) ObserveUpstreamError(kind string) {
	m.UpstreamErrorsTotal.WithLabelValues(kind).Inc()
}

func (m *Metrics) AddRelayBytes(n int) {
	if n > 0 {
		m.RelayBytesTotal.Add(float64(n))
	}
}

func (m *Metrics) ObserveTaskRequest(route string, code int) {
	m.TaskRequestsTotal.WithLabelValues(route, strconv.Itoa(code)).Inc()
}
