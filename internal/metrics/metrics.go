// Package metrics provides Prometheus metrics for anchoring and rendering.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the Readwell server.
type Metrics struct {
	registry *prometheus.Registry

	// Anchoring
	AnchorsTotal   *prometheus.CounterVec // by confidence tier
	OrphansTotal   prometheus.Counter
	RepairsTotal   prometheus.Counter // offsets rewritten after re-anchoring
	RenderDuration prometheus.Histogram

	// Render cache
	CacheLookupsTotal *prometheus.CounterVec // result=hit|miss|error

	// Highlights
	HighlightOpsTotal *prometheus.CounterVec // op, status

	// HTTP
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// SSE
	SSEClients prometheus.Gauge
}

// New creates all metrics on a private registry, so several instances can
// coexist in one process.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	f := promauto.With(reg)

	m := &Metrics{registry: reg}

	m.AnchorsTotal = f.NewCounterVec(
		prometheus.CounterOpts{
			Name: "readwell_anchors_total",
			Help: "Highlights anchored, by confidence tier",
		},
		[]string{"confidence"},
	)

	m.OrphansTotal = f.NewCounter(
		prometheus.CounterOpts{
			Name: "readwell_anchor_orphans_total",
			Help: "Highlights whose quote could not be found in the article",
		},
	)

	m.RepairsTotal = f.NewCounter(
		prometheus.CounterOpts{
			Name: "readwell_anchor_repairs_total",
			Help: "Highlights whose stored offsets were refreshed after re-anchoring",
		},
	)

	m.RenderDuration = f.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "readwell_render_duration_seconds",
			Help:    "Time spent painting highlights onto an article",
			Buckets: []float64{.0005, .001, .0025, .005, .01, .025, .05, .1, .25, .5, 1},
		},
	)

	m.CacheLookupsTotal = f.NewCounterVec(
		prometheus.CounterOpts{
			Name: "readwell_render_cache_lookups_total",
			Help: "Render cache lookups by result",
		},
		[]string{"result"},
	)

	m.HighlightOpsTotal = f.NewCounterVec(
		prometheus.CounterOpts{
			Name: "readwell_highlight_operations_total",
			Help: "Highlight mutations by operation and status",
		},
		[]string{"op", "status"},
	)

	m.HTTPRequestsTotal = f.NewCounterVec(
		prometheus.CounterOpts{
			Name: "readwell_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	m.HTTPRequestDuration = f.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "readwell_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	m.SSEClients = f.NewGauge(
		prometheus.GaugeOpts{
			Name: "readwell_sse_clients",
			Help: "Connected server-sent event clients",
		},
	)

	return m
}

// Registry returns the registry the metrics are registered on.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the metrics in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// RecordAnchor counts one anchored highlight under its confidence tier.
func (m *Metrics) RecordAnchor(confidence string) {
	m.AnchorsTotal.WithLabelValues(confidence).Inc()
}

// RecordRender records a paint pass.
func (m *Metrics) RecordRender(duration time.Duration, orphans int) {
	m.RenderDuration.Observe(duration.Seconds())
	m.OrphansTotal.Add(float64(orphans))
}

// RecordCacheLookup records a render cache lookup result.
func (m *Metrics) RecordCacheLookup(result string) {
	m.CacheLookupsTotal.WithLabelValues(result).Inc()
}

// RecordHighlightOp records a highlight mutation.
func (m *Metrics) RecordHighlightOp(op string, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	m.HighlightOpsTotal.WithLabelValues(op, status).Inc()
}

// RecordHTTPRequest records a completed HTTP request.
func (m *Metrics) RecordHTTPRequest(method, route, status string, duration time.Duration) {
	m.HTTPRequestsTotal.WithLabelValues(method, route, status).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}
