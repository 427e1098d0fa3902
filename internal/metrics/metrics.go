package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder exposes chart generation metrics on its own registry.
type Recorder struct {
	registry *prometheus.Registry

	renders      *prometheus.CounterVec
	failures     *prometheus.CounterVec
	insufficient *prometheus.CounterVec
	lastClose    *prometheus.GaugeVec
	points       *prometheus.GaugeVec
	latency      *prometheus.HistogramVec
	httpRequests *prometheus.CounterVec
}

// New creates a recorder with Go runtime and process collectors registered.
func New() *Recorder {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	factory := promauto.With(reg)

	return &Recorder{
		registry: reg,
		renders: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "chartpress_renders_total",
				Help: "Total number of charts written",
			},
			[]string{"symbol", "direction"},
		),
		failures: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "chartpress_failures_total",
				Help: "Total number of charts that could not be produced, by stage",
			},
			[]string{"stage"},
		),
		insufficient: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "chartpress_insufficient_data_total",
				Help: "Renders that had fewer trading days than requested",
			},
			[]string{"symbol"},
		),
		lastClose: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "chartpress_last_close",
				Help: "Last close shown on a symbol's chart",
			},
			[]string{"symbol"},
		),
		points: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "chartpress_series_points",
				Help: "Number of price points in a symbol's last chart",
			},
			[]string{"symbol"},
		),
		latency: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "chartpress_operation_duration_seconds",
				Help:    "Duration of operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		httpRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "chartpress_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"route", "method", "status"},
		),
	}
}

// Registry returns the recorder's registry.
func (r *Recorder) Registry() *prometheus.Registry { return r.registry }

// Handler serves the registry in the Prometheus exposition format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}

// RecordRender records a written chart.
func (r *Recorder) RecordRender(symbol, direction string, points int, lastClose float64) {
	if direction == "" {
		direction = "none"
	}
	r.renders.WithLabelValues(symbol, direction).Inc()
	r.points.WithLabelValues(symbol).Set(float64(points))
	r.lastClose.WithLabelValues(symbol).Set(lastClose)
}

// RecordFailure records a failed chart by stage.
func (r *Recorder) RecordFailure(stage string) {
	r.failures.WithLabelValues(stage).Inc()
}

// RecordInsufficientData records a render with fewer trading days than requested.
func (r *Recorder) RecordInsufficientData(symbol string) {
	r.insufficient.WithLabelValues(symbol).Inc()
}

// RecordLatency records operation latency.
func (r *Recorder) RecordLatency(op string, d time.Duration) {
	r.latency.WithLabelValues(op).Observe(d.Seconds())
}

// RecordHTTP records a served request.
func (r *Recorder) RecordHTTP(route, method, status string) {
	r.httpRequests.WithLabelValues(route, method, status).Inc()
}
