// Package metrics exposes Prometheus instruments for the ingestion pipeline
// and the HTTP API. A nil *Recorder is valid and records nothing.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "accolade"

// Recorder owns a private registry so tests and multiple instances never
// collide on global registration.
type Recorder struct {
	registry *prometheus.Registry

	upstreamRequests *prometheus.CounterVec
	runs             *prometheus.CounterVec
	runDuration      prometheus.Histogram
	statsInserted    prometheus.Counter
	awardsCreated    *prometheus.CounterVec
	httpRequests     *prometheus.CounterVec
	httpDuration     *prometheus.HistogramVec
}

// NewRecorder registers every instrument on a fresh registry.
func NewRecorder() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		upstreamRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "upstream_requests_total",
			Help:      "Requests made to stat providers.",
		}, []string{"source", "result"}),
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ingest_runs_total",
			Help:      "Ingestion runs by terminal status.",
		}, []string{"status"}),
		runDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "ingest_duration_seconds",
			Help:      "Wall time of ingestion runs.",
			Buckets:   []float64{1, 5, 15, 30, 60, 120, 300, 600},
		}),
		statsInserted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stats_inserted_total",
			Help:      "Daily stat rows written.",
		}),
		awardsCreated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "awards_created_total",
			Help:      "Awards created by kind.",
		}, []string{"kind"}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests served.",
		}, []string{"method", "route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}

	r.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		r.upstreamRequests, r.runs, r.runDuration, r.statsInserted,
		r.awardsCreated, r.httpRequests, r.httpDuration,
	)
	return r
}

// Registry exposes the underlying registry for gathering.
func (r *Recorder) Registry() *prometheus.Registry {
	if r == nil {
		return nil
	}
	return r.registry
}

// Handler serves the registry in the Prometheus text format.
func (r *Recorder) Handler() http.Handler {
	if r == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}

// RecordUpstreamRequest counts one provider call.
func (r *Recorder) RecordUpstreamRequest(source string, err error) {
	if r == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	r.upstreamRequests.WithLabelValues(source, result).Inc()
}

// RecordRun counts a finished run and observes its duration.
func (r *Recorder) RecordRun(status string, d time.Duration) {
	if r == nil {
		return
	}
	r.runs.WithLabelValues(status).Inc()
	r.runDuration.Observe(d.Seconds())
}

// AddStatsInserted adds newly written stat rows.
func (r *Recorder) AddStatsInserted(n int) {
	if r == nil || n <= 0 {
		return
	}
	r.statsInserted.Add(float64(n))
}

// AddAwardsCreated adds awards written for a kind.
func (r *Recorder) AddAwardsCreated(kind string, n int) {
	if r == nil || n <= 0 {
		return
	}
	r.awardsCreated.WithLabelValues(kind).Add(float64(n))
}

// RecordHTTPRequest counts a served request.
func (r *Recorder) RecordHTTPRequest(method, route string, status int, d time.Duration) {
	if r == nil {
		return
	}
	r.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	r.httpDuration.WithLabelValues(method, route).Observe(d.Seconds())
}
