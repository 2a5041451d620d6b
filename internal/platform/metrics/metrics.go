// Package metrics exposes optimizer counters and timings to Prometheus.
package metrics

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry holds all metrics for the service
type Registry struct {
	// Solver
	SolvesTotal   *prometheus.CounterVec
	SolveDuration *prometheus.HistogramVec
	ModelSize     *prometheus.GaugeVec

	// Routing search
	RoutingCombinations *prometheus.CounterVec
	RoutingCandidates   prometheus.Histogram

	// HTTP
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	registry *prometheus.Registry
}

var (
	defaultRegistry *Registry
	once            sync.Once
)

func DefaultRegistry() *Registry {
	once.Do(func() {
		defaultRegistry = NewRegistry()
	})
	return defaultRegistry
}

func NewRegistry() *Registry {
	r := &Registry{registry: prometheus.NewRegistry()}
	r.initSolverMetrics()
	r.initRoutingMetrics()
	r.initHTTPMetrics()
	return r
}

func (r *Registry) initSolverMetrics() {
	r.SolvesTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "fleet_solves_total",
			Help: "Solver runs by model variant and outcome status",
		},
		[]string{"variant", "status"},
	)

	r.SolveDuration = promauto.With(r.registry).NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "fleet_solve_duration_seconds",
			Help:    "Model build plus solve duration in seconds",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30, 60},
		},
		[]string{"variant"},
	)

	r.ModelSize = promauto.With(r.registry).NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "fleet_model_size",
			Help: "Variables and constraints of the last model built per variant",
		},
		[]string{"variant", "kind"},
	)
}

func (r *Registry) initRoutingMetrics() {
	r.RoutingCombinations = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "fleet_routing_combinations_total",
			Help: "Flights-per-day combinations checked, by whether they produced a route",
		},
		[]string{"outcome"},
	)

	r.RoutingCandidates = promauto.With(r.registry).NewHistogram(
		prometheus.HistogramOpts{
			Name:    "fleet_routing_candidate_routes",
			Help:    "Candidate routes handed to the assignment model",
			Buckets: []float64{1, 10, 100, 1000, 10000},
		},
	)
}

func (r *Registry) initHTTPMetrics() {
	r.HTTPRequestsTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "fleet_http_requests_total",
			Help: "HTTP requests by method, route and status",
		},
		[]string{"method", "path", "status"},
	)

	r.HTTPRequestDuration = promauto.With(r.registry).NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "fleet_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)
}

// RecordSolve records one solver run.
func (r *Registry) RecordSolve(variant, status string, duration time.Duration) {
	r.SolvesTotal.WithLabelValues(variant, status).Inc()
	r.SolveDuration.WithLabelValues(variant).Observe(duration.Seconds())
}

func (r *Registry) SetModelSize(variant string, vars, constraints int) {
	r.ModelSize.WithLabelValues(variant, "variables").Set(float64(vars))
	r.ModelSize.WithLabelValues(variant, "constraints").Set(float64(constraints))
}

// RecordRouting records the outcome of one combination search.
func (r *Registry) RecordRouting(combinations, rejected, candidates int) {
	r.RoutingCombinations.WithLabelValues("accepted").Add(float64(combinations - rejected))
	r.RoutingCombinations.WithLabelValues("rejected").Add(float64(rejected))
	r.RoutingCandidates.Observe(float64(candidates))
}

func (r *Registry) RecordHTTPRequest(method, path, status string, duration time.Duration) {
	r.HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
	r.HTTPRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// Handler serves the registry in the Prometheus text format.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}
