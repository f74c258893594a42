// Package metrics exposes Prometheus instrumentation for the tournament
// engine at GET /metrics.
//
// Engine metrics:
//
//	tournament_phase_transitions_total     counter: transitions by source and target phase
//	tournament_persistence_failures_total  counter: failed writes by operation
//	tournament_sessions_active             gauge: aggregates held in memory
//	tournament_http_requests_total         counter: requests by method, route and status
//	tournament_http_request_duration_secs  histogram: latency by method and route
package metrics

import (
	"bufio"
	"errors"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	phaseTransitionsOpts = prometheus.CounterOpts{
		Name: "tournament_phase_transitions_total",
		Help: "Tournament phase transitions by source and target phase.",
	}
	persistenceFailuresOpts = prometheus.CounterOpts{
		Name: "tournament_persistence_failures_total",
		Help: "Failed tournament writes by operation.",
	}
	activeSessionsOpts = prometheus.GaugeOpts{
		Name: "tournament_sessions_active",
		Help: "Tournament aggregates currently held in memory.",
	}
	httpRequestsOpts = prometheus.CounterOpts{
		Name: "tournament_http_requests_total",
		Help: "Total HTTP requests handled.",
	}
	httpDurationOpts = prometheus.HistogramOpts{
		Name:    "tournament_http_request_duration_seconds",
		Help:    "HTTP request latency in seconds.",
		Buckets: prometheus.DefBuckets,
	}
)

var PhaseTransitions = promauto.NewCounterVec(phaseTransitionsOpts, []string{"from", "to"})

var PersistenceFailures = promauto.NewCounterVec(persistenceFailuresOpts, []string{"operation"})

var ActiveSessions = promauto.NewGauge(activeSessionsOpts)

var HTTPRequests = promauto.NewCounterVec(httpRequestsOpts, []string{"method", "route", "status"})

var HTTPDuration = promauto.NewHistogramVec(httpDurationOpts, []string{"method", "route"})

// Handler returns the Prometheus scrape handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Middleware records request counts and latency. Routes are labelled with the
// chi route pattern so ids do not blow up cardinality.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := &responseWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rw, r)

		route := routeLabel(r)
		HTTPRequests.WithLabelValues(r.Method, route, strconv.Itoa(rw.status)).Inc()
		HTTPDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}

type responseWriter struct {
	http.ResponseWriter
	status int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.status = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Unwrap() http.ResponseWriter { return rw.ResponseWriter }

// Hijack keeps websocket upgrades working behind the middleware.
func (rw *responseWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := rw.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("response writer does not support hijacking")
	}
	rw.status = http.StatusSwitchingProtocols
	return h.Hijack()
}

func routeLabel(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if pattern := rctx.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return sanitizePath(r.URL.Path)
}

func sanitizePath(path string) string {
	if len(path) > 64 {
		return path[:64] + "..."
	}
	return path
}

// Init registers a fresh set of the collectors with reg. Production code uses
// the promauto collectors on the default registerer; Init serves isolated
// registries in tests.
func Init(reg prometheus.Registerer) {
	reg.MustRegister(
		prometheus.NewCounterVec(phaseTransitionsOpts, []string{"from", "to"}),
		prometheus.NewCounterVec(persistenceFailuresOpts, []string{"operation"}),
		prometheus.NewGauge(activeSessionsOpts),
		prometheus.NewCounterVec(httpRequestsOpts, []string{"method", "route", "status"}),
		prometheus.NewHistogramVec(httpDurationOpts, []string{"method", "route"}),
	)
}
