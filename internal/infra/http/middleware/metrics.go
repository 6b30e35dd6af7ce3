package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	activeConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_active_connections",
			Help: "Number of active HTTP connections",
		},
	)

	batchRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "batch_runs_total",
			Help: "Total number of scheduling runs by result",
		},
		[]string{"result"},
	)

	callsScheduled = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "calls_scheduled_total",
			Help: "Total number of call jobs queued",
		},
	)

	dispatchFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "dispatch_failures_total",
			Help: "Total number of call jobs that failed to queue",
		},
	)

	outcomesProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "outcomes_processed_total",
			Help: "Total number of call events applied",
		},
		[]string{"event"},
	)

	callOutcomes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "call_outcomes_total",
			Help: "Total number of completed calls by outcome type",
		},
		[]string{"type"},
	)
)

type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func Metrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		activeConnections.Inc()
		defer activeConnections.Dec()

		rw := &responseWriter{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
		}

		next.ServeHTTP(rw, r)

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(rw.statusCode)

		httpRequestsTotal.WithLabelValues(r.Method, r.URL.Path, status).Inc()
		httpRequestDuration.WithLabelValues(r.Method, r.URL.Path).Observe(duration)
	})
}

func RecordBatchRun(result string) {
	batchRuns.WithLabelValues(result).Inc()
}

func RecordCallScheduled() {
	callsScheduled.Inc()
}

func RecordDispatchFailure() {
	dispatchFailures.Inc()
}

func RecordOutcome(event string) {
	outcomesProcessed.WithLabelValues(event).Inc()
}

func RecordCallOutcome(outcomeType string) {
	callOutcomes.WithLabelValues(outcomeType).Inc()
}
