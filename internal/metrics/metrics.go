package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Publisher metrics

	JobsPublished = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "mysqlq",
		Name:      "jobs_published_total",
		Help:      "Jobs pushed into the pipeline, by publisher.",
	}, []string{"locus"})

	PublisherErrors = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "mysqlq",
		Name:      "publisher_errors_total",
		Help:      "Database errors swallowed by the publisher loops.",
	}, []string{"locus"})

	DedupDropped = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "mysqlq",
		Name:      "dedup_dropped_total",
		Help:      "Values dropped by the dedup gate because their id was in flight.",
	})

	// Executor metrics

	JobsExecuted = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "mysqlq",
		Name:      "jobs_executed_total",
		Help:      "Executor steps, by outcome.",
	}, []string{"outcome"})

	HandlerErrors = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "mysqlq",
		Name:      "handler_errors_total",
		Help:      "Errors raised by user handlers.",
	})

	DuplicateContinuations = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "mysqlq",
		Name:      "duplicate_continuations_total",
		Help:      "Continuation inserts lost to another worker (benign).",
	})

	HandlerDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "mysqlq",
		Name:      "handler_duration_seconds",
		Help:      "Wall time of a single handler invocation.",
		Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
	})
)

// Register registers all collectors with the default registry. Call once per
// process; the library itself never registers.
func Register() {
	prometheus.MustRegister(
		JobsPublished,
		PublisherErrors,
		DedupDropped,
		JobsExecuted,
		HandlerErrors,
		DuplicateContinuations,
		HandlerDuration,
	)
}

// NewServer returns an HTTP server exposing /metrics on addr.
func NewServer(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	return &http.Server{Addr: addr, Handler: mux}
}
