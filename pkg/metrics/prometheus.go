package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "coinverge"

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	fetchesTotal    *prometheus.CounterVec
	retriesTotal    *prometheus.CounterVec
	errorsTotal     *prometheus.CounterVec
	reconcileKept   prometheus.Counter
	reconcilePruned prometheus.Counter
	latency         *prometheus.HistogramVec
}

// New registers the recorder's collectors on reg.
func New(reg prometheus.Registerer) *Recorder {
	factory := promauto.With(reg)
	return &Recorder{
		fetchesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "upstream_fetches_total",
				Help:      "Upstream fetches by endpoint and final outcome",
			},
			[]string{"endpoint", "outcome"},
		),
		retriesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "upstream_retries_total",
				Help:      "Upstream retry attempts by endpoint",
			},
			[]string{"endpoint"},
		),
		errorsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "errors_total",
				Help:      "Total number of errors encountered",
			},
			[]string{"type"},
		),
		reconcileKept: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reconcile_kept_total",
			Help:      "Watchlist ids confirmed by the upstream during reconciliation",
		}),
		reconcilePruned: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reconcile_pruned_total",
			Help:      "Watchlist ids pruned during reconciliation",
		}),
		latency: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "operation_duration_seconds",
				Help:      "Duration of operations in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
	}
}

// RecordFetch records the final outcome of one upstream call.
func (r *Recorder) RecordFetch(endpoint, outcome string) {
	r.fetchesTotal.WithLabelValues(endpoint, outcome).Inc()
}

func (r *Recorder) RecordRetry(endpoint string) {
	r.retriesTotal.WithLabelValues(endpoint).Inc()
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// RecordReconcile records how many ids survived and how many were pruned.
func (r *Recorder) RecordReconcile(kept, pruned int) {
	r.reconcileKept.Add(float64(kept))
	r.reconcilePruned.Add(float64(pruned))
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}

// Noop discards all measurements.
type Noop struct{}

func (Noop) RecordFetch(string, string)    {}
func (Noop) RecordRetry(string)            {}
func (Noop) RecordError(string)            {}
func (Noop) RecordReconcile(int, int)      {}
func (Noop) RecordLatency(string, float64) {}
