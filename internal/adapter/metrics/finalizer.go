package metrics

import "github.com/prometheus/client_golang/prometheus"

// FinalizerMetrics holds Prometheus metrics for the finalization sweep.
type FinalizerMetrics struct {
	Sweeps          *prometheus.CounterVec
	SweepDuration   prometheus.Histogram
	ClaimsFinalized *prometheus.CounterVec
	ClaimFailures   prometheus.Counter
}

// NewFinalizerMetrics creates and registers finalizer metrics on the given registry.
func NewFinalizerMetrics(reg prometheus.Registerer) *FinalizerMetrics {
	m := &FinalizerMetrics{
		Sweeps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "finalizer",
			Name:      "sweeps_total",
			Help:      "Total number of finalization sweeps, by result (ran, skipped_not_leader, failed).",
		}, []string{"result"}),
		SweepDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "finalizer",
			Name:      "sweep_duration_seconds",
			Help:      "Duration of a finalization sweep in seconds.",
			Buckets:   prometheus.DefBuckets,
		}),
		ClaimsFinalized: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "finalizer",
			Name:      "claims_total",
			Help:      "Total number of claims finalized, by outcome.",
		}, []string{"outcome"}),
		ClaimFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "finalizer",
			Name:      "claim_failures_total",
			Help:      "Total number of claims whose finalization failed and will be retried.",
		}),
	}

	reg.MustRegister(m.Sweeps, m.SweepDuration, m.ClaimsFinalized, m.ClaimFailures)
	return m
}
