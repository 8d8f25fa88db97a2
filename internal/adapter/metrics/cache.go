package metrics

import "github.com/prometheus/client_golang/prometheus"

// ReputationMetrics holds Prometheus metrics for the reputation engine and its cache.
type ReputationMetrics struct {
	CacheHits         prometheus.Counter
	CacheMisses       *prometheus.CounterVec
	Invalidations     prometheus.Counter
	RecomputeDuration prometheus.Histogram
	PenaltiesApplied  prometheus.Counter
}

// NewReputationMetrics creates and registers reputation metrics on the given registry.
func NewReputationMetrics(reg prometheus.Registerer) *ReputationMetrics {
	m := &ReputationMetrics{
		CacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "reputation_cache",
			Name:      "hits_total",
			Help:      "Total number of fresh reputation cache hits.",
		}),
		CacheMisses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "reputation_cache",
			Name:      "misses_total",
			Help:      "Total number of reputation cache misses, by reason (absent, stale).",
		}, []string{"reason"}),
		Invalidations: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "reputation_cache",
			Name:      "invalidations_total",
			Help:      "Total number of identities whose cached reputation was invalidated.",
		}),
		RecomputeDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "reputation",
			Name:      "recompute_duration_seconds",
			Help:      "Duration of a full reputation recomputation in seconds.",
			Buckets:   []float64{0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0},
		}),
		PenaltiesApplied: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "reputation",
			Name:      "penalties_total",
			Help:      "Total number of permanent reputation penalties written.",
		}),
	}

	reg.MustRegister(m.CacheHits, m.CacheMisses, m.Invalidations, m.RecomputeDuration, m.PenaltiesApplied)
	return m
}
