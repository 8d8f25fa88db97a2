package metrics

import "github.com/prometheus/client_golang/prometheus"

// VoteMetrics holds Prometheus metrics for claim and vote submission.
type VoteMetrics struct {
	VotesProcessed  *prometheus.CounterVec
	ClaimsSubmitted prometheus.Counter
	ClaimsDeleted   *prometheus.CounterVec
}

// NewVoteMetrics creates and registers vote metrics on the given registry.
func NewVoteMetrics(reg prometheus.Registerer) *VoteMetrics {
	m := &VoteMetrics{
		VotesProcessed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "votes_processed_total",
			Help:      "Total number of vote submissions, by result.",
		}, []string{"result"}),
		ClaimsSubmitted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "claims_submitted_total",
			Help:      "Total number of claims submitted.",
		}),
		ClaimsDeleted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "claims_deleted_total",
			Help:      "Total number of claims deleted, by whether they were finalized.",
		}, []string{"finalized"}),
	}

	reg.MustRegister(m.VotesProcessed, m.ClaimsSubmitted, m.ClaimsDeleted)
	return m
}
