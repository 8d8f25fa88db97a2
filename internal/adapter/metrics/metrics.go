package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "rumorpulse"

// Set bundles every collector group the service registers.
type Set struct {
	Reputation *ReputationMetrics
	Finalizer  *FinalizerMetrics
	Votes      *VoteMetrics
	HTTP       *HTTPMetrics
	Store      *StoreMetrics
	Redis      *RedisMetrics
}

// NewSet creates and registers all collector groups on reg.
func NewSet(reg prometheus.Registerer) *Set {
	return &Set{
		Reputation: NewReputationMetrics(reg),
		Finalizer:  NewFinalizerMetrics(reg),
		Votes:      NewVoteMetrics(reg),
		HTTP:       NewHTTPMetrics(reg),
		Store:      NewStoreMetrics(reg),
		Redis:      NewRedisMetrics(reg),
	}
}

// NewRegistry creates the service registry. Go runtime and process
// collectors live on the default registry and are served alongside it.
func NewRegistry() *prometheus.Registry {
	return prometheus.NewRegistry()
}

// Handler serves reg together with the default registry, which holds the
// promauto collectors of the error middleware.
func Handler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(prometheus.Gatherers{reg, prometheus.DefaultGatherer}, promhttp.HandlerOpts{})
}
