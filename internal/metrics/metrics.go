// Package metrics holds the Prometheus collectors of the service.
package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "venue_admin"

var (
	registry *prometheus.Registry
	once     sync.Once
)

var (
	MatchTransitionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "match_status_transitions_total",
		Help:      "Match status transitions persisted, by target status",
	}, []string{"to"})
	PredictionsScoredTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "predictions_scored_total",
		Help:      "Predictions scored, by awarded points",
	}, []string{"points"})
	CacheLookupsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "cache_lookups_total",
		Help:      "Read-through cache lookups, by key and result",
	}, []string{"key", "result"})
	EventsPublishedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "events_published_total",
		Help:      "Queue events published, by queue and outcome",
	}, []string{"queue", "outcome"})
)

// Registry returns the process registry with every collector registered.
func Registry() *prometheus.Registry {
	once.Do(func() {
		registry = prometheus.NewRegistry()
		registry.MustRegister(
			MatchTransitionsTotal,
			PredictionsScoredTotal,
			CacheLookupsTotal,
			EventsPublishedTotal,
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	})
	return registry
}

// Handler serves the registry in the Prometheus text format.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry(), promhttp.HandlerOpts{})
}
