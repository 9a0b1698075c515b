// Package metrics exposes Prometheus collectors for reconciliation runs.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Entity outcomes.
const (
	OutcomeSucceeded = "succeeded"
	OutcomeAbandoned = "abandoned"
	OutcomeSkipped   = "skipped"
)

var (
	// Entities counts processed entities by outcome.
	Entities = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gamemeta_entities_total",
		Help: "Total number of entities processed, by outcome.",
	}, []string{"outcome"}) // outcome: succeeded, abandoned, skipped

	// ProviderCalls counts provider calls by source and failure class.
	ProviderCalls = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gamemeta_provider_calls_total",
		Help: "Total number of provider calls, by source and result class.",
	}, []string{"source", "class"})

	// ProviderLatency observes provider call durations.
	ProviderLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "gamemeta_provider_call_duration_seconds",
		Help:    "Duration of provider calls in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"source"})

	// Verdicts counts identity verdicts by source.
	Verdicts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gamemeta_match_verdicts_total",
		Help: "Total number of identity verdicts, by source and verdict.",
	}, []string{"source", "verdict"})

	// RateLimitRetries counts rate-limit backoffs.
	RateLimitRetries = promauto.NewCounter(prometheus.CounterOpts{
		Name: "gamemeta_rate_limit_retries_total",
		Help: "Total number of rate-limit backoffs.",
	})

	// EntityRetries counts failed entity attempts that were retried.
	EntityRetries = promauto.NewCounter(prometheus.CounterOpts{
		Name: "gamemeta_entity_retries_total",
		Help: "Total number of entity attempts retried after a failure.",
	})

	// Flushes counts checkpoint flushes.
	Flushes = promauto.NewCounter(prometheus.CounterOpts{
		Name: "gamemeta_checkpoint_flushes_total",
		Help: "Total number of checkpoint flushes.",
	})

	// RecordsWritten counts records persisted to the output store.
	RecordsWritten = promauto.NewCounter(prometheus.CounterOpts{
		Name: "gamemeta_records_written_total",
		Help: "Total number of records written to the output store.",
	})
)

// RecordProviderCall records one provider call.
func RecordProviderCall(source, class string, start time.Time) {
	ProviderCalls.WithLabelValues(source, class).Inc()
	ProviderLatency.WithLabelValues(source).Observe(time.Since(start).Seconds())
}

// RecordFlush records a flush of n records.
func RecordFlush(n int) {
	Flushes.Inc()
	RecordsWritten.Add(float64(n))
}

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
