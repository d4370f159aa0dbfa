package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Query expansion, chat model and search metrics.
var (
	QueryExpansionTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "query_expansion_total",
			Help:      "Query expansions by outcome",
		},
		[]string{"feature", "result"}, // result: expanded / empty / failed
	)

	QueryExpansionAttempts = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "query_expansion_attempts",
			Help:      "Chat attempts spent per query expansion",
			Buckets:   []float64{1, 2, 3, 5},
		},
	)

	ChatRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "chat_requests_total",
			Help:      "Total chat model requests",
		},
		[]string{"provider", "model", "status"},
	)

	ChatRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "chat_request_duration_seconds",
			Help:      "Chat model request duration in seconds",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"provider", "model"},
	)

	SearchRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "search_requests_total",
			Help:      "Similarity searches by expansion mode and status",
		},
		[]string{"expanded", "status"},
	)

	SearchCandidates = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "search_candidates",
			Help:      "Candidates above threshold returned by the vector source",
			Buckets:   prometheus.ExponentialBuckets(1, 4, 7),
		},
	)

	PromptCacheTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "prompt_cache_total",
			Help:      "System prompt cache lookups by outcome",
		},
		[]string{"result"},
	)
)

var registerPipeline sync.Once

// RegisterPipelineMetrics registers expansion, chat and search metrics. Safe to call repeatedly.
func RegisterPipelineMetrics() {
	registerPipeline.Do(func() {
		prometheus.MustRegister(
			QueryExpansionTotal,
			QueryExpansionAttempts,
			ChatRequestsTotal,
			ChatRequestDuration,
			SearchRequestsTotal,
			SearchCandidates,
			PromptCacheTotal,
		)
	})
}
