package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// CacheLookups counts snapshot reads by kind (products, category) and result (hit, miss).
	CacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "versus",
		Name:      "cache_lookups_total",
		Help:      "Cache snapshot lookups by kind and result.",
	}, []string{"kind", "result"})

	// SourceFetches counts remote catalog calls by kind and result (ok, not_found, error).
	SourceFetches = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "versus",
		Name:      "source_fetches_total",
		Help:      "Remote catalog fetches by kind and result.",
	}, []string{"kind", "result"})

	Comparisons = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "versus",
		Name:      "comparisons_total",
		Help:      "Comparison runs by outcome.",
	}, []string{"outcome"})

	ComparisonDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "versus",
		Name:      "comparison_duration_seconds",
		Help:      "Time spent scoring and ranking a comparison.",
		Buckets:   prometheus.ExponentialBuckets(0.0005, 4, 8),
	})
)
