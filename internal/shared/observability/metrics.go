package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics definitions
var (
	ParseDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "stratum_parse_seconds",
		Help:    "Time spent parsing a single boundary.",
		Buckets: prometheus.DefBuckets,
	}, []string{"kind"})

	BoundariesParsedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "stratum_boundaries_parsed_total",
		Help: "Total number of boundaries parsed (cache misses doing real work).",
	})

	FactsGeneratedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "stratum_facts_generated_total",
		Help: "Total number of facts projected from parse trees.",
	})

	CacheHitsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "stratum_cache_hits_total",
		Help: "Boundary cache lookups answered without reparsing.",
	})

	CacheMissesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "stratum_cache_misses_total",
		Help: "Boundary cache lookups that triggered a real parse.",
	})

	CacheEvictionsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "stratum_cache_evictions_total",
		Help: "Entries dropped by the LRU policy.",
	})

	EditsProcessedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "stratum_edits_processed_total",
		Help: "Total number of edits applied through the engine.",
	})

	QueueDepth = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "stratum_priority_queue_depth",
		Help: "Boundaries currently waiting in the viewport priority queue.",
	})

	BackgroundParsesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "stratum_background_parses_total",
		Help: "Boundaries parsed opportunistically by the background pool.",
	})

	WatcherEventsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "stratum_watcher_events_total",
		Help: "Total number of file system events received by the watcher.",
	})
)
