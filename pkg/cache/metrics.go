package cache

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// PageHits tracks page cache hits
	PageHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "pm_cache_page_hits_total",
			Help: "Total number of page cache hits",
		},
	)

	// PageMisses tracks page cache misses (absent or corrupted entries)
	PageMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "pm_cache_page_misses_total",
			Help: "Total number of page cache misses",
		},
	)

	// ConsolidatedHits tracks consolidated fast-path loads
	ConsolidatedHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "pm_cache_consolidated_hits_total",
			Help: "Total number of consolidated cache loads",
		},
	)

	// ConsolidatedMisses tracks consolidated lookups that fell back to pagination
	ConsolidatedMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "pm_cache_consolidated_misses_total",
			Help: "Total number of consolidated cache misses",
		},
	)

	// CacheErrors tracks cache write failures
	CacheErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pm_cache_errors_total",
			Help: "Total number of cache operation errors",
		},
		[]string{"operation"}, // "set"
	)
)
