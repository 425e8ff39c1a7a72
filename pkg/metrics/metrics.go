// Package metrics provides the centralized Prometheus metrics registry for
// the Polymarket data client. All metrics are defined in their respective
// packages (client, cache, prices) to maintain modularity and avoid
// circular dependencies.
//
// This package provides documentation and reference for all available metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Registry is the default Prometheus registry used by the client.
// All metrics are automatically registered via promauto in their respective packages.
var Registry = prometheus.DefaultRegisterer

// Metrics Documentation
//
// Cache Metrics (pkg/cache):
//   - pm_cache_page_hits_total (Counter): Page files served from the on-disk cache
//   - pm_cache_page_misses_total (Counter): Page reads that fell through to the API
//   - pm_cache_consolidated_hits_total (Counter): Pulls served from a consolidated artifact
//   - pm_cache_consolidated_misses_total (Counter): Consolidated lookups that fell back to pagination
//   - pm_cache_errors_total{operation} (Counter): Cache operation errors
//
// Request Metrics (pkg/client):
//   - pm_requests_total{endpoint, status} (Counter): Total requests by endpoint and HTTP status
//   - pm_request_duration_seconds{endpoint} (Histogram): Request duration by endpoint
//   - pm_errors_total{class} (Counter): Errors by class (client, server, rate_limit, network)
//
// Retry Metrics (pkg/client):
//   - pm_retries_total{error_class} (Counter): Retry attempts by error class
//   - pm_retry_backoff_seconds{error_class} (Histogram): Backoff duration by error class
//   - pm_retry_exhausted_total{error_class} (Counter): Requests that exhausted max retries
//
// Price History Metrics (pkg/prices):
//   - pm_price_chunks_fetched_total (Counter): Chunks fetched successfully
//   - pm_price_chunks_failed_total (Counter): Chunks that failed and were skipped
//   - pm_price_points_fetched_total (Counter): Price points fetched from the API
//
// Example Prometheus Queries:
//
//   # Page Cache Hit Rate
//   sum(rate(pm_cache_page_hits_total[5m])) /
//   (sum(rate(pm_cache_page_hits_total[5m])) + sum(rate(pm_cache_page_misses_total[5m])))
//
//   # Request Error Rate
//   rate(pm_errors_total[5m])
//
//   # P95 Request Latency
//   histogram_quantile(0.95, rate(pm_request_duration_seconds_bucket[5m]))
//
//   # Chunk Failure Share
//   rate(pm_price_chunks_failed_total[5m]) /
//   (rate(pm_price_chunks_fetched_total[5m]) + rate(pm_price_chunks_failed_total[5m]))
