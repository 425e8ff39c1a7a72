package prices

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ChunksFetched = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pm_price_chunks_fetched_total",
		Help: "Total number of price-history chunks fetched successfully",
	})

	ChunksFailed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pm_price_chunks_failed_total",
		Help: "Total number of price-history chunks that failed and were skipped",
	})

	PointsFetched = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pm_price_points_fetched_total",
		Help: "Total number of price points fetched from the API",
	})
)
