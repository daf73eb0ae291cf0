package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	AggregationCacheHits = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tilehunting_cache_hits_total",
		Help: "Total number of aggregation cache hits",
	}, []string{"cache"})

	AggregationCacheMisses = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tilehunting_cache_misses_total",
		Help: "Total number of aggregation cache misses",
	}, []string{"cache"})

	AggregationCacheInvalidations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tilehunting_cache_invalidated_entries_total",
		Help: "Total number of aggregation cache entries removed by user invalidation",
	}, []string{"cache"})

	TileRenders = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tilehunting_tile_renders_total",
		Help: "Total number of rendered tiles",
	}, []string{"mode"})

	TileRenderLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "tilehunting_tile_render_latency_seconds",
		Help:    "Latency of tile rendering including the store query",
		Buckets: prometheus.DefBuckets,
	}, []string{"mode"})

	IngestedTracks = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tilehunting_ingested_tracks_total",
		Help: "Total number of GPX tracks converted into visited tiles",
	})

	IngestSkippedPoints = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tilehunting_ingest_skipped_points_total",
		Help: "Total number of track points skipped because they could not be projected",
	})

	IngestTileRatio = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "tilehunting_ingest_points_per_tile",
		Help:    "Number of track points per distinct visited tile",
		Buckets: []float64{1, 2, 5, 10, 25, 50, 100, 250, 500},
	})
)
