package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP metrics
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "video_server_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "video_server_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	HTTPRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "video_server_http_requests_in_flight",
			Help: "Number of HTTP requests currently being processed",
		},
	)
)

// Crawler metrics
var (
	CrawlRunsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "video_server_crawl_runs_total",
			Help: "Total number of catalog crawl passes",
		},
	)

	CrawlLastRunTimestamp = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "video_server_crawl_last_run_timestamp_seconds",
			Help: "Unix timestamp of the last completed crawl pass",
		},
	)

	CrawlLastRunDuration = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "video_server_crawl_last_run_duration_seconds",
			Help: "Duration of the last crawl pass in seconds",
		},
	)

	CrawlIsRunning = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "video_server_crawl_running",
			Help: "Whether a crawl pass is currently running (1 or 0)",
		},
	)

	CrawlVideosResolved = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "video_server_crawl_videos_resolved_total",
			Help: "Total number of video records resolved across all crawl passes",
		},
	)

	CrawlVideosCreated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "video_server_crawl_videos_created_total",
			Help: "Total number of new video records created",
		},
	)

	CrawlVideosUpdated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "video_server_crawl_videos_updated_total",
			Help: "Total number of video records updated due to drift",
		},
	)

	CrawlErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "video_server_crawl_errors_total",
			Help: "Per-item errors during crawl passes",
		},
		[]string{"stage"}, // "stat", "subtitles", "store", "thumbnail"
	)
)

// Subtitle metrics
var (
	SubtitleConversionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "video_server_subtitle_conversions_total",
			Help: "Total number of subtitle cache operations",
		},
		[]string{"operation"}, // "copy", "convert"
	)

	SubtitleErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "video_server_subtitle_errors_total",
			Help: "Per-language subtitle reconciliation failures",
		},
	)
)

// Thumbnail metrics
var (
	ThumbnailExtractions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "video_server_thumbnail_extractions_total",
			Help: "Frame extraction attempts by outcome",
		},
		[]string{"status"}, // "success", "error", "cached"
	)

	ThumbnailExtractionDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "video_server_thumbnail_extraction_duration_seconds",
			Help:    "Duration of external frame extraction in seconds",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
	)
)

// Streaming metrics
var (
	StreamRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "video_server_stream_requests_total",
			Help: "Video stream requests by response kind",
		},
		[]string{"kind"}, // "full", "partial"
	)

	StreamBytesSent = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "video_server_stream_bytes_sent_total",
			Help: "Total video bytes written to clients",
		},
	)
)

// Store metrics
var (
	StoreQueryTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "video_server_store_queries_total",
			Help: "Total number of catalog store queries",
		},
		[]string{"operation", "status"},
	)

	StoreQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "video_server_store_query_duration_seconds",
			Help:    "Catalog store query duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		},
		[]string{"operation"},
	)
)

// Filesystem metrics
var (
	FilesystemRetryAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "video_server_fs_retry_attempts_total",
			Help: "Filesystem operation retries after stale NFS handles",
		},
		[]string{"operation"},
	)

	FilesystemStaleErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "video_server_fs_stale_errors_total",
			Help: "ESTALE errors observed during filesystem operations",
		},
		[]string{"operation"},
	)
)
