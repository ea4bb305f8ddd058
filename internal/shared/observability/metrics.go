package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics definitions
var (
	ExtractionDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "crmaudit_extraction_seconds",
		Help:    "Time spent extracting the structural record of a source file.",
		Buckets: prometheus.DefBuckets,
	}, []string{"kind"})

	CacheHitsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "crmaudit_cache_hits_total",
		Help: "Total number of extraction cache hits.",
	})

	CacheMissesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "crmaudit_cache_misses_total",
		Help: "Total number of extraction cache misses.",
	})

	FilesScanned = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "crmaudit_files_scanned",
		Help: "Number of source files in the last audit run.",
	})

	FunctionsExtracted = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "crmaudit_functions_extracted",
		Help: "Number of functions in the last audit run.",
	})

	IssuesBySeverity = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "crmaudit_issues",
		Help: "Issue count by severity in the last audit run.",
	}, []string{"severity"})

	HealthScore = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "crmaudit_health_score",
		Help: "Health score of the last audit run (0-100).",
	})

	ValidationDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "crmaudit_validation_seconds",
		Help:    "Time spent on a validation pass.",
		Buckets: prometheus.DefBuckets,
	}, []string{"pass"})

	WatcherEventsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "crmaudit_watcher_events_total",
		Help: "Total number of file system events received by the watcher.",
	})

	WatcherRunsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "crmaudit_watcher_runs_total",
		Help: "Total number of audits triggered by the watcher.",
	})

	WatcherRunsThrottledTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "crmaudit_watcher_runs_throttled_total",
		Help: "Total number of watch-triggered audits dropped by the rate limiter.",
	})
)
