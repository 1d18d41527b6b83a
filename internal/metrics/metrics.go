package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// SyncRuns counts completed schedule runs by outcome (success/partial/failed)
	SyncRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "erpsync_runs_total",
		Help: "Total number of schedule runs by outcome status",
	}, []string{"status"})

	// RecordsProcessed tracks the total records normalized from external systems
	RecordsProcessed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "erpsync_records_processed_total",
		Help: "Total number of records processed across all sync runs",
	})

	RecordsFailed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "erpsync_records_failed_total",
		Help: "Total number of records that failed to process",
	})

	// RunDuration measures one schedule run end to end, including all sub-syncs
	RunDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "erpsync_run_duration_seconds",
		Help:    "Duration of schedule runs in seconds",
		Buckets: prometheus.DefBuckets,
	})

	// DueBacklog is the number of due schedules seen at the start of each sweep
	// A growing value means the sweep cadence cannot keep up
	DueBacklog = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "erpsync_due_backlog",
		Help: "Number of due schedules observed at the start of the last sweep",
	})
)
