package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ReportFilesDiscovered = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "analogtab_report_files_discovered_total",
			Help: "Total parameter report files found during discovery walks",
		},
	)

	ReportsMerged = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "analogtab_reports_merged_total",
			Help: "Total parameter reports merged into the wide table",
		},
		[]string{"dataset", "method"},
	)

	BatchDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "analogtab_batch_duration_seconds",
			Help:    "Wall time of full aggregation batches",
			Buckets: prometheus.ExponentialBuckets(0.1, 4, 8),
		},
	)

	ResultFilesRead = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "analogtab_result_files_read_total",
			Help: "Total array result files opened, by kind",
		},
		[]string{"kind"},
	)
)
