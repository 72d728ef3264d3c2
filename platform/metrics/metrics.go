// Package metrics exposes Prometheus instrumentation for the scan pipeline.
// This is part of the platform layer and contains no business logic.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ScanDuration tracks how long one full scan pass takes.
	ScanDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "scan_pass_duration_seconds",
			Help:    "Duration of one deadline scan pass in seconds",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 10), // 10ms to ~10s
		},
		[]string{"trigger"}, // trigger: timer, on_demand
	)

	// ItemsScanned counts candidate work items examined, per source.
	ItemsScanned = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scan_items_scanned_total",
			Help: "Total number of work items examined by the scanner",
		},
		[]string{"source"},
	)

	// OverdueFound counts items that matched the overdue predicate, per source.
	OverdueFound = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scan_overdue_found_total",
			Help: "Total number of overdue work items detected",
		},
		[]string{"source"},
	)

	// NotificationsCreated counts newly persisted delay notifications.
	NotificationsCreated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "delay_notifications_created_total",
			Help: "Total number of delay notifications created",
		},
		[]string{"source"},
	)

	// LookupFailures counts owner name/role resolution failures during scans.
	LookupFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scan_lookup_failures_total",
			Help: "Total number of owner lookup failures during scanning",
		},
		[]string{"kind"}, // kind: name, role
	)
)

// ObserveScanDuration records the duration of a scan pass.
func ObserveScanDuration(trigger string, duration time.Duration) {
	ScanDuration.WithLabelValues(trigger).Observe(duration.Seconds())
}
