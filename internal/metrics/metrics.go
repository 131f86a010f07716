// Package metrics defines Prometheus metrics for the recoup server.
package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "recoup_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	RequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recoup_http_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	ErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recoup_errors_total",
			Help: "Total errors by type",
		},
		[]string{"type"},
	)

	RelayProcessed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recoup_relay_entries_processed_total",
			Help: "Change log entries processed by the relay, by table and outcome",
		},
		[]string{"table", "outcome"},
	)

	RelayCursor = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "recoup_relay_cursor",
			Help: "Highest change log id the relay has processed",
		},
	)

	RelayUnprocessed = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "recoup_relay_unprocessed",
			Help: "Unprocessed change log entries at last tick",
		},
	)

	BroadcastFlushes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recoup_broadcast_flushes_total",
			Help: "Debounced broadcast flushes, by topic",
		},
		[]string{"topic"},
	)

	BroadcastQueueDepth = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "recoup_broadcast_queue_depth",
			Help: "Events waiting in the debounce queue, by topic",
		},
		[]string{"topic"},
	)

	WSConnections = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "recoup_websocket_connections",
			Help: "Active WebSocket connections",
		},
	)

	SnapshotRows = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "recoup_snapshot_rows_captured_total",
			Help: "Snapshot rows written by the capture job",
		},
	)

	SnapshotLastRun = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "recoup_snapshot_last_run_timestamp",
			Help: "Unix time of the last successful snapshot capture",
		},
	)
)

func init() {
	prometheus.MustRegister(
		RequestDuration, RequestsTotal, ErrorsTotal,
		RelayProcessed, RelayCursor, RelayUnprocessed,
		BroadcastFlushes, BroadcastQueueDepth, WSConnections,
		SnapshotRows, SnapshotLastRun,
	)
}
