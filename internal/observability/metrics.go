// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	// Ingestion metrics
	KlinesReceived   prometheus.Counter
	BarsStored       *prometheus.CounterVec
	IngestErrors     *prometheus.CounterVec
	WSReconnects     prometheus.Counter
	LastBarTimestamp *prometheus.GaugeVec

	// Backtest metrics
	SimulationsRun    *prometheus.CounterVec
	TradesSimulated   prometheus.Counter
	EntriesSkipped    *prometheus.CounterVec
	SimulationLatency prometheus.Histogram
	SweepPointsRun    prometheus.Counter

	// Database metrics
	DBQueryDuration *prometheus.HistogramVec
	DBQueryErrors   *prometheus.CounterVec

	// Health metrics
	LastSuccessfulIngest prometheus.Gauge
	LastSuccessfulRun    prometheus.Gauge
}

// NewMetrics creates a new Metrics instance with all metrics registered.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "confluence_backtest_lab"
	}

	return &Metrics{
		// Ingestion metrics
		KlinesReceived: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingest",
			Name:      "klines_received_total",
			Help:      "Total number of kline messages received over websocket",
		}),
		BarsStored: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingest",
			Name:      "bars_stored_total",
			Help:      "Total number of closed bars stored by timeframe",
		}, []string{"timeframe"}),
		IngestErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingest",
			Name:      "errors_total",
			Help:      "Total number of ingestion errors by type",
		}, []string{"error_type"}),
		WSReconnects: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingest",
			Name:      "ws_reconnects_total",
			Help:      "Total number of websocket reconnects",
		}),
		LastBarTimestamp: promauto.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "ingest",
			Name:      "last_bar_timestamp_ms",
			Help:      "Open time of the most recent stored bar by timeframe",
		}, []string{"timeframe"}),

		// Backtest metrics
		SimulationsRun: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "backtest",
			Name:      "simulations_total",
			Help:      "Total number of simulations run by status",
		}, []string{"status"}),
		TradesSimulated: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "backtest",
			Name:      "trades_simulated_total",
			Help:      "Total number of trades simulated",
		}),
		EntriesSkipped: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "backtest",
			Name:      "entries_skipped_total",
			Help:      "Total number of rejected entries by reason",
		}, []string{"reason"}),
		SimulationLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "backtest",
			Name:      "simulation_duration_seconds",
			Help:      "Wall-clock duration of one simulation",
			Buckets:   prometheus.DefBuckets,
		}),
		SweepPointsRun: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "backtest",
			Name:      "sweep_points_total",
			Help:      "Total number of threshold sweep grid points executed",
		}),

		// Database metrics
		DBQueryDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "database",
			Name:      "query_duration_seconds",
			Help:      "Database query duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"database", "operation"}),
		DBQueryErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "database",
			Name:      "query_errors_total",
			Help:      "Total number of database query errors",
		}, []string{"database", "operation"}),

		// Health metrics
		LastSuccessfulIngest: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "health",
			Name:      "last_successful_ingest_timestamp",
			Help:      "Unix timestamp of last successful bar ingest",
		}),
		LastSuccessfulRun: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "health",
			Name:      "last_successful_run_timestamp",
			Help:      "Unix timestamp of last successful backtest run",
		}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// DefaultMetrics is the default metrics instance.
var DefaultMetrics = NewMetrics("")

// RecordKlineReceived increments the klines received counter.
func RecordKlineReceived() {
	DefaultMetrics.KlinesReceived.Inc()
}

// RecordBarStored records a stored bar and its open time.
func RecordBarStored(timeframe string, timestampMs int64) {
	DefaultMetrics.BarsStored.WithLabelValues(timeframe).Inc()
	DefaultMetrics.LastBarTimestamp.WithLabelValues(timeframe).Set(float64(timestampMs))
	DefaultMetrics.LastSuccessfulIngest.SetToCurrentTime()
}

// RecordIngestError records an ingestion error.
func RecordIngestError(errorType string) {
	DefaultMetrics.IngestErrors.WithLabelValues(errorType).Inc()
}

// RecordWSReconnect increments the websocket reconnect counter.
func RecordWSReconnect() {
	DefaultMetrics.WSReconnects.Inc()
}

// RecordSimulation records a completed simulation.
func RecordSimulation(status string, durationSeconds float64, trades int) {
	DefaultMetrics.SimulationsRun.WithLabelValues(status).Inc()
	DefaultMetrics.SimulationLatency.Observe(durationSeconds)
	DefaultMetrics.TradesSimulated.Add(float64(trades))
	if status == "success" {
		DefaultMetrics.LastSuccessfulRun.SetToCurrentTime()
	}
}

// RecordSweepPoint increments the sweep grid point counter.
func RecordSweepPoint() {
	DefaultMetrics.SweepPointsRun.Inc()
}

// RecordEntrySkipped records a rejected entry.
func RecordEntrySkipped(reason string) {
	DefaultMetrics.EntriesSkipped.WithLabelValues(reason).Inc()
}

// RecordDBQuery records database query metrics.
func RecordDBQuery(database, operation string, seconds float64, err error) {
	DefaultMetrics.DBQueryDuration.WithLabelValues(database, operation).Observe(seconds)
	if err != nil {
		DefaultMetrics.DBQueryErrors.WithLabelValues(database, operation).Inc()
	}
}
