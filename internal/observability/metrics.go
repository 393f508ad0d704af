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
	// Pipeline metrics
	BarsProcessed    prometheus.Counter
	BarsAggregated   *prometheus.CounterVec
	SweepsDetected   *prometheus.CounterVec
	StructureShifts  *prometheus.CounterVec
	ZonesDetected    *prometheus.CounterVec
	SetupsCreated    *prometheus.CounterVec
	SetupsExpired    prometheus.Counter
	SetupsInvalid    prometheus.Counter
	SetupsEvicted    prometheus.Counter
	LiveSetups       prometheus.Gauge
	SignalsEmitted   *prometheus.CounterVec
	SignalsThrottled *prometheus.CounterVec

	// Transport metrics
	SignalsPublished prometheus.Counter
	PublishErrors    prometheus.Counter
	FeedMessages     prometheus.Counter
	FeedErrors       prometheus.Counter

	// Database metrics
	DBQueryDuration *prometheus.HistogramVec
	DBQueryErrors   *prometheus.CounterVec
}

// NewMetrics creates a new Metrics instance with all metrics registered.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "sweep_signal_lab"
	}

	return &Metrics{
		BarsProcessed: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "bars_processed_total",
			Help:      "Total number of base bars processed",
		}),
		BarsAggregated: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "bars_aggregated_total",
			Help:      "Total number of higher-timeframe bars sealed",
		}, []string{"timeframe"}),
		SweepsDetected: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "sweeps_detected_total",
			Help:      "Total number of liquidity sweeps detected by pool kind",
		}, []string{"pool_kind"}),
		StructureShifts: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "structure_shifts_total",
			Help:      "Total number of confirmed structure shifts by timeframe",
		}, []string{"timeframe"}),
		ZonesDetected: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "zones_detected_total",
			Help:      "Total number of reaction zones detected by kind",
		}, []string{"kind"}),
		SetupsCreated: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "setups",
			Name:      "created_total",
			Help:      "Total number of setups created by entry model",
		}, []string{"model"}),
		SetupsExpired: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "setups",
			Name:      "expired_total",
			Help:      "Total number of setups dropped by age or deadline",
		}),
		SetupsInvalid: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "setups",
			Name:      "invalidated_total",
			Help:      "Total number of setups removed by zone invalidation",
		}),
		SetupsEvicted: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "setups",
			Name:      "evicted_total",
			Help:      "Total number of setups removed by the capacity bound",
		}),
		LiveSetups: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "setups",
			Name:      "live",
			Help:      "Current number of live setups",
		}),
		SignalsEmitted: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "signals",
			Name:      "emitted_total",
			Help:      "Total number of signals emitted by side",
		}, []string{"side"}),
		SignalsThrottled: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "signals",
			Name:      "throttled_total",
			Help:      "Total number of winning setups blocked by throttles",
		}, []string{"reason"}),
		SignalsPublished: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "transport",
			Name:      "signals_published_total",
			Help:      "Total number of signals published to the bus",
		}),
		PublishErrors: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "transport",
			Name:      "publish_errors_total",
			Help:      "Total number of failed signal publishes",
		}),
		FeedMessages: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "transport",
			Name:      "feed_messages_total",
			Help:      "Total number of bar feed messages received",
		}),
		FeedErrors: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "transport",
			Name:      "feed_errors_total",
			Help:      "Total number of bar feed read or decode errors",
		}),
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
	}
}

// RecordDBQuery records one store call's duration and error outcome.
// Safe on a nil receiver, so stores can run uninstrumented in replay
// and tests.
func (m *Metrics) RecordDBQuery(database, operation string, seconds float64, err error) {
	if m == nil {
		return
	}
	m.DBQueryDuration.WithLabelValues(database, operation).Observe(seconds)
	if err != nil {
		m.DBQueryErrors.WithLabelValues(database, operation).Inc()
	}
}

// Handler returns the HTTP handler serving the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
