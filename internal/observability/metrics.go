// Package observability provides Prometheus metrics for monitoring sweeps.
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
	TradesLoaded   prometheus.Counter
	TradesRejected prometheus.Counter

	// Sweep metrics
	SweepRunsTotal      *prometheus.CounterVec
	SweepDuration       prometheus.Histogram
	ConfigsEvaluated    prometheus.Counter
	ConfigErrors        prometheus.Counter
	ConfigsInFlight     prometheus.Gauge
	SimulationLatency   prometheus.Histogram
	BestFinalBalance    prometheus.Gauge
	ReportsGenerated    *prometheus.CounterVec
	LastSuccessfulSweep prometheus.Gauge

	// Database metrics
	DBQueryDuration *prometheus.HistogramVec
	DBQueryErrors   *prometheus.CounterVec
}

// NewMetrics creates a Metrics instance registered with reg.
// A nil reg uses the default Prometheus registerer.
func NewMetrics(namespace string, reg prometheus.Registerer) *Metrics {
	if namespace == "" {
		namespace = "window_config_lab"
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Metrics{
		TradesLoaded: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingestion",
			Name:      "trades_loaded_total",
			Help:      "Total number of trade records loaded",
		}),
		TradesRejected: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingestion",
			Name:      "trades_rejected_total",
			Help:      "Total number of malformed trade records rejected",
		}),

		SweepRunsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "sweep",
			Name:      "runs_total",
			Help:      "Total number of sweep runs by status",
		}, []string{"status"}),
		SweepDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "sweep",
			Name:      "duration_seconds",
			Help:      "Sweep execution duration in seconds",
			Buckets:   []float64{1, 5, 10, 30, 60, 120, 300, 600},
		}),
		ConfigsEvaluated: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "sweep",
			Name:      "configs_evaluated_total",
			Help:      "Total number of configurations simulated",
		}),
		ConfigErrors: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "sweep",
			Name:      "config_errors_total",
			Help:      "Total number of configurations that failed to simulate",
		}),
		ConfigsInFlight: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "sweep",
			Name:      "configs_in_flight",
			Help:      "Number of configurations currently being simulated",
		}),
		SimulationLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "sweep",
			Name:      "simulation_latency_seconds",
			Help:      "Per-configuration simulation latency in seconds",
			Buckets:   prometheus.ExponentialBuckets(0.00001, 4, 10),
		}),
		BestFinalBalance: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "sweep",
			Name:      "best_final_balance",
			Help:      "Final balance of the best configuration of the last sweep",
		}),
		ReportsGenerated: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "reporting",
			Name:      "reports_generated_total",
			Help:      "Total number of reports written by format",
		}, []string{"format"}),
		LastSuccessfulSweep: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "health",
			Name:      "last_successful_sweep_timestamp",
			Help:      "Unix timestamp of last successful sweep",
		}),

		DBQueryDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "database",
			Name:      "query_duration_seconds",
			Help:      "Database query duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"database", "operation"}),
		DBQueryErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "database",
			Name:      "query_errors_total",
			Help:      "Total number of database query errors",
		}, []string{"database", "operation"}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// DefaultMetrics is the default metrics instance.
var DefaultMetrics = NewMetrics("", nil)

// RecordTradesLoaded records the outcome of a dataset load.
func RecordTradesLoaded(loaded, rejected int) {
	DefaultMetrics.TradesLoaded.Add(float64(loaded))
	DefaultMetrics.TradesRejected.Add(float64(rejected))
}

// RecordConfigEvaluated records one simulated configuration.
func (m *Metrics) RecordConfigEvaluated(seconds float64, err error) {
	m.ConfigsEvaluated.Inc()
	m.SimulationLatency.Observe(seconds)
	if err != nil {
		m.ConfigErrors.Inc()
	}
}

// RecordSweepRun records a finished sweep.
func (m *Metrics) RecordSweepRun(status string, durationSeconds float64) {
	m.SweepRunsTotal.WithLabelValues(status).Inc()
	m.SweepDuration.Observe(durationSeconds)
}

// RecordReport records a written report.
func RecordReport(format string) {
	DefaultMetrics.ReportsGenerated.WithLabelValues(format).Inc()
}

// RecordDBQuery records database query metrics.
func RecordDBQuery(database, operation string, seconds float64, err error) {
	DefaultMetrics.DBQueryDuration.WithLabelValues(database, operation).Observe(seconds)
	if err != nil {
		DefaultMetrics.DBQueryErrors.WithLabelValues(database, operation).Inc()
	}
}
