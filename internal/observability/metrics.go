// Package observability provides Prometheus metrics and structured logging.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	// Provider metrics
	RPCCallLatency *prometheus.HistogramVec
	ReadFailures   *prometheus.CounterVec

	// Transaction metrics
	TransactionsTotal *prometheus.CounterVec
	ReceiptPolls      prometheus.Histogram
	ConfirmationWait  prometheus.Histogram

	// Chart metrics
	ChartRenders *prometheus.CounterVec

	// Database metrics
	DBQueryDuration *prometheus.HistogramVec
	DBQueryErrors   *prometheus.CounterVec

	// HTTP metrics
	HTTPRequests *prometheus.CounterVec
}

// NewMetrics creates a new Metrics instance registered on the default registry.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "index_dashboard"
	}

	return &Metrics{
		RPCCallLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "ethereum",
			Name:      "rpc_call_latency_seconds",
			Help:      "Ethereum JSON-RPC call latency in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method"}),
		ReadFailures: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "chain",
			Name:      "read_failures_total",
			Help:      "Total number of failed balance/allowance reads by operation",
		}, []string{"operation"}),

		TransactionsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "chain",
			Name:      "transactions_total",
			Help:      "Total number of write transactions by kind and outcome",
		}, []string{"kind", "outcome"}),
		ReceiptPolls: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "chain",
			Name:      "receipt_polls",
			Help:      "Number of receipt lookups per confirmation wait",
			Buckets:   []float64{1, 2, 3, 5, 10, 20, 50, 100},
		}),
		ConfirmationWait: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "chain",
			Name:      "confirmation_wait_seconds",
			Help:      "Time spent waiting for a transaction receipt",
			Buckets:   []float64{2, 5, 10, 15, 30, 60, 120, 300, 600},
		}),

		ChartRenders: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "chart",
			Name:      "renders_total",
			Help:      "Total number of chart views built by format",
		}, []string{"format"}),

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

		HTTPRequests: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests by route and status code",
		}, []string{"route", "code"}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// DefaultMetrics is the default metrics instance.
var DefaultMetrics = NewMetrics("")

// RecordRPCLatency records RPC call latency.
func RecordRPCLatency(method string, seconds float64) {
	DefaultMetrics.RPCCallLatency.WithLabelValues(method).Observe(seconds)
}

// RecordReadFailure counts a read that degraded to a zero value.
func RecordReadFailure(operation string) {
	DefaultMetrics.ReadFailures.WithLabelValues(operation).Inc()
}

// RecordTransaction counts a finished write transaction.
func RecordTransaction(kind, outcome string) {
	DefaultMetrics.TransactionsTotal.WithLabelValues(kind, outcome).Inc()
}

// RecordConfirmation records receipt polling for one wait.
func RecordConfirmation(polls int, seconds float64) {
	DefaultMetrics.ReceiptPolls.Observe(float64(polls))
	DefaultMetrics.ConfirmationWait.Observe(seconds)
}

// RecordChartRender counts a chart view.
func RecordChartRender(format string) {
	DefaultMetrics.ChartRenders.WithLabelValues(format).Inc()
}

// RecordDBQuery records database query metrics.
func RecordDBQuery(database, operation string, seconds float64, err error) {
	DefaultMetrics.DBQueryDuration.WithLabelValues(database, operation).Observe(seconds)
	if err != nil {
		DefaultMetrics.DBQueryErrors.WithLabelValues(database, operation).Inc()
	}
}

// RecordHTTPRequest counts a served HTTP request.
func RecordHTTPRequest(route string, code int) {
	DefaultMetrics.HTTPRequests.WithLabelValues(route, statusLabel(code)).Inc()
}

func statusLabel(code int) string {
	switch {
	case code >= 500:
		return "5xx"
	case code >= 400:
		return "4xx"
	case code >= 300:
		return "3xx"
	default:
		return "2xx"
	}
}
