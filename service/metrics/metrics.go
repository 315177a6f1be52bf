package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus collectors for the application.
// Following the explicit dependency injection pattern, this struct
// is passed to all components that need to record metrics.
type Metrics struct {
	// rippled RPC Metrics
	rpcCallsTotal         *prometheus.CounterVec
	rpcCallDuration       *prometheus.HistogramVec
	ledgerTransactionsPer *prometheus.HistogramVec

	// Search Metrics
	searchProbesTotal *prometheus.CounterVec
	searchesTotal     *prometheus.CounterVec
	searchDuration    *prometheus.HistogramVec
	searchDistance    *prometheus.GaugeVec

	// NATS Metrics
	natsMessagesPublished *prometheus.CounterVec
	natsPublishDuration   *prometheus.HistogramVec
}

// NewMetrics creates a new Metrics instance and registers all collectors.
// If registry is nil, prometheus.DefaultRegisterer is used.
func NewMetrics(registry prometheus.Registerer) *Metrics {
	if registry == nil {
		registry = prometheus.DefaultRegisterer
	}

	factory := promauto.With(registry)

	return &Metrics{
		// rippled RPC Metrics
		rpcCallsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rippled_rpc_calls_total",
				Help: "Total number of rippled RPC calls by method and status",
			},
			[]string{"method", "status", "endpoint"},
		),
		rpcCallDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "rippled_rpc_call_duration_seconds",
				Help:    "Duration of rippled RPC calls in seconds",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0},
			},
			[]string{"method", "endpoint"},
		),
		ledgerTransactionsPer: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "rippled_ledger_transactions",
				Help:    "Number of transactions in each fetched ledger",
				Buckets: []float64{0, 10, 50, 100, 250, 500, 1000},
			},
			[]string{"endpoint"},
		),

		// Search Metrics
		searchProbesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "amendment_search_probes_total",
				Help: "Total number of ledger probes by direction and outcome",
			},
			[]string{"direction", "outcome"},
		),
		searchesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "amendment_searches_total",
				Help: "Total number of amendment searches by outcome",
			},
			[]string{"outcome"},
		),
		searchDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "amendment_search_duration_seconds",
				Help:    "Duration of amendment searches in seconds",
				Buckets: []float64{0.5, 1, 5, 10, 30, 60, 300},
			},
			[]string{"outcome"},
		),
		searchDistance: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "amendment_search_distance_ledgers",
				Help: "Distance in ledgers between the search anchor and the matching ledger",
			},
			[]string{"amendment"},
		),

		// NATS Metrics
		natsMessagesPublished: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "nats_messages_published_total",
				Help: "Total number of NATS messages published",
			},
			[]string{"subject", "status"},
		),
		natsPublishDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "nats_publish_duration_seconds",
				Help:    "Duration of NATS publish operations in seconds",
				Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5},
			},
			[]string{"subject"},
		),
	}
}

// rippled RPC metric helpers

// RecordRPCCall records a rippled RPC call with duration.
func (m *Metrics) RecordRPCCall(method, status, endpoint string, duration float64) {
	m.rpcCallsTotal.WithLabelValues(method, status, endpoint).Inc()
	m.rpcCallDuration.WithLabelValues(method, endpoint).Observe(duration)
}

// RecordLedgerTransactions records the size of a fetched ledger.
func (m *Metrics) RecordLedgerTransactions(endpoint string, count int) {
	m.ledgerTransactionsPer.WithLabelValues(endpoint).Observe(float64(count))
}

// Search metric helpers

// RecordProbe records a single probe of the search loop.
func (m *Metrics) RecordProbe(direction, outcome string) {
	m.searchProbesTotal.WithLabelValues(direction, outcome).Inc()
}

// RecordSearch records a finished search with duration.
func (m *Metrics) RecordSearch(outcome string, duration float64) {
	m.searchesTotal.WithLabelValues(outcome).Inc()
	m.searchDuration.WithLabelValues(outcome).Observe(duration)
}

// RecordSearchDistance records how far from the anchor the match was found.
func (m *Metrics) RecordSearchDistance(amendment string, ledgers int64) {
	m.searchDistance.WithLabelValues(amendment).Set(float64(ledgers))
}

// NATS metric helpers

// RecordNATSPublish records a NATS publish operation.
func (m *Metrics) RecordNATSPublish(subject, status string, duration float64) {
	m.natsMessagesPublished.WithLabelValues(subject, status).Inc()
	m.natsPublishDuration.WithLabelValues(subject).Observe(duration)
}

// Timer is a helper for timing operations.
// Usage:
//
//	defer Timer(time.Now(), func(duration float64) {
//	    metrics.RecordSomething(duration)
//	})()
func Timer(start time.Time, recordFunc func(float64)) func() {
	return func() {
		recordFunc(time.Since(start).Seconds())
	}
}
