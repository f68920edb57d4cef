package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// GatewayMetrics holds the Prometheus collectors of the payment gateway.
type GatewayMetrics struct {
	TransactionsTotal *prometheus.CounterVec
	ProcessorDuration *prometheus.HistogramVec
	LifecycleFailures *prometheus.CounterVec
	DuplicateRequests prometheus.Counter
	StaleAuditRecords prometheus.Gauge
}

// NewGatewayMetrics registers the collectors on reg.
func NewGatewayMetrics(reg prometheus.Registerer) *GatewayMetrics {
	f := promauto.With(reg)
	return &GatewayMetrics{
		TransactionsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gateway_transactions_total",
				Help: "Completed gateway transactions by processor, type and result",
			},
			[]string{"processor", "transaction_type", "result"},
		),
		ProcessorDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "gateway_processor_duration_seconds",
				Help:    "Time spent dispatching to the processor",
				Buckets: prometheus.ExponentialBuckets(0.05, 2, 10),
			},
			[]string{"processor", "transaction_type"},
		),
		LifecycleFailures: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gateway_lifecycle_failures_total",
				Help: "Transactions that stopped before completion, by the state they failed in",
			},
			[]string{"processor", "state"},
		),
		DuplicateRequests: f.NewCounter(
			prometheus.CounterOpts{
				Name: "gateway_duplicate_requests_total",
				Help: "Requests rejected for reusing a client reference code",
			},
		),
		StaleAuditRecords: f.NewGauge(
			prometheus.GaugeOpts{
				Name: "gateway_stale_audit_records",
				Help: "Audit records with a processor request but no response",
			},
		),
	}
}

// RecordTransaction counts a completed transaction.
func (m *GatewayMetrics) RecordTransaction(processor, transactionType, result string) {
	if m == nil {
		return
	}
	m.TransactionsTotal.WithLabelValues(processor, transactionType, result).Inc()
}

// RecordDispatch observes the processor round trip time.
func (m *GatewayMetrics) RecordDispatch(processor, transactionType string, d time.Duration) {
	if m == nil {
		return
	}
	m.ProcessorDuration.WithLabelValues(processor, transactionType).Observe(d.Seconds())
}

// RecordFailure counts a lifecycle that ended in FAILED.
func (m *GatewayMetrics) RecordFailure(processor, state string) {
	if m == nil {
		return
	}
	m.LifecycleFailures.WithLabelValues(processor, state).Inc()
}

// RecordDuplicate counts a rejected duplicate request.
func (m *GatewayMetrics) RecordDuplicate() {
	if m == nil {
		return
	}
	m.DuplicateRequests.Inc()
}

// SetStaleAuditRecords publishes the latest stale audit count.
func (m *GatewayMetrics) SetStaleAuditRecords(n int64) {
	if m == nil {
		return
	}
	m.StaleAuditRecords.Set(float64(n))
}
