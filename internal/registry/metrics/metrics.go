package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the registry engine.
type Metrics struct {
	// Successful registrations by kind ("person", "property")
	Registrations *prometheus.CounterVec

	// Successfully executed transactions
	TransactionsExecuted prometheus.Counter

	// Failed operations by operation and reason
	OperationFailures *prometheus.CounterVec

	// Current length of the append-only transaction log
	TransactionLogLength prometheus.Gauge
}

// New creates a Metrics instance with all registry metrics registered.
func New() *Metrics {
	return &Metrics{
		Registrations: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "terrier_registrations_total",
			Help: "Total successful registrations by record kind",
		}, []string{"kind"}), // kind: "person", "property"

		TransactionsExecuted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "terrier_transactions_executed_total",
			Help: "Total successfully executed property transfer transactions",
		}),

		OperationFailures: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "terrier_operation_failures_total",
			Help: "Total failed engine operations by operation and reason",
		}, []string{"operation", "reason"}),

		TransactionLogLength: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "terrier_transaction_log_length",
			Help: "Current number of entries in the transaction log",
		}),
	}
}

// IncrementRegistration records a successful registration.
func (m *Metrics) IncrementRegistration(kind string) {
	if m != nil {
		m.Registrations.WithLabelValues(kind).Inc()
	}
}

// IncrementTransaction records a successful transfer and the new log length.
func (m *Metrics) IncrementTransaction(logLength int) {
	if m != nil {
		m.TransactionsExecuted.Inc()
		m.TransactionLogLength.Set(float64(logLength))
	}
}

// IncrementFailure records a failed engine operation.
func (m *Metrics) IncrementFailure(operation, reason string) {
	if m != nil {
		m.OperationFailures.WithLabelValues(operation, reason).Inc()
	}
}
