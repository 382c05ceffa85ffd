package validator

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	prometheusHealth                   prometheus.Counter
	prometheusValidatedTransactions    prometheus.Counter
	prometheusInvalidTransactions      prometheus.Counter
	prometheusValidationErrors         *prometheus.CounterVec
	prometheusValidateTransaction      prometheus.Histogram
	prometheusValidateSnapshot         prometheus.Histogram
	prometheusValidateBatch            prometheus.Histogram
	prometheusValidateTransactionInput prometheus.Histogram
)

var prometheusMetricsInitOnce sync.Once

func initPrometheusMetrics() {
	prometheusMetricsInitOnce.Do(_initPrometheusMetrics)
}

func _initPrometheusMetrics() {
	prometheusHealth = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "utxogate",
			Subsystem: "validator",
			Name:      "health",
			Help:      "Number of calls to the health endpoint",
		},
	)

	prometheusValidatedTransactions = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "utxogate",
			Subsystem: "validator",
			Name:      "transactions",
			Help:      "Number of transactions validated",
		},
	)

	prometheusInvalidTransactions = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "utxogate",
			Subsystem: "validator",
			Name:      "invalid_transactions",
			Help:      "Number of transactions found invalid",
		},
	)

	prometheusValidationErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "utxogate",
			Subsystem: "validator",
			Name:      "validation_errors",
			Help:      "Number of defects found, by kind",
		},
		[]string{"kind"},
	)

	prometheusValidateTransaction = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "utxogate",
			Subsystem: "validator",
			Name:      "validate_transaction",
			Help:      "Time taken to snapshot and validate a transaction",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 2, 16),
		},
	)

	prometheusValidateSnapshot = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "utxogate",
			Subsystem: "validator",
			Name:      "snapshot",
			Help:      "Time taken to snapshot the utxos a transaction spends",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 2, 16),
		},
	)

	prometheusValidateBatch = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "utxogate",
			Subsystem: "validator",
			Name:      "validate_batch",
			Help:      "Time taken to validate a batch of transactions",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2, 16),
		},
	)

	prometheusValidateTransactionInput = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "utxogate",
			Subsystem: "validator",
			Name:      "transaction_inputs",
			Help:      "Number of inputs per validated transaction",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 12),
		},
	)
}
