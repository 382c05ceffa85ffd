package aerospike

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	prometheusUtxoCreate   prometheus.Counter
	prometheusUtxoGet      prometheus.Counter
	prometheusUtxoDelete   prometheus.Counter
	prometheusUtxoSnapshot prometheus.Histogram
	prometheusUtxoApply    prometheus.Counter
	prometheusUtxoErrors   *prometheus.CounterVec

	// only init the metrics once
	prometheusMetricsInitOnce sync.Once
)

// InitPrometheusMetrics registers the store metrics, once.
func InitPrometheusMetrics() {
	prometheusMetricsInitOnce.Do(_initPrometheusMetrics)
}

func _initPrometheusMetrics() {
	prometheusUtxoCreate = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "utxogate",
			Name:      "aerospike_utxo_create",
			Help:      "Number of utxos created in aerospike",
		},
	)
	prometheusUtxoGet = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "utxogate",
			Name:      "aerospike_utxo_get",
			Help:      "Number of utxo get calls done to aerospike",
		},
	)
	prometheusUtxoDelete = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "utxogate",
			Name:      "aerospike_utxo_delete",
			Help:      "Number of utxos deleted from aerospike",
		},
	)
	prometheusUtxoSnapshot = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "utxogate",
			Name:      "aerospike_utxo_snapshot_size",
			Help:      "Number of references requested per snapshot",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 12),
		},
	)
	prometheusUtxoApply = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "utxogate",
			Name:      "aerospike_utxo_apply",
			Help:      "Number of transactions applied to aerospike",
		},
	)
	prometheusUtxoErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "utxogate",
			Name:      "aerospike_utxo_errors",
			Help:      "Number of utxo errors",
		},
		[]string{
			"function", // function raising the error
			"error",    // error returned
		},
	)
}
