package httpimpl

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	prometheusValidatorHTTPValidate      prometheus.Counter
	prometheusValidatorHTTPValidateBatch prometheus.Counter
	prometheusValidatorHTTPErrors        *prometheus.CounterVec
)

var prometheusMetricsInitOnce sync.Once

func initPrometheusMetrics() {
	prometheusMetricsInitOnce.Do(_initPrometheusMetrics)
}

func _initPrometheusMetrics() {
	prometheusValidatorHTTPValidate = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "utxogate",
			Subsystem: "validator_http",
			Name:      "validate",
			Help:      "Number of single transaction validation requests",
		},
	)

	prometheusValidatorHTTPValidateBatch = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "utxogate",
			Subsystem: "validator_http",
			Name:      "validate_batch",
			Help:      "Number of batch validation requests",
		},
	)

	prometheusValidatorHTTPErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "utxogate",
			Subsystem: "validator_http",
			Name:      "errors",
			Help:      "Number of error responses, by error code",
		},
		[]string{"code"},
	)
}
