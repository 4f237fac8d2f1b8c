package workers

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const metricsNamespace = "kafka_spout"

// ReaderMetrics are shared by every reader of a manager
type ReaderMetrics struct {
	polls       *prometheus.CounterVec
	pollErrors  *prometheus.CounterVec
	nextOffset  *prometheus.GaugeVec
	reconciles  prometheus.Counter
	locateError prometheus.Counter
}

func NewReaderMetrics(reg prometheus.Registerer) *ReaderMetrics {
	factory := promauto.With(reg)

	return &ReaderMetrics{
		polls: factory.NewCounterVec(prometheus.CounterOpts{
			Name:      "reader_poll_total",
			Namespace: metricsNamespace,
			Help:      "Total number of partition reader polls",
		}, []string{"topic", "partition"}),

		pollErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Name:      "reader_poll_error_total",
			Namespace: metricsNamespace,
			Help:      "Total number of partition reader polls that failed",
		}, []string{"topic", "partition"}),

		nextOffset: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name:      "reader_next_offset",
			Namespace: metricsNamespace,
			Help:      "Next offset a partition reader will fetch",
		}, []string{"topic", "partition"}),

		reconciles: factory.NewCounter(prometheus.CounterOpts{
			Name:      "manager_reconcile_total",
			Namespace: metricsNamespace,
			Help:      "Total number of partition assignment reconciles",
		}),

		locateError: factory.NewCounter(prometheus.CounterOpts{
			Name:      "manager_locate_error_total",
			Namespace: metricsNamespace,
			Help:      "Total number of errors while resolving the partition assignment",
		}),
	}
}
