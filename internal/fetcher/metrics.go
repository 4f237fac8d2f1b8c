package fetcher

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const metricsNamespace = "kafka_spout"

type metrics struct {
	fetchRequests     *prometheus.CounterVec
	fetchFailed       *prometheus.CounterVec
	offsetOutOfRange  *prometheus.CounterVec
	offsetRecovered   *prometheus.CounterVec
	recordsFetched    *prometheus.CounterVec
	offsetResolutions *prometheus.CounterVec
}

func newMetrics(reg prometheus.Registerer) *metrics {
	factory := promauto.With(reg)

	return &metrics{
		fetchRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Name:      "fetch_requests_total",
			Namespace: metricsNamespace,
			Help:      "Total number of fetch requests sent to partition leaders",
		}, []string{"topic", "partition"}),

		fetchFailed: factory.NewCounterVec(prometheus.CounterOpts{
			Name:      "fetch_failed_total",
			Namespace: metricsNamespace,
			Help:      "Total number of fetches that ended in a failed fetch",
		}, []string{"topic", "cause"}),

		offsetOutOfRange: factory.NewCounterVec(prometheus.CounterOpts{
			Name:      "offset_out_of_range_total",
			Namespace: metricsNamespace,
			Help:      "Total number of fetch responses reporting an out of range offset",
		}, []string{"topic", "partition"}),

		offsetRecovered: factory.NewCounterVec(prometheus.CounterOpts{
			Name:      "offset_recovered_total",
			Namespace: metricsNamespace,
			Help:      "Total number of out of range offsets recovered using the start offset time",
		}, []string{"topic", "partition"}),

		recordsFetched: factory.NewCounterVec(prometheus.CounterOpts{
			Name:      "records_fetched_total",
			Namespace: metricsNamespace,
			Help:      "Total number of records returned by fetches",
		}, []string{"topic", "partition"}),

		offsetResolutions: factory.NewCounterVec(prometheus.CounterOpts{
			Name:      "offset_resolutions_total",
			Namespace: metricsNamespace,
			Help:      "Total number of symbolic offset resolutions",
		}, []string{"topic", "marker"}),
	}
}
