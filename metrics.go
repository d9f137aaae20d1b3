package gokafka

import "github.com/prometheus/client_golang/prometheus"

// metricsNamespace prefixes every collector this package registers.
const metricsNamespace = "gokafka"

// metricsRegistry is a dedicated registry rather than
// prometheus.DefaultRegisterer, so embedding this library twice in one
// process (or registering it conditionally) never panics on a duplicate
// collector.
var metricsRegistry = prometheus.NewRegistry()

// MetricsGatherer exposes the registry so a caller's own /metrics HTTP
// handler (see cmd/gokafka-bench) can serve it alongside its own
// collectors.
func MetricsGatherer() prometheus.Gatherer { return metricsRegistry }

var (
	requestLatencyHisto = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Subsystem: "dispatcher",
			Name:      "request_duration_seconds",
			Help:      "End-to-end duration of one dispatched request, including retries.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"api"},
	)
	retryCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "dispatcher",
			Name:      "retries_total",
			Help:      "Number of retried attempts, by api and cluster error code.",
		},
		[]string{"api", "error"},
	)
	nonfatalCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "dispatcher",
			Name:      "nonfatal_errors_total",
			Help:      "Non-fatal errors recorded into the ring buffer, by error code.",
		},
		[]string{"error"},
	)
)

func init() {
	metricsRegistry.MustRegister(requestLatencyHisto, retryCounter, nonfatalCounter)
}
