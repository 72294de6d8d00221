// Package metrics registers the prometheus collectors exported by every
// other package in this module. Keeping them in one place avoids
// double-registration panics when components are wired up more than once
// (tests construct the whole stack repeatedly).
package metrics

import "github.com/prometheus/client_golang/prometheus"

// Metrics bundles the collectors the dispatcher, executor and egress sink
// update on the hot path.
type Metrics struct {
	QueueDepth     prometheus.Gauge
	BatchSize      prometheus.Histogram
	MatchLatency   prometheus.Histogram
	OperationsTotal *prometheus.CounterVec
	EgressFailures prometheus.Counter
	SnapshotTotal  prometheus.Counter
}

// New constructs and registers the collector set against reg. Pass
// prometheus.NewRegistry() in tests to avoid colliding with the default
// global registry.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		QueueDepth: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "matchbook",
			Subsystem: "dispatch",
			Name:      "queue_depth",
			Help:      "Number of operations currently buffered in the dispatch queue.",
		}),
		BatchSize: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "matchbook",
			Subsystem: "dispatch",
			Name:      "batch_size",
			Help:      "Number of operations processed per executor batch.",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 12),
		}),
		MatchLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "matchbook",
			Subsystem: "engine",
			Name:      "match_latency_seconds",
			Help:      "Time to apply a single operation to the primary engine.",
			Buckets:   prometheus.ExponentialBuckets(0.000001, 2, 20),
		}),
		OperationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "matchbook",
			Subsystem: "engine",
			Name:      "operations_total",
			Help:      "Operations applied to the primary engine, by result kind.",
		}, []string{"result"}),
		EgressFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "matchbook",
			Subsystem: "egress",
			Name:      "publish_failures_total",
			Help:      "Execution events that failed to publish.",
		}),
		SnapshotTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "matchbook",
			Subsystem: "snapshot",
			Name:      "rotations_total",
			Help:      "Number of times the secondary engine has been rotated.",
		}),
	}
	reg.MustRegister(m.QueueDepth, m.BatchSize, m.MatchLatency, m.OperationsTotal, m.EgressFailures, m.SnapshotTotal)
	return m
}
