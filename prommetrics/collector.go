package prommetrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/arloliu/ferry/types"
)

// Collector implements types.MetricsCollector backed by Prometheus.
//
// Metric registration is deferred until first use so a zero-cost Collector
// can be constructed before the registry is fully assembled.
type Collector struct {
	reg       prometheus.Registerer
	namespace string
	once      sync.Once

	sessionsStarted   prometheus.Counter
	sessionPartitions prometheus.Gauge
	sessionDuration   prometheus.Histogram
	stateTransitions  *prometheus.CounterVec

	discoveryRounds   prometheus.Histogram
	discoveryResolved prometheus.Counter
	discoveryFailed   prometheus.Counter
	metadataQueries   *prometheus.CounterVec
	metadataLatency   prometheus.Histogram
	unresolvedGauge   prometheus.Gauge

	workerEvents  *prometheus.CounterVec
	activeWorkers prometheus.Gauge
	fetches       *prometheus.CounterVec
	fetchRecords  *prometheus.CounterVec
	staleLeaders  *prometheus.CounterVec
}

// Compile-time assertion that Collector implements MetricsCollector.
var _ types.MetricsCollector = (*Collector)(nil)

// NewCollector creates a Prometheus-backed metrics collector.
//
// Parameters:
//   - reg: Prometheus registerer (uses prometheus.DefaultRegisterer if nil)
//   - namespace: Metrics namespace (defaults to "ferry" if empty)
//
// Returns:
//   - *Collector: A MetricsCollector implementation using Prometheus
func NewCollector(reg prometheus.Registerer, namespace string) *Collector {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	if namespace == "" {
		namespace = "ferry"
	}

	return &Collector{reg: reg, namespace: namespace}
}

func (c *Collector) ensureRegistered() {
	c.once.Do(func() {
		c.sessionsStarted = prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: c.namespace,
			Subsystem: "session",
			Name:      "starts_total",
			Help:      "Total fetch sessions started.",
		})
		c.sessionPartitions = prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: c.namespace,
			Subsystem: "session",
			Name:      "partitions",
			Help:      "Partition count of the current fetch session.",
		})
		c.sessionDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: c.namespace,
			Subsystem: "session",
			Name:      "duration_seconds",
			Help:      "Fetch session lifetimes in seconds.",
			Buckets:   prometheus.ExponentialBuckets(1, 4, 10), // 1s .. ~73h
		})
		c.stateTransitions = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: c.namespace,
			Subsystem: "discovery",
			Name:      "state_transitions_total",
			Help:      "Discovery loop state transitions by from/to state.",
		}, []string{"from", "to"})

		c.discoveryRounds = prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: c.namespace,
			Subsystem: "discovery",
			Name:      "round_duration_seconds",
			Help:      "Discovery round durations in seconds.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2, 12), // 1ms .. ~4s
		})
		c.discoveryResolved = prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: c.namespace,
			Subsystem: "discovery",
			Name:      "partitions_resolved_total",
			Help:      "Partitions successfully routed to a worker.",
		})
		c.discoveryFailed = prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: c.namespace,
			Subsystem: "discovery",
			Name:      "partitions_failed_total",
			Help:      "Partition attachments that failed and stayed unresolved.",
		})
		c.metadataQueries = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: c.namespace,
			Subsystem: "discovery",
			Name:      "metadata_queries_total",
			Help:      "Metadata query outcomes (success|failure).",
		}, []string{"result"})
		c.metadataLatency = prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: c.namespace,
			Subsystem: "discovery",
			Name:      "metadata_latency_seconds",
			Help:      "Metadata query latencies in seconds.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2, 12),
		})
		c.unresolvedGauge = prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: c.namespace,
			Subsystem: "discovery",
			Name:      "unresolved_partitions",
			Help:      "Partitions currently awaiting leader discovery.",
		})

		c.workerEvents = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: c.namespace,
			Subsystem: "worker",
			Name:      "events_total",
			Help:      "Worker lifecycle events (started|stopped) by reason.",
		}, []string{"event", "reason"})
		c.activeWorkers = prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: c.namespace,
			Subsystem: "worker",
			Name:      "active",
			Help:      "Current number of live fetch workers.",
		})
		c.fetches = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: c.namespace,
			Subsystem: "worker",
			Name:      "fetches_total",
			Help:      "Fetch round-trips by node and result.",
		}, []string{"node", "result"})
		c.fetchRecords = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: c.namespace,
			Subsystem: "worker",
			Name:      "records_total",
			Help:      "Records delivered to the handler by node.",
		}, []string{"node"})
		c.staleLeaders = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: c.namespace,
			Subsystem: "worker",
			Name:      "stale_leaders_total",
			Help:      "Partitions dropped after a node denied leadership, by node.",
		}, []string{"node"})

		c.reg.MustRegister(
			c.sessionsStarted,
			c.sessionPartitions,
			c.sessionDuration,
			c.stateTransitions,
			c.discoveryRounds,
			c.discoveryResolved,
			c.discoveryFailed,
			c.metadataQueries,
			c.metadataLatency,
			c.unresolvedGauge,
			c.workerEvents,
			c.activeWorkers,
			c.fetches,
			c.fetchRecords,
			c.staleLeaders,
		)
	})
}

// SessionMetrics implementation

func (c *Collector) RecordSessionStarted(partitions int) {
	c.ensureRegistered()
	c.sessionsStarted.Inc()
	c.sessionPartitions.Set(float64(partitions))
}

func (c *Collector) RecordSessionStopped(duration float64) {
	c.ensureRegistered()
	c.sessionDuration.Observe(duration)
	c.sessionPartitions.Set(0)
}

func (c *Collector) RecordStateTransition(from, to types.DiscoveryState) {
	c.ensureRegistered()
	c.stateTransitions.WithLabelValues(from.String(), to.String()).Inc()
}

// DiscoveryMetrics implementation

func (c *Collector) RecordDiscoveryRound(duration float64, resolved, failed int) {
	c.ensureRegistered()
	c.discoveryRounds.Observe(duration)
	c.discoveryResolved.Add(float64(resolved))
	c.discoveryFailed.Add(float64(failed))
}

func (c *Collector) RecordMetadataQuery(duration float64, success bool) {
	c.ensureRegistered()
	c.metadataLatency.Observe(duration)
	result := "failure"
	if success {
		result = "success"
	}
	c.metadataQueries.WithLabelValues(result).Inc()
}

func (c *Collector) RecordUnresolvedCount(count int) {
	c.ensureRegistered()
	c.unresolvedGauge.Set(float64(count))
}

// WorkerMetrics implementation

func (c *Collector) RecordWorkerStarted(_ string) {
	c.ensureRegistered()
	c.workerEvents.WithLabelValues("started", "attach").Inc()
}

func (c *Collector) RecordWorkerStopped(_ string, reason string) {
	c.ensureRegistered()
	c.workerEvents.WithLabelValues("stopped", reason).Inc()
}

func (c *Collector) RecordActiveWorkers(count int) {
	c.ensureRegistered()
	c.activeWorkers.Set(float64(count))
}

func (c *Collector) RecordFetch(nodeID string, records int, err bool) {
	c.ensureRegistered()
	result := "success"
	if err {
		result = "failure"
	}
	c.fetches.WithLabelValues(nodeID, result).Inc()
	if records > 0 {
		c.fetchRecords.WithLabelValues(nodeID).Add(float64(records))
	}
}

func (c *Collector) RecordStaleLeader(nodeID string, partitions int) {
	c.ensureRegistered()
	c.staleLeaders.WithLabelValues(nodeID).Add(float64(partitions))
}
