// Package metrics provides the no-op MetricsCollector used as the default
// when no collector is injected.
package metrics

import "github.com/arloliu/ferry/types"

// NopMetrics implements a no-op metrics collector. All metrics are discarded.
type NopMetrics struct{}

// Compile-time assertion that NopMetrics implements MetricsCollector.
var _ types.MetricsCollector = (*NopMetrics)(nil)

// NewNop creates a new no-op metrics collector.
func NewNop() *NopMetrics {
	return &NopMetrics{}
}

// SessionMetrics implementation

// RecordSessionStarted discards the session start metric.
func (*NopMetrics) RecordSessionStarted(_ /* partitions */ int) {}

// RecordSessionStopped discards the session stop metric.
func (*NopMetrics) RecordSessionStopped(_ /* duration */ float64) {}

// RecordStateTransition discards the state transition metric.
func (*NopMetrics) RecordStateTransition(_, _ types.DiscoveryState) {}

// DiscoveryMetrics implementation

// RecordDiscoveryRound discards the discovery round metric.
func (*NopMetrics) RecordDiscoveryRound(_ /* duration */ float64, _, _ /* resolved, failed */ int) {}

// RecordMetadataQuery discards the metadata query metric.
func (*NopMetrics) RecordMetadataQuery(_ /* duration */ float64, _ /* success */ bool) {}

// RecordUnresolvedCount discards the unresolved gauge.
func (*NopMetrics) RecordUnresolvedCount(_ /* count */ int) {}

// WorkerMetrics implementation

// RecordWorkerStarted discards the worker start metric.
func (*NopMetrics) RecordWorkerStarted(_ /* nodeID */ string) {}

// RecordWorkerStopped discards the worker stop metric.
func (*NopMetrics) RecordWorkerStopped(_, _ /* nodeID, reason */ string) {}

// RecordActiveWorkers discards the worker gauge.
func (*NopMetrics) RecordActiveWorkers(_ /* count */ int) {}

// RecordFetch discards the fetch metric.
func (*NopMetrics) RecordFetch(_ /* nodeID */ string, _ /* records */ int, _ /* err */ bool) {}

// RecordStaleLeader discards the stale leader metric.
func (*NopMetrics) RecordStaleLeader(_ /* nodeID */ string, _ /* partitions */ int) {}
