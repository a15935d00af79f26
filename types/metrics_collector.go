package types

// MetricsCollector defines methods for recording operational metrics.
//
// Implementations should be non-blocking and handle failures gracefully.
// All methods are called from internal goroutines and must be thread-safe.
//
// This interface composes smaller, domain-focused interfaces so components
// can depend on just the slice they record.
type MetricsCollector interface {
	SessionMetrics
	DiscoveryMetrics
	WorkerMetrics
}

// SessionMetrics defines metrics for session-level operations.
type SessionMetrics interface {
	// RecordSessionStarted records a session start with its partition count.
	RecordSessionStarted(partitions int)

	// RecordSessionStopped records a session stop and its total duration.
	//
	// Parameters:
	//   - duration: Session lifetime in seconds
	RecordSessionStopped(duration float64)

	// RecordStateTransition records a discovery loop state transition.
	RecordStateTransition(from, to DiscoveryState)
}

// DiscoveryMetrics defines metrics for discovery loop operations.
type DiscoveryMetrics interface {
	// RecordDiscoveryRound records one completed discovery round.
	//
	// Parameters:
	//   - duration: Round duration in seconds
	//   - resolved: Partitions successfully attached this round
	//   - failed: Partitions that failed attachment this round
	RecordDiscoveryRound(duration float64, resolved, failed int)

	// RecordMetadataQuery records a metadata query attempt.
	//
	// Parameters:
	//   - duration: Query latency in seconds
	//   - success: Whether the query succeeded
	RecordMetadataQuery(duration float64, success bool)

	// RecordUnresolvedCount sets the current unresolved partition count.
	RecordUnresolvedCount(count int)
}

// WorkerMetrics defines metrics recorded by the fetch worker pool.
type WorkerMetrics interface {
	// RecordWorkerStarted records a worker start for a node.
	RecordWorkerStarted(nodeID string)

	// RecordWorkerStopped records a worker stop.
	//
	// Parameters:
	//   - nodeID: Node the worker was pulling from
	//   - reason: Stop reason ("idle", "shutdown")
	RecordWorkerStopped(nodeID, reason string)

	// RecordActiveWorkers sets the current worker count (gauge metric).
	RecordActiveWorkers(count int)

	// RecordFetch records one fetch round-trip by a worker.
	//
	// Parameters:
	//   - nodeID: Node fetched from
	//   - records: Number of records returned across partitions
	//   - err: Whether the round-trip failed at the transport level
	RecordFetch(nodeID string, records int, err bool)

	// RecordStaleLeader records a partition dropped by a worker after the
	// node reported it is no longer the leader.
	RecordStaleLeader(nodeID string, partitions int)
}
