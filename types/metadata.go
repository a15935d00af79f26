package types

import "context"

// MetadataClient resolves the current cluster topology.
//
// It is the one blocking collaborator of the discovery loop. Implementations
// must honor context cancellation and deadlines: the loop always calls with a
// bounded timeout and cancels the context during shutdown, and a query that
// ignores cancellation would stall shutdown for its full duration.
type MetadataClient interface {
	// ListNodes returns the set of currently live cluster nodes.
	//
	// Parameters:
	//   - ctx: Context for cancellation and deadline
	//
	// Returns:
	//   - []NodeInfo: Live nodes (order unspecified)
	//   - error: Query failure, wrapping ErrMetadataUnavailable
	ListNodes(ctx context.Context) ([]NodeInfo, error)

	// FetchLeadership returns the current leader of every partition of the
	// given topics. A partition mapped to nil is leaderless or unknown at
	// this moment; partitions of unknown topics are simply absent.
	//
	// The correlation ID is a monotonically increasing integer scoped to the
	// querying subsystem instance. It exists purely to cross-reference log
	// and trace output with the remote service, never for correctness.
	//
	// Parameters:
	//   - ctx: Context for cancellation and deadline
	//   - topics: Distinct topic names to resolve
	//   - correlationID: Query correlation identifier
	//
	// Returns:
	//   - map[PartitionID]*NodeInfo: Leadership per partition (nil = unknown)
	//   - error: Query failure, wrapping ErrMetadataUnavailable
	FetchLeadership(ctx context.Context, topics []string, correlationID int64) (map[PartitionID]*NodeInfo, error)
}
