package types

import "context"

// Hooks defines callbacks for fetch-session lifecycle events.
//
// All hooks are optional and called asynchronously in background goroutines
// so they never block the discovery loop or a worker. The context passed to a
// hook is the session's lifecycle context and is cancelled during shutdown.
//
// Best practices for hook implementations:
//   - Complete quickly and respect context cancellation
//   - Do not call back into the Manager from a hook
//   - Return an error only for logging purposes; hook errors never fail the
//     operation that triggered them
type Hooks struct {
	// OnSessionStarted is called once per StartSession, after the discovery
	// loop is running.
	OnSessionStarted func(ctx context.Context, partitions []PartitionID) error

	// OnPartitionAttached is called each time the discovery loop routes a
	// partition to a node's worker.
	OnPartitionAttached func(ctx context.Context, id PartitionID, node NodeInfo) error

	// OnWorkerStarted is called when the pool starts a worker for a node.
	OnWorkerStarted func(ctx context.Context, node NodeInfo) error

	// OnWorkerStopped is called when a worker exits (idle reap or shutdown).
	OnWorkerStopped func(ctx context.Context, node NodeInfo) error

	// OnDiscoveryError is called when a discovery round is abandoned because
	// the metadata query failed. Transient by definition; the round is
	// retried after the backoff.
	OnDiscoveryError func(ctx context.Context, err error) error
}
