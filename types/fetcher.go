package types

import "context"

// NodeFetcher pulls records from one cluster node on behalf of every
// partition currently routed to it.
//
// The worker pool instantiates one fetcher per node worker and drives it from
// that worker's goroutine only, so implementations do not need to be safe for
// concurrent Fetch calls. Close is called exactly once, after the last Fetch
// has returned.
type NodeFetcher interface {
	// Fetch performs one pull round-trip for the given partitions.
	//
	// A returned error means the whole round-trip failed (connection-level);
	// per-partition failures such as ErrNotLeader are reported inside the
	// corresponding FetchResult instead, so one mis-routed partition does not
	// hide data for the others.
	//
	// Parameters:
	//   - ctx: Context for cancellation and deadline
	//   - reqs: One request per served partition
	//
	// Returns:
	//   - []FetchResult: Per-partition outcomes (may be fewer than reqs)
	//   - error: Transport-level failure for the whole round-trip
	Fetch(ctx context.Context, reqs []FetchRequest) ([]FetchResult, error)

	// Close releases the fetcher's connection resources.
	Close() error
}

// FetcherFactory creates the per-node fetcher a worker runs.
//
// The factory is invoked by the pool when the first partition is attached to
// a node and must be safe for concurrent use.
type FetcherFactory interface {
	// NewFetcher creates a fetcher connected (or lazily connecting) to node.
	//
	// Parameters:
	//   - node: The node to pull from
	//
	// Returns:
	//   - NodeFetcher: Fetcher bound to the node
	//   - error: Construction failure (the attachment is retried next round)
	NewFetcher(node NodeInfo) (NodeFetcher, error)
}

// FetcherFactoryFunc adapts a function to the FetcherFactory interface.
type FetcherFactoryFunc func(node NodeInfo) (NodeFetcher, error)

// NewFetcher calls f(node).
func (f FetcherFactoryFunc) NewFetcher(node NodeInfo) (NodeFetcher, error) {
	return f(node)
}
