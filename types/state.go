package types

// DiscoveryState is the state of the leader discovery loop.
//
// The loop moves Idle -> Resolving when the unresolved set becomes non-empty,
// Resolving -> Idle when a round (plus backoff) completes with the set empty
// again, and terminally into Stopped on shutdown. Stopped is irreversible for
// a loop instance; every new fetch session runs a fresh loop.
type DiscoveryState int32

const (
	// DiscoveryIdle means the loop is suspended waiting for unresolved
	// partitions.
	DiscoveryIdle DiscoveryState = iota

	// DiscoveryResolving means the loop is actively querying metadata and
	// attaching workers.
	DiscoveryResolving

	// DiscoveryStopped means the loop has exited. Terminal.
	DiscoveryStopped
)

// String returns a human-readable state name.
func (s DiscoveryState) String() string {
	switch s {
	case DiscoveryIdle:
		return "Idle"
	case DiscoveryResolving:
		return "Resolving"
	case DiscoveryStopped:
		return "Stopped"
	default:
		return "Unknown"
	}
}
