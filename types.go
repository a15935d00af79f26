package ferry

import "github.com/arloliu/ferry/types"

// Re-export types from the types package.
//
// This file provides a stable public API for the library's core types and
// interfaces via type aliases. Internal packages depend on the types
// subpackage directly, which keeps them independent of the root package while
// still giving users a convenient ferry.PartitionID, ferry.Logger, etc.
type (
	PartitionID  = types.PartitionID
	Cursor       = types.Cursor
	NodeInfo     = types.NodeInfo
	Record       = types.Record
	FetchRequest = types.FetchRequest
	FetchResult  = types.FetchResult
)

// Re-export interfaces from the types package for convenience.
type (
	MetadataClient     = types.MetadataClient
	NodeFetcher        = types.NodeFetcher
	FetcherFactory     = types.FetcherFactory
	FetcherFactoryFunc = types.FetcherFactoryFunc
	Handler            = types.Handler
	HandlerFunc        = types.HandlerFunc
	Logger             = types.Logger
	MetricsCollector   = types.MetricsCollector
	Hooks              = types.Hooks
)

// DiscoveryState re-exports the discovery loop state enum.
type DiscoveryState = types.DiscoveryState

// Re-export DiscoveryState constants from the types package.
const (
	DiscoveryIdle      = types.DiscoveryIdle
	DiscoveryResolving = types.DiscoveryResolving
	DiscoveryStopped   = types.DiscoveryStopped
)

// NewCursor creates a fetch cursor for the given partition positioned at
// offset. Cursors are handed to StartSession, one per owned partition.
func NewCursor(id PartitionID, offset int64) *Cursor {
	return types.NewCursor(id, offset)
}
