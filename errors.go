package ferry

import "github.com/arloliu/ferry/types"

// Sentinel errors returned by the Manager. These alias the canonical
// definitions in the types package so errors.Is works regardless of which
// package a caller imported them from.
var (
	// ErrInvalidConfig is returned when the configuration is invalid.
	ErrInvalidConfig = types.ErrInvalidConfig

	// ErrMetadataClientRequired is returned when the metadata client is nil.
	ErrMetadataClientRequired = types.ErrMetadataClientRequired

	// ErrFetcherFactoryRequired is returned when the fetcher factory is nil.
	ErrFetcherFactoryRequired = types.ErrFetcherFactoryRequired

	// ErrSessionActive is returned when StartSession is called while a fetch
	// session is already running.
	ErrSessionActive = types.ErrSessionActive

	// ErrNoSession is returned when an operation requires an active session.
	ErrNoSession = types.ErrNoSession

	// ErrMetadataUnavailable indicates a metadata query failed or timed out.
	ErrMetadataUnavailable = types.ErrMetadataUnavailable

	// ErrUnknownPartition is returned for a partition the current session
	// does not hold.
	ErrUnknownPartition = types.ErrUnknownPartition

	// ErrLoopStopped is returned by WaitState when the session stopped while
	// waiting for a different state.
	ErrLoopStopped = types.ErrLoopStopped

	// ErrAttachRejected is returned when the worker pool refuses an
	// attachment because it is stopping.
	ErrAttachRejected = types.ErrAttachRejected

	// ErrNotLeader indicates the contacted node no longer leads a partition.
	ErrNotLeader = types.ErrNotLeader

	// ErrOffsetOutOfRange indicates a fetch offset outside the partition's
	// retained range.
	ErrOffsetOutOfRange = types.ErrOffsetOutOfRange
)
