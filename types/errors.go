package types

import "errors"

// Sentinel errors for the ferry library.
//
// All components use these sentinels for known error conditions and wrap
// external errors with context using fmt.Errorf("...: %w", err). Callers are
// expected to classify with errors.Is.

// Manager errors - public API errors returned by the Manager.
var (
	// ErrInvalidConfig is returned when the configuration is invalid.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrMetadataClientRequired is returned when the metadata client is nil.
	ErrMetadataClientRequired = errors.New("metadata client is required")

	// ErrFetcherFactoryRequired is returned when the fetcher factory is nil.
	ErrFetcherFactoryRequired = errors.New("fetcher factory is required")

	// ErrSessionActive is returned when StartSession is called while a fetch
	// session is already running. Callers must stop the session first.
	ErrSessionActive = errors.New("fetch session already active")

	// ErrNoSession is returned when an operation requires an active session.
	ErrNoSession = errors.New("no active fetch session")
)

// Discovery errors - produced while routing partitions to leaders.
var (
	// ErrMetadataUnavailable indicates a metadata query failed or timed out.
	// Transient: the round is abandoned and retried after the backoff.
	ErrMetadataUnavailable = errors.New("cluster metadata unavailable")

	// ErrUnknownPartition is returned by the registry for a partition it does
	// not hold. Seen when a session was stopped or restarted concurrently;
	// the partition belongs to a superseded session and is dropped silently.
	ErrUnknownPartition = errors.New("unknown partition")

	// ErrLoopStopped is returned when the discovery loop has been stopped.
	ErrLoopStopped = errors.New("discovery loop stopped")
)

// Pool errors - produced by the fetch worker pool.
var (
	// ErrAttachRejected is returned when the pool refuses an attachment
	// because it is stopping.
	ErrAttachRejected = errors.New("attach rejected: pool is stopping")
)

// Fetch errors - per-partition failures reported by node fetchers.
var (
	// ErrNotLeader indicates the contacted node no longer leads the
	// partition. The worker drops the partition and reports it unresolved so
	// the discovery loop re-routes it.
	ErrNotLeader = errors.New("node is not the partition leader")

	// ErrOffsetOutOfRange indicates the requested offset is outside the
	// partition's retained range.
	ErrOffsetOutOfRange = errors.New("fetch offset out of range")
)
