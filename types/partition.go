package types

import (
	"fmt"
	"sync/atomic"
)

// PartitionID identifies one partition of one topic.
//
// It is an immutable value with structural equality and is used directly as a
// map key throughout the library.
type PartitionID struct {
	// Topic is the topic name.
	Topic string `json:"topic"`

	// Index is the partition index within the topic.
	Index int32 `json:"index"`
}

// String returns the canonical "topic-index" form used in logs and diagnostics.
func (p PartitionID) String() string {
	return fmt.Sprintf("%s-%d", p.Topic, p.Index)
}

// Compare orders partitions by topic name, then by index.
//
// Returns:
//   - int: -1 if p < q, 0 if equal, +1 if p > q
func (p PartitionID) Compare(q PartitionID) int {
	if p.Topic != q.Topic {
		if p.Topic < q.Topic {
			return -1
		}

		return 1
	}
	if p.Index == q.Index {
		return 0
	}
	if p.Index < q.Index {
		return -1
	}

	return 1
}

// Cursor tracks the consume position of a single partition within one fetch
// session.
//
// A cursor is created when the partition is handed to the subsystem, read by
// the discovery loop when the partition is attached to a worker, and advanced
// by exactly one worker at a time (the one currently serving the partition).
// That single-writer property is what makes the atomic offset sufficient; no
// per-cursor lock exists.
type Cursor struct {
	id     PartitionID
	offset atomic.Int64
}

// NewCursor creates a cursor for the given partition positioned at offset.
//
// Parameters:
//   - id: Partition the cursor belongs to
//   - offset: Initial consume offset (the next offset to fetch)
//
// Returns:
//   - *Cursor: Initialized cursor
func NewCursor(id PartitionID, offset int64) *Cursor {
	c := &Cursor{id: id}
	c.offset.Store(offset)

	return c
}

// ID returns the partition this cursor belongs to.
func (c *Cursor) ID() PartitionID {
	return c.id
}

// Offset returns the current consume offset.
func (c *Cursor) Offset() int64 {
	return c.offset.Load()
}

// Advance moves the cursor to the given offset.
//
// Called only by the worker currently serving the partition, after records up
// to (but not including) offset have been handed to the handler.
func (c *Cursor) Advance(offset int64) {
	c.offset.Store(offset)
}

// Record is one fetched message.
type Record struct {
	// Offset is the record's offset within its partition.
	Offset int64 `json:"offset"`

	// Key is the optional record key (nil if absent).
	Key []byte `json:"key,omitempty"`

	// Value is the record payload.
	Value []byte `json:"value"`
}

// FetchRequest asks a node for records of one partition.
type FetchRequest struct {
	// ID is the partition to fetch.
	ID PartitionID `json:"id"`

	// Offset is the first offset wanted.
	Offset int64 `json:"offset"`

	// MaxBytes bounds the response size for this partition.
	MaxBytes int32 `json:"maxBytes"`
}

// FetchResult is the per-partition outcome of a fetch round-trip.
type FetchResult struct {
	// ID is the partition this result belongs to.
	ID PartitionID `json:"id"`

	// Records are the fetched records, in offset order. Empty when nothing
	// new was available or when Err is set.
	Records []Record `json:"records,omitempty"`

	// NextOffset is the offset to resume from after Records.
	NextOffset int64 `json:"nextOffset"`

	// Err reports a per-partition failure (e.g. ErrNotLeader) while other
	// partitions in the same round-trip may have succeeded.
	Err error `json:"-"`
}
