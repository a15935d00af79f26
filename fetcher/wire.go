package fetcher

import (
	"fmt"

	"github.com/arloliu/ferry/types"
)

// Per-partition error codes carried in fetch replies.
const (
	// ErrCodeNotLeader means the serving node no longer leads the partition.
	ErrCodeNotLeader = "not_leader"

	// ErrCodeOffsetOutOfRange means the requested offset is outside the
	// partition's retained range.
	ErrCodeOffsetOutOfRange = "offset_out_of_range"
)

// FetchWireRequest is the JSON payload of one fetch round-trip.
type FetchWireRequest struct {
	Partitions []PartitionFetch `json:"partitions"`
}

// PartitionFetch is one partition's slice of a fetch request.
type PartitionFetch struct {
	Topic    string `json:"topic"`
	Index    int32  `json:"index"`
	Offset   int64  `json:"offset"`
	MaxBytes int32  `json:"maxBytes"`
}

// FetchWireReply is the JSON payload of a fetch response.
type FetchWireReply struct {
	Results []PartitionResult `json:"results"`
}

// PartitionResult is one partition's slice of a fetch response.
type PartitionResult struct {
	Topic      string         `json:"topic"`
	Index      int32          `json:"index"`
	Records    []types.Record `json:"records,omitempty"`
	NextOffset int64          `json:"nextOffset"`

	// ErrCode reports a per-partition failure; empty means success.
	ErrCode string `json:"errCode,omitempty"`
}

// FetchSubject returns the request/reply subject on which the given node
// serves fetch requests.
func FetchSubject(prefix, nodeID string) string {
	return fmt.Sprintf("%s.fetch.%s", prefix, nodeID)
}

// decodeErrCode maps a wire error code to the library's sentinel errors.
func decodeErrCode(code string, id types.PartitionID) error {
	switch code {
	case "":
		return nil
	case ErrCodeNotLeader:
		return fmt.Errorf("partition %s: %w", id, types.ErrNotLeader)
	case ErrCodeOffsetOutOfRange:
		return fmt.Errorf("partition %s: %w", id, types.ErrOffsetOutOfRange)
	default:
		return fmt.Errorf("partition %s: fetch failed with code %q", id, code)
	}
}
