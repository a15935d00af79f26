package metadata

import (
	"fmt"

	"github.com/arloliu/ferry/types"
)

// LeadershipRequest is the JSON payload of a leadership query.
type LeadershipRequest struct {
	// Topics lists the distinct topics to resolve.
	Topics []string `json:"topics"`

	// CorrelationID cross-references this query in the remote service's logs.
	CorrelationID int64 `json:"correlationId"`
}

// PartitionLeader is one partition's leadership entry in a reply.
type PartitionLeader struct {
	Topic string `json:"topic"`
	Index int32  `json:"index"`

	// Leader is nil when the partition is currently leaderless.
	Leader *types.NodeInfo `json:"leader,omitempty"`
}

// LeadershipReply is the JSON payload of a leadership response.
type LeadershipReply struct {
	Partitions []PartitionLeader `json:"partitions"`

	// Error is set when the serving node could not answer; the client treats
	// the whole query as failed.
	Error string `json:"error,omitempty"`
}

// LeadershipSubject returns the request/reply subject on which the given node
// answers leadership queries.
func LeadershipSubject(prefix, nodeID string) string {
	return fmt.Sprintf("%s.meta.leadership.%s", prefix, nodeID)
}
