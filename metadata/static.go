package metadata

import (
	"context"
	"sync"

	"github.com/arloliu/ferry/types"
)

// Static implements a metadata client with a fixed, in-memory topology.
//
// Useful for tests and for single-node deployments where the topology is
// known at startup. Update methods allow simulating leadership movement.
type Static struct {
	mu      sync.RWMutex
	nodes   []types.NodeInfo
	leaders map[types.PartitionID]*types.NodeInfo
}

var _ types.MetadataClient = (*Static)(nil)

// NewStatic creates a static metadata client.
//
// Parameters:
//   - nodes: Fixed node list
//   - leaders: Leadership table (nil values mean leaderless)
//
// Returns:
//   - *Static: Initialized client
//
// Example:
//
//	node := types.NodeInfo{ID: "node-1", Host: "127.0.0.1", Port: 4100}
//	meta := metadata.NewStatic([]types.NodeInfo{node}, map[types.PartitionID]*types.NodeInfo{
//	    {Topic: "orders", Index: 0}: &node,
//	})
func NewStatic(nodes []types.NodeInfo, leaders map[types.PartitionID]*types.NodeInfo) *Static {
	s := &Static{}
	s.Update(nodes, leaders)

	return s
}

// ListNodes returns the static node list.
func (s *Static) ListNodes(_ context.Context) ([]types.NodeInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]types.NodeInfo, len(s.nodes))
	copy(result, s.nodes)

	return result, nil
}

// FetchLeadership returns the leadership entries for partitions of the
// requested topics.
func (s *Static) FetchLeadership(_ context.Context, topics []string, _ int64) (map[types.PartitionID]*types.NodeInfo, error) {
	requested := make(map[string]struct{}, len(topics))
	for _, topic := range topics {
		requested[topic] = struct{}{}
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make(map[types.PartitionID]*types.NodeInfo)
	for id, leader := range s.leaders {
		if _, ok := requested[id.Topic]; !ok {
			continue
		}
		result[id] = leader
	}

	return result, nil
}

// Update replaces the topology, simulating node churn and leader elections.
func (s *Static) Update(nodes []types.NodeInfo, leaders map[types.PartitionID]*types.NodeInfo) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nodes = make([]types.NodeInfo, len(nodes))
	copy(s.nodes, nodes)

	s.leaders = make(map[types.PartitionID]*types.NodeInfo, len(leaders))
	for id, leader := range leaders {
		s.leaders[id] = leader
	}
}

// SetLeader moves one partition's leadership, simulating an election.
func (s *Static) SetLeader(id types.PartitionID, leader *types.NodeInfo) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.leaders == nil {
		s.leaders = make(map[types.PartitionID]*types.NodeInfo)
	}
	s.leaders[id] = leader
}
