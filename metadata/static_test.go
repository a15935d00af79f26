package metadata

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arloliu/ferry/types"
)

func TestStatic(t *testing.T) {
	nodeA := types.NodeInfo{ID: "node-a", Host: "127.0.0.1", Port: 4100}
	nodeB := types.NodeInfo{ID: "node-b", Host: "127.0.0.1", Port: 4101}
	ordersP0 := types.PartitionID{Topic: "orders", Index: 0}
	eventsP0 := types.PartitionID{Topic: "events", Index: 0}

	meta := NewStatic([]types.NodeInfo{nodeA, nodeB}, map[types.PartitionID]*types.NodeInfo{
		ordersP0: &nodeA,
		eventsP0: &nodeB,
	})

	ctx := context.Background()

	t.Run("ListNodes", func(t *testing.T) {
		nodes, err := meta.ListNodes(ctx)
		require.NoError(t, err)
		require.ElementsMatch(t, []types.NodeInfo{nodeA, nodeB}, nodes)
	})

	t.Run("FetchLeadershipFiltersByTopic", func(t *testing.T) {
		leaders, err := meta.FetchLeadership(ctx, []string{"orders"}, 1)
		require.NoError(t, err)
		require.Len(t, leaders, 1)
		require.Equal(t, &nodeA, leaders[ordersP0])
	})

	t.Run("UnknownTopicAbsent", func(t *testing.T) {
		leaders, err := meta.FetchLeadership(ctx, []string{"ghost"}, 2)
		require.NoError(t, err)
		require.Empty(t, leaders)
	})

	t.Run("SetLeaderMovesPartition", func(t *testing.T) {
		meta.SetLeader(ordersP0, &nodeB)

		leaders, err := meta.FetchLeadership(ctx, []string{"orders"}, 3)
		require.NoError(t, err)
		require.Equal(t, &nodeB, leaders[ordersP0])
	})

	t.Run("NilLeaderMeansLeaderless", func(t *testing.T) {
		meta.SetLeader(eventsP0, nil)

		leaders, err := meta.FetchLeadership(ctx, []string{"events"}, 4)
		require.NoError(t, err)
		require.Contains(t, leaders, eventsP0)
		require.Nil(t, leaders[eventsP0])
	})
}
