package integration_test

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/require"

	"github.com/arloliu/ferry"
	"github.com/arloliu/ferry/fetcher"
	"github.com/arloliu/ferry/metadata"
	ferrytest "github.com/arloliu/ferry/testing"
	"github.com/arloliu/ferry/types"
)

const testBucket = "ferry-nodes"

// fakeCluster simulates a partitioned broker cluster over NATS: every node
// answers leadership queries from a shared table and serves fetch requests
// for the partitions it currently leads.
type fakeCluster struct {
	t  *testing.T
	nc *nats.Conn

	mu      sync.Mutex
	nodes   map[string]types.NodeInfo
	leaders map[types.PartitionID]string // partition -> node ID
	logs    map[types.PartitionID][]types.Record
}

func newFakeCluster(t *testing.T, nc *nats.Conn) *fakeCluster {
	t.Helper()

	return &fakeCluster{
		t:       t,
		nc:      nc,
		nodes:   make(map[string]types.NodeInfo),
		leaders: make(map[types.PartitionID]string),
		logs:    make(map[types.PartitionID][]types.Record),
	}
}

// addNode registers a node in the KV registry and starts its subjects.
func (c *fakeCluster) addNode(meta *metadata.NATSClient, node types.NodeInfo) {
	c.t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(c.t, meta.RegisterNode(ctx, node))

	c.mu.Lock()
	c.nodes[node.ID] = node
	c.mu.Unlock()

	metaSub, err := c.nc.Subscribe(
		metadata.LeadershipSubject(metadata.DefaultSubjectPrefix, node.ID),
		func(msg *nats.Msg) { c.serveLeadership(msg) },
	)
	require.NoError(c.t, err)
	c.t.Cleanup(func() { _ = metaSub.Unsubscribe() })

	fetchSub, err := c.nc.Subscribe(
		fetcher.FetchSubject(fetcher.DefaultSubjectPrefix, node.ID),
		func(msg *nats.Msg) { c.serveFetch(node.ID, msg) },
	)
	require.NoError(c.t, err)
	c.t.Cleanup(func() { _ = fetchSub.Unsubscribe() })
}

func (c *fakeCluster) setLeader(id types.PartitionID, nodeID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.leaders[id] = nodeID
}

func (c *fakeCluster) appendRecords(id types.PartitionID, values ...string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	log := c.logs[id]
	for _, v := range values {
		log = append(log, types.Record{Offset: int64(len(log)), Value: []byte(v)})
	}
	c.logs[id] = log
}

func (c *fakeCluster) serveLeadership(msg *nats.Msg) {
	var req metadata.LeadershipRequest
	if err := json.Unmarshal(msg.Data, &req); err != nil {
		return
	}

	requested := make(map[string]struct{}, len(req.Topics))
	for _, topic := range req.Topics {
		requested[topic] = struct{}{}
	}

	c.mu.Lock()
	reply := metadata.LeadershipReply{}
	for id, nodeID := range c.leaders {
		if _, ok := requested[id.Topic]; !ok {
			continue
		}
		entry := metadata.PartitionLeader{Topic: id.Topic, Index: id.Index}
		if node, ok := c.nodes[nodeID]; ok {
			n := node
			entry.Leader = &n
		}
		reply.Partitions = append(reply.Partitions, entry)
	}
	c.mu.Unlock()

	data, _ := json.Marshal(reply)
	_ = msg.Respond(data)
}

func (c *fakeCluster) serveFetch(nodeID string, msg *nats.Msg) {
	var req fetcher.FetchWireRequest
	if err := json.Unmarshal(msg.Data, &req); err != nil {
		return
	}

	c.mu.Lock()
	reply := fetcher.FetchWireReply{}
	for _, p := range req.Partitions {
		id := types.PartitionID{Topic: p.Topic, Index: p.Index}
		result := fetcher.PartitionResult{Topic: p.Topic, Index: p.Index, NextOffset: p.Offset}

		if c.leaders[id] != nodeID {
			result.ErrCode = fetcher.ErrCodeNotLeader
		} else {
			log := c.logs[id]
			for _, rec := range log {
				if rec.Offset >= p.Offset {
					result.Records = append(result.Records, rec)
				}
			}
			result.NextOffset = int64(len(log))
		}
		reply.Results = append(reply.Results, result)
	}
	c.mu.Unlock()

	data, _ := json.Marshal(reply)
	_ = msg.Respond(data)
}

// recordSink collects handled records per partition.
type recordSink struct {
	mu   sync.Mutex
	recs map[types.PartitionID][]types.Record
}

func newRecordSink() *recordSink {
	return &recordSink{recs: make(map[types.PartitionID][]types.Record)}
}

func (s *recordSink) HandleRecords(_ context.Context, id types.PartitionID, recs []types.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.recs[id] = append(s.recs[id], recs...)

	return nil
}

func (s *recordSink) count(id types.PartitionID) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.recs[id])
}

func (s *recordSink) values(id types.PartitionID) []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]string, 0, len(s.recs[id]))
	for _, r := range s.recs[id] {
		out = append(out, string(r.Value))
	}

	return out
}

func testManagerConfig() *ferry.Config {
	return &ferry.Config{
		DiscoveryBackoff: 50 * time.Millisecond,
		MetadataTimeout:  2 * time.Second,
		FetchInterval:    10 * time.Millisecond,
		ShutdownTimeout:  10 * time.Second,
	}
}

func TestFetchSession_EndToEnd(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	_, nc := ferrytest.StartEmbeddedNATS(t)
	ferrytest.CreateNodeRegistryKV(t, nc, testBucket, 0)

	meta, err := metadata.NewNATSClient(nc, metadata.ClientConfig{NodeBucket: testBucket})
	require.NoError(t, err)

	cluster := newFakeCluster(t, nc)
	nodeA := types.NodeInfo{ID: "node-a", Host: "127.0.0.1", Port: 4100}
	nodeB := types.NodeInfo{ID: "node-b", Host: "127.0.0.1", Port: 4101}
	cluster.addNode(meta, nodeA)
	cluster.addNode(meta, nodeB)

	ordersP0 := types.PartitionID{Topic: "orders", Index: 0}
	ordersP1 := types.PartitionID{Topic: "orders", Index: 1}
	cluster.setLeader(ordersP0, nodeA.ID)
	cluster.setLeader(ordersP1, nodeB.ID)
	cluster.appendRecords(ordersP0, "a0", "a1", "a2")
	cluster.appendRecords(ordersP1, "b0")

	sink := newRecordSink()
	mgr, err := ferry.NewManager(testManagerConfig(), meta, fetcher.NewNATSFactory(nc, fetcher.Config{}),
		ferry.WithHandler(sink),
		ferry.WithLogger(ferrytest.NewTestLogger(t)),
	)
	require.NoError(t, err)

	cursors := []*ferry.Cursor{
		ferry.NewCursor(ordersP0, 0),
		ferry.NewCursor(ordersP1, 0),
	}
	require.NoError(t, mgr.StartSession(cursors, nil))
	defer func() { _ = mgr.StopSession(context.Background()) }()

	t.Run("DeliversBacklog", func(t *testing.T) {
		require.Eventually(t, func() bool {
			return sink.count(ordersP0) == 3 && sink.count(ordersP1) == 1
		}, 10*time.Second, 20*time.Millisecond)

		require.Equal(t, []string{"a0", "a1", "a2"}, sink.values(ordersP0))
		require.Equal(t, 2, mgr.WorkerCount())
	})

	t.Run("DeliversNewRecordsInOrder", func(t *testing.T) {
		cluster.appendRecords(ordersP0, "a3", "a4")

		require.Eventually(t, func() bool {
			return sink.count(ordersP0) == 5
		}, 10*time.Second, 20*time.Millisecond)
		require.Equal(t, []string{"a0", "a1", "a2", "a3", "a4"}, sink.values(ordersP0))
	})

	t.Run("LeaderMoveReRoutesWithoutLossOrDuplication", func(t *testing.T) {
		// Move orders-1 from node-b to node-a. The next fetch against node-b
		// comes back "not leader", the worker reports the partition, and the
		// discovery loop re-routes it. node-b's worker then has nothing to
		// serve and is reaped.
		cluster.setLeader(ordersP1, nodeA.ID)
		cluster.appendRecords(ordersP1, "b1", "b2")

		require.Eventually(t, func() bool {
			return sink.count(ordersP1) == 3 && mgr.WorkerCount() == 1
		}, 10*time.Second, 20*time.Millisecond)
		require.Equal(t, []string{"b0", "b1", "b2"}, sink.values(ordersP1))
	})
}

func TestFetchSession_LeaderlessPartitionWaits(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	_, nc := ferrytest.StartEmbeddedNATS(t)
	ferrytest.CreateNodeRegistryKV(t, nc, testBucket, 0)

	meta, err := metadata.NewNATSClient(nc, metadata.ClientConfig{NodeBucket: testBucket})
	require.NoError(t, err)

	cluster := newFakeCluster(t, nc)
	node := types.NodeInfo{ID: "node-a", Host: "127.0.0.1", Port: 4100}
	cluster.addNode(meta, node)

	id := types.PartitionID{Topic: "events", Index: 0}
	// Leaderless at first: the leadership table maps it to a node that is
	// not in the registry, so replies carry a nil leader.
	cluster.setLeader(id, "node-gone")
	cluster.appendRecords(id, "e0")

	sink := newRecordSink()
	mgr, err := ferry.NewManager(testManagerConfig(), meta, fetcher.NewNATSFactory(nc, fetcher.Config{}),
		ferry.WithHandler(sink),
	)
	require.NoError(t, err)

	require.NoError(t, mgr.StartSession([]*ferry.Cursor{ferry.NewCursor(id, 0)}, nil))
	defer func() { _ = mgr.StopSession(context.Background()) }()

	// The partition stays unresolved while leaderless.
	time.Sleep(300 * time.Millisecond)
	require.Equal(t, 1, mgr.UnresolvedCount())
	require.Equal(t, 0, sink.count(id))

	// Election completes; the partition resolves and records flow.
	cluster.setLeader(id, node.ID)
	require.Eventually(t, func() bool {
		return mgr.UnresolvedCount() == 0 && sink.count(id) == 1
	}, 10*time.Second, 20*time.Millisecond)
}

func TestFetchSession_StopWhileMetadataUnavailable(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	_, nc := ferrytest.StartEmbeddedNATS(t)
	ferrytest.CreateNodeRegistryKV(t, nc, testBucket, 0)

	meta, err := metadata.NewNATSClient(nc, metadata.ClientConfig{
		NodeBucket:     testBucket,
		RequestTimeout: 30 * time.Second,
	})
	require.NoError(t, err)

	// Register a node that never answers leadership queries, so discovery
	// rounds block until their timeout.
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, meta.RegisterNode(ctx, types.NodeInfo{ID: "node-mute", Host: "127.0.0.1", Port: 4100}))

	cfg := testManagerConfig()
	cfg.MetadataTimeout = 10 * time.Second

	mgr, err := ferry.NewManager(cfg, meta, fetcher.NewNATSFactory(nc, fetcher.Config{}))
	require.NoError(t, err)

	id := types.PartitionID{Topic: "orders", Index: 0}
	require.NoError(t, mgr.StartSession([]*ferry.Cursor{ferry.NewCursor(id, 0)}, nil))

	// Give the loop time to enter the blocking metadata query, then stop.
	// Shutdown must complete promptly because Stop cancels the query context.
	time.Sleep(200 * time.Millisecond)

	start := time.Now()
	require.NoError(t, mgr.StopSession(context.Background()))
	require.Less(t, time.Since(start), 5*time.Second,
		fmt.Sprintf("shutdown took %s, metadata query not cancelled", time.Since(start)))
	require.False(t, mgr.SessionActive())
}
