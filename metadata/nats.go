package metadata

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/arloliu/ferry/internal/hash"
	"github.com/arloliu/ferry/types"
)

// Default configuration values for the NATS metadata client.
const (
	DefaultNodeBucket     = "ferry-nodes"
	DefaultSubjectPrefix  = "ferry"
	DefaultRequestTimeout = 5 * time.Second
)

// ClientConfig configures the NATS metadata client.
type ClientConfig struct {
	// NodeBucket is the JetStream KV bucket holding the node registry. Each
	// live node keeps a key named after its node ID with a JSON-encoded
	// NodeInfo value; the bucket's TTL expires entries of crashed nodes.
	NodeBucket string `yaml:"nodeBucket"`

	// SubjectPrefix namespaces the request/reply subjects.
	SubjectPrefix string `yaml:"subjectPrefix"`

	// RequestTimeout bounds the leadership request round-trip. The caller's
	// context applies additionally.
	RequestTimeout time.Duration `yaml:"requestTimeout"`
}

func (c *ClientConfig) setDefaults() {
	if c.NodeBucket == "" {
		c.NodeBucket = DefaultNodeBucket
	}
	if c.SubjectPrefix == "" {
		c.SubjectPrefix = DefaultSubjectPrefix
	}
	if c.RequestTimeout <= 0 {
		c.RequestTimeout = DefaultRequestTimeout
	}
}

// NATSClient resolves cluster topology over NATS.
//
// Node liveness comes from a JetStream KV bucket maintained by the nodes
// themselves. Leadership queries go over core NATS request/reply to one live
// node, selected by rendezvous-hashing the correlation ID so consecutive
// queries spread across the cluster.
type NATSClient struct {
	nc  *nats.Conn
	kv  jetstream.KeyValue
	cfg ClientConfig
}

var _ types.MetadataClient = (*NATSClient)(nil)

// NewNATSClient creates a metadata client bound to the node registry bucket.
//
// The bucket must already exist; it is owned by the cluster nodes, not by
// consumers.
//
// Parameters:
//   - nc: Established NATS connection
//   - cfg: Client configuration (zero fields get defaults)
//
// Returns:
//   - *NATSClient: Initialized client
//   - error: JetStream initialization or bucket lookup failure
//
// Example:
//
//	nc, _ := nats.Connect(nats.DefaultURL)
//	meta, err := metadata.NewNATSClient(nc, metadata.ClientConfig{})
//	if err != nil { /* handle */ }
//	mgr, err := ferry.NewManager(&cfg, meta, factory)
func NewNATSClient(nc *nats.Conn, cfg ClientConfig) (*NATSClient, error) {
	cfg.setDefaults()

	js, err := jetstream.New(nc)
	if err != nil {
		return nil, fmt.Errorf("failed to create JetStream context: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.RequestTimeout)
	defer cancel()

	kv, err := js.KeyValue(ctx, cfg.NodeBucket)
	if err != nil {
		return nil, fmt.Errorf("failed to bind node registry bucket %s: %w", cfg.NodeBucket, err)
	}

	return &NATSClient{nc: nc, kv: kv, cfg: cfg}, nil
}

// ListNodes returns every node currently registered in the KV bucket.
//
// An empty bucket is a valid (empty) topology, not an error.
func (c *NATSClient) ListNodes(ctx context.Context) ([]types.NodeInfo, error) {
	keys, err := c.kv.Keys(ctx)
	if err != nil {
		if errors.Is(err, jetstream.ErrNoKeysFound) {
			return nil, nil
		}

		return nil, fmt.Errorf("%w: failed to list node registry keys: %w", types.ErrMetadataUnavailable, err)
	}

	nodes := make([]types.NodeInfo, 0, len(keys))
	for _, key := range keys {
		entry, err := c.kv.Get(ctx, key)
		if err != nil {
			// Entry expired between Keys and Get; the node just went away.
			if errors.Is(err, jetstream.ErrKeyNotFound) {
				continue
			}

			return nil, fmt.Errorf("%w: failed to read node entry %s: %w", types.ErrMetadataUnavailable, key, err)
		}

		var node types.NodeInfo
		if err := json.Unmarshal(entry.Value(), &node); err != nil {
			return nil, fmt.Errorf("%w: malformed node entry %s: %w", types.ErrMetadataUnavailable, key, err)
		}
		nodes = append(nodes, node)
	}

	return nodes, nil
}

// FetchLeadership queries one live node for the leadership of every partition
// of the given topics.
func (c *NATSClient) FetchLeadership(ctx context.Context, topics []string, correlationID int64) (map[types.PartitionID]*types.NodeInfo, error) {
	nodes, err := c.ListNodes(ctx)
	if err != nil {
		return nil, err
	}

	target, ok := hash.Pick(nodes, uint64(correlationID))
	if !ok {
		return nil, fmt.Errorf("%w: no live nodes in registry", types.ErrMetadataUnavailable)
	}

	payload, err := json.Marshal(LeadershipRequest{Topics: topics, CorrelationID: correlationID})
	if err != nil {
		return nil, fmt.Errorf("%w: failed to encode leadership request: %w", types.ErrMetadataUnavailable, err)
	}

	reqCtx, cancel := context.WithTimeout(ctx, c.cfg.RequestTimeout)
	defer cancel()

	msg, err := c.nc.RequestWithContext(reqCtx, LeadershipSubject(c.cfg.SubjectPrefix, target.ID), payload)
	if err != nil {
		return nil, fmt.Errorf("%w: leadership query to node %s failed: %w", types.ErrMetadataUnavailable, target.ID, err)
	}

	var reply LeadershipReply
	if err := json.Unmarshal(msg.Data, &reply); err != nil {
		return nil, fmt.Errorf("%w: malformed leadership reply from node %s: %w", types.ErrMetadataUnavailable, target.ID, err)
	}
	if reply.Error != "" {
		return nil, fmt.Errorf("%w: node %s: %s", types.ErrMetadataUnavailable, target.ID, reply.Error)
	}

	leaders := make(map[types.PartitionID]*types.NodeInfo, len(reply.Partitions))
	for _, p := range reply.Partitions {
		leaders[types.PartitionID{Topic: p.Topic, Index: p.Index}] = p.Leader
	}

	return leaders, nil
}

// RegisterNode writes a node's registry entry. Cluster nodes call this
// periodically within the bucket TTL to advertise liveness; it is exported
// mainly for tests and embedded single-process deployments.
func (c *NATSClient) RegisterNode(ctx context.Context, node types.NodeInfo) error {
	payload, err := json.Marshal(node)
	if err != nil {
		return fmt.Errorf("failed to encode node entry: %w", err)
	}

	if _, err := c.kv.Put(ctx, node.ID, payload); err != nil {
		return fmt.Errorf("failed to write node entry %s: %w", node.ID, err)
	}

	return nil
}
