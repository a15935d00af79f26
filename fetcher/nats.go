package fetcher

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/arloliu/ferry/types"
)

// Default configuration values for the NATS fetcher.
const (
	DefaultSubjectPrefix  = "ferry"
	DefaultRequestTimeout = 5 * time.Second
)

// Config configures NATS fetchers created by the factory.
type Config struct {
	// SubjectPrefix namespaces the fetch subjects. Must match the metadata
	// client's prefix so fetchers and discovery talk to the same cluster.
	SubjectPrefix string `yaml:"subjectPrefix"`

	// RequestTimeout bounds one fetch round-trip. The worker's context
	// applies additionally.
	RequestTimeout time.Duration `yaml:"requestTimeout"`
}

func (c *Config) setDefaults() {
	if c.SubjectPrefix == "" {
		c.SubjectPrefix = DefaultSubjectPrefix
	}
	if c.RequestTimeout <= 0 {
		c.RequestTimeout = DefaultRequestTimeout
	}
}

// NATSFetcher pulls records from one node over NATS request/reply.
//
// The worker pool drives a fetcher from a single goroutine, so no internal
// locking is needed. The NATS connection is shared and owned by the caller;
// Close only detaches the fetcher, never the connection.
type NATSFetcher struct {
	nc      *nats.Conn
	subject string
	cfg     Config
}

var _ types.NodeFetcher = (*NATSFetcher)(nil)

// NewNATSFetcher creates a fetcher bound to one node's fetch subject.
func NewNATSFetcher(nc *nats.Conn, node types.NodeInfo, cfg Config) *NATSFetcher {
	cfg.setDefaults()

	return &NATSFetcher{
		nc:      nc,
		subject: FetchSubject(cfg.SubjectPrefix, node.ID),
		cfg:     cfg,
	}
}

// Fetch performs one pull round-trip for the given partitions.
//
// A transport failure (no responder, timeout) fails the whole call; the
// worker backs off and retries. Per-partition failures come back inside the
// corresponding FetchResult.
func (f *NATSFetcher) Fetch(ctx context.Context, reqs []types.FetchRequest) ([]types.FetchResult, error) {
	wire := FetchWireRequest{Partitions: make([]PartitionFetch, 0, len(reqs))}
	for _, req := range reqs {
		wire.Partitions = append(wire.Partitions, PartitionFetch{
			Topic:    req.ID.Topic,
			Index:    req.ID.Index,
			Offset:   req.Offset,
			MaxBytes: req.MaxBytes,
		})
	}

	payload, err := json.Marshal(wire)
	if err != nil {
		return nil, fmt.Errorf("failed to encode fetch request: %w", err)
	}

	reqCtx, cancel := context.WithTimeout(ctx, f.cfg.RequestTimeout)
	defer cancel()

	msg, err := f.nc.RequestWithContext(reqCtx, f.subject, payload)
	if err != nil {
		return nil, fmt.Errorf("fetch round-trip on %s failed: %w", f.subject, err)
	}

	var reply FetchWireReply
	if err := json.Unmarshal(msg.Data, &reply); err != nil {
		return nil, fmt.Errorf("malformed fetch reply on %s: %w", f.subject, err)
	}

	results := make([]types.FetchResult, 0, len(reply.Results))
	for _, r := range reply.Results {
		id := types.PartitionID{Topic: r.Topic, Index: r.Index}
		results = append(results, types.FetchResult{
			ID:         id,
			Records:    r.Records,
			NextOffset: r.NextOffset,
			Err:        decodeErrCode(r.ErrCode, id),
		})
	}

	return results, nil
}

// Close detaches the fetcher. The shared NATS connection stays open.
func (f *NATSFetcher) Close() error {
	return nil
}

// NewNATSFactory returns a factory creating one NATSFetcher per node, all
// sharing the given connection.
//
// Example:
//
//	nc, _ := nats.Connect(nats.DefaultURL)
//	factory := fetcher.NewNATSFactory(nc, fetcher.Config{})
//	mgr, err := ferry.NewManager(&cfg, meta, factory)
func NewNATSFactory(nc *nats.Conn, cfg Config) types.FetcherFactory {
	return types.FetcherFactoryFunc(func(node types.NodeInfo) (types.NodeFetcher, error) {
		return NewNATSFetcher(nc, node, cfg), nil
	})
}
