package ferry

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/arloliu/ferry/internal/discovery"
	"github.com/arloliu/ferry/internal/logging"
	"github.com/arloliu/ferry/internal/metrics"
	"github.com/arloliu/ferry/internal/pool"
	"github.com/arloliu/ferry/internal/registry"
)

// Manager is the consumer-side fetch coordination core: it keeps one fetch
// worker per leader node routed to the partitions that node currently leads.
//
// Manager owns three collaborating pieces per fetch session:
//   - a partition registry holding fetch cursors and the unresolved set
//   - a leader discovery loop resolving leadership via the MetadataClient
//   - a worker pool running one pull goroutine per leader node
//
// Thread safety: all public methods are safe for concurrent use. External
// callers are typically a rebalance callback (StartSession/StopSession) and
// fetch workers or their owners reporting stale leadership (MarkUnresolved).
//
// Lifecycle:
//   - Create with NewManager()
//   - StartSession() with the cursors of the partitions this consumer owns
//   - Feed leadership failures back through MarkUnresolved()
//   - StopSession() for graceful teardown; a new session may follow
type Manager struct {
	cfg     Config
	meta    MetadataClient
	factory FetcherFactory

	// Optional dependencies
	handler Handler
	hooks   *Hooks
	metrics MetricsCollector
	logger  Logger

	reg *registry.Registry

	mu            sync.Mutex
	loop          *discovery.Loop
	pool          *pool.Pool
	sessionCancel context.CancelFunc
	sessionStart  time.Time
}

// nopHandler discards records; the default when no handler is injected.
type nopHandler struct{}

func (nopHandler) HandleRecords(_ context.Context, _ PartitionID, _ []Record) error {
	return nil
}

// NewManager creates a new Manager instance with the provided configuration.
//
// Returns a concrete *Manager struct following the "accept interfaces,
// return structs" principle; consumers can define their own narrow interface
// for mocking.
//
// Parameters:
//   - cfg: Runtime configuration (defaults applied to zero fields)
//   - meta: Cluster metadata collaborator
//   - factory: Creates the per-node fetchers workers run
//   - opts: Optional configuration (handler, hooks, metrics, logger)
//
// Returns:
//   - *Manager: Initialized manager instance
//   - error: Validation error if configuration or dependencies are invalid
//
// Example:
//
//	cfg := ferry.Config{DiscoveryBackoff: time.Second}
//	meta, _ := metadata.NewNATSClient(nc, metadata.ClientConfig{})
//	factory := fetcher.NewNATSFactory(nc, fetcher.Config{})
//	mgr, err := ferry.NewManager(&cfg, meta, factory, ferry.WithHandler(h))
func NewManager(cfg *Config, meta MetadataClient, factory FetcherFactory, opts ...Option) (*Manager, error) {
	if cfg == nil {
		return nil, ErrInvalidConfig
	}
	if meta == nil {
		return nil, ErrMetadataClientRequired
	}
	if factory == nil {
		return nil, ErrFetcherFactoryRequired
	}

	SetDefaults(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	// Apply options
	options := &managerOptions{}
	for _, opt := range opts {
		opt(options)
	}

	// Safe defaults for optional dependencies avoid nil checks everywhere.
	metricsCollector := options.metrics
	if metricsCollector == nil {
		metricsCollector = metrics.NewNop()
	}
	loggerInstance := options.logger
	if loggerInstance == nil {
		loggerInstance = logging.NewNop()
	}
	cfg.ValidateWithWarnings(loggerInstance)

	hooksInstance := options.hooks
	if hooksInstance == nil {
		hooksInstance = &Hooks{}
	}
	handlerInstance := options.handler
	if handlerInstance == nil {
		handlerInstance = nopHandler{}
	}

	return &Manager{
		cfg:     *cfg,
		meta:    meta,
		factory: factory,
		handler: handlerInstance,
		hooks:   hooksInstance,
		metrics: metricsCollector,
		logger:  loggerInstance,
		reg:     registry.New(),
	}, nil
}

// StartSession begins a fetch session for the given cursors: every supplied
// partition is marked leader-unknown and the discovery loop starts routing
// them to workers.
//
// The nodes argument is the caller's current cluster view. It is advisory:
// discovery refreshes the view on every round, so the snapshot is only used
// for startup diagnostics.
//
// Parameters:
//   - cursors: One cursor per owned partition, positioned at its resume offset
//   - nodes: Current cluster view from the rebalance collaborator (may be nil)
//
// Returns:
//   - error: ErrSessionActive if a session is already running (callers must
//     StopSession first)
func (m *Manager) StartSession(cursors []*Cursor, nodes []NodeInfo) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.reg.StartSession(cursors); err != nil {
		return fmt.Errorf("failed to start session: %w", err)
	}

	sessionCtx, cancel := context.WithCancel(context.Background())
	m.sessionCancel = cancel
	m.sessionStart = time.Now()

	m.pool = pool.New(m.factory, m.handler, m.markStale,
		m.logger, m.metrics, m.hooks, sessionCtx,
		pool.Config{
			FetchInterval: m.cfg.FetchInterval,
			FetchMaxBytes: m.cfg.FetchMaxBytes,
			RetryBase:     m.cfg.FetchRetryBase,
			RetryCap:      m.cfg.FetchRetryCap,
		})
	m.loop = discovery.New(m.reg, m.pool, m.meta,
		m.logger, m.metrics, m.hooks, sessionCtx,
		discovery.Config{
			Backoff:         m.cfg.DiscoveryBackoff,
			MetadataTimeout: m.cfg.MetadataTimeout,
		})
	m.loop.Start()

	if len(nodes) == 0 {
		m.logger.Warn("session started with an empty cluster view; relying on metadata discovery")
	}
	m.logger.Info("fetch session started",
		"partitions", len(cursors),
		"known_nodes", len(nodes),
	)
	m.metrics.RecordSessionStarted(len(cursors))

	if m.hooks.OnSessionStarted != nil {
		ids := make([]PartitionID, 0, len(cursors))
		for _, cur := range cursors {
			ids = append(ids, cur.ID())
		}
		go func() {
			if err := m.hooks.OnSessionStarted(sessionCtx, ids); err != nil {
				m.logger.Error("session started hook error", "error", err)
			}
		}()
	}

	return nil
}

// StopSession tears the session down. Idempotent: calling it with no active
// session is a no-op, and a second concurrent call waits for the first.
//
// The ordering is load-bearing and strict:
//  1. stop and join the discovery loop, so no round can call into the pool
//     during teardown
//  2. stop and join every fetch worker
//  3. clear registry state
//
// Parameters:
//   - ctx: Deadline for the teardown; ShutdownTimeout applies additionally
//
// Returns:
//   - error: Context error when the deadline expired first (teardown then
//     finishes in the background)
func (m *Manager) StopSession(ctx context.Context) error {
	m.mu.Lock()
	loop := m.loop
	workerPool := m.pool
	cancel := m.sessionCancel
	started := m.sessionStart
	m.loop = nil
	m.pool = nil
	m.sessionCancel = nil
	m.mu.Unlock()

	if loop == nil {
		return nil
	}

	if m.cfg.ShutdownTimeout > 0 {
		var cancelTimeout context.CancelFunc
		ctx, cancelTimeout = context.WithTimeout(ctx, m.cfg.ShutdownTimeout)
		defer cancelTimeout()
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		loop.Stop()
		workerPool.StopAll()
		m.reg.EndSession()
		cancel()
	}()

	select {
	case <-done:
		m.logger.Info("fetch session stopped", "uptime", time.Since(started).String())
		m.metrics.RecordSessionStopped(time.Since(started).Seconds())

		return nil
	case <-ctx.Done():
		m.logger.Error("session teardown exceeded deadline; continuing in background")

		return ctx.Err()
	}
}

// MarkUnresolved reports partitions whose leadership is unknown, stale, or
// just failed (typically a worker's "not leader" feedback or a rebalance
// callback's hint) and wakes the discovery loop.
//
// Safe with no active session: late-arriving failure signals after shutdown
// are dropped rather than resurrecting state.
//
// Parameters:
//   - ids: Partitions needing leader discovery
//
// Returns:
//   - int: Number of partitions newly queued for discovery
func (m *Manager) MarkUnresolved(ids ...PartitionID) int {
	added := m.reg.MarkUnresolved(ids...)
	if added > 0 {
		m.logger.Debug("partitions queued for leader discovery", "count", added)
	}

	return added
}

// Offset returns the current fetch position of a partition's cursor,
// typically read when committing progress to external storage.
//
// Parameters:
//   - id: The partition to look up
//
// Returns:
//   - int64: The cursor's current offset
//   - error: ErrNoSession with no active session, ErrUnknownPartition when
//     the session does not hold the partition
func (m *Manager) Offset(id PartitionID) (int64, error) {
	if !m.reg.Active() {
		return 0, ErrNoSession
	}

	cur, err := m.reg.Cursor(id)
	if err != nil {
		return 0, err
	}

	return cur.Offset(), nil
}

// State returns the discovery loop state of the current session, or
// DiscoveryStopped when no session is active.
func (m *Manager) State() DiscoveryState {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.loop == nil {
		return DiscoveryStopped
	}

	return m.loop.State()
}

// SessionActive reports whether a fetch session is running.
func (m *Manager) SessionActive() bool {
	return m.reg.Active()
}

// UnresolvedCount returns how many partitions currently await leader
// discovery. Zero with no active session.
func (m *Manager) UnresolvedCount() int {
	return m.reg.UnresolvedCount()
}

// WorkerCount returns the number of live fetch workers. Zero with no active
// session.
func (m *Manager) WorkerCount() int {
	m.mu.Lock()
	workerPool := m.pool
	m.mu.Unlock()

	if workerPool == nil {
		return 0
	}

	return workerPool.WorkerCount()
}

// WaitState waits for the discovery loop to reach the expected state within
// the timeout.
//
// The returned channel receives exactly one value: nil when the state was
// reached, ErrLoopStopped when the session stopped while waiting for a
// different state, or context.DeadlineExceeded. The channel is closed after
// sending, so it is safe in select statements.
//
// Parameters:
//   - expected: The state to wait for
//   - timeout: Maximum duration to wait
//
// Returns:
//   - <-chan error: Receives the result (nil on success, error on timeout)
//
// Example:
//
//	if err := <-mgr.WaitState(ferry.DiscoveryIdle, 5*time.Second); err != nil {
//	    log.Printf("partitions still unresolved: %v", err)
//	}
func (m *Manager) WaitState(expected DiscoveryState, timeout time.Duration) <-chan error {
	ch := make(chan error, 1) // Buffered to prevent goroutine leak

	check := func() (bool, error) {
		state := m.State()
		if state == expected {
			return true, nil
		}
		if state == DiscoveryStopped {
			// A stopped session never reaches another state; fail fast
			// instead of burning the full timeout.
			return true, ErrLoopStopped
		}

		return false, nil
	}

	go func() {
		defer close(ch)

		if done, err := check(); done {
			ch <- err

			return
		}

		ticker := time.NewTicker(10 * time.Millisecond)
		defer ticker.Stop()
		deadline := time.NewTimer(timeout)
		defer deadline.Stop()

		for {
			select {
			case <-ticker.C:
				if done, err := check(); done {
					ch <- err

					return
				}
			case <-deadline.C:
				ch <- context.DeadlineExceeded

				return
			}
		}
	}()

	return ch
}

// markStale is the pool's stale-leader feedback sink.
func (m *Manager) markStale(ids ...PartitionID) {
	m.MarkUnresolved(ids...)
}
