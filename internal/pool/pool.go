// Package pool owns the per-node fetch workers: one long-lived goroutine per
// cluster node currently leading at least one of the consumer's partitions.
package pool

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/arloliu/ferry/types"
)

// Config carries the fetch-side tunables a worker needs.
type Config struct {
	// FetchInterval is the pause between successful fetch round-trips.
	FetchInterval time.Duration

	// FetchMaxBytes bounds the per-partition response size.
	FetchMaxBytes int32

	// RetryBase is the initial backoff after a failed round-trip.
	RetryBase time.Duration

	// RetryCap is the backoff ceiling.
	RetryCap time.Duration
}

// StaleFunc receives partitions a worker dropped after the node reported it
// no longer leads them. The pool calls it from worker goroutines; the manager
// wires it to MarkUnresolved so discovery re-routes the partitions.
type StaleFunc func(ids ...types.PartitionID)

// Pool manages the set of node workers for one fetch session.
//
// Attach, ReapIdle, and StopAll serialize on the pool mutex, which gives the
// per-node attach/reap serialization the routing logic relies on. Workers
// themselves run and suspend independently of the pool lock.
type Pool struct {
	factory types.FetcherFactory
	handler types.Handler
	onStale StaleFunc
	logger  types.Logger
	metrics types.WorkerMetrics
	hooks   *types.Hooks
	hookCtx context.Context
	cfg     Config

	mu       sync.Mutex
	workers  map[string]*worker
	stopping bool
}

// New creates a pool with no workers.
//
// Parameters:
//   - factory: Creates the per-node fetcher when a worker starts
//   - handler: Receives fetched records
//   - onStale: Stale-leader feedback sink (may be nil)
//   - logger: Structured logger (non-nil)
//   - metrics: Worker metrics sink (non-nil)
//   - hooks: Lifecycle hooks (non-nil, fields may be nil)
//   - hookCtx: Context passed to hook invocations
//   - cfg: Fetch tunables
func New(factory types.FetcherFactory, handler types.Handler, onStale StaleFunc,
	logger types.Logger, metrics types.WorkerMetrics, hooks *types.Hooks,
	hookCtx context.Context, cfg Config,
) *Pool {
	return &Pool{
		factory: factory,
		handler: handler,
		onStale: onStale,
		logger:  logger,
		metrics: metrics,
		hooks:   hooks,
		hookCtx: hookCtx,
		cfg:     cfg,
		workers: make(map[string]*worker),
	}
}

// Attach routes a partition to the worker for node, creating and starting the
// worker if the node has none yet, and detaching the partition from whichever
// worker served it before. The cursor's current offset is the resume point.
//
// Returns:
//   - error: types.ErrAttachRejected while the pool is stopping, or a
//     fetcher construction failure (the partition stays unresolved)
func (p *Pool) Attach(node types.NodeInfo, cur *types.Cursor) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.stopping {
		return types.ErrAttachRejected
	}

	// A partition is never served by two workers: drop it from its previous
	// owner before the new owner picks it up.
	for id, w := range p.workers {
		if id != node.ID {
			w.remove(cur.ID())
		}
	}

	w, ok := p.workers[node.ID]
	if !ok {
		fetcher, err := p.factory.NewFetcher(node)
		if err != nil {
			return fmt.Errorf("failed to create fetcher for node %s: %w", node.ID, err)
		}

		w = newWorker(node, fetcher, p.handler, p.notifyStale, p.logger, p.metrics, p.cfg)
		p.workers[node.ID] = w
		w.start()

		p.logger.Info("fetch worker started", "node_id", node.ID, "addr", node.Addr())
		p.metrics.RecordWorkerStarted(node.ID)
		p.metrics.RecordActiveWorkers(len(p.workers))
		p.runHook(func(h *types.Hooks) func(context.Context) error {
			if h.OnWorkerStarted == nil {
				return nil
			}
			return func(ctx context.Context) error { return h.OnWorkerStarted(ctx, node) }
		})
	}

	w.add(cur)
	p.logger.Debug("partition attached",
		"partition", cur.ID().String(),
		"node_id", node.ID,
		"resume_offset", cur.Offset(),
	)

	return nil
}

// ReapIdle stops and removes every worker whose served set is empty.
//
// Called by the discovery loop strictly at end of round, after all of the
// round's attachments are applied, so a worker about to receive a partition
// in the same round is never torn down transiently.
//
// Returns:
//   - int: Number of workers reaped
func (p *Pool) ReapIdle() int {
	p.mu.Lock()
	var idle []*worker
	for id, w := range p.workers {
		if w.size() == 0 {
			idle = append(idle, w)
			delete(p.workers, id)
		}
	}
	remaining := len(p.workers)
	p.mu.Unlock()

	// Join outside the lock so attaches to other nodes are not held up.
	for _, w := range idle {
		w.stop()
		p.logger.Info("idle fetch worker reaped", "node_id", w.node.ID)
		p.metrics.RecordWorkerStopped(w.node.ID, "idle")
		node := w.node
		p.runHook(func(h *types.Hooks) func(context.Context) error {
			if h.OnWorkerStopped == nil {
				return nil
			}
			return func(ctx context.Context) error { return h.OnWorkerStopped(ctx, node) }
		})
	}
	if len(idle) > 0 {
		p.metrics.RecordActiveWorkers(remaining)
	}

	return len(idle)
}

// StopAll stops every worker and clears the pool. Subsequent Attach calls
// fail with types.ErrAttachRejected. Idempotent.
func (p *Pool) StopAll() {
	p.mu.Lock()
	p.stopping = true
	stopped := make([]*worker, 0, len(p.workers))
	for _, w := range p.workers {
		stopped = append(stopped, w)
	}
	p.workers = make(map[string]*worker)
	p.mu.Unlock()

	for _, w := range stopped {
		w.stop()
		p.metrics.RecordWorkerStopped(w.node.ID, "shutdown")
		node := w.node
		p.runHook(func(h *types.Hooks) func(context.Context) error {
			if h.OnWorkerStopped == nil {
				return nil
			}
			return func(ctx context.Context) error { return h.OnWorkerStopped(ctx, node) }
		})
	}
	if len(stopped) > 0 {
		p.metrics.RecordActiveWorkers(0)
		p.logger.Info("all fetch workers stopped", "count", len(stopped))
	}
}

// WorkerCount returns the number of live workers.
func (p *Pool) WorkerCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()

	return len(p.workers)
}

// ServingNode reports which node's worker currently serves the partition.
//
// Returns:
//   - string: Node ID ("" when unserved)
//   - bool: true when some worker serves the partition
func (p *Pool) ServingNode(id types.PartitionID) (string, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for nodeID, w := range p.workers {
		if w.serves(id) {
			return nodeID, true
		}
	}

	return "", false
}

// ServedCount returns how many partitions the node's worker serves, or 0 when
// the node has no worker.
func (p *Pool) ServedCount(nodeID string) int {
	p.mu.Lock()
	defer p.mu.Unlock()

	if w, ok := p.workers[nodeID]; ok {
		return w.size()
	}

	return 0
}

func (p *Pool) notifyStale(ids ...types.PartitionID) {
	if p.onStale != nil {
		p.onStale(ids...)
	}
}

// runHook invokes an optional hook in the background, after the selector
// narrowed it to a non-nil callback.
func (p *Pool) runHook(pick func(*types.Hooks) func(context.Context) error) {
	fn := pick(p.hooks)
	if fn == nil {
		return
	}
	go func() {
		if err := fn(p.hookCtx); err != nil {
			p.logger.Error("worker hook error", "error", err)
		}
	}()
}
