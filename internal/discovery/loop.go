// Package discovery runs the leader discovery loop: the single background
// task that resolves partition leadership and keeps fetch workers routed to
// current leaders.
package discovery

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/puzpuzpuz/xsync/v4"

	"github.com/arloliu/ferry/internal/pool"
	"github.com/arloliu/ferry/internal/registry"
	"github.com/arloliu/ferry/types"
)

// Config carries the loop's timing knobs.
type Config struct {
	// Backoff is the pause between discovery rounds. It bounds the metadata
	// query rate during leader-election storms.
	Backoff time.Duration

	// MetadataTimeout bounds each metadata query.
	MetadataTimeout time.Duration
}

// Loop is one leader discovery loop instance.
//
// The loop has three states: Idle (suspended on the registry's wait until a
// partition needs leadership), Resolving (querying metadata and attaching
// workers), and the terminal Stopped. A stopped instance is never restarted;
// every fetch session runs a fresh Loop.
type Loop struct {
	reg     *registry.Registry
	pool    *pool.Pool
	meta    types.MetadataClient
	logger  types.Logger
	metrics types.MetricsCollector
	hooks   *types.Hooks
	hookCtx context.Context
	cfg     Config

	// correlation numbers metadata queries for log/trace cross-referencing
	// with the remote service. Never a correctness mechanism.
	correlation atomic.Int64

	state    atomic.Int32 // types.DiscoveryState
	stopping atomic.Bool
	started  atomic.Bool

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
	stop   sync.Once

	// Fan-out to state subscribers
	subscribers      *xsync.Map[uint64, *stateSubscriber]
	nextSubscriberID atomic.Uint64
}

// New creates a loop bound to the given registry, pool, and metadata client.
// The loop does not run until Start is called.
func New(reg *registry.Registry, p *pool.Pool, meta types.MetadataClient,
	logger types.Logger, metrics types.MetricsCollector, hooks *types.Hooks,
	hookCtx context.Context, cfg Config,
) *Loop {
	ctx, cancel := context.WithCancel(context.Background())
	l := &Loop{
		reg:         reg,
		pool:        p,
		meta:        meta,
		logger:      logger,
		metrics:     metrics,
		hooks:       hooks,
		hookCtx:     hookCtx,
		cfg:         cfg,
		ctx:         ctx,
		cancel:      cancel,
		done:        make(chan struct{}),
		subscribers: xsync.NewMap[uint64, *stateSubscriber](),
	}
	l.state.Store(int32(types.DiscoveryIdle))

	return l
}

// Start launches the loop goroutine. Second and later calls are no-ops.
func (l *Loop) Start() {
	if !l.started.CompareAndSwap(false, true) {
		return
	}
	go l.run()
}

// Stop signals the loop and waits for it to exit. Idempotent.
//
// The stop is cooperative: the stopping flag is raised first so any in-flight
// round treats further failures as fatal, then the registry wait is woken and
// the loop context cancelled so a blocked metadata query returns within its
// timeout bound.
func (l *Loop) Stop() {
	l.stop.Do(func() {
		l.stopping.Store(true)
		l.reg.Close()
		l.cancel()
		if l.started.CompareAndSwap(false, true) {
			// Never started: there is no goroutine to join.
			l.setState(types.DiscoveryStopped)
			close(l.done)
		}
	})
	<-l.done
}

// State returns the loop's current state.
func (l *Loop) State() types.DiscoveryState {
	return types.DiscoveryState(l.state.Load())
}

// Subscribe returns a channel receiving state change notifications.
//
// The channel is buffered and never blocks the loop; the current state is
// delivered immediately on subscription. Call the returned function to
// unsubscribe and close the channel.
//
// Returns:
//   - <-chan types.DiscoveryState: State updates
//   - func(): Unsubscribe function
func (l *Loop) Subscribe() (<-chan types.DiscoveryState, func()) {
	id := l.nextSubscriberID.Add(1)

	// Buffer of 4 absorbs an Idle -> Resolving -> Idle -> Stopped burst
	// without dropping states on a slow subscriber.
	sub := &stateSubscriber{ch: make(chan types.DiscoveryState, 4)}
	l.subscribers.Store(id, sub)
	sub.trySend(l.State())

	return sub.ch, func() {
		if s, ok := l.subscribers.LoadAndDelete(id); ok {
			s.close()
		}
	}
}

// CorrelationID returns the correlation number of the most recent metadata
// query (0 before the first query).
func (l *Loop) CorrelationID() int64 {
	return l.correlation.Load()
}

func (l *Loop) run() {
	defer close(l.done)
	defer l.setState(types.DiscoveryStopped)

	for {
		ids, ok := l.reg.AwaitUnresolved()
		if !ok {
			return
		}
		l.setState(types.DiscoveryResolving)

		if err := l.round(ids); err != nil {
			// Fatal errors exist only under a shutdown in progress; exiting
			// here is what guarantees shutdown completes in bounded time.
			l.logger.Info("discovery loop exiting", "error", err)

			return
		}

		if !l.sleep(l.cfg.Backoff) {
			return
		}

		if l.reg.UnresolvedCount() == 0 {
			l.setState(types.DiscoveryIdle)
		}
	}
}

// round performs one discovery round over a snapshot of the unresolved set.
//
// A non-nil return is fatal to the loop and happens only while a shutdown is
// in progress; every other failure is logged and retried on a later round.
func (l *Loop) round(ids []types.PartitionID) error {
	start := time.Now()
	topics := distinctTopics(ids)
	cid := l.correlation.Add(1)

	qctx, cancel := context.WithTimeout(l.ctx, l.cfg.MetadataTimeout)
	defer cancel()

	qstart := time.Now()
	leaders, err := l.meta.FetchLeadership(qctx, topics, cid)
	l.metrics.RecordMetadataQuery(time.Since(qstart).Seconds(), err == nil)
	if err != nil {
		if l.stopping.Load() {
			return fmt.Errorf("metadata query aborted by shutdown: %w", err)
		}
		// Transient by policy: leader elections are frequent and expected.
		// The unresolved set is untouched and retried next round.
		l.logger.Warn("metadata query failed, will retry",
			"correlation_id", cid,
			"topics", len(topics),
			"error", err,
		)
		l.runDiscoveryErrorHook(err)

		return nil
	}

	resolved, failed := 0, 0
	for _, id := range ids {
		leader, ok := leaders[id]
		if !ok || leader == nil {
			// Leaderless at this moment; stays unresolved.
			continue
		}

		cur, err := l.reg.Cursor(id)
		if err != nil {
			if errors.Is(err, types.ErrUnknownPartition) {
				// Superseded by a concurrent session restart; drop silently.
				continue
			}

			return err
		}

		if err := l.pool.Attach(*leader, cur); err != nil {
			if l.stopping.Load() {
				// Attaching against a pool mid-teardown can deadlock the
				// surrounding shutdown barrier; bail out immediately.
				return fmt.Errorf("attach aborted by shutdown: %w", err)
			}
			failed++
			l.logger.Warn("failed to attach partition",
				"partition", id.String(),
				"node_id", leader.ID,
				"correlation_id", cid,
				"error", err,
			)

			continue
		}

		l.reg.Resolve(id)
		resolved++
		l.runAttachedHook(id, *leader)
	}

	// Reap strictly at end of round, after all attachments are applied, so a
	// worker about to receive a partition this round is not destroyed.
	l.pool.ReapIdle()

	l.metrics.RecordDiscoveryRound(time.Since(start).Seconds(), resolved, failed)
	l.metrics.RecordUnresolvedCount(l.reg.UnresolvedCount())
	l.logger.Debug("discovery round complete",
		"correlation_id", cid,
		"snapshot", len(ids),
		"resolved", resolved,
		"failed", failed,
	)

	return nil
}

func (l *Loop) setState(to types.DiscoveryState) {
	from := types.DiscoveryState(l.state.Swap(int32(to)))
	if from == to {
		return
	}

	l.logger.Debug("discovery state transition", "from", from.String(), "to", to.String())
	l.metrics.RecordStateTransition(from, to)

	l.subscribers.Range(func(_ uint64, sub *stateSubscriber) bool {
		sub.trySend(to)

		return true
	})
}

// sleep pauses for d, returning false when the loop was stopped meanwhile.
func (l *Loop) sleep(d time.Duration) bool {
	if d <= 0 {
		return l.ctx.Err() == nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-l.ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

func (l *Loop) runDiscoveryErrorHook(err error) {
	if l.hooks.OnDiscoveryError == nil {
		return
	}
	go func() {
		if herr := l.hooks.OnDiscoveryError(l.hookCtx, err); herr != nil {
			l.logger.Error("discovery error hook failed", "error", herr)
		}
	}()
}

func (l *Loop) runAttachedHook(id types.PartitionID, node types.NodeInfo) {
	if l.hooks.OnPartitionAttached == nil {
		return
	}
	go func() {
		if herr := l.hooks.OnPartitionAttached(l.hookCtx, id, node); herr != nil {
			l.logger.Error("partition attached hook failed", "error", herr)
		}
	}()
}

func distinctTopics(ids []types.PartitionID) []string {
	seen := make(map[string]struct{}, len(ids))
	topics := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id.Topic]; ok {
			continue
		}
		seen[id.Topic] = struct{}{}
		topics = append(topics, id.Topic)
	}

	return topics
}
