package pool

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/arloliu/ferry/types"
)

// worker is the handle for one node: a background goroutine pulling records
// for every partition currently routed to that node.
type worker struct {
	node    types.NodeInfo
	fetcher types.NodeFetcher
	handler types.Handler
	onStale StaleFunc
	logger  types.Logger
	metrics types.WorkerMetrics
	cfg     Config

	mu     sync.Mutex
	served map[types.PartitionID]*types.Cursor

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
}

func newWorker(node types.NodeInfo, fetcher types.NodeFetcher, handler types.Handler,
	onStale StaleFunc, logger types.Logger, metrics types.WorkerMetrics, cfg Config,
) *worker {
	ctx, cancel := context.WithCancel(context.Background())

	return &worker{
		node:    node,
		fetcher: fetcher,
		handler: handler,
		onStale: onStale,
		logger:  logger,
		metrics: metrics,
		cfg:     cfg,
		served:  make(map[types.PartitionID]*types.Cursor),
		ctx:     ctx,
		cancel:  cancel,
		done:    make(chan struct{}),
	}
}

func (w *worker) start() {
	go w.run()
}

// stop signals the worker and waits for its goroutine to exit.
func (w *worker) stop() {
	w.cancel()
	<-w.done
}

func (w *worker) add(cur *types.Cursor) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.served[cur.ID()] = cur
}

func (w *worker) remove(id types.PartitionID) {
	w.mu.Lock()
	defer w.mu.Unlock()

	delete(w.served, id)
}

func (w *worker) serves(id types.PartitionID) bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	_, ok := w.served[id]

	return ok
}

func (w *worker) size() int {
	w.mu.Lock()
	defer w.mu.Unlock()

	return len(w.served)
}

// run is the worker's pull loop: snapshot the served set, perform one fetch
// round-trip, hand records to the handler, advance cursors, repeat. Exits
// when the worker is stopped (idle reap or pool shutdown).
func (w *worker) run() {
	defer close(w.done)
	defer func() {
		if err := w.fetcher.Close(); err != nil {
			w.logger.Warn("failed to close fetcher", "node_id", w.node.ID, "error", err)
		}
	}()

	var retryDelay time.Duration

	for {
		if w.ctx.Err() != nil {
			return
		}

		reqs := w.buildRequests()
		if len(reqs) == 0 {
			// Nothing routed here right now; idle until reaped or fed again.
			if !w.sleep(w.cfg.FetchInterval) {
				return
			}

			continue
		}

		results, err := w.fetcher.Fetch(w.ctx, reqs)
		if err != nil {
			if w.ctx.Err() != nil {
				return
			}
			w.logger.Warn("fetch round-trip failed",
				"node_id", w.node.ID,
				"partitions", len(reqs),
				"error", err,
			)
			w.metrics.RecordFetch(w.node.ID, 0, true)
			retryDelay = jitterBackoff(retryDelay, w.cfg.RetryBase, 2.0, w.cfg.RetryCap)
			if !w.sleep(retryDelay) {
				return
			}

			continue
		}
		retryDelay = 0

		w.applyResults(results)

		if !w.sleep(w.cfg.FetchInterval) {
			return
		}
	}
}

func (w *worker) buildRequests() []types.FetchRequest {
	w.mu.Lock()
	defer w.mu.Unlock()

	reqs := make([]types.FetchRequest, 0, len(w.served))
	for id, cur := range w.served {
		reqs = append(reqs, types.FetchRequest{
			ID:       id,
			Offset:   cur.Offset(),
			MaxBytes: w.cfg.FetchMaxBytes,
		})
	}

	return reqs
}

func (w *worker) applyResults(results []types.FetchResult) {
	var stale []types.PartitionID
	total := 0

	for _, res := range results {
		w.mu.Lock()
		cur, ok := w.served[res.ID]
		w.mu.Unlock()
		if !ok {
			// Re-routed to another node between request and response.
			continue
		}

		if res.Err != nil {
			if errors.Is(res.Err, types.ErrNotLeader) {
				stale = append(stale, res.ID)

				continue
			}
			w.logger.Warn("partition fetch error",
				"node_id", w.node.ID,
				"partition", res.ID.String(),
				"error", res.Err,
			)

			continue
		}

		if len(res.Records) > 0 {
			if err := w.handler.HandleRecords(w.ctx, res.ID, res.Records); err != nil {
				// Cursor untouched: the same records come back next round.
				w.logger.Warn("record handler failed",
					"partition", res.ID.String(),
					"records", len(res.Records),
					"error", err,
				)

				continue
			}
			total += len(res.Records)
		}
		cur.Advance(res.NextOffset)
	}

	w.metrics.RecordFetch(w.node.ID, total, false)

	if len(stale) > 0 {
		// Drop first, then report: the partitions leave the served set
		// before they re-enter the unresolved set.
		w.mu.Lock()
		for _, id := range stale {
			delete(w.served, id)
		}
		w.mu.Unlock()

		w.logger.Info("node lost leadership for served partitions",
			"node_id", w.node.ID,
			"partitions", len(stale),
		)
		w.metrics.RecordStaleLeader(w.node.ID, len(stale))
		w.onStale(stale...)
	}
}

// sleep pauses for d, returning false when the worker was stopped meanwhile.
func (w *worker) sleep(d time.Duration) bool {
	if d <= 0 {
		return w.ctx.Err() == nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-w.ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
