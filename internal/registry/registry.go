// Package registry holds the per-session partition state: fetch cursors,
// the unresolved-leadership set, and the wait/wake primitive the discovery
// loop blocks on.
package registry

import (
	"sync"

	"github.com/arloliu/ferry/types"
)

// Registry is the authoritative mapping from partition identity to its fetch
// cursor and leadership status for one fetch session.
//
// All state lives behind a single mutex paired with a condition variable.
// The coarse lock is intentional: mutators are rare relative to the discovery
// loop's backoff cadence, and it rules out the loop ever observing a torn
// unresolved set. The discipline is broadcast after every mutation, re-check
// the predicate after every wake.
type Registry struct {
	mu   sync.Mutex
	cond *sync.Cond

	cursors    map[types.PartitionID]*types.Cursor
	unresolved map[types.PartitionID]struct{}
	active     bool
	closed     bool
}

// New creates an empty registry with no active session.
func New() *Registry {
	r := &Registry{
		cursors:    make(map[types.PartitionID]*types.Cursor),
		unresolved: make(map[types.PartitionID]struct{}),
	}
	r.cond = sync.NewCond(&r.mu)

	return r
}

// StartSession installs the given cursors as the new session and marks every
// supplied partition unresolved, waking the discovery loop.
//
// Parameters:
//   - cursors: The session's fetch cursors, one per owned partition
//
// Returns:
//   - error: types.ErrSessionActive if a session is already running
func (r *Registry) StartSession(cursors []*types.Cursor) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.active {
		return types.ErrSessionActive
	}

	r.cursors = make(map[types.PartitionID]*types.Cursor, len(cursors))
	r.unresolved = make(map[types.PartitionID]struct{}, len(cursors))
	for _, cur := range cursors {
		r.cursors[cur.ID()] = cur
		r.unresolved[cur.ID()] = struct{}{}
	}
	r.active = true
	r.closed = false
	r.cond.Broadcast()

	return nil
}

// EndSession clears all session state. Idempotent; safe with no session.
func (r *Registry) EndSession() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.cursors = make(map[types.PartitionID]*types.Cursor)
	r.unresolved = make(map[types.PartitionID]struct{})
	r.active = false
	r.cond.Broadcast()
}

// Close wakes any blocked waiter and makes all future waits return
// immediately. Called before tearing the discovery loop down so a waiter
// blocked on an empty unresolved set observes the stop promptly.
func (r *Registry) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.closed = true
	r.cond.Broadcast()
}

// MarkUnresolved adds the given partitions to the unresolved set and wakes
// the discovery loop.
//
// Partitions unknown to the current session are ignored: a late-arriving
// failure signal for a superseded session must not resurrect state. The whole
// call is a no-op when no session is active.
//
// Parameters:
//   - ids: Partitions whose leadership is unknown, stale, or just failed
//
// Returns:
//   - int: Number of partitions actually added
func (r *Registry) MarkUnresolved(ids ...types.PartitionID) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.active {
		return 0
	}

	added := 0
	for _, id := range ids {
		if _, ok := r.cursors[id]; !ok {
			continue
		}
		if _, ok := r.unresolved[id]; ok {
			continue
		}
		r.unresolved[id] = struct{}{}
		added++
	}
	if added > 0 {
		r.cond.Broadcast()
	}

	return added
}

// Resolve removes a partition from the unresolved set. Called by the
// discovery loop only after the partition was successfully attached to a
// worker; removal-only-on-success is what keeps a failed attachment retried.
func (r *Registry) Resolve(id types.PartitionID) {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.unresolved, id)
}

// Cursor looks up the fetch cursor for a partition.
//
// Returns:
//   - *types.Cursor: The partition's cursor
//   - error: types.ErrUnknownPartition if the session does not hold it
func (r *Registry) Cursor(id types.PartitionID) (*types.Cursor, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	cur, ok := r.cursors[id]
	if !ok {
		return nil, types.ErrUnknownPartition
	}

	return cur, nil
}

// AwaitUnresolved blocks until the unresolved set is non-empty, then returns
// a snapshot copy of it.
//
// The snapshot decouples the caller from concurrent mutation: failure
// feedback may grow the live set while the round iterates the copy.
//
// Returns:
//   - []types.PartitionID: Snapshot of the unresolved set (order unspecified)
//   - bool: false when the registry was closed, meaning stop
func (r *Registry) AwaitUnresolved() ([]types.PartitionID, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for len(r.unresolved) == 0 && !r.closed {
		r.cond.Wait()
	}
	if r.closed {
		return nil, false
	}

	return r.snapshotLocked(), true
}

// UnresolvedSnapshot returns a copy of the unresolved set without blocking.
func (r *Registry) UnresolvedSnapshot() []types.PartitionID {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.snapshotLocked()
}

// UnresolvedCount returns the current size of the unresolved set.
func (r *Registry) UnresolvedCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return len(r.unresolved)
}

// Active reports whether a session is running.
func (r *Registry) Active() bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.active
}

// PartitionCount returns the number of partitions the session holds.
func (r *Registry) PartitionCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return len(r.cursors)
}

func (r *Registry) snapshotLocked() []types.PartitionID {
	ids := make([]types.PartitionID, 0, len(r.unresolved))
	for id := range r.unresolved {
		ids = append(ids, id)
	}

	return ids
}
