package discovery

import (
	"sync"

	"github.com/arloliu/ferry/types"
)

// stateSubscriber is one fan-out target for loop state changes.
type stateSubscriber struct {
	mu     sync.Mutex
	ch     chan types.DiscoveryState
	closed bool
}

// trySend delivers a state without blocking; a slow subscriber just misses
// intermediate states (the current state is re-sent on subscription).
func (s *stateSubscriber) trySend(state types.DiscoveryState) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	select {
	case s.ch <- state:
	default:
	}
}

func (s *stateSubscriber) close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.closed {
		s.closed = true
		close(s.ch)
	}
}
