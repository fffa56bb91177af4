package session

import "sync"

// Store owns the session state. Dispatches are serialized under a mutex so
// no transition ever observes a half-updated state. The generation counter
// supports the staleness guard: it is bumped when a logout completes, and a
// flow that suspended before the logout can detect that its pending
// dispatches would resurrect a dead session.
type Store struct {
	mu    sync.Mutex
	state State
	gen   uint64
}

func NewStore() *Store {
	return &Store{}
}

// Snapshot returns a copy of the current state.
func (s *Store) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Generation returns the current invalidation generation.
func (s *Store) Generation() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gen
}

// Dispatch applies the events in order as one serialized step.
func (s *Store) Dispatch(events ...Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.apply(events)
}

// TryDispatch applies the events only if the generation still matches the
// one the caller captured before suspending. Returns false if the session
// was invalidated in the meantime and nothing was applied.
func (s *Store) TryDispatch(gen uint64, events ...Event) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.gen != gen {
		return false
	}
	s.apply(events)
	return true
}

func (s *Store) apply(events []Event) {
	for _, ev := range events {
		s.state = Reduce(s.state, ev)
		if ev.Type == LogoutEnd {
			s.gen++
		}
	}
}
