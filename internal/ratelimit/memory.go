package ratelimit

import (
	"context"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// DefaultSweepInterval is how often MemoryStore drops expired keys.
const DefaultSweepInterval = 5 * time.Minute

// MemoryStore keeps attempt windows in process memory. State is lost on
// restart and is not shared between instances; use RedisStore for that.
type MemoryStore struct {
	clock clockwork.Clock

	mu      sync.Mutex
	entries map[string]*memoryEntry

	stop      chan struct{}
	done      chan struct{}
	closeOnce sync.Once
}

type memoryEntry struct {
	timestamps []time.Time
	expiresAt  time.Time
}

// NewMemoryStore creates a MemoryStore and starts its janitor goroutine.
// Call Close to stop it.
func NewMemoryStore(clock clockwork.Clock, sweepEvery time.Duration) *MemoryStore {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if sweepEvery <= 0 {
		sweepEvery = DefaultSweepInterval
	}
	s := &MemoryStore{
		clock:   clock,
		entries: make(map[string]*memoryEntry),
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}
	go s.janitor(sweepEvery)
	return s
}

var _ Store = (*MemoryStore)(nil)

func (s *MemoryStore) Attempts(_ context.Context, key string, since time.Time) ([]time.Time, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[key]
	if !ok {
		return nil, nil
	}

	// in-place filter on the entry's backing array
	valid := e.timestamps[:0]
	for _, ts := range e.timestamps {
		if ts.After(since) {
			valid = append(valid, ts)
		}
	}
	e.timestamps = valid

	out := make([]time.Time, len(valid))
	copy(out, valid)
	return out, nil
}

func (s *MemoryStore) Record(_ context.Context, key string, at time.Time, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[key]
	if !ok {
		e = &memoryEntry{}
		s.entries[key] = e
	}
	e.timestamps = append(e.timestamps, at)
	e.expiresAt = at.Add(ttl)
	return nil
}

// Len reports how many keys are currently held.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Close stops the janitor. It is safe to call more than once.
func (s *MemoryStore) Close() {
	s.closeOnce.Do(func() {
		close(s.stop)
		<-s.done
	})
}

func (s *MemoryStore) janitor(every time.Duration) {
	defer close(s.done)
	ticker := s.clock.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.Chan():
			s.sweep()
		case <-s.stop:
			return
		}
	}
}

// sweep removes keys whose newest attempt has outlived its window.
func (s *MemoryStore) sweep() {
	now := s.clock.Now()
	s.mu.Lock()
	defer s.mu.Unlock()
	for key, e := range s.entries {
		if !now.Before(e.expiresAt) {
			delete(s.entries, key)
		}
	}
}
