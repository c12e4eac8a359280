package state

import (
	"fmt"
	"sync"
	"time"
)

// Snapshot represents the upload progress visible to renderers.
type Snapshot struct {
	Total       int
	Completed   int
	StartedAt   time.Time
	LastUpdated time.Time
	Done        bool
	Err         error
}

// Percent returns the completed fraction in [0, 1].
func (s Snapshot) Percent() float64 {
	if s.Total <= 0 {
		return 0
	}
	return min(float64(s.Completed)/float64(s.Total), 1)
}

// Elapsed returns the time since the upload started, or zero before Start.
func (s Snapshot) Elapsed(now time.Time) time.Duration {
	if s.StartedAt.IsZero() {
		return 0
	}
	return now.Sub(s.StartedAt)
}

// Remaining estimates the time left from the average pace so far. It returns
// zero until the first upload completes.
func (s Snapshot) Remaining(now time.Time) time.Duration {
	if s.Completed <= 0 || s.Completed >= s.Total {
		return 0
	}
	perImage := s.Elapsed(now) / time.Duration(s.Completed)
	return perImage * time.Duration(s.Total-s.Completed)
}

// Store coordinates concurrent updates to the snapshot. The zero value is
// ready to use.
type Store struct {
	mu       sync.RWMutex
	snapshot Snapshot

	// Now overrides the clock in tests.
	Now func() time.Time
}

func (s *Store) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// Start resets the store for a new upload of total images.
func (s *Store) Start(total int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	s.snapshot = Snapshot{
		Total:       total,
		StartedAt:   now,
		LastUpdated: now,
	}
}

// Advance records completed of total uploads. Out-of-order updates that
// would move progress backwards are ignored.
func (s *Store) Advance(completed, total int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if completed < s.snapshot.Completed {
		return
	}
	if s.snapshot.StartedAt.IsZero() {
		s.snapshot.StartedAt = s.now()
	}
	s.snapshot.Completed = completed
	s.snapshot.Total = total
	s.snapshot.LastUpdated = s.now()
}

// Finish marks the upload as over. A nil err means every image was
// uploaded.
func (s *Store) Finish(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.snapshot.Done = true
	s.snapshot.Err = err
	s.snapshot.LastUpdated = s.now()
}

// Snapshot returns a copy of the current snapshot.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := s.snapshot
	if s.snapshot.Err != nil {
		snap.Err = fmt.Errorf("%w", s.snapshot.Err)
	}
	return snap
}
