package feed

import (
	"sync"
	"time"

	"github.com/digitalboostplus/dtxent/internal/event"
)

// GraceWindow is how long past its start an event stays in the upcoming set.
const GraceWindow = 6 * time.Hour

// Store holds the canonical displayed list. The bundled fallback serves the
// first paint; once the remote feed delivers a snapshot with at least one
// upcoming event, the remote feed owns the display until an explicit remote
// error reverts it to the fallback.
type Store struct {
	mu          sync.RWMutex
	now         func() time.Time
	local       []event.Event
	remote      []event.Event
	remoteShown bool
}

// NewStore seeds a store with the fallback feed.
func NewStore(local []event.Event) *Store {
	return &Store{now: time.Now, local: local}
}

// WithClock overrides the time source for tests.
func (s *Store) WithClock(now func() time.Time) *Store {
	s.now = now
	return s
}

// ApplyRemote ingests a full replacement snapshot. The first snapshot takes
// over only when it carries at least one upcoming event; after that, every
// snapshot replaces the displayed set even when empty, since an empty snapshot
// from a live feed means the events really are gone.
func (s *Store) ApplyRemote(events []event.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.remoteShown {
		if len(Upcoming(events, s.now())) == 0 {
			return
		}
		s.remoteShown = true
	}
	s.remote = events
}

// ApplyRemoteError reverts the display to the fallback feed.
func (s *Store) ApplyRemoteError() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.remoteShown = false
	s.remote = nil
}

// Events returns the current canonical list: the remote snapshot when one is
// authoritative, otherwise the fallback's upcoming subset.
func (s *Store) Events() []event.Event {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.remoteShown {
		out := make([]event.Event, len(s.remote))
		copy(out, s.remote)
		return out
	}
	return Upcoming(s.local, s.now())
}

// RemoteActive reports whether the remote feed currently owns the display.
func (s *Store) RemoteActive() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.remoteShown
}

// Upcoming keeps events whose start is no more than the grace window in the
// past. Order is preserved.
func Upcoming(events []event.Event, now time.Time) []event.Event {
	cutoff := now.Add(-GraceWindow)
	out := make([]event.Event, 0, len(events))
	for _, ev := range events {
		if !ev.EventDate.Before(cutoff) {
			out = append(out, ev)
		}
	}
	return out
}
