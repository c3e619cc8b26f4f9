package state

import (
	"fmt"
	"sync"
	"time"

	"github.com/five82/bookclub/internal/browse"
)

// Snapshot represents the latest collection data available to the UI.
type Snapshot struct {
	Entries             map[string][]browse.Entry // by relation
	Loaded              map[string]time.Time      // last successful load per relation
	LastUpdated         time.Time
	LastError           error
	ConsecutiveFailures int // Number of consecutive failed loads
}

// IsOffline returns true when the API has been unreachable for multiple loads.
func (s Snapshot) IsOffline() bool {
	return s.ConsecutiveFailures >= 2
}

// HasLoaded reports whether rel has been loaded at least once.
func (s Snapshot) HasLoaded(rel string) bool {
	_, ok := s.Loaded[rel]
	return ok
}

// Store coordinates concurrent updates to the snapshot.
type Store struct {
	mu         sync.RWMutex
	snapshot   Snapshot
	generation uint64 // bumped by Forget
}

// Update replaces the entries stored for rel. When err is non-nil the
// previous entries are kept but the error is recorded for visibility.
func (s *Store) Update(rel string, entries []browse.Entry, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.update(rel, entries, err)
}

// Generation identifies the data the store holds. Capture it before a load
// and hand it to UpdateAt.
func (s *Store) Generation() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.generation
}

// UpdateAt is Update for a load started at generation gen. Loads started
// before the last Forget are dropped and UpdateAt reports false.
func (s *Store) UpdateAt(gen uint64, rel string, entries []browse.Entry, err error) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.generation {
		return false
	}
	s.update(rel, entries, err)
	return true
}

func (s *Store) update(rel string, entries []browse.Entry, err error) {
	now := time.Now()
	s.snapshot.LastUpdated = now
	if err != nil {
		s.snapshot.LastError = err
		s.snapshot.ConsecutiveFailures++
		return
	}

	if s.snapshot.Entries == nil {
		s.snapshot.Entries = make(map[string][]browse.Entry)
		s.snapshot.Loaded = make(map[string]time.Time)
	}
	s.snapshot.Entries[rel] = cloneEntries(entries)
	s.snapshot.Loaded[rel] = now
	s.snapshot.LastError = nil
	s.snapshot.ConsecutiveFailures = 0
}

// Forget drops everything stored, e.g. after the caller identity changes.
// Loads already in flight can no longer land through UpdateAt.
func (s *Store) Forget() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshot = Snapshot{}
	s.generation++
}

// Snapshot returns a copy of the current snapshot.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := s.snapshot
	snap.Entries = make(map[string][]browse.Entry, len(s.snapshot.Entries))
	for rel, entries := range s.snapshot.Entries {
		snap.Entries[rel] = cloneEntries(entries)
	}
	snap.Loaded = make(map[string]time.Time, len(s.snapshot.Loaded))
	for rel, at := range s.snapshot.Loaded {
		snap.Loaded[rel] = at
	}
	if s.snapshot.LastError != nil {
		snap.LastError = fmt.Errorf("%w", s.snapshot.LastError)
	}
	return snap
}

func cloneEntries(entries []browse.Entry) []browse.Entry {
	if len(entries) == 0 {
		return nil
	}
	dup := make([]browse.Entry, len(entries))
	for i, e := range entries {
		dup[i] = browse.Entry{Payload: e.Payload, Controls: e.Controls.Clone()}
	}
	return dup
}
