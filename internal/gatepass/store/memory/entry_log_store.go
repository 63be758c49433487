package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/BrandonDHaskell/gatepass/internal/gatepass/store"
)

// EntryLogStore is an in-memory append-only enter/exit log.
// It is intended for use in tests and dev environments.
type EntryLogStore struct {
	mu      sync.Mutex
	entries []store.EntryRecord
}

func NewEntryLogStore() *EntryLogStore {
	return &EntryLogStore{}
}

func (s *EntryLogStore) AppendNext(_ context.Context, rec store.EntryRecord, decide store.DecideFn) (store.EntryRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	last, ok := s.lastLocked(rec.PersonID, time.Time{})
	rec.Type = decide(last, ok)
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.OccurredAt.IsZero() {
		rec.OccurredAt = time.Now().UTC()
	}
	s.entries = append(s.entries, rec)
	return rec, nil
}

func (s *EntryLogStore) LastEntry(_ context.Context, personID string) (store.EntryRecord, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.lastLocked(personID, time.Time{})
	return rec, ok, nil
}

func (s *EntryLogStore) EntriesBetween(_ context.Context, from, to time.Time) ([]store.EntryRecord, error) {
	return s.filter(func(e store.EntryRecord) bool { return inRange(e.OccurredAt, from, to) }), nil
}

func (s *EntryLogStore) PersonEntries(_ context.Context, personID string, from, to time.Time) ([]store.EntryRecord, error) {
	return s.filter(func(e store.EntryRecord) bool {
		return e.PersonID == personID && inRange(e.OccurredAt, from, to)
	}), nil
}

func (s *EntryLogStore) RecentEntries(_ context.Context, limit int) ([]store.EntryRecord, error) {
	all := s.filter(func(store.EntryRecord) bool { return true })
	out := make([]store.EntryRecord, 0, len(all))
	for i := len(all) - 1; i >= 0; i-- {
		out = append(out, all[i])
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

func (s *EntryLogStore) CountByType(_ context.Context, from, to time.Time) (int, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var enters, exits int
	for _, e := range s.entries {
		if !inRange(e.OccurredAt, from, to) {
			continue
		}
		switch e.Type {
		case store.EntryEnter:
			enters++
		case store.EntryExit:
			exits++
		}
	}
	return enters, exits, nil
}

func (s *EntryLogStore) CountPersonEnters(_ context.Context, personID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, e := range s.entries {
		if e.PersonID == personID && e.Type == store.EntryEnter {
			n++
		}
	}
	return n, nil
}

func (s *EntryLogStore) CurrentlyInside(_ context.Context, at time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	seen := make(map[string]struct{})
	n := 0
	for _, e := range s.entries {
		if _, ok := seen[e.PersonID]; ok {
			continue
		}
		seen[e.PersonID] = struct{}{}
		if last, ok := s.lastLocked(e.PersonID, at); ok && last.Type == store.EntryEnter {
			n++
		}
	}
	return n, nil
}

func (s *EntryLogStore) DistinctPersons(_ context.Context, from, to time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make(map[string]struct{})
	for _, e := range s.entries {
		if inRange(e.OccurredAt, from, to) {
			ids[e.PersonID] = struct{}{}
		}
	}
	return len(ids), nil
}

func (s *EntryLogStore) PruneOlderThan(_ context.Context, cutoff time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.entries[:0]
	var deleted int64
	for _, e := range s.entries {
		if e.OccurredAt.Before(cutoff) {
			deleted++
			continue
		}
		kept = append(kept, e)
	}
	s.entries = kept
	return deleted, nil
}

// DeletePersonLogs implements PersonDeleter.
func (s *EntryLogStore) DeletePersonLogs(personID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.entries[:0]
	for _, e := range s.entries {
		if e.PersonID != personID {
			kept = append(kept, e)
		}
	}
	s.entries = kept
}

// Entries returns a copy of all rows in insertion order.  Test-only helper.
func (s *EntryLogStore) Entries() []store.EntryRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]store.EntryRecord, len(s.entries))
	copy(out, s.entries)
	return out
}

// lastLocked picks the newest row by time, breaking ties by insertion
// order.  A zero at means no upper bound.
func (s *EntryLogStore) lastLocked(personID string, at time.Time) (store.EntryRecord, bool) {
	var (
		last  store.EntryRecord
		found bool
	)
	for _, e := range s.entries {
		if e.PersonID != personID {
			continue
		}
		if !at.IsZero() && e.OccurredAt.After(at) {
			continue
		}
		if !found || !e.OccurredAt.Before(last.OccurredAt) {
			last, found = e, true
		}
	}
	return last, found
}

func (s *EntryLogStore) filter(keep func(store.EntryRecord) bool) []store.EntryRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []store.EntryRecord
	for _, e := range s.entries {
		if keep(e) {
			out = append(out, e)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].OccurredAt.Before(out[j].OccurredAt) })
	return out
}

func inRange(t, from, to time.Time) bool {
	return !t.Before(from) && t.Before(to)
}
