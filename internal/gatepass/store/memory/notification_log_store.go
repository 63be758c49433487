package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/BrandonDHaskell/gatepass/internal/gatepass/store"
)

type NotificationLogStore struct {
	mu   sync.Mutex
	logs []store.NotificationRecord
}

func NewNotificationLogStore() *NotificationLogStore {
	return &NotificationLogStore{}
}

func (s *NotificationLogStore) RecordNotification(_ context.Context, rec store.NotificationRecord) error {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.SentAt.IsZero() {
		rec.SentAt = time.Now().UTC()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.logs = append(s.logs, rec)
	return nil
}

func (s *NotificationLogStore) NotificationsByPerson(_ context.Context, personID string) ([]store.NotificationRecord, error) {
	return s.newestFirst(0, func(r store.NotificationRecord) bool { return r.PersonID == personID }), nil
}

func (s *NotificationLogStore) NotificationsByStatus(_ context.Context, status store.NotificationStatus, limit int) ([]store.NotificationRecord, error) {
	return s.newestFirst(limit, func(r store.NotificationRecord) bool { return r.Status == status }), nil
}

func (s *NotificationLogStore) CountNotifications(_ context.Context, from, to time.Time) (map[store.NotificationStatus]int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[store.NotificationStatus]int)
	for _, r := range s.logs {
		if inRange(r.SentAt, from, to) {
			out[r.Status]++
		}
	}
	return out, nil
}

func (s *NotificationLogStore) PruneOlderThan(_ context.Context, cutoff time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.logs[:0]
	var deleted int64
	for _, r := range s.logs {
		if r.SentAt.Before(cutoff) {
			deleted++
			continue
		}
		kept = append(kept, r)
	}
	s.logs = kept
	return deleted, nil
}

// DeletePersonLogs implements PersonDeleter.
func (s *NotificationLogStore) DeletePersonLogs(personID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.logs[:0]
	for _, r := range s.logs {
		if r.PersonID != personID || personID == "" {
			kept = append(kept, r)
		}
	}
	s.logs = kept
}

// Logs returns a copy of all rows in insertion order.  Test-only helper.
func (s *NotificationLogStore) Logs() []store.NotificationRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]store.NotificationRecord, len(s.logs))
	copy(out, s.logs)
	return out
}

func (s *NotificationLogStore) newestFirst(limit int, keep func(store.NotificationRecord) bool) []store.NotificationRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []store.NotificationRecord
	for i := len(s.logs) - 1; i >= 0; i-- {
		if keep(s.logs[i]) {
			out = append(out, s.logs[i])
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].SentAt.After(out[j].SentAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}
