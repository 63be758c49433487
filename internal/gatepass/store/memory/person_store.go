package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/BrandonDHaskell/gatepass/internal/gatepass/store"
)

// PersonDeleter is implemented by log stores that hold rows for a person,
// so DeletePerson can cascade the way the SQL foreign keys do.
type PersonDeleter interface {
	DeletePersonLogs(personID string)
}

// PersonStore keeps people in a map.  Phones are stored in plain text.
type PersonStore struct {
	mu      sync.RWMutex
	persons map[string]store.PersonRecord
	cascade []PersonDeleter
}

func NewPersonStore(cascade ...PersonDeleter) *PersonStore {
	return &PersonStore{
		persons: make(map[string]store.PersonRecord),
		cascade: cascade,
	}
}

func (s *PersonStore) InsertPerson(_ context.Context, rec store.PersonRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.persons[rec.ID]; ok {
		return store.ErrConflict
	}
	if rec.Active && s.phoneTakenLocked(rec.Phone, rec.ID) {
		return store.ErrConflict
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	if rec.UpdatedAt.IsZero() {
		rec.UpdatedAt = rec.CreatedAt
	}
	if rec.NotificationStatus == "" {
		rec.NotificationStatus = store.StatusPending
	}
	s.persons[rec.ID] = rec
	return nil
}

func (s *PersonStore) GetPerson(_ context.Context, id string) (store.PersonRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.persons[id]
	if !ok {
		return store.PersonRecord{}, store.ErrNotFound
	}
	return rec, nil
}

func (s *PersonStore) FindActiveByPhone(_ context.Context, phone string) (store.PersonRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, p := range s.persons {
		if p.Active && p.Phone == phone {
			return p, nil
		}
	}
	return store.PersonRecord{}, store.ErrNotFound
}

func (s *PersonStore) ListPersons(_ context.Context, activeOnly bool) ([]store.PersonRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]store.PersonRecord, 0, len(s.persons))
	for _, p := range s.persons {
		if activeOnly && !p.Active {
			continue
		}
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (s *PersonStore) UpdatePayload(_ context.Context, id, payload string, at time.Time) error {
	return s.update(id, func(p *store.PersonRecord) error {
		p.QRPayload = payload
		p.UpdatedAt = at
		return nil
	})
}

func (s *PersonStore) UpdateNotificationStatus(_ context.Context, id string, status store.NotificationStatus, at time.Time) error {
	return s.update(id, func(p *store.PersonRecord) error {
		p.NotificationStatus = status
		p.UpdatedAt = at
		return nil
	})
}

func (s *PersonStore) SetActive(_ context.Context, id string, active bool, at time.Time) error {
	return s.update(id, func(p *store.PersonRecord) error {
		if active && !p.Active && s.phoneTakenLocked(p.Phone, p.ID) {
			return store.ErrConflict
		}
		p.Active = active
		p.UpdatedAt = at
		return nil
	})
}

func (s *PersonStore) DeletePerson(_ context.Context, id string) error {
	s.mu.Lock()
	if _, ok := s.persons[id]; !ok {
		s.mu.Unlock()
		return store.ErrNotFound
	}
	delete(s.persons, id)
	s.mu.Unlock()

	for _, c := range s.cascade {
		c.DeletePersonLogs(id)
	}
	return nil
}

func (s *PersonStore) CountActive(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, p := range s.persons {
		if p.Active {
			n++
		}
	}
	return n, nil
}

func (s *PersonStore) update(id string, fn func(p *store.PersonRecord) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.persons[id]
	if !ok {
		return store.ErrNotFound
	}
	if err := fn(&p); err != nil {
		return err
	}
	s.persons[id] = p
	return nil
}

func (s *PersonStore) phoneTakenLocked(phone, exceptID string) bool {
	for id, p := range s.persons {
		if id != exceptID && p.Active && p.Phone == phone {
			return true
		}
	}
	return false
}
