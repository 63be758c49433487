// Package scanguard suppresses repeat scans of the same credential within a
// short window, so a QR code held in front of a scanner logs one event.
package scanguard

import (
	"context"
	"sync"
	"time"
)

const DefaultWindow = 1500 * time.Millisecond

// Guard reports whether key may proceed.  The first call for a key within
// the window returns true; later calls in the same window return false and
// do not extend it.
type Guard interface {
	Allow(ctx context.Context, key string) (bool, error)
	// Release forgets key so the next Allow succeeds.  Callers use it when
	// the scan they admitted was never recorded.
	Release(ctx context.Context, key string) error
}

// Memory is a process-local Guard.
type Memory struct {
	mu     sync.Mutex
	window time.Duration
	now    func() time.Time
	seen   map[string]time.Time
}

func NewMemory(window time.Duration) *Memory {
	if window <= 0 {
		window = DefaultWindow
	}
	return &Memory{
		window: window,
		now:    time.Now,
		seen:   make(map[string]time.Time),
	}
}

// WithClock replaces the time source.  Test-only helper.
func (m *Memory) WithClock(now func() time.Time) *Memory {
	m.now = now
	return m
}

func (m *Memory) Allow(_ context.Context, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	if at, ok := m.seen[key]; ok && now.Sub(at) < m.window {
		return false, nil
	}
	m.seen[key] = now

	// Opportunistic sweep keeps the map bounded by recent scanners.
	if len(m.seen) > 1024 {
		for k, at := range m.seen {
			if now.Sub(at) >= m.window {
				delete(m.seen, k)
			}
		}
	}
	return true, nil
}

func (m *Memory) Release(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.seen, key)
	return nil
}

// Noop allows everything.  Used when debouncing is disabled.
type Noop struct{}

func (Noop) Allow(context.Context, string) (bool, error) { return true, nil }

func (Noop) Release(context.Context, string) error { return nil }
