// Package cache holds the short-lived total count cache used by conversation
// listing. Entries expire by TTL only; writes to the warehouse never invalidate them.
package cache

import (
	"context"
	"sync"
	"time"
)

// CountCache maps a filter fingerprint to a total row count.
type CountCache interface {
	Get(ctx context.Context, key string) (int64, bool)
	Set(ctx context.Context, key string, count int64)
}

type entry struct {
	count   int64
	expires time.Time
}

// Memory is a process local CountCache. Concurrent writers for the same key
// simply overwrite each other.
type Memory struct {
	ttl time.Duration
	now func() time.Time

	mu      sync.RWMutex
	entries map[string]entry
}

func NewMemory(ttl time.Duration) *Memory {
	return &Memory{
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[string]entry),
	}
}

func (m *Memory) Get(_ context.Context, key string) (int64, bool) {
	m.mu.RLock()
	e, ok := m.entries[key]
	m.mu.RUnlock()

	if !ok || !m.now().Before(e.expires) {
		return 0, false
	}
	return e.count, true
}

func (m *Memory) Set(_ context.Context, key string, count int64) {
	now := m.now()

	m.mu.Lock()
	defer m.mu.Unlock()

	for k, e := range m.entries {
		if !now.Before(e.expires) {
			delete(m.entries, k)
		}
	}
	m.entries[key] = entry{count: count, expires: now.Add(m.ttl)}
}
