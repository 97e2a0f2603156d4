package adapter

import (
	"context"
	"sync"
	"time"

	"starmatch/internal/domain"
)

type memoryEntry struct {
	value     string
	expiresAt time.Time
}

func (e memoryEntry) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && !now.Before(e.expiresAt)
}

// MemoryCache implements domain.Cache in process for single-instance
// deployments without Redis. Expired entries are dropped lazily on access.
type MemoryCache struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	now     func() time.Time
}

// NewMemoryCache creates an empty in-process cache.
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{
		entries: make(map[string]memoryEntry),
		now:     time.Now,
	}
}

func (m *MemoryCache) Get(_ context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.lookupLocked(key)
	if !ok {
		return "", domain.ErrCacheMiss
	}
	return e.value, nil
}

func (m *MemoryCache) Set(_ context.Context, key string, value string, expiration time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	e := memoryEntry{value: value}
	if expiration > 0 {
		e.expiresAt = m.now().Add(expiration)
	}
	m.entries[key] = e
	return nil
}

func (m *MemoryCache) GetDel(_ context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.lookupLocked(key)
	if !ok {
		return "", domain.ErrCacheMiss
	}
	delete(m.entries, key)
	return e.value, nil
}

func (m *MemoryCache) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, key)
	return nil
}

func (m *MemoryCache) Ping(context.Context) error {
	return nil
}

func (m *MemoryCache) lookupLocked(key string) (memoryEntry, bool) {
	e, ok := m.entries[key]
	if !ok {
		return memoryEntry{}, false
	}
	if e.expired(m.now()) {
		delete(m.entries, key)
		return memoryEntry{}, false
	}
	return e, true
}
