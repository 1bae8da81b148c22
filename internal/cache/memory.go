package cache

import (
	"context"
	"sync"
	"time"
)

type memoryItem struct {
	value     string
	expiresAt time.Time
}

// MemoryNamespace is a process-local Namespace
type MemoryNamespace struct {
	mu    sync.RWMutex
	gen   int64
	items map[string]memoryItem
	now   func() time.Time
}

// NewMemoryNamespace creates an empty in-memory namespace
func NewMemoryNamespace() *MemoryNamespace {
	return &MemoryNamespace{
		items: make(map[string]memoryItem),
		now:   time.Now,
	}
}

// SetClock replaces the time source, for tests.
func (m *MemoryNamespace) SetClock(now func() time.Time) {
	m.mu.Lock()
	m.now = now
	m.mu.Unlock()
}

// Lookup implements Namespace
func (m *MemoryNamespace) Lookup(ctx context.Context, key string) (Entry, error) {
	m.mu.RLock()
	gen := m.gen
	m.mu.RUnlock()

	val, ok, err := m.Get(ctx, gen, key)
	if err != nil {
		return Entry{}, err
	}
	return Entry{Generation: gen, Value: val, Found: ok}, nil
}

// Get implements Namespace
func (m *MemoryNamespace) Get(_ context.Context, gen int64, key string) (string, bool, error) {
	m.mu.RLock()
	if gen != m.gen {
		m.mu.RUnlock()
		return "", false, nil
	}
	item, ok := m.items[key]
	now := m.now()
	m.mu.RUnlock()

	if !ok {
		return "", false, nil
	}
	if !now.Before(item.expiresAt) {
		m.mu.Lock()
		if cur, ok := m.items[key]; ok && cur == item {
			delete(m.items, key)
		}
		m.mu.Unlock()
		return "", false, nil
	}
	return item.value, true, nil
}

// Set implements Namespace. Writes for a stale generation are dropped.
func (m *MemoryNamespace) Set(_ context.Context, gen int64, key, value string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if gen != m.gen {
		return nil
	}
	m.items[key] = memoryItem{value: value, expiresAt: m.now().Add(ttl)}
	return nil
}

// Flush implements Namespace
func (m *MemoryNamespace) Flush(_ context.Context) error {
	m.mu.Lock()
	m.gen++
	m.items = make(map[string]memoryItem)
	m.mu.Unlock()
	return nil
}

// Len returns the number of live and expired entries held, for tests.
func (m *MemoryNamespace) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.items)
}
