package cache

import (
	"context"
	"sync"
	"time"

	"blog-analyzer-backend/internal/report"
)

type memoryEntry struct {
	result    report.Result
	expiresAt time.Time
}

// MemoryStore is an in-process Store.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	now     func() time.Time
}

// NewMemoryStore constructs an empty MemoryStore.
func NewMemoryStore(now func() time.Time) *MemoryStore {
	if now == nil {
		now = time.Now
	}
	return &MemoryStore{entries: make(map[string]memoryEntry), now: now}
}

func (m *MemoryStore) Get(ctx context.Context, key string) (report.Result, error) {
	_ = ctx
	m.mu.Lock()
	defer m.mu.Unlock()
	entry, ok := m.entries[key]
	if !ok {
		return report.Result{}, ErrMiss
	}
	if !m.now().Before(entry.expiresAt) {
		delete(m.entries, key)
		return report.Result{}, ErrMiss
	}
	return entry.result.Clone(), nil
}

func (m *MemoryStore) Put(ctx context.Context, key, blogURL string, res report.Result, ttl time.Duration) error {
	_ = ctx
	_ = blogURL
	if ttl <= 0 {
		return nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[key] = memoryEntry{result: res.Clone(), expiresAt: m.now().Add(ttl)}
	return nil
}

// Purge drops expired entries.
func (m *MemoryStore) Purge(ctx context.Context) (int64, error) {
	_ = ctx
	now := m.now()
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for key, entry := range m.entries {
		if !now.Before(entry.expiresAt) {
			delete(m.entries, key)
			n++
		}
	}
	return n, nil
}
