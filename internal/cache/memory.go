package cache

import (
	"context"
	"sync"
	"time"
)

type entry struct {
	data      []byte
	fetchedAt time.Time
}

// MemoryStore is a process-local Store guarded by a mutex.
type MemoryStore struct {
	mu    sync.Mutex
	items map[string]entry
	opts  Options
	now   func() time.Time
}

// NewMemoryStore creates an empty store. now may be nil to use time.Now.
func NewMemoryStore(opts Options, now func() time.Time) *MemoryStore {
	if now == nil {
		now = time.Now
	}
	return &MemoryStore{
		items: make(map[string]entry),
		opts:  opts,
		now:   now,
	}
}

func (m *MemoryStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.items[key]
	if ok && m.opts.Enabled && m.now().Sub(e.fetchedAt) < m.opts.TTL {
		return e.data, true, nil
	}
	delete(m.items, key)
	return nil, false, nil
}

func (m *MemoryStore) Set(_ context.Context, key string, data []byte) error {
	if !m.opts.Enabled {
		return nil
	}
	m.mu.Lock()
	m.items[key] = entry{data: data, fetchedAt: m.now()}
	m.mu.Unlock()
	return nil
}

func (m *MemoryStore) Clear(context.Context) error {
	m.mu.Lock()
	m.items = make(map[string]entry)
	m.mu.Unlock()
	return nil
}

func (m *MemoryStore) Len(context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.items), nil
}

func (m *MemoryStore) Options() Options { return m.opts }

func (m *MemoryStore) Close() error { return nil }
