package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/bilgisen/schoolpress/internal/models"
	"github.com/bilgisen/schoolpress/internal/utils"
	"github.com/redis/go-redis/v9"
)

// SessionStore persists session records keyed by the id the client holds.
type SessionStore interface {
	Save(ctx context.Context, s *models.Session) error
	// Load returns nil, nil for an unknown or expired id.
	Load(ctx context.Context, id string) (*models.Session, error)
	Delete(ctx context.Context, id string) error
}

// MemorySessionStore keeps records in process, expiring them after ttl.
// Expired records are dropped when looked up and on every Save.
type MemorySessionStore struct {
	mu      sync.Mutex
	records map[string]memoryRecord
	ttl     time.Duration
	now     func() time.Time
}

type memoryRecord struct {
	data    []byte
	expires time.Time
}

func NewMemorySessionStore(ttl time.Duration, now func() time.Time) *MemorySessionStore {
	if now == nil {
		now = time.Now
	}
	return &MemorySessionStore{
		records: make(map[string]memoryRecord),
		ttl:     ttl,
		now:     now,
	}
}

func (m *MemorySessionStore) Save(_ context.Context, s *models.Session) error {
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	m.mu.Lock()
	now := m.now()
	for id, rec := range m.records {
		if !now.Before(rec.expires) {
			delete(m.records, id)
		}
	}
	m.records[s.ID] = memoryRecord{data: data, expires: now.Add(m.ttl)}
	m.mu.Unlock()
	return nil
}

func (m *MemorySessionStore) Load(_ context.Context, id string) (*models.Session, error) {
	m.mu.Lock()
	rec, ok := m.records[id]
	if ok && !m.now().Before(rec.expires) {
		delete(m.records, id)
		ok = false
	}
	m.mu.Unlock()
	if !ok {
		return nil, nil
	}
	return decodeSession(id, rec.data)
}

func (m *MemorySessionStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	delete(m.records, id)
	m.mu.Unlock()
	return nil
}

// RedisSessionStore keeps records in Redis. Keys are hashed so the raw
// session id never appears in the keyspace.
type RedisSessionStore struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

func NewRedisSessionStore(client *redis.Client, prefix string, ttl time.Duration) *RedisSessionStore {
	return &RedisSessionStore{client: client, prefix: prefix + "session:", ttl: ttl}
}

func (r *RedisSessionStore) key(id string) string {
	return r.prefix + utils.Hash(id)
}

func (r *RedisSessionStore) Save(ctx context.Context, s *models.Session) error {
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	if err := r.client.Set(ctx, r.key(s.ID), data, r.ttl).Err(); err != nil {
		return fmt.Errorf("redis save session: %w", err)
	}
	return nil
}

func (r *RedisSessionStore) Load(ctx context.Context, id string) (*models.Session, error) {
	data, err := r.client.Get(ctx, r.key(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis load session: %w", err)
	}
	return decodeSession(id, data)
}

func (r *RedisSessionStore) Delete(ctx context.Context, id string) error {
	if err := r.client.Del(ctx, r.key(id)).Err(); err != nil {
		return fmt.Errorf("redis delete session: %w", err)
	}
	return nil
}

func decodeSession(id string, data []byte) (*models.Session, error) {
	var s models.Session
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	s.ID = id
	return &s, nil
}
