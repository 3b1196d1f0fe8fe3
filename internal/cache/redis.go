package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore keeps entries in Redis; freshness is delegated to key expiry, so a
// stale entry is simply absent on the next lookup.
type RedisStore struct {
	client *redis.Client
	prefix string
	opts   Options
}

// Connect parses a redis:// URL and pings the server.
func Connect(ctx context.Context, url string) (*redis.Client, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	client := redis.NewClient(opt)

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return client, nil
}

// NewRedisStore namespaces all keys under prefix + "cache:".
func NewRedisStore(client *redis.Client, prefix string, opts Options) *RedisStore {
	return &RedisStore{
		client: client,
		prefix: prefix + "cache:",
		opts:   opts,
	}
}

func (r *RedisStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if !r.opts.Enabled {
		return nil, false, nil
	}
	data, err := r.client.Get(ctx, r.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get %s: %w", key, err)
	}
	return data, true, nil
}

func (r *RedisStore) Set(ctx context.Context, key string, data []byte) error {
	if !r.opts.Enabled || r.opts.TTL <= 0 {
		return nil
	}
	if err := r.client.Set(ctx, r.prefix+key, data, r.opts.TTL).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

func (r *RedisStore) Clear(ctx context.Context) error {
	keys, err := r.keys(ctx)
	if err != nil {
		return err
	}
	if len(keys) > 0 {
		if err := r.client.Del(ctx, keys...).Err(); err != nil {
			return fmt.Errorf("error deleting keys: %w", err)
		}
	}
	return nil
}

func (r *RedisStore) Len(ctx context.Context) (int, error) {
	keys, err := r.keys(ctx)
	return len(keys), err
}

func (r *RedisStore) keys(ctx context.Context) ([]string, error) {
	iter := r.client.Scan(ctx, 0, r.prefix+"*", 0).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("error scanning keys: %w", err)
	}
	return keys, nil
}

func (r *RedisStore) Options() Options { return r.opts }

// Close is a no-op: the client is shared with the session store and closed by its owner.
func (r *RedisStore) Close() error { return nil }
