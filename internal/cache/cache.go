// Package cache holds the time-bounded key/value stores behind the content layer.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// Keys used by the content layer.
const (
	KeyAllArticles = "all_articles"
	KeyCategories  = "categories"
)

// KeyDocumentContent is the per-document cache key.
func KeyDocumentContent(ref string) string { return "doc_content_" + ref }

// Options control freshness. An entry is valid iff Enabled and it is younger than TTL.
type Options struct {
	TTL     time.Duration
	Enabled bool
}

// Store is a key -> (payload, fetchedAt) map with lazy expiry.
type Store interface {
	// Get returns the payload for key, or ok=false if absent or stale. Stale
	// entries are purged by the lookup.
	Get(ctx context.Context, key string) (data []byte, ok bool, err error)
	// Set stores data stamped with the current time. No-op when disabled.
	Set(ctx context.Context, key string, data []byte) error
	// Clear drops every entry unconditionally.
	Clear(ctx context.Context) error
	// Len reports the number of entries currently held, stale ones included.
	Len(ctx context.Context) (int, error)
	Options() Options
	Close() error
}

// GetJSON decodes a cached payload into dest.
func GetJSON(ctx context.Context, s Store, key string, dest any) (bool, error) {
	data, ok, err := s.Get(ctx, key)
	if err != nil || !ok {
		return false, err
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return false, fmt.Errorf("decode cache entry %s: %w", key, err)
	}
	return true, nil
}

// SetJSON encodes value and stores it under key.
func SetJSON(ctx context.Context, s Store, key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode cache entry %s: %w", key, err)
	}
	return s.Set(ctx, key, data)
}
