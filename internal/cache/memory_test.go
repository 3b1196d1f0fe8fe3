package cache

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func newTestStore(t *testing.T, opts Options) (*MemoryStore, *fakeClock) {
	t.Helper()
	clock := &fakeClock{now: time.Date(2025, 10, 1, 8, 0, 0, 0, time.UTC)}
	return NewMemoryStore(opts, clock.Now), clock
}

func TestMemoryStoreHitWithinTTL(t *testing.T) {
	ctx := context.Background()
	store, clock := newTestStore(t, Options{TTL: time.Hour, Enabled: true})

	require.NoError(t, store.Set(ctx, "k", []byte("v")))
	clock.Advance(59 * time.Minute)

	data, ok, err := store.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "v", string(data))
}

func TestMemoryStoreLazyExpiry(t *testing.T) {
	ctx := context.Background()
	store, clock := newTestStore(t, Options{TTL: time.Hour, Enabled: true})

	require.NoError(t, store.Set(ctx, "k", []byte("v")))
	clock.Advance(time.Hour)

	n, _ := store.Len(ctx)
	assert.Equal(t, 1, n, "stale entries stay until looked up")

	_, ok, err := store.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok, "entry at exactly TTL age is stale")

	n, _ = store.Len(ctx)
	assert.Equal(t, 0, n, "lookup purges the stale entry")
}

func TestMemoryStoreDisabled(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore(t, Options{TTL: time.Hour, Enabled: false})

	require.NoError(t, store.Set(ctx, "k", []byte("v")))
	_, ok, err := store.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)

	n, _ := store.Len(ctx)
	assert.Zero(t, n)
}

func TestMemoryStoreClear(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore(t, Options{TTL: time.Hour, Enabled: true})

	require.NoError(t, store.Set(ctx, KeyAllArticles, []byte("[]")))
	require.NoError(t, store.Set(ctx, KeyDocumentContent("abc"), []byte(`"text"`)))
	require.NoError(t, store.Clear(ctx))

	n, _ := store.Len(ctx)
	assert.Zero(t, n)
	_, ok, _ := store.Get(ctx, KeyAllArticles)
	assert.False(t, ok)
}

func TestJSONHelpers(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore(t, Options{TTL: time.Hour, Enabled: true})

	require.NoError(t, SetJSON(ctx, store, KeyCategories, []string{"News", "Sports"}))

	var got []string
	ok, err := GetJSON(ctx, store, KeyCategories, &got)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []string{"News", "Sports"}, got)

	require.NoError(t, store.Set(ctx, "broken", []byte("{")))
	_, err = GetJSON(ctx, store, "broken", &got)
	assert.Error(t, err)
}
