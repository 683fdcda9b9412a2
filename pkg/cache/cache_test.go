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

func (f *fakeClock) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *fakeClock) Advance(d time.Duration) {
	f.mu.Lock()
	f.now = f.now.Add(d)
	f.mu.Unlock()
}

func newTestMemory(t *testing.T, opts ...MemoryOption) (*MemoryCache, *fakeClock) {
	t.Helper()
	clock := &fakeClock{now: time.Date(2025, 11, 13, 9, 0, 0, 0, time.UTC)}
	mc := NewMemoryCache(append([]MemoryOption{WithMemoryClock(clock.Now)}, opts...)...)
	t.Cleanup(func() { _ = mc.Close() })
	return mc, clock
}

func TestMemoryCache_SetGet(t *testing.T) {
	ctx := context.Background()
	mc, _ := newTestMemory(t)

	require.NoError(t, mc.Set(ctx, "a", "alpha", time.Minute))
	require.NoError(t, mc.Set(ctx, "b", []byte("beta"), time.Minute))

	var s string
	require.NoError(t, mc.Get(ctx, "a", &s))
	assert.Equal(t, "alpha", s)

	var b []byte
	require.NoError(t, mc.Get(ctx, "b", &b))
	assert.Equal(t, []byte("beta"), b)

	assert.ErrorIs(t, mc.Get(ctx, "missing", &s), ErrCacheMiss)
}

func TestMemoryCache_StoredBytesAreCopied(t *testing.T) {
	ctx := context.Background()
	mc, _ := newTestMemory(t)

	src := []byte("payload")
	require.NoError(t, mc.Set(ctx, "k", src, time.Minute))
	src[0] = 'X'

	var got string
	require.NoError(t, mc.Get(ctx, "k", &got))
	assert.Equal(t, "payload", got)
}

func TestMemoryCache_Expiry(t *testing.T) {
	ctx := context.Background()
	mc, clock := newTestMemory(t)

	require.NoError(t, mc.Set(ctx, "k", "v", time.Minute))
	clock.Advance(59 * time.Second)

	ok, err := mc.Exists(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)

	clock.Advance(2 * time.Second)
	var got string
	assert.ErrorIs(t, mc.Get(ctx, "k", &got), ErrCacheMiss)
	assert.Equal(t, 0, mc.Len())
}

func TestMemoryCache_ExpireExtends(t *testing.T) {
	ctx := context.Background()
	mc, clock := newTestMemory(t)

	require.NoError(t, mc.Set(ctx, "k", "v", time.Minute))
	clock.Advance(50 * time.Second)

	ok, err := mc.Expire(ctx, "k", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)

	clock.Advance(50 * time.Second)
	var got string
	require.NoError(t, mc.Get(ctx, "k", &got))

	ok, err = mc.Expire(ctx, "missing", time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemoryCache_EvictsLeastRecentlyUsed(t *testing.T) {
	ctx := context.Background()
	mc, clock := newTestMemory(t, WithMemoryMaxSize(2))

	require.NoError(t, mc.Set(ctx, "first", "1", time.Hour))
	clock.Advance(time.Second)
	require.NoError(t, mc.Set(ctx, "second", "2", time.Hour))
	clock.Advance(time.Second)

	var got string
	require.NoError(t, mc.Get(ctx, "first", &got))
	clock.Advance(time.Second)

	require.NoError(t, mc.Set(ctx, "third", "3", time.Hour))
	assert.Equal(t, 2, mc.Len())
	assert.ErrorIs(t, mc.Get(ctx, "second", &got), ErrCacheMiss)
	assert.NoError(t, mc.Get(ctx, "first", &got))
	assert.NoError(t, mc.Get(ctx, "third", &got))
}

func TestMemoryCache_Delete(t *testing.T) {
	ctx := context.Background()
	mc, _ := newTestMemory(t)

	require.NoError(t, mc.Set(ctx, "a", "1", time.Minute))
	require.NoError(t, mc.Set(ctx, "b", "2", time.Minute))
	require.NoError(t, mc.Delete(ctx, "a", "b"))

	ok, err := mc.Exists(ctx, "a", "b")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemoryCache_UnsupportedTypes(t *testing.T) {
	ctx := context.Background()
	mc, _ := newTestMemory(t)

	assert.Error(t, mc.Set(ctx, "k", 42, time.Minute))

	require.NoError(t, mc.Set(ctx, "k", "v", time.Minute))
	var n int
	assert.Error(t, mc.Get(ctx, "k", &n))
}

func TestMemoryCache_CloseIsIdempotent(t *testing.T) {
	mc := NewMemoryCache()
	assert.NoError(t, mc.Close())
	assert.NoError(t, mc.Close())
}

func TestGenerateKey(t *testing.T) {
	assert.Equal(t, "ganttgen:session:1", GenerateKey("ganttgen", "session:1"))
	assert.Equal(t, "id", GenerateKey("", "id"))
}

func TestMemoryCache_OverwriteKeepsSize(t *testing.T) {
	ctx := context.Background()
	mc, _ := newTestMemory(t, WithMemoryMaxSize(2))

	require.NoError(t, mc.Set(ctx, "a", "1", time.Hour))
	require.NoError(t, mc.Set(ctx, "b", "2", time.Hour))
	require.NoError(t, mc.Set(ctx, "a", "3", time.Hour))
	assert.Equal(t, 2, mc.Len())

	var got string
	require.NoError(t, mc.Get(ctx, "a", &got))
	assert.Equal(t, "3", got)
	require.NoError(t, mc.Get(ctx, "b", &got))
}

func TestMemoryCache_PurgeExpired(t *testing.T) {
	ctx := context.Background()
	mc, clock := newTestMemory(t)

	require.NoError(t, mc.Set(ctx, "short", "1", time.Second))
	require.NoError(t, mc.Set(ctx, "long", "2", time.Hour))
	clock.Advance(time.Minute)

	mc.purgeExpired()
	assert.Equal(t, 1, mc.Len())
}
