package cache

import (
	"container/list"
	"context"
	"sync"
	"time"
)

// noExpiry stands in for "no TTL" so every entry eventually ages out.
const noExpiry = 7 * 24 * time.Hour

// MemoryOption configures MemoryCache.
type MemoryOption func(*MemoryCache)

// WithMemoryMaxSize caps the number of entries; the least recently used
// entry is evicted first.
func WithMemoryMaxSize(size int) MemoryOption {
	return func(mc *MemoryCache) {
		if size > 0 {
			mc.maxSize = size
		}
	}
}

// WithMemoryCleanup sets how often expired entries are purged.
func WithMemoryCleanup(interval time.Duration) MemoryOption {
	return func(mc *MemoryCache) {
		if interval > 0 {
			mc.cleanupEvery = interval
		}
	}
}

// WithMemoryClock overrides the clock used for expiry.
func WithMemoryClock(now func() time.Time) MemoryOption {
	return func(mc *MemoryCache) { mc.now = now }
}

type memEntry struct {
	key      string
	value    []byte
	expireAt time.Time
}

// MemoryCache implements Service in process memory with LRU eviction.
type MemoryCache struct {
	mu    sync.Mutex
	items map[string]*list.Element
	lru   *list.List // front is most recently used

	maxSize      int
	cleanupEvery time.Duration
	now          func() time.Time

	done      chan struct{}
	closeOnce sync.Once
}

// NewMemoryCache creates an in-memory cache holding up to 1000 entries.
func NewMemoryCache(opts ...MemoryOption) *MemoryCache {
	mc := &MemoryCache{
		items:        make(map[string]*list.Element),
		lru:          list.New(),
		maxSize:      1000,
		cleanupEvery: 5 * time.Minute,
		now:          time.Now,
		done:         make(chan struct{}),
	}
	for _, opt := range opts {
		opt(mc)
	}

	go mc.janitor()
	return mc
}

func (mc *MemoryCache) Set(_ context.Context, key string, value interface{}, expiration time.Duration) error {
	b, err := toBytes(value)
	if err != nil {
		return err
	}
	if expiration <= 0 {
		expiration = noExpiry
	}

	mc.mu.Lock()
	defer mc.mu.Unlock()

	e := &memEntry{
		key:      key,
		value:    append([]byte(nil), b...),
		expireAt: mc.now().Add(expiration),
	}
	if el, ok := mc.items[key]; ok {
		el.Value = e
		mc.lru.MoveToFront(el)
		return nil
	}

	if mc.lru.Len() >= mc.maxSize {
		mc.removeElement(mc.lru.Back())
	}
	mc.items[key] = mc.lru.PushFront(e)
	return nil
}

func (mc *MemoryCache) Get(_ context.Context, key string, dest interface{}) error {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	el := mc.live(key)
	if el == nil {
		return ErrCacheMiss
	}
	mc.lru.MoveToFront(el)
	return assign(el.Value.(*memEntry).value, dest)
}

func (mc *MemoryCache) Delete(_ context.Context, keys ...string) error {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	for _, key := range keys {
		if el, ok := mc.items[key]; ok {
			mc.removeElement(el)
		}
	}
	return nil
}

func (mc *MemoryCache) Exists(_ context.Context, keys ...string) (bool, error) {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	for _, key := range keys {
		if mc.live(key) != nil {
			return true, nil
		}
	}
	return false, nil
}

func (mc *MemoryCache) Expire(_ context.Context, key string, expiration time.Duration) (bool, error) {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	el := mc.live(key)
	if el == nil {
		return false, nil
	}
	el.Value.(*memEntry).expireAt = mc.now().Add(expiration)
	return true, nil
}

// Len returns the number of stored entries, expired ones included.
func (mc *MemoryCache) Len() int {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	return mc.lru.Len()
}

// live returns the element for key, dropping it if it has expired.
// Callers hold mu.
func (mc *MemoryCache) live(key string) *list.Element {
	el, ok := mc.items[key]
	if !ok {
		return nil
	}
	if mc.now().After(el.Value.(*memEntry).expireAt) {
		mc.removeElement(el)
		return nil
	}
	return el
}

func (mc *MemoryCache) removeElement(el *list.Element) {
	if el == nil {
		return
	}
	mc.lru.Remove(el)
	delete(mc.items, el.Value.(*memEntry).key)
}

func (mc *MemoryCache) janitor() {
	t := time.NewTicker(mc.cleanupEvery)
	defer t.Stop()

	for {
		select {
		case <-mc.done:
			return
		case <-t.C:
			mc.purgeExpired()
		}
	}
}

func (mc *MemoryCache) purgeExpired() {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	now := mc.now()
	for el := mc.lru.Back(); el != nil; {
		prev := el.Prev()
		if now.After(el.Value.(*memEntry).expireAt) {
			mc.removeElement(el)
		}
		el = prev
	}
}

// Close stops the janitor goroutine.
func (mc *MemoryCache) Close() error {
	mc.closeOnce.Do(func() { close(mc.done) })
	return nil
}
