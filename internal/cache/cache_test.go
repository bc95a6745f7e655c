package cache

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClock lets tests advance cache time without sleeping.
type fakeClock struct {
	current time.Time
}

func (f *fakeClock) now() time.Time { return f.current }

func (f *fakeClock) advance(d time.Duration) { f.current = f.current.Add(d) }

func newTestCache(capacity int, ttl time.Duration) (*ResourceCache, *fakeClock) {
	clock := &fakeClock{current: time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)}
	c := NewResourceCache(capacity, ttl)
	c.now = clock.now
	return c, clock
}

func TestCacheGetMissOnAbsentKey(t *testing.T) {
	t.Parallel()

	c, _ := newTestCache(10, time.Minute)
	_, ok := c.Get("non_existent")
	assert.False(t, ok)
}

func TestCacheSetAndGet(t *testing.T) {
	t.Parallel()

	c, _ := newTestCache(10, time.Minute)
	c.Set("validation:/photos", true)

	value, ok := c.Get("validation:/photos")
	require.True(t, ok)
	assert.Equal(t, true, value)
	assert.Equal(t, 1, c.Size())
}

func TestCacheTTLExpiresOnAccess(t *testing.T) {
	t.Parallel()

	c, clock := newTestCache(10, 100*time.Millisecond)
	c.Set("k", "v")

	clock.advance(150 * time.Millisecond)

	_, ok := c.Get("k")
	assert.False(t, ok)
	assert.Equal(t, 0, c.Size(), "expired entry is deleted at access time")
}

func TestCacheTTLMeasuredFromInsertionNotAccess(t *testing.T) {
	t.Parallel()

	c, clock := newTestCache(10, 100*time.Millisecond)
	c.Set("k", "v")

	clock.advance(60 * time.Millisecond)
	_, ok := c.Get("k")
	require.True(t, ok)

	// A hit refreshes LRU rank but not the expiry deadline.
	clock.advance(60 * time.Millisecond)
	_, ok = c.Get("k")
	assert.False(t, ok)
}

func TestCacheZeroTTLNeverExpires(t *testing.T) {
	t.Parallel()

	c, clock := newTestCache(10, 0)
	c.Set("k", "v")
	clock.advance(24 * time.Hour)

	_, ok := c.Get("k")
	assert.True(t, ok)
}

func TestCacheLRUEvictionPrefersUntouchedKeys(t *testing.T) {
	t.Parallel()

	c, _ := newTestCache(3, time.Minute)
	c.Set("key1", 1)
	c.Set("key2", 2)
	c.Set("key3", 3)

	// key2 becomes the least recently accessed.
	_, ok := c.Get("key1")
	require.True(t, ok)
	_, ok = c.Get("key3")
	require.True(t, ok)

	c.Set("key4", 4)

	_, ok = c.Get("key2")
	assert.False(t, ok, "least recently accessed key is evicted")
	_, ok = c.Get("key1")
	assert.True(t, ok)
	_, ok = c.Get("key4")
	assert.True(t, ok)
}

func TestCacheEvictsBatchOfOldestFifth(t *testing.T) {
	t.Parallel()

	c, _ := newTestCache(10, time.Minute)
	for i := 0; i < 10; i++ {
		c.Set(fmt.Sprintf("key%d", i), i)
	}
	require.Equal(t, 10, c.Size())

	// Full cache: the next insert sweeps max(1, 10/5) = 2 victims first.
	c.Set("key10", 10)
	assert.Equal(t, 9, c.Size())

	_, ok := c.Get("key0")
	assert.False(t, ok)
	_, ok = c.Get("key1")
	assert.False(t, ok)
	_, ok = c.Get("key2")
	assert.True(t, ok)
}

func TestCacheEvictsAtLeastOne(t *testing.T) {
	t.Parallel()

	c, _ := newTestCache(2, time.Minute)
	c.Set("a", 1)
	c.Set("b", 2)
	c.Set("c", 3)

	assert.Equal(t, 2, c.Size())
	_, ok := c.Get("a")
	assert.False(t, ok)
}

func TestCacheSetExistingKeyUpdatesInPlace(t *testing.T) {
	t.Parallel()

	c, clock := newTestCache(2, 100*time.Millisecond)
	c.Set("k", "old")
	clock.advance(80 * time.Millisecond)

	c.Set("k", "new")
	clock.advance(80 * time.Millisecond)

	value, ok := c.Get("k")
	require.True(t, ok, "re-set restarts the TTL window")
	assert.Equal(t, "new", value)
	assert.Equal(t, 1, c.Size())
}

func TestCacheInvalidateAndClear(t *testing.T) {
	t.Parallel()

	c, _ := newTestCache(10, time.Minute)
	c.Set("a", 1)
	c.Set("b", 2)

	c.Invalidate("a")
	_, ok := c.Get("a")
	assert.False(t, ok)
	assert.Equal(t, 1, c.Size())

	c.Clear()
	assert.Equal(t, 0, c.Size())
	_, ok = c.Get("b")
	assert.False(t, ok)
}

func TestCacheConcurrentAccess(t *testing.T) {
	t.Parallel()

	c := NewResourceCache(100, time.Minute)
	done := make(chan struct{})

	for w := 0; w < 8; w++ {
		go func(w int) {
			defer func() { done <- struct{}{} }()
			for i := 0; i < 200; i++ {
				key := fmt.Sprintf("key%d", i%50)
				c.Set(key, w)
				c.Get(key)
			}
		}(w)
	}
	for w := 0; w < 8; w++ {
		<-done
	}

	assert.LessOrEqual(t, c.Size(), 100)
}
