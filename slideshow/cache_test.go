package slideshow

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCacheCountEviction(t *testing.T) {
	cache := NewCache(2, 0)

	cache.Set(1, []byte("one"))
	cache.Set(2, []byte("two"))
	cache.Set(3, []byte("three"))

	assert.Equal(t, 2, cache.Len())

	// Position 1 is least recently used and goes first.
	_, ok := cache.Get(1)
	assert.False(t, ok)

	data, ok := cache.Get(2)
	require.True(t, ok)
	assert.Equal(t, []byte("two"), data)

	_, ok = cache.Get(3)
	assert.True(t, ok)
}

func TestCacheGetRefreshesRecency(t *testing.T) {
	cache := NewCache(2, 0)

	cache.Set(1, []byte("one"))
	cache.Set(2, []byte("two"))

	// Touch 1 so that 2 becomes the eviction candidate.
	_, ok := cache.Get(1)
	require.True(t, ok)

	cache.Set(3, []byte("three"))

	_, ok = cache.Get(1)
	assert.True(t, ok)
	_, ok = cache.Get(2)
	assert.False(t, ok)
}

func TestCacheByteCostEviction(t *testing.T) {
	cache := NewCache(0, 10)

	cache.Set(1, []byte("123456"))
	cache.Set(2, []byte("123456"))

	assert.Equal(t, 1, cache.Len())
	_, ok := cache.Get(1)
	assert.False(t, ok)
	_, ok = cache.Get(2)
	assert.True(t, ok)
}

func TestCacheByteCostKeepsLastEntry(t *testing.T) {
	cache := NewCache(0, 4)

	// A single oversized entry stays resident; evicting it would leave the
	// cache useless.
	cache.Set(1, []byte("way too big"))
	assert.Equal(t, 1, cache.Len())
}

func TestCacheMissIsNotAnError(t *testing.T) {
	cache := NewCache(2, 0)

	data, ok := cache.Get(42)
	assert.False(t, ok)
	assert.Nil(t, data)
}

func TestCacheUpdateExistingPosition(t *testing.T) {
	cache := NewCache(2, 0)

	cache.Set(1, []byte("old"))
	cache.Set(1, []byte("new"))

	assert.Equal(t, 1, cache.Len())
	data, _ := cache.Get(1)
	assert.Equal(t, []byte("new"), data)
}

func TestCacheClear(t *testing.T) {
	cache := NewCache(0, 0)

	for i := range 5 {
		cache.Set(i, []byte("x"))
	}
	require.Equal(t, 5, cache.Len())

	cache.Clear()
	assert.Equal(t, 0, cache.Len())
	_, ok := cache.Get(0)
	assert.False(t, ok)
}
