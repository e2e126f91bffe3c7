package translation_test

import (
	"fmt"
	"sync"
	"testing"

	"github.com/nerdneilsfield/kiosk-translate/pkg/translation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func key(text string) translation.CacheKey {
	return translation.NewCacheKey("fr", "", "", text)
}

func TestNewCacheKeyDefaultsMime(t *testing.T) {
	k := translation.NewCacheKey("zh", "en", "", "Hello")
	assert.Equal(t, translation.DefaultMimeType, k.MimeType)

	other := translation.NewCacheKey("zh", "en", "text/html", "Hello")
	assert.NotEqual(t, k, other)
	assert.NotEqual(t, k.Digest(), other.Digest())
	assert.Equal(t, k.Digest(), translation.NewCacheKey("zh", "en", "text/plain", "Hello").Digest())
}

func TestFIFOCacheGetPut(t *testing.T) {
	cache := translation.NewFIFOCache(10)

	_, ok := cache.Get(key("Hello"))
	assert.False(t, ok)

	cache.Put(key("Hello"), "Bonjour")
	value, ok := cache.Get(key("Hello"))
	require.True(t, ok)
	assert.Equal(t, "Bonjour", value)

	stats := cache.Stats()
	assert.Equal(t, int64(1), stats.Hits)
	assert.Equal(t, int64(1), stats.Misses)
	assert.Equal(t, 1, stats.Size)
	assert.Equal(t, 10, stats.Capacity)
}

func TestFIFOCacheEvictsOldestInserted(t *testing.T) {
	const capacity = 5
	cache := translation.NewFIFOCache(capacity)

	for i := 0; i < capacity; i++ {
		assert.Empty(t, cache.Put(key(fmt.Sprintf("t%d", i)), "v"))
	}

	// 读取不影响淘汰顺序
	_, ok := cache.Get(key("t0"))
	require.True(t, ok)

	evicted := cache.Put(key("t5"), "v")
	require.Len(t, evicted, 1)
	assert.Equal(t, key("t0"), evicted[0])
	assert.Equal(t, capacity, cache.Len())

	_, ok = cache.Get(key("t0"))
	assert.False(t, ok)
	_, ok = cache.Get(key("t1"))
	assert.True(t, ok)
	assert.Equal(t, int64(1), cache.Stats().Evictions)
}

func TestFIFOCacheOverwriteKeepsPosition(t *testing.T) {
	cache := translation.NewFIFOCache(2)
	cache.Put(key("a"), "1")
	cache.Put(key("b"), "2")
	assert.Empty(t, cache.Put(key("a"), "updated"))

	value, _ := cache.Get(key("a"))
	assert.Equal(t, "updated", value)

	evicted := cache.Put(key("c"), "3")
	assert.Equal(t, []translation.CacheKey{key("a")}, evicted)

	entries := cache.Entries()
	require.Len(t, entries, 2)
	assert.Equal(t, "b", entries[0].Key.Text)
	assert.Equal(t, "c", entries[1].Key.Text)
}

func TestFIFOCacheDefaultCapacity(t *testing.T) {
	cache := translation.NewFIFOCache(0)
	assert.Equal(t, translation.DefaultCacheCapacity, cache.Capacity())
}

func TestFIFOCacheConcurrentAccess(t *testing.T) {
	cache := translation.NewFIFOCache(100)

	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				k := key(fmt.Sprintf("g%d-%d", g, i))
				cache.Put(k, "v")
				cache.Get(k)
			}
		}(g)
	}
	wg.Wait()

	assert.Equal(t, 100, cache.Len())
	assert.Len(t, cache.Entries(), 100)
	assert.Equal(t, int64(8*200-100), cache.Stats().Evictions)
}

func TestErrorCode(t *testing.T) {
	assert.Equal(t, translation.ErrCodeValidation, translation.ErrorCode(translation.ErrInvalidRequest))
	assert.Equal(t, translation.ErrCodeDisabled, translation.ErrorCode(translation.ErrFeatureDisabled))
	assert.Equal(t, translation.ErrCodeUpstream, translation.ErrorCode(fmt.Errorf("wrap: %w", translation.ErrUpstreamFailure)))

	te := translation.NewTranslationError(translation.ErrCodeNetwork, "dial failed", translation.ErrUpstreamFailure)
	assert.Equal(t, translation.ErrCodeNetwork, translation.ErrorCode(te))
	assert.ErrorIs(t, te, translation.ErrUpstreamFailure)
	assert.Equal(t, "", translation.ErrorCode(nil))
}
