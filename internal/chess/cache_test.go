package chess

import (
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intPtr(v int) *int { return &v }

func TestCache_MissForUnknownKey(t *testing.T) {
	cache := NewCache(clockwork.NewFakeClock())

	_, ok := cache.Get("magnus", "lichess")

	assert.False(t, ok)
}

func TestCache_FreshWithinTTL(t *testing.T) {
	clock := clockwork.NewFakeClock()
	cache := NewCache(clock)

	cache.Put("magnus", "lichess", &Rating{Blitz: intPtr(3200)})

	clock.Advance(TTL - time.Second)
	entry, ok := cache.Get("magnus", "lichess")
	require.True(t, ok)
	assert.True(t, cache.Fresh(entry))
	assert.Equal(t, 3200, *entry.Data.Blitz)
}

func TestCache_StaleAtTTLBoundary(t *testing.T) {
	clock := clockwork.NewFakeClock()
	cache := NewCache(clock)

	cache.Put("magnus", "lichess", &Rating{Blitz: intPtr(3200)})

	clock.Advance(TTL)
	entry, ok := cache.Get("magnus", "lichess")
	require.True(t, ok, "stale entries stay retrievable")
	assert.False(t, cache.Fresh(entry))
}

func TestCache_KeysAreProviderScoped(t *testing.T) {
	cache := NewCache(clockwork.NewFakeClock())

	cache.Put("magnus", "lichess", &Rating{Blitz: intPtr(3200)})

	_, ok := cache.Get("magnus", "chesscom")
	assert.False(t, ok)

	_, ok = cache.Get("hikaru", "lichess")
	assert.False(t, ok)
}

func TestCache_PutSupersedesStaleEntry(t *testing.T) {
	clock := clockwork.NewFakeClock()
	cache := NewCache(clock)

	cache.Put("magnus", "lichess", &Rating{Blitz: intPtr(3200)})
	clock.Advance(2 * TTL)

	cache.Put("magnus", "lichess", &Rating{Blitz: intPtr(3250)})

	entry, ok := cache.Get("magnus", "lichess")
	require.True(t, ok)
	assert.True(t, cache.Fresh(entry))
	assert.Equal(t, 3250, *entry.Data.Blitz)
}
