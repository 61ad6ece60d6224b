package store

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/akisma/CostFX-sub001/agent"
)

func testLevels() []InventoryLevel {
	return []InventoryLevel{
		{ItemID: "flour", Name: "Flour", Quantity: 20, Unit: "kg", ReorderPoint: 5, UpdatedAt: time.Now().UTC()},
		{ItemID: "oil", Name: "Olive Oil", Quantity: 4, Unit: "l", ReorderPoint: 2, UpdatedAt: time.Now().UTC()},
	}
}

func testInsights() []agent.Insight {
	return []agent.Insight{
		{Type: "stock", Priority: agent.PriorityHigh, Message: "reorder flour", RestaurantID: 1, Source: "InventoryAgent"},
	}
}

// runStoreContract exercises the Store behavior shared by every
// implementation.
func runStoreContract(t *testing.T, s Store) {
	ctx := context.Background()

	t.Run("inventory round trip", func(t *testing.T) {
		levels, err := s.InventoryLevels(ctx, 1)
		require.NoError(t, err)
		assert.Empty(t, levels, "unknown restaurant reads empty")

		require.NoError(t, s.SaveInventoryLevels(ctx, 1, testLevels()))

		levels, err = s.InventoryLevels(ctx, 1)
		require.NoError(t, err)
		require.Len(t, levels, 2)
		assert.Equal(t, "flour", levels[0].ItemID)
		assert.Equal(t, 20.0, levels[0].Quantity)

		// Saving replaces, not appends.
		require.NoError(t, s.SaveInventoryLevels(ctx, 1, testLevels()[:1]))
		levels, err = s.InventoryLevels(ctx, 1)
		require.NoError(t, err)
		assert.Len(t, levels, 1)

		// Other restaurants are unaffected.
		levels, err = s.InventoryLevels(ctx, 2)
		require.NoError(t, err)
		assert.Empty(t, levels)
	})

	t.Run("insight cache round trip", func(t *testing.T) {
		_, found, err := s.CachedInsights(ctx, 1)
		require.NoError(t, err)
		assert.False(t, found)

		require.NoError(t, s.CacheInsights(ctx, 1, testInsights(), time.Minute))

		cached, found, err := s.CachedInsights(ctx, 1)
		require.NoError(t, err)
		require.True(t, found)
		require.Len(t, cached, 1)
		assert.Equal(t, "reorder flour", cached[0].Message)
		assert.Equal(t, agent.PriorityHigh, cached[0].Priority)
	})
}

func TestMemoryStore(t *testing.T) {
	runStoreContract(t, NewMemoryStore())
}

func TestMemoryStoreInsightExpiry(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, s.CacheInsights(ctx, 1, testInsights(), time.Millisecond))
	time.Sleep(5 * time.Millisecond)

	_, found, err := s.CachedInsights(ctx, 1)
	require.NoError(t, err)
	assert.False(t, found, "expired entries are evicted on read")
}

func TestMemoryStoreCopiesOnRead(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, s.SaveInventoryLevels(ctx, 1, testLevels()))

	levels, err := s.InventoryLevels(ctx, 1)
	require.NoError(t, err)
	levels[0].Quantity = -1

	again, err := s.InventoryLevels(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 20.0, again[0].Quantity, "callers cannot mutate stored state")
}

func newTestRedisStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	s, err := NewRedisStore(mr.Addr(), "", 0)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	return s, mr
}

func TestRedisStore(t *testing.T) {
	s, _ := newTestRedisStore(t)
	runStoreContract(t, s)
}

func TestRedisStoreInsightExpiry(t *testing.T) {
	s, mr := newTestRedisStore(t)
	ctx := context.Background()

	require.NoError(t, s.CacheInsights(ctx, 1, testInsights(), time.Minute))

	mr.FastForward(2 * time.Minute)

	_, found, err := s.CachedInsights(ctx, 1)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestRedisStoreConnectionFailure(t *testing.T) {
	_, err := NewRedisStore("127.0.0.1:1", "", 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "redis connection failed")
}
