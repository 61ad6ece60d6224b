package store

import (
	"context"
	"sync"
	"time"

	"github.com/akisma/CostFX-sub001/agent"
)

// MemoryStore implements Store with in-process maps and TTL expiry for
// cached insights. Expired entries are evicted lazily on read.
type MemoryStore struct {
	mu        sync.RWMutex
	inventory map[int64][]InventoryLevel
	insights  map[int64]*insightEntry
}

type insightEntry struct {
	insights  []agent.Insight
	expiresAt time.Time
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		inventory: make(map[int64][]InventoryLevel),
		insights:  make(map[int64]*insightEntry),
	}
}

// SaveInventoryLevels replaces the stored levels for a restaurant.
func (s *MemoryStore) SaveInventoryLevels(ctx context.Context, restaurantID int64, levels []InventoryLevel) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.inventory[restaurantID] = append([]InventoryLevel(nil), levels...)
	return nil
}

// InventoryLevels returns a copy of the stored levels for a restaurant.
func (s *MemoryStore) InventoryLevels(ctx context.Context, restaurantID int64) ([]InventoryLevel, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return append([]InventoryLevel(nil), s.inventory[restaurantID]...), nil
}

// CacheInsights stores insights with a time-to-live. A non-positive TTL
// caches the entry without expiry.
func (s *MemoryStore) CacheInsights(ctx context.Context, restaurantID int64, insights []agent.Insight, ttl time.Duration) error {
	entry := &insightEntry{
		insights: append([]agent.Insight(nil), insights...),
	}
	if ttl > 0 {
		entry.expiresAt = time.Now().Add(ttl)
	}

	s.mu.Lock()
	s.insights[restaurantID] = entry
	s.mu.Unlock()

	return nil
}

// CachedInsights returns live cached insights for a restaurant.
func (s *MemoryStore) CachedInsights(ctx context.Context, restaurantID int64) ([]agent.Insight, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.insights[restaurantID]
	if !ok {
		return nil, false, nil
	}

	if !entry.expiresAt.IsZero() && time.Now().After(entry.expiresAt) {
		delete(s.insights, restaurantID)
		return nil, false, nil
	}

	return append([]agent.Insight(nil), entry.insights...), true, nil
}

// Close is a no-op for the in-memory store.
func (s *MemoryStore) Close() error {
	return nil
}
