// Package store persists inventory levels and caches generated insights.
// Two implementations are provided: an in-memory store with TTL eviction
// for tests and single-node deployments, and a Redis-backed store.
package store

import (
	"context"
	"time"

	"github.com/akisma/CostFX-sub001/agent"
)

// InventoryLevel is the tracked on-hand quantity of a single item at a
// restaurant.
type InventoryLevel struct {
	ItemID       string    `json:"itemId"`
	Name         string    `json:"name"`
	Quantity     float64   `json:"quantity"`
	Unit         string    `json:"unit"`
	ReorderPoint float64   `json:"reorderPoint,omitempty"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// Store is the persistence contract the agents depend on.
type Store interface {
	// SaveInventoryLevels replaces the stored levels for a restaurant
	SaveInventoryLevels(ctx context.Context, restaurantID int64, levels []InventoryLevel) error

	// InventoryLevels returns the stored levels for a restaurant; an
	// unknown restaurant yields an empty slice, not an error
	InventoryLevels(ctx context.Context, restaurantID int64) ([]InventoryLevel, error)

	// CacheInsights stores generated insights with a time-to-live
	CacheInsights(ctx context.Context, restaurantID int64, insights []agent.Insight, ttl time.Duration) error

	// CachedInsights returns cached insights and whether a live entry
	// was found
	CachedInsights(ctx context.Context, restaurantID int64) ([]agent.Insight, bool, error)

	// Close releases any underlying resources
	Close() error
}
