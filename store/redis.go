package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/akisma/CostFX-sub001/agent"
)

const (
	inventoryKeyPrefix = "costfx:inventory:"
	insightsKeyPrefix  = "costfx:insights:"
)

// RedisStore implements Store on top of Redis. Inventory levels and
// insights are stored as JSON blobs keyed by restaurant.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore connects to Redis and verifies the connection.
func NewRedisStore(addr, password string, db int) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis connection failed: %w", err)
	}

	return &RedisStore{client: client}, nil
}

// SaveInventoryLevels replaces the stored levels for a restaurant.
func (s *RedisStore) SaveInventoryLevels(ctx context.Context, restaurantID int64, levels []InventoryLevel) error {
	raw, err := json.Marshal(levels)
	if err != nil {
		return fmt.Errorf("failed to marshal inventory levels: %w", err)
	}

	key := fmt.Sprintf("%s%d", inventoryKeyPrefix, restaurantID)
	if err := s.client.Set(ctx, key, raw, 0).Err(); err != nil {
		return fmt.Errorf("failed to save inventory levels: %w", err)
	}

	return nil
}

// InventoryLevels returns the stored levels for a restaurant.
func (s *RedisStore) InventoryLevels(ctx context.Context, restaurantID int64) ([]InventoryLevel, error) {
	key := fmt.Sprintf("%s%d", inventoryKeyPrefix, restaurantID)

	raw, err := s.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return []InventoryLevel{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load inventory levels: %w", err)
	}

	var levels []InventoryLevel
	if err := json.Unmarshal(raw, &levels); err != nil {
		return nil, fmt.Errorf("failed to unmarshal inventory levels: %w", err)
	}

	return levels, nil
}

// CacheInsights stores insights with a time-to-live.
func (s *RedisStore) CacheInsights(ctx context.Context, restaurantID int64, insights []agent.Insight, ttl time.Duration) error {
	raw, err := json.Marshal(insights)
	if err != nil {
		return fmt.Errorf("failed to marshal insights: %w", err)
	}

	key := fmt.Sprintf("%s%d", insightsKeyPrefix, restaurantID)
	if err := s.client.Set(ctx, key, raw, ttl).Err(); err != nil {
		return fmt.Errorf("failed to cache insights: %w", err)
	}

	return nil
}

// CachedInsights returns cached insights for a restaurant.
func (s *RedisStore) CachedInsights(ctx context.Context, restaurantID int64) ([]agent.Insight, bool, error) {
	key := fmt.Sprintf("%s%d", insightsKeyPrefix, restaurantID)

	raw, err := s.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to load cached insights: %w", err)
	}

	var insights []agent.Insight
	if err := json.Unmarshal(raw, &insights); err != nil {
		return nil, false, fmt.Errorf("failed to unmarshal cached insights: %w", err)
	}

	return insights, true, nil
}

// Close closes the underlying Redis client.
func (s *RedisStore) Close() error {
	return s.client.Close()
}
