package currency

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/mmynk/spendilog/internal/models"
)

// DefaultRedisKey is where RedisCache stores the snapshot.
const DefaultRedisKey = "spendilog:rates:latest"

// RedisCache stores the last snapshot as JSON under one key.
type RedisCache struct {
	client *redis.Client
	key    string
}

// NewRedisCache wraps an existing client.
func NewRedisCache(client *redis.Client, key string) *RedisCache {
	if key == "" {
		key = DefaultRedisKey
	}
	return &RedisCache{client: client, key: key}
}

func (c *RedisCache) Load(ctx context.Context) (*models.RateSnapshot, error) {
	data, err := c.client.Get(ctx, c.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read rates from redis: %w", err)
	}

	var snap models.RateSnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("failed to decode cached rates: %w", err)
	}
	return &snap, nil
}

func (c *RedisCache) Save(ctx context.Context, snap *models.RateSnapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("failed to encode rates: %w", err)
	}
	if err := c.client.Set(ctx, c.key, data, 0).Err(); err != nil {
		return fmt.Errorf("failed to write rates to redis: %w", err)
	}
	return nil
}

// SnapshotStore is implemented by persistent stores that keep rate history.
type SnapshotStore interface {
	LatestRateSnapshot(ctx context.Context) (*models.RateSnapshot, error)
	SaveRateSnapshot(ctx context.Context, snap *models.RateSnapshot) error
}

// StoreCache adapts a SnapshotStore to Cache.
type StoreCache struct {
	store SnapshotStore
}

// NewStoreCache returns a Cache backed by store.
func NewStoreCache(store SnapshotStore) *StoreCache {
	return &StoreCache{store: store}
}

func (c *StoreCache) Load(ctx context.Context) (*models.RateSnapshot, error) {
	return c.store.LatestRateSnapshot(ctx)
}

func (c *StoreCache) Save(ctx context.Context, snap *models.RateSnapshot) error {
	return c.store.SaveRateSnapshot(ctx, snap)
}
