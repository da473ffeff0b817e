package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	redis "github.com/redis/go-redis/v9"

	"servicedesk/backend/internal/domain"
)

type RedisSnapshotCache struct {
	client redis.UniversalClient
}

func NewRedisSnapshotCache(addr string, password string, db int) *RedisSnapshotCache {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	return &RedisSnapshotCache{client: client}
}

// NewRedisSnapshotCacheFromClient wraps an existing client, e.g. a cluster client.
func NewRedisSnapshotCacheFromClient(client redis.UniversalClient) *RedisSnapshotCache {
	return &RedisSnapshotCache{client: client}
}

func (c *RedisSnapshotCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *RedisSnapshotCache) Close() error {
	return c.client.Close()
}

func (c *RedisSnapshotCache) Get(ctx context.Context, key string) (*domain.Settlement, bool, error) {
	val, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	var settlement domain.Settlement
	if err := json.Unmarshal(val, &settlement); err != nil {
		return nil, false, err
	}
	return &settlement, true, nil
}

func (c *RedisSnapshotCache) Set(ctx context.Context, key string, value *domain.Settlement, ttl time.Duration) error {
	if value == nil {
		return nil
	}
	payload, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, key, payload, ttl).Err()
}
