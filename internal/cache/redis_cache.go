package cache

import (
	"context"
	"encoding/json"
	"time"

	redis "github.com/redis/go-redis/v9"
)

type RedisDimensionCache struct {
	client *redis.Client
}

func NewRedisDimensionCache(addr string, password string, db int) *RedisDimensionCache {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	return &RedisDimensionCache{client: client}
}

func (c *RedisDimensionCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *RedisDimensionCache) Close() error {
	return c.client.Close()
}

func (c *RedisDimensionCache) Get(ctx context.Context, key string) ([]string, bool, error) {
	val, err := c.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	var values []string
	if err := json.Unmarshal([]byte(val), &values); err != nil {
		return nil, false, err
	}
	return values, true, nil
}

func (c *RedisDimensionCache) Set(ctx context.Context, key string, values []string, ttl time.Duration) error {
	payload, err := json.Marshal(values)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, key, payload, ttl).Err()
}

func (c *RedisDimensionCache) Invalidate(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	return c.client.Del(ctx, keys...).Err()
}
