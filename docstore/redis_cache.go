package docstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "fiscalflow:procurator-token:"

// RedisTokenCache shares procurator tokens across processes.
type RedisTokenCache struct {
	rdb *goredis.Client
}

// NewRedisTokenCache connects to Redis and verifies it with a ping.
func NewRedisTokenCache(addr string) (*RedisTokenCache, error) {
	if addr == "" {
		return nil, fmt.Errorf("docstore: empty redis address")
	}

	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		DialTimeout: 5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("docstore: redis ping: %w", err)
	}

	return &RedisTokenCache{rdb: rdb}, nil
}

func (c *RedisTokenCache) Get(ctx context.Context, key string) (string, bool, error) {
	token, err := c.rdb.Get(ctx, redisKeyPrefix+key).Result()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("docstore: redis get: %w", err)
	}
	return token, true, nil
}

func (c *RedisTokenCache) Set(ctx context.Context, key, token string, ttl time.Duration) error {
	if err := c.rdb.Set(ctx, redisKeyPrefix+key, token, ttl).Err(); err != nil {
		return fmt.Errorf("docstore: redis set: %w", err)
	}
	return nil
}

func (c *RedisTokenCache) Expire(ctx context.Context, key string) error {
	if err := c.rdb.Del(ctx, redisKeyPrefix+key).Err(); err != nil {
		return fmt.Errorf("docstore: redis del: %w", err)
	}
	return nil
}

func (c *RedisTokenCache) Close() error {
	return c.rdb.Close()
}
