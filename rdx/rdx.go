// Package rdx wraps the Redis connection used for short-lived read caches.
package rdx

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrMiss is returned by GetJSON when the key is absent.
var ErrMiss = errors.New("cache miss")

type Cache interface {
	GetJSON(ctx context.Context, key string, dst interface{}) error
	SetJSON(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
	Incr(ctx context.Context, key string) error
}

type RedisCache struct {
	Conn *redis.Client
}

func Connect(ctx context.Context, addr string) (*RedisCache, error) {
	conn := redis.NewClient(&redis.Options{
		Addr:        addr,
		DialTimeout: 5 * time.Second,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := conn.Ping(pingCtx).Err(); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return &RedisCache{Conn: conn}, nil
}

func (c *RedisCache) GetJSON(ctx context.Context, key string, dst interface{}) error {
	val, err := c.Conn.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return ErrMiss
	}
	if err != nil {
		return err
	}
	return json.Unmarshal(val, dst)
}

func (c *RedisCache) SetJSON(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	b, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return c.Conn.Set(ctx, key, b, ttl).Err()
}

func (c *RedisCache) Del(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	return c.Conn.Del(ctx, keys...).Err()
}

func (c *RedisCache) Incr(ctx context.Context, key string) error {
	return c.Conn.Incr(ctx, key).Err()
}

func (c *RedisCache) Close() error {
	return c.Conn.Close()
}

// Nop is used when REDIS_ADDR is not configured. Every read misses.
type Nop struct{}

func (Nop) GetJSON(context.Context, string, interface{}) error { return ErrMiss }

func (Nop) SetJSON(context.Context, string, interface{}, time.Duration) error { return nil }

func (Nop) Del(context.Context, ...string) error { return nil }

func (Nop) Incr(context.Context, string) error { return nil }
