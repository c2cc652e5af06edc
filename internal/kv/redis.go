package kv

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisBinding stores values as plain redis strings under prefix+key.
type RedisBinding struct {
	client redis.Cmdable
	prefix string
}

// NewRedisBinding creates a binding over client.
func NewRedisBinding(client redis.Cmdable, prefix string) *RedisBinding {
	return &RedisBinding{client: client, prefix: prefix}
}

func (b *RedisBinding) Get(ctx context.Context, key string) ([]byte, error) {
	val, err := b.client.Get(ctx, b.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis get: %w: %w", ErrUnavailable, err)
	}
	return val, nil
}

func (b *RedisBinding) Put(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl < 0 {
		ttl = 0
	}
	if err := b.client.Set(ctx, b.prefix+key, value, ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w: %w", ErrUnavailable, err)
	}
	return nil
}
