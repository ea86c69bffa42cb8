package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "buzz"

// RedisBackend stores state as plain string keys with a TTL
type RedisBackend struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisBackend connects to the server at url and verifies it responds
func NewRedisBackend(ctx context.Context, url string, ttl time.Duration) (*RedisBackend, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &RedisBackend{client: client, ttl: ttl}, nil
}

func redisKey(namespace, key string) string {
	return fmt.Sprintf("%s:%s:%s", redisKeyPrefix, namespace, key)
}

func (b *RedisBackend) Get(ctx context.Context, namespace, key string) ([]byte, error) {
	value, err := b.client.Get(ctx, redisKey(namespace, key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s state: %w", namespace, err)
	}
	return value, nil
}

func (b *RedisBackend) Put(ctx context.Context, namespace, key string, value []byte) error {
	if err := b.client.Set(ctx, redisKey(namespace, key), value, b.ttl).Err(); err != nil {
		return fmt.Errorf("failed to write %s state: %w", namespace, err)
	}
	return nil
}

func (b *RedisBackend) Delete(ctx context.Context, namespace, key string) error {
	if err := b.client.Del(ctx, redisKey(namespace, key)).Err(); err != nil {
		return fmt.Errorf("failed to delete %s state: %w", namespace, err)
	}
	return nil
}

func (b *RedisBackend) Close() error {
	return b.client.Close()
}

// Ping checks the redis server responds
func (b *RedisBackend) Ping(ctx context.Context) error {
	return b.client.Ping(ctx).Err()
}
