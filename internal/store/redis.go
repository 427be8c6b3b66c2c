package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore backs the KV contract with a Redis server, for deployments
// where rate-limit records and the token balance are shared across processes
// serving the same user population.
//
// Note that the KV contract's read-modify-write cycles remain non-atomic:
// two processes can interleave Get and Set and over-admit a rate-limited
// operation by one. This mirrors the documented weakness of a client-local
// limiter and is accepted.
type RedisStore struct {
	client  *redis.Client
	timeout time.Duration
}

// RedisOptions configures a RedisStore connection.
type RedisOptions struct {
	Addr     string
	Password string
	DB       int
	// Timeout bounds each store operation. Zero means 2 seconds.
	Timeout time.Duration
}

// NewRedisStore connects to Redis and verifies the connection with a ping.
func NewRedisStore(ctx context.Context, opts RedisOptions) (*RedisStore, error) {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 2 * time.Second
	}

	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("connecting to redis at %s: %w", opts.Addr, err)
	}

	return &RedisStore{
		client:  client,
		timeout: timeout,
	}, nil
}

// Get returns the value for key and whether the key exists.
func (s *RedisStore) Get(ctx context.Context, key string) (string, bool, error) {
	opCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	v, err := s.client.Get(opCtx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("redis get %s: %w", key, err)
	}
	return v, true, nil
}

// Set stores the value under key with no expiry; pruning is the caller's
// responsibility, matching the other backends.
func (s *RedisStore) Set(ctx context.Context, key, value string) error {
	opCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	if err := s.client.Set(opCtx, key, value, 0).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

// Delete removes key. Absent keys are ignored.
func (s *RedisStore) Delete(ctx context.Context, key string) error {
	opCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	if err := s.client.Del(opCtx, key).Err(); err != nil {
		return fmt.Errorf("redis del %s: %w", key, err)
	}
	return nil
}

// Close releases the underlying Redis connection pool.
func (s *RedisStore) Close() error {
	return s.client.Close()
}
