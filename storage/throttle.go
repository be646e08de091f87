package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// LoginLimiter counts failed logins per key inside a window.
type LoginLimiter interface {
	Allowed(ctx context.Context, key string) (bool, error)
	Fail(ctx context.Context, key string) error
	Reset(ctx context.Context, key string) error
}

// RedisLoginLimiter keeps failure counters in Redis so every instance shares them.
// A key is refused only once it has more than max failures in the window.
type RedisLoginLimiter struct {
	client *redis.Client
	max    int64
	window time.Duration
}

const (
	DefaultMaxLoginFailures = 5
	DefaultLoginWindow      = 15 * time.Minute
)

// NewRedisLoginLimiter parses a redis:// URL and pings the server.
func NewRedisLoginLimiter(ctx context.Context, redisURL string, max int64, window time.Duration) (*RedisLoginLimiter, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return NewRedisLoginLimiterFromClient(client, max, window), nil
}

func NewRedisLoginLimiterFromClient(client *redis.Client, max int64, window time.Duration) *RedisLoginLimiter {
	if max <= 0 {
		max = DefaultMaxLoginFailures
	}
	if window <= 0 {
		window = DefaultLoginWindow
	}
	return &RedisLoginLimiter{client: client, max: max, window: window}
}

func loginKey(key string) string {
	return "login_failures:" + strings.ToLower(strings.TrimSpace(key))
}

func (l *RedisLoginLimiter) Allowed(ctx context.Context, key string) (bool, error) {
	n, err := l.client.Get(ctx, loginKey(key)).Int64()
	if errors.Is(err, redis.Nil) {
		return true, nil
	}
	if err != nil {
		return false, err
	}
	return n <= l.max, nil
}

func (l *RedisLoginLimiter) Fail(ctx context.Context, key string) error {
	k := loginKey(key)
	pipe := l.client.TxPipeline()
	pipe.Incr(ctx, k)
	pipe.Expire(ctx, k, l.window)
	_, err := pipe.Exec(ctx)
	return err
}

func (l *RedisLoginLimiter) Reset(ctx context.Context, key string) error {
	return l.client.Del(ctx, loginKey(key)).Err()
}

func (l *RedisLoginLimiter) Close() error {
	return l.client.Close()
}
