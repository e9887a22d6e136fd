package lock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"storefront-be/internal/logger"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	defaultLockTTL   = 30 * time.Second
	defaultRetryWait = 25 * time.Millisecond
	keyNamespace     = "storefront:lock:"
)

// redisStore defines the operations used by RedisLocker. DelIfValue must
// compare and delete atomically.
type redisStore interface {
	SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error)
	DelIfValue(ctx context.Context, key, value string) (bool, error)
}

// releaseScript deletes KEYS[1] only while it still holds ARGV[1].
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisLocker implements Locker with SETNX + TTL so that several API
// instances share one critical section per key.
type RedisLocker struct {
	client    redisStore
	ttl       time.Duration
	retryWait time.Duration
}

func NewRedisLocker(client redisStore, ttl time.Duration) (*RedisLocker, error) {
	if client == nil {
		return nil, errors.New("redis client required for lock")
	}
	if ttl <= 0 {
		ttl = defaultLockTTL
	}
	return &RedisLocker{client: client, ttl: ttl, retryWait: defaultRetryWait}, nil
}

// Acquire polls SETNX until the key is owned or ctx is done.
func (l *RedisLocker) Acquire(ctx context.Context, key string) (func(), error) {
	owner := uuid.NewString()
	fullKey := keyNamespace + key

	ticker := time.NewTicker(l.retryWait)
	defer ticker.Stop()

	for {
		ok, err := l.client.SetNX(ctx, fullKey, owner, l.ttl)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ErrLockTimeout
			}
			return nil, fmt.Errorf("setnx: %w", err)
		}
		if ok {
			return func() { l.release(fullKey, owner) }, nil
		}

		select {
		case <-ctx.Done():
			return nil, ErrLockTimeout
		case <-ticker.C:
		}
	}
}

// release frees the key only if the owner value still matches. A key that
// expired and was taken by another owner is left alone.
func (l *RedisLocker) release(key, owner string) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	deleted, err := l.client.DelIfValue(ctx, key, owner)
	if err != nil {
		logger.L().Warn("release lock", zap.String("key", key), zap.Error(err))
		return
	}
	if !deleted {
		logger.L().Debug("lock already expired", zap.String("key", key))
	}
}

type cmdable interface {
	redis.Scripter
	Ping(context.Context) *redis.StatusCmd
	SetNX(context.Context, string, any, time.Duration) *redis.BoolCmd
}

// RedisClient narrows go-redis to the error-returning calls used here.
type RedisClient struct {
	store cmdable
	raw   *redis.Client
}

// NewRedisClient parses url, connects and verifies connectivity.
func NewRedisClient(ctx context.Context, url string) (*RedisClient, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parsing redis url: %w", err)
	}
	raw := redis.NewClient(opts)
	if err := raw.Ping(ctx).Err(); err != nil {
		_ = raw.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return &RedisClient{store: raw, raw: raw}, nil
}

func (c *RedisClient) SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error) {
	return c.store.SetNX(ctx, key, value, ttl).Result()
}

func (c *RedisClient) DelIfValue(ctx context.Context, key, value string) (bool, error) {
	n, err := releaseScript.Run(ctx, c.store, []string{key}, value).Int64()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (c *RedisClient) Ping(ctx context.Context) error {
	return c.store.Ping(ctx).Err()
}

func (c *RedisClient) Close() error {
	if c.raw == nil {
		return nil
	}
	return c.raw.Close()
}
