// Package cache holds the unread notification counter cache. The database
// stays authoritative: entries are short lived and dropped after every write
// that can change a recipient's count.
package cache

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// UnreadCache caches unread notification counts per recipient
type UnreadCache interface {
	// Get returns the cached count and whether it was present
	Get(ctx context.Context, recipientID uint) (int64, bool, error)
	Set(ctx context.Context, recipientID uint, count int64) error
	Invalidate(ctx context.Context, recipientIDs ...uint) error
}

// RedisUnreadCache implements UnreadCache using Redis
type RedisUnreadCache struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisUnreadCache connects to redisURL and verifies the connection
func NewRedisUnreadCache(redisURL string, ttl time.Duration) (*RedisUnreadCache, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	return NewRedisUnreadCacheWithClient(client, ttl), nil
}

// NewRedisUnreadCacheWithClient creates a cache from an existing Redis client
func NewRedisUnreadCacheWithClient(client *redis.Client, ttl time.Duration) *RedisUnreadCache {
	return &RedisUnreadCache{
		client: client,
		prefix: "notifications:unread:",
		ttl:    ttl,
	}
}

func (c *RedisUnreadCache) key(recipientID uint) string {
	return c.prefix + strconv.FormatUint(uint64(recipientID), 10)
}

func (c *RedisUnreadCache) Get(ctx context.Context, recipientID uint) (int64, bool, error) {
	n, err := c.client.Get(ctx, c.key(recipientID)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("get unread count: %w", err)
	}
	return n, true, nil
}

func (c *RedisUnreadCache) Set(ctx context.Context, recipientID uint, count int64) error {
	if err := c.client.Set(ctx, c.key(recipientID), count, c.ttl).Err(); err != nil {
		return fmt.Errorf("set unread count: %w", err)
	}
	return nil
}

// Invalidate drops the cached counts of all given recipients in one round trip
func (c *RedisUnreadCache) Invalidate(ctx context.Context, recipientIDs ...uint) error {
	if len(recipientIDs) == 0 {
		return nil
	}
	keys := make([]string, 0, len(recipientIDs))
	for _, id := range recipientIDs {
		keys = append(keys, c.key(id))
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("invalidate unread counts: %w", err)
	}
	return nil
}

// Close closes the Redis connection
func (c *RedisUnreadCache) Close() error {
	return c.client.Close()
}

// Noop is the cache used when Redis is not configured
type Noop struct{}

func (Noop) Get(context.Context, uint) (int64, bool, error) { return 0, false, nil }
func (Noop) Set(context.Context, uint, int64) error { return nil }
func (Noop) Invalidate(context.Context, ...uint) error { return nil }
