// Package redis implements domain.Cache on a Redis sorted set per vessel.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/couchcryptid/vessel-position-service/internal/domain"
	"github.com/jonboulle/clockwork"
	redis "github.com/redis/go-redis/v9"
)

const keyVesselCache = "vessel:cache:%s"

// Options configures the Redis connection.
type Options struct {
	Addr     string
	Password string
	DB       int
}

// Cache stores each entry as a sorted-set member scored by cachedAt in
// Unix milliseconds, so the newest fresh entry is one ZREVRANGEBYSCORE away.
type Cache struct {
	client *redis.Client
	window time.Duration
	clock  clockwork.Clock
}

// NewCache connects a cache to Redis.
func NewCache(opts Options, window time.Duration, clock clockwork.Clock) (*Cache, error) {
	if opts.Addr == "" {
		return nil, errors.New("redis addr is required")
	}
	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})
	return NewCacheWithClient(client, window, clock), nil
}

// NewCacheWithClient wraps an existing client.
func NewCacheWithClient(client *redis.Client, window time.Duration, clock clockwork.Clock) *Cache {
	return &Cache{client: client, window: window, clock: clock}
}

// Get implements domain.Cache.
func (c *Cache) Get(ctx context.Context, key domain.VesselKey) (domain.CacheEntry, bool, error) {
	now := c.clock.Now()
	members, err := c.client.ZRevRangeByScore(ctx, redisKey(key), &redis.ZRangeBy{
		Min:   "(" + score(now.Add(-c.window)),
		Max:   "+inf",
		Count: 1,
	}).Result()
	if err != nil {
		return domain.CacheEntry{}, false, fmt.Errorf("redis cache get %s: %w", key, err)
	}
	if len(members) == 0 {
		return domain.CacheEntry{}, false, nil
	}

	var entry domain.CacheEntry
	if err := json.Unmarshal([]byte(members[0]), &entry); err != nil {
		return domain.CacheEntry{}, false, fmt.Errorf("decode cache entry %s: %w", key, err)
	}
	if !entry.Fresh(now, c.window) {
		return domain.CacheEntry{}, false, nil
	}
	return entry, true, nil
}

// Put implements domain.Cache. Stale members are trimmed and the key TTL is
// refreshed in the same transaction.
func (c *Cache) Put(ctx context.Context, key domain.VesselKey, record domain.EnrichedRecord) error {
	now := c.clock.Now().UTC()
	entry := domain.CacheEntry{Record: record.Persistable(), CachedAt: now}
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("encode cache entry: %w", err)
	}

	k := redisKey(key)
	_, err = c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.ZAdd(ctx, k, redis.Z{Score: float64(now.UnixMilli()), Member: data})
		pipe.ZRemRangeByScore(ctx, k, "-inf", score(now.Add(-c.window)))
		pipe.Expire(ctx, k, c.window)
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis cache put %s: %w", key, err)
	}
	return nil
}

// Ping reports whether Redis is reachable.
func (c *Cache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Close releases the connection pool.
func (c *Cache) Close() error {
	return c.client.Close()
}

func redisKey(key domain.VesselKey) string {
	return fmt.Sprintf(keyVesselCache, key)
}

// score matches the ZADD score; milliseconds stay exact in a float64.
func score(t time.Time) string {
	return strconv.FormatInt(t.UnixMilli(), 10)
}
