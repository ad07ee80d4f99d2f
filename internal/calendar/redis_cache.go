package calendar

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/username/workday-scheduler/pkg/dateutil"
)

const redisKeyPrefix = "holidays:"

// RedisConfig holds the connection settings for NewRedisClient
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// NewRedisClient connects to Redis and pings it
func NewRedisClient(ctx context.Context, cfg RedisConfig, logger *zap.Logger) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	logger.Info("Redis connected", zap.String("addr", cfg.Addr))

	return rdb, nil
}

// RedisCache wraps a Provider with a shared Redis cache. Keys live under
// holidays:<namespace>: so differently configured sources sharing one Redis
// do not read each other's records. Cache failures are logged and the inner
// provider is used directly.
type RedisCache struct {
	inner  Provider
	rdb    redis.Cmdable
	ttl    time.Duration
	prefix string
	logger *zap.Logger
}

// NewRedisCache creates a new RedisCache. namespace identifies the inner
// source, e.g. "generated:USA".
func NewRedisCache(inner Provider, rdb redis.Cmdable, ttl time.Duration, namespace string, logger *zap.Logger) *RedisCache {
	return &RedisCache{
		inner:  inner,
		rdb:    rdb,
		ttl:    ttl,
		prefix: redisKeyPrefix + namespace + ":",
		logger: logger,
	}
}

// FetchAll returns the cached record set or fetches and caches it
func (c *RedisCache) FetchAll(ctx context.Context) ([]Holiday, error) {
	return c.cached(ctx, c.allKey(), func() ([]Holiday, error) {
		return c.inner.FetchAll(ctx)
	})
}

// FetchRange returns the cached range or fetches and caches it
func (c *RedisCache) FetchRange(ctx context.Context, from, to time.Time) ([]Holiday, error) {
	return c.cached(ctx, c.rangeKey(from, to), func() ([]Holiday, error) {
		return c.inner.FetchRange(ctx, from, to)
	})
}

// ClearCache clears the inner provider's in-process cache. Redis entries
// expire on their TTL or through Invalidate.
func (c *RedisCache) ClearCache() {
	ClearCache(c.inner)
}

// Invalidate removes every key this cache's namespace holds
func (c *RedisCache) Invalidate(ctx context.Context) error {
	var keys []string

	iter := c.rdb.Scan(ctx, 0, c.prefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("failed to scan cache keys: %w", err)
	}

	if len(keys) > 0 {
		if err := c.rdb.Del(ctx, keys...).Err(); err != nil {
			return fmt.Errorf("failed to delete cache keys: %w", err)
		}
	}

	c.logger.Info("Holiday cache invalidated",
		zap.String("prefix", c.prefix),
		zap.Int("keys", len(keys)))
	return nil
}

func (c *RedisCache) cached(ctx context.Context, key string, fetch func() ([]Holiday, error)) ([]Holiday, error) {
	cachedData, err := c.rdb.Get(ctx, key).Result()
	switch {
	case err == nil:
		var records []Holiday
		if err := json.Unmarshal([]byte(cachedData), &records); err == nil {
			c.logger.Debug("Cache hit", zap.String("key", key))
			return records, nil
		}
		c.logger.Warn("Discarding unreadable cache entry", zap.String("key", key))
	case errors.Is(err, redis.Nil):
		c.logger.Debug("Cache miss", zap.String("key", key))
	default:
		c.logger.Warn("Redis unavailable, bypassing cache",
			zap.String("key", key),
			zap.Error(err))
	}

	records, err := fetch()
	if err != nil {
		return nil, err
	}

	dataJSON, err := json.Marshal(records)
	if err != nil {
		return nil, fmt.Errorf("failed to encode holidays: %w", err)
	}
	if err := c.rdb.Set(ctx, key, dataJSON, c.ttl).Err(); err != nil {
		c.logger.Warn("Failed to write cache",
			zap.String("key", key),
			zap.Error(err))
	}

	return records, nil
}

func (c *RedisCache) allKey() string {
	return c.prefix + "all"
}

func (c *RedisCache) rangeKey(from, to time.Time) string {
	return c.prefix + "range:" + dateutil.Format(from) + ":" + dateutil.Format(to)
}
