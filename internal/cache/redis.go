package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"ChartSentinel/internal/model"
)

// RedisOptions configures NewRedisCache.
type RedisOptions struct {
	Addr     string
	Password string
	DB       int
	Prefix   string
	TTL      time.Duration
	LockTTL  time.Duration
}

// RedisCache implements FrameCache on Redis.
type RedisCache struct {
	client  *redis.Client
	prefix  string
	ttl     time.Duration
	lockTTL time.Duration
}

// NewRedisCache connects and pings the server.
func NewRedisCache(opts RedisOptions) (*RedisCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         opts.Addr,
		Password:     opts.Password,
		DB:           opts.DB,
		PoolSize:     10,
		MinIdleConns: 2,
		PoolTimeout:  30 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return newRedisCache(client, opts), nil
}

func newRedisCache(client *redis.Client, opts RedisOptions) *RedisCache {
	return &RedisCache{client: client, prefix: opts.Prefix, ttl: opts.TTL, lockTTL: opts.LockTTL}
}

func (c *RedisCache) PutLatest(ctx context.Context, symbol string, interval model.Interval, row model.IndicatorRow) error {
	data, err := json.Marshal(row)
	if err != nil {
		return fmt.Errorf("encode row: %w", err)
	}
	return c.client.Set(ctx, c.wrapKey(latestKey(symbol, interval)), data, c.ttl).Err()
}

func (c *RedisCache) Latest(ctx context.Context, symbol string, interval model.Interval) (*model.IndicatorRow, error) {
	data, err := c.client.Get(ctx, c.wrapKey(latestKey(symbol, interval))).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrCacheMiss
		}
		return nil, err
	}
	var row model.IndicatorRow
	if err := json.Unmarshal(data, &row); err != nil {
		return nil, fmt.Errorf("decode row: %w", err)
	}
	return &row, nil
}

func (c *RedisCache) Lock(ctx context.Context, symbol string, interval model.Interval) (bool, error) {
	return c.client.SetNX(ctx, c.wrapKey(lockKey(symbol, interval)), "locked", c.lockTTL).Result()
}

func (c *RedisCache) Unlock(ctx context.Context, symbol string, interval model.Interval) error {
	return c.client.Del(ctx, c.wrapKey(lockKey(symbol, interval))).Err()
}

func (c *RedisCache) Close() error {
	return c.client.Close()
}

func (c *RedisCache) wrapKey(key string) string {
	return c.prefix + key
}
