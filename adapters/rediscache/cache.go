// Package rediscache is the StatsCache on Redis, for deployments running
// more than one bot process: invalidation on one instance is visible to all.
// Each user's aggregate is one JSON blob under stats:{user_id} with the TTL
// enforced by Redis itself.
package rediscache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"shooterstats/cache"
	"shooterstats/core"
)

// Config holds Redis connection configuration.
type Config struct {
	Addr         string        `json:"addr" env:"REDIS_ADDR"`
	Password     string        `json:"password" env:"REDIS_PASSWORD"`
	DB           int           `json:"db" env:"REDIS_DB"`
	PoolSize     int           `json:"pool_size" env:"REDIS_POOL_SIZE"`
	DialTimeout  time.Duration `json:"dial_timeout" env:"REDIS_DIAL_TIMEOUT"`
	ReadTimeout  time.Duration `json:"read_timeout" env:"REDIS_READ_TIMEOUT"`
	WriteTimeout time.Duration `json:"write_timeout" env:"REDIS_WRITE_TIMEOUT"`
	TTL          time.Duration `json:"ttl" env:"CACHE_TTL"`
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		Addr:         "localhost:6379",
		PoolSize:     10,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		TTL:          cache.DefaultTTL,
	}
}

// Cache implements cache.StatsCache.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

// New connects to Redis and verifies the connection.
func New(cfg Config) (*Cache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connecting to redis: %w", err)
	}
	c := NewWithClient(client)
	if cfg.TTL > 0 {
		c.ttl = cfg.TTL
	}
	return c, nil
}

// NewWithClient wraps an existing client (useful for testing).
func NewWithClient(client *redis.Client) *Cache {
	return &Cache{client: client, ttl: cache.DefaultTTL}
}

// Close closes the Redis connection.
func (c *Cache) Close() error {
	return c.client.Close()
}

func statsKey(id core.UserID) string {
	return fmt.Sprintf("stats:%d", id)
}

// Get is best-effort: any Redis or decode error reads as a miss, the caller
// falls through to the store.
func (c *Cache) Get(ctx context.Context, id core.UserID) (core.UserStats, bool) {
	data, err := c.client.Get(ctx, statsKey(id)).Bytes()
	if err != nil {
		return core.UserStats{}, false
	}
	var stats core.UserStats
	if err := json.Unmarshal(data, &stats); err != nil {
		return core.UserStats{}, false
	}
	return stats, true
}

func (c *Cache) Put(ctx context.Context, id core.UserID, stats core.UserStats) {
	data, err := json.Marshal(stats)
	if err != nil {
		return
	}
	_ = c.client.Set(ctx, statsKey(id), data, c.ttl).Err()
}

func (c *Cache) Invalidate(ctx context.Context, id core.UserID) {
	_ = c.client.Del(ctx, statsKey(id)).Err()
}
