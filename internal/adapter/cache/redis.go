package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/simaogato/skinledger-backend/internal/domain"
)

// RedisConfig holds configuration for the Redis quote cache.
type RedisConfig struct {
	Addr      string // e.g. "127.0.0.1:6379"
	Password  string
	DB        int
	TTL       time.Duration
	KeyPrefix string
}

// RedisCache is a QuoteCache shared between service instances
type RedisCache struct {
	client    *redis.Client
	ttl       time.Duration
	keyPrefix string
}

// NewRedisCache connects to Redis and verifies the connection with a ping.
func NewRedisCache(ctx context.Context, cfg RedisConfig) (*RedisCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     10,
		MinIdleConns: 2,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", cfg.Addr, err)
	}

	return NewRedisCacheFromClient(client, cfg.TTL, cfg.KeyPrefix), nil
}

// NewRedisCacheFromClient wraps an existing client
func NewRedisCacheFromClient(client *redis.Client, ttl time.Duration, keyPrefix string) *RedisCache {
	if keyPrefix == "" {
		keyPrefix = "skinledger:quote"
	}
	return &RedisCache{client: client, ttl: ttl, keyPrefix: keyPrefix}
}

func (c *RedisCache) key(k string) string {
	return c.keyPrefix + ":" + k
}

// Get returns a cached quote. Redis expires entries itself.
func (c *RedisCache) Get(ctx context.Context, key string) (*domain.PriceQuote, bool, error) {
	data, err := c.client.Get(ctx, c.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get: %w", err)
	}

	var cached cachedQuote
	if err := json.Unmarshal(data, &cached); err != nil {
		return nil, false, fmt.Errorf("corrupt cached quote %q: %w", key, err)
	}
	quote, err := cached.toQuote()
	if err != nil {
		return nil, false, fmt.Errorf("corrupt cached quote %q: %w", key, err)
	}
	return quote, true, nil
}

// Set stores a quote with SET EX
func (c *RedisCache) Set(ctx context.Context, key string, quote *domain.PriceQuote) error {
	data, err := json.Marshal(toCached(quote))
	if err != nil {
		return err
	}
	if err := c.client.Set(ctx, c.key(key), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

// Close releases the connection pool
func (c *RedisCache) Close() error {
	return c.client.Close()
}
