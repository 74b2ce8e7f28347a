package cache

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/healthcost-ai/backend/models"
)

// Cache stores prediction responses in Redis keyed by a fingerprint of
// the input. A nil *Cache is valid and disables caching, which is how
// the server runs when Redis is unreachable.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
	logger zerolog.Logger
}

// New connects to Redis and verifies the connection with a ping
func New(addr string, ttl time.Duration) (*Cache, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return &Cache{
		client: client,
		ttl:    ttl,
		logger: log.With().Str("component", "cache").Logger(),
	}, nil
}

// Key fingerprints a prediction input. Identical inputs always produce
// the same key; the struct's fixed field order keeps the JSON stable.
func Key(in models.PredictionInput) string {
	payload, _ := json.Marshal(in)
	sum := md5.Sum(payload)
	return "prediction:" + hex.EncodeToString(sum[:])
}

// Get returns the cached response for a key, if present
func (c *Cache) Get(ctx context.Context, key string) (*models.PredictionResponse, bool) {
	if c == nil {
		return nil, false
	}

	payload, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.logger.Warn().Err(err).Str("key", key).Msg("Cache read failed")
		}
		return nil, false
	}

	var resp models.PredictionResponse
	if err := json.Unmarshal(payload, &resp); err != nil {
		c.logger.Warn().Err(err).Str("key", key).Msg("Dropping unreadable cache entry")
		return nil, false
	}

	return &resp, true
}

// Set stores a response under a key for the configured TTL
func (c *Cache) Set(ctx context.Context, key string, resp *models.PredictionResponse) {
	if c == nil {
		return
	}

	payload, err := json.Marshal(resp)
	if err != nil {
		c.logger.Warn().Err(err).Msg("Failed to serialize prediction for cache")
		return
	}

	if err := c.client.Set(ctx, key, payload, c.ttl).Err(); err != nil {
		c.logger.Warn().Err(err).Str("key", key).Msg("Cache write failed")
	}
}

// Close releases the underlying Redis connection
func (c *Cache) Close() error {
	if c == nil {
		return nil
	}
	return c.client.Close()
}
