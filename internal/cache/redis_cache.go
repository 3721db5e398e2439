package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/cypherlabdev/match-predictor/internal/models"
)

// RedisCache caches league payloads in Redis. Freshness follows the same
// calendar-day rule as the file cache; the TTL only bounds storage.
type RedisCache struct {
	client   *redis.Client
	ttl      time.Duration
	location *time.Location
	now      func() time.Time
	logger   zerolog.Logger
}

// RedisCacheConfig holds Redis cache configuration
type RedisCacheConfig struct {
	Addr     string // e.g., "localhost:6379"
	Password string
	DB       int
	TTL      time.Duration // e.g., 48 * time.Hour
	Location *time.Location
	Now      func() time.Time
}

// redisEntry is the stored value
type redisEntry struct {
	FetchedAt time.Time      `json:"fetched_at"`
	Entries   models.Payload `json:"entries"`
}

// NewRedisCache creates a new Redis cache
func NewRedisCache(config RedisCacheConfig, logger zerolog.Logger) *RedisCache {
	client := redis.NewClient(&redis.Options{
		Addr:     config.Addr,
		Password: config.Password,
		DB:       config.DB,
	})

	loc := config.Location
	if loc == nil {
		loc = time.Local
	}
	now := config.Now
	if now == nil {
		now = time.Now
	}

	return &RedisCache{
		client:   client,
		ttl:      config.TTL,
		location: loc,
		now:      now,
		logger:   logger.With().Str("component", "redis_cache").Logger(),
	}
}

// Key returns the Redis key for a league: odds:cache:{sport}:{league}
func (c *RedisCache) Key(league string) (string, error) {
	sport, err := models.SportOf(league)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("odds:cache:%s:%s", sport, league), nil
}

// Get returns the cached payload for a league if it was stored today
func (c *RedisCache) Get(ctx context.Context, league string) (models.Payload, error) {
	key, err := c.Key(league)
	if err != nil {
		return nil, err
	}

	entry, err := c.load(ctx, key)
	if err != nil {
		return nil, err
	}

	if !sameDay(entry.FetchedAt, c.now(), c.location) {
		return nil, models.ErrCacheExpired
	}
	if entry.Entries == nil {
		return nil, models.ErrCacheMiss
	}

	c.logger.Debug().
		Str("key", key).
		Int("entries", len(entry.Entries)).
		Msg("cache hit")

	return entry.Entries, nil
}

// Put merges payload into the stored entry for a league
func (c *RedisCache) Put(ctx context.Context, league string, payload models.Payload) error {
	key, err := c.Key(league)
	if err != nil {
		return err
	}

	var existing models.Payload
	entry, err := c.load(ctx, key)
	switch {
	case err == nil:
		existing = entry.Entries
	case !errors.Is(err, models.ErrCacheMiss):
		c.logger.Warn().Err(err).Str("key", key).Msg("ignoring unreadable cache entry")
	}

	merged := Merge(existing, payload, c.logger)

	data, err := json.Marshal(redisEntry{FetchedAt: c.now(), Entries: merged})
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to set in Redis: %w", err)
	}

	c.logger.Debug().
		Str("key", key).
		Int("entries", len(merged)).
		Dur("ttl", c.ttl).
		Msg("cached league payload")

	return nil
}

func (c *RedisCache) load(ctx context.Context, key string) (*redisEntry, error) {
	data, err := c.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, models.ErrCacheMiss
	} else if err != nil {
		return nil, fmt.Errorf("failed to get from Redis: %w", err)
	}

	var entry redisEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		return nil, fmt.Errorf("failed to unmarshal cache entry: %w", err)
	}
	return &entry, nil
}

// Ping checks Redis connection
func (c *RedisCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Close closes the Redis connection
func (c *RedisCache) Close() error {
	return c.client.Close()
}
