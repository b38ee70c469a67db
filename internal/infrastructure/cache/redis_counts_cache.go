package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/barbertime/backend/internal/domain/accounting"
)

// RedisCountsCache implements CountsCache using Redis. Suitable for
// multi-instance deployments where the dashboard may hit any node.
type RedisCountsCache struct {
	client    *redis.Client
	keyPrefix string
	logger    *zap.Logger
}

// RedisConfig holds Redis connection configuration
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// NewRedisCountsCache creates a new Redis-backed counts cache
func NewRedisCountsCache(cfg RedisConfig, logger *zap.Logger) (*RedisCountsCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return NewRedisCountsCacheWithClient(client, "", logger), nil
}

// NewRedisCountsCacheWithClient creates a cache with an existing Redis client.
// Useful for testing or when sharing a client across components.
func NewRedisCountsCacheWithClient(client *redis.Client, keyPrefix string, logger *zap.Logger) *RedisCountsCache {
	if keyPrefix == "" {
		keyPrefix = "accounting:unsynced:"
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedisCountsCache{
		client:    client,
		keyPrefix: keyPrefix,
		logger:    logger,
	}
}

var _ accounting.CountsCache = (*RedisCountsCache)(nil)

func (c *RedisCountsCache) key(tenantID uuid.UUID, provider accounting.ProviderCode) string {
	return c.keyPrefix + tenantID.String() + ":" + provider.String()
}

// Get returns the cached counts and true, or nil and false on a miss.
// Redis errors are logged and reported as misses so the dashboard can
// always fall back to recomputing.
func (c *RedisCountsCache) Get(ctx context.Context, tenantID uuid.UUID, provider accounting.ProviderCode) (*accounting.UnsyncedCounts, bool) {
	data, err := c.client.Get(ctx, c.key(tenantID, provider)).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.logger.Warn("counts cache read failed",
				zap.String("tenant_id", tenantID.String()),
				zap.String("provider", provider.String()),
				zap.Error(err))
		}
		return nil, false
	}

	var counts accounting.UnsyncedCounts
	if err := json.Unmarshal(data, &counts); err != nil {
		c.logger.Warn("counts cache entry is corrupt, dropping it",
			zap.String("tenant_id", tenantID.String()),
			zap.Error(err))
		c.client.Del(ctx, c.key(tenantID, provider))
		return nil, false
	}
	return &counts, true
}

// Set stores the counts with a TTL. Failures are logged, not returned;
// a missing cache entry only costs a recompute.
func (c *RedisCountsCache) Set(ctx context.Context, tenantID uuid.UUID, provider accounting.ProviderCode, counts *accounting.UnsyncedCounts, ttl time.Duration) {
	data, err := json.Marshal(counts)
	if err != nil {
		c.logger.Warn("counts cache marshal failed", zap.Error(err))
		return
	}
	if err := c.client.Set(ctx, c.key(tenantID, provider), data, ttl).Err(); err != nil {
		c.logger.Warn("counts cache write failed",
			zap.String("tenant_id", tenantID.String()),
			zap.String("provider", provider.String()),
			zap.Error(err))
	}
}

// Invalidate drops the cached counts after a sync run changes them
func (c *RedisCountsCache) Invalidate(ctx context.Context, tenantID uuid.UUID, provider accounting.ProviderCode) {
	if err := c.client.Del(ctx, c.key(tenantID, provider)).Err(); err != nil {
		c.logger.Warn("counts cache invalidation failed",
			zap.String("tenant_id", tenantID.String()),
			zap.String("provider", provider.String()),
			zap.Error(err))
	}
}
