package cache

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/barbertime/backend/internal/domain/accounting"
	"github.com/barbertime/backend/internal/infrastructure/config"
)

// CountsCacheFactory creates counts caches based on configuration
type CountsCacheFactory struct {
	redisConfig           config.RedisConfig
	logger                *zap.Logger
	allowInMemoryFallback bool
}

// CountsCacheFactoryOption is a functional option for configuring the factory
type CountsCacheFactoryOption func(*CountsCacheFactory)

// WithLogger sets the logger for the factory
func WithLogger(logger *zap.Logger) CountsCacheFactoryOption {
	return func(f *CountsCacheFactory) {
		f.logger = logger
	}
}

// WithInMemoryFallback controls whether to fall back to an in-memory cache
// when Redis is unavailable. Default is true (allow fallback).
func WithInMemoryFallback(allow bool) CountsCacheFactoryOption {
	return func(f *CountsCacheFactory) {
		f.allowInMemoryFallback = allow
	}
}

// NewCountsCacheFactory creates a new factory
func NewCountsCacheFactory(cfg config.RedisConfig, opts ...CountsCacheFactoryOption) *CountsCacheFactory {
	f := &CountsCacheFactory{
		redisConfig:           cfg,
		logger:                zap.NewNop(),
		allowInMemoryFallback: true,
	}

	for _, opt := range opts {
		opt(f)
	}

	return f
}

// CreateRedisCache creates a Redis-backed counts cache
func (f *CountsCacheFactory) CreateRedisCache() (accounting.CountsCache, error) {
	cache, err := NewRedisCountsCache(RedisConfig{
		Host:     f.redisConfig.Host,
		Port:     f.redisConfig.Port,
		Password: f.redisConfig.Password,
		DB:       f.redisConfig.DB,
	}, f.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create Redis counts cache: %w", err)
	}
	return cache, nil
}

// CreateInMemoryCache creates an in-memory counts cache
func (f *CountsCacheFactory) CreateInMemoryCache() accounting.CountsCache {
	return NewInMemoryCountsCache()
}

// CreateCache tries Redis first and falls back to in-memory when Redis is
// unavailable and fallback is allowed
func (f *CountsCacheFactory) CreateCache() (accounting.CountsCache, error) {
	cache, err := f.CreateRedisCache()
	if err == nil {
		f.logger.Info("using Redis counts cache",
			zap.String("host", f.redisConfig.Host),
			zap.Int("port", f.redisConfig.Port))
		return cache, nil
	}

	if !f.allowInMemoryFallback {
		return nil, err
	}

	f.logger.Warn("Redis unavailable, falling back to in-memory counts cache",
		zap.Error(err))
	return f.CreateInMemoryCache(), nil
}
