// Package redis provides the Redis-backed cache used to share embeddings
// between kitchen instances
package redis

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/alchemorsel/kitchen/internal/infrastructure/config"
	"github.com/alchemorsel/kitchen/internal/ports/outbound"
	"github.com/alchemorsel/kitchen/pkg/healthcheck"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// ErrCircuitOpen is returned while the breaker rejects calls
var ErrCircuitOpen = healthcheck.ErrCircuitOpen

var _ outbound.CacheRepository = (*CacheRepository)(nil)

// NewClient connects to Redis and verifies the connection
func NewClient(ctx context.Context, cfg config.RedisConfig, logger *zap.Logger) (redis.UniversalClient, error) {
	client := redis.NewUniversalClient(&redis.UniversalOptions{
		Addrs:        []string{fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)},
		Password:     cfg.Password,
		DB:           cfg.Database,
		MaxRetries:   cfg.MaxRetries,
		PoolSize:     cfg.PoolSize,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		PoolTimeout:  10 * time.Second,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	logger.Info("Redis client initialized",
		zap.String("host", cfg.Host),
		zap.Int("port", cfg.Port),
		zap.Int("db", cfg.Database),
	)
	return client, nil
}

// CacheRepository implements outbound.CacheRepository on Redis. Keys are
// namespaced with a prefix and calls are guarded by a circuit breaker so
// an unreachable Redis costs one fast failure instead of a timeout.
type CacheRepository struct {
	client  redis.UniversalClient
	prefix  string
	breaker *healthcheck.CircuitBreaker
	logger  *zap.Logger
	hits    atomic.Int64
	misses  atomic.Int64
}

// NewCacheRepository wraps client
func NewCacheRepository(client redis.UniversalClient, prefix string, logger *zap.Logger) *CacheRepository {
	return &CacheRepository{
		client:  client,
		prefix:  prefix,
		breaker: healthcheck.NewCircuitBreaker("redis-cache", healthcheck.CircuitBreakerConfig{
			FailureThreshold: 5,
			SuccessThreshold: 1,
			Timeout:          30 * time.Second,
		}),
		logger:  logger.Named("redis-cache"),
	}
}

// Get returns the cached value or outbound.ErrCacheMiss
func (r *CacheRepository) Get(ctx context.Context, key string) ([]byte, error) {
	if !r.breaker.Allow() {
		r.misses.Add(1)
		return nil, ErrCircuitOpen
	}

	data, err := r.client.Get(ctx, r.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		r.breaker.RecordSuccess()
		r.misses.Add(1)
		return nil, outbound.ErrCacheMiss
	}
	if err != nil {
		r.breaker.RecordFailure()
		r.misses.Add(1)
		r.logger.Debug("Cache get failed", zap.String("key", key), zap.Error(err))
		return nil, err
	}

	r.breaker.RecordSuccess()
	r.hits.Add(1)
	return data, nil
}

// Set stores value with ttl; zero ttl means no expiry
func (r *CacheRepository) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return r.guard(func() error {
		return r.client.Set(ctx, r.prefix+key, value, ttl).Err()
	}, "set", key)
}

// Delete removes key
func (r *CacheRepository) Delete(ctx context.Context, key string) error {
	return r.guard(func() error {
		return r.client.Del(ctx, r.prefix+key).Err()
	}, "delete", key)
}

// Exists reports whether key is present
func (r *CacheRepository) Exists(ctx context.Context, key string) (bool, error) {
	var n int64
	err := r.guard(func() error {
		var err error
		n, err = r.client.Exists(ctx, r.prefix+key).Result()
		return err
	}, "exists", key)
	return n > 0, err
}

// BreakerState reports whether calls currently reach Redis
func (r *CacheRepository) BreakerState() healthcheck.CircuitBreakerState {
	return r.breaker.State()
}

// HitRatio returns hits / (hits + misses)
func (r *CacheRepository) HitRatio() float64 {
	hits, misses := r.hits.Load(), r.misses.Load()
	if hits+misses == 0 {
		return 0
	}
	return float64(hits) / float64(hits+misses)
}

// Ping checks connectivity for health checks
func (r *CacheRepository) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// Close closes the underlying client
func (r *CacheRepository) Close() error {
	return r.client.Close()
}

func (r *CacheRepository) guard(op func() error, name, key string) error {
	if !r.breaker.Allow() {
		return ErrCircuitOpen
	}
	if err := op(); err != nil {
		r.breaker.RecordFailure()
		r.logger.Error("Cache "+name+" failed", zap.String("key", key), zap.Error(err))
		return err
	}
	r.breaker.RecordSuccess()
	return nil
}
