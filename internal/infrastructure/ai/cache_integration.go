// Package ai provides the embedding providers and the decorators that add
// caching, rate limiting and health reporting around them
package ai

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"sync/atomic"
	"time"

	"github.com/alchemorsel/kitchen/internal/domain/ingredient"
	"github.com/alchemorsel/kitchen/internal/ports/outbound"
	"go.uber.org/zap"
)

// CachedEmbedder wraps an embedder with a read-through cache keyed by model
// and normalized text. Cache failures never fail an embed.
type CachedEmbedder struct {
	next   outbound.Embedder
	cache  outbound.CacheRepository
	model  string
	ttl    time.Duration
	logger *zap.Logger

	hits   atomic.Int64
	misses atomic.Int64
}

var _ outbound.Embedder = (*CachedEmbedder)(nil)

// CacheStats reports cache effectiveness
type CacheStats struct {
	Hits     int64   `json:"hits"`
	Misses   int64   `json:"misses"`
	HitRatio float64 `json:"hit_ratio"`
}

// NewCachedEmbedder creates a new caching wrapper
func NewCachedEmbedder(next outbound.Embedder, cache outbound.CacheRepository, model string, ttl time.Duration, logger *zap.Logger) *CachedEmbedder {
	return &CachedEmbedder{
		next:   next,
		cache:  cache,
		model:  model,
		ttl:    ttl,
		logger: logger.Named("cached-embedder"),
	}
}

// Dimension returns the wrapped embedder's dimension
func (c *CachedEmbedder) Dimension() int {
	return c.next.Dimension()
}

// Embed returns a cached vector when present, else embeds and stores it
func (c *CachedEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	key := c.key(text)

	data, err := c.cache.Get(ctx, key)
	switch {
	case err == nil:
		vec, decodeErr := decodeVector(data)
		if decodeErr == nil && len(vec) == c.next.Dimension() {
			c.hits.Add(1)
			return vec, nil
		}
		c.logger.Warn("Discarding unreadable cached embedding", zap.String("key", key), zap.Error(decodeErr))
		_ = c.cache.Delete(ctx, key)
	case !errors.Is(err, outbound.ErrCacheMiss):
		c.logger.Debug("Embedding cache unavailable", zap.Error(err))
	}
	c.misses.Add(1)

	vec, err := c.next.Embed(ctx, text)
	if err != nil {
		return nil, err
	}

	if err := c.cache.Set(ctx, key, encodeVector(vec), c.ttl); err != nil {
		c.logger.Debug("Failed to cache embedding", zap.String("key", key), zap.Error(err))
	}
	return vec, nil
}

// Stats returns hit and miss counts
func (c *CachedEmbedder) Stats() CacheStats {
	hits, misses := c.hits.Load(), c.misses.Load()
	stats := CacheStats{Hits: hits, Misses: misses}
	if hits+misses > 0 {
		stats.HitRatio = float64(hits) / float64(hits+misses)
	}
	return stats
}

// Invalidate drops the cached vector for text
func (c *CachedEmbedder) Invalidate(ctx context.Context, text string) error {
	return c.cache.Delete(ctx, c.key(text))
}

func (c *CachedEmbedder) key(text string) string {
	return fmt.Sprintf("embedding:%s:%s", c.model, ingredient.NormalizeName(text))
}

// encodeVector packs float32s little-endian, four bytes each
func encodeVector(vec []float32) []byte {
	buf := make([]byte, 4*len(vec))
	for i, v := range vec {
		binary.LittleEndian.PutUint32(buf[4*i:], math.Float32bits(v))
	}
	return buf
}

func decodeVector(data []byte) ([]float32, error) {
	if len(data)%4 != 0 {
		return nil, fmt.Errorf("cached vector has %d bytes, not a multiple of 4", len(data))
	}
	vec := make([]float32, len(data)/4)
	for i := range vec {
		vec[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[4*i:]))
	}
	return vec, nil
}
