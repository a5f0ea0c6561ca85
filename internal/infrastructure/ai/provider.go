package ai

import (
	"fmt"

	"github.com/alchemorsel/kitchen/internal/infrastructure/ai/ollama"
	"github.com/alchemorsel/kitchen/internal/infrastructure/ai/openai"
	"github.com/alchemorsel/kitchen/internal/infrastructure/config"
	"github.com/alchemorsel/kitchen/internal/ports/outbound"
	"go.uber.org/zap"
)

// Provider is the assembled embedding stack: the configured client, wrapped
// by the rate limiter and, when a cache is given, the read-through cache.
type Provider struct {
	Embedder outbound.Embedder
	Cached   *CachedEmbedder
	health   *HealthChecker
}

// NewProvider builds the embedder selected by cfg.Embedding.Provider. cache
// may be nil to disable caching.
func NewProvider(cfg *config.Config, cache outbound.CacheRepository, logger *zap.Logger) (*Provider, error) {
	ec := cfg.Embedding

	var (
		base   outbound.Embedder
		pinger Pinger
	)
	switch ec.Provider {
	case "mock":
		base = NewHashingEmbedder(ec.Dimension)
	case "ollama":
		client := ollama.NewClient(ec, logger)
		base, pinger = client, client
	case "openai":
		client := openai.NewClient(ec, logger)
		base, pinger = client, client
	default:
		return nil, fmt.Errorf("unknown embedding provider %q", ec.Provider)
	}

	p := &Provider{}
	embedder := outbound.Embedder(base)
	if ec.Provider != "mock" {
		embedder = NewRateLimitedEmbedder(embedder, ec.RequestsPerSecond, ec.Burst, logger)
	}
	if cache != nil {
		p.Cached = NewCachedEmbedder(embedder, cache, ec.Provider+"/"+ec.Model, cfg.Cache.TTL, logger)
		embedder = p.Cached
	}
	p.Embedder = embedder

	p.health = NewHealthChecker(ec.Provider, embedder, pinger, logger)
	if p.Cached != nil {
		p.health.stats = p.Cached.Stats
	}

	logger.Info("Embedding provider ready",
		zap.String("provider", ec.Provider),
		zap.String("model", ec.Model),
		zap.Int("dimension", ec.Dimension),
		zap.Bool("cached", p.Cached != nil))
	return p, nil
}

// HealthChecker returns the checker registered with the ops server
func (p *Provider) HealthChecker() *HealthChecker {
	return p.health
}
