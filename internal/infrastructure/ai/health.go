package ai

import (
	"context"
	"fmt"
	"time"

	"github.com/alchemorsel/kitchen/internal/ports/outbound"
	"github.com/alchemorsel/kitchen/pkg/healthcheck"
	"go.uber.org/zap"
)

// Pinger is implemented by remote providers that can report reachability
// without spending an embed call
type Pinger interface {
	HealthCheck(ctx context.Context) error
}

// HealthChecker reports embedding provider health. An unreachable provider
// is degraded rather than unhealthy because resolution falls back to the
// text tiers.
type HealthChecker struct {
	provider string
	embedder outbound.Embedder
	pinger   Pinger
	stats    func() CacheStats
	logger   *zap.Logger
}

var _ healthcheck.Checker = (*HealthChecker)(nil)

// NewHealthChecker creates a checker for embedder. pinger may be nil, in
// which case a trial embed is used.
func NewHealthChecker(provider string, embedder outbound.Embedder, pinger Pinger, logger *zap.Logger) *HealthChecker {
	return &HealthChecker{
		provider: provider,
		embedder: embedder,
		pinger:   pinger,
		logger:   logger.Named("embedder-health"),
	}
}

// Check performs the embedder health check
func (h *HealthChecker) Check(ctx context.Context) healthcheck.Check {
	start := time.Now()
	check := healthcheck.Check{
		Name:        "embedder",
		LastChecked: start,
	}

	checkCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	err := h.probe(checkCtx)
	check.Duration = time.Since(start)

	metadata := map[string]interface{}{
		"provider":  h.provider,
		"dimension": h.embedder.Dimension(),
	}
	if h.stats != nil {
		metadata["cache"] = h.stats()
	}
	check.Metadata = metadata

	if err != nil {
		h.logger.Warn("Embedding provider health check failed",
			zap.String("provider", h.provider),
			zap.Error(err))
		check.Status = healthcheck.StatusDegraded
		check.Message = err.Error()
		return check
	}

	check.Status = healthcheck.StatusHealthy
	return check
}

func (h *HealthChecker) probe(ctx context.Context) error {
	if h.pinger != nil {
		return h.pinger.HealthCheck(ctx)
	}
	vec, err := h.embedder.Embed(ctx, "health check")
	if err != nil {
		return err
	}
	if len(vec) != h.embedder.Dimension() {
		return fmt.Errorf("embedder returned %d dimensions, expected %d", len(vec), h.embedder.Dimension())
	}
	return nil
}
