package ai

import (
	"context"

	"github.com/alchemorsel/kitchen/internal/ports/outbound"
	apperrors "github.com/alchemorsel/kitchen/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// RateLimitedEmbedder caps the request rate to the embedding provider.
// Callers wait for a token; a cancelled wait surfaces as a cancellation.
type RateLimitedEmbedder struct {
	next    outbound.Embedder
	limiter *rate.Limiter
	logger  *zap.Logger
}

var _ outbound.Embedder = (*RateLimitedEmbedder)(nil)

// NewRateLimitedEmbedder allows requestsPerSecond with the given burst. A
// non-positive rate disables limiting.
func NewRateLimitedEmbedder(next outbound.Embedder, requestsPerSecond float64, burst int, logger *zap.Logger) *RateLimitedEmbedder {
	limit := rate.Limit(requestsPerSecond)
	if requestsPerSecond <= 0 {
		limit = rate.Inf
	}
	if burst <= 0 {
		burst = 1
	}
	return &RateLimitedEmbedder{
		next:    next,
		limiter: rate.NewLimiter(limit, burst),
		logger:  logger.Named("embed-limiter"),
	}
}

// Dimension returns the wrapped embedder's dimension
func (r *RateLimitedEmbedder) Dimension() int {
	return r.next.Dimension()
}

// Embed waits for a token then delegates
func (r *RateLimitedEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		r.logger.Debug("Embed request dropped while waiting for rate limit", zap.Error(err))
		return nil, apperrors.NewCancelledError("embed", err)
	}
	return r.next.Embed(ctx, text)
}
