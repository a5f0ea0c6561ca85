package ai

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/alchemorsel/kitchen/internal/domain/ingredient"
	"github.com/alchemorsel/kitchen/internal/infrastructure/config"
	"github.com/alchemorsel/kitchen/internal/infrastructure/persistence/memory"
	"github.com/alchemorsel/kitchen/pkg/healthcheck"
	apperrors "github.com/alchemorsel/kitchen/pkg/errors"
	"github.com/alchemorsel/kitchen/test/testutils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestHashingEmbedder(t *testing.T) {
	ctx := context.Background()
	e := NewHashingEmbedder(128)

	t.Run("ShouldBeDeterministicAndUnitLength", func(t *testing.T) {
		a, err := e.Embed(ctx, "Heavy Cream")
		require.NoError(t, err)
		b, err := e.Embed(ctx, "  heavy   cream")
		require.NoError(t, err)

		assert.Equal(t, a, b)
		assert.Len(t, a, 128)

		var norm float64
		for _, v := range a {
			norm += float64(v) * float64(v)
		}
		assert.InDelta(t, 1, math.Sqrt(norm), 1e-5)
	})

	t.Run("SimilarSpellingShouldScoreHigher", func(t *testing.T) {
		cream, _ := e.Embed(ctx, "heavy cream")
		creams, _ := e.Embed(ctx, "heavy creams")
		garlic, _ := e.Embed(ctx, "garlic")

		assert.Greater(t,
			ingredient.CosineSimilarity(cream, creams),
			ingredient.CosineSimilarity(cream, garlic))
	})

	t.Run("EmptyText_ShouldEmbedToZero", func(t *testing.T) {
		vec, err := e.Embed(ctx, "")
		require.NoError(t, err)
		for _, v := range vec {
			assert.Zero(t, v)
		}
	})

	t.Run("CancelledContext_ShouldFail", func(t *testing.T) {
		cancelled, cancel := context.WithCancel(ctx)
		cancel()
		_, err := e.Embed(cancelled, "salt")
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestCachedEmbedder(t *testing.T) {
	ctx := context.Background()

	t.Run("SecondCall_ShouldHitCache", func(t *testing.T) {
		inner := &testutils.MockEmbedder{Dim: 3}
		inner.On("Embed", mock.Anything, "Butter").Return([]float32{0.1, 0.2, 0.3}, nil).Once()
		cached := NewCachedEmbedder(inner, memory.NewCacheRepository(time.Hour, time.Minute), "mock/test", time.Hour, zap.NewNop())

		first, err := cached.Embed(ctx, "Butter")
		require.NoError(t, err)
		second, err := cached.Embed(ctx, "Butter")
		require.NoError(t, err)

		assert.Equal(t, first, second)
		assert.Equal(t, CacheStats{Hits: 1, Misses: 1, HitRatio: 0.5}, cached.Stats())
		inner.AssertExpectations(t)
	})

	t.Run("KeyShouldUseNormalizedText", func(t *testing.T) {
		inner := &testutils.MockEmbedder{Dim: 2}
		inner.On("Embed", mock.Anything, "Crème Fraîche").Return([]float32{1, 0}, nil).Once()
		cached := NewCachedEmbedder(inner, memory.NewCacheRepository(time.Hour, time.Minute), "m", time.Hour, zap.NewNop())

		_, err := cached.Embed(ctx, "Crème Fraîche")
		require.NoError(t, err)
		vec, err := cached.Embed(ctx, "creme fraiche")
		require.NoError(t, err)

		assert.Equal(t, []float32{1, 0}, vec)
		inner.AssertExpectations(t)
	})

	t.Run("CacheFailure_ShouldStillEmbed", func(t *testing.T) {
		inner := &testutils.MockEmbedder{Dim: 1}
		inner.On("Embed", mock.Anything, "salt").Return([]float32{1}, nil)
		cache := &testutils.MockCacheRepository{}
		cache.On("Get", mock.Anything, mock.Anything).Return(nil, errors.New("connection refused"))
		cache.On("Set", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(errors.New("connection refused"))
		cached := NewCachedEmbedder(inner, cache, "m", time.Hour, zap.NewNop())

		vec, err := cached.Embed(ctx, "salt")

		require.NoError(t, err)
		assert.Equal(t, []float32{1}, vec)
	})

	t.Run("EmbedError_ShouldNotBeCached", func(t *testing.T) {
		inner := &testutils.MockEmbedder{Dim: 1}
		inner.On("Embed", mock.Anything, "salt").Return(nil, errors.New("boom")).Once()
		inner.On("Embed", mock.Anything, "salt").Return([]float32{1}, nil).Once()
		cached := NewCachedEmbedder(inner, memory.NewCacheRepository(time.Hour, time.Minute), "m", time.Hour, zap.NewNop())

		_, err := cached.Embed(ctx, "salt")
		assert.Error(t, err)
		vec, err := cached.Embed(ctx, "salt")
		require.NoError(t, err)
		assert.Equal(t, []float32{1}, vec)
	})
}

func TestVectorEncoding(t *testing.T) {
	vec := []float32{0, -1.5, 3.25, float32(math.SmallestNonzeroFloat32)}

	decoded, err := decodeVector(encodeVector(vec))

	require.NoError(t, err)
	assert.Equal(t, vec, decoded)

	_, err = decodeVector([]byte{1, 2, 3})
	assert.Error(t, err)
}

func TestRateLimitedEmbedder(t *testing.T) {
	t.Run("ShouldDelegateWithinBurst", func(t *testing.T) {
		inner := &testutils.MockEmbedder{Dim: 1}
		inner.On("Embed", mock.Anything, "salt").Return([]float32{1}, nil).Twice()
		limited := NewRateLimitedEmbedder(inner, 1, 2, zap.NewNop())

		for i := 0; i < 2; i++ {
			_, err := limited.Embed(context.Background(), "salt")
			require.NoError(t, err)
		}
		assert.Equal(t, 1, limited.Dimension())
		inner.AssertExpectations(t)
	})

	t.Run("ExhaustedBudget_ShouldFailWhenContextEnds", func(t *testing.T) {
		inner := &testutils.MockEmbedder{Dim: 1}
		inner.On("Embed", mock.Anything, "salt").Return([]float32{1}, nil).Once()
		limited := NewRateLimitedEmbedder(inner, 0.001, 1, zap.NewNop())

		_, err := limited.Embed(context.Background(), "salt")
		require.NoError(t, err)

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
		defer cancel()
		_, err = limited.Embed(ctx, "salt")

		assert.True(t, apperrors.Is(err, apperrors.CodeCancelled))
		inner.AssertExpectations(t)
	})
}

func TestNewProvider(t *testing.T) {
	cfg := &config.Config{
		Embedding: config.EmbeddingConfig{Provider: "mock", Model: "hash", Dimension: 32},
		Cache:     config.CacheConfig{TTL: time.Hour},
	}

	t.Run("MockProvider_ShouldBeCachedAndHealthy", func(t *testing.T) {
		p, err := NewProvider(cfg, memory.NewCacheRepository(time.Hour, time.Minute), zap.NewNop())
		require.NoError(t, err)

		vec, err := p.Embedder.Embed(context.Background(), "onion")
		require.NoError(t, err)
		assert.Len(t, vec, 32)
		require.NotNil(t, p.Cached)

		check := p.HealthChecker().Check(context.Background())
		assert.Equal(t, healthcheck.StatusHealthy, check.Status)
		assert.Equal(t, "embedder", check.Name)
	})

	t.Run("UnknownProvider_ShouldFail", func(t *testing.T) {
		bad := *cfg
		bad.Embedding.Provider = "carrier-pigeon"
		_, err := NewProvider(&bad, nil, zap.NewNop())
		assert.Error(t, err)
	})
}

type failingPinger struct{}

func (failingPinger) HealthCheck(context.Context) error { return errors.New("connection refused") }

func TestHealthChecker_UnreachableProviderIsDegraded(t *testing.T) {
	checker := NewHealthChecker("ollama", NewHashingEmbedder(8), failingPinger{}, zap.NewNop())

	check := checker.Check(context.Background())

	assert.Equal(t, healthcheck.StatusDegraded, check.Status)
	assert.Contains(t, check.Message, "connection refused")
}
