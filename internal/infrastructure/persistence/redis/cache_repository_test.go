package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alchemorsel/kitchen/pkg/healthcheck"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestCacheRepository_UnreachableServer(t *testing.T) {
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	})
	repo := NewCacheRepository(client, "kitchen:", zap.NewNop())
	defer repo.Close()
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, err := repo.Get(ctx, "embedding")
		assert.Error(t, err)
	}

	_, err := repo.Get(ctx, "embedding")
	assert.ErrorIs(t, err, ErrCircuitOpen)
	assert.ErrorIs(t, repo.Set(ctx, "embedding", []byte("x"), time.Minute), ErrCircuitOpen)
	assert.Zero(t, repo.HitRatio())
	assert.Equal(t, healthcheck.StateOpen, repo.BreakerState())
}
