package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad(t *testing.T) {
	t.Run("Defaults_ShouldMatchResolverContract", func(t *testing.T) {
		path := writeConfig(t, "app:\n  name: kitchen-test\n")

		cfg, err := Load(path)

		require.NoError(t, err)
		assert.Equal(t, "kitchen-test", cfg.App.Name)
		assert.Equal(t, 0.3, cfg.Resolver.FuzzyThreshold)
		assert.Equal(t, 0.8, cfg.Resolver.HighConfidence)
		assert.Equal(t, 0.6, cfg.Resolver.SemanticCeiling)
		assert.Equal(t, 0.7, cfg.Resolver.SemanticThreshold)
		assert.Equal(t, 5, cfg.Resolver.Limit)
		assert.Equal(t, "sqlite", cfg.Database.Driver)
		assert.Equal(t, "substitute_id", cfg.Kitchen.SubstituteTieBreak)
		assert.Equal(t, 1e-9, cfg.Kitchen.QuantityEpsilon)
	})

	t.Run("EnvOverride_ShouldWin", func(t *testing.T) {
		path := writeConfig(t, "resolver:\n  limit: 8\n")
		t.Setenv("KITCHEN_RESOLVER_LIMIT", "3")

		cfg, err := Load(path)

		require.NoError(t, err)
		assert.Equal(t, 3, cfg.Resolver.Limit)
	})

	t.Run("ThresholdOutOfRange_ShouldFail", func(t *testing.T) {
		path := writeConfig(t, "resolver:\n  fuzzy_threshold: 1.5\n")

		_, err := Load(path)

		require.Error(t, err)
		assert.Contains(t, err.Error(), "resolver.fuzzy_threshold")
	})

	t.Run("UnknownDriver_ShouldFail", func(t *testing.T) {
		path := writeConfig(t, "database:\n  driver: mongo\n")

		_, err := Load(path)

		require.Error(t, err)
		assert.Contains(t, err.Error(), "database.driver")
	})

	t.Run("OpenAIWithoutKey_ShouldFail", func(t *testing.T) {
		path := writeConfig(t, "embedding:\n  provider: openai\n")

		_, err := Load(path)

		require.Error(t, err)
		assert.Contains(t, err.Error(), "embedding.api_key")
	})
}

func TestConnectionStrings(t *testing.T) {
	cfg := &Config{Database: DatabaseConfig{
		Host: "db", Port: 5433, Username: "chef", Password: "secret", Database: "kitchen", SSLMode: "disable",
	}, Redis: RedisConfig{Host: "cache", Port: 6380}}

	assert.Equal(t, "postgres://chef:secret@db:5433/kitchen?sslmode=disable", cfg.GetPostgresURL())
	assert.Equal(t, "host=db port=5433 user=chef password=secret dbname=kitchen sslmode=disable", cfg.GetDSN())
	assert.Equal(t, "cache:6380", cfg.RedisAddr())
}
