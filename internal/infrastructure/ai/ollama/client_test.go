package ollama

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alchemorsel/kitchen/internal/infrastructure/config"
	apperrors "github.com/alchemorsel/kitchen/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestClient(t *testing.T, handler http.HandlerFunc, dimension int) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	return NewClient(config.EmbeddingConfig{
		BaseURL:   server.URL,
		Model:     "nomic-embed-text",
		Dimension: dimension,
		Timeout:   time.Second,
	}, zap.NewNop())
}

func TestClient_Embed(t *testing.T) {
	t.Run("ShouldPostModelAndInput", func(t *testing.T) {
		var got EmbedRequest
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/api/embed", r.URL.Path)
			assert.Equal(t, http.MethodPost, r.Method)
			require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
			_ = json.NewEncoder(w).Encode(EmbedResponse{Embeddings: [][]float32{{0.1, 0.2, 0.3}}})
		}, 3)

		vec, err := client.Embed(context.Background(), "butter")

		require.NoError(t, err)
		assert.Equal(t, []float32{0.1, 0.2, 0.3}, vec)
		assert.Equal(t, EmbedRequest{Model: "nomic-embed-text", Input: []string{"butter"}}, got)
	})

	t.Run("WrongDimension_ShouldFail", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			_ = json.NewEncoder(w).Encode(EmbedResponse{Embeddings: [][]float32{{0.1, 0.2}}})
		}, 3)

		_, err := client.Embed(context.Background(), "butter")

		assert.True(t, apperrors.Is(err, apperrors.CodeExternalServiceError))
	})

	t.Run("ServerError_ShouldFail", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "model not loaded", http.StatusNotFound)
		}, 3)

		_, err := client.Embed(context.Background(), "butter")

		require.Error(t, err)
		assert.Contains(t, err.Error(), "404")
	})

	t.Run("EmptyResponse_ShouldFail", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"embeddings":[]}`))
		}, 3)

		_, err := client.Embed(context.Background(), "butter")

		assert.Error(t, err)
	})
}

func TestClient_HealthCheck(t *testing.T) {
	t.Run("ModelPulled_ShouldPass", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/api/tags", r.URL.Path)
			_, _ = w.Write([]byte(`{"models":[{"name":"llama3.2:3b"},{"name":"nomic-embed-text:latest"}]}`))
		}, 3)

		assert.NoError(t, client.HealthCheck(context.Background()))
	})

	t.Run("ModelMissing_ShouldFail", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"models":[{"name":"llama3.2:3b"}]}`))
		}, 3)

		err := client.HealthCheck(context.Background())

		require.Error(t, err)
		assert.Contains(t, err.Error(), "nomic-embed-text")
	})
}
