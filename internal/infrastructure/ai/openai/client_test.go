package openai

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

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	return NewClient(config.EmbeddingConfig{
		BaseURL:   server.URL + "/v1",
		Model:     "text-embedding-3-small",
		APIKey:    "sk-test",
		Dimension: 2,
		Timeout:   time.Second,
	}, zap.NewNop())
}

func TestClient_Embed(t *testing.T) {
	t.Run("ShouldSendBearerTokenAndDimensions", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/v1/embeddings", r.URL.Path)
			assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))

			var req EmbeddingRequest
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			assert.Equal(t, "text-embedding-3-small", req.Model)
			assert.Equal(t, []string{"scallion"}, req.Input)
			assert.Equal(t, 2, req.Dimensions)

			_, _ = w.Write([]byte(`{"data":[{"index":0,"embedding":[0.6,0.8]}],"usage":{"prompt_tokens":2,"total_tokens":2}}`))
		})

		vec, err := client.Embed(context.Background(), "scallion")

		require.NoError(t, err)
		assert.Equal(t, []float32{0.6, 0.8}, vec)
		assert.Equal(t, 2, client.Dimension())
	})

	t.Run("APIError_ShouldSurfaceMessage", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"error":{"message":"Incorrect API key provided","type":"invalid_request_error"}}`))
		})

		_, err := client.Embed(context.Background(), "scallion")

		require.Error(t, err)
		assert.True(t, apperrors.Is(err, apperrors.CodeExternalServiceError))
		assert.Contains(t, err.Error(), "Incorrect API key")
	})

	t.Run("NoData_ShouldFail", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"data":[]}`))
		})

		_, err := client.Embed(context.Background(), "scallion")

		assert.Error(t, err)
	})
}

func TestClient_HealthCheck(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/models", r.URL.Path)
		_, _ = w.Write([]byte(`{"data":[]}`))
	})

	assert.NoError(t, client.HealthCheck(context.Background()))
}
