// Package openai provides embeddings from OpenAI or any API compatible with
// its /embeddings endpoint
package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/alchemorsel/kitchen/internal/infrastructure/config"
	"github.com/alchemorsel/kitchen/internal/ports/outbound"
	apperrors "github.com/alchemorsel/kitchen/pkg/errors"
	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

const (
	serviceName    = "openai"
	defaultBaseURL = "https://api.openai.com/v1"
)

// Client implements outbound.Embedder using the OpenAI embeddings API
type Client struct {
	model     string
	dimension int
	client    *resty.Client
	logger    *zap.Logger
}

var _ outbound.Embedder = (*Client)(nil)

// EmbeddingRequest is the body of POST /embeddings
type EmbeddingRequest struct {
	Model      string   `json:"model"`
	Input      []string `json:"input"`
	Dimensions int      `json:"dimensions,omitempty"`
}

// EmbeddingResponse carries one vector per input
type EmbeddingResponse struct {
	Data []struct {
		Index     int       `json:"index"`
		Embedding []float32 `json:"embedding"`
	} `json:"data"`
	Model string `json:"model"`
	Usage struct {
		PromptTokens int `json:"prompt_tokens"`
		TotalTokens  int `json:"total_tokens"`
	} `json:"usage"`
}

// ErrorResponse is the error envelope returned on non-2xx statuses
type ErrorResponse struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

// NewClient creates a new OpenAI embedding client
func NewClient(cfg config.EmbeddingConfig, logger *zap.Logger) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" || strings.Contains(baseURL, "localhost:11434") {
		baseURL = defaultBaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	client := resty.New().
		SetBaseURL(strings.TrimSuffix(baseURL, "/")).
		SetTimeout(timeout).
		SetAuthToken(cfg.APIKey).
		SetRetryCount(cfg.MaxRetries).
		SetRetryWaitTime(500 * time.Millisecond).
		AddRetryCondition(func(r *resty.Response, err error) bool {
			if err != nil {
				return true
			}
			return r.StatusCode() == http.StatusTooManyRequests || r.StatusCode() >= http.StatusInternalServerError
		}).
		SetHeader("Content-Type", "application/json")

	logger.Info("OpenAI client initialized",
		zap.String("base_url", baseURL),
		zap.String("model", cfg.Model),
		zap.Int("dimension", cfg.Dimension))

	return &Client{
		model:     cfg.Model,
		dimension: cfg.Dimension,
		client:    client,
		logger:    logger.Named("openai-client"),
	}
}

// Dimension returns the configured vector length
func (c *Client) Dimension() int {
	return c.dimension
}

// Embed returns the embedding of text
func (c *Client) Embed(ctx context.Context, text string) ([]float32, error) {
	resp, err := c.client.R().
		SetContext(ctx).
		SetBody(EmbeddingRequest{Model: c.model, Input: []string{text}, Dimensions: c.dimension}).
		Post("/embeddings")
	if err != nil {
		return nil, apperrors.NewExternalServiceError(serviceName, err)
	}
	if resp.StatusCode() != http.StatusOK {
		var apiErr ErrorResponse
		msg := resp.String()
		if json.Unmarshal(resp.Body(), &apiErr) == nil && apiErr.Error.Message != "" {
			msg = apiErr.Error.Message
		}
		return nil, apperrors.NewExternalServiceError(serviceName,
			fmt.Errorf("API error %d: %s", resp.StatusCode(), msg))
	}

	var result EmbeddingResponse
	if err := json.Unmarshal(resp.Body(), &result); err != nil {
		return nil, apperrors.NewExternalServiceError(serviceName, fmt.Errorf("failed to unmarshal response: %w", err))
	}
	if len(result.Data) == 0 {
		return nil, apperrors.NewExternalServiceError(serviceName, fmt.Errorf("no embeddings returned"))
	}

	vec := result.Data[0].Embedding
	if c.dimension > 0 && len(vec) != c.dimension {
		return nil, apperrors.NewExternalServiceError(serviceName,
			fmt.Errorf("model %s returned %d dimensions, expected %d", c.model, len(vec), c.dimension))
	}

	c.logger.Debug("OpenAI embedding call successful",
		zap.Int("prompt_tokens", result.Usage.PromptTokens),
		zap.Int("total_tokens", result.Usage.TotalTokens))
	return vec, nil
}

// HealthCheck verifies the API key is accepted
func (c *Client) HealthCheck(ctx context.Context) error {
	resp, err := c.client.R().SetContext(ctx).Get("/models")
	if err != nil {
		return fmt.Errorf("openai health check failed: %w", err)
	}
	if resp.StatusCode() != http.StatusOK {
		return fmt.Errorf("openai health check failed with status %d", resp.StatusCode())
	}
	return nil
}
