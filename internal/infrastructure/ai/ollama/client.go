// Package ollama provides Ollama integration for local text embeddings
package ollama

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/alchemorsel/kitchen/internal/infrastructure/config"
	"github.com/alchemorsel/kitchen/internal/ports/outbound"
	apperrors "github.com/alchemorsel/kitchen/pkg/errors"
	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

const serviceName = "ollama"

// Client implements outbound.Embedder using the Ollama embed API
type Client struct {
	model     string
	dimension int
	client    *resty.Client
	logger    *zap.Logger
}

var _ outbound.Embedder = (*Client)(nil)

// EmbedRequest is the body of POST /api/embed
type EmbedRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

// EmbedResponse carries one vector per input
type EmbedResponse struct {
	Model      string      `json:"model"`
	Embeddings [][]float32 `json:"embeddings"`
}

// TagsResponse lists locally available models
type TagsResponse struct {
	Models []struct {
		Name string `json:"name"`
	} `json:"models"`
}

// NewClient creates a new Ollama embedding client
func NewClient(cfg config.EmbeddingConfig, logger *zap.Logger) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	client := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(timeout).
		SetRetryCount(cfg.MaxRetries).
		SetRetryWaitTime(200 * time.Millisecond).
		AddRetryCondition(func(r *resty.Response, err error) bool {
			return err != nil || r.StatusCode() >= http.StatusInternalServerError
		}).
		SetHeader("Content-Type", "application/json")

	logger.Info("Ollama client initialized",
		zap.String("base_url", cfg.BaseURL),
		zap.String("model", cfg.Model),
		zap.Int("dimension", cfg.Dimension),
		zap.Duration("timeout", timeout))

	return &Client{
		model:     cfg.Model,
		dimension: cfg.Dimension,
		client:    client,
		logger:    logger.Named("ollama-client"),
	}
}

// Dimension returns the configured vector length
func (c *Client) Dimension() int {
	return c.dimension
}

// Embed returns the embedding of text
func (c *Client) Embed(ctx context.Context, text string) ([]float32, error) {
	start := time.Now()

	resp, err := c.client.R().
		SetContext(ctx).
		SetBody(EmbedRequest{Model: c.model, Input: []string{text}}).
		Post("/api/embed")
	if err != nil {
		return nil, apperrors.NewExternalServiceError(serviceName, err)
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, apperrors.NewExternalServiceError(serviceName,
			fmt.Errorf("embed returned status %d: %s", resp.StatusCode(), resp.String()))
	}

	var result EmbedResponse
	if err := json.Unmarshal(resp.Body(), &result); err != nil {
		return nil, apperrors.NewExternalServiceError(serviceName, fmt.Errorf("failed to decode embed response: %w", err))
	}
	if len(result.Embeddings) == 0 {
		return nil, apperrors.NewExternalServiceError(serviceName, fmt.Errorf("embed response has no vectors"))
	}

	vec := result.Embeddings[0]
	if c.dimension > 0 && len(vec) != c.dimension {
		return nil, apperrors.NewExternalServiceError(serviceName,
			fmt.Errorf("model %s returned %d dimensions, expected %d", c.model, len(vec), c.dimension))
	}

	c.logger.Debug("Text embedded",
		zap.Int("length", len(text)),
		zap.Duration("duration", time.Since(start)))
	return vec, nil
}

// HealthCheck verifies Ollama is reachable and the model is pulled
func (c *Client) HealthCheck(ctx context.Context) error {
	resp, err := c.client.R().SetContext(ctx).Get("/api/tags")
	if err != nil {
		return fmt.Errorf("ollama health check failed: %w", err)
	}
	if resp.StatusCode() != http.StatusOK {
		return fmt.Errorf("ollama health check failed with status %d", resp.StatusCode())
	}

	var tags TagsResponse
	if err := json.Unmarshal(resp.Body(), &tags); err != nil {
		return fmt.Errorf("failed to decode model list: %w", err)
	}
	for _, m := range tags.Models {
		if m.Name == c.model || m.Name == c.model+":latest" {
			return nil
		}
	}
	return fmt.Errorf("model %s is not available", c.model)
}
