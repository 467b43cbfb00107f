package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"go.uber.org/zap"
	"google.golang.org/genai"
)

// TextGenerator produces a completion for a prompt
type TextGenerator interface {
	Generate(ctx context.Context, model, prompt string, jsonOutput bool) (string, error)
}

// GeminiClient calls the Gemini API with retry and exponential backoff
type GeminiClient struct {
	client      *genai.Client
	logger      *zap.Logger
	maxRetries  int
	baseBackoff time.Duration
}

// NewGeminiClient creates a Gemini client for apiKey
func NewGeminiClient(ctx context.Context, logger *zap.Logger, apiKey string) (*GeminiClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY not configured")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	return &GeminiClient{
		client:      client,
		logger:      logger,
		maxRetries:  3,
		baseBackoff: time.Second,
	}, nil
}

// Generate sends prompt to model. With jsonOutput the model is asked for a
// JSON document, which is returned as text.
func (c *GeminiClient) Generate(ctx context.Context, model, prompt string, jsonOutput bool) (string, error) {
	var cfg *genai.GenerateContentConfig
	if jsonOutput {
		cfg = &genai.GenerateContentConfig{ResponseMIMEType: "application/json"}
	}

	var lastErr error
	for attempt := 0; attempt < c.maxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(math.Pow(2, float64(attempt-1))) * c.baseBackoff
			c.logger.Debug("retrying Gemini call",
				zap.String("model", model),
				zap.Int("attempt", attempt+1),
				zap.Duration("backoff", backoff))
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return "", ctx.Err()
			}
		}

		resp, err := c.client.Models.GenerateContent(ctx, model, genai.Text(prompt), cfg)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return "", err
			}
			c.logger.Warn("Gemini call failed", zap.String("model", model), zap.Error(err))
			lastErr = err
			continue
		}

		text := strings.TrimSpace(resp.Text())
		if text == "" {
			lastErr = fmt.Errorf("empty response from Gemini")
			continue
		}
		return text, nil
	}

	return "", fmt.Errorf("max retries exceeded: %w", lastErr)
}
