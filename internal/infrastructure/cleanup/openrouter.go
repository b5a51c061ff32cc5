package cleanup

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/allerlens/backend/internal/domain"
	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	defaultOpenRouterBaseURL = "https://openrouter.ai/api/v1"
	defaultOpenRouterModel   = "google/gemma-2-9b-it"

	maxAttempts = 3
)

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens"`
	Temperature float32       `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// OpenRouterCleaner cleans label text through OpenRouter. Requests are
// rate limited and transient failures are retried with backoff.
type OpenRouterCleaner struct {
	client      *resty.Client
	config      Config
	rateLimiter *rate.Limiter
	backoff     func(attempt int) time.Duration
	logger      *zap.Logger
}

// NewOpenRouterCleaner creates a cleaner. As with OpenAICleaner a missing
// API key surfaces as domain.ErrMissingCredentials on each call.
func NewOpenRouterCleaner(cfg Config, logger *zap.Logger) *OpenRouterCleaner {
	if logger == nil {
		logger = zap.NewNop()
	}
	cfg = cfg.withDefaults(defaultOpenRouterBaseURL, defaultOpenRouterModel)

	client := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(cfg.Timeout).
		SetHeader("Authorization", fmt.Sprintf("Bearer %s", cfg.APIKey)).
		SetHeader("X-Title", "AllerLens")

	return &OpenRouterCleaner{
		client: client,
		config: cfg,
		// Free-tier OpenRouter models allow about 20 requests per minute.
		rateLimiter: rate.NewLimiter(rate.Every(3*time.Second), 5),
		backoff:     exponentialBackoff,
		logger:      logger.Named("cleanup.openrouter"),
	}
}

func (c *OpenRouterCleaner) Cleanup(ctx context.Context, text string) (string, error) {
	if c.config.APIKey == "" {
		return "", domain.ErrMissingCredentials
	}

	body := chatRequest{
		Model: c.config.Model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userPrompt(text)},
		},
		MaxTokens:   c.config.MaxTokens,
		Temperature: c.config.Temperature,
	}

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if err := c.rateLimiter.Wait(ctx); err != nil {
			return "", fmt.Errorf("rate limiter error: %w", err)
		}

		resp, err := c.client.R().
			SetContext(ctx).
			SetBody(body).
			Post("/chat/completions")
		if err != nil {
			if ctx.Err() != nil {
				return "", ctx.Err()
			}
			c.logger.Warn("request failed", zap.Int("attempt", attempt), zap.Error(err))
			lastErr = fmt.Errorf("%w: %w", domain.ErrCleanupFailed, err)
			if err := c.wait(ctx, attempt); err != nil {
				return "", err
			}
			continue
		}

		status := resp.StatusCode()
		switch {
		case status == http.StatusOK:
			var result chatResponse
			if err := json.Unmarshal(resp.Body(), &result); err != nil {
				return "", fmt.Errorf("%w: failed to decode response: %w", domain.ErrCleanupFailed, err)
			}
			if len(result.Choices) == 0 {
				return "", fmt.Errorf("%w: no choices in response", domain.ErrCleanupFailed)
			}
			return ExtractCleanedText(result.Choices[0].Message.Content)

		case status == http.StatusTooManyRequests:
			lastErr = fmt.Errorf("%w: status %d", domain.ErrRateLimited, status)

		case status >= http.StatusInternalServerError:
			lastErr = fmt.Errorf("%w: status %d", domain.ErrCleanupFailed, status)

		default:
			// Other 4xx responses will not improve on retry.
			return "", fmt.Errorf("%w: status %d: %s", domain.ErrCleanupFailed, status, resp.String())
		}

		c.logger.Warn("retryable response",
			zap.Int("attempt", attempt),
			zap.Int("status", status),
		)
		if err := c.wait(ctx, attempt); err != nil {
			return "", err
		}
	}

	return "", lastErr
}

func (c *OpenRouterCleaner) wait(ctx context.Context, attempt int) error {
	if attempt >= maxAttempts {
		return nil
	}
	timer := time.NewTimer(c.backoff(attempt))
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// exponentialBackoff returns 500ms, 1s, 2s, ... for attempts 1, 2, 3, ...
func exponentialBackoff(attempt int) time.Duration {
	return time.Duration(500*(1<<(attempt-1))) * time.Millisecond
}
