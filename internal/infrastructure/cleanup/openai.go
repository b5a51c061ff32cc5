package cleanup

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/allerlens/backend/internal/domain"
	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

const (
	// Groq serves an OpenAI-compatible API.
	defaultOpenAIBaseURL = "https://api.groq.com/openai/v1"
	defaultOpenAIModel   = "gemma2-9b-it"
)

// OpenAICleaner cleans label text through any OpenAI-compatible
// chat-completions endpoint.
type OpenAICleaner struct {
	client *openai.Client
	config Config
	logger *zap.Logger
}

// NewOpenAICleaner creates a cleaner. A missing API key is not an error
// here; every Cleanup call reports domain.ErrMissingCredentials instead.
func NewOpenAICleaner(cfg Config, logger *zap.Logger) *OpenAICleaner {
	if logger == nil {
		logger = zap.NewNop()
	}
	cfg = cfg.withDefaults(defaultOpenAIBaseURL, defaultOpenAIModel)

	clientConfig := openai.DefaultConfig(cfg.APIKey)
	clientConfig.BaseURL = cfg.BaseURL
	clientConfig.HTTPClient = &http.Client{Timeout: cfg.Timeout}

	return &OpenAICleaner{
		client: openai.NewClientWithConfig(clientConfig),
		config: cfg,
		logger: logger.Named("cleanup.openai"),
	}
}

func (c *OpenAICleaner) Cleanup(ctx context.Context, text string) (string, error) {
	if c.config.APIKey == "" {
		return "", domain.ErrMissingCredentials
	}

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.config.Model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: userPrompt(text)},
		},
		Temperature: c.config.Temperature,
		MaxTokens:   c.config.MaxTokens,
	})
	if err != nil {
		if statusCode(err) == http.StatusTooManyRequests {
			return "", fmt.Errorf("%w: %w", domain.ErrRateLimited, err)
		}
		return "", fmt.Errorf("%w: %w", domain.ErrCleanupFailed, err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: no choices in response", domain.ErrCleanupFailed)
	}

	c.logger.Debug("cleanup completed",
		zap.String("model", resp.Model),
		zap.Int("total_tokens", resp.Usage.TotalTokens),
	)
	return ExtractCleanedText(resp.Choices[0].Message.Content)
}

// statusCode digs the HTTP status out of go-openai's error types.
func statusCode(err error) int {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.HTTPStatusCode
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return reqErr.HTTPStatusCode
	}
	return 0
}
