// Package cleanup adapts chat-completion providers into domain.TextCleaner.
package cleanup

import (
	"fmt"
	"time"

	"github.com/allerlens/backend/internal/domain"
	"go.uber.org/zap"
)

const (
	ProviderNone       = "none"
	ProviderOpenAI     = "openai"
	ProviderOpenRouter = "openrouter"

	defaultTimeout     = 20 * time.Second
	defaultMaxTokens   = 1000
	defaultTemperature = 0.1
)

// Config selects and tunes a cleanup provider.
type Config struct {
	Provider    string
	APIKey      string
	BaseURL     string
	Model       string
	Timeout     time.Duration
	MaxTokens   int
	Temperature float32
}

func (c Config) withDefaults(baseURL, model string) Config {
	if c.BaseURL == "" {
		c.BaseURL = baseURL
	}
	if c.Model == "" {
		c.Model = model
	}
	if c.Timeout <= 0 {
		c.Timeout = defaultTimeout
	}
	if c.MaxTokens <= 0 {
		c.MaxTokens = defaultMaxTokens
	}
	if c.Temperature <= 0 {
		c.Temperature = defaultTemperature
	}
	return c
}

// New builds the configured cleaner. ProviderNone (or an empty provider)
// returns a nil cleaner, which turns cleanup off.
func New(cfg Config, logger *zap.Logger) (domain.TextCleaner, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	switch cfg.Provider {
	case "", ProviderNone:
		return nil, nil
	case ProviderOpenAI:
		return NewOpenAICleaner(cfg, logger), nil
	case ProviderOpenRouter:
		return NewOpenRouterCleaner(cfg, logger), nil
	default:
		return nil, fmt.Errorf("unknown cleanup provider %q", cfg.Provider)
	}
}
