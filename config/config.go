package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Log       LogConfig       `mapstructure:"log"`
	Cleanup   CleanupConfig   `mapstructure:"cleanup"`
	OCR       OCRConfig       `mapstructure:"ocr"`
	Cache     CacheConfig     `mapstructure:"cache"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Scanner   ScannerConfig   `mapstructure:"scanner"`
	RateLimit RateLimitConfig `mapstructure:"ratelimit"`
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port           string        `mapstructure:"port"`
	Environment    string        `mapstructure:"environment"`
	AllowedOrigins []string      `mapstructure:"allowed_origins"`
	ReadTimeout    time.Duration `mapstructure:"read_timeout"`
	WriteTimeout   time.Duration `mapstructure:"write_timeout"`
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // "console" or "json"
}

// CleanupConfig holds configuration for the LLM text cleanup step
type CleanupConfig struct {
	Provider  string        `mapstructure:"provider"` // "none", "openai" or "openrouter"
	APIKey    string        `mapstructure:"api_key"`
	BaseURL   string        `mapstructure:"base_url"`
	Model     string        `mapstructure:"model"`
	Timeout   time.Duration `mapstructure:"timeout"`
	MaxTokens int           `mapstructure:"max_tokens"`
}

// OCRConfig holds text recognition configuration
type OCRConfig struct {
	Provider        string `mapstructure:"provider"` // "none" or "vision"
	CredentialsFile string `mapstructure:"credentials_file"`
	MaxImageBytes   int    `mapstructure:"max_image_bytes"`
}

// CacheConfig holds cache-related configuration
type CacheConfig struct {
	Type     string        `mapstructure:"type"` // "memory" or "redis"
	RedisURL string        `mapstructure:"redis_url"`
	TTL      time.Duration `mapstructure:"ttl"`
}

// StorageConfig holds scan history storage configuration
type StorageConfig struct {
	Type       string `mapstructure:"type"` // "memory" or "sqlite"
	SQLitePath string `mapstructure:"sqlite_path"`
}

// ScannerConfig holds realtime scanning configuration
type ScannerConfig struct {
	MinInterval time.Duration `mapstructure:"min_interval"`
	IdleTimeout time.Duration `mapstructure:"idle_timeout"`
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	PerIP int `mapstructure:"per_ip"` // requests per minute
}

// Load loads configuration from environment variables and an optional
// config.yaml in the working directory, ./config or /etc/allerlens/.
func Load() (*Config, error) {
	v := newViper()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/allerlens/")

	// Config file is optional; env vars and defaults cover everything
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	return decode(v)
}

// LoadFile loads configuration from an explicit file. Environment variables
// still override file values.
func LoadFile(path string) (*Config, error) {
	v := newViper()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}
	return decode(v)
}

func newViper() *viper.Viper {
	v := viper.New()

	// ALLERLENS_SERVER_PORT -> server.port
	v.SetEnvPrefix("ALLERLENS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)
	return v
}

func decode(v *viper.Viper) (*Config, error) {
	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	if err := validate(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// setDefaults sets default configuration values. Every key is registered
// here so environment variables can override keys absent from the file.
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.allowed_origins", []string{"http://localhost:*", "capacitor://localhost"})
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "60s")

	// Log defaults
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")

	// Cleanup defaults
	v.SetDefault("cleanup.provider", "none")
	v.SetDefault("cleanup.api_key", "")
	v.SetDefault("cleanup.base_url", "")
	v.SetDefault("cleanup.model", "")
	v.SetDefault("cleanup.timeout", "20s")
	v.SetDefault("cleanup.max_tokens", 1000)

	// OCR defaults
	v.SetDefault("ocr.provider", "none")
	v.SetDefault("ocr.credentials_file", "")
	v.SetDefault("ocr.max_image_bytes", 20*1024*1024)

	// Cache defaults
	v.SetDefault("cache.type", "memory")
	v.SetDefault("cache.redis_url", "")
	v.SetDefault("cache.ttl", "24h")

	// Storage defaults
	v.SetDefault("storage.type", "memory")
	v.SetDefault("storage.sqlite_path", "data/allerlens.db")

	// Scanner defaults
	v.SetDefault("scanner.min_interval", "3s")
	v.SetDefault("scanner.idle_timeout", "5m")

	// Rate limit defaults
	v.SetDefault("ratelimit.per_ip", 100)
}

// validate validates the configuration
func validate(config *Config) error {
	switch config.Cleanup.Provider {
	case "none", "openai", "openrouter":
	default:
		return fmt.Errorf("cleanup provider must be 'none', 'openai' or 'openrouter', got: %s", config.Cleanup.Provider)
	}

	if config.OCR.Provider != "none" && config.OCR.Provider != "vision" {
		return fmt.Errorf("ocr provider must be 'none' or 'vision', got: %s", config.OCR.Provider)
	}

	if config.Cache.Type != "memory" && config.Cache.Type != "redis" {
		return fmt.Errorf("cache type must be 'memory' or 'redis', got: %s", config.Cache.Type)
	}

	if config.Cache.Type == "redis" && config.Cache.RedisURL == "" {
		return fmt.Errorf("redis URL is required when cache type is 'redis'")
	}

	if config.Storage.Type != "memory" && config.Storage.Type != "sqlite" {
		return fmt.Errorf("storage type must be 'memory' or 'sqlite', got: %s", config.Storage.Type)
	}

	if config.Storage.Type == "sqlite" && config.Storage.SQLitePath == "" {
		return fmt.Errorf("sqlite path is required when storage type is 'sqlite'")
	}

	if config.RateLimit.PerIP < 0 {
		return fmt.Errorf("ratelimit.per_ip must not be negative, got: %d", config.RateLimit.PerIP)
	}

	return nil
}
