package config

import (
	"log/slog"

	"github.com/caarlos0/env/v10"

	"doc-chunker/internal/chunker"
)

// Config holds runtime configuration shared by all services.
type Config struct {
	// Server
	Port     int    `env:"PORT" envDefault:"8080"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	// Upload limits
	MaxUploadSize int64 `env:"MAX_UPLOAD_SIZE" envDefault:"10485760"` // 10MB in bytes

	// Chunking
	MaxTokens           int    `env:"MAX_TOKENS" envDefault:"1000"`
	SplitIfExceedsLimit bool   `env:"SPLIT_IF_EXCEEDS_LIMIT" envDefault:"false"`
	TokenEncoding       string `env:"TOKEN_ENCODING" envDefault:"o200k_base"` // tiktoken encoding or model, or "words"

	// Store
	StoreProvider string `env:"STORE_PROVIDER" envDefault:"postgres"`
	DBURL         string `env:"DB_URL"`

	// Queue
	QueueProvider string `env:"QUEUE_PROVIDER" envDefault:"nats"`
	QueueURL      string `env:"QUEUE_URL"`

	// Cache
	CacheProvider string `env:"CACHE_PROVIDER" envDefault:"redis"` // "redis" or "none"
	RedisAddr     string `env:"REDIS_ADDR"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	CacheTTL      int    `env:"CACHE_TTL" envDefault:"3600"` // seconds

	// Embeddings
	OpenAIKey      string `env:"OPENAI_API_KEY"`
	EmbeddingModel string `env:"EMBEDDING_MODEL" envDefault:"text-embedding-3-small"`
}

// ChunkOptions returns the chunking options configured for this process.
func (c Config) ChunkOptions() chunker.Options {
	return chunker.Options{
		MaxTokens:           c.MaxTokens,
		SplitIfExceedsLimit: c.SplitIfExceedsLimit,
	}
}

// Load reads configuration from environment variables with defaults.
func Load() Config {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		slog.Warn("failed to parse env; using defaults where set", "err", err)
	}
	return cfg
}
