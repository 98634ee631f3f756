package config

import (
	"os"
	"testing"

	"doc-chunker/internal/chunker"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{
		"PORT", "LOG_LEVEL", "MAX_TOKENS", "SPLIT_IF_EXCEEDS_LIMIT", "TOKEN_ENCODING",
		"STORE_PROVIDER", "QUEUE_PROVIDER", "CACHE_PROVIDER", "CACHE_TTL", "EMBEDDING_MODEL",
	} {
		t.Setenv(key, "") // restores the original value on cleanup
		os.Unsetenv(key)
	}

	cfg := Load()

	tests := []struct {
		name     string
		got      interface{}
		expected interface{}
	}{
		{"Port", cfg.Port, 8080},
		{"LogLevel", cfg.LogLevel, "info"},
		{"MaxTokens", cfg.MaxTokens, 1000},
		{"SplitIfExceedsLimit", cfg.SplitIfExceedsLimit, false},
		{"TokenEncoding", cfg.TokenEncoding, "o200k_base"},
		{"StoreProvider", cfg.StoreProvider, "postgres"},
		{"QueueProvider", cfg.QueueProvider, "nats"},
		{"CacheProvider", cfg.CacheProvider, "redis"},
		{"CacheTTL", cfg.CacheTTL, 3600},
		{"EmbeddingModel", cfg.EmbeddingModel, "text-embedding-3-small"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.expected {
				t.Errorf("expected %s=%v, got %v", tt.name, tt.expected, tt.got)
			}
		})
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("MAX_TOKENS", "512")
	t.Setenv("SPLIT_IF_EXCEEDS_LIMIT", "true")

	cfg := Load()

	if cfg.Port != 9090 {
		t.Errorf("expected port 9090, got %d", cfg.Port)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("expected log level 'debug', got %s", cfg.LogLevel)
	}
	want := chunker.Options{MaxTokens: 512, SplitIfExceedsLimit: true}
	if got := cfg.ChunkOptions(); got != want {
		t.Errorf("expected chunk options %+v, got %+v", want, got)
	}
}
