package app

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"

	"github.com/joho/godotenv"
	"github.com/nats-io/nats.go"
	"github.com/openai/openai-go/v3"

	"doc-chunker/internal/cache"
	"doc-chunker/internal/chunker"
	"doc-chunker/internal/config"
	"doc-chunker/internal/embeddings"
	"doc-chunker/internal/extract"
	"doc-chunker/internal/logger"
	"doc-chunker/internal/queue"
	"doc-chunker/internal/segmenter"
	"doc-chunker/internal/store"
	"doc-chunker/internal/tokenizer"
)

// Deps bundles common runtime dependencies for services.
type Deps struct {
	Config    config.Config
	Log       *slog.Logger
	Chunker   *chunker.Chunker
	Extractor chunker.PageExtractor
	Store     store.Store
	Queue     queue.Queue
	Cache     cache.Cache
}

// EmbedderDeps are the dependencies of the embedding worker.
type EmbedderDeps struct {
	Config   config.Config
	Log      *slog.Logger
	Store    store.Store
	Queue    queue.Queue
	Embedder embeddings.Embedder
}

// Load reads the optional .env file, config and logger.
func Load() (config.Config, *slog.Logger, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return config.Config{}, nil, fmt.Errorf("failed to load environment variables: %w", err)
	}
	cfg := config.Load()
	return cfg, logger.New(cfg.LogLevel), nil
}

// Build wires the gateway: chunker, store, queue and cache.
func Build() (Deps, error) {
	cfg, log, err := Load()
	if err != nil {
		return Deps{}, err
	}
	deps, err := buildCore(cfg, log)
	if err != nil {
		return Deps{}, err
	}
	deps.Cache = buildCache(cfg, log)
	return deps, nil
}

// BuildWorker wires the chunk worker: chunker, store and queue.
func BuildWorker() (Deps, error) {
	cfg, log, err := Load()
	if err != nil {
		return Deps{}, err
	}
	return buildCore(cfg, log)
}

// BuildEmbedder wires the embedding worker.
func BuildEmbedder() (EmbedderDeps, error) {
	cfg, log, err := Load()
	if err != nil {
		return EmbedderDeps{}, err
	}
	st, err := buildStore(cfg, log)
	if err != nil {
		return EmbedderDeps{}, fmt.Errorf("failed to initialize store: %w", err)
	}
	q, err := buildQueue(cfg, log)
	if err != nil {
		return EmbedderDeps{}, fmt.Errorf("failed to initialize queue: %w", err)
	}
	embedder, err := buildEmbedder(cfg, log)
	if err != nil {
		return EmbedderDeps{}, fmt.Errorf("failed to initialize embedder: %w", err)
	}
	return EmbedderDeps{
		Config:   cfg,
		Log:      log,
		Store:    st,
		Queue:    q,
		Embedder: embedder,
	}, nil
}

// NewChunker builds a chunker for a token encoding with the Punkt segmenter.
func NewChunker(encoding string, log *slog.Logger) (*chunker.Chunker, error) {
	counter, err := tokenizer.New(encoding)
	if err != nil {
		return nil, err
	}
	seg, err := segmenter.NewPunkt()
	if err != nil {
		return nil, err
	}
	return chunker.New(counter, seg, chunker.WithLogger(log)), nil
}

func buildCore(cfg config.Config, log *slog.Logger) (Deps, error) {
	ch, err := NewChunker(cfg.TokenEncoding, log)
	if err != nil {
		return Deps{}, fmt.Errorf("failed to initialize chunker: %w", err)
	}
	st, err := buildStore(cfg, log)
	if err != nil {
		return Deps{}, fmt.Errorf("failed to initialize store: %w", err)
	}
	q, err := buildQueue(cfg, log)
	if err != nil {
		return Deps{}, fmt.Errorf("failed to initialize queue: %w", err)
	}
	log.Info("chunker ready", "encoding", cfg.TokenEncoding, "max_tokens", cfg.MaxTokens, "split", cfg.SplitIfExceedsLimit)
	return Deps{
		Config:    cfg,
		Log:       log,
		Chunker:   ch,
		Extractor: extract.New(),
		Store:     st,
		Queue:     q,
		Cache:     cache.NewNoOpCache(),
	}, nil
}

func buildStore(cfg config.Config, log *slog.Logger) (store.Store, error) {
	switch cfg.StoreProvider {
	case "postgres":
		if cfg.DBURL == "" {
			return nil, fmt.Errorf("DB_URL is required when STORE_PROVIDER=postgres")
		}
		db, err := store.NewPostgres(cfg.DBURL)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize Postgres: %w", err)
		}
		log.Info("using Postgres store")
		return db, nil
	default:
		return nil, fmt.Errorf("invalid STORE_PROVIDER: %s (valid option: postgres)", cfg.StoreProvider)
	}
}

func buildQueue(cfg config.Config, log *slog.Logger) (queue.Queue, error) {
	switch cfg.QueueProvider {
	case "nats":
		if cfg.QueueURL == "" {
			return nil, fmt.Errorf("QUEUE_URL is required when QUEUE_PROVIDER=nats")
		}
		nc, err := nats.Connect(cfg.QueueURL)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to NATS: %w", err)
		}
		log.Info("using NATS queue")
		return queue.NewNATS(log, nc), nil
	default:
		return nil, fmt.Errorf("invalid QUEUE_PROVIDER: %s (valid option: nats)", cfg.QueueProvider)
	}
}

// buildCache falls back to a no-op cache when Redis is not configured or unreachable.
func buildCache(cfg config.Config, log *slog.Logger) cache.Cache {
	if cfg.CacheProvider != "redis" || cfg.RedisAddr == "" {
		log.Info("chunk cache disabled")
		return cache.NewNoOpCache()
	}
	c, err := cache.NewRedisCache(cfg.RedisAddr, cfg.RedisPassword)
	if err != nil {
		log.Warn("redis unavailable, chunk cache disabled", "err", err)
		return cache.NewNoOpCache()
	}
	log.Info("using Redis chunk cache", "addr", cfg.RedisAddr)
	return c
}

func buildEmbedder(cfg config.Config, log *slog.Logger) (embeddings.Embedder, error) {
	if cfg.OpenAIKey == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY is required for embeddings")
	}
	embedder, err := embeddings.NewOpenAIEmbedder(cfg.OpenAIKey, openai.EmbeddingModel(cfg.EmbeddingModel))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize OpenAI embedder: %w", err)
	}
	log.Info("using OpenAI embedder", "model", cfg.EmbeddingModel)
	return embedder, nil
}
