package vector

import (
	"fmt"
	"time"

	"golang.org/x/exp/slog"

	"memvoice/internal/domain/memory"
	"memvoice/internal/infrastructure/vector/chromem"
	"memvoice/internal/infrastructure/vector/embedder"
	"memvoice/internal/infrastructure/vector/remote"
)

const (
	BackendChromem = "chromem"
	BackendRemote  = "remote"

	EmbedderHash   = "hash"
	EmbedderOpenAI = "openai"
)

type Config struct {
	Backend string

	// remote
	URL       string
	APIKey    string
	Timeout   time.Duration
	RateLimit float64

	// chromem
	ChromemPath    string
	Embedder       string
	OpenAIKey      string
	OpenAIBaseURL  string
	EmbeddingModel string
	CacheSize      int64
}

// New собирает векторный индекс по конфигурации. Возвращаемая функция освобождает ресурсы.
func New(cfg Config, log *slog.Logger) (memory.Index, func(), error) {
	switch cfg.Backend {
	case BackendRemote:
		c, err := remote.New(remote.Config{
			BaseURL:   cfg.URL,
			APIKey:    cfg.APIKey,
			Timeout:   cfg.Timeout,
			RateLimit: cfg.RateLimit,
		}, log)
		if err != nil {
			return nil, nil, err
		}
		log.Info("vector index: remote", "url", cfg.URL)
		return c, func() {}, nil

	case BackendChromem, "":
		emb, err := newEmbedder(cfg)
		if err != nil {
			return nil, nil, err
		}

		cached, err := embedder.NewCached(emb, cfg.CacheSize)
		if err != nil {
			return nil, nil, err
		}

		store, err := chromem.New(cfg.ChromemPath, cached, log)
		if err != nil {
			cached.Close()
			return nil, nil, err
		}

		log.Info("vector index: chromem", "path", cfg.ChromemPath, "embedder", cfg.Embedder)
		return store, cached.Close, nil

	default:
		return nil, nil, fmt.Errorf("unknown vector backend %q", cfg.Backend)
	}
}

func newEmbedder(cfg Config) (embedder.Embedder, error) {
	switch cfg.Embedder {
	case EmbedderHash, "":
		return embedder.NewHash(embedder.DefaultHashDimensions), nil
	case EmbedderOpenAI:
		var opts []embedder.OpenAIOption
		if cfg.OpenAIBaseURL != "" {
			opts = append(opts, embedder.WithBaseURL(cfg.OpenAIBaseURL))
		}
		if cfg.EmbeddingModel != "" {
			opts = append(opts, embedder.WithModel(cfg.EmbeddingModel))
		}
		return embedder.NewOpenAI(cfg.OpenAIKey, opts...)
	default:
		return nil, fmt.Errorf("unknown embedder %q", cfg.Embedder)
	}
}
