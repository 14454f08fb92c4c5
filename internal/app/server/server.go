package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/exp/slog"
	"golang.org/x/sync/errgroup"

	"memvoice/internal/app/server/api"
	"memvoice/internal/app/server/config"
	"memvoice/internal/app/server/security"
	"memvoice/internal/domain/memory"
	"memvoice/internal/domain/user"
	"memvoice/internal/infrastructure/storage"
	"memvoice/internal/infrastructure/tokenizer"
	"memvoice/internal/infrastructure/vector"
	"memvoice/internal/utils/logger"
)

const (
	tokenEncoding   = "cl100k_base"
	readTimeout     = 15 * time.Second
	writeTimeout    = 60 * time.Second
	idleTimeout     = 2 * time.Minute
	shutdownTimeout = 10 * time.Second
)

type App struct {
	cfg        *config.Config
	log        *slog.Logger
	storage    storage.Storage
	closeIndex func()
	server     *http.Server

	Users    *user.Service
	Memories *memory.Service
	Tokens   *security.Tokens
}

// New собирает зависимости: хранилище (с миграциями), векторный индекс, сервисы и HTTP роутер
func New(ctx context.Context, cfg *config.Config, log *slog.Logger) (*App, error) {
	store, err := storage.Open(ctx, cfg.DB.DatabaseURI, log)
	if err != nil {
		return nil, fmt.Errorf("open storage: %w", err)
	}

	index, closeIndex, err := vector.New(vectorConfig(cfg), log)
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("vector index: %w", err)
	}

	a := &App{
		cfg:        cfg,
		log:        log,
		storage:    store,
		closeIndex: closeIndex,
	}

	if err := a.services(index); err != nil {
		a.Close()
		return nil, err
	}

	if cfg.Auth.GeneratedSecret {
		log.Warn("JWT_SECRET is not set, tokens will not survive restart")
	}

	a.server = &http.Server{
		Addr: cfg.Server.RunAddress,
		Handler: api.New(cfg, api.Services{
			Users:    a.Users,
			Memories: a.Memories,
			Tokens:   a.Tokens,
			DB:       store,
		}, log),
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout,
		IdleTimeout:  idleTimeout,
	}

	return a, nil
}

func (a *App) services(index memory.Index) error {
	tokens, err := security.NewTokens(a.cfg.Auth.Secret, a.cfg.Auth.TokenTTL)
	if err != nil {
		return fmt.Errorf("tokens: %w", err)
	}

	order, err := memory.ParseSearchOrder(a.cfg.Memory.SearchOrder)
	if err != nil {
		return err
	}

	a.Tokens = tokens
	a.Users = user.NewService(a.storage.Users(), user.NewValidator(), a.log)
	a.Memories = memory.NewService(a.storage.Memories(), index, a.log,
		memory.WithTokenCounter(tokenizer.NewCounter(tokenEncoding, a.log), a.cfg.Memory.MaxTokens),
		memory.WithSearchOrder(order),
	)
	return nil
}

func vectorConfig(cfg *config.Config) vector.Config {
	return vector.Config{
		Backend:        cfg.Vector.Backend,
		URL:            cfg.Vector.URL,
		APIKey:         cfg.Vector.APIKey,
		Timeout:        cfg.Vector.Timeout,
		RateLimit:      cfg.Vector.RateLimit,
		ChromemPath:    cfg.Vector.ChromemPath,
		Embedder:       cfg.Embedding.Provider,
		OpenAIKey:      cfg.Embedding.OpenAIKey,
		OpenAIBaseURL:  cfg.Embedding.OpenAIBaseURL,
		EmbeddingModel: cfg.Embedding.Model,
		CacheSize:      cfg.Embedding.CacheSize,
	}
}

func (a *App) Handler() http.Handler {
	return a.server.Handler
}

// Run блокируется до отмены ctx или ошибки listener'а, затем аккуратно гасит сервер
func (a *App) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		a.log.Info("server started", "address", a.server.Addr, "env", a.cfg.Env)
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		a.log.Info("shutting down server")
		if err := a.server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	})

	if every := a.cfg.Memory.CleanupInterval; every > 0 {
		g.Go(func() error {
			a.sweep(gctx, every)
			return nil
		})
	}

	return g.Wait()
}

func (a *App) sweep(ctx context.Context, every time.Duration) {
	log := a.log.With("component", "sweeper")
	log.Info("periodic cleanup enabled", "interval", every)

	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			// ошибка одного прохода не останавливает сервер
			if _, err := a.Memories.CleanupExpired(ctx); err != nil && ctx.Err() == nil {
				log.Error("cleanup failed", logger.Err(err))
			}
		}
	}
}

func (a *App) Close() error {
	if a.closeIndex != nil {
		a.closeIndex()
	}
	return a.storage.Close()
}
