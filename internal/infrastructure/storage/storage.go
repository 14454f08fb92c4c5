package storage

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/exp/slog"

	"memvoice/internal/domain/memory"
	"memvoice/internal/domain/user"
	"memvoice/internal/infrastructure/storage/postgres"
	"memvoice/internal/infrastructure/storage/sqlite"
)

type Storage interface {
	// Пользователи
	Users() user.Repository

	// Записи памяти
	Memories() memory.Repository

	Ping(ctx context.Context) error
	Close() error
}

// Open выбирает драйвер по схеме DATABASE_URI:
// postgres://, postgresql:// - pgx; sqlite3://path, sqlite://path - go-sqlite3
func Open(ctx context.Context, databaseURI string, log *slog.Logger) (Storage, error) {
	scheme, rest, ok := strings.Cut(databaseURI, "://")
	if !ok {
		return nil, fmt.Errorf("database uri %q has no scheme", databaseURI)
	}

	switch scheme {
	case "postgres", "postgresql":
		return postgres.New(ctx, databaseURI, log)
	case "sqlite3", "sqlite":
		return sqlite.New(ctx, rest, log)
	default:
		return nil, fmt.Errorf("unsupported database scheme %q", scheme)
	}
}
