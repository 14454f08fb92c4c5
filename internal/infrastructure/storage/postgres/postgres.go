package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/exp/slog"

	"memvoice/internal/domain/memory"
	"memvoice/internal/domain/user"
	"memvoice/internal/infrastructure/migration"
)

const (
	codeUniqueViolation     = "23505"
	codeForeignKeyViolation = "23503"
)

type Storage struct {
	pool     *pgxpool.Pool
	users    *UserRepository
	memories *MemoryRepository
}

// New создаёт пул и применяет миграции
func New(ctx context.Context, databaseURI string, log *slog.Logger) (*Storage, error) {
	pool, err := pgxpool.New(ctx, databaseURI)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	mg := migration.NewMigration(migration.PostgresEngine(databaseURI), log)
	if err := mg.Up(); err != nil {
		pool.Close()
		return nil, fmt.Errorf("migration error: %w", err)
	}

	return &Storage{
		pool:     pool,
		users:    NewUserRepository(pool, log),
		memories: NewMemoryRepository(pool, log),
	}, nil
}

func (s *Storage) Users() user.Repository {
	return s.users
}

func (s *Storage) Memories() memory.Repository {
	return s.memories
}

func (s *Storage) Ping(ctx context.Context) error {
	var one int
	return s.pool.QueryRow(ctx, `SELECT 1`).Scan(&one)
}

func (s *Storage) Close() error {
	s.pool.Close()
	return nil
}

func pgCode(err error) (string, string) {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code, pgErr.ConstraintName
	}
	return "", ""
}
