package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mattn/go-sqlite3"
	"golang.org/x/exp/slog"

	"memvoice/internal/domain/memory"
	"memvoice/internal/domain/user"
	"memvoice/internal/infrastructure/migration"
)

const MemoryPath = ":memory:"

// timeLayout фиксированной ширины: строки сравниваются в SQL как время
const timeLayout = "2006-01-02 15:04:05.000000000"

type Storage struct {
	db       *sql.DB
	users    *UserRepository
	memories *MemoryRepository
}

// New открывает базу по пути и применяет миграции
func New(ctx context.Context, path string, log *slog.Logger) (*Storage, error) {
	if path == "" {
		path = MemoryPath
	}

	dsn := path + "?_foreign_keys=on&_busy_timeout=5000"
	if path != MemoryPath {
		dsn += "&_journal_mode=WAL"
	}

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("ошибка открытия базы данных: %w", err)
	}

	// каждое соединение к :memory: - отдельная база
	if path == MemoryPath {
		db.SetMaxOpenConns(1)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	if err := migration.NewMigration(migration.SQLiteEngine(db), log).Up(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migration error: %w", err)
	}

	return &Storage{
		db:       db,
		users:    NewUserRepository(db, log),
		memories: NewMemoryRepository(db, log),
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
	return s.db.QueryRowContext(ctx, `SELECT 1`).Scan(&one)
}

func (s *Storage) Close() error {
	return s.db.Close()
}

type scanner interface {
	Scan(dest ...any) error
}

func ts(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func nullTS(t *time.Time) any {
	if t == nil {
		return nil
	}
	return ts(*t)
}

func constraintErr(err error) (sqlite3.ErrNoExtended, string, bool) {
	var se sqlite3.Error
	if !errors.As(err, &se) {
		return 0, "", false
	}
	return se.ExtendedCode, se.Error(), true
}

func isUnique(err error, column string) bool {
	code, msg, ok := constraintErr(err)
	return ok && code == sqlite3.ErrConstraintUnique && (column == "" || strings.Contains(msg, column))
}

func isForeignKey(err error) bool {
	code, _, ok := constraintErr(err)
	return ok && code == sqlite3.ErrConstraintForeignKey
}
