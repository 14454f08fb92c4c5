package migration

import (
	"database/sql"
	"fmt"
	"strings"

	// драйвер database/sql для sqlite3
	_ "github.com/mattn/go-sqlite3"
)

// EngineFor выбирает движок миграций по схеме DATABASE_URI.
// closer освобождает соединение, открытое под sqlite.
func EngineFor(databaseURI string) (engine MigrationEngine, closer func() error, err error) {
	scheme, rest, ok := strings.Cut(databaseURI, "://")
	if !ok {
		return nil, nil, fmt.Errorf("database uri %q has no scheme", databaseURI)
	}

	switch scheme {
	case "postgres", "postgresql":
		return PostgresEngine(databaseURI), func() error { return nil }, nil
	case "sqlite3", "sqlite":
		if rest == "" || rest == ":memory:" {
			return nil, nil, fmt.Errorf("sqlite migrations need a file path, got %q", rest)
		}
		db, err := sql.Open("sqlite3", rest+"?_foreign_keys=on")
		if err != nil {
			return nil, nil, fmt.Errorf("open sqlite: %w", err)
		}
		return SQLiteEngine(db), db.Close, nil
	default:
		return nil, nil, fmt.Errorf("unsupported database scheme %q", scheme)
	}
}
