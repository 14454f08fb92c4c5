package migration

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	// Blank import required for PostgreSQL driver registration for migrations
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"golang.org/x/exp/slog"
)

//go:embed migrations
var migrationsFS embed.FS

// Migrator - интерфейс для самой библиотеки migrate.Migrate
type Migrator interface {
	Up() error
	Down() error
	Version() (uint, bool, error)
	Close() (error, error)
}

// MigrationEngine - фабрика мигратора, в тестах подменяется моком
type MigrationEngine func() (Migrator, error)

type Migration struct {
	engine MigrationEngine
	log    *slog.Logger
}

func NewMigration(engine MigrationEngine, log *slog.Logger) *Migration {
	return &Migration{
		engine: engine,
		log:    log.With("component", "migration"),
	}
}

// PostgresEngine - миграции из embed для postgres://
func PostgresEngine(databaseURL string) MigrationEngine {
	return func() (Migrator, error) {
		src, err := iofs.New(migrationsFS, "migrations/postgres")
		if err != nil {
			return nil, fmt.Errorf("migration source: %w", err)
		}
		return migrate.NewWithSourceInstance("iofs", src, databaseURL)
	}
}

// SQLiteEngine работает поверх уже открытого соединения, иначе :memory: базы не совпадут
func SQLiteEngine(db *sql.DB) MigrationEngine {
	return func() (Migrator, error) {
		src, err := iofs.New(migrationsFS, "migrations/sqlite3")
		if err != nil {
			return nil, fmt.Errorf("migration source: %w", err)
		}

		drv, err := sqlite3.WithInstance(db, &sqlite3.Config{})
		if err != nil {
			return nil, fmt.Errorf("migration driver: %w", err)
		}

		m, err := migrate.NewWithInstance("iofs", src, "sqlite3", drv)
		if err != nil {
			return nil, err
		}
		return borrowedDB{m}, nil
	}
}

// borrowedDB не закрывает соединение: им владеет хранилище
type borrowedDB struct {
	*migrate.Migrate
}

func (borrowedDB) Close() (error, error) {
	return nil, nil
}

func (mg *Migration) Up() (err error) {
	m, err := mg.engine()
	if err != nil {
		return err
	}
	defer func() {
		err = closeMigrator(m, err)
	}()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("%w; migration up error", err)
	}

	mg.logVersion(m)
	return nil
}

func (mg *Migration) Down() (err error) {
	m, err := mg.engine()
	if err != nil {
		return err
	}
	defer func() {
		err = closeMigrator(m, err)
	}()

	if err := m.Down(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("%w; migration down error", err)
	}

	mg.log.Info("migrations rolled back")
	return nil
}

// Version возвращает текущую версию схемы; 0 и false, если миграций не было
func (mg *Migration) Version() (version uint, dirty bool, err error) {
	m, err := mg.engine()
	if err != nil {
		return 0, false, err
	}
	defer func() {
		err = closeMigrator(m, err)
	}()

	version, dirty, err = m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, nil
	}
	return version, dirty, err
}

func (mg *Migration) logVersion(m Migrator) {
	version, dirty, err := m.Version()
	if err != nil {
		return
	}
	mg.log.Info("migrations applied", "version", version, "dirty", dirty)
}

func closeMigrator(m Migrator, err error) error {
	serr, dberr := m.Close()
	if serr != nil {
		if err != nil {
			err = fmt.Errorf("%w; migration source error: %v", err, serr)
		} else {
			err = serr
		}
	}
	if dberr != nil {
		if err != nil {
			err = fmt.Errorf("%w; migration database error: %v", err, dberr)
		} else {
			err = dberr
		}
	}
	return err
}
