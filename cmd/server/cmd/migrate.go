package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"memvoice/internal/infrastructure/migration"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Управление схемой базы данных",
	Long: `Миграции встроены в бинарник и применяются к DATABASE_URI.
serve применяет их автоматически, migrate нужен для отката и диагностики.`,
}

var migrateUpCmd = &cobra.Command{
	Use:   "up",
	Short: "Применить все миграции",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withMigration(func(mg *migration.Migration) error {
			if err := mg.Up(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "✓ Миграции применены")
			return nil
		})
	},
}

var migrateDownCmd = &cobra.Command{
	Use:   "down",
	Short: "Откатить все миграции",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withMigration(func(mg *migration.Migration) error {
			if err := mg.Down(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "✓ Миграции откачены")
			return nil
		})
	},
}

var migrateVersionCmd = &cobra.Command{
	Use:   "version",
	Short: "Показать текущую версию схемы",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withMigration(func(mg *migration.Migration) error {
			version, dirty, err := mg.Version()
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "version: %d, dirty: %t\n", version, dirty)
			return nil
		})
	},
}

func withMigration(fn func(*migration.Migration) error) error {
	engine, closer, err := migration.EngineFor(cfg.DB.DatabaseURI)
	if err != nil {
		return err
	}
	defer closer()

	return fn(migration.NewMigration(engine, log))
}

func init() {
	migrateCmd.AddCommand(migrateUpCmd, migrateDownCmd, migrateVersionCmd)
}
