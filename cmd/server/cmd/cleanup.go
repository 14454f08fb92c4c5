package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"memvoice/internal/app/server"
)

var cleanupCmd = &cobra.Command{
	Use:   "cleanup",
	Short: "Удалить записи памяти с истёкшим сроком",
	Long: `Удаляет истёкшие записи из базы и из векторного индекса.
Подходит для запуска по cron, если периодическая очистка в serve выключена.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		app, err := server.New(cmd.Context(), cfg, log)
		if err != nil {
			return fmt.Errorf("ошибка инициализации приложения: %w", err)
		}
		defer app.Close()

		count, err := app.Memories.CleanupExpired(cmd.Context())
		if err != nil {
			return fmt.Errorf("очистка прервана после %d записей: %w", count, err)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Удалено записей: %d\n", count)
		return nil
	},
}
