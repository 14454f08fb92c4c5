package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"memvoice/internal/app/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Запустить HTTP сервер",
	Long: `Применяет миграции, поднимает векторный индекс и HTTP API.
Останавливается по SIGINT/SIGTERM с корректным завершением активных запросов.`,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, _ []string) error {
	app, err := server.New(cmd.Context(), cfg, log)
	if err != nil {
		return fmt.Errorf("ошибка инициализации приложения: %w", err)
	}
	defer app.Close()

	return app.Run(cmd.Context())
}
