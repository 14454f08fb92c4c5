// cmd/server/cmd/root.go
package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/exp/slog"

	"memvoice/internal/app/server/config"
	"memvoice/internal/utils/logger"
)

var (
	envFile string
	cfg     *config.Config
	log     *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "memvoice",
	Short: "MemVoice - сервер персональной памяти с семантическим поиском",
	Long: `MemVoice хранит записи памяти пользователей, синхронизирует их
с векторным индексом и отдаёт семантический поиск по HTTP API.

Без подкоманды запускает HTTP сервер (то же, что serve).`,
	PersistentPreRunE: setup,
	RunE:              runServe,
	SilenceUsage:      true,
	SilenceErrors:     true,
}

func Execute(ctx context.Context) {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Ошибка: %v\n", err)
		os.Exit(1)
	}
}

func setup(_ *cobra.Command, _ []string) error {
	var err error
	cfg, err = config.Load(envFile)
	if err != nil {
		return fmt.Errorf("ошибка загрузки конфигурации: %w", err)
	}

	log = logger.New(cfg.Env)
	return nil
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", config.DefaultEnvPath, "файл с переменными окружения")

	rootCmd.AddCommand(serveCmd, migrateCmd, cleanupCmd, createSuperuserCmd)
}
