package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

var version = "dev"

func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "damage-control-bot",
		Short: "Проверка страхового покрытия повреждений автомобиля",
		Long: `Telegram-бот и CLI: по фото повреждения и договору страхования
оценивает ущерб, проверяет гарантии, франшизу и лимит и считает возмещение.`,
		Version:      version,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().Bool("debug", false, "Enable debug logging")

	cmd.AddCommand(newServeCommand())
	cmd.AddCommand(newEvaluateCommand())

	return cmd
}

// newLogger текстовый логгер в stderr; --debug важнее уровня из конфига
func newLogger(cmd *cobra.Command, level slog.Level) *slog.Logger {
	if debug, _ := cmd.Flags().GetBool("debug"); debug {
		level = slog.LevelDebug
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	return logger
}
