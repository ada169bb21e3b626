package main

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"damage-control-bot/config"
	telegram "damage-control-bot/internal/api"
	"damage-control-bot/internal/container"
	"damage-control-bot/internal/domain/coverage"
	"damage-control-bot/internal/domain/port"
	"damage-control-bot/internal/infrastructure/document"
	"damage-control-bot/internal/infrastructure/inference"
	"damage-control-bot/internal/infrastructure/storage"
	"damage-control-bot/internal/infrastructure/vision"
)

func newServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Запустить Telegram-бота",
		Args:  cobra.NoArgs,
		RunE:  serveCommandE,
	}
}

func serveCommandE(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logger := newLogger(cmd, cfg.LogLevel)

	if cfg.TelegramToken == "" {
		return errors.New("TELEGRAM_TOKEN is required")
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	tables, err := coverage.LoadTables(cfg.TablesPath)
	if err != nil {
		return fmt.Errorf("load tables: %w", err)
	}
	engine := coverage.NewEngine(tables, cfg.IoUThreshold)

	deps := container.Deps{
		UserRepo:  storage.NewMemoryUserRepository(),
		Extractor: document.NewExtractor("fra"),
		Logger:    logger,
	}

	// Создаём хранилище заявок
	if cfg.DatabasePath != "" {
		claimRepo, err := storage.NewSQLiteClaimRepository(cfg.DatabasePath)
		if err != nil {
			return fmt.Errorf("open claim history: %w", err)
		}
		defer claimRepo.Close()
		deps.ClaimRepo = claimRepo
	} else {
		logger.Warn("DATABASE_PATH is empty, claim history is disabled")
	}

	client := inference.NewClient(cfg.InferenceURL, cfg.InferenceTimeout)
	if err := client.CheckHealth(ctx); err != nil {
		logger.Warn("inference service is not reachable", "url", cfg.InferenceURL, "error", err)
	}
	deps.Detector = client
	deps.Depth = client

	var inspector port.ImageInspector
	if vision.Enabled {
		inspector = vision.NewInspector()
	} else {
		logger.Info("built without gocv: quality gate and highlighting are off")
	}
	deps.Inspector = inspector

	if !document.OCREnabled {
		logger.Info("built without ocr: scanned contracts are not supported")
	}

	// Собираем сервисы приложения
	appContainer := container.New(engine, deps)

	bot, err := telegram.NewBot(cfg.TelegramToken, appContainer, logger)
	if err != nil {
		return fmt.Errorf("create bot: %w", err)
	}

	logger.Info("bot is running", "inference", cfg.InferenceURL, "iou_threshold", cfg.IoUThreshold)
	if err := bot.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("bot: %w", err)
	}

	logger.Info("bot stopped")
	return nil
}
