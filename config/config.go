package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	defaultInferenceURL     = "http://localhost:5000"
	defaultInferenceTimeout = 60 * time.Second
	defaultIoUThreshold     = 0.5
	defaultDatabasePath     = "claims.db"
)

type Config struct {
	TelegramToken    string
	InferenceURL     string
	InferenceTimeout time.Duration
	IoUThreshold     float64
	TablesPath       string // пусто: встроенные таблицы
	DatabasePath     string // пусто: история заявок не ведётся
	LogLevel         slog.Level
}

func Load() (*Config, error) {
	// Загружаем .env файл (игнорируем ошибку если файла нет)
	_ = godotenv.Load()

	timeout, err := getEnvAsDuration("INFERENCE_TIMEOUT", defaultInferenceTimeout)
	if err != nil {
		return nil, err
	}
	if timeout <= 0 {
		return nil, fmt.Errorf("INFERENCE_TIMEOUT must be positive, got %s", timeout)
	}

	iou, err := getEnvAsFloat("IOU_THRESHOLD", defaultIoUThreshold)
	if err != nil {
		return nil, err
	}
	if iou <= 0 || iou > 1 {
		return nil, fmt.Errorf("IOU_THRESHOLD must be in (0, 1], got %v", iou)
	}

	level, err := ParseLogLevel(getEnv("LOG_LEVEL", "info"))
	if err != nil {
		return nil, err
	}

	dbPath, ok := os.LookupEnv("DATABASE_PATH")
	if !ok {
		dbPath = defaultDatabasePath
	}

	cfg := &Config{
		TelegramToken:    os.Getenv("TELEGRAM_TOKEN"),
		InferenceURL:     getEnv("INFERENCE_URL", defaultInferenceURL),
		InferenceTimeout: timeout,
		IoUThreshold:     iou,
		TablesPath:       os.Getenv("TABLES_PATH"),
		DatabasePath:     strings.TrimSpace(dbPath),
		LogLevel:         level,
	}

	return cfg, nil
}

// ParseLogLevel разбирает debug|info|warn|error
func ParseLogLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return slog.LevelInfo, fmt.Errorf("invalid LOG_LEVEL %q: %w", s, err)
	}
	return level, nil
}

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvAsFloat(key string, defaultValue float64) (float64, error) {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue, nil
	}
	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, valueStr, err)
	}
	return value, nil
}

func getEnvAsDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue, nil
	}
	value, err := time.ParseDuration(valueStr)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, valueStr, err)
	}
	return value, nil
}
