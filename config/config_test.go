package config

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func setEnv(t *testing.T, kv map[string]string) {
	t.Helper()
	for _, key := range []string{"TELEGRAM_TOKEN", "INFERENCE_URL", "INFERENCE_TIMEOUT", "IOU_THRESHOLD", "TABLES_PATH", "LOG_LEVEL"} {
		t.Setenv(key, "")
	}
	t.Setenv("DATABASE_PATH", "claims.db")
	for k, v := range kv {
		t.Setenv(k, v)
	}
}

func TestLoad_Defaults(t *testing.T) {
	setEnv(t, map[string]string{"TELEGRAM_TOKEN": "token"})

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "token", cfg.TelegramToken)
	require.Equal(t, "http://localhost:5000", cfg.InferenceURL)
	require.Equal(t, 60*time.Second, cfg.InferenceTimeout)
	require.Equal(t, 0.5, cfg.IoUThreshold)
	require.Equal(t, "claims.db", cfg.DatabasePath)
	require.Empty(t, cfg.TablesPath)
	require.Equal(t, slog.LevelInfo, cfg.LogLevel)
}

func TestLoad_Overrides(t *testing.T) {
	setEnv(t, map[string]string{
		"INFERENCE_URL":     "http://models:8000",
		"INFERENCE_TIMEOUT": "15s",
		"IOU_THRESHOLD":     "0.7",
		"TABLES_PATH":       "/etc/tables.yaml",
		"DATABASE_PATH":     "",
		"LOG_LEVEL":         "debug",
	})

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "http://models:8000", cfg.InferenceURL)
	require.Equal(t, 15*time.Second, cfg.InferenceTimeout)
	require.Equal(t, 0.7, cfg.IoUThreshold)
	require.Equal(t, "/etc/tables.yaml", cfg.TablesPath)
	require.Empty(t, cfg.DatabasePath)
	require.Equal(t, slog.LevelDebug, cfg.LogLevel)
}

func TestLoad_Invalid(t *testing.T) {
	cases := map[string]map[string]string{
		"iou not a number": {"IOU_THRESHOLD": "half"},
		"iou zero":         {"IOU_THRESHOLD": "0"},
		"iou above one":    {"IOU_THRESHOLD": "1.5"},
		"timeout":          {"INFERENCE_TIMEOUT": "soon"},
		"negative timeout": {"INFERENCE_TIMEOUT": "-1s"},
		"log level":        {"LOG_LEVEL": "loud"},
	}
	for name, env := range cases {
		t.Run(name, func(t *testing.T) {
			setEnv(t, env)
			_, err := Load()
			require.Error(t, err)
		})
	}
}

func TestParseLogLevel(t *testing.T) {
	level, err := ParseLogLevel("WARN")
	require.NoError(t, err)
	require.Equal(t, slog.LevelWarn, level)

	level, err = ParseLogLevel(" error ")
	require.NoError(t, err)
	require.Equal(t, slog.LevelError, level)
}
