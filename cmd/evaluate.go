package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"damage-control-bot/config"
	"damage-control-bot/internal/domain/coverage"
	"damage-control-bot/internal/domain/entity"
	"damage-control-bot/internal/infrastructure/document"
	"damage-control-bot/internal/infrastructure/inference"
)

type evaluateOptions struct {
	detectionsPath string
	depthPath      string
	contractPath   string
	damageType     string
	tablesPath     string
	iouThreshold   float64
}

func newEvaluateCommand() *cobra.Command {
	opts := &evaluateOptions{}

	cmd := &cobra.Command{
		Use:   "evaluate",
		Short: "Принять решение по заявке без бота",
		Long: `Читает детекции (JSON сервиса моделей), необязательную статистику глубины
и договор (PDF, TXT или скан), применяет правила покрытия и печатает решение в JSON.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			newLogger(cmd, cfg.LogLevel)

			if !cmd.Flags().Changed("tables") {
				opts.tablesPath = cfg.TablesPath
			}
			if !cmd.Flags().Changed("iou") {
				opts.iouThreshold = cfg.IoUThreshold
			}

			decision, err := runEvaluate(cmd.Context(), opts)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), decision)
		},
	}

	cmd.Flags().StringVar(&opts.detectionsPath, "detections", "", "JSON with detections (\"-\" for stdin)")
	cmd.Flags().StringVar(&opts.depthPath, "depth", "", "JSON with depth statistics")
	cmd.Flags().StringVar(&opts.contractPath, "contract", "", "Contract document (.pdf, .txt or scanned image)")
	cmd.Flags().StringVar(&opts.damageType, "damage-type", "", "Damage type, e.g. accident, theft, windshield")
	cmd.Flags().StringVar(&opts.tablesPath, "tables", "", "YAML with cost table and coverage map")
	cmd.Flags().Float64Var(&opts.iouThreshold, "iou", coverage.DefaultIoUThreshold, "IoU threshold for duplicate detections")
	_ = cmd.MarkFlagRequired("detections")
	_ = cmd.MarkFlagRequired("contract")
	_ = cmd.MarkFlagRequired("damage-type")

	return cmd
}

func runEvaluate(ctx context.Context, opts *evaluateOptions) (*entity.Decision, error) {
	if opts.iouThreshold <= 0 || opts.iouThreshold > 1 {
		return nil, fmt.Errorf("iou threshold must be in (0, 1], got %v", opts.iouThreshold)
	}
	if opts.damageType == "" {
		return nil, errors.New("damage type is required")
	}

	tables, err := coverage.LoadTables(opts.tablesPath)
	if err != nil {
		return nil, fmt.Errorf("load tables: %w", err)
	}

	detections, err := readDetections(opts.detectionsPath)
	if err != nil {
		return nil, err
	}

	var depth *entity.DepthStats
	if opts.depthPath != "" {
		f, err := os.Open(opts.depthPath)
		if err != nil {
			return nil, fmt.Errorf("open depth stats: %w", err)
		}
		defer f.Close()
		if depth, err = inference.DecodeDepthStats(f); err != nil {
			return nil, err
		}
	}

	data, err := os.ReadFile(opts.contractPath)
	if err != nil {
		return nil, fmt.Errorf("read contract: %w", err)
	}
	text, err := document.NewExtractor("fra").ExtractText(ctx, filepath.Base(opts.contractPath), data)
	if err != nil {
		return nil, fmt.Errorf("extract contract text: %w", err)
	}

	engine := coverage.NewEngine(tables, opts.iouThreshold)
	return engine.Evaluate(detections, depth, text, opts.damageType)
}

func readDetections(path string) ([]entity.Detection, error) {
	var r io.Reader = os.Stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open detections: %w", err)
		}
		defer f.Close()
		r = f
	}
	return inference.DecodeDetections(r)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}
