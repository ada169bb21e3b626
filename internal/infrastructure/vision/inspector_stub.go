//go:build !gocv
// +build !gocv

package vision

import (
	"context"
	"errors"

	"damage-control-bot/internal/domain/entity"
)

// Enabled сообщает, собран ли пакет с OpenCV
const Enabled = false

// ErrDisabled возвращается сборкой без тега gocv
var ErrDisabled = errors.New("gocv build tag is not enabled")

// ErrLowQuality снимок не прошёл проверку качества
var ErrLowQuality = errors.New("low image quality")

type Inspector struct {
	MinImageSide          int
	MinSharpnessEdgeRatio float64
	MaxOverexposedRatio   float64
	MaxUnderexposedRatio  float64
	MaxGlareRatio         float64
}

// NewInspector создаёт заглушку (без OpenCV).
func NewInspector() *Inspector {
	return &Inspector{
		MinImageSide:          320,
		MinSharpnessEdgeRatio: 0.008,
		MaxOverexposedRatio:   0.35,
		MaxUnderexposedRatio:  0.45,
		MaxGlareRatio:         0.08,
	}
}

// CheckQuality возвращает ошибку, если сборка без тега gocv.
func (ins *Inspector) CheckQuality(ctx context.Context, imageData []byte) error {
	_ = ctx
	_ = imageData
	return ErrDisabled
}

// HighlightDetections возвращает ошибку, если сборка без тега gocv.
func (ins *Inspector) HighlightDetections(imageData []byte, detections []entity.Detection) ([]byte, error) {
	_ = imageData
	_ = detections
	return nil, ErrDisabled
}
