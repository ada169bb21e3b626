package port

import (
	"context"

	"damage-control-bot/internal/domain/entity"
)

// PartDetector интерфейс детектора деталей автомобиля
type PartDetector interface {
	// DetectParts возвращает детекции деталей на изображении (без дедупликации)
	DetectParts(ctx context.Context, imageData []byte) ([]entity.Detection, error)
}

// DepthEstimator интерфейс оценщика карты глубины
type DepthEstimator interface {
	// EstimateDepth возвращает статистику карты глубины изображения
	EstimateDepth(ctx context.Context, imageData []byte) (*entity.DepthStats, error)
}

// ImageInspector проверка качества снимка и подсветка деталей
type ImageInspector interface {
	// CheckQuality возвращает ошибку, если снимок непригоден для анализа
	CheckQuality(ctx context.Context, imageData []byte) error

	// HighlightDetections создаёт изображение с подписанными рамками деталей
	HighlightDetections(imageData []byte, detections []entity.Detection) ([]byte, error)
}
