package port

import (
	"context"

	"damage-control-bot/internal/domain/entity"
)

// ClaimRepository история решений по заявкам
type ClaimRepository interface {
	// Save сохраняет решение
	Save(ctx context.Context, record *entity.ClaimRecord) error

	// ListByUser возвращает последние решения пользователя, новые первыми
	ListByUser(ctx context.Context, userID int64, limit int) ([]*entity.ClaimRecord, error)
}
