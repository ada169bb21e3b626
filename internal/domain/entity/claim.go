package entity

import (
	"time"

	"github.com/google/uuid"
)

// ClaimRecord сохранённое решение по заявке пользователя
type ClaimRecord struct {
	ID        string    `json:"id"`
	UserID    int64     `json:"user_id"`
	Decision  *Decision `json:"decision"`
	CreatedAt time.Time `json:"created_at"`
}

// NewClaimRecord создаёт запись с новым идентификатором
func NewClaimRecord(userID int64, decision *Decision) *ClaimRecord {
	return &ClaimRecord{
		ID:        uuid.NewString(),
		UserID:    userID,
		Decision:  decision,
		CreatedAt: time.Now().UTC(),
	}
}
