package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"damage-control-bot/internal/domain/entity"
)

func newTestClaimRepo(t *testing.T) *SQLiteClaimRepository {
	t.Helper()
	repo, err := NewSQLiteClaimRepository(filepath.Join(t.TempDir(), "claims.db"))
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })
	return repo
}

func TestSQLiteClaimRepository_SaveAndList(t *testing.T) {
	repo := newTestClaimRepo(t)
	ctx := context.Background()

	limit := 5000.0
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	for i, damageType := range []string{"accident", "theft", "fire"} {
		record := entity.NewClaimRecord(42, &entity.Decision{
			Covered:       i%2 == 0,
			DamageType:    damageType,
			Cap:           &limit,
			Reimbursement: float64(i * 100),
			Severity:      entity.SeverityMinor,
			Breakdown:     []entity.CostItem{{Part: "door", Confidence: 50, BaseCost: 1200, EstimatedCost: 600}},
		})
		record.CreatedAt = base.Add(time.Duration(i) * time.Hour)
		require.NoError(t, repo.Save(ctx, record))
	}
	require.NoError(t, repo.Save(ctx, entity.NewClaimRecord(7, &entity.Decision{DamageType: "accident"})))

	records, err := repo.ListByUser(ctx, 42, 2)
	require.NoError(t, err)
	require.Len(t, records, 2)
	require.Equal(t, "fire", records[0].Decision.DamageType)
	require.Equal(t, "theft", records[1].Decision.DamageType)
	require.Equal(t, 5000.0, *records[0].Decision.Cap)
	require.Equal(t, 600.0, records[0].Decision.Breakdown[0].EstimatedCost)

	other, err := repo.ListByUser(ctx, 7, 10)
	require.NoError(t, err)
	require.Len(t, other, 1)

	none, err := repo.ListByUser(ctx, 99, 10)
	require.NoError(t, err)
	require.Empty(t, none)
}

func TestSQLiteClaimRepository_RejectsEmptyDecision(t *testing.T) {
	repo := newTestClaimRepo(t)
	err := repo.Save(context.Background(), &entity.ClaimRecord{ID: "x", UserID: 1})
	require.Error(t, err)
}
