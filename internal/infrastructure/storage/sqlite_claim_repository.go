package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"damage-control-bot/internal/domain/entity"
	"damage-control-bot/internal/domain/port"
)

// SQLiteClaimRepository хранит историю решений в SQLite
type SQLiteClaimRepository struct {
	db *sql.DB
}

// NewSQLiteClaimRepository открывает (или создаёт) базу по пути dbPath
func NewSQLiteClaimRepository(dbPath string) (*SQLiteClaimRepository, error) {
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(10000)&_pragma=journal_mode(WAL)", dbPath)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite сериализует запись, большой пул не нужен
	db.SetMaxOpenConns(4)
	db.SetConnMaxLifetime(time.Hour)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	repo := &SQLiteClaimRepository{db: db}
	if err := repo.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return repo, nil
}

// Close закрывает соединение с базой
func (r *SQLiteClaimRepository) Close() error {
	return r.db.Close()
}

func (r *SQLiteClaimRepository) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS claims (
		id TEXT PRIMARY KEY,
		user_id INTEGER NOT NULL,
		damage_type TEXT NOT NULL,
		covered INTEGER NOT NULL,
		reimbursement REAL NOT NULL,
		created_at DATETIME NOT NULL,
		data TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_claims_user_id ON claims(user_id, created_at);
	`
	_, err := r.db.Exec(schema)
	return err
}

// Save сохраняет решение по заявке
func (r *SQLiteClaimRepository) Save(ctx context.Context, record *entity.ClaimRecord) error {
	if record.Decision == nil {
		return fmt.Errorf("claim %s has no decision", record.ID)
	}

	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to marshal claim: %w", err)
	}

	query := `
		INSERT OR REPLACE INTO claims (id, user_id, damage_type, covered, reimbursement, created_at, data)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	_, err = r.db.ExecContext(ctx, query,
		record.ID,
		record.UserID,
		record.Decision.DamageType,
		record.Decision.Covered,
		record.Decision.Reimbursement,
		record.CreatedAt,
		string(data),
	)
	if err != nil {
		return fmt.Errorf("failed to save claim: %w", err)
	}

	return nil
}

// ListByUser возвращает последние решения пользователя, новые первыми
func (r *SQLiteClaimRepository) ListByUser(ctx context.Context, userID int64, limit int) ([]*entity.ClaimRecord, error) {
	query := `SELECT data FROM claims WHERE user_id = ? ORDER BY created_at DESC, rowid DESC LIMIT ?`

	rows, err := r.db.QueryContext(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list claims: %w", err)
	}
	defer rows.Close()

	records := make([]*entity.ClaimRecord, 0, limit)
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("failed to scan claim: %w", err)
		}

		var record entity.ClaimRecord
		if err := json.Unmarshal([]byte(data), &record); err != nil {
			return nil, fmt.Errorf("failed to unmarshal claim: %w", err)
		}
		records = append(records, &record)
	}

	return records, rows.Err()
}

// Проверка реализации интерфейса
var _ port.ClaimRepository = (*SQLiteClaimRepository)(nil)
