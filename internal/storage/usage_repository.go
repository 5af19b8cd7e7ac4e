package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/sports-ingest/internal/models"
)

// UsageRepository handles the per-day, per-provider call counters. Counter
// rows are only ever created and incremented; a new day gets a new row.
type UsageRepository struct {
	db *PostgresDB
}

// NewUsageRepository creates a new usage repository
func NewUsageRepository(db *PostgresDB) *UsageRepository {
	return &UsageRepository{db: db}
}

// GetCounter retrieves the counter for a provider and date. Returns nil
// without error when no row exists yet for that date.
func (r *UsageRepository) GetCounter(ctx context.Context, provider, date string) (*models.UsageCounter, error) {
	query := `
		SELECT provider, usage_date, total_calls, updated_at
		FROM usage_counters
		WHERE provider = $1 AND usage_date = $2
	`

	var counter models.UsageCounter
	err := r.db.Pool().QueryRow(ctx, query, provider, date).Scan(
		&counter.Provider,
		&counter.Date,
		&counter.TotalCalls,
		&counter.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get usage counter: %w", err)
	}

	return &counter, nil
}

// IncrementCounter atomically increments the day's counter, creating the row
// on first call of the day.
func (r *UsageRepository) IncrementCounter(ctx context.Context, provider, date string) error {
	query := `
		INSERT INTO usage_counters (provider, usage_date, total_calls)
		VALUES ($1, $2, 1)
		ON CONFLICT (provider, usage_date) DO UPDATE SET
			total_calls = usage_counters.total_calls + 1,
			updated_at = NOW()
	`

	if _, err := r.db.Pool().Exec(ctx, query, provider, date); err != nil {
		return fmt.Errorf("failed to increment usage counter: %w", err)
	}
	return nil
}
