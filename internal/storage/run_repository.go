package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/sports-ingest/internal/models"
)

// RunRepository persists consolidated ingestion run summaries. One row per
// orchestrated run; the stage breakdown lives in a JSONB column.
type RunRepository struct {
	db *PostgresDB
}

// NewRunRepository creates a new run repository
func NewRunRepository(db *PostgresDB) *RunRepository {
	return &RunRepository{db: db}
}

// Insert stores one completed run summary.
func (r *RunRepository) Insert(ctx context.Context, summary *models.RunSummary) error {
	query := `
		INSERT INTO ingestion_runs (run_id, job_type, season, stages,
			skipped_stages, total_api_calls, success, error, started_at,
			completed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err := r.db.Pool().Exec(ctx, query,
		summary.RunID,
		summary.JobType,
		summary.Season,
		summary.Stages,
		summary.SkippedStages,
		summary.TotalAPICalls,
		summary.Success,
		nullableString(summary.Error),
		summary.StartedAt,
		summary.CompletedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert ingestion run %s: %w", summary.RunID, err)
	}
	return nil
}

// Latest retrieves the most recently completed run, nil when none exists.
func (r *RunRepository) Latest(ctx context.Context) (*models.RunSummary, error) {
	query := `
		SELECT run_id, job_type, season, stages, skipped_stages,
			   total_api_calls, success, COALESCE(error, ''), started_at,
			   completed_at
		FROM ingestion_runs
		ORDER BY completed_at DESC
		LIMIT 1
	`

	var summary models.RunSummary
	err := r.db.Pool().QueryRow(ctx, query).Scan(
		&summary.RunID,
		&summary.JobType,
		&summary.Season,
		&summary.Stages,
		&summary.SkippedStages,
		&summary.TotalAPICalls,
		&summary.Success,
		&summary.Error,
		&summary.StartedAt,
		&summary.CompletedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get latest run: %w", err)
	}

	return &summary, nil
}

func nullableString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
