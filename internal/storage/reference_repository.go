package storage

import (
	"context"
	"fmt"

	"github.com/sports-ingest/internal/models"
)

// ReferenceRepository seeds and reads static reference data (player
// positions, statistics windows). Seeding is idempotent; it runs at the head
// of every orchestrated ingestion.
type ReferenceRepository struct {
	db *PostgresDB
}

// NewReferenceRepository creates a new reference repository
func NewReferenceRepository(db *PostgresDB) *ReferenceRepository {
	return &ReferenceRepository{db: db}
}

// SeedPositions inserts any missing position rows.
func (r *ReferenceRepository) SeedPositions(ctx context.Context, positions []models.Position) error {
	query := `
		INSERT INTO positions (code, name)
		VALUES ($1, $2)
		ON CONFLICT (code) DO NOTHING
	`

	for _, p := range positions {
		if _, err := r.db.Pool().Exec(ctx, query, p.Code, p.Name); err != nil {
			return fmt.Errorf("failed to seed position %s: %w", p.Code, err)
		}
	}
	return nil
}

// SeedStatWindows inserts any missing stat window rows.
func (r *ReferenceRepository) SeedStatWindows(ctx context.Context, windows []models.StatWindow) error {
	query := `
		INSERT INTO stat_windows (code, name)
		VALUES ($1, $2)
		ON CONFLICT (code) DO NOTHING
	`

	for _, w := range windows {
		if _, err := r.db.Pool().Exec(ctx, query, w.Code, w.Name); err != nil {
			return fmt.Errorf("failed to seed stat window %s: %w", w.Code, err)
		}
	}
	return nil
}

// ListPositions retrieves all seeded positions.
func (r *ReferenceRepository) ListPositions(ctx context.Context) ([]models.Position, error) {
	rows, err := r.db.Pool().Query(ctx, `SELECT code, name FROM positions ORDER BY code`)
	if err != nil {
		return nil, fmt.Errorf("failed to list positions: %w", err)
	}
	defer rows.Close()

	var positions []models.Position
	for rows.Next() {
		var p models.Position
		if err := rows.Scan(&p.Code, &p.Name); err != nil {
			return nil, fmt.Errorf("failed to scan position: %w", err)
		}
		positions = append(positions, p)
	}
	return positions, rows.Err()
}
