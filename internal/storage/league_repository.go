package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/sports-ingest/internal/models"
)

// LeagueRepository handles league persistence. Leagues are keyed by
// (provider, external_id); upserts never touch created_at.
type LeagueRepository struct {
	db *PostgresDB
}

// NewLeagueRepository creates a new league repository
func NewLeagueRepository(db *PostgresDB) *LeagueRepository {
	return &LeagueRepository{db: db}
}

// FindByExternalID retrieves a league by its natural key. Returns nil
// without error when no record exists.
func (r *LeagueRepository) FindByExternalID(ctx context.Context, provider string, externalID int) (*models.League, error) {
	query := `
		SELECT id, provider, external_id, name, code, country, logo_url, season,
			   created_at, updated_at
		FROM leagues
		WHERE provider = $1 AND external_id = $2
	`

	var league models.League
	err := r.db.Pool().QueryRow(ctx, query, provider, externalID).Scan(
		&league.ID,
		&league.Provider,
		&league.ExternalID,
		&league.Name,
		&league.Code,
		&league.Country,
		&league.LogoURL,
		&league.Season,
		&league.CreatedAt,
		&league.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find league: %w", err)
	}

	return &league, nil
}

// Upsert inserts or updates a league by natural key. Returns the row ID and
// whether the row was created (as opposed to updated).
func (r *LeagueRepository) Upsert(ctx context.Context, league *models.League) (int64, bool, error) {
	query := `
		INSERT INTO leagues (provider, external_id, name, code, country, logo_url, season)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (provider, external_id) DO UPDATE SET
			name = EXCLUDED.name,
			code = EXCLUDED.code,
			country = EXCLUDED.country,
			logo_url = EXCLUDED.logo_url,
			season = EXCLUDED.season,
			updated_at = NOW()
		RETURNING id, (xmax = 0) AS created
	`

	var id int64
	var created bool
	err := r.db.Pool().QueryRow(ctx, query,
		league.Provider,
		league.ExternalID,
		league.Name,
		league.Code,
		league.Country,
		league.LogoURL,
		league.Season,
	).Scan(&id, &created)
	if err != nil {
		return 0, false, fmt.Errorf("failed to upsert league %d: %w", league.ExternalID, err)
	}

	return id, created, nil
}

// ListByExternalIDs retrieves leagues whose external IDs are in the given
// set, preserving only rows that exist.
func (r *LeagueRepository) ListByExternalIDs(ctx context.Context, provider string, externalIDs []int) ([]*models.League, error) {
	query := `
		SELECT id, provider, external_id, name, code, country, logo_url, season,
			   created_at, updated_at
		FROM leagues
		WHERE provider = $1 AND external_id = ANY($2)
		ORDER BY external_id
	`

	rows, err := r.db.Pool().Query(ctx, query, provider, externalIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to list leagues: %w", err)
	}
	defer rows.Close()

	return scanLeagues(rows)
}

// ListBySeason retrieves all leagues ingested for a season.
func (r *LeagueRepository) ListBySeason(ctx context.Context, provider, season string) ([]*models.League, error) {
	query := `
		SELECT id, provider, external_id, name, code, country, logo_url, season,
			   created_at, updated_at
		FROM leagues
		WHERE provider = $1 AND season = $2
		ORDER BY external_id
	`

	rows, err := r.db.Pool().Query(ctx, query, provider, season)
	if err != nil {
		return nil, fmt.Errorf("failed to list leagues by season: %w", err)
	}
	defer rows.Close()

	return scanLeagues(rows)
}

func scanLeagues(rows pgx.Rows) ([]*models.League, error) {
	var leagues []*models.League
	for rows.Next() {
		var league models.League
		if err := rows.Scan(
			&league.ID,
			&league.Provider,
			&league.ExternalID,
			&league.Name,
			&league.Code,
			&league.Country,
			&league.LogoURL,
			&league.Season,
			&league.CreatedAt,
			&league.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan league: %w", err)
		}
		leagues = append(leagues, &league)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate leagues: %w", err)
	}
	return leagues, nil
}
