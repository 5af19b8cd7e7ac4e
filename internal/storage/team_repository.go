package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/sports-ingest/internal/models"
)

// TeamRepository handles team persistence.
type TeamRepository struct {
	db *PostgresDB
}

// NewTeamRepository creates a new team repository
func NewTeamRepository(db *PostgresDB) *TeamRepository {
	return &TeamRepository{db: db}
}

// FindByExternalID retrieves a team by its natural key. Returns nil without
// error when no record exists.
func (r *TeamRepository) FindByExternalID(ctx context.Context, provider string, externalID int) (*models.Team, error) {
	query := `
		SELECT id, provider, external_id, league_id, name, short_name, country,
			   founded, crest_url, season, created_at, updated_at
		FROM teams
		WHERE provider = $1 AND external_id = $2
	`

	var team models.Team
	err := r.db.Pool().QueryRow(ctx, query, provider, externalID).Scan(
		&team.ID,
		&team.Provider,
		&team.ExternalID,
		&team.LeagueID,
		&team.Name,
		&team.ShortName,
		&team.Country,
		&team.Founded,
		&team.CrestURL,
		&team.Season,
		&team.CreatedAt,
		&team.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find team: %w", err)
	}

	return &team, nil
}

// Upsert inserts or updates a team by natural key. Returns the row ID and
// whether the row was created.
func (r *TeamRepository) Upsert(ctx context.Context, team *models.Team) (int64, bool, error) {
	query := `
		INSERT INTO teams (provider, external_id, league_id, name, short_name,
			country, founded, crest_url, season)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (provider, external_id) DO UPDATE SET
			league_id = EXCLUDED.league_id,
			name = EXCLUDED.name,
			short_name = EXCLUDED.short_name,
			country = EXCLUDED.country,
			founded = EXCLUDED.founded,
			crest_url = EXCLUDED.crest_url,
			season = EXCLUDED.season,
			updated_at = NOW()
		RETURNING id, (xmax = 0) AS created
	`

	var id int64
	var created bool
	err := r.db.Pool().QueryRow(ctx, query,
		team.Provider,
		team.ExternalID,
		team.LeagueID,
		team.Name,
		team.ShortName,
		team.Country,
		team.Founded,
		team.CrestURL,
		team.Season,
	).Scan(&id, &created)
	if err != nil {
		return 0, false, fmt.Errorf("failed to upsert team %d: %w", team.ExternalID, err)
	}

	return id, created, nil
}

// ListByLeague retrieves the teams of a league. A limit of 0 means no limit.
func (r *TeamRepository) ListByLeague(ctx context.Context, leagueID int64, limit int) ([]*models.Team, error) {
	query := `
		SELECT id, provider, external_id, league_id, name, short_name, country,
			   founded, crest_url, season, created_at, updated_at
		FROM teams
		WHERE league_id = $1
		ORDER BY external_id
	`
	args := []interface{}{leagueID}
	if limit > 0 {
		query += ` LIMIT $2`
		args = append(args, limit)
	}

	rows, err := r.db.Pool().Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list teams: %w", err)
	}
	defer rows.Close()

	var teams []*models.Team
	for rows.Next() {
		var team models.Team
		if err := rows.Scan(
			&team.ID,
			&team.Provider,
			&team.ExternalID,
			&team.LeagueID,
			&team.Name,
			&team.ShortName,
			&team.Country,
			&team.Founded,
			&team.CrestURL,
			&team.Season,
			&team.CreatedAt,
			&team.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan team: %w", err)
		}
		teams = append(teams, &team)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate teams: %w", err)
	}
	return teams, nil
}
