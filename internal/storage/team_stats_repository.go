package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/sports-ingest/internal/models"
)

// TeamStatsRepository handles team statistics snapshot persistence, keyed by
// (provider, team_external_id, league_external_id, season).
type TeamStatsRepository struct {
	db *PostgresDB
}

// NewTeamStatsRepository creates a new team stats repository
func NewTeamStatsRepository(db *PostgresDB) *TeamStatsRepository {
	return &TeamStatsRepository{db: db}
}

// Find retrieves a snapshot by its natural key. Returns nil without error
// when no snapshot exists.
func (r *TeamStatsRepository) Find(ctx context.Context, provider string, teamExternalID, leagueExternalID int, season string) (*models.TeamStatsSnapshot, error) {
	query := `
		SELECT id, provider, team_external_id, team_id, league_external_id,
			   season, team_name, form, fixtures, goals, clean_sheet,
			   failed_to_score, penalty, created_at, updated_at
		FROM team_stats_snapshots
		WHERE provider = $1 AND team_external_id = $2
		  AND league_external_id = $3 AND season = $4
	`

	var snap models.TeamStatsSnapshot
	err := r.db.Pool().QueryRow(ctx, query, provider, teamExternalID, leagueExternalID, season).Scan(
		&snap.ID,
		&snap.Provider,
		&snap.TeamExternalID,
		&snap.TeamID,
		&snap.LeagueExternalID,
		&snap.Season,
		&snap.TeamName,
		&snap.Form,
		&snap.Fixtures,
		&snap.Goals,
		&snap.CleanSheet,
		&snap.FailedToScore,
		&snap.Penalty,
		&snap.CreatedAt,
		&snap.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find team stats snapshot: %w", err)
	}

	return &snap, nil
}

// Upsert inserts or overwrites the snapshot for one team+league+season,
// preserving created_at on update.
func (r *TeamStatsRepository) Upsert(ctx context.Context, snap *models.TeamStatsSnapshot) (int64, bool, error) {
	query := `
		INSERT INTO team_stats_snapshots (provider, team_external_id, team_id,
			league_external_id, season, team_name, form, fixtures, goals,
			clean_sheet, failed_to_score, penalty)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (provider, team_external_id, league_external_id, season) DO UPDATE SET
			team_id = EXCLUDED.team_id,
			team_name = EXCLUDED.team_name,
			form = EXCLUDED.form,
			fixtures = EXCLUDED.fixtures,
			goals = EXCLUDED.goals,
			clean_sheet = EXCLUDED.clean_sheet,
			failed_to_score = EXCLUDED.failed_to_score,
			penalty = EXCLUDED.penalty,
			updated_at = NOW()
		RETURNING id, (xmax = 0) AS created
	`

	var id int64
	var created bool
	err := r.db.Pool().QueryRow(ctx, query,
		snap.Provider,
		snap.TeamExternalID,
		snap.TeamID,
		snap.LeagueExternalID,
		snap.Season,
		snap.TeamName,
		snap.Form,
		snap.Fixtures,
		snap.Goals,
		snap.CleanSheet,
		snap.FailedToScore,
		snap.Penalty,
	).Scan(&id, &created)
	if err != nil {
		return 0, false, fmt.Errorf("failed to upsert team stats snapshot %d/%s: %w",
			snap.TeamExternalID, snap.Season, err)
	}

	return id, created, nil
}
