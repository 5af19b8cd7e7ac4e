package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/sports-ingest/internal/models"
)

// PlayerStatsRepository handles player statistics snapshot persistence.
// Snapshots are keyed by (provider, player_external_id, season); the nested
// statistics groups live in JSONB columns and league_positions holds the
// per-league ranking map patched by the top-statistics ingester.
type PlayerStatsRepository struct {
	db *PostgresDB
}

// NewPlayerStatsRepository creates a new player stats repository
func NewPlayerStatsRepository(db *PostgresDB) *PlayerStatsRepository {
	return &PlayerStatsRepository{db: db}
}

// Find retrieves a snapshot by its natural key. Returns nil without error
// when no snapshot exists.
func (r *PlayerStatsRepository) Find(ctx context.Context, provider string, playerExternalID int, season string) (*models.PlayerStatsSnapshot, error) {
	query := `
		SELECT id, provider, player_external_id, player_id, season, player_name,
			   team_name, league_external_id, games, goals, shots, passes,
			   tackles, dribbles, cards, penalty, league_positions,
			   created_at, updated_at
		FROM player_stats_snapshots
		WHERE provider = $1 AND player_external_id = $2 AND season = $3
	`

	var snap models.PlayerStatsSnapshot
	err := r.db.Pool().QueryRow(ctx, query, provider, playerExternalID, season).Scan(
		&snap.ID,
		&snap.Provider,
		&snap.PlayerExternalID,
		&snap.PlayerID,
		&snap.Season,
		&snap.PlayerName,
		&snap.TeamName,
		&snap.LeagueExternalID,
		&snap.Games,
		&snap.Goals,
		&snap.Shots,
		&snap.Passes,
		&snap.Tackles,
		&snap.Dribbles,
		&snap.Cards,
		&snap.Penalty,
		&snap.LeaguePositions,
		&snap.CreatedAt,
		&snap.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find player stats snapshot: %w", err)
	}

	return &snap, nil
}

// Upsert inserts or overwrites the snapshot for one player+season. The
// league_positions map is deliberately excluded from the update list so the
// ranks patched by the top-statistics ingester survive a stats re-ingestion;
// created_at is likewise preserved.
func (r *PlayerStatsRepository) Upsert(ctx context.Context, snap *models.PlayerStatsSnapshot) (int64, bool, error) {
	query := `
		INSERT INTO player_stats_snapshots (provider, player_external_id,
			player_id, season, player_name, team_name, league_external_id,
			games, goals, shots, passes, tackles, dribbles, cards, penalty,
			league_positions)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
		ON CONFLICT (provider, player_external_id, season) DO UPDATE SET
			player_id = EXCLUDED.player_id,
			player_name = EXCLUDED.player_name,
			team_name = EXCLUDED.team_name,
			league_external_id = EXCLUDED.league_external_id,
			games = EXCLUDED.games,
			goals = EXCLUDED.goals,
			shots = EXCLUDED.shots,
			passes = EXCLUDED.passes,
			tackles = EXCLUDED.tackles,
			dribbles = EXCLUDED.dribbles,
			cards = EXCLUDED.cards,
			penalty = EXCLUDED.penalty,
			updated_at = NOW()
		RETURNING id, (xmax = 0) AS created
	`

	var id int64
	var created bool
	err := r.db.Pool().QueryRow(ctx, query,
		snap.Provider,
		snap.PlayerExternalID,
		snap.PlayerID,
		snap.Season,
		snap.PlayerName,
		snap.TeamName,
		snap.LeagueExternalID,
		snap.Games,
		snap.Goals,
		snap.Shots,
		snap.Passes,
		snap.Tackles,
		snap.Dribbles,
		snap.Cards,
		snap.Penalty,
		snap.LeaguePositions,
	).Scan(&id, &created)
	if err != nil {
		return 0, false, fmt.Errorf("failed to upsert player stats snapshot %d/%s: %w",
			snap.PlayerExternalID, snap.Season, err)
	}

	return id, created, nil
}

// PatchPosition sets one ranking category for one league inside the
// snapshot's league_positions map without touching any other field.
// Returns false when no snapshot exists for the natural key, in which case
// nothing is written; the caller decides whether that is an error.
func (r *PlayerStatsRepository) PatchPosition(ctx context.Context, provider string, playerExternalID int, season string, leagueExternalID int, category models.TopStatCategory, rank int) (bool, error) {
	// The category becomes a jsonb key, so only known categories may pass.
	known := false
	for _, c := range models.AllTopStatCategories() {
		if c == category {
			known = true
			break
		}
	}
	if !known {
		return false, fmt.Errorf("unknown top stat category %q", category)
	}

	query := `
		UPDATE player_stats_snapshots
		SET league_positions = jsonb_set(
				COALESCE(league_positions, '{}'::jsonb),
				ARRAY[$4::text],
				COALESCE(league_positions -> $4::text, '{}'::jsonb)
					|| jsonb_build_object($5::text, $6::int)
			),
			updated_at = NOW()
		WHERE provider = $1 AND player_external_id = $2 AND season = $3
	`

	tag, err := r.db.Pool().Exec(ctx, query,
		provider,
		playerExternalID,
		season,
		fmt.Sprintf("%d", leagueExternalID),
		string(category),
		rank,
	)
	if err != nil {
		return false, fmt.Errorf("failed to patch position for player %d: %w", playerExternalID, err)
	}

	return tag.RowsAffected() > 0, nil
}
