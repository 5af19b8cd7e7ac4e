package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/sports-ingest/internal/models"
)

// PlayerRepository handles player persistence.
type PlayerRepository struct {
	db *PostgresDB
}

// NewPlayerRepository creates a new player repository
func NewPlayerRepository(db *PostgresDB) *PlayerRepository {
	return &PlayerRepository{db: db}
}

// FindByExternalID retrieves a player by its natural key. Returns nil
// without error when no record exists.
func (r *PlayerRepository) FindByExternalID(ctx context.Context, provider string, externalID int) (*models.Player, error) {
	query := `
		SELECT id, provider, external_id, team_id, league_id, first_name,
			   last_name, name, position, nationality, photo_url, date_of_birth,
			   created_at, updated_at
		FROM players
		WHERE provider = $1 AND external_id = $2
	`

	var player models.Player
	err := r.db.Pool().QueryRow(ctx, query, provider, externalID).Scan(
		&player.ID,
		&player.Provider,
		&player.ExternalID,
		&player.TeamID,
		&player.LeagueID,
		&player.FirstName,
		&player.LastName,
		&player.Name,
		&player.Position,
		&player.Nationality,
		&player.PhotoURL,
		&player.DateOfBirth,
		&player.CreatedAt,
		&player.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find player: %w", err)
	}

	return &player, nil
}

// Upsert inserts or updates a player by natural key. Returns the row ID and
// whether the row was created.
func (r *PlayerRepository) Upsert(ctx context.Context, player *models.Player) (int64, bool, error) {
	query := `
		INSERT INTO players (provider, external_id, team_id, league_id,
			first_name, last_name, name, position, nationality, photo_url,
			date_of_birth)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (provider, external_id) DO UPDATE SET
			team_id = EXCLUDED.team_id,
			league_id = EXCLUDED.league_id,
			first_name = EXCLUDED.first_name,
			last_name = EXCLUDED.last_name,
			name = EXCLUDED.name,
			position = EXCLUDED.position,
			nationality = EXCLUDED.nationality,
			photo_url = EXCLUDED.photo_url,
			date_of_birth = EXCLUDED.date_of_birth,
			updated_at = NOW()
		RETURNING id, (xmax = 0) AS created
	`

	var id int64
	var created bool
	err := r.db.Pool().QueryRow(ctx, query,
		player.Provider,
		player.ExternalID,
		player.TeamID,
		player.LeagueID,
		player.FirstName,
		player.LastName,
		player.Name,
		player.Position,
		player.Nationality,
		player.PhotoURL,
		player.DateOfBirth,
	).Scan(&id, &created)
	if err != nil {
		return 0, false, fmt.Errorf("failed to upsert player %d: %w", player.ExternalID, err)
	}

	return id, created, nil
}

// ListByTeam retrieves the players of a team.
func (r *PlayerRepository) ListByTeam(ctx context.Context, teamID int64) ([]*models.Player, error) {
	query := `
		SELECT id, provider, external_id, team_id, league_id, first_name,
			   last_name, name, position, nationality, photo_url, date_of_birth,
			   created_at, updated_at
		FROM players
		WHERE team_id = $1
		ORDER BY external_id
	`

	rows, err := r.db.Pool().Query(ctx, query, teamID)
	if err != nil {
		return nil, fmt.Errorf("failed to list players: %w", err)
	}
	defer rows.Close()

	var players []*models.Player
	for rows.Next() {
		var player models.Player
		if err := rows.Scan(
			&player.ID,
			&player.Provider,
			&player.ExternalID,
			&player.TeamID,
			&player.LeagueID,
			&player.FirstName,
			&player.LastName,
			&player.Name,
			&player.Position,
			&player.Nationality,
			&player.PhotoURL,
			&player.DateOfBirth,
			&player.CreatedAt,
			&player.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan player: %w", err)
		}
		players = append(players, &player)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate players: %w", err)
	}
	return players, nil
}
