package ingest

import (
	"strconv"
	"strings"

	apperrors "github.com/sports-ingest/internal/errors"
	"github.com/sports-ingest/internal/models"
	"github.com/sports-ingest/internal/provider"
)

// mapLeague converts a provider league entry into a persistable League.
func mapLeague(providerName string, entry provider.LeagueEntry, season string) (*models.League, error) {
	if entry.League.ID <= 0 {
		return nil, apperrors.NewValidationError("league", "missing provider id")
	}
	if strings.TrimSpace(entry.League.Name) == "" {
		return nil, apperrors.NewValidationError("league", "empty name for id "+strconv.Itoa(entry.League.ID))
	}
	return &models.League{
		Provider:   providerName,
		ExternalID: entry.League.ID,
		Name:       entry.League.Name,
		Code:       entry.Country.Code,
		Country:    entry.Country.Name,
		LogoURL:    entry.League.Logo,
		Season:     season,
	}, nil
}

// mapTeam converts a provider team entry into a persistable Team.
func mapTeam(providerName string, entry provider.TeamEntry, league *models.League, season string) (*models.Team, error) {
	if entry.Team.ID <= 0 {
		return nil, apperrors.NewValidationError("team", "missing provider id")
	}
	if strings.TrimSpace(entry.Team.Name) == "" {
		return nil, apperrors.NewValidationError("team", "empty name for id "+strconv.Itoa(entry.Team.ID))
	}
	return &models.Team{
		Provider:   providerName,
		ExternalID: entry.Team.ID,
		LeagueID:   league.ID,
		Name:       entry.Team.Name,
		ShortName:  entry.Team.Code,
		Country:    entry.Team.Country,
		Founded:    entry.Team.Founded,
		CrestURL:   entry.Team.Logo,
		Season:     season,
	}, nil
}

// mapSquadPlayer converts a squad member into a persistable Player. Squad
// payloads only carry a display name, so first and last name are derived
// by splitting on the last space.
func mapSquadPlayer(providerName string, sp provider.SquadPlayer, team *models.Team) (*models.Player, error) {
	if sp.ID <= 0 {
		return nil, apperrors.NewValidationError("player", "missing provider id")
	}
	if strings.TrimSpace(sp.Name) == "" {
		return nil, apperrors.NewValidationError("player", "empty name for id "+strconv.Itoa(sp.ID))
	}
	first, last := splitName(sp.Name)
	return &models.Player{
		Provider:   providerName,
		ExternalID: sp.ID,
		TeamID:     team.ID,
		LeagueID:   team.LeagueID,
		FirstName:  first,
		LastName:   last,
		Name:       sp.Name,
		Position:   normalizePosition(sp.Position),
		PhotoURL:   sp.Photo,
	}, nil
}

// mapPlayerStats converts a player detail entry into a statistics snapshot.
// The provider returns one statistics block per competition; the first block
// with a league ID wins, matching the order the provider ranks competitions.
func mapPlayerStats(providerName string, entry provider.PlayerEntry, player *models.Player, season string) (*models.PlayerStatsSnapshot, error) {
	if entry.Player.ID <= 0 {
		return nil, apperrors.NewValidationError("playerStats", "missing provider id")
	}
	if len(entry.Statistics) == 0 {
		return nil, apperrors.NewValidationError("playerStats", "no statistics blocks for player "+strconv.Itoa(entry.Player.ID))
	}

	stats := entry.Statistics[0]
	for i := range entry.Statistics {
		if entry.Statistics[i].League.ID != nil {
			stats = entry.Statistics[i]
			break
		}
	}

	snap := &models.PlayerStatsSnapshot{
		Provider:         providerName,
		PlayerExternalID: entry.Player.ID,
		PlayerID:         player.ID,
		Season:           season,
		PlayerName:       entry.Player.Name,
		TeamName:         stats.Team.Name,
		LeagueExternalID: stats.League.ID,
		Games: &models.GameStats{
			Appearances: stats.Games.Appearances,
			Lineups:     stats.Games.Lineups,
			Minutes:     stats.Games.Minutes,
			Rating:      stats.Games.Rating,
			Captain:     stats.Games.Captain,
		},
		Goals: &models.GoalStats{
			Total:    stats.Goals.Total,
			Assists:  stats.Goals.Assists,
			Conceded: stats.Goals.Conceded,
			Saves:    stats.Goals.Saves,
		},
		Shots: &models.ShotStats{
			Total: stats.Shots.Total,
			On:    stats.Shots.On,
		},
		Passes: &models.PassStats{
			Total:    stats.Passes.Total,
			Key:      stats.Passes.Key,
			Accuracy: stats.Passes.Accuracy,
		},
		Tackles: &models.TackleStats{
			Total:         stats.Tackles.Total,
			Blocks:        stats.Tackles.Blocks,
			Interceptions: stats.Tackles.Interceptions,
		},
		Dribbles: &models.DribbleStats{
			Attempts: stats.Dribbles.Attempts,
			Success:  stats.Dribbles.Success,
		},
		Cards: &models.CardStats{
			Yellow:    stats.Cards.Yellow,
			YellowRed: stats.Cards.YellowRed,
			Red:       stats.Cards.Red,
		},
		Penalty: &models.PenaltyStats{
			Won:    stats.Penalty.Won,
			Scored: stats.Penalty.Scored,
			Missed: stats.Penalty.Missed,
			Saved:  stats.Penalty.Saved,
		},
	}
	return snap, nil
}

// mapTeamStats converts a team statistics entry into a snapshot.
func mapTeamStats(providerName string, entry *provider.TeamStatisticsEntry, team *models.Team, leagueExternalID int, season string) (*models.TeamStatsSnapshot, error) {
	if entry == nil {
		return nil, apperrors.NewValidationError("teamStats", "empty statistics payload for team "+strconv.Itoa(team.ExternalID))
	}
	if entry.Team.ID <= 0 {
		return nil, apperrors.NewValidationError("teamStats", "missing team id in statistics payload")
	}
	return &models.TeamStatsSnapshot{
		Provider:         providerName,
		TeamExternalID:   entry.Team.ID,
		TeamID:           team.ID,
		LeagueExternalID: leagueExternalID,
		Season:           season,
		TeamName:         entry.Team.Name,
		Form:             entry.Form,
		Fixtures: &models.FixtureStats{
			Played: mapHomeAwayTotal(entry.Fixtures.Played),
			Wins:   mapHomeAwayTotal(entry.Fixtures.Wins),
			Draws:  mapHomeAwayTotal(entry.Fixtures.Draws),
			Loses:  mapHomeAwayTotal(entry.Fixtures.Loses),
		},
		Goals: &models.TeamGoalStats{
			For:     mapHomeAwayTotal(entry.Goals.For.Total),
			Against: mapHomeAwayTotal(entry.Goals.Against.Total),
		},
		CleanSheet:    homeAwayTotalPtr(entry.CleanSheet),
		FailedToScore: homeAwayTotalPtr(entry.FailedToScore),
		Penalty: &models.TeamPenaltyStats{
			Scored: entry.Penalty.Scored.Total,
			Missed: entry.Penalty.Missed.Total,
			Total:  entry.Penalty.Total,
		},
	}, nil
}

func mapHomeAwayTotal(e provider.HomeAwayTotalEntry) models.HomeAwayTotal {
	return models.HomeAwayTotal{Home: e.Home, Away: e.Away, Total: e.Total}
}

func homeAwayTotalPtr(e provider.HomeAwayTotalEntry) *models.HomeAwayTotal {
	v := mapHomeAwayTotal(e)
	return &v
}

// normalizePosition maps the provider's verbose position labels onto the
// seeded position codes. Unknown or absent positions fall back to MF, the
// least committal outfield role.
func normalizePosition(position *string) string {
	if position == nil {
		return "MF"
	}
	switch strings.ToLower(strings.TrimSpace(*position)) {
	case "goalkeeper", "gk":
		return "GK"
	case "defender", "df":
		return "DF"
	case "midfielder", "mf":
		return "MF"
	case "attacker", "forward", "fw":
		return "FW"
	default:
		return "MF"
	}
}

// splitName derives first and last name from a display name. Single-token
// names become the last name.
func splitName(name string) (first, last string) {
	name = strings.TrimSpace(name)
	idx := strings.LastIndex(name, " ")
	if idx < 0 {
		return "", name
	}
	return strings.TrimSpace(name[:idx]), strings.TrimSpace(name[idx+1:])
}
