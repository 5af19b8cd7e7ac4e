package models

import "time"

// HomeAwayTotal is the provider's recurring home/away/total grouping.
type HomeAwayTotal struct {
	Home  *int `json:"home,omitempty"`
	Away  *int `json:"away,omitempty"`
	Total *int `json:"total,omitempty"`
}

// GameStats groups per-player appearance statistics.
type GameStats struct {
	Appearances *int    `json:"appearances,omitempty"`
	Lineups     *int    `json:"lineups,omitempty"`
	Minutes     *int    `json:"minutes,omitempty"`
	Rating      *string `json:"rating,omitempty"`
	Captain     *bool   `json:"captain,omitempty"`
}

// GoalStats groups per-player goal statistics.
type GoalStats struct {
	Total    *int `json:"total,omitempty"`
	Assists  *int `json:"assists,omitempty"`
	Conceded *int `json:"conceded,omitempty"`
	Saves    *int `json:"saves,omitempty"`
}

// ShotStats groups per-player shot statistics.
type ShotStats struct {
	Total *int `json:"total,omitempty"`
	On    *int `json:"on,omitempty"`
}

// PassStats groups per-player passing statistics.
type PassStats struct {
	Total    *int `json:"total,omitempty"`
	Key      *int `json:"key,omitempty"`
	Accuracy *int `json:"accuracy,omitempty"`
}

// TackleStats groups per-player defensive statistics.
type TackleStats struct {
	Total         *int `json:"total,omitempty"`
	Blocks        *int `json:"blocks,omitempty"`
	Interceptions *int `json:"interceptions,omitempty"`
}

// DribbleStats groups per-player dribbling statistics.
type DribbleStats struct {
	Attempts *int `json:"attempts,omitempty"`
	Success  *int `json:"success,omitempty"`
}

// CardStats groups per-player discipline statistics.
type CardStats struct {
	Yellow    *int `json:"yellow,omitempty"`
	YellowRed *int `json:"yellowred,omitempty"`
	Red       *int `json:"red,omitempty"`
}

// PenaltyStats groups per-player penalty statistics.
type PenaltyStats struct {
	Won      *int `json:"won,omitempty"`
	Scored   *int `json:"scored,omitempty"`
	Missed   *int `json:"missed,omitempty"`
	Saved    *int `json:"saved,omitempty"`
}

// LeaguePositions holds a player's 1-based rank per top-statistics category,
// computed within one league. Ranks are only meaningful for the league whose
// ID keys the surrounding map.
type LeaguePositions struct {
	Goals       *int `json:"goals,omitempty"`
	Assists     *int `json:"assists,omitempty"`
	YellowCards *int `json:"yellowCards,omitempty"`
	RedCards    *int `json:"redCards,omitempty"`
}

// PlayerStatsSnapshot is the point-in-time statistics record for one
// player+season+provider. Re-ingestion overwrites the row; it is not a time
// series. LeaguePositions is keyed by provider league ID and patched by the
// top-statistics ingester independently of the main stats fields.
type PlayerStatsSnapshot struct {
	ID               int64                      `json:"id"`
	Provider         string                     `json:"provider"`
	PlayerExternalID int                        `json:"playerExternalId"`
	PlayerID         int64                      `json:"playerId"`
	Season           string                     `json:"season"`
	PlayerName       string                     `json:"playerName"`
	TeamName         *string                    `json:"teamName,omitempty"`
	LeagueExternalID *int                       `json:"leagueExternalId,omitempty"`
	Games            *GameStats                 `json:"games,omitempty"`
	Goals            *GoalStats                 `json:"goals,omitempty"`
	Shots            *ShotStats                 `json:"shots,omitempty"`
	Passes           *PassStats                 `json:"passes,omitempty"`
	Tackles          *TackleStats               `json:"tackles,omitempty"`
	Dribbles         *DribbleStats              `json:"dribbles,omitempty"`
	Cards            *CardStats                 `json:"cards,omitempty"`
	Penalty          *PenaltyStats              `json:"penalty,omitempty"`
	LeaguePositions  map[string]LeaguePositions `json:"leaguePositions,omitempty"`
	CreatedAt        time.Time                  `json:"createdAt"`
	UpdatedAt        time.Time                  `json:"updatedAt"`
}

// FixtureStats groups a team's played/won/drawn/lost counts.
type FixtureStats struct {
	Played HomeAwayTotal `json:"played"`
	Wins   HomeAwayTotal `json:"wins"`
	Draws  HomeAwayTotal `json:"draws"`
	Loses  HomeAwayTotal `json:"loses"`
}

// TeamGoalStats groups a team's goals for/against.
type TeamGoalStats struct {
	For     HomeAwayTotal `json:"for"`
	Against HomeAwayTotal `json:"against"`
}

// TeamPenaltyStats groups a team's penalty conversion counts.
type TeamPenaltyStats struct {
	Scored *int `json:"scored,omitempty"`
	Missed *int `json:"missed,omitempty"`
	Total  *int `json:"total,omitempty"`
}

// TeamStatsSnapshot is the point-in-time statistics record for one
// team+league+season+provider.
type TeamStatsSnapshot struct {
	ID               int64             `json:"id"`
	Provider         string            `json:"provider"`
	TeamExternalID   int               `json:"teamExternalId"`
	TeamID           int64             `json:"teamId"`
	LeagueExternalID int               `json:"leagueExternalId"`
	Season           string            `json:"season"`
	TeamName         string            `json:"teamName"`
	Form             *string           `json:"form,omitempty"`
	Fixtures         *FixtureStats     `json:"fixtures,omitempty"`
	Goals            *TeamGoalStats    `json:"goals,omitempty"`
	CleanSheet       *HomeAwayTotal    `json:"cleanSheet,omitempty"`
	FailedToScore    *HomeAwayTotal    `json:"failedToScore,omitempty"`
	Penalty          *TeamPenaltyStats `json:"penalty,omitempty"`
	CreatedAt        time.Time         `json:"createdAt"`
	UpdatedAt        time.Time         `json:"updatedAt"`
}

// TopStatCategory identifies one ranked top-statistics list.
type TopStatCategory string

const (
	TopStatGoals       TopStatCategory = "goals"
	TopStatAssists     TopStatCategory = "assists"
	TopStatYellowCards TopStatCategory = "yellowCards"
	TopStatRedCards    TopStatCategory = "redCards"
)

// AllTopStatCategories lists the ranked categories in ingestion order.
func AllTopStatCategories() []TopStatCategory {
	return []TopStatCategory{TopStatGoals, TopStatAssists, TopStatYellowCards, TopStatRedCards}
}
