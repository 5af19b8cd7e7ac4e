package ingest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/sports-ingest/internal/errors"
	"github.com/sports-ingest/internal/models"
	"github.com/sports-ingest/internal/provider"
)

func TestMapLeague(t *testing.T) {
	var entry provider.LeagueEntry
	entry.League.ID = 39
	entry.League.Name = "Premier League"
	country := "England"
	entry.Country.Name = &country

	league, err := mapLeague(testProvider, entry, "2026")
	require.NoError(t, err)
	assert.Equal(t, 39, league.ExternalID)
	assert.Equal(t, "Premier League", league.Name)
	assert.Equal(t, "England", *league.Country)
	assert.Equal(t, "2026", league.Season)
}

func TestMapLeagueValidation(t *testing.T) {
	tests := []struct {
		name  string
		id    int
		lname string
	}{
		{"missing id", 0, "Premier League"},
		{"empty name", 39, ""},
		{"blank name", 39, "   "},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var entry provider.LeagueEntry
			entry.League.ID = tt.id
			entry.League.Name = tt.lname

			_, err := mapLeague(testProvider, entry, "2026")
			require.Error(t, err)
			assert.True(t, apperrors.IsValidation(err))
		})
	}
}

func TestMapSquadPlayer(t *testing.T) {
	team := &models.Team{ID: 7, LeagueID: 3, Provider: testProvider}
	pos := "Goalkeeper"
	sp := provider.SquadPlayer{ID: 101, Name: "David de Gea", Position: &pos}

	player, err := mapSquadPlayer(testProvider, sp, team)
	require.NoError(t, err)
	assert.Equal(t, int64(7), player.TeamID)
	assert.Equal(t, int64(3), player.LeagueID)
	assert.Equal(t, "GK", player.Position)
	assert.Equal(t, "David de", player.FirstName)
	assert.Equal(t, "Gea", player.LastName)
}

func TestNormalizePosition(t *testing.T) {
	gk := "Goalkeeper"
	df := "Defender"
	mf := "Midfielder"
	fw := "Attacker"
	odd := "Sweeper"

	tests := []struct {
		in   *string
		want string
	}{
		{&gk, "GK"},
		{&df, "DF"},
		{&mf, "MF"},
		{&fw, "FW"},
		{&odd, "MF"},
		{nil, "MF"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, normalizePosition(tt.in))
	}
}

func TestSplitName(t *testing.T) {
	tests := []struct {
		in    string
		first string
		last  string
	}{
		{"Erling Haaland", "Erling", "Haaland"},
		{"Kevin De Bruyne", "Kevin De", "Bruyne"},
		{"Pele", "", "Pele"},
	}

	for _, tt := range tests {
		first, last := splitName(tt.in)
		assert.Equal(t, tt.first, first, tt.in)
		assert.Equal(t, tt.last, last, tt.in)
	}
}

func TestMapPlayerStatsPrefersBlockWithLeague(t *testing.T) {
	player := &models.Player{ID: 5, ExternalID: 101}
	var entry provider.PlayerEntry
	entry.Player.ID = 101
	entry.Player.Name = "Erling Haaland"

	var noLeague provider.PlayerStatisticsEntry
	var withLeague provider.PlayerStatisticsEntry
	leagueID := 39
	goals := 27
	withLeague.League.ID = &leagueID
	withLeague.Goals.Total = &goals
	entry.Statistics = []provider.PlayerStatisticsEntry{noLeague, withLeague}

	snap, err := mapPlayerStats(testProvider, entry, player, "2026")
	require.NoError(t, err)
	require.NotNil(t, snap.LeagueExternalID)
	assert.Equal(t, 39, *snap.LeagueExternalID)
	require.NotNil(t, snap.Goals)
	assert.Equal(t, 27, *snap.Goals.Total)
	assert.Equal(t, int64(5), snap.PlayerID)
}

func TestMapPlayerStatsWithoutBlocksIsValidationError(t *testing.T) {
	player := &models.Player{ID: 5, ExternalID: 101}
	var entry provider.PlayerEntry
	entry.Player.ID = 101

	_, err := mapPlayerStats(testProvider, entry, player, "2026")
	require.Error(t, err)
	assert.True(t, apperrors.IsValidation(err))
}

func TestMapTeamStats(t *testing.T) {
	team := &models.Team{ID: 9, ExternalID: 33}
	var entry provider.TeamStatisticsEntry
	entry.Team.ID = 33
	entry.Team.Name = "Manchester United"
	form := "WWDLW"
	entry.Form = &form
	played := 38
	entry.Fixtures.Played.Total = &played

	snap, err := mapTeamStats(testProvider, &entry, team, 39, "2026")
	require.NoError(t, err)
	assert.Equal(t, int64(9), snap.TeamID)
	assert.Equal(t, 39, snap.LeagueExternalID)
	assert.Equal(t, "WWDLW", *snap.Form)
	require.NotNil(t, snap.Fixtures)
	assert.Equal(t, 38, *snap.Fixtures.Played.Total)
}

func TestMapTeamStatsNilEntry(t *testing.T) {
	team := &models.Team{ID: 9, ExternalID: 33}
	_, err := mapTeamStats(testProvider, nil, team, 39, "2026")
	require.Error(t, err)
	assert.True(t, apperrors.IsValidation(err))
}
