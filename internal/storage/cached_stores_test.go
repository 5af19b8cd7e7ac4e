package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sports-ingest/internal/models"
)

type countingLeagueRepo struct {
	leagues map[int]*models.League
	lists   int
	upserts int
}

func (r *countingLeagueRepo) Upsert(ctx context.Context, league *models.League) (int64, bool, error) {
	r.upserts++
	r.leagues[league.ExternalID] = league
	return int64(league.ExternalID), true, nil
}

func (r *countingLeagueRepo) ListByExternalIDs(ctx context.Context, provider string, externalIDs []int) ([]*models.League, error) {
	r.lists++
	var out []*models.League
	for _, id := range externalIDs {
		if league, ok := r.leagues[id]; ok {
			out = append(out, league)
		}
	}
	return out, nil
}

type countingPlayerRepo struct {
	players map[int64][]*models.Player
	lists   int
}

func (r *countingPlayerRepo) Upsert(ctx context.Context, player *models.Player) (int64, bool, error) {
	r.players[player.TeamID] = append(r.players[player.TeamID], player)
	return player.ID, true, nil
}

func (r *countingPlayerRepo) ListByTeam(ctx context.Context, teamID int64) ([]*models.Player, error) {
	r.lists++
	return r.players[teamID], nil
}

type countingTeamRepo struct {
	teams map[int64][]*models.Team
	lists int
}

func (r *countingTeamRepo) Upsert(ctx context.Context, team *models.Team) (int64, bool, error) {
	r.teams[team.LeagueID] = append(r.teams[team.LeagueID], team)
	return team.ID, true, nil
}

func (r *countingTeamRepo) ListByLeague(ctx context.Context, leagueID int64, limit int) ([]*models.Team, error) {
	r.lists++
	out := r.teams[leagueID]
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func TestCachedLeagueStoreServesRepeatLookupsFromCache(t *testing.T) {
	cache, _ := newTestCache(t)
	repo := &countingLeagueRepo{leagues: map[int]*models.League{
		39:  {ID: 1, Provider: "api-football", ExternalID: 39, Name: "Premier League"},
		140: {ID: 2, Provider: "api-football", ExternalID: 140, Name: "La Liga"},
	}}
	store := NewCachedLeagueStore(repo, cache)
	ctx := context.Background()

	leagues, err := store.ListByExternalIDs(ctx, "api-football", []int{39, 140})
	require.NoError(t, err)
	require.Len(t, leagues, 2)
	assert.Equal(t, 1, repo.lists)

	leagues, err = store.ListByExternalIDs(ctx, "api-football", []int{39, 140})
	require.NoError(t, err)
	require.Len(t, leagues, 2)
	assert.Equal(t, 1, repo.lists, "second lookup must not reach the repository")
}

func TestCachedLeagueStoreBatchesMisses(t *testing.T) {
	cache, _ := newTestCache(t)
	repo := &countingLeagueRepo{leagues: map[int]*models.League{
		39:  {ID: 1, Provider: "api-football", ExternalID: 39, Name: "Premier League"},
		140: {ID: 2, Provider: "api-football", ExternalID: 140, Name: "La Liga"},
	}}
	store := NewCachedLeagueStore(repo, cache)
	ctx := context.Background()

	_, err := store.ListByExternalIDs(ctx, "api-football", []int{39})
	require.NoError(t, err)

	leagues, err := store.ListByExternalIDs(ctx, "api-football", []int{39, 140})
	require.NoError(t, err)
	require.Len(t, leagues, 2)
	assert.Equal(t, 2, repo.lists)
}

func TestCachedLeagueStoreUpsertInvalidates(t *testing.T) {
	cache, _ := newTestCache(t)
	repo := &countingLeagueRepo{leagues: map[int]*models.League{
		39: {ID: 1, Provider: "api-football", ExternalID: 39, Name: "Premier League"},
	}}
	store := NewCachedLeagueStore(repo, cache)
	ctx := context.Background()

	_, err := store.ListByExternalIDs(ctx, "api-football", []int{39})
	require.NoError(t, err)

	renamed := &models.League{ID: 1, Provider: "api-football", ExternalID: 39, Name: "Premier League 2026"}
	_, _, err = store.Upsert(ctx, renamed)
	require.NoError(t, err)

	leagues, err := store.ListByExternalIDs(ctx, "api-football", []int{39})
	require.NoError(t, err)
	require.Len(t, leagues, 1)
	assert.Equal(t, "Premier League 2026", leagues[0].Name)
	assert.Equal(t, 2, repo.lists, "the invalidated entry must be reloaded")
}

func TestCachedTeamStoreCachesUncappedListsOnly(t *testing.T) {
	cache, _ := newTestCache(t)
	repo := &countingTeamRepo{teams: map[int64][]*models.Team{
		1: {{ID: 10, LeagueID: 1, Name: "Arsenal"}, {ID: 11, LeagueID: 1, Name: "Chelsea"}},
	}}
	store := NewCachedTeamStore(repo, cache)
	ctx := context.Background()

	teams, err := store.ListByLeague(ctx, 1, 0)
	require.NoError(t, err)
	require.Len(t, teams, 2)

	teams, err = store.ListByLeague(ctx, 1, 0)
	require.NoError(t, err)
	require.Len(t, teams, 2)
	assert.Equal(t, 1, repo.lists)

	// A capped read bypasses the cache entirely.
	teams, err = store.ListByLeague(ctx, 1, 1)
	require.NoError(t, err)
	require.Len(t, teams, 1)
	assert.Equal(t, 2, repo.lists)
}

func TestCachedTeamStoreUpsertInvalidatesLeagueList(t *testing.T) {
	cache, _ := newTestCache(t)
	repo := &countingTeamRepo{teams: map[int64][]*models.Team{
		1: {{ID: 10, LeagueID: 1, Name: "Arsenal"}},
	}}
	store := NewCachedTeamStore(repo, cache)
	ctx := context.Background()

	_, err := store.ListByLeague(ctx, 1, 0)
	require.NoError(t, err)

	_, _, err = store.Upsert(ctx, &models.Team{ID: 11, LeagueID: 1, Name: "Chelsea"})
	require.NoError(t, err)

	teams, err := store.ListByLeague(ctx, 1, 0)
	require.NoError(t, err)
	require.Len(t, teams, 2)
}

func TestCachedPlayerStoreCachesSquads(t *testing.T) {
	cache, _ := newTestCache(t)
	repo := &countingPlayerRepo{players: map[int64][]*models.Player{
		10: {{ID: 100, TeamID: 10, Name: "First Player"}},
	}}
	store := NewCachedPlayerStore(repo, cache)
	ctx := context.Background()

	players, err := store.ListByTeam(ctx, 10)
	require.NoError(t, err)
	require.Len(t, players, 1)

	players, err = store.ListByTeam(ctx, 10)
	require.NoError(t, err)
	require.Len(t, players, 1)
	assert.Equal(t, 1, repo.lists)

	_, _, err = store.Upsert(ctx, &models.Player{ID: 101, TeamID: 10, Name: "Second Player"})
	require.NoError(t, err)

	players, err = store.ListByTeam(ctx, 10)
	require.NoError(t, err)
	require.Len(t, players, 2)
	assert.Equal(t, 2, repo.lists)
}
