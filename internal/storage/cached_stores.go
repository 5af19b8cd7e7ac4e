package storage

import (
	"context"
	"strconv"

	"github.com/sports-ingest/internal/models"
)

type leagueStore interface {
	Upsert(ctx context.Context, league *models.League) (int64, bool, error)
	ListByExternalIDs(ctx context.Context, provider string, externalIDs []int) ([]*models.League, error)
}

type teamStore interface {
	Upsert(ctx context.Context, team *models.Team) (int64, bool, error)
	ListByLeague(ctx context.Context, leagueID int64, limit int) ([]*models.Team, error)
}

type playerStore interface {
	Upsert(ctx context.Context, player *models.Player) (int64, bool, error)
	ListByTeam(ctx context.Context, teamID int64) ([]*models.Player, error)
}

// CachedLeagueStore wraps a league repository with a per-entity read-through
// cache keyed on (provider, externalID). Upserts invalidate the entity key,
// so a stale entry can survive at most one TTL across runs. Cache failures
// fall through to Postgres.
type CachedLeagueStore struct {
	repo  leagueStore
	cache *CacheService
}

func NewCachedLeagueStore(repo leagueStore, cache *CacheService) *CachedLeagueStore {
	return &CachedLeagueStore{repo: repo, cache: cache}
}

func (s *CachedLeagueStore) Upsert(ctx context.Context, league *models.League) (int64, bool, error) {
	id, created, err := s.repo.Upsert(ctx, league)
	if err == nil {
		_ = s.cache.InvalidateEntity(ctx, CacheKeyLeague, league.Provider, league.ExternalID)
	}
	return id, created, err
}

// ListByExternalIDs serves each league from the cache when present and
// batches the misses into a single repository query.
func (s *CachedLeagueStore) ListByExternalIDs(ctx context.Context, provider string, externalIDs []int) ([]*models.League, error) {
	leagues := make([]*models.League, 0, len(externalIDs))
	misses := make([]int, 0, len(externalIDs))
	for _, externalID := range externalIDs {
		var league models.League
		hit, err := s.cache.Get(ctx, s.cache.EntityKey(CacheKeyLeague, provider, externalID), &league)
		if err == nil && hit {
			leagues = append(leagues, &league)
			continue
		}
		misses = append(misses, externalID)
	}
	if len(misses) == 0 {
		return leagues, nil
	}

	loaded, err := s.repo.ListByExternalIDs(ctx, provider, misses)
	if err != nil {
		return nil, err
	}
	for _, league := range loaded {
		_ = s.cache.Set(ctx, s.cache.EntityKey(CacheKeyLeague, provider, league.ExternalID), league)
	}
	return append(leagues, loaded...), nil
}

// CachedTeamStore caches the full team roster of a league. Capped queries
// bypass the cache: a truncated list under the same key would shadow teams
// for uncapped readers.
type CachedTeamStore struct {
	repo  teamStore
	cache *CacheService
}

func NewCachedTeamStore(repo teamStore, cache *CacheService) *CachedTeamStore {
	return &CachedTeamStore{repo: repo, cache: cache}
}

func (s *CachedTeamStore) Upsert(ctx context.Context, team *models.Team) (int64, bool, error) {
	id, created, err := s.repo.Upsert(ctx, team)
	if err == nil {
		_ = s.cache.Invalidate(ctx, s.leagueKey(team.LeagueID))
	}
	return id, created, err
}

func (s *CachedTeamStore) ListByLeague(ctx context.Context, leagueID int64, limit int) ([]*models.Team, error) {
	if limit > 0 {
		return s.repo.ListByLeague(ctx, leagueID, limit)
	}

	var teams []*models.Team
	hit, err := s.cache.Get(ctx, s.leagueKey(leagueID), &teams)
	if err == nil && hit {
		return teams, nil
	}

	teams, err = s.repo.ListByLeague(ctx, leagueID, limit)
	if err != nil {
		return nil, err
	}
	_ = s.cache.Set(ctx, s.leagueKey(leagueID), teams)
	return teams, nil
}

func (s *CachedTeamStore) leagueKey(leagueID int64) string {
	return s.cache.GenerateCacheKey(CacheKeyTeam, "league", strconv.FormatInt(leagueID, 10))
}

// CachedPlayerStore caches the squad list of a team.
type CachedPlayerStore struct {
	repo  playerStore
	cache *CacheService
}

func NewCachedPlayerStore(repo playerStore, cache *CacheService) *CachedPlayerStore {
	return &CachedPlayerStore{repo: repo, cache: cache}
}

func (s *CachedPlayerStore) Upsert(ctx context.Context, player *models.Player) (int64, bool, error) {
	id, created, err := s.repo.Upsert(ctx, player)
	if err == nil {
		_ = s.cache.Invalidate(ctx, s.teamKey(player.TeamID))
	}
	return id, created, err
}

func (s *CachedPlayerStore) ListByTeam(ctx context.Context, teamID int64) ([]*models.Player, error) {
	var players []*models.Player
	hit, err := s.cache.Get(ctx, s.teamKey(teamID), &players)
	if err == nil && hit {
		return players, nil
	}

	players, err = s.repo.ListByTeam(ctx, teamID)
	if err != nil {
		return nil, err
	}
	_ = s.cache.Set(ctx, s.teamKey(teamID), players)
	return players, nil
}

func (s *CachedPlayerStore) teamKey(teamID int64) string {
	return s.cache.GenerateCacheKey(CacheKeyPlayer, "team", strconv.FormatInt(teamID, 10))
}
