package ingest

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sports-ingest/internal/config"
	"github.com/sports-ingest/internal/governor"
	"github.com/sports-ingest/internal/logging"
	"github.com/sports-ingest/internal/models"
	"github.com/sports-ingest/internal/provider"
	"github.com/sports-ingest/internal/retry"
)

const testProvider = "api-football"

// fakeScheduler admits everything immediately, optionally rejecting with a
// preset error to exercise quota handling. rejectResource limits the
// rejection to one provider resource.
type fakeScheduler struct {
	reject         error
	rejectResource map[string]error
	calls          int32
}

func (f *fakeScheduler) Schedule(ctx context.Context, resource string, op governor.Operation) (interface{}, error) {
	if f.reject != nil {
		return nil, f.reject
	}
	if err := f.rejectResource[resource]; err != nil {
		return nil, err
	}
	atomic.AddInt32(&f.calls, 1)
	return op(ctx)
}

func (f *fakeScheduler) scheduled() int {
	return int(atomic.LoadInt32(&f.calls))
}

type fakeRecorder struct {
	mu      sync.Mutex
	records []*models.APICallRecord
}

func (f *fakeRecorder) RecordCall(ctx context.Context, rec *models.APICallRecord) {
	f.mu.Lock()
	f.records = append(f.records, rec)
	f.mu.Unlock()
}

func (f *fakeRecorder) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.records)
}

// fakeProvider serves a small deterministic dataset: two leagues, two teams
// per league, three players per team. IDs encode containment so derived
// payloads stay consistent: team = league*10+n, player = team*100+n.
type fakeProvider struct {
	mu          sync.Mutex
	failLeagues map[int]error
	failTeams   map[int]error
	failSquads  map[int]error
	failPlayers map[int]error
	emptyTop    bool
	// anonymousScorer appends a scorer entry without a player id to every
	// top-scorers list.
	anonymousScorer bool
}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{
		failLeagues: map[int]error{},
		failTeams:   map[int]error{},
		failSquads:  map[int]error{},
		failPlayers: map[int]error{},
	}
}

func (f *fakeProvider) Name() string { return testProvider }

func (f *fakeProvider) GetLeagues(ctx context.Context, id int, season string) ([]provider.LeagueEntry, error) {
	f.mu.Lock()
	err := f.failLeagues[id]
	f.mu.Unlock()
	if err != nil {
		return nil, err
	}
	var entry provider.LeagueEntry
	entry.League.ID = id
	entry.League.Name = fmt.Sprintf("League %d", id)
	country := "Testland"
	entry.Country.Name = &country
	return []provider.LeagueEntry{entry}, nil
}

func (f *fakeProvider) teamIDs(leagueID int) []int {
	return []int{leagueID*10 + 1, leagueID*10 + 2}
}

func (f *fakeProvider) playerIDs(teamID int) []int {
	return []int{teamID*100 + 1, teamID*100 + 2, teamID*100 + 3}
}

func (f *fakeProvider) GetTeams(ctx context.Context, leagueID int, season string) ([]provider.TeamEntry, error) {
	f.mu.Lock()
	err := f.failTeams[leagueID]
	f.mu.Unlock()
	if err != nil {
		return nil, err
	}
	var entries []provider.TeamEntry
	for _, id := range f.teamIDs(leagueID) {
		var entry provider.TeamEntry
		entry.Team.ID = id
		entry.Team.Name = fmt.Sprintf("Team %d", id)
		entries = append(entries, entry)
	}
	return entries, nil
}

func (f *fakeProvider) GetTeamStatistics(ctx context.Context, leagueID, teamID int, season string) (*provider.TeamStatisticsEntry, error) {
	var entry provider.TeamStatisticsEntry
	entry.Team.ID = teamID
	entry.Team.Name = fmt.Sprintf("Team %d", teamID)
	entry.League.ID = leagueID
	played := 10
	entry.Fixtures.Played.Total = &played
	return &entry, nil
}

func (f *fakeProvider) GetSquad(ctx context.Context, teamID int) ([]provider.SquadEntry, error) {
	f.mu.Lock()
	err := f.failSquads[teamID]
	f.mu.Unlock()
	if err != nil {
		return nil, err
	}
	positions := []string{"Goalkeeper", "Defender", "Attacker"}
	var entry provider.SquadEntry
	entry.Team.ID = teamID
	for i, id := range f.playerIDs(teamID) {
		pos := positions[i%len(positions)]
		entry.Players = append(entry.Players, provider.SquadPlayer{
			ID:       id,
			Name:     fmt.Sprintf("First Player%d", id),
			Position: &pos,
		})
	}
	return []provider.SquadEntry{entry}, nil
}

func (f *fakeProvider) GetPlayer(ctx context.Context, playerID int, season string) ([]provider.PlayerEntry, error) {
	f.mu.Lock()
	err := f.failPlayers[playerID]
	f.mu.Unlock()
	if err != nil {
		return nil, err
	}
	leagueID := playerID / 1000
	var entry provider.PlayerEntry
	entry.Player.ID = playerID
	entry.Player.Name = fmt.Sprintf("First Player%d", playerID)
	var stats provider.PlayerStatisticsEntry
	stats.League.ID = &leagueID
	goals := playerID % 10
	stats.Goals.Total = &goals
	apps := 20
	stats.Games.Appearances = &apps
	entry.Statistics = []provider.PlayerStatisticsEntry{stats}
	return []provider.PlayerEntry{entry}, nil
}

func (f *fakeProvider) topList(leagueID int, count int) []provider.PlayerEntry {
	f.mu.Lock()
	empty := f.emptyTop
	f.mu.Unlock()
	if empty {
		return nil
	}
	teamID := leagueID*10 + 1
	var entries []provider.PlayerEntry
	for _, id := range f.playerIDs(teamID)[:count] {
		var entry provider.PlayerEntry
		entry.Player.ID = id
		entry.Player.Name = fmt.Sprintf("First Player%d", id)
		entries = append(entries, entry)
	}
	return entries
}

func (f *fakeProvider) GetTopScorers(ctx context.Context, leagueID int, season string) ([]provider.PlayerEntry, error) {
	entries := f.topList(leagueID, 2)
	f.mu.Lock()
	anonymous := f.anonymousScorer
	f.mu.Unlock()
	if anonymous {
		var entry provider.PlayerEntry
		entry.Player.Name = "Unknown Player"
		entries = append(entries, entry)
	}
	return entries, nil
}

func (f *fakeProvider) GetTopAssists(ctx context.Context, leagueID int, season string) ([]provider.PlayerEntry, error) {
	return f.topList(leagueID, 2), nil
}

func (f *fakeProvider) GetTopYellowCards(ctx context.Context, leagueID int, season string) ([]provider.PlayerEntry, error) {
	return f.topList(leagueID, 1), nil
}

func (f *fakeProvider) GetTopRedCards(ctx context.Context, leagueID int, season string) ([]provider.PlayerEntry, error) {
	return f.topList(leagueID, 1), nil
}

type memLeagueStore struct {
	mu         sync.Mutex
	byExternal map[int]*models.League
	nextID     int64
}

func newMemLeagueStore() *memLeagueStore {
	return &memLeagueStore{byExternal: map[int]*models.League{}}
}

func (s *memLeagueStore) Upsert(ctx context.Context, league *models.League) (int64, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.byExternal[league.ExternalID]; ok {
		league.ID = existing.ID
		league.CreatedAt = existing.CreatedAt
		s.byExternal[league.ExternalID] = league
		return league.ID, false, nil
	}
	s.nextID++
	league.ID = s.nextID
	league.CreatedAt = time.Now()
	s.byExternal[league.ExternalID] = league
	return league.ID, true, nil
}

func (s *memLeagueStore) ListByExternalIDs(ctx context.Context, providerName string, externalIDs []int) ([]*models.League, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*models.League
	for _, id := range externalIDs {
		if league, ok := s.byExternal[id]; ok {
			out = append(out, league)
		}
	}
	return out, nil
}

type memTeamStore struct {
	mu         sync.Mutex
	byExternal map[int]*models.Team
	nextID     int64
}

func newMemTeamStore() *memTeamStore {
	return &memTeamStore{byExternal: map[int]*models.Team{}}
}

func (s *memTeamStore) Upsert(ctx context.Context, team *models.Team) (int64, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.byExternal[team.ExternalID]; ok {
		team.ID = existing.ID
		s.byExternal[team.ExternalID] = team
		return team.ID, false, nil
	}
	s.nextID++
	team.ID = s.nextID
	s.byExternal[team.ExternalID] = team
	return team.ID, true, nil
}

func (s *memTeamStore) ListByLeague(ctx context.Context, leagueID int64, limit int) ([]*models.Team, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*models.Team
	for _, team := range s.byExternal {
		if team.LeagueID == leagueID {
			out = append(out, team)
		}
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

type memPlayerStore struct {
	mu         sync.Mutex
	byExternal map[int]*models.Player
	nextID     int64
}

func newMemPlayerStore() *memPlayerStore {
	return &memPlayerStore{byExternal: map[int]*models.Player{}}
}

func (s *memPlayerStore) Upsert(ctx context.Context, player *models.Player) (int64, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.byExternal[player.ExternalID]; ok {
		player.ID = existing.ID
		s.byExternal[player.ExternalID] = player
		return player.ID, false, nil
	}
	s.nextID++
	player.ID = s.nextID
	s.byExternal[player.ExternalID] = player
	return player.ID, true, nil
}

func (s *memPlayerStore) ListByTeam(ctx context.Context, teamID int64) ([]*models.Player, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*models.Player
	for _, player := range s.byExternal {
		if player.TeamID == teamID {
			out = append(out, player)
		}
	}
	return out, nil
}

type statsKey struct {
	player int
	season string
}

type memPlayerStatsStore struct {
	mu      sync.Mutex
	byKey   map[statsKey]*models.PlayerStatsSnapshot
	patches int
	nextID  int64
}

func newMemPlayerStatsStore() *memPlayerStatsStore {
	return &memPlayerStatsStore{byKey: map[statsKey]*models.PlayerStatsSnapshot{}}
}

func (s *memPlayerStatsStore) Upsert(ctx context.Context, snap *models.PlayerStatsSnapshot) (int64, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := statsKey{snap.PlayerExternalID, snap.Season}
	if existing, ok := s.byKey[key]; ok {
		snap.ID = existing.ID
		snap.LeaguePositions = existing.LeaguePositions
		s.byKey[key] = snap
		return snap.ID, false, nil
	}
	s.nextID++
	snap.ID = s.nextID
	s.byKey[key] = snap
	return snap.ID, true, nil
}

func (s *memPlayerStatsStore) PatchPosition(ctx context.Context, providerName string, playerExternalID int, season string, leagueExternalID int, category models.TopStatCategory, rank int) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap, ok := s.byKey[statsKey{playerExternalID, season}]
	if !ok {
		return false, nil
	}
	if snap.LeaguePositions == nil {
		snap.LeaguePositions = map[string]models.LeaguePositions{}
	}
	key := fmt.Sprintf("%d", leagueExternalID)
	positions := snap.LeaguePositions[key]
	r := rank
	switch category {
	case models.TopStatGoals:
		positions.Goals = &r
	case models.TopStatAssists:
		positions.Assists = &r
	case models.TopStatYellowCards:
		positions.YellowCards = &r
	case models.TopStatRedCards:
		positions.RedCards = &r
	}
	snap.LeaguePositions[key] = positions
	s.patches++
	return true, nil
}

type memTeamStatsStore struct {
	mu     sync.Mutex
	byKey  map[int]*models.TeamStatsSnapshot
	nextID int64
}

func newMemTeamStatsStore() *memTeamStatsStore {
	return &memTeamStatsStore{byKey: map[int]*models.TeamStatsSnapshot{}}
}

func (s *memTeamStatsStore) Upsert(ctx context.Context, snap *models.TeamStatsSnapshot) (int64, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.byKey[snap.TeamExternalID]; ok {
		snap.ID = existing.ID
		s.byKey[snap.TeamExternalID] = snap
		return snap.ID, false, nil
	}
	s.nextID++
	snap.ID = s.nextID
	s.byKey[snap.TeamExternalID] = snap
	return snap.ID, true, nil
}

type memRunStore struct {
	mu   sync.Mutex
	runs []*models.RunSummary
}

func (s *memRunStore) Insert(ctx context.Context, summary *models.RunSummary) error {
	s.mu.Lock()
	s.runs = append(s.runs, summary)
	s.mu.Unlock()
	return nil
}

type memReferenceStore struct {
	mu        sync.Mutex
	positions []models.Position
	windows   []models.StatWindow
}

func (s *memReferenceStore) SeedPositions(ctx context.Context, positions []models.Position) error {
	s.mu.Lock()
	s.positions = positions
	s.mu.Unlock()
	return nil
}

func (s *memReferenceStore) SeedStatWindows(ctx context.Context, windows []models.StatWindow) error {
	s.mu.Lock()
	s.windows = windows
	s.mu.Unlock()
	return nil
}

// pipelineHarness assembles the full pipeline over in-memory fakes.
type pipelineHarness struct {
	provider    *fakeProvider
	scheduler   *fakeScheduler
	recorder    *fakeRecorder
	leagues     *memLeagueStore
	teams       *memTeamStore
	players     *memPlayerStore
	playerStats *memPlayerStatsStore
	teamStats   *memTeamStatsStore
	runs        *memRunStore
	reference   *memReferenceStore
	orch        *Orchestrator
}

func newHarness(t *testing.T) *pipelineHarness {
	t.Helper()

	h := &pipelineHarness{
		provider:    newFakeProvider(),
		scheduler:   &fakeScheduler{},
		recorder:    &fakeRecorder{},
		leagues:     newMemLeagueStore(),
		teams:       newMemTeamStore(),
		players:     newMemPlayerStore(),
		playerStats: newMemPlayerStatsStore(),
		teamStats:   newMemTeamStatsStore(),
		runs:        &memRunStore{},
		reference:   &memReferenceStore{},
	}

	logger := logging.NewLogger(logging.LevelFatal, logging.FormatJSON)
	retryCfg := retry.Config{MaxAttempts: 3, BaseDelay: time.Millisecond}
	fetcher := NewFetcher(h.scheduler, h.recorder, retryCfg, testProvider, logger)

	ingestCfg := &config.IngestionConfig{
		Season:            "2026",
		TopLeagueIDs:      []int{39, 140},
		LeagueConcurrency: 2,
		TeamConcurrency:   2,
		PlayerConcurrency: 4,
		PlayerDetailWidth: 3,
	}

	h.orch = NewOrchestrator(
		ingestCfg,
		testProvider,
		NewLeagueService(h.provider, fetcher, h.leagues, ingestCfg.LeagueConcurrency),
		NewTeamService(h.provider, fetcher, h.teams, ingestCfg.TeamConcurrency),
		NewPlayerService(h.provider, fetcher, h.players, ingestCfg.TeamConcurrency, ingestCfg.PlayerConcurrency),
		NewTeamStatsService(h.provider, fetcher, h.teamStats, ingestCfg.TeamConcurrency),
		NewPlayerStatsService(h.provider, fetcher, h.playerStats, ingestCfg.PlayerDetailWidth),
		NewTopStatsService(h.provider, fetcher, h.playerStats, ingestCfg.LeagueConcurrency),
		h.leagues,
		h.teams,
		h.players,
		h.runs,
		h.reference,
		logger,
	)
	return h
}
