// Package ingest implements the resource ingestion pipeline: per-resource
// services that fetch from the provider, map and validate payloads, and
// upsert into Postgres, plus the orchestrator that sequences them into a
// full run. All provider traffic flows through the rate governor and the
// retry engine; services never call the provider client directly.
package ingest

import (
	"context"

	"github.com/sports-ingest/internal/governor"
	"github.com/sports-ingest/internal/logging"
	"github.com/sports-ingest/internal/models"
	"github.com/sports-ingest/internal/provider"
	"github.com/sports-ingest/internal/retry"
)

// ProviderAPI is the slice of the provider client the pipeline consumes.
type ProviderAPI interface {
	Name() string
	GetLeagues(ctx context.Context, id int, season string) ([]provider.LeagueEntry, error)
	GetTeams(ctx context.Context, leagueID int, season string) ([]provider.TeamEntry, error)
	GetTeamStatistics(ctx context.Context, leagueID, teamID int, season string) (*provider.TeamStatisticsEntry, error)
	GetSquad(ctx context.Context, teamID int) ([]provider.SquadEntry, error)
	GetPlayer(ctx context.Context, playerID int, season string) ([]provider.PlayerEntry, error)
	GetTopScorers(ctx context.Context, leagueID int, season string) ([]provider.PlayerEntry, error)
	GetTopAssists(ctx context.Context, leagueID int, season string) ([]provider.PlayerEntry, error)
	GetTopYellowCards(ctx context.Context, leagueID int, season string) ([]provider.PlayerEntry, error)
	GetTopRedCards(ctx context.Context, leagueID int, season string) ([]provider.PlayerEntry, error)
}

// Scheduler admits provider calls, enforcing the daily ceiling and the
// token-bucket pacing.
type Scheduler interface {
	Schedule(ctx context.Context, resource string, op governor.Operation) (interface{}, error)
}

// LeagueStore persists leagues.
type LeagueStore interface {
	Upsert(ctx context.Context, league *models.League) (int64, bool, error)
	ListByExternalIDs(ctx context.Context, provider string, externalIDs []int) ([]*models.League, error)
}

// TeamStore persists teams.
type TeamStore interface {
	Upsert(ctx context.Context, team *models.Team) (int64, bool, error)
	ListByLeague(ctx context.Context, leagueID int64, limit int) ([]*models.Team, error)
}

// PlayerStore persists players.
type PlayerStore interface {
	Upsert(ctx context.Context, player *models.Player) (int64, bool, error)
	ListByTeam(ctx context.Context, teamID int64) ([]*models.Player, error)
}

// PlayerStatsStore persists player statistics snapshots.
type PlayerStatsStore interface {
	Upsert(ctx context.Context, snap *models.PlayerStatsSnapshot) (int64, bool, error)
	PatchPosition(ctx context.Context, provider string, playerExternalID int, season string, leagueExternalID int, category models.TopStatCategory, rank int) (bool, error)
}

// TeamStatsStore persists team statistics snapshots.
type TeamStatsStore interface {
	Upsert(ctx context.Context, snap *models.TeamStatsSnapshot) (int64, bool, error)
}

// RunStore persists run summaries.
type RunStore interface {
	Insert(ctx context.Context, summary *models.RunSummary) error
}

// ReferenceStore seeds static reference data.
type ReferenceStore interface {
	SeedPositions(ctx context.Context, positions []models.Position) error
	SeedStatWindows(ctx context.Context, windows []models.StatWindow) error
}

// Fetcher is the single path from the pipeline to the provider. Every call
// is admitted by the governor first and then executed under the retry
// engine, so the whole retry sequence of one logical fetch occupies one
// governor slot.
type Fetcher struct {
	scheduler Scheduler
	recorder  retry.Recorder
	retryCfg  retry.Config
	provider  string
	logger    *logging.Logger
}

// NewFetcher wires the governor and retry engine in front of provider calls.
func NewFetcher(scheduler Scheduler, recorder retry.Recorder, retryCfg retry.Config, providerName string, logger *logging.Logger) *Fetcher {
	if logger == nil {
		logger = logging.GetGlobalLogger()
	}
	return &Fetcher{
		scheduler: scheduler,
		recorder:  recorder,
		retryCfg:  retryCfg,
		provider:  providerName,
		logger:    logger,
	}
}

// Fetch admits one logical provider call and runs it with retry.
func (f *Fetcher) Fetch(ctx context.Context, resource string, params map[string]interface{}, op retry.Operation) (interface{}, error) {
	return f.scheduler.Schedule(ctx, resource, func(ctx context.Context) (interface{}, error) {
		return retry.WithRetry(ctx, f.recorder, f.logger, f.provider, resource, params, f.retryCfg, op)
	})
}
