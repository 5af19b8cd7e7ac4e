package ingest

import (
	"context"
	"strconv"

	apperrors "github.com/sports-ingest/internal/errors"
	"github.com/sports-ingest/internal/logging"
	"github.com/sports-ingest/internal/models"
	"github.com/sports-ingest/internal/provider"
)

// StageTopStats is the stage name top-statistics rankings are reported under.
const StageTopStats = "topStats"

// TopStatsService ingests the ranked top-player lists of each league and
// patches the rank onto existing player statistics snapshots.
type TopStatsService struct {
	api         ProviderAPI
	fetcher     *Fetcher
	playerStats PlayerStatsStore
	concurrency int
}

// NewTopStatsService creates a top-statistics ingestion service.
func NewTopStatsService(api ProviderAPI, fetcher *Fetcher, playerStats PlayerStatsStore, concurrency int) *TopStatsService {
	return &TopStatsService{api: api, fetcher: fetcher, playerStats: playerStats, concurrency: concurrency}
}

type topListFetch struct {
	category models.TopStatCategory
	resource string
	fetch    func(ctx context.Context, leagueID int, season string) ([]provider.PlayerEntry, error)
}

func (s *TopStatsService) categories() []topListFetch {
	return []topListFetch{
		{models.TopStatGoals, provider.ResourceTopScorers, s.api.GetTopScorers},
		{models.TopStatAssists, provider.ResourceTopAssists, s.api.GetTopAssists},
		{models.TopStatYellowCards, provider.ResourceTopYellowCards, s.api.GetTopYellowCards},
		{models.TopStatRedCards, provider.ResourceTopRedCards, s.api.GetTopRedCards},
	}
}

// IngestTopStats fetches the four ranked category lists for each league and
// writes each player's 1-based rank into their statistics snapshot. A rank
// for a player without a snapshot is skipped with a missing-dependency
// message; the player statistics stage fills those snapshots in.
func (s *TopStatsService) IngestTopStats(ctx context.Context, il *logging.IngestionLogger, season string, leagues []*models.League) (models.StageSummary, error) {
	collector := newStageCollector(StageTopStats)
	guard := &fatalGuard{}

	boundedMap(ctx, s.concurrency, leagues, func(ctx context.Context, league *models.League) {
		for _, cat := range s.categories() {
			if guard.get() != nil {
				return
			}
			s.ingestCategory(ctx, il, collector, guard, season, league, cat)
		}
	})

	summary := collector.snapshot()
	logStage(il, summary)
	return summary, guard.get()
}

func (s *TopStatsService) ingestCategory(ctx context.Context, il *logging.IngestionLogger, collector *stageCollector, guard *fatalGuard, season string, league *models.League, cat topListFetch) {
	result, err := s.fetcher.Fetch(ctx, cat.resource,
		map[string]interface{}{"league": league.ExternalID, "season": season},
		func(ctx context.Context) (interface{}, error) {
			return cat.fetch(ctx, league.ExternalID, season)
		})
	il.AddAPICalls(1)
	if err != nil {
		if apperrors.IsQuotaExceeded(err) {
			guard.set(err)
		}
		il.AddErrors(1)
		collector.failed(cat.resource + " of league " + strconv.Itoa(league.ExternalID) + ": " + err.Error())
		return
	}

	entries, _ := result.([]provider.PlayerEntry)
	if len(entries) == 0 {
		collector.skipped(cat.resource + " of league " + strconv.Itoa(league.ExternalID) + ": empty list")
		return
	}

	for rank, entry := range entries {
		// Entries that cannot be resolved to a snapshot are skipped, not
		// failed: the rest of the list still carries usable ranks.
		if entry.Player.ID <= 0 {
			collector.skipped(cat.resource + ": entry at rank " + strconv.Itoa(rank+1) + " has no player id")
			continue
		}

		found, err := s.playerStats.PatchPosition(ctx, s.api.Name(), entry.Player.ID, season, league.ExternalID, cat.category, rank+1)
		if err != nil {
			il.AddErrors(1)
			collector.failed("rank of player " + strconv.Itoa(entry.Player.ID) + ": " + err.Error())
			continue
		}
		if !found {
			missing := apperrors.NewMissingDependencyError("topStats", "playerStats snapshot",
				strconv.Itoa(entry.Player.ID)+"/"+season)
			collector.skipped(missing.Error())
			continue
		}

		il.AddProcessed(1)
		il.AddUpdated(1)
		collector.updated()
	}
}
