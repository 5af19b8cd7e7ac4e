package ingest

import (
	"context"
	"strconv"

	apperrors "github.com/sports-ingest/internal/errors"
	"github.com/sports-ingest/internal/logging"
	"github.com/sports-ingest/internal/models"
	"github.com/sports-ingest/internal/provider"
)

// StagePlayerStats is the stage name player statistics are reported under.
const StagePlayerStats = "playerStats"

// PlayerStatsService ingests per-season statistics snapshots per player.
type PlayerStatsService struct {
	api         ProviderAPI
	fetcher     *Fetcher
	playerStats PlayerStatsStore
	width       int
}

// NewPlayerStatsService creates a player statistics ingestion service.
func NewPlayerStatsService(api ProviderAPI, fetcher *Fetcher, playerStats PlayerStatsStore, width int) *PlayerStatsService {
	return &PlayerStatsService{api: api, fetcher: fetcher, playerStats: playerStats, width: width}
}

// IngestPlayerStats fetches the detail record of each player and upserts
// one snapshot per player+season. This is the most call-heavy stage, one
// provider call per player, so its fan-out width is bounded separately
// from squad ingestion.
func (s *PlayerStatsService) IngestPlayerStats(ctx context.Context, il *logging.IngestionLogger, season string, players []*models.Player) (models.StageSummary, error) {
	collector := newStageCollector(StagePlayerStats)
	guard := &fatalGuard{}

	if len(players) == 0 {
		il.Warn("no players available for statistics ingestion")
	}

	boundedMap(ctx, s.width, players, func(ctx context.Context, player *models.Player) {
		if guard.get() != nil {
			return
		}

		result, err := s.fetcher.Fetch(ctx, provider.ResourcePlayers,
			map[string]interface{}{"id": player.ExternalID, "season": season},
			func(ctx context.Context) (interface{}, error) {
				return s.api.GetPlayer(ctx, player.ExternalID, season)
			})
		il.AddAPICalls(1)
		if err != nil {
			if apperrors.IsQuotaExceeded(err) {
				guard.set(err)
			}
			il.AddErrors(1)
			collector.failed("stats of player " + strconv.Itoa(player.ExternalID) + ": " + err.Error())
			return
		}

		entries, _ := result.([]provider.PlayerEntry)
		if len(entries) == 0 {
			collector.skipped("player " + strconv.Itoa(player.ExternalID) + ": no detail returned")
			return
		}

		snap, err := mapPlayerStats(s.api.Name(), entries[0], player, season)
		if err != nil {
			if apperrors.IsValidation(err) {
				collector.skipped(err.Error())
				return
			}
			il.AddErrors(1)
			collector.failed(err.Error())
			return
		}

		_, created, err := s.playerStats.Upsert(ctx, snap)
		if err != nil {
			il.AddErrors(1)
			collector.failed("stats of player " + strconv.Itoa(player.ExternalID) + ": " + err.Error())
			return
		}

		il.AddProcessed(1)
		if created {
			il.AddCreated(1)
			collector.created()
		} else {
			il.AddUpdated(1)
			collector.updated()
		}
	})

	summary := collector.snapshot()
	logStage(il, summary)
	return summary, guard.get()
}
