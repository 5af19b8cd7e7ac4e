package ingest

import (
	"context"
	"strconv"

	apperrors "github.com/sports-ingest/internal/errors"
	"github.com/sports-ingest/internal/logging"
	"github.com/sports-ingest/internal/models"
	"github.com/sports-ingest/internal/provider"
)

// StageTeamStats is the stage name team statistics are reported under.
const StageTeamStats = "teamStats"

// TeamStatsService ingests aggregate season statistics per team.
type TeamStatsService struct {
	api         ProviderAPI
	fetcher     *Fetcher
	teamStats   TeamStatsStore
	concurrency int
}

// NewTeamStatsService creates a team statistics ingestion service.
func NewTeamStatsService(api ProviderAPI, fetcher *Fetcher, teamStats TeamStatsStore, concurrency int) *TeamStatsService {
	return &TeamStatsService{api: api, fetcher: fetcher, teamStats: teamStats, concurrency: concurrency}
}

// IngestTeamStats fetches statistics for each team within its league.
// leagueExternal maps internal league IDs to provider league IDs; a team
// whose league is not in the map is skipped.
func (s *TeamStatsService) IngestTeamStats(ctx context.Context, il *logging.IngestionLogger, season string, teams []*models.Team, leagueExternal map[int64]int) (models.StageSummary, error) {
	collector := newStageCollector(StageTeamStats)
	guard := &fatalGuard{}

	boundedMap(ctx, s.concurrency, teams, func(ctx context.Context, team *models.Team) {
		if guard.get() != nil {
			return
		}

		leagueID, ok := leagueExternal[team.LeagueID]
		if !ok {
			collector.skipped("team " + strconv.Itoa(team.ExternalID) + ": league not loaded")
			return
		}

		result, err := s.fetcher.Fetch(ctx, provider.ResourceTeamStats,
			map[string]interface{}{"league": leagueID, "team": team.ExternalID, "season": season},
			func(ctx context.Context) (interface{}, error) {
				return s.api.GetTeamStatistics(ctx, leagueID, team.ExternalID, season)
			})
		il.AddAPICalls(1)
		if err != nil {
			if apperrors.IsQuotaExceeded(err) {
				guard.set(err)
			}
			il.AddErrors(1)
			collector.failed("stats of team " + strconv.Itoa(team.ExternalID) + ": " + err.Error())
			return
		}

		entry, _ := result.(*provider.TeamStatisticsEntry)
		if entry == nil || entry.Team.ID == 0 {
			collector.skipped("team " + strconv.Itoa(team.ExternalID) + ": no statistics returned")
			return
		}

		snap, err := mapTeamStats(s.api.Name(), entry, team, leagueID, season)
		if err != nil {
			il.AddErrors(1)
			collector.failed(err.Error())
			return
		}

		_, created, err := s.teamStats.Upsert(ctx, snap)
		if err != nil {
			il.AddErrors(1)
			collector.failed("stats of team " + strconv.Itoa(team.ExternalID) + ": " + err.Error())
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
