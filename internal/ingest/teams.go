package ingest

import (
	"context"
	"strconv"

	apperrors "github.com/sports-ingest/internal/errors"
	"github.com/sports-ingest/internal/logging"
	"github.com/sports-ingest/internal/models"
	"github.com/sports-ingest/internal/provider"
)

// StageTeams is the stage name teams are reported under.
const StageTeams = "teams"

// TeamService ingests the teams of previously ingested leagues.
type TeamService struct {
	api         ProviderAPI
	fetcher     *Fetcher
	teams       TeamStore
	concurrency int
}

// NewTeamService creates a team ingestion service.
func NewTeamService(api ProviderAPI, fetcher *Fetcher, teams TeamStore, concurrency int) *TeamService {
	return &TeamService{api: api, fetcher: fetcher, teams: teams, concurrency: concurrency}
}

// IngestTeams fetches each league's team list and upserts every team. One
// provider call per league covers all of the league's teams; record-level
// failures are isolated per team.
func (s *TeamService) IngestTeams(ctx context.Context, il *logging.IngestionLogger, season string, leagues []*models.League) (models.StageSummary, error) {
	collector := newStageCollector(StageTeams)
	guard := &fatalGuard{}

	boundedMap(ctx, s.concurrency, leagues, func(ctx context.Context, league *models.League) {
		if guard.get() != nil {
			return
		}

		result, err := s.fetcher.Fetch(ctx, provider.ResourceTeams,
			map[string]interface{}{"league": league.ExternalID, "season": season},
			func(ctx context.Context) (interface{}, error) {
				return s.api.GetTeams(ctx, league.ExternalID, season)
			})
		il.AddAPICalls(1)
		if err != nil {
			if apperrors.IsQuotaExceeded(err) {
				guard.set(err)
			}
			il.AddErrors(1)
			collector.failed("teams of league " + strconv.Itoa(league.ExternalID) + ": " + err.Error())
			return
		}

		entries, _ := result.([]provider.TeamEntry)
		if len(entries) == 0 {
			collector.skipped("league " + strconv.Itoa(league.ExternalID) + ": no teams returned")
			return
		}

		for _, entry := range entries {
			team, err := mapTeam(s.api.Name(), entry, league, season)
			if err != nil {
				il.AddErrors(1)
				collector.failed(err.Error())
				continue
			}

			_, created, err := s.teams.Upsert(ctx, team)
			if err != nil {
				il.AddErrors(1)
				collector.failed("team " + strconv.Itoa(team.ExternalID) + ": " + err.Error())
				continue
			}

			il.AddProcessed(1)
			if created {
				il.AddCreated(1)
				collector.created()
			} else {
				il.AddUpdated(1)
				collector.updated()
			}
		}
	})

	summary := collector.snapshot()
	logStage(il, summary)
	return summary, guard.get()
}
