package ingest

import (
	"context"
	"strconv"
	"sync"

	apperrors "github.com/sports-ingest/internal/errors"
	"github.com/sports-ingest/internal/logging"
	"github.com/sports-ingest/internal/models"
	"github.com/sports-ingest/internal/provider"
)

// StageLeagues is the stage name leagues are reported under.
const StageLeagues = "leagues"

// LeagueService ingests league metadata for a configured set of league IDs.
type LeagueService struct {
	api         ProviderAPI
	fetcher     *Fetcher
	leagues     LeagueStore
	concurrency int
}

// NewLeagueService creates a league ingestion service.
func NewLeagueService(api ProviderAPI, fetcher *Fetcher, leagues LeagueStore, concurrency int) *LeagueService {
	return &LeagueService{api: api, fetcher: fetcher, leagues: leagues, concurrency: concurrency}
}

// IngestLeagues fetches and upserts each league ID independently. A failing
// league does not stop the others; a quota-exceeded rejection does, and is
// returned so the caller can abort the run.
func (s *LeagueService) IngestLeagues(ctx context.Context, il *logging.IngestionLogger, season string, leagueIDs []int) (models.StageSummary, error) {
	collector := newStageCollector(StageLeagues)
	guard := &fatalGuard{}

	boundedMap(ctx, s.concurrency, leagueIDs, func(ctx context.Context, leagueID int) {
		if guard.get() != nil {
			return
		}

		result, err := s.fetcher.Fetch(ctx, provider.ResourceLeagues,
			map[string]interface{}{"id": leagueID, "season": season},
			func(ctx context.Context) (interface{}, error) {
				return s.api.GetLeagues(ctx, leagueID, season)
			})
		il.AddAPICalls(1)
		if err != nil {
			if apperrors.IsQuotaExceeded(err) {
				guard.set(err)
			}
			il.AddErrors(1)
			collector.failed("league " + strconv.Itoa(leagueID) + ": " + err.Error())
			return
		}

		entries, _ := result.([]provider.LeagueEntry)
		if len(entries) == 0 {
			collector.skipped("league " + strconv.Itoa(leagueID) + ": provider returned no data")
			return
		}

		league, err := mapLeague(s.api.Name(), entries[0], season)
		if err != nil {
			il.AddErrors(1)
			collector.failed(err.Error())
			return
		}

		_, created, err := s.leagues.Upsert(ctx, league)
		if err != nil {
			il.AddErrors(1)
			collector.failed("league " + strconv.Itoa(leagueID) + ": " + err.Error())
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

// fatalGuard latches the first run-fatal error observed by concurrent
// workers so remaining work can be skipped.
type fatalGuard struct {
	mu  sync.Mutex
	err error
}

func (g *fatalGuard) set(err error) {
	g.mu.Lock()
	if g.err == nil {
		g.err = err
	}
	g.mu.Unlock()
}

func (g *fatalGuard) get() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.err
}

// logStage emits one summary event per completed stage.
func logStage(il *logging.IngestionLogger, summary models.StageSummary) {
	entry := il.WithFields(map[string]interface{}{
		"stage":     summary.Stage,
		"processed": summary.Processed,
		"created":   summary.Created,
		"updated":   summary.Updated,
		"skipped":   summary.Skipped,
		"failed":    summary.Errors,
	})
	if summary.Errors > 0 {
		entry.Warn("stage completed with errors")
		return
	}
	entry.Success("stage completed")
}
