package ingest

import (
	"context"
	"fmt"
	"time"

	"github.com/sports-ingest/internal/config"
	"github.com/sports-ingest/internal/logging"
	"github.com/sports-ingest/internal/models"
)

// Job types recorded on run summaries.
const (
	JobFull = "full"
)

// RunOptions parameterizes one orchestrated run. Zero values fall back to
// the configured season and league set. Skip flags drop best-effort stages;
// skipping players also skips the stages that depend on player rows.
type RunOptions struct {
	RunID           string
	Season          string
	LeagueIDs       []int
	SkipPlayers     bool
	SkipTeamStats   bool
	SkipPlayerStats bool
}

// Orchestrator sequences the resource services into a full ingestion run:
// reference data, then leagues, teams and players in dependency order, then
// the best-effort statistics stages.
type Orchestrator struct {
	cfg         *config.IngestionConfig
	provider    string
	leagueSvc   *LeagueService
	teamSvc     *TeamService
	playerSvc   *PlayerService
	teamStats   *TeamStatsService
	playerStats *PlayerStatsService
	topStats    *TopStatsService
	leagues     LeagueStore
	teams       TeamStore
	players     PlayerStore
	runs        RunStore
	reference   ReferenceStore
	logger      *logging.Logger
}

// NewOrchestrator wires the resource services and stores into a pipeline.
func NewOrchestrator(
	cfg *config.IngestionConfig,
	providerName string,
	leagueSvc *LeagueService,
	teamSvc *TeamService,
	playerSvc *PlayerService,
	teamStats *TeamStatsService,
	playerStats *PlayerStatsService,
	topStats *TopStatsService,
	leagues LeagueStore,
	teams TeamStore,
	players PlayerStore,
	runs RunStore,
	reference ReferenceStore,
	logger *logging.Logger,
) *Orchestrator {
	if logger == nil {
		logger = logging.GetGlobalLogger()
	}
	return &Orchestrator{
		cfg:         cfg,
		provider:    providerName,
		leagueSvc:   leagueSvc,
		teamSvc:     teamSvc,
		playerSvc:   playerSvc,
		teamStats:   teamStats,
		playerStats: playerStats,
		topStats:    topStats,
		leagues:     leagues,
		teams:       teams,
		players:     players,
		runs:        runs,
		reference:   reference,
		logger:      logger,
	}
}

// Run executes a full ingestion run. Reference seeding and the league, team
// and player stages are load-bearing: a failure there aborts the run. The
// statistics stages are best effort and only mark the summary, never abort
// it. The returned summary is always populated, also on abort; the error is
// non-nil only when the run was cut short.
func (o *Orchestrator) Run(ctx context.Context, opts RunOptions) (*models.RunSummary, error) {
	opts = o.withDefaults(opts)
	il := o.newRunLogger(JobFull, opts)
	summary := &models.RunSummary{
		RunID:     il.RunID(),
		JobType:   JobFull,
		Season:    opts.Season,
		StartedAt: il.StartedAt(),
	}
	il.WithFields(map[string]interface{}{"season": opts.Season, "leagues": opts.LeagueIDs}).Info("ingestion run started")

	err := o.runStages(ctx, il, summary, opts)
	if err != nil {
		summary.Error = err.Error()
	}
	o.finalize(ctx, il, summary)
	return summary, err
}

func (o *Orchestrator) runStages(ctx context.Context, il *logging.IngestionLogger, summary *models.RunSummary, opts RunOptions) error {
	if err := o.seedReference(ctx, il); err != nil {
		return fmt.Errorf("reference seeding failed: %w", err)
	}

	leagueStage, err := o.leagueSvc.IngestLeagues(ctx, il, opts.Season, opts.LeagueIDs)
	summary.Stages = append(summary.Stages, leagueStage)
	if err != nil {
		return err
	}
	if leagueStage.Created+leagueStage.Updated == 0 {
		return fmt.Errorf("no leagues ingested for season %s", opts.Season)
	}

	leagues, err := o.leagues.ListByExternalIDs(ctx, o.provider, opts.LeagueIDs)
	if err != nil {
		return fmt.Errorf("loading leagues: %w", err)
	}

	teamStage, err := o.teamSvc.IngestTeams(ctx, il, opts.Season, leagues)
	summary.Stages = append(summary.Stages, teamStage)
	if err != nil {
		return err
	}
	if teamStage.Created+teamStage.Updated == 0 {
		return fmt.Errorf("no teams ingested for season %s", opts.Season)
	}

	teams, err := o.loadTeams(ctx, leagues)
	if err != nil {
		return fmt.Errorf("loading teams: %w", err)
	}

	if opts.SkipPlayers {
		summary.SkippedStages = append(summary.SkippedStages, StagePlayers, StagePlayerStats, StageTopStats)
		il.Info("player stages skipped by request")
	} else {
		playerStage, err := o.playerSvc.IngestPlayers(ctx, il, teams)
		summary.Stages = append(summary.Stages, playerStage)
		if err != nil {
			return err
		}
	}

	if opts.SkipTeamStats {
		summary.SkippedStages = append(summary.SkippedStages, StageTeamStats)
	} else {
		leagueExternal := leagueExternalIDs(leagues)
		stage, err := o.teamStats.IngestTeamStats(ctx, il, opts.Season, teams, leagueExternal)
		summary.Stages = append(summary.Stages, stage)
		if err != nil {
			// Best-effort stage: the error is already reflected in the
			// stage summary. Later stages hit the quota gate themselves
			// and fail fast without spending calls.
			il.WithError(err).Warn("team statistics stage aborted")
		}
	}

	if opts.SkipPlayers {
		return nil
	}

	if opts.SkipPlayerStats {
		summary.SkippedStages = append(summary.SkippedStages, StagePlayerStats, StageTopStats)
		return nil
	}

	players, err := o.loadPlayers(ctx, teams)
	if err != nil {
		return fmt.Errorf("loading players: %w", err)
	}

	stage, err := o.playerStats.IngestPlayerStats(ctx, il, opts.Season, players)
	summary.Stages = append(summary.Stages, stage)
	if err != nil {
		il.WithError(err).Warn("player statistics stage aborted")
	}

	// Top-statistics ranks patch existing snapshots, so this stage only
	// runs once the player statistics stage has.
	topStage, err := o.topStats.IngestTopStats(ctx, il, opts.Season, leagues)
	summary.Stages = append(summary.Stages, topStage)
	if err != nil {
		il.WithError(err).Warn("top statistics stage aborted")
	}
	return nil
}

func (o *Orchestrator) seedReference(ctx context.Context, il *logging.IngestionLogger) error {
	if err := o.reference.SeedPositions(ctx, models.DefaultPositions()); err != nil {
		return err
	}
	if err := o.reference.SeedStatWindows(ctx, models.DefaultStatWindows()); err != nil {
		return err
	}
	il.Debug("reference data seeded")
	return nil
}

func (o *Orchestrator) loadTeams(ctx context.Context, leagues []*models.League) ([]*models.Team, error) {
	var all []*models.Team
	for _, league := range leagues {
		teams, err := o.teams.ListByLeague(ctx, league.ID, o.cfg.TeamsPerLeagueCap)
		if err != nil {
			return nil, err
		}
		all = append(all, teams...)
	}
	return all, nil
}

func (o *Orchestrator) loadPlayers(ctx context.Context, teams []*models.Team) ([]*models.Player, error) {
	var all []*models.Player
	for _, team := range teams {
		players, err := o.players.ListByTeam(ctx, team.ID)
		if err != nil {
			return nil, err
		}
		all = append(all, players...)
	}
	return all, nil
}

// finalize stamps the summary, persists it and emits the closing log event.
// Persisting the summary is fail-open: an unreachable database must not turn
// a completed ingestion into a failure.
func (o *Orchestrator) finalize(ctx context.Context, il *logging.IngestionLogger, summary *models.RunSummary) {
	summary.CompletedAt = time.Now().UTC()
	summary.TotalAPICalls = il.Counters().APICalls
	summary.Success = summary.Error == ""

	if o.runs != nil {
		if err := o.runs.Insert(ctx, summary); err != nil {
			il.WithError(err).Warn("failed to persist run summary")
		}
	}

	totals := summary.Totals()
	entry := il.WithFields(map[string]interface{}{
		"season":        summary.Season,
		"stages":        len(summary.Stages),
		"skippedStages": summary.SkippedStages,
		"processed":     totals.Processed,
		"skipped":       totals.Skipped,
		"errors":        totals.Errors,
		"totalApiCalls": summary.TotalAPICalls,
		"durationMs":    il.Duration().Milliseconds(),
	})
	if summary.Success {
		entry.Success("ingestion run completed")
	} else {
		entry.WithFields(map[string]interface{}{"error": summary.Error}).Error("ingestion run failed")
	}
}

func (o *Orchestrator) newRunLogger(jobType string, opts RunOptions) *logging.IngestionLogger {
	if opts.RunID != "" {
		return logging.NewIngestionLoggerWithRunID(o.logger, jobType, opts.RunID)
	}
	return logging.NewIngestionLogger(o.logger, jobType)
}

func (o *Orchestrator) withDefaults(opts RunOptions) RunOptions {
	if opts.Season == "" {
		opts.Season = o.cfg.Season
	}
	if len(opts.LeagueIDs) == 0 {
		opts.LeagueIDs = o.cfg.TopLeagueIDs
	}
	return opts
}

func leagueExternalIDs(leagues []*models.League) map[int64]int {
	out := make(map[int64]int, len(leagues))
	for _, league := range leagues {
		out[league.ID] = league.ExternalID
	}
	return out
}
