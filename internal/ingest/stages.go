package ingest

import (
	"context"
	"fmt"

	"github.com/sports-ingest/internal/logging"
	"github.com/sports-ingest/internal/models"
)

// ValidStages lists the stage names accepted by RunStage, in pipeline order.
func ValidStages() []string {
	return []string{StageLeagues, StageTeams, StagePlayers, StageTeamStats, StagePlayerStats, StageTopStats}
}

// RunStage executes one pipeline stage as a standalone job. Prerequisite
// entities come from the database, not from the provider, so a stage run
// only makes sense after the earlier stages have been ingested at least
// once. Unknown stage names are rejected up front.
func (o *Orchestrator) RunStage(ctx context.Context, stage string, opts RunOptions) (*models.RunSummary, error) {
	opts = o.withDefaults(opts)
	il := o.newRunLogger(stage, opts)
	summary := &models.RunSummary{
		RunID:     il.RunID(),
		JobType:   stage,
		Season:    opts.Season,
		StartedAt: il.StartedAt(),
	}
	il.WithFields(map[string]interface{}{"season": opts.Season, "leagues": opts.LeagueIDs}).Info("stage run started")

	err := o.runSingleStage(ctx, il, summary, stage, opts)
	if err != nil {
		summary.Error = err.Error()
	}
	o.finalize(ctx, il, summary)
	return summary, err
}

func (o *Orchestrator) runSingleStage(ctx context.Context, il *logging.IngestionLogger, summary *models.RunSummary, stage string, opts RunOptions) error {
	switch stage {
	case StageLeagues:
		if err := o.seedReference(ctx, il); err != nil {
			return fmt.Errorf("reference seeding failed: %w", err)
		}
		s, err := o.leagueSvc.IngestLeagues(ctx, il, opts.Season, opts.LeagueIDs)
		summary.Stages = append(summary.Stages, s)
		return err

	case StageTeams:
		leagues, err := o.loadLeagues(ctx, opts)
		if err != nil {
			return err
		}
		s, err := o.teamSvc.IngestTeams(ctx, il, opts.Season, leagues)
		summary.Stages = append(summary.Stages, s)
		return err

	case StagePlayers:
		teams, _, err := o.loadLeaguesAndTeams(ctx, opts)
		if err != nil {
			return err
		}
		s, err := o.playerSvc.IngestPlayers(ctx, il, teams)
		summary.Stages = append(summary.Stages, s)
		return err

	case StageTeamStats:
		teams, leagues, err := o.loadLeaguesAndTeams(ctx, opts)
		if err != nil {
			return err
		}
		s, err := o.teamStats.IngestTeamStats(ctx, il, opts.Season, teams, leagueExternalIDs(leagues))
		summary.Stages = append(summary.Stages, s)
		return err

	case StagePlayerStats:
		teams, _, err := o.loadLeaguesAndTeams(ctx, opts)
		if err != nil {
			return err
		}
		players, err := o.loadPlayers(ctx, teams)
		if err != nil {
			return fmt.Errorf("loading players: %w", err)
		}
		s, err := o.playerStats.IngestPlayerStats(ctx, il, opts.Season, players)
		summary.Stages = append(summary.Stages, s)
		return err

	case StageTopStats:
		leagues, err := o.loadLeagues(ctx, opts)
		if err != nil {
			return err
		}
		s, err := o.topStats.IngestTopStats(ctx, il, opts.Season, leagues)
		summary.Stages = append(summary.Stages, s)
		return err

	default:
		return fmt.Errorf("unknown ingestion stage %q", stage)
	}
}

func (o *Orchestrator) loadLeagues(ctx context.Context, opts RunOptions) ([]*models.League, error) {
	leagues, err := o.leagues.ListByExternalIDs(ctx, o.provider, opts.LeagueIDs)
	if err != nil {
		return nil, fmt.Errorf("loading leagues: %w", err)
	}
	if len(leagues) == 0 {
		return nil, fmt.Errorf("no leagues found for ids %v; run the leagues stage first", opts.LeagueIDs)
	}
	return leagues, nil
}

func (o *Orchestrator) loadLeaguesAndTeams(ctx context.Context, opts RunOptions) ([]*models.Team, []*models.League, error) {
	leagues, err := o.loadLeagues(ctx, opts)
	if err != nil {
		return nil, nil, err
	}
	teams, err := o.loadTeams(ctx, leagues)
	if err != nil {
		return nil, nil, fmt.Errorf("loading teams: %w", err)
	}
	if len(teams) == 0 {
		return nil, nil, fmt.Errorf("no teams found for the requested leagues; run the teams stage first")
	}
	return teams, leagues, nil
}
