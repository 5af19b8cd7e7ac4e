package ingest

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/sports-ingest/internal/errors"
	"github.com/sports-ingest/internal/models"
	"github.com/sports-ingest/internal/provider"
)

func TestFullRunHappyPath(t *testing.T) {
	h := newHarness(t)

	summary, err := h.orch.Run(context.Background(), RunOptions{})
	require.NoError(t, err)
	require.True(t, summary.Success)
	assert.NotEmpty(t, summary.RunID)
	assert.Equal(t, "2026", summary.Season)

	// Two leagues, two teams each, three players per team.
	leagues := summary.Stage(StageLeagues)
	require.NotNil(t, leagues)
	assert.Equal(t, 2, leagues.Created)

	teams := summary.Stage(StageTeams)
	require.NotNil(t, teams)
	assert.Equal(t, 4, teams.Created)

	players := summary.Stage(StagePlayers)
	require.NotNil(t, players)
	assert.Equal(t, 12, players.Created)

	teamStats := summary.Stage(StageTeamStats)
	require.NotNil(t, teamStats)
	assert.Equal(t, 4, teamStats.Created)

	playerStats := summary.Stage(StagePlayerStats)
	require.NotNil(t, playerStats)
	assert.Equal(t, 12, playerStats.Created)

	topStats := summary.Stage(StageTopStats)
	require.NotNil(t, topStats)
	assert.Zero(t, topStats.Errors)
	// 2 leagues x (2 scorers + 2 assists + 1 yellow + 1 red).
	assert.Equal(t, 12, topStats.Updated)

	assert.True(t, summary.TotalAPICalls > 0)
	assert.Equal(t, summary.TotalAPICalls, h.scheduler.scheduled())
	assert.Empty(t, summary.SkippedStages)

	require.Len(t, h.runs.runs, 1)
	assert.Equal(t, summary.RunID, h.runs.runs[0].RunID)
	assert.Len(t, h.reference.positions, 4)
	assert.Len(t, h.reference.windows, 4)
}

func TestRerunIsIdempotent(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	_, err := h.orch.Run(ctx, RunOptions{})
	require.NoError(t, err)

	summary, err := h.orch.Run(ctx, RunOptions{})
	require.NoError(t, err)
	require.True(t, summary.Success)

	for _, stage := range []string{StageLeagues, StageTeams, StagePlayers, StageTeamStats, StagePlayerStats} {
		s := summary.Stage(stage)
		require.NotNil(t, s, stage)
		assert.Zero(t, s.Created, "second run of %s must update, not create", stage)
		assert.NotZero(t, s.Updated, stage)
	}
}

func TestTopStatsRanksPatchedOntoSnapshots(t *testing.T) {
	h := newHarness(t)

	_, err := h.orch.Run(context.Background(), RunOptions{})
	require.NoError(t, err)

	snap := h.playerStats.byKey[statsKey{39101, "2026"}]
	require.NotNil(t, snap)
	positions, ok := snap.LeaguePositions["39"]
	require.True(t, ok)
	require.NotNil(t, positions.Goals)
	assert.Equal(t, 1, *positions.Goals)
}

func TestLeagueFailureIsIsolated(t *testing.T) {
	h := newHarness(t)
	h.provider.failLeagues[140] = apperrors.NewServerError("leagues", 500, "boom")

	summary, err := h.orch.Run(context.Background(), RunOptions{})
	require.NoError(t, err, "one failing league must not abort the run")
	require.True(t, summary.Success)

	leagues := summary.Stage(StageLeagues)
	require.NotNil(t, leagues)
	assert.Equal(t, 1, leagues.Created)
	assert.Equal(t, 1, leagues.Errors)

	// Downstream stages only cover the league that loaded.
	teams := summary.Stage(StageTeams)
	require.NotNil(t, teams)
	assert.Equal(t, 2, teams.Created)
}

func TestAllLeaguesFailingAbortsRun(t *testing.T) {
	h := newHarness(t)
	h.provider.failLeagues[39] = apperrors.NewServerError("leagues", 500, "boom")
	h.provider.failLeagues[140] = apperrors.NewServerError("leagues", 500, "boom")

	summary, err := h.orch.Run(context.Background(), RunOptions{})
	require.Error(t, err)
	assert.False(t, summary.Success)
	assert.NotEmpty(t, summary.Error)
	assert.Nil(t, summary.Stage(StageTeams))
}

func TestQuotaExceededAbortsRun(t *testing.T) {
	h := newHarness(t)
	h.scheduler.reject = apperrors.NewQuotaExceededError(testProvider, 7000, 7000)

	summary, err := h.orch.Run(context.Background(), RunOptions{})
	require.Error(t, err)
	assert.True(t, apperrors.IsQuotaExceeded(err))
	assert.False(t, summary.Success)
	assert.Zero(t, h.scheduler.scheduled())
}

func TestQuotaDuringStatsStageDoesNotAbortRun(t *testing.T) {
	h := newHarness(t)
	h.scheduler.rejectResource = map[string]error{
		provider.ResourceTeamStats: apperrors.NewQuotaExceededError(testProvider, 7000, 7000),
	}

	summary, err := h.orch.Run(context.Background(), RunOptions{})
	require.NoError(t, err, "a stats stage hitting the quota must not abort the run")
	require.True(t, summary.Success)

	teamStats := summary.Stage(StageTeamStats)
	require.NotNil(t, teamStats)
	assert.Zero(t, teamStats.Created)
	assert.NotZero(t, teamStats.Errors)

	// The later stages still ran to completion.
	playerStats := summary.Stage(StagePlayerStats)
	require.NotNil(t, playerStats)
	assert.Equal(t, 12, playerStats.Created)
	require.NotNil(t, summary.Stage(StageTopStats))
}

func TestSquadFailureIsIsolated(t *testing.T) {
	h := newHarness(t)
	h.provider.failSquads[391] = apperrors.NewServerError("squads", 502, "bad gateway")

	summary, err := h.orch.Run(context.Background(), RunOptions{})
	require.NoError(t, err)

	players := summary.Stage(StagePlayers)
	require.NotNil(t, players)
	assert.Equal(t, 9, players.Created)
	assert.Equal(t, 1, players.Errors)
}

func TestSkipPlayersSkipsDependentStages(t *testing.T) {
	h := newHarness(t)

	summary, err := h.orch.Run(context.Background(), RunOptions{SkipPlayers: true})
	require.NoError(t, err)
	require.True(t, summary.Success)

	assert.Nil(t, summary.Stage(StagePlayers))
	assert.Nil(t, summary.Stage(StagePlayerStats))
	assert.Nil(t, summary.Stage(StageTopStats))
	assert.Contains(t, summary.SkippedStages, StagePlayers)
	assert.Contains(t, summary.SkippedStages, StagePlayerStats)
	assert.Contains(t, summary.SkippedStages, StageTopStats)
	assert.NotNil(t, summary.Stage(StageTeamStats))
}

func TestSkipTeamStats(t *testing.T) {
	h := newHarness(t)

	summary, err := h.orch.Run(context.Background(), RunOptions{SkipTeamStats: true})
	require.NoError(t, err)
	assert.Nil(t, summary.Stage(StageTeamStats))
	assert.Contains(t, summary.SkippedStages, StageTeamStats)
	assert.NotNil(t, summary.Stage(StagePlayerStats))
}

func TestRunStageLeaguesStandalone(t *testing.T) {
	h := newHarness(t)

	summary, err := h.orch.RunStage(context.Background(), StageLeagues, RunOptions{})
	require.NoError(t, err)
	require.True(t, summary.Success)
	assert.Equal(t, StageLeagues, summary.JobType)
	assert.Equal(t, 2, summary.Stage(StageLeagues).Created)
	assert.Len(t, h.reference.positions, 4)
}

func TestRunStageTeamsRequiresLeagues(t *testing.T) {
	h := newHarness(t)

	summary, err := h.orch.RunStage(context.Background(), StageTeams, RunOptions{})
	require.Error(t, err)
	assert.False(t, summary.Success)
	assert.Contains(t, summary.Error, "run the leagues stage first")
}

func TestRunStageUnknownStage(t *testing.T) {
	h := newHarness(t)

	_, err := h.orch.RunStage(context.Background(), "fixtures", RunOptions{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown ingestion stage")
}

func TestTopStatsWithoutSnapshotsIsSkipped(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	// Ingest leagues only, then jump straight to top statistics. No ranks
	// can land, but the stage still succeeds.
	_, err := h.orch.RunStage(ctx, StageLeagues, RunOptions{})
	require.NoError(t, err)

	summary, err := h.orch.RunStage(ctx, StageTopStats, RunOptions{})
	require.NoError(t, err)
	require.True(t, summary.Success)

	stage := summary.Stage(StageTopStats)
	require.NotNil(t, stage)
	assert.Zero(t, stage.Updated)
	assert.Zero(t, stage.Errors)
	assert.Equal(t, 12, stage.Skipped)
	require.NotEmpty(t, stage.Messages)
	assert.Contains(t, stage.Messages[0], "missing")
}

func TestTopStatsEntryWithoutPlayerIDIsSkipped(t *testing.T) {
	h := newHarness(t)
	h.provider.anonymousScorer = true

	summary, err := h.orch.Run(context.Background(), RunOptions{})
	require.NoError(t, err)
	require.True(t, summary.Success)

	stage := summary.Stage(StageTopStats)
	require.NotNil(t, stage)
	assert.Zero(t, stage.Errors)
	assert.Equal(t, 2, stage.Skipped)
	assert.Equal(t, 12, stage.Updated)
	require.NotEmpty(t, stage.Messages)
	assert.Contains(t, stage.Messages[0], "has no player id")
}

func TestRunOptionsOverrideDefaults(t *testing.T) {
	h := newHarness(t)

	summary, err := h.orch.Run(context.Background(), RunOptions{
		Season:    "2025",
		LeagueIDs: []int{61},
	})
	require.NoError(t, err)
	assert.Equal(t, "2025", summary.Season)
	assert.Equal(t, 1, summary.Stage(StageLeagues).Created)

	stored, err := h.leagues.ListByExternalIDs(context.Background(), testProvider, []int{61})
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, "2025", stored[0].Season)
}

func TestRetryRecordsEveryAttempt(t *testing.T) {
	h := newHarness(t)
	h.provider.failLeagues[39] = apperrors.NewServerError("leagues", 500, "boom")

	summary, err := h.orch.RunStage(context.Background(), StageLeagues, RunOptions{LeagueIDs: []int{39}})
	require.NoError(t, err, "a failed record is isolated, not fatal")
	assert.Equal(t, 1, summary.Stage(StageLeagues).Errors)

	// Three attempts against league 39, each with its own ledger record.
	assert.Equal(t, 3, h.recorder.count())
}

func TestStageSummaryRoundTrip(t *testing.T) {
	var s models.StageSummary
	s.Stage = StageLeagues
	s.Add(models.StageSummary{Processed: 2, Created: 1, Updated: 1})
	s.Add(models.StageSummary{Processed: 1, Errors: 1, Messages: []string{"x"}})
	assert.Equal(t, 3, s.Processed)
	assert.Equal(t, 1, s.Created)
	assert.Equal(t, 1, s.Errors)
	assert.Len(t, s.Messages, 1)
}

func TestRunSummaryTotals(t *testing.T) {
	r := models.RunSummary{Stages: []models.StageSummary{
		{Stage: StageLeagues, Processed: 2, Created: 2},
		{Stage: StageTeams, Processed: 4, Updated: 3, Skipped: 1, Messages: []string{"x"}},
	}}

	total := r.Totals()
	assert.Equal(t, 6, total.Processed)
	assert.Equal(t, 2, total.Created)
	assert.Equal(t, 3, total.Updated)
	assert.Equal(t, 1, total.Skipped)
	assert.Empty(t, total.Messages)
}
