package ingest

import (
	"context"
	"strconv"

	apperrors "github.com/sports-ingest/internal/errors"
	"github.com/sports-ingest/internal/logging"
	"github.com/sports-ingest/internal/models"
	"github.com/sports-ingest/internal/provider"
)

// StagePlayers is the stage name players are reported under.
const StagePlayers = "players"

// PlayerService ingests squad members for previously ingested teams.
type PlayerService struct {
	api             ProviderAPI
	fetcher         *Fetcher
	players         PlayerStore
	teamConcurrency int
	playerWidth     int
}

// NewPlayerService creates a player ingestion service. teamConcurrency
// bounds concurrent squad fetches; playerWidth bounds concurrent upserts
// within one squad.
func NewPlayerService(api ProviderAPI, fetcher *Fetcher, players PlayerStore, teamConcurrency, playerWidth int) *PlayerService {
	return &PlayerService{
		api:             api,
		fetcher:         fetcher,
		players:         players,
		teamConcurrency: teamConcurrency,
		playerWidth:     playerWidth,
	}
}

// IngestPlayers fetches each team's squad and upserts its members. The
// fan-out is two-level: squads across teams, then players within each
// squad, each bounded independently.
func (s *PlayerService) IngestPlayers(ctx context.Context, il *logging.IngestionLogger, teams []*models.Team) (models.StageSummary, error) {
	collector := newStageCollector(StagePlayers)
	guard := &fatalGuard{}

	boundedMap(ctx, s.teamConcurrency, teams, func(ctx context.Context, team *models.Team) {
		if guard.get() != nil {
			return
		}

		result, err := s.fetcher.Fetch(ctx, provider.ResourceSquads,
			map[string]interface{}{"team": team.ExternalID},
			func(ctx context.Context) (interface{}, error) {
				return s.api.GetSquad(ctx, team.ExternalID)
			})
		il.AddAPICalls(1)
		if err != nil {
			if apperrors.IsQuotaExceeded(err) {
				guard.set(err)
			}
			il.AddErrors(1)
			collector.failed("squad of team " + strconv.Itoa(team.ExternalID) + ": " + err.Error())
			return
		}

		entries, _ := result.([]provider.SquadEntry)
		if len(entries) == 0 || len(entries[0].Players) == 0 {
			collector.skipped("team " + strconv.Itoa(team.ExternalID) + ": empty squad")
			return
		}

		boundedMap(ctx, s.playerWidth, entries[0].Players, func(ctx context.Context, sp provider.SquadPlayer) {
			player, err := mapSquadPlayer(s.api.Name(), sp, team)
			if err != nil {
				il.AddErrors(1)
				collector.failed(err.Error())
				return
			}

			_, created, err := s.players.Upsert(ctx, player)
			if err != nil {
				il.AddErrors(1)
				collector.failed("player " + strconv.Itoa(player.ExternalID) + ": " + err.Error())
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
	})

	summary := collector.snapshot()
	logStage(il, summary)
	return summary, guard.get()
}
