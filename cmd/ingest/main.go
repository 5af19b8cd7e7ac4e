// Command ingest runs the ingestion pipeline once from the command line,
// either a full run or a single stage, and prints the run summary as JSON.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/sports-ingest/internal/config"
	"github.com/sports-ingest/internal/governor"
	"github.com/sports-ingest/internal/ingest"
	"github.com/sports-ingest/internal/ledger"
	"github.com/sports-ingest/internal/logging"
	"github.com/sports-ingest/internal/provider"
	"github.com/sports-ingest/internal/retry"
	"github.com/sports-ingest/internal/storage"
)

func main() {
	var (
		season          = flag.String("season", "", "season to ingest (defaults to configured season)")
		leagues         = flag.String("leagues", "", "comma-separated league IDs (defaults to configured top leagues)")
		stage           = flag.String("stage", "", "run a single stage instead of the full pipeline: "+strings.Join(ingest.ValidStages(), ", "))
		skipPlayers     = flag.Bool("skip-players", false, "skip the player stage and its dependent stages")
		skipTeamStats   = flag.Bool("skip-team-stats", false, "skip the team statistics stage")
		skipPlayerStats = flag.Bool("skip-player-stats", false, "skip the player statistics and top statistics stages")
	)
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		logging.GetGlobalLogger().WithError(err).Fatal("Failed to load configuration")
	}

	logging.InitGlobalLogger(logging.ParseLogLevel(cfg.Logging.Level), logging.ParseLogFormat(cfg.Logging.Format))
	logger := logging.GetGlobalLogger()

	leagueIDs, err := parseLeagueIDs(*leagues)
	if err != nil {
		logger.WithError(err).Fatal("Invalid -leagues value")
	}

	postgres, err := storage.NewPostgresDB(&cfg.Database.Postgres)
	if err != nil {
		logger.WithError(err).Fatal("Failed to connect to Postgres")
	}
	defer postgres.Close()

	var auditStore *storage.APICallStore
	clickhouse, err := storage.NewClickHouseDB(&cfg.Database.ClickHouse)
	if err != nil {
		logger.WithError(err).Warn("ClickHouse unavailable, running without call auditing")
	} else {
		defer clickhouse.Close()
		auditStore = storage.NewAPICallStore(clickhouse)
		if err := auditStore.EnsureTable(context.Background()); err != nil {
			logger.WithError(err).Warn("Failed to ensure audit table")
		}
	}

	leagueRepo := storage.NewLeagueRepository(postgres)
	teamRepo := storage.NewTeamRepository(postgres)
	playerRepo := storage.NewPlayerRepository(postgres)
	playerStatsRepo := storage.NewPlayerStatsRepository(postgres)
	teamStatsRepo := storage.NewTeamStatsRepository(postgres)
	usageRepo := storage.NewUsageRepository(postgres)
	runRepo := storage.NewRunRepository(postgres)
	referenceRepo := storage.NewReferenceRepository(postgres)

	var audit ledger.AuditStore
	if auditStore != nil {
		audit = auditStore
	}
	usageLedger := ledger.NewService(usageRepo, audit, logger)

	gov, err := governor.NewGovernor(&cfg.Governor, cfg.Provider.Name, usageLedger, logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to create rate governor")
	}
	defer gov.Stop()

	client, err := provider.NewClient(&cfg.Provider)
	if err != nil {
		logger.WithError(err).Fatal("Failed to create provider client")
	}

	retryCfg := retry.Config{MaxAttempts: cfg.Retry.MaxAttempts, BaseDelay: cfg.Retry.BaseDelay}
	fetcher := ingest.NewFetcher(gov, usageLedger, retryCfg, cfg.Provider.Name, logger)

	orchestrator := ingest.NewOrchestrator(
		&cfg.Ingestion,
		cfg.Provider.Name,
		ingest.NewLeagueService(client, fetcher, leagueRepo, cfg.Ingestion.LeagueConcurrency),
		ingest.NewTeamService(client, fetcher, teamRepo, cfg.Ingestion.TeamConcurrency),
		ingest.NewPlayerService(client, fetcher, playerRepo, cfg.Ingestion.TeamConcurrency, cfg.Ingestion.PlayerConcurrency),
		ingest.NewTeamStatsService(client, fetcher, teamStatsRepo, cfg.Ingestion.TeamConcurrency),
		ingest.NewPlayerStatsService(client, fetcher, playerStatsRepo, cfg.Ingestion.PlayerDetailWidth),
		ingest.NewTopStatsService(client, fetcher, playerStatsRepo, cfg.Ingestion.LeagueConcurrency),
		leagueRepo,
		teamRepo,
		playerRepo,
		runRepo,
		referenceRepo,
		logger,
	)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	opts := ingest.RunOptions{
		Season:          *season,
		LeagueIDs:       leagueIDs,
		SkipPlayers:     *skipPlayers,
		SkipTeamStats:   *skipTeamStats,
		SkipPlayerStats: *skipPlayerStats,
	}

	summary, runErr := func() (interface{}, error) {
		if *stage != "" {
			return orchestrator.RunStage(ctx, *stage, opts)
		}
		return orchestrator.Run(ctx, opts)
	}()

	if summary != nil {
		out, err := json.MarshalIndent(summary, "", "  ")
		if err != nil {
			logger.WithError(err).Error("Failed to encode run summary")
		} else {
			fmt.Println(string(out))
		}
	}

	if runErr != nil {
		logger.WithError(runErr).Error("Ingestion run failed")
		os.Exit(1)
	}
}

func parseLeagueIDs(s string) ([]int, error) {
	if s == "" {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	ids := make([]int, 0, len(parts))
	for _, part := range parts {
		id, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil || id <= 0 {
			return nil, fmt.Errorf("invalid league id %q", part)
		}
		ids = append(ids, id)
	}
	return ids, nil
}
