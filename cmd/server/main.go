// Package main provides the API server entry point for the sports
// ingestion service.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sports-ingest/internal/api"
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
	cfg, err := config.LoadConfig()
	if err != nil {
		logging.GetGlobalLogger().WithError(err).Fatal("Failed to load configuration")
	}

	logLevel := logging.ParseLogLevel(cfg.Logging.Level)
	logFormat := logging.ParseLogFormat(cfg.Logging.Format)
	logging.InitGlobalLogger(logLevel, logFormat)

	logger := logging.GetGlobalLogger()
	logger.WithFields(map[string]interface{}{
		"level":  cfg.Logging.Level,
		"format": cfg.Logging.Format,
	}).Info("Structured logging initialized")

	logger.Info("Connecting to databases...")

	postgres, err := storage.NewPostgresDB(&cfg.Database.Postgres)
	if err != nil {
		logger.WithError(err).Fatal("Failed to connect to Postgres")
	}
	defer postgres.Close()

	// The audit trail and the entity cache are best-effort dependencies:
	// the pipeline runs without them, so their outages only warn.
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

	var cacheService *storage.CacheService
	redis, err := storage.NewRedisCache(&cfg.Database.Redis)
	if err != nil {
		logger.WithError(err).Warn("Redis unavailable, running without response caching")
	} else {
		defer redis.Close()
		cacheService = storage.NewCacheService(redis, cfg.Cache.TTL)
	}

	logger.Info("Database connections established")

	// Repositories
	leagueRepo := storage.NewLeagueRepository(postgres)
	teamRepo := storage.NewTeamRepository(postgres)
	playerRepo := storage.NewPlayerRepository(postgres)
	playerStatsRepo := storage.NewPlayerStatsRepository(postgres)
	teamStatsRepo := storage.NewTeamStatsRepository(postgres)
	usageRepo := storage.NewUsageRepository(postgres)
	runRepo := storage.NewRunRepository(postgres)
	referenceRepo := storage.NewReferenceRepository(postgres)

	// Entity lookups go through Redis when it is up; stale lists are
	// invalidated on upsert.
	var (
		leagueStore ingest.LeagueStore = leagueRepo
		teamStore   ingest.TeamStore   = teamRepo
		playerStore ingest.PlayerStore = playerRepo
	)
	if cacheService != nil {
		leagueStore = storage.NewCachedLeagueStore(leagueRepo, cacheService)
		teamStore = storage.NewCachedTeamStore(teamRepo, cacheService)
		playerStore = storage.NewCachedPlayerStore(playerRepo, cacheService)
	}

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
		ingest.NewLeagueService(client, fetcher, leagueStore, cfg.Ingestion.LeagueConcurrency),
		ingest.NewTeamService(client, fetcher, teamStore, cfg.Ingestion.TeamConcurrency),
		ingest.NewPlayerService(client, fetcher, playerStore, cfg.Ingestion.TeamConcurrency, cfg.Ingestion.PlayerConcurrency),
		ingest.NewTeamStatsService(client, fetcher, teamStatsRepo, cfg.Ingestion.TeamConcurrency),
		ingest.NewPlayerStatsService(client, fetcher, playerStatsRepo, cfg.Ingestion.PlayerDetailWidth),
		ingest.NewTopStatsService(client, fetcher, playerStatsRepo, cfg.Ingestion.LeagueConcurrency),
		leagueStore,
		teamStore,
		playerStore,
		runRepo,
		referenceRepo,
		logger,
	)

	serverConfig := &api.ServerConfig{
		Host:              cfg.Server.Host,
		Port:              cfg.Server.Port,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
		ShutdownTimeout:   10 * time.Second,
		RequestsPerSecond: cfg.RateLimit.RequestsPerSecond,
		Burst:             cfg.RateLimit.Burst,
		DailyLimit:        cfg.Governor.DailyLimit,
	}

	server := api.NewServer(serverConfig, orchestrator, usageLedger, gov, runRepo, cacheService, cfg.Provider.Name, logger)

	go func() {
		if err := server.Start(); err != nil {
			logger.WithError(err).Fatal("Server failed to start")
		}
	}()

	logger.WithFields(map[string]interface{}{
		"host": cfg.Server.Host,
		"port": cfg.Server.Port,
	}).Info("Server started successfully")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), serverConfig.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.WithError(err).Fatal("Server forced to shutdown")
	}

	logger.Info("Server exited")
}
