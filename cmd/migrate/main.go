// Command migrate applies or rolls back schema migrations for Postgres
// and ClickHouse.
package main

import (
	"flag"

	"github.com/sports-ingest/internal/config"
	"github.com/sports-ingest/internal/logging"
	"github.com/sports-ingest/internal/storage"
)

func main() {
	var (
		action = flag.String("action", "up", "migration action: up, down, version")
		db     = flag.String("db", "postgres", "target database: postgres, clickhouse")
		path   = flag.String("path", "", "migrations directory (defaults per database)")
	)
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		logging.GetGlobalLogger().WithError(err).Fatal("Failed to load configuration")
	}

	logging.InitGlobalLogger(logging.ParseLogLevel(cfg.Logging.Level), logging.ParseLogFormat(cfg.Logging.Format))
	logger := logging.GetGlobalLogger()

	switch *db {
	case "postgres":
		migrationsPath := *path
		if migrationsPath == "" {
			migrationsPath = "migrations/postgres"
		}
		databaseURL := cfg.Database.Postgres.PostgresURL()

		switch *action {
		case "up":
			if err := storage.RunMigrations(databaseURL, migrationsPath); err != nil {
				logger.WithError(err).Fatal("Failed to run migrations")
			}
			logger.Success("Postgres migrations applied")
		case "down":
			if err := storage.RollbackMigrations(databaseURL, migrationsPath); err != nil {
				logger.WithError(err).Fatal("Failed to roll back migrations")
			}
			logger.Success("Postgres migrations rolled back")
		case "version":
			version, dirty, err := storage.MigrationVersion(databaseURL, migrationsPath)
			if err != nil {
				logger.WithError(err).Fatal("Failed to read migration version")
			}
			logger.WithFields(map[string]interface{}{"version": version, "dirty": dirty}).Info("Migration version")
		default:
			logger.WithFields(map[string]interface{}{"action": *action}).Fatal("Unknown action, expected up, down or version")
		}

	case "clickhouse":
		if *action != "up" {
			logger.WithFields(map[string]interface{}{"action": *action}).Fatal("ClickHouse migrations only support the up action")
		}
		migrationsPath := *path
		if migrationsPath == "" {
			migrationsPath = "migrations/clickhouse"
		}
		ch, err := storage.NewClickHouseDB(&cfg.Database.ClickHouse)
		if err != nil {
			logger.WithError(err).Fatal("Failed to connect to ClickHouse")
		}
		defer ch.Close()

		if err := storage.RunClickHouseMigrations(ch, migrationsPath); err != nil {
			logger.WithError(err).Fatal("Failed to run ClickHouse migrations")
		}
		logger.Success("ClickHouse migrations applied")

	default:
		logger.WithFields(map[string]interface{}{"db": *db}).Fatal("Unknown database, expected postgres or clickhouse")
	}
}
