// Package config provides configuration management for the sports ingestion service.
// It loads configuration from environment variables and .env files.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Provider  ProviderConfig
	Governor  GovernorConfig
	Retry     RetryConfig
	Ingestion IngestionConfig
	Cache     CacheConfig
	RateLimit RateLimitConfig
	Logging   LoggingConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port string
	Host string
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Postgres   PostgresConfig
	ClickHouse ClickHouseConfig
	Redis      RedisConfig
}

// PostgresConfig holds Postgres configuration
type PostgresConfig struct {
	Host           string
	Port           string
	Database       string
	User           string
	Password       string
	MaxConnections int
}

// ClickHouseConfig holds ClickHouse configuration
type ClickHouseConfig struct {
	Host     string
	Port     string
	Database string
	User     string
	Password string
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host           string
	Port           string
	Password       string
	DB             int
	MaxConnections int
}

// ProviderConfig holds the external sports-data API configuration
type ProviderConfig struct {
	Name    string
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

// GovernorConfig holds rate governor configuration.
// The daily limit and reservoir are deliberately configurable rather than
// hard-coded: provider plans differ and the free tier changes over time.
type GovernorConfig struct {
	DailyLimit       int
	WarningThreshold float64
	Reservoir        int
	RefillAmount     int
	RefillInterval   time.Duration
	MinSpacing       time.Duration
	MaxConcurrent    int
}

// RetryConfig holds provider-call retry configuration
type RetryConfig struct {
	MaxAttempts int
	BaseDelay   time.Duration
}

// IngestionConfig holds ingestion pipeline configuration
type IngestionConfig struct {
	Season             string
	TopLeagueIDs       []int
	LeagueConcurrency  int
	TeamConcurrency    int
	PlayerConcurrency  int
	PlayerDetailWidth  int
	TeamsPerLeagueCap  int
}

// CacheConfig holds entity cache configuration
type CacheConfig struct {
	TTL time.Duration
}

// RateLimitConfig holds HTTP API rate limiting configuration
type RateLimitConfig struct {
	RequestsPerSecond int
	Burst             int
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string
	Format string
}

// LoadConfig loads configuration from .env file and environment variables
func LoadConfig() (*Config, error) {
	// Load .env file (optional in production)
	if err := godotenv.Load(); err != nil {
		// .env file is optional - environment variables can be set directly
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("error loading .env file: %w", err)
		}
	}

	config := &Config{
		Server: ServerConfig{
			Port: getEnv("SERVER_PORT", "8080"),
			Host: getEnv("SERVER_HOST", "0.0.0.0"),
		},
		Database: DatabaseConfig{
			Postgres: PostgresConfig{
				Host:           getEnv("POSTGRES_HOST", "localhost"),
				Port:           getEnv("POSTGRES_PORT", "5432"),
				Database:       getEnv("POSTGRES_DB", "sports_ingest"),
				User:           getEnv("POSTGRES_USER", "ingest"),
				Password:       getEnv("POSTGRES_PASSWORD", ""),
				MaxConnections: getEnvAsInt("POSTGRES_MAX_CONNECTIONS", 50),
			},
			ClickHouse: ClickHouseConfig{
				Host:     getEnv("CLICKHOUSE_HOST", "localhost"),
				Port:     getEnv("CLICKHOUSE_PORT", "9000"),
				Database: getEnv("CLICKHOUSE_DB", "sports_ingest"),
				User:     getEnv("CLICKHOUSE_USER", "default"),
				Password: getEnv("CLICKHOUSE_PASSWORD", ""),
			},
			Redis: RedisConfig{
				Host:           getEnv("REDIS_HOST", "localhost"),
				Port:           getEnv("REDIS_PORT", "6379"),
				Password:       getEnv("REDIS_PASSWORD", ""),
				DB:             getEnvAsInt("REDIS_DB", 0),
				MaxConnections: getEnvAsInt("REDIS_MAX_CONNECTIONS", 50),
			},
		},
		Provider: ProviderConfig{
			Name:    getEnv("PROVIDER_NAME", "api-football"),
			BaseURL: getEnv("PROVIDER_BASE_URL", "https://v3.football.api-sports.io"),
			APIKey:  getEnv("PROVIDER_API_KEY", ""),
			Timeout: getEnvAsDuration("PROVIDER_TIMEOUT", 30*time.Second),
		},
		Governor: GovernorConfig{
			DailyLimit:       getEnvAsInt("GOVERNOR_DAILY_LIMIT", 7000),
			WarningThreshold: getEnvAsFloat("GOVERNOR_WARNING_THRESHOLD", 0.9),
			Reservoir:        getEnvAsInt("GOVERNOR_RESERVOIR", 10),
			RefillAmount:     getEnvAsInt("GOVERNOR_REFILL_AMOUNT", 10),
			RefillInterval:   getEnvAsDuration("GOVERNOR_REFILL_INTERVAL", time.Minute),
			MinSpacing:       getEnvAsDuration("GOVERNOR_MIN_SPACING", 6*time.Second),
			MaxConcurrent:    getEnvAsInt("GOVERNOR_MAX_CONCURRENT", 5),
		},
		Retry: RetryConfig{
			MaxAttempts: getEnvAsInt("RETRY_MAX_ATTEMPTS", 3),
			BaseDelay:   getEnvAsDuration("RETRY_BASE_DELAY", time.Second),
		},
		Ingestion: IngestionConfig{
			Season:            getEnv("INGESTION_SEASON", strconv.Itoa(time.Now().UTC().Year())),
			TopLeagueIDs:      getEnvAsIntSlice("INGESTION_TOP_LEAGUES", []int{39, 140, 135, 78, 61}),
			LeagueConcurrency: getEnvAsInt("INGESTION_LEAGUE_CONCURRENCY", 3),
			TeamConcurrency:   getEnvAsInt("INGESTION_TEAM_CONCURRENCY", 5),
			PlayerConcurrency: getEnvAsInt("INGESTION_PLAYER_CONCURRENCY", 8),
			PlayerDetailWidth: getEnvAsInt("INGESTION_PLAYER_DETAIL_CONCURRENCY", 5),
			TeamsPerLeagueCap: getEnvAsInt("INGESTION_TEAMS_PER_LEAGUE_CAP", 0),
		},
		Cache: CacheConfig{
			TTL: getEnvAsDuration("CACHE_TTL", 10*time.Minute),
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: getEnvAsInt("API_RATE_LIMIT_RPS", 10),
			Burst:             getEnvAsInt("API_RATE_LIMIT_BURST", 20),
		},
		Logging: LoggingConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// Validate checks configuration invariants that would otherwise surface as
// obscure runtime failures deep inside the pipeline.
func (c *Config) Validate() error {
	if err := c.Provider.Validate(); err != nil {
		return err
	}
	if err := c.Governor.Validate(); err != nil {
		return err
	}
	if err := c.Retry.Validate(); err != nil {
		return err
	}
	return c.Ingestion.Validate()
}

// Validate checks provider configuration
func (p *ProviderConfig) Validate() error {
	if p.BaseURL == "" {
		return fmt.Errorf("provider base URL is required")
	}
	if p.Name == "" {
		return fmt.Errorf("provider name is required")
	}
	return nil
}

// Validate checks governor configuration
func (g *GovernorConfig) Validate() error {
	if g.DailyLimit <= 0 {
		return fmt.Errorf("governor daily limit must be positive, got %d", g.DailyLimit)
	}
	if g.WarningThreshold <= 0 || g.WarningThreshold > 1 {
		return fmt.Errorf("governor warning threshold must be in (0, 1], got %f", g.WarningThreshold)
	}
	if g.Reservoir <= 0 {
		return fmt.Errorf("governor reservoir must be positive, got %d", g.Reservoir)
	}
	if g.RefillAmount <= 0 {
		return fmt.Errorf("governor refill amount must be positive, got %d", g.RefillAmount)
	}
	if g.RefillInterval <= 0 {
		return fmt.Errorf("governor refill interval must be positive, got %s", g.RefillInterval)
	}
	if g.MaxConcurrent <= 0 {
		return fmt.Errorf("governor max concurrent must be positive, got %d", g.MaxConcurrent)
	}
	return nil
}

// Validate checks retry configuration
func (r *RetryConfig) Validate() error {
	if r.MaxAttempts <= 0 {
		return fmt.Errorf("retry max attempts must be positive, got %d", r.MaxAttempts)
	}
	if r.BaseDelay <= 0 {
		return fmt.Errorf("retry base delay must be positive, got %s", r.BaseDelay)
	}
	return nil
}

// Validate checks ingestion configuration
func (i *IngestionConfig) Validate() error {
	if i.Season == "" {
		return fmt.Errorf("ingestion season is required")
	}
	if len(i.TopLeagueIDs) == 0 {
		return fmt.Errorf("at least one top league ID is required")
	}
	for _, c := range []struct {
		name  string
		value int
	}{
		{"league concurrency", i.LeagueConcurrency},
		{"team concurrency", i.TeamConcurrency},
		{"player concurrency", i.PlayerConcurrency},
		{"player detail concurrency", i.PlayerDetailWidth},
	} {
		if c.value <= 0 {
			return fmt.Errorf("ingestion %s must be positive, got %d", c.name, c.value)
		}
	}
	return nil
}

// PostgresURL builds a database URL suitable for the migration runner
func (p *PostgresConfig) PostgresURL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable",
		p.User, p.Password, p.Host, p.Port, p.Database)
}

// getEnv gets an environment variable with a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt gets an environment variable as an integer with a default value
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvAsFloat gets an environment variable as a float with a default value
func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvAsDuration gets an environment variable as a duration with a default value
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}

	value, err := time.ParseDuration(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvAsIntSlice gets an environment variable as a comma-separated list of integers
func getEnvAsIntSlice(key string, defaultValue []int) []int {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}

	parts := strings.Split(valueStr, ",")
	values := make([]int, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		value, err := strconv.Atoi(part)
		if err != nil {
			return defaultValue
		}
		values = append(values, value)
	}
	if len(values) == 0 {
		return defaultValue
	}
	return values
}
