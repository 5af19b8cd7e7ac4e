package config

import (
	"os"
	"testing"
	"time"
)

func TestLoadConfig(t *testing.T) {
	// Set some test environment variables
	if err := os.Setenv("SERVER_PORT", "9090"); err != nil {
		t.Fatalf("Failed to set SERVER_PORT: %v", err)
	}
	if err := os.Setenv("POSTGRES_HOST", "testhost"); err != nil {
		t.Fatalf("Failed to set POSTGRES_HOST: %v", err)
	}
	if err := os.Setenv("GOVERNOR_DAILY_LIMIT", "5000"); err != nil {
		t.Fatalf("Failed to set GOVERNOR_DAILY_LIMIT: %v", err)
	}
	if err := os.Setenv("CACHE_TTL", "30s"); err != nil {
		t.Fatalf("Failed to set CACHE_TTL: %v", err)
	}
	defer func() {
		_ = os.Unsetenv("SERVER_PORT")
		_ = os.Unsetenv("POSTGRES_HOST")
		_ = os.Unsetenv("GOVERNOR_DAILY_LIMIT")
		_ = os.Unsetenv("CACHE_TTL")
	}()

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	if cfg.Server.Port != "9090" {
		t.Errorf("Server.Port = %v, want %v", cfg.Server.Port, "9090")
	}

	if cfg.Database.Postgres.Host != "testhost" {
		t.Errorf("Database.Postgres.Host = %v, want %v", cfg.Database.Postgres.Host, "testhost")
	}

	if cfg.Governor.DailyLimit != 5000 {
		t.Errorf("Governor.DailyLimit = %v, want %v", cfg.Governor.DailyLimit, 5000)
	}

	if cfg.Cache.TTL != 30*time.Second {
		t.Errorf("Cache.TTL = %v, want %v", cfg.Cache.TTL, 30*time.Second)
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	if cfg.Provider.Name != "api-football" {
		t.Errorf("Provider.Name = %v, want api-football", cfg.Provider.Name)
	}
	if cfg.Governor.Reservoir != 10 {
		t.Errorf("Governor.Reservoir = %v, want 10", cfg.Governor.Reservoir)
	}
	if cfg.Retry.MaxAttempts != 3 {
		t.Errorf("Retry.MaxAttempts = %v, want 3", cfg.Retry.MaxAttempts)
	}
	if got := len(cfg.Ingestion.TopLeagueIDs); got != 5 {
		t.Errorf("len(Ingestion.TopLeagueIDs) = %v, want 5", got)
	}
	if cfg.Ingestion.PlayerConcurrency != 8 {
		t.Errorf("Ingestion.PlayerConcurrency = %v, want 8", cfg.Ingestion.PlayerConcurrency)
	}
}

func TestGovernorConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     GovernorConfig
		wantErr bool
	}{
		{
			name: "valid config",
			cfg: GovernorConfig{
				DailyLimit:       7000,
				WarningThreshold: 0.9,
				Reservoir:        10,
				RefillAmount:     10,
				RefillInterval:   time.Minute,
				MaxConcurrent:    5,
			},
			wantErr: false,
		},
		{
			name: "zero daily limit",
			cfg: GovernorConfig{
				DailyLimit:       0,
				WarningThreshold: 0.9,
				Reservoir:        10,
				RefillAmount:     10,
				RefillInterval:   time.Minute,
				MaxConcurrent:    5,
			},
			wantErr: true,
		},
		{
			name: "warning threshold above one",
			cfg: GovernorConfig{
				DailyLimit:       7000,
				WarningThreshold: 1.5,
				Reservoir:        10,
				RefillAmount:     10,
				RefillInterval:   time.Minute,
				MaxConcurrent:    5,
			},
			wantErr: true,
		},
		{
			name: "zero reservoir",
			cfg: GovernorConfig{
				DailyLimit:       7000,
				WarningThreshold: 0.9,
				Reservoir:        0,
				RefillAmount:     10,
				RefillInterval:   time.Minute,
				MaxConcurrent:    5,
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestGetEnv(t *testing.T) {
	tests := []struct {
		name         string
		key          string
		defaultValue string
		envValue     string
		want         string
	}{
		{
			name:         "returns environment variable when set",
			key:          "TEST_KEY",
			defaultValue: "default",
			envValue:     "custom",
			want:         "custom",
		},
		{
			name:         "returns default when environment variable not set",
			key:          "NONEXISTENT_KEY",
			defaultValue: "default",
			envValue:     "",
			want:         "default",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.envValue != "" {
				if err := os.Setenv(tt.key, tt.envValue); err != nil {
					t.Fatalf("Failed to set env var: %v", err)
				}
				defer func() {
					_ = os.Unsetenv(tt.key)
				}()
			}

			got := getEnv(tt.key, tt.defaultValue)
			if got != tt.want {
				t.Errorf("getEnv() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestGetEnvAsIntSlice(t *testing.T) {
	tests := []struct {
		name         string
		key          string
		defaultValue []int
		envValue     string
		want         []int
	}{
		{
			name:         "parses comma separated list",
			key:          "TEST_SLICE",
			defaultValue: []int{1},
			envValue:     "39, 140,135",
			want:         []int{39, 140, 135},
		},
		{
			name:         "returns default on malformed entry",
			key:          "TEST_SLICE_BAD",
			defaultValue: []int{1, 2},
			envValue:     "39,abc",
			want:         []int{1, 2},
		},
		{
			name:         "returns default when not set",
			key:          "TEST_SLICE_NOTSET",
			defaultValue: []int{7},
			envValue:     "",
			want:         []int{7},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.envValue != "" {
				if err := os.Setenv(tt.key, tt.envValue); err != nil {
					t.Fatalf("Failed to set env var: %v", err)
				}
				defer func() {
					_ = os.Unsetenv(tt.key)
				}()
			}

			got := getEnvAsIntSlice(tt.key, tt.defaultValue)
			if len(got) != len(tt.want) {
				t.Fatalf("getEnvAsIntSlice() = %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("getEnvAsIntSlice()[%d] = %v, want %v", i, got[i], tt.want[i])
				}
			}
		})
	}
}
