package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/sports-ingest/internal/circuitbreaker"
	"github.com/sports-ingest/internal/models"
)

// APICallStore writes one audit row to ClickHouse per provider request.
// The table is append-only and queried for usage auditing, never read on the
// ingestion hot path. Writes go through a circuit breaker: audit persistence
// is fail-open and a down ClickHouse must not slow the pipeline to a crawl.
type APICallStore struct {
	db      *ClickHouseDB
	breaker *circuitbreaker.CircuitBreaker
}

// NewAPICallStore creates a new API call audit store
func NewAPICallStore(db *ClickHouseDB) *APICallStore {
	return &APICallStore{
		db:      db,
		breaker: circuitbreaker.New(circuitbreaker.DefaultConfig("clickhouse-api-calls")),
	}
}

// EnsureTable creates the audit table if it does not exist.
func (s *APICallStore) EnsureTable(ctx context.Context) error {
	query := `
		CREATE TABLE IF NOT EXISTS api_calls (
			provider    LowCardinality(String),
			resource    LowCardinality(String),
			params      String,
			ok          UInt8,
			status_code Int32,
			duration_ms Int64,
			error       String,
			created_at  DateTime64(3, 'UTC')
		)
		ENGINE = MergeTree()
		PARTITION BY toYYYYMM(created_at)
		ORDER BY (provider, created_at)
		TTL toDateTime(created_at) + INTERVAL 180 DAY
	`
	if err := s.db.Exec(ctx, query); err != nil {
		return fmt.Errorf("failed to create api_calls table: %w", err)
	}
	return nil
}

// Insert appends one audit row.
func (s *APICallStore) Insert(ctx context.Context, rec *models.APICallRecord) error {
	return s.breaker.Execute(ctx, func(ctx context.Context) error {
		ok := uint8(0)
		if rec.OK {
			ok = 1
		}
		createdAt := rec.CreatedAt
		if createdAt.IsZero() {
			createdAt = time.Now().UTC()
		}

		query := `
			INSERT INTO api_calls (provider, resource, params, ok, status_code,
				duration_ms, error, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		`
		if err := s.db.Exec(ctx, query,
			rec.Provider,
			rec.Resource,
			rec.Params,
			ok,
			int32(rec.StatusCode),
			rec.DurationMs,
			rec.Error,
			createdAt,
		); err != nil {
			return fmt.Errorf("failed to insert api call record: %w", err)
		}
		return nil
	})
}

// CountSince returns the number of audit rows for a provider since a cutoff,
// used by operational tooling to cross-check the usage counters.
func (s *APICallStore) CountSince(ctx context.Context, provider string, since time.Time) (uint64, error) {
	query := `
		SELECT count()
		FROM api_calls
		WHERE provider = ? AND created_at >= ?
	`

	row := s.db.QueryRow(ctx, query, provider, since)
	var count uint64
	if err := row.Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count api calls: %w", err)
	}
	return count, nil
}
