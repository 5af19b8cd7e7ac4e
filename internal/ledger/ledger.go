// Package ledger implements the usage ledger: the persisted per-day,
// per-provider call counter plus the per-request audit trail. The counter is
// authoritative for the daily quota; reads fail open because the quota check
// must never itself become a source of ingestion failure.
package ledger

import (
	"context"
	"time"

	"github.com/sports-ingest/internal/logging"
	"github.com/sports-ingest/internal/models"
)

// CounterStore is the persisted per-day counter interface.
type CounterStore interface {
	GetCounter(ctx context.Context, provider, date string) (*models.UsageCounter, error)
	IncrementCounter(ctx context.Context, provider, date string) error
}

// AuditStore receives one record per provider request.
type AuditStore interface {
	Insert(ctx context.Context, rec *models.APICallRecord) error
}

// Service is the usage ledger.
type Service struct {
	counters CounterStore
	audit    AuditStore
	logger   *logging.Logger
	now      func() time.Time
}

// NewService creates a usage ledger. The audit store may be nil when no
// audit sink is configured.
func NewService(counters CounterStore, audit AuditStore, logger *logging.Logger) *Service {
	if logger == nil {
		logger = logging.GetGlobalLogger()
	}
	return &Service{
		counters: counters,
		audit:    audit,
		logger:   logger,
		now:      time.Now,
	}
}

// GetUsage returns the call count for a provider and date. An empty date
// defaults to today (UTC). Missing rows and persistence failures both yield
// a zero record; persistence failures are additionally logged as warnings.
// Fail-open is safe here because the governor's throughput limiter bounds
// the worst-case overshoot.
func (s *Service) GetUsage(ctx context.Context, provider, date string) *models.UsageCounter {
	if date == "" {
		date = models.UsageDate(s.now())
	}

	counter, err := s.counters.GetCounter(ctx, provider, date)
	if err != nil {
		s.logger.WithFields(map[string]interface{}{
			"provider": provider,
			"date":     date,
		}).WithError(err).Warn("Usage read failed, treating as zero usage")
		return &models.UsageCounter{Provider: provider, Date: date}
	}
	if counter == nil {
		return &models.UsageCounter{Provider: provider, Date: date}
	}
	return counter
}

// RecordCall appends an audit record and atomically increments today's
// counter. Both writes are fail-open: a storage failure is logged as a
// warning and swallowed so accounting problems never block ingestion.
func (s *Service) RecordCall(ctx context.Context, rec *models.APICallRecord) {
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = s.now().UTC()
	}

	if s.audit != nil {
		if err := s.audit.Insert(ctx, rec); err != nil {
			s.logger.WithFields(map[string]interface{}{
				"provider": rec.Provider,
				"resource": rec.Resource,
			}).WithError(err).Warn("Failed to write API call audit record")
		}
	}

	date := models.UsageDate(rec.CreatedAt)
	if err := s.counters.IncrementCounter(ctx, rec.Provider, date); err != nil {
		s.logger.WithFields(map[string]interface{}{
			"provider": rec.Provider,
			"date":     date,
		}).WithError(err).Warn("Failed to increment usage counter")
	}
}
