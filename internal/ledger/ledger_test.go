package ledger

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sports-ingest/internal/logging"
	"github.com/sports-ingest/internal/models"
)

// fakeCounterStore is an in-memory CounterStore.
type fakeCounterStore struct {
	mu       sync.Mutex
	counts   map[string]int
	getErr   error
	incErr   error
	updated  map[string]time.Time
}

func newFakeCounterStore() *fakeCounterStore {
	return &fakeCounterStore{
		counts:  make(map[string]int),
		updated: make(map[string]time.Time),
	}
}

func (f *fakeCounterStore) key(provider, date string) string {
	return provider + "|" + date
}

func (f *fakeCounterStore) GetCounter(ctx context.Context, provider, date string) (*models.UsageCounter, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	count, ok := f.counts[f.key(provider, date)]
	if !ok {
		return nil, nil
	}
	return &models.UsageCounter{Provider: provider, Date: date, TotalCalls: count}, nil
}

func (f *fakeCounterStore) IncrementCounter(ctx context.Context, provider, date string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.incErr != nil {
		return f.incErr
	}
	f.counts[f.key(provider, date)]++
	f.updated[f.key(provider, date)] = time.Now()
	return nil
}

type fakeAuditStore struct {
	mu      sync.Mutex
	records []*models.APICallRecord
	err     error
}

func (f *fakeAuditStore) Insert(ctx context.Context, rec *models.APICallRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.records = append(f.records, rec)
	return nil
}

func newTestService(counters CounterStore, audit AuditStore) *Service {
	return NewService(counters, audit, logging.NewLogger(logging.LevelError, logging.FormatJSON))
}

func TestRecordCallIncrementsCounter(t *testing.T) {
	counters := newFakeCounterStore()
	audit := &fakeAuditStore{}
	svc := newTestService(counters, audit)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		svc.RecordCall(ctx, &models.APICallRecord{
			Provider:   "api-football",
			Resource:   "leagues",
			OK:         true,
			StatusCode: 200,
			DurationMs: 120,
		})
	}

	usage := svc.GetUsage(ctx, "api-football", "")
	assert.Equal(t, 5, usage.TotalCalls)
	assert.Len(t, audit.records, 5)
}

func TestGetUsageZeroRecordWhenMissing(t *testing.T) {
	svc := newTestService(newFakeCounterStore(), nil)

	usage := svc.GetUsage(context.Background(), "api-football", "2026-08-01")
	require.NotNil(t, usage)
	assert.Equal(t, 0, usage.TotalCalls)
	assert.Equal(t, "2026-08-01", usage.Date)
	assert.Equal(t, "api-football", usage.Provider)
}

func TestGetUsageFailsOpenOnStoreError(t *testing.T) {
	counters := newFakeCounterStore()
	counters.getErr = fmt.Errorf("connection refused")
	svc := newTestService(counters, nil)

	usage := svc.GetUsage(context.Background(), "api-football", "")
	require.NotNil(t, usage)
	assert.Equal(t, 0, usage.TotalCalls)
}

func TestRecordCallSwallowsStoreErrors(t *testing.T) {
	counters := newFakeCounterStore()
	counters.incErr = fmt.Errorf("connection refused")
	audit := &fakeAuditStore{err: fmt.Errorf("clickhouse down")}
	svc := newTestService(counters, audit)

	// Must not panic or propagate
	svc.RecordCall(context.Background(), &models.APICallRecord{
		Provider: "api-football",
		Resource: "teams",
	})
}

func TestDateIsolation(t *testing.T) {
	counters := newFakeCounterStore()
	svc := newTestService(counters, nil)
	ctx := context.Background()

	day1 := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	day2 := time.Date(2026, 8, 2, 0, 30, 0, 0, time.UTC)

	svc.RecordCall(ctx, &models.APICallRecord{Provider: "api-football", Resource: "leagues", CreatedAt: day1})
	svc.RecordCall(ctx, &models.APICallRecord{Provider: "api-football", Resource: "leagues", CreatedAt: day1})
	svc.RecordCall(ctx, &models.APICallRecord{Provider: "api-football", Resource: "leagues", CreatedAt: day2})

	assert.Equal(t, 2, svc.GetUsage(ctx, "api-football", "2026-08-01").TotalCalls)
	assert.Equal(t, 1, svc.GetUsage(ctx, "api-football", "2026-08-02").TotalCalls)
}

func TestProviderIsolation(t *testing.T) {
	counters := newFakeCounterStore()
	svc := newTestService(counters, nil)
	ctx := context.Background()

	svc.RecordCall(ctx, &models.APICallRecord{Provider: "api-football", Resource: "leagues"})
	svc.RecordCall(ctx, &models.APICallRecord{Provider: "other-provider", Resource: "leagues"})

	assert.Equal(t, 1, svc.GetUsage(ctx, "api-football", "").TotalCalls)
	assert.Equal(t, 1, svc.GetUsage(ctx, "other-provider", "").TotalCalls)
}
