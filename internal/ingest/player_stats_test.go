package ingest

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sports-ingest/internal/logging"
	"github.com/sports-ingest/internal/retry"
)

func TestPlayerStatsEmptyListWarns(t *testing.T) {
	var buf bytes.Buffer
	logger := logging.NewLogger(logging.LevelDebug, logging.FormatJSON)
	logger.SetOutput(&buf)
	il := logging.NewIngestionLogger(logger, StagePlayerStats)

	retryCfg := retry.Config{MaxAttempts: 1, BaseDelay: time.Millisecond}
	fetcher := NewFetcher(&fakeScheduler{}, &fakeRecorder{}, retryCfg, testProvider, logger)
	svc := NewPlayerStatsService(newFakeProvider(), fetcher, newMemPlayerStatsStore(), 2)

	stage, err := svc.IngestPlayerStats(context.Background(), il, "2026", nil)
	require.NoError(t, err)
	assert.Zero(t, stage.Processed)

	out := buf.String()
	assert.Contains(t, out, "no players available for statistics ingestion")
	assert.Contains(t, out, `"level":"warn"`)
}
