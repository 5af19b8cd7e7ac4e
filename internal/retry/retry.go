// Package retry wraps a single logical provider operation with bounded
// exponential-backoff retry. The wrapped function is the one the governor
// schedules, so retries re-enter the same concurrency and throughput slot
// instead of spawning parallel attempts.
package retry

import (
	"context"
	"encoding/json"
	"time"

	apperrors "github.com/sports-ingest/internal/errors"
	"github.com/sports-ingest/internal/logging"
	"github.com/sports-ingest/internal/models"
)

// Config configures retry behavior. Backoff is full exponential with no
// jitter: the delay before attempt k is BaseDelay * 2^(k-2).
type Config struct {
	MaxAttempts int
	BaseDelay   time.Duration
}

// DefaultConfig returns the default retry configuration.
// Pattern: attempt, 1s, attempt, 2s, attempt.
func DefaultConfig() Config {
	return Config{
		MaxAttempts: 3,
		BaseDelay:   time.Second,
	}
}

// Recorder receives one usage record per attempt. Satisfied by
// ledger.Service.
type Recorder interface {
	RecordCall(ctx context.Context, rec *models.APICallRecord)
}

// Operation is the provider call being retried.
type Operation func(ctx context.Context) (interface{}, error)

// WithRetry executes op with bounded retry. Every attempt, success or
// failure, produces exactly one usage-ledger record and one structured log
// event. Failures are classified before retrying: validation failures and
// anything below the server-error threshold fail immediately; only
// recognizable server faults and network-level errors back off and retry.
func WithRetry(ctx context.Context, recorder Recorder, logger *logging.Logger, provider, resource string, params map[string]interface{}, cfg Config, op Operation) (interface{}, error) {
	if logger == nil {
		logger = logging.FromContext(ctx)
	}
	paramsJSON := encodeParams(params)

	var lastErr error
	for attempt := 1; attempt <= cfg.MaxAttempts; attempt++ {
		start := time.Now()
		result, err := op(ctx)
		duration := time.Since(start)

		if err == nil {
			recorder.RecordCall(ctx, &models.APICallRecord{
				Provider:   provider,
				Resource:   resource,
				Params:     paramsJSON,
				OK:         true,
				StatusCode: 200,
				DurationMs: duration.Milliseconds(),
			})
			logger.WithFields(map[string]interface{}{
				"resource":   resource,
				"attempt":    attempt,
				"durationMs": duration.Milliseconds(),
			}).Debug("Provider call succeeded")
			return result, nil
		}

		lastErr = err
		statusCode := apperrors.StatusCodeOf(err)

		recorder.RecordCall(ctx, &models.APICallRecord{
			Provider:   provider,
			Resource:   resource,
			Params:     paramsJSON,
			OK:         false,
			StatusCode: statusCode,
			DurationMs: duration.Milliseconds(),
			Error:      err.Error(),
		})

		if !apperrors.IsRetryable(err) {
			logger.WithFields(map[string]interface{}{
				"resource":   resource,
				"attempt":    attempt,
				"statusCode": statusCode,
			}).WithError(err).Warn("Provider call failed with non-retryable error")
			return nil, err
		}

		if attempt >= cfg.MaxAttempts {
			logger.WithFields(map[string]interface{}{
				"resource": resource,
				"attempts": attempt,
			}).WithError(err).Error("Provider call failed after max retry attempts")
			return nil, err
		}

		delay := Backoff(cfg.BaseDelay, attempt)
		logger.WithFields(map[string]interface{}{
			"resource":   resource,
			"attempt":    attempt,
			"statusCode": statusCode,
			"delayMs":    delay.Milliseconds(),
		}).WithError(err).Warn("Provider call failed, retrying with backoff")

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	return nil, lastErr
}

// Backoff returns the wait after a failed attempt (1-based): the delay
// before attempt k is base * 2^(k-2), so base after the first failure,
// doubled after each further one.
func Backoff(base time.Duration, failedAttempt int) time.Duration {
	if failedAttempt < 1 {
		failedAttempt = 1
	}
	return base << (failedAttempt - 1)
}

func encodeParams(params map[string]interface{}) string {
	if len(params) == 0 {
		return ""
	}
	data, err := json.Marshal(params)
	if err != nil {
		return ""
	}
	return string(data)
}
