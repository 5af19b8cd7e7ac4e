// Package governor implements the single mandatory gate for every provider
// call. Two independent mechanisms compose: a synchronous daily-ceiling
// check against the usage ledger, and an in-process token-bucket throughput
// limiter with minimum call spacing and a concurrency cap. Operations
// arriving while the bucket is empty or the concurrency cap is reached queue
// FIFO and wait indefinitely; the governor shapes throughput, it does not
// reject work.
//
// Governor state is deliberately not persisted. A restart resets the bucket,
// which is acceptable because the daily ledger is authoritative for the hard
// quota. The state is confined to one process: running multiple ingestion
// processes against the same provider key would bypass the shared ceiling.
package governor

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/sports-ingest/internal/config"
	apperrors "github.com/sports-ingest/internal/errors"
	"github.com/sports-ingest/internal/logging"
	"github.com/sports-ingest/internal/models"
)

// UsageReader answers the daily-ceiling check. Satisfied by ledger.Service.
type UsageReader interface {
	GetUsage(ctx context.Context, provider, date string) *models.UsageCounter
}

// Operation is a unit of work scheduled through the governor.
type Operation func(ctx context.Context) (interface{}, error)

type task struct {
	ctx      context.Context
	resource string
	op       Operation
	result   chan taskResult
}

type taskResult struct {
	value interface{}
	err   error
}

// Governor is the provider-call gate. Create one per provider connection and
// inject it into every resource service; it is not a process-wide singleton,
// so tests and additional provider connections get independent throttling.
type Governor struct {
	cfg      config.GovernorConfig
	provider string
	usage    UsageReader
	logger   *logging.Logger

	// spacer enforces the fixed per-call minimum spacing; the reservoir
	// and concurrency cap are tracked separately under mu.
	spacer *rate.Limiter

	mu       sync.Mutex
	tokens   int
	inFlight int
	queue    []*task

	kick   chan struct{}
	stopCh chan struct{}
	doneCh chan struct{}
}

// Counters is an observable snapshot of governor state, for logging and the
// status endpoint only. It must never feed back into scheduling decisions.
type Counters struct {
	AvailableTokens int `json:"availableTokens"`
	InFlight        int `json:"inFlight"`
	Queued          int `json:"queued"`
}

// NewGovernor creates and starts a governor.
func NewGovernor(cfg *config.GovernorConfig, provider string, usage UsageReader, logger *logging.Logger) (*Governor, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = logging.GetGlobalLogger()
	}

	g := &Governor{
		cfg:      *cfg,
		provider: provider,
		usage:    usage,
		logger:   logger,
		spacer:   rate.NewLimiter(rate.Every(cfg.MinSpacing), 1),
		tokens:   cfg.Reservoir,
		kick:     make(chan struct{}, 1),
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}

	go g.run()
	return g, nil
}

// Stop shuts the dispatch loop down. Queued operations fail with the stop
// error; in-flight operations run to completion on their own goroutines.
func (g *Governor) Stop() {
	close(g.stopCh)
	<-g.doneCh
}

// Schedule runs the daily-ceiling check synchronously, then enqueues op into
// the throughput limiter. It blocks until op has executed (or ctx is
// cancelled while queued) and returns exactly what op returns.
func (g *Governor) Schedule(ctx context.Context, resource string, op Operation) (interface{}, error) {
	if err := g.checkDailyCeiling(ctx); err != nil {
		return nil, err
	}

	t := &task{
		ctx:      ctx,
		resource: resource,
		op:       op,
		result:   make(chan taskResult, 1),
	}

	g.mu.Lock()
	g.queue = append(g.queue, t)
	queued := len(g.queue)
	g.mu.Unlock()
	g.wake()

	if queued > 1 {
		g.logger.WithFields(map[string]interface{}{
			"resource": resource,
			"queued":   queued,
		}).Debug("Operation queued behind rate limiter")
	}

	select {
	case res := <-t.result:
		return res.value, res.err
	case <-ctx.Done():
		// The dispatcher checks task context before executing, so a
		// cancelled task is skipped rather than run twice.
		return nil, ctx.Err()
	}
}

// Snapshot returns the current observable counters.
func (g *Governor) Snapshot() Counters {
	g.mu.Lock()
	defer g.mu.Unlock()
	return Counters{
		AvailableTokens: g.tokens,
		InFlight:        g.inFlight,
		Queued:          len(g.queue),
	}
}

// checkDailyCeiling reads current usage and fails fast with a quota error
// when the configured daily limit is reached. At or above the warning
// threshold it logs and proceeds.
func (g *Governor) checkDailyCeiling(ctx context.Context) error {
	usage := g.usage.GetUsage(ctx, g.provider, "")

	if usage.TotalCalls >= g.cfg.DailyLimit {
		return apperrors.NewQuotaExceededError(g.provider, usage.TotalCalls, g.cfg.DailyLimit)
	}

	if float64(usage.TotalCalls) >= g.cfg.WarningThreshold*float64(g.cfg.DailyLimit) {
		g.logger.WithFields(map[string]interface{}{
			"provider": g.provider,
			"used":     usage.TotalCalls,
			"limit":    g.cfg.DailyLimit,
		}).Warn("Approaching daily API limit")
	}

	return nil
}

// run is the dispatch loop. It dispatches the queue head when a token, a
// concurrency slot, and the minimum spacing are all available, refills the
// bucket on a fixed interval, and otherwise sleeps until woken.
func (g *Governor) run() {
	defer close(g.doneCh)

	refill := time.NewTicker(g.cfg.RefillInterval)
	defer refill.Stop()

	for {
		wait := g.dispatchReady()

		var spacing <-chan time.Time
		var timer *time.Timer
		if wait > 0 {
			timer = time.NewTimer(wait)
			spacing = timer.C
		}

		select {
		case <-g.stopCh:
			if timer != nil {
				timer.Stop()
			}
			g.drainQueue()
			return
		case <-refill.C:
			g.mu.Lock()
			g.tokens += g.cfg.RefillAmount
			if g.tokens > g.cfg.Reservoir {
				g.tokens = g.cfg.Reservoir
			}
			g.mu.Unlock()
		case <-g.kick:
		case <-spacing:
		}

		if timer != nil {
			timer.Stop()
		}
	}
}

// dispatchReady starts every task that can run right now. It returns how
// long to wait for minimum spacing when that is the only blocker, 0 when
// the loop should just sleep until woken.
func (g *Governor) dispatchReady() time.Duration {
	g.mu.Lock()
	defer g.mu.Unlock()

	for len(g.queue) > 0 {
		if g.tokens <= 0 || g.inFlight >= g.cfg.MaxConcurrent {
			return 0
		}

		if t := g.queue[0]; t.ctx.Err() != nil {
			// Caller already gave up; consume nothing.
			g.queue = g.queue[1:]
			continue
		}

		reservation := g.spacer.Reserve()
		if delay := reservation.Delay(); delay > 0 {
			reservation.Cancel()
			return delay
		}

		t := g.queue[0]
		g.queue = g.queue[1:]
		g.tokens--
		g.inFlight++

		go g.execute(t)
	}
	return 0
}

func (g *Governor) execute(t *task) {
	value, err := t.op(t.ctx)

	g.mu.Lock()
	g.inFlight--
	g.mu.Unlock()
	g.wake()

	t.result <- taskResult{value: value, err: err}
}

func (g *Governor) drainQueue() {
	g.mu.Lock()
	pending := g.queue
	g.queue = nil
	g.mu.Unlock()

	for _, t := range pending {
		t.result <- taskResult{err: context.Canceled}
	}
}

func (g *Governor) wake() {
	select {
	case g.kick <- struct{}{}:
	default:
	}
}
