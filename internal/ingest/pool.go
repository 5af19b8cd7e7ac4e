package ingest

import (
	"context"
	"sync"

	"github.com/sports-ingest/internal/models"
)

// boundedMap runs fn for every item with at most width goroutines in
// flight and waits for all of them. Items are not started once ctx is
// cancelled; items already running finish on their own.
func boundedMap[T any](ctx context.Context, width int, items []T, fn func(ctx context.Context, item T)) {
	if width < 1 {
		width = 1
	}
	sem := make(chan struct{}, width)
	var wg sync.WaitGroup
	for _, item := range items {
		if ctx.Err() != nil {
			break
		}
		sem <- struct{}{}
		wg.Add(1)
		go func(it T) {
			defer wg.Done()
			defer func() { <-sem }()
			fn(ctx, it)
		}(item)
	}
	wg.Wait()
}

const maxStageMessages = 100

// stageCollector accumulates per-record outcomes for one stage across
// concurrent workers. Messages are capped so a pathological run cannot
// grow the summary without bound.
type stageCollector struct {
	mu      sync.Mutex
	summary models.StageSummary
}

func newStageCollector(stage string) *stageCollector {
	return &stageCollector{summary: models.StageSummary{Stage: stage}}
}

func (c *stageCollector) created() {
	c.mu.Lock()
	c.summary.Processed++
	c.summary.Created++
	c.mu.Unlock()
}

func (c *stageCollector) updated() {
	c.mu.Lock()
	c.summary.Processed++
	c.summary.Updated++
	c.mu.Unlock()
}

func (c *stageCollector) skipped(msg string) {
	c.mu.Lock()
	c.summary.Processed++
	c.summary.Skipped++
	c.appendMessage(msg)
	c.mu.Unlock()
}

func (c *stageCollector) failed(msg string) {
	c.mu.Lock()
	c.summary.Processed++
	c.summary.Errors++
	c.appendMessage(msg)
	c.mu.Unlock()
}

// appendMessage must be called with the mutex held.
func (c *stageCollector) appendMessage(msg string) {
	if msg == "" || len(c.summary.Messages) >= maxStageMessages {
		return
	}
	c.summary.Messages = append(c.summary.Messages, msg)
}

func (c *stageCollector) snapshot() models.StageSummary {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := c.summary
	out.Messages = append([]string(nil), c.summary.Messages...)
	return out
}
