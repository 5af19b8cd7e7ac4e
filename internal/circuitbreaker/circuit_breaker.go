// Package circuitbreaker provides a small consecutive-failure breaker used
// to stop hammering an unavailable audit sink. The ingestion pipeline treats
// audit writes as fail-open, so when the sink is down the breaker turns a
// stream of slow failures into fast rejections until the cooldown elapses.
package circuitbreaker

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/sports-ingest/internal/logging"
)

// State represents the circuit breaker state
type State string

const (
	// StateClosed means requests are allowed
	StateClosed State = "closed"
	// StateOpen means requests are rejected until the cooldown elapses
	StateOpen State = "open"
)

// ErrCircuitOpen is returned when the circuit breaker is open
var ErrCircuitOpen = errors.New("circuit breaker is open")

// CircuitBreaker opens after a run of consecutive failures and closes again
// after a cooldown plus one successful probe.
type CircuitBreaker struct {
	name        string
	maxFailures int
	cooldown    time.Duration

	mu               sync.Mutex
	state            State
	consecutiveFails int
	openedAt         time.Time
}

// Config configures a circuit breaker
type Config struct {
	Name        string
	MaxFailures int
	Cooldown    time.Duration
}

// DefaultConfig returns a default circuit breaker configuration
func DefaultConfig(name string) *Config {
	return &Config{
		Name:        name,
		MaxFailures: 5,
		Cooldown:    30 * time.Second,
	}
}

// New creates a circuit breaker
func New(cfg *Config) *CircuitBreaker {
	return &CircuitBreaker{
		name:        cfg.Name,
		maxFailures: cfg.MaxFailures,
		cooldown:    cfg.Cooldown,
		state:       StateClosed,
	}
}

// Execute runs fn unless the circuit is open. A success closes the circuit;
// reaching the consecutive-failure threshold opens it.
func (cb *CircuitBreaker) Execute(ctx context.Context, fn func(ctx context.Context) error) error {
	if !cb.allow() {
		return ErrCircuitOpen
	}

	err := fn(ctx)
	cb.record(err)
	return err
}

// State returns the current state.
func (cb *CircuitBreaker) CurrentState() State {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}

func (cb *CircuitBreaker) allow() bool {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if cb.state == StateClosed {
		return true
	}
	if time.Since(cb.openedAt) >= cb.cooldown {
		// Cooldown elapsed: let one probe through. The probe's outcome
		// decides whether the circuit closes or reopens.
		return true
	}
	return false
}

func (cb *CircuitBreaker) record(err error) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if err == nil {
		if cb.state == StateOpen {
			logging.WithField("circuitBreaker", cb.name).Info("Circuit breaker closed after recovery")
		}
		cb.state = StateClosed
		cb.consecutiveFails = 0
		return
	}

	cb.consecutiveFails++
	if cb.state == StateOpen {
		cb.openedAt = time.Now()
		return
	}
	if cb.consecutiveFails >= cb.maxFailures {
		cb.state = StateOpen
		cb.openedAt = time.Now()
		logging.WithFields(map[string]interface{}{
			"circuitBreaker":   cb.name,
			"consecutiveFails": cb.consecutiveFails,
		}).Warn("Circuit breaker opened due to consecutive failures")
	}
}
