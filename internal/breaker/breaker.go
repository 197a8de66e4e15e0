// Package breaker implements the Circuit Breaker Registry named in
// spec.md §4.5: per-upstream consecutive-failure-count breakers, a named
// registry, execWithFallback, and a health-check hook. Grounded on the
// teacher's retry.CircuitBreaker / retry.PerServiceBreakers
// (internal/retry/circuit_breaker.go) for the registry-of-named-breakers
// shape, but the trip rule is consecutive failures, not failure rate,
// since spec.md §4.5/§8-S6 is unambiguous about that.
package breaker

import (
	"context"
	"sync"
	"time"
)

// State is one of closed, open, half_open.
type State int

const (
	Closed State = iota
	Open
	HalfOpen
)

func (s State) String() string {
	switch s {
	case Open:
		return "open"
	case HalfOpen:
		return "half_open"
	default:
		return "closed"
	}
}

const responseWindowSize = 20

// Config configures a single breaker's trip rule and recovery timing.
type Config struct {
	FailureThreshold    int           // consecutive failures before opening
	ResetTimeout        time.Duration // time in open before a probe is admitted
	HalfOpenSuccesses   int           // successes on probes needed to close
	RequestTimeout      time.Duration // per-call timeout, enforced by the caller via context
}

// DefaultConfig matches spec.md §4.5's nominal defaults.
func DefaultConfig() Config {
	return Config{
		FailureThreshold:  5,
		ResetTimeout:      30 * time.Second,
		HalfOpenSuccesses: 2,
		RequestTimeout:    10 * time.Second,
	}
}

// Stats is a point-in-time snapshot of one breaker's counters.
type Stats struct {
	State                State
	ConsecutiveFailures  int
	ConsecutiveSuccesses int
	TotalSuccesses       int64
	TotalFailures        int64
	LifetimeRequests     int64
	LastSuccess          time.Time
	LastFailure          time.Time
	LastError            string
	OpenedAt             time.Time
	AvgResponseTime      time.Duration
}

// CircuitBreaker guards one upstream dependency.
type CircuitBreaker struct {
	name string
	cfg  Config

	mu                   sync.Mutex
	state                State
	probeInFlight        bool
	consecutiveFailures  int
	consecutiveSuccesses int
	totalSuccesses       int64
	totalFailures        int64
	lastSuccess          time.Time
	lastFailure          time.Time
	lastErr              error
	openedAt             time.Time
	responseTimes        []time.Duration
}

// New constructs a closed breaker named name.
func New(name string, cfg Config) *CircuitBreaker {
	return &CircuitBreaker{name: name, cfg: cfg, state: Closed}
}

// Exec admits fn according to the breaker's current state, recording the
// outcome. It returns *CircuitOpenError without invoking fn when the
// circuit is open and no probe is due.
func (cb *CircuitBreaker) Exec(ctx context.Context, fn func(context.Context) error) error {
	if !cb.allow() {
		cb.mu.Lock()
		lastErr := cb.lastErr
		cb.mu.Unlock()
		return &CircuitOpenError{Service: cb.name, LastErr: lastErr}
	}

	start := time.Now()
	err := fn(ctx)
	cb.record(err, time.Since(start))
	return err
}

// allow reports whether a call should be admitted, transitioning
// open->half_open when the reset timeout has elapsed.
func (cb *CircuitBreaker) allow() bool {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case Closed:
		return true
	case Open:
		if time.Since(cb.openedAt) >= cb.cfg.ResetTimeout {
			cb.state = HalfOpen
			cb.consecutiveSuccesses = 0
			cb.probeInFlight = true
			return true
		}
		return false
	case HalfOpen:
		if cb.probeInFlight {
			return false
		}
		cb.probeInFlight = true
		return true
	default:
		return false
	}
}

func (cb *CircuitBreaker) record(err error, elapsed time.Duration) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.probeInFlight = false
	cb.responseTimes = append(cb.responseTimes, elapsed)
	if len(cb.responseTimes) > responseWindowSize {
		cb.responseTimes = cb.responseTimes[len(cb.responseTimes)-responseWindowSize:]
	}

	if err == nil {
		cb.onSuccess()
		return
	}
	cb.onFailure(err)
}

func (cb *CircuitBreaker) onSuccess() {
	cb.totalSuccesses++
	cb.lastSuccess = time.Now()
	cb.consecutiveFailures = 0

	switch cb.state {
	case HalfOpen:
		cb.consecutiveSuccesses++
		if cb.consecutiveSuccesses >= cb.cfg.HalfOpenSuccesses {
			cb.state = Closed
			cb.consecutiveSuccesses = 0
		}
	case Closed:
		cb.consecutiveSuccesses++
	}
}

func (cb *CircuitBreaker) onFailure(err error) {
	cb.totalFailures++
	cb.lastFailure = time.Now()
	cb.lastErr = err
	cb.consecutiveSuccesses = 0

	switch cb.state {
	case HalfOpen:
		cb.state = Open
		cb.openedAt = time.Now()
	case Closed:
		cb.consecutiveFailures++
		if cb.consecutiveFailures >= cb.cfg.FailureThreshold {
			cb.state = Open
			cb.openedAt = time.Now()
		}
	}
}

// Stats returns a snapshot of the breaker's current counters.
func (cb *CircuitBreaker) Stats() Stats {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	var lastErrStr string
	if cb.lastErr != nil {
		lastErrStr = cb.lastErr.Error()
	}

	var avg time.Duration
	if n := len(cb.responseTimes); n > 0 {
		var sum time.Duration
		for _, d := range cb.responseTimes {
			sum += d
		}
		avg = sum / time.Duration(n)
	}

	return Stats{
		State:                cb.state,
		ConsecutiveFailures:  cb.consecutiveFailures,
		ConsecutiveSuccesses: cb.consecutiveSuccesses,
		TotalSuccesses:       cb.totalSuccesses,
		TotalFailures:        cb.totalFailures,
		LifetimeRequests:     cb.totalSuccesses + cb.totalFailures,
		LastSuccess:          cb.lastSuccess,
		LastFailure:          cb.lastFailure,
		LastError:            lastErrStr,
		OpenedAt:             cb.openedAt,
		AvgResponseTime:      avg,
	}
}
