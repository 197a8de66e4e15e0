package breaker

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// Registry manages one named breaker per upstream dependency, created
// lazily on first use. Grounded on the teacher's PerServiceBreakers.
type Registry struct {
	mu       sync.RWMutex
	cfg      Config
	breakers map[string]*CircuitBreaker
}

// NewRegistry builds a Registry whose breakers all share cfg.
func NewRegistry(cfg Config) *Registry {
	return &Registry{cfg: cfg, breakers: make(map[string]*CircuitBreaker)}
}

// Get returns the breaker for name, creating it if this is the first call.
func (r *Registry) Get(name string) *CircuitBreaker {
	r.mu.RLock()
	b, ok := r.breakers[name]
	r.mu.RUnlock()
	if ok {
		return b
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if b, ok := r.breakers[name]; ok {
		return b
	}
	b = New(name, r.cfg)
	r.breakers[name] = b
	return b
}

// Exec runs fn through the named breaker.
func (r *Registry) Exec(ctx context.Context, name string, fn func(context.Context) error) error {
	return r.Get(name).Exec(ctx, fn)
}

// ExecWithFallback runs fn through the named breaker and falls back to
// fallback() on any failure. A CircuitOpenError is swallowed silently (the
// expected, routine outcome of an open circuit); any other failure is
// passed to onError, if non-nil, before falling back, so the caller can
// log it — per spec.md §4.5's "execWithFallback swallows only
// CircuitOpenError; other errors ... are logged".
func (r *Registry) ExecWithFallback(ctx context.Context, name string, fn func(context.Context) error, fallback func() error, onError func(error)) error {
	err := r.Exec(ctx, name, fn)
	if err == nil {
		return nil
	}

	var openErr *CircuitOpenError
	if !errors.As(err, &openErr) && onError != nil {
		onError(err)
	}
	return fallback()
}

// HealthIssues returns a description of every breaker not in the closed
// state, per spec.md §4.5's "any non-closed breaker is a degraded-state
// issue" health-check hook.
func (r *Registry) HealthIssues() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var issues []string
	for name, b := range r.breakers {
		if st := b.Stats(); st.State != Closed {
			issues = append(issues, fmt.Sprintf("%s: %s (consecutive failures=%d)", name, st.State, st.ConsecutiveFailures))
		}
	}
	return issues
}
