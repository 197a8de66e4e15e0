package breaker

import (
	"context"
	"errors"
	"testing"
	"time"
)

func testConfig() Config {
	return Config{
		FailureThreshold:  3,
		ResetTimeout:      20 * time.Millisecond,
		HalfOpenSuccesses: 2,
		RequestTimeout:    time.Second,
	}
}

var errBoom = errors.New("boom")

func TestClosedAllowsAndTripsOnConsecutiveFailures(t *testing.T) {
	cb := New("svc", testConfig())
	for i := 0; i < 2; i++ {
		if err := cb.Exec(context.Background(), func(context.Context) error { return errBoom }); !errors.Is(err, errBoom) {
			t.Fatalf("Exec() = %v, want errBoom", err)
		}
	}
	if cb.Stats().State != Closed {
		t.Fatalf("expected still closed before threshold")
	}

	if err := cb.Exec(context.Background(), func(context.Context) error { return errBoom }); !errors.Is(err, errBoom) {
		t.Fatalf("Exec() = %v, want errBoom", err)
	}
	if cb.Stats().State != Open {
		t.Fatalf("expected open after %d consecutive failures", testConfig().FailureThreshold)
	}
}

func TestOpenRejectsUntilResetTimeout(t *testing.T) {
	cfg := testConfig()
	cb := New("svc", cfg)
	for i := 0; i < cfg.FailureThreshold; i++ {
		_ = cb.Exec(context.Background(), func(context.Context) error { return errBoom })
	}

	err := cb.Exec(context.Background(), func(context.Context) error { return nil })
	var openErr *CircuitOpenError
	if !errors.As(err, &openErr) {
		t.Fatalf("Exec() = %v, want CircuitOpenError", err)
	}

	time.Sleep(cfg.ResetTimeout + 5*time.Millisecond)
	if err := cb.Exec(context.Background(), func(context.Context) error { return nil }); err != nil {
		t.Fatalf("Exec() after reset timeout = %v, want probe admitted", err)
	}
	if cb.Stats().State != HalfOpen {
		t.Fatalf("expected half_open after one successful probe, got %s", cb.Stats().State)
	}
}

func TestHalfOpenClosesAfterSuccessThreshold(t *testing.T) {
	cfg := testConfig()
	cb := New("svc", cfg)
	for i := 0; i < cfg.FailureThreshold; i++ {
		_ = cb.Exec(context.Background(), func(context.Context) error { return errBoom })
	}
	time.Sleep(cfg.ResetTimeout + 5*time.Millisecond)

	for i := 0; i < cfg.HalfOpenSuccesses; i++ {
		if err := cb.Exec(context.Background(), func(context.Context) error { return nil }); err != nil {
			t.Fatalf("probe %d failed: %v", i, err)
		}
	}
	if cb.Stats().State != Closed {
		t.Fatalf("expected closed after %d half-open successes, got %s", cfg.HalfOpenSuccesses, cb.Stats().State)
	}
}

func TestHalfOpenFailureReopens(t *testing.T) {
	cfg := testConfig()
	cb := New("svc", cfg)
	for i := 0; i < cfg.FailureThreshold; i++ {
		_ = cb.Exec(context.Background(), func(context.Context) error { return errBoom })
	}
	time.Sleep(cfg.ResetTimeout + 5*time.Millisecond)

	_ = cb.Exec(context.Background(), func(context.Context) error { return errBoom })
	if cb.Stats().State != Open {
		t.Fatalf("expected re-opened after half-open failure, got %s", cb.Stats().State)
	}
}

func TestRegistryExecWithFallbackSwallowsOpenOnly(t *testing.T) {
	reg := NewRegistry(testConfig())
	for i := 0; i < testConfig().FailureThreshold; i++ {
		_ = reg.Exec(context.Background(), "svcA", func(context.Context) error { return errBoom })
	}

	var loggedErr error
	err := reg.ExecWithFallback(context.Background(), "svcA",
		func(context.Context) error { return nil },
		func() error { return nil },
		func(e error) { loggedErr = e },
	)
	if err != nil {
		t.Fatalf("ExecWithFallback() = %v, want nil (fallback)", err)
	}
	if loggedErr != nil {
		t.Errorf("onError should not fire for CircuitOpenError, got %v", loggedErr)
	}
}

func TestRegistryExecWithFallbackLogsOtherErrors(t *testing.T) {
	reg := NewRegistry(testConfig())
	var loggedErr error
	err := reg.ExecWithFallback(context.Background(), "svcB",
		func(context.Context) error { return errBoom },
		func() error { return nil },
		func(e error) { loggedErr = e },
	)
	if err != nil {
		t.Fatalf("ExecWithFallback() = %v, want nil (fallback)", err)
	}
	if !errors.Is(loggedErr, errBoom) {
		t.Errorf("onError = %v, want errBoom", loggedErr)
	}
}

func TestRegistryHealthIssues(t *testing.T) {
	reg := NewRegistry(testConfig())
	if issues := reg.HealthIssues(); len(issues) != 0 {
		t.Fatalf("expected no issues on fresh registry, got %v", issues)
	}
	for i := 0; i < testConfig().FailureThreshold; i++ {
		_ = reg.Exec(context.Background(), "svcA", func(context.Context) error { return errBoom })
	}
	if issues := reg.HealthIssues(); len(issues) != 1 {
		t.Errorf("expected 1 issue after tripping svcA, got %v", issues)
	}
}
