package supervisor

import "testing"

func TestLimiterRefusesBeyondCapacity(t *testing.T) {
	l := newLimiter(2)
	if !l.tryAcquire() || !l.tryAcquire() {
		t.Fatal("expected first two acquires to succeed")
	}
	if l.tryAcquire() {
		t.Fatal("expected third acquire to be refused")
	}
	l.release()
	if !l.tryAcquire() {
		t.Fatal("expected acquire to succeed after release")
	}
}

func TestLimiterReleaseNeverBlocksOrPanics(t *testing.T) {
	l := newLimiter(1)
	l.release()
	l.release()
	if !l.tryAcquire() {
		t.Fatal("expected a token to still be available")
	}
}
