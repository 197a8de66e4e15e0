package supervisor

import (
	"time"

	"github.com/cenkalti/backoff/v4"
)

// respawnBackoff computes the delay before the nth respawn of a stalled
// output-file-polling research task, per SPEC_FULL.md §4.3's "(AMBIENT)
// Respawn backoff" note: exponential and jittered, starting at 2 seconds,
// doubling per respawn, and capped at 30 seconds (MaxInterval).
func respawnBackoff(retryCount int) time.Duration {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 2 * time.Second
	b.MaxInterval = 30 * time.Second
	b.Multiplier = 2

	var d time.Duration
	for i := 0; i < retryCount; i++ {
		d = b.NextBackOff()
	}
	if d <= 0 {
		d = b.MaxInterval
	}
	return d
}
