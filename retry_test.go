package gokafka

import (
	"testing"
	"time"

	"github.com/trivago/gokafka/shared"
)

// TestRetryPolicyMonotonicity covers spec.md §8's universal invariant:
// across a run that keeps failing with a retriable error, the number of
// attempts never exceeds send_max_attempts, and the wall time spent is at
// least (attempts-1)*retry_backoff_ms.
func TestRetryPolicyMonotonicity(t *testing.T) {
	expect := shared.NewExpect(t)

	cfg := DefaultConfig()
	cfg.SendMaxAttempts = 4
	cfg.RetryBackoffMs = 5
	policy := newRetryPolicy(cfg)

	attempts := 0
	start := time.Now()
	retriable := newClusterError(ErrRequestTimedOut)
	err := policy.newRetrier().Run(func() error {
		attempts++
		return retriable
	})
	elapsed := time.Since(start)

	expect.NotNil(err)
	expect.IntEq(cfg.SendMaxAttempts, attempts)
	if elapsed < time.Duration(cfg.SendMaxAttempts-1)*cfg.RetryBackoff() {
		t.Fatalf("elapsed %s shorter than the %d backoff sleeps it should include", elapsed, cfg.SendMaxAttempts-1)
	}
}

// TestRetryPolicyStopsOnFatal covers the companion invariant: a fatal
// (non-retriable) error stops the loop on its first attempt regardless of
// send_max_attempts.
func TestRetryPolicyStopsOnFatal(t *testing.T) {
	expect := shared.NewExpect(t)

	cfg := DefaultConfig()
	cfg.SendMaxAttempts = 4
	cfg.RetryBackoffMs = 5
	policy := newRetryPolicy(cfg)

	attempts := 0
	err := policy.newRetrier().Run(func() error {
		attempts++
		return fatal(ErrUnsupportedVersion)
	})

	expect.NotNil(err)
	expect.IntEq(1, attempts)
}

// TestRetryPolicySucceedsWithoutExhausting covers the success path: a work
// closure that succeeds on its second attempt stops the loop immediately.
func TestRetryPolicySucceedsWithoutExhausting(t *testing.T) {
	expect := shared.NewExpect(t)

	cfg := DefaultConfig()
	cfg.SendMaxAttempts = 4
	cfg.RetryBackoffMs = 5
	policy := newRetryPolicy(cfg)

	attempts := 0
	err := policy.newRetrier().Run(func() error {
		attempts++
		if attempts < 2 {
			return newClusterError(ErrRequestTimedOut)
		}
		return nil
	})

	expect.Nil(err)
	expect.IntEq(2, attempts)
}
