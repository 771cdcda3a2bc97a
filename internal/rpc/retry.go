package rpc

import (
	"context"
	"time"
)

// Policy is a bounded retry policy with exponential backoff. The delay for
// attempt n (zero-based) is BaseDelay << n. Only transient errors are
// retried; the last error is returned once attempts are exhausted.
type Policy struct {
	MaxAttempts int
	BaseDelay   time.Duration

	// Sleep is swappable for tests. Nil means time.Sleep.
	Sleep func(time.Duration)
}

// DefaultPolicy matches the remote APIs' tolerance: three attempts starting
// at one second.
func DefaultPolicy() Policy {
	return Policy{MaxAttempts: 3, BaseDelay: time.Second}
}

// Do runs fn until it succeeds, returns a non-transient error, or attempts
// run out. Context cancellation stops the loop between attempts.
func (p Policy) Do(ctx context.Context, fn func() error) error {
	sleep := p.Sleep
	if sleep == nil {
		sleep = time.Sleep
	}
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	var err error
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			sleep(p.BaseDelay << (attempt - 1))
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		err = fn()
		if err == nil || !IsTransient(err) {
			return err
		}
	}
	return err
}
