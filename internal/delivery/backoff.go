package delivery

import (
	"context"
	"time"
)

// RetryPolicy describes the delay schedule for network delivery attempts.
// Attempt 0 runs immediately; attempt n waits Base * Multiplier^(n-1).
// The defaults produce the {0s, 1s, 2s, 4s} schedule.
type RetryPolicy struct {
	Base        time.Duration
	Multiplier  float64
	MaxAttempts int
}

func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		Base:        1 * time.Second,
		Multiplier:  2.0,
		MaxAttempts: 4,
	}
}

func (p RetryPolicy) Delay(attempt int) time.Duration {
	if attempt <= 0 {
		return 0
	}
	delay := float64(p.Base)
	for i := 1; i < attempt; i++ {
		delay *= p.Multiplier
	}
	return time.Duration(delay)
}

func (p RetryPolicy) attempts() int {
	if p.MaxAttempts <= 0 {
		return 1
	}
	return p.MaxAttempts
}

// sleepCtx waits for d or until ctx is cancelled.
func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
