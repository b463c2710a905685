// Package backoff computes delays between failed reconciliation cycles.
package backoff

import (
	"context"
	"math"
	"math/rand/v2"
	"time"
)

const maxShift = 62

// Exponential returns base * 2^attempt, saturating instead of overflowing.
// Negative attempts count as 0.
func Exponential(base time.Duration, attempt int) time.Duration {
	if base <= 0 {
		return 0
	}
	if attempt < 0 {
		attempt = 0
	} else if attempt > maxShift {
		attempt = maxShift
	}

	multiplier := int64(1) << attempt
	if int64(base) > math.MaxInt64/multiplier {
		return time.Duration(math.MaxInt64)
	}
	return base * time.Duration(multiplier)
}

// FullJitter returns a random duration in [0, delay)
func FullJitter(delay time.Duration) time.Duration {
	if delay <= 0 {
		return 0
	}
	return time.Duration(rand.Int64N(int64(delay)))
}

// Policy is capped exponential backoff with full jitter
type Policy struct {
	Base time.Duration
	Max  time.Duration // 0 means uncapped
}

// Ceiling returns the upper bound of the delay for attempt, before jitter
func (p Policy) Ceiling(attempt int) time.Duration {
	d := Exponential(p.Base, attempt)
	if p.Max > 0 && d > p.Max {
		d = p.Max
	}
	return d
}

// Delay returns the jittered delay for attempt (0-based)
func (p Policy) Delay(attempt int) time.Duration {
	return FullJitter(p.Ceiling(attempt))
}

// Sleep waits for d or until ctx is done, whichever comes first.
// It returns ctx.Err() when interrupted.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
