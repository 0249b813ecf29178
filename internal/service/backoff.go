package service

import (
	"context"
	"time"
)

// BackoffPolicy is capped exponential backoff: Base * 2^(attempt-1), at most Max.
type BackoffPolicy struct {
	Base time.Duration
	Max  time.Duration
}

// DefaultBackoff yields 10s, 20s, 40s, 60s, 60s...
var DefaultBackoff = BackoffPolicy{Base: 10 * time.Second, Max: 60 * time.Second}

// Delay returns the wait after the given failed attempt (1-based).
func (p BackoffPolicy) Delay(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	d := p.Base
	for i := 1; i < attempt; i++ {
		if d >= p.Max {
			return p.Max
		}
		d *= 2
	}
	if d > p.Max {
		return p.Max
	}
	return d
}

// Sleeper blocks for d or until ctx is done.
type Sleeper interface {
	Sleep(ctx context.Context, d time.Duration) error
}

type timerSleeper struct{}

// RealSleeper waits on a timer.
var RealSleeper Sleeper = timerSleeper{}

func (timerSleeper) Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
