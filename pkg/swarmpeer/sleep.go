package swarmpeer

import (
	"context"
	"time"
)

// sleepCtx sleeps for d, returning false early if ctx is canceled first.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return true
	case <-ctx.Done():
		return false
	}
}

// jitterDuration returns a random duration uniformly in [min, max).
func jitterDuration(min, max time.Duration) time.Duration {
	if max <= min {
		return min
	}
	return min + time.Duration(jitterRand.Int63n(int64(max-min)))
}
