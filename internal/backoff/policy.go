// Package backoff computes exponential retry delays with jitter.
package backoff

import (
	"context"
	"math"
	"math/rand"
	"time"
)

// Policy defines exponential backoff parameters.
type Policy struct {
	Initial time.Duration
	Max     time.Duration
	Factor  float64
	// Jitter is the fraction (0..1) of the base delay added at random.
	Jitter float64
}

// Default is 200ms doubling up to 10s with 20% jitter.
func Default() Policy {
	return Policy{Initial: 200 * time.Millisecond, Max: 10 * time.Second, Factor: 2, Jitter: 0.2}
}

// Delay returns the wait before retry number attempt (1-based).
func (policy Policy) Delay(attempt int) time.Duration {
	return policy.DelayWithRand(attempt, rand.Float64()) // #nosec G404 -- jitter only
}

// DelayWithRand is Delay with a caller-supplied random value in [0, 1).
func (policy Policy) DelayWithRand(attempt int, random float64) time.Duration {
	exp := math.Max(float64(attempt-1), 0)
	factor := policy.Factor
	if factor < 1 {
		factor = 1
	}
	base := float64(policy.Initial) * math.Pow(factor, exp)
	total := base + base*policy.Jitter*random
	if policy.Max > 0 {
		total = math.Min(float64(policy.Max), total)
	}
	return time.Duration(math.Round(total))
}

// Sleep waits for d or until ctx is done.
func Sleep(ctx context.Context, d time.Duration) error {
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
