// Package testutil holds helpers shared by package tests.
package testutil

import (
	"context"
	"testing"
	"time"
)

// DefaultTimeout bounds a unit test that does not pass its own timeout.
const DefaultTimeout = 5 * time.Second

// deadlineGrace is left between a context deadline and the test binary's
// own -timeout so failures report the blocked call instead of a panic.
const deadlineGrace = time.Second

// deadliner is implemented by *testing.T. testing.TB does not include it.
type deadliner interface {
	Deadline() (time.Time, bool)
}

// Context returns a context cancelled at test cleanup. timeout <= 0 uses
// DefaultTimeout. When t knows the test binary deadline, the result never
// outlives it.
func Context(t testing.TB, timeout time.Duration) context.Context {
	t.Helper()
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if d, ok := t.(deadliner); ok {
		timeout = boundedTimeout(timeout, d)
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	t.Cleanup(cancel)
	return ctx
}

func boundedTimeout(timeout time.Duration, d deadliner) time.Duration {
	if deadline, ok := d.Deadline(); ok {
		if remaining := time.Until(deadline) - deadlineGrace; remaining > 0 {
			timeout = min(timeout, remaining)
		}
	}
	return timeout
}
