package poller

import (
	"context"
	"time"
)

// Check probes a condition once. A nil return means the condition holds;
// any error counts as a transient failure and consumes one attempt or
// interval of the budget.
type Check func(ctx context.Context) error

// Outcome reports how a polling run ended. It is returned by value and
// never retained by the poller.
type Outcome struct {
	Succeeded bool
	Attempts  int
	Elapsed   time.Duration
	LastErr   error
}

// sleep is replaced in tests to avoid real waiting.
var sleep = func(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// now is replaced in tests to control the wall clock.
var now = time.Now

// Attempts invokes check up to maxAttempts times, sleeping interval between
// invocations. It returns on the first success; after exhausting the budget
// the outcome carries the last check error. Exactly maxAttempts calls and
// maxAttempts-1 sleeps occur in the all-failing case.
func Attempts(ctx context.Context, maxAttempts int, interval time.Duration, check Check) Outcome {
	start := now()
	out := Outcome{}

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		out.Attempts = attempt
		err := check(ctx)
		if err == nil {
			out.Succeeded = true
			out.Elapsed = now().Sub(start)
			return out
		}
		out.LastErr = err

		if attempt < maxAttempts {
			if err := sleep(ctx, interval); err != nil {
				out.LastErr = err
				break
			}
		}
	}

	out.Elapsed = now().Sub(start)
	return out
}

// Deadline invokes check until it succeeds or until now-start exceeds
// timeout, sleeping interval between invocations. The check is always
// invoked at least once.
func Deadline(ctx context.Context, timeout, interval time.Duration, check Check) Outcome {
	start := now()
	out := Outcome{}

	for {
		out.Attempts++
		err := check(ctx)
		if err == nil {
			out.Succeeded = true
			out.Elapsed = now().Sub(start)
			return out
		}
		out.LastErr = err

		if now().Sub(start) > timeout {
			break
		}
		if err := sleep(ctx, interval); err != nil {
			out.LastErr = err
			break
		}
	}

	out.Elapsed = now().Sub(start)
	return out
}
