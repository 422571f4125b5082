// Package retry implements the shared resilience wrapper around model
// calls: a fixed attempt ceiling with exponential backoff on transient
// failures, immediate abort on terminal ones. It knows nothing about
// request or response shape.
package retry

import (
	"context"
	"fmt"
	"time"

	"github.com/relaylabs/relay-agent/internal/domain"
)

// Policy configures the attempt loop.
type Policy struct {
	MaxAttempts    int
	InitialBackoff time.Duration
	Factor         int

	// sleep waits for d or until ctx is done. Tests inject a recorder.
	sleep func(ctx context.Context, d time.Duration) error
}

// DefaultPolicy matches the pipeline contract: 3 attempts, 1s initial
// backoff, doubling each attempt.
func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts:    3,
		InitialBackoff: time.Second,
		Factor:         2,
	}
}

// WithSleep returns a copy of p using fn instead of a real timer.
func (p Policy) WithSleep(fn func(ctx context.Context, d time.Duration) error) Policy {
	p.sleep = fn
	return p
}

// BackoffAt is the pure backoff schedule: the wait after attempt number
// attempt (1-based). With the default policy: 1s, 2s, 4s, ...
func BackoffAt(p Policy, attempt int) time.Duration {
	d := p.InitialBackoff
	for i := 1; i < attempt; i++ {
		d *= time.Duration(p.Factor)
	}
	return d
}

func wait(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Do runs op up to p.MaxAttempts times. Retryable failures (per
// domain.IsRetryable) wait out the backoff schedule and retry; terminal
// failures return immediately. When every attempt failed retryably the
// last raw error is replaced by domain.ErrRetryTimeout.
func Do[T any](ctx context.Context, p Policy, op func(ctx context.Context) (T, error)) (T, error) {
	var zero T

	sleep := p.sleep
	if sleep == nil {
		sleep = wait
	}

	for attempt := 1; attempt <= p.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return zero, err
		}

		out, err := op(ctx)
		if err == nil {
			return out, nil
		}

		if !domain.IsRetryable(err) {
			return zero, err
		}

		if attempt == p.MaxAttempts {
			break
		}

		if serr := sleep(ctx, BackoffAt(p, attempt)); serr != nil {
			return zero, serr
		}
	}

	return zero, fmt.Errorf("%d attempts failed: %w", p.MaxAttempts, domain.ErrRetryTimeout)
}
