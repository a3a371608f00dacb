// Package retry runs an operation a bounded number of times with
// exponential backoff between attempts.
package retry

import (
	"context"
	"errors"
	"time"
)

// ErrNoAttempts is returned by Do when the policy allows zero attempts.
var ErrNoAttempts = errors.New("retry: policy allows no attempts")

// Policy describes how an operation is retried.
//
// The wait before attempt n (n >= 2) is BaseDelay * 2^(n-2). A nil Retryable
// treats every error as retryable.
type Policy struct {
	Attempts  int
	BaseDelay time.Duration
	Retryable func(error) bool

	// OnRetry, when set, is called before each wait with the attempt that just failed.
	OnRetry func(attempt int, err error, wait time.Duration)
}

// Delay returns the wait that precedes the given attempt number.
func (p Policy) Delay(attempt int) time.Duration {
	if attempt < 2 || p.BaseDelay <= 0 {
		return 0
	}
	return p.BaseDelay << (attempt - 2)
}

// Do calls fn until it succeeds, returns a non-retryable error, the attempts
// run out, or ctx is done. The last error from fn is returned.
func (p Policy) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	if p.Attempts < 1 {
		return ErrNoAttempts
	}

	var err error
	for attempt := 1; attempt <= p.Attempts; attempt++ {
		if attempt > 1 {
			wait := p.Delay(attempt)
			if p.OnRetry != nil {
				p.OnRetry(attempt-1, err, wait)
			}
			if werr := sleep(ctx, wait); werr != nil {
				return err
			}
		}

		err = fn(ctx)
		if err == nil {
			return nil
		}
		if p.Retryable != nil && !p.Retryable(err) {
			return err
		}
		if ctx.Err() != nil {
			return err
		}
	}
	return err
}

func sleep(ctx context.Context, d time.Duration) error {
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
