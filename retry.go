package jwt

import (
	"context"
	"time"
)

const (
	defaultRetryMaxAttempts = 5
	retryBaseDelay          = 100 * time.Millisecond
)

type retryOptions struct {
	attempt     int
	maxAttempts int
	retryIf     func(error) bool
	sleep       func(context.Context, time.Duration) error
}

// RetryOption configures CallWithRetry.
type RetryOption func(*retryOptions)

// WithAttempts sets the number of the first attempt and the maximum number
// of attempts. Values below 1 are ignored.
func WithAttempts(attempt, maxAttempts int) RetryOption {
	return func(o *retryOptions) {
		if attempt >= 1 {
			o.attempt = attempt
		}

		if maxAttempts >= 1 {
			o.maxAttempts = maxAttempts
		}
	}
}

// RetryIf restricts retries to the errors retryable reports true for.
// Other errors are returned at once. By default every error is retried.
func RetryIf(retryable func(error) bool) RetryOption {
	return func(o *retryOptions) {
		o.retryIf = retryable
	}
}

// WithSleep replaces the wait between attempts. It must return ctx.Err()
// when ctx is done before d elapses.
func WithSleep(sleep func(ctx context.Context, d time.Duration) error) RetryOption {
	return func(o *retryOptions) {
		o.sleep = sleep
	}
}

// CallWithRetry calls fn until it succeeds or the attempts run out.
//
// After a failed attempt n, and if n is below the maximum (5 by default),
// it waits 2^n * 100ms and tries again, so the waits are 200ms, 400ms,
// 800ms and 1.6s. There is no jitter. The error of the last attempt is
// returned unchanged.
//
// ctx is checked before every attempt and during every wait; once it is
// done, CallWithRetry returns ctx.Err() without calling fn again.
func CallWithRetry[T any](ctx context.Context, fn func(context.Context) (T, error), opts ...RetryOption) (T, error) {
	o := retryOptions{
		attempt:     1,
		maxAttempts: defaultRetryMaxAttempts,
		sleep:       sleepWithContext,
	}
	for _, opt := range opts {
		opt(&o)
	}

	var zero T
	for attempt := o.attempt; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return zero, err
		}

		v, err := fn(ctx)
		if err == nil {
			return v, nil
		}

		if attempt >= o.maxAttempts || (o.retryIf != nil && !o.retryIf(err)) {
			return zero, err
		}

		if serr := o.sleep(ctx, backoffDuration(attempt)); serr != nil {
			return zero, serr
		}
	}
}

// backoffDuration returns 2^attempt * 100ms, capped at 2^16 * 100ms.
func backoffDuration(attempt int) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	if attempt > 16 {
		attempt = 16
	}

	return time.Duration(1<<uint(attempt)) * retryBaseDelay
}

func sleepWithContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
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
