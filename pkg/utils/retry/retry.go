package retry

import (
	"context"
	"errors"
	"time"
)

// ErrRetry marks an error as transient. Wrap it to ask Until for another attempt.
var ErrRetry = errors.New("retry")

// Transient wraps err with ErrRetry. nil stays nil.
func Transient(err error) error {
	if err == nil {
		return nil
	}
	return errors.Join(ErrRetry, err)
}

// Backoff blocks until the next attempt should be made.
//
// It returns ctx.Err() when ctx is done before that.
type Backoff func(context.Context) error

// Static waits for interval before each attempt.
func Static(interval time.Duration) Backoff {
	return Exponential(interval, 1, interval)
}

// Exponential waits for initial before the first attempt,
// then multiplies the interval by factor for each attempt, up to max.
//
// Backoff returned from Exponential has state. Use a new one for each Until.
func Exponential(initial time.Duration, factor float64, max time.Duration) Backoff {
	interval := initial
	return func(ctx context.Context) error {
		timer := time.NewTimer(interval)
		defer timer.Stop()

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}

		next := time.Duration(float64(interval) * factor)
		if max < next {
			next = max
		}
		interval = next
		return nil
	}
}

// Until calls f until it returns nil or an error not wrapping ErrRetry.
//
// The first call is made immediately; later calls wait for b.
//
// # Returns
//
// - T: the last value returned by f.
//
// - error: the last error returned by f. When ctx is done while waiting,
// it is ctx.Err() joined with the last error of f.
func Until[T any](ctx context.Context, b Backoff, f func(context.Context) (T, error)) (T, error) {
	for {
		last, err := f(ctx)
		if err == nil || !errors.Is(err, ErrRetry) {
			return last, err
		}
		if berr := b(ctx); berr != nil {
			return last, errors.Join(berr, err)
		}
	}
}
