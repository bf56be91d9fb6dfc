// Package retrier repeats operations that may fail transiently, such as
// dialing a broker or writing to a cache.
package retrier

import (
	"context"
	"time"
)

// Opts contains configuration options for retry operations.
type Opts struct {
	Count    uint          // Total number of attempts, values below 1 mean one attempt
	Interval time.Duration // Delay between attempts
}

func (o Opts) attempts() uint {
	if o.Count == 0 {
		return 1
	}
	return o.Count
}

// Connect attempts to establish a connection with retry logic.
//
// The connector is called up to opts.Count times, waiting opts.Interval
// between failed attempts. The wait is cut short when ctx is done, in which
// case the context error is returned.
//
// Example Usage:
//
//	conn, err := retrier.Connect(ctx, retrier.Opts{Count: 5, Interval: 2 * time.Second}, func() (*amqp.Connection, error) {
//	    return amqp.Dial(url)
//	})
func Connect[T any](ctx context.Context, opts Opts, connector func() (T, error)) (T, error) {
	var (
		out T
		err error
	)

	attempts := opts.attempts()
	for i := range attempts {
		out, err = connector()
		if err == nil {
			return out, nil
		}

		// No wait after the final attempt
		if i+1 == attempts {
			break
		}

		timer := time.NewTimer(opts.Interval)
		select {
		case <-ctx.Done():
			timer.Stop()
			var zero T
			return zero, ctx.Err()
		case <-timer.C:
		}
	}

	return out, err
}

// Do runs fn with the same policy as Connect for operations without a result
func Do(ctx context.Context, opts Opts, fn func() error) error {
	_, err := Connect(ctx, opts, func() (struct{}, error) {
		return struct{}{}, fn()
	})
	return err
}
