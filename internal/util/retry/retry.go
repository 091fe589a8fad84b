package retry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
)

const (
	// DefaultInterval is the wait between attempts when Policy.Interval is unset.
	DefaultInterval = 1 * time.Second
	// DefaultMaxAttempts bounds the loop to roughly ten minutes at DefaultInterval.
	DefaultMaxAttempts = 600
)

// ErrExhausted is returned (wrapped) when the attempt or deadline bound is hit
// while the operation is still being rejected.
var ErrExhausted = errors.New("retry budget exhausted")

// Classifier reports whether an error should be retried.
type Classifier func(error) bool

// Policy holds retry configuration.
type Policy struct {
	// Interval is the fixed delay between attempts.
	Interval time.Duration
	// MaxAttempts caps the total number of calls. Zero means unbounded.
	MaxAttempts int
	// Deadline caps the total time spent retrying. Zero means no deadline.
	// The context passed to each attempt carries this deadline.
	Deadline time.Duration
	// Timer performs the waits. Nil uses a real timer.
	Timer backoff.Timer
	// OnRetry, if set, is called before each wait with the rejected error.
	OnRetry func(err error, wait time.Duration)
}

// Default returns the bounded policy used when nothing is configured.
func Default() Policy {
	return Policy{
		Interval:    DefaultInterval,
		MaxAttempts: DefaultMaxAttempts,
	}
}

// WithNotify returns a copy of p that calls fn before each wait.
func (p Policy) WithNotify(fn func(err error, wait time.Duration)) Policy {
	p.OnRetry = fn
	return p
}

// Do calls operation until it succeeds, fails with an error that retryable
// does not accept, or the policy's bounds are reached.
//
// Each attempt receives ctx bounded by the policy's Deadline.
// A successful result is returned exactly once. Non-retryable errors are
// returned unchanged. Exhaustion wraps ErrExhausted together with the last
// rejection.
func (p Policy) Do(ctx context.Context, operation func(context.Context) error, retryable Classifier) error {
	parent := ctx
	if p.Deadline > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.Deadline)
		defer cancel()
	}

	interval := p.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}

	var b backoff.BackOff = backoff.NewConstantBackOff(interval)
	if p.MaxAttempts > 0 {
		b = backoff.WithMaxRetries(b, uint64(p.MaxAttempts-1))
	}

	attempts := 0
	var lastRejection error

	err := backoff.RetryNotifyWithTimer(func() error {
		attempts++
		err := operation(ctx)
		if err == nil {
			return nil
		}
		if retryable(err) {
			lastRejection = err
			return err
		}
		return backoff.Permanent(err)
	}, backoff.WithContext(b, ctx), p.notify(), p.Timer)

	switch {
	case err == nil:
		return nil
	case lastRejection != nil && errors.Is(err, lastRejection):
		return fmt.Errorf("%w after %d attempts: %w", ErrExhausted, attempts, err)
	case lastRejection != nil && p.Deadline > 0 && parent.Err() == nil && errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("%w: deadline %v reached after %d attempts: %w", ErrExhausted, p.Deadline, attempts, lastRejection)
	default:
		return err
	}
}

// Value is Do for operations that produce a result.
func Value[T any](ctx context.Context, p Policy, operation func(context.Context) (T, error), retryable Classifier) (T, error) {
	var result T
	err := p.Do(ctx, func(ctx context.Context) error {
		v, err := operation(ctx)
		if err != nil {
			return err
		}
		result = v
		return nil
	}, retryable)
	if err != nil {
		var zero T
		return zero, err
	}
	return result, nil
}

// Always is a Classifier that retries every error.
func Always(error) bool { return true }

// Sleep waits for d using timer (a real one when nil), returning early with
// the context's error if ctx ends first.
func Sleep(ctx context.Context, d time.Duration, timer backoff.Timer) error {
	if d <= 0 {
		return ctx.Err()
	}
	if timer == nil {
		timer = &realTimer{}
	}
	timer.Start(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C():
		return nil
	}
}

func (p Policy) notify() backoff.Notify {
	if p.OnRetry == nil {
		return nil
	}
	return p.OnRetry
}

// realTimer mirrors backoff's unexported default timer.
type realTimer struct {
	timer *time.Timer
}

func (t *realTimer) C() <-chan time.Time {
	return t.timer.C
}

func (t *realTimer) Start(d time.Duration) {
	if t.timer == nil {
		t.timer = time.NewTimer(d)
	} else {
		t.timer.Reset(d)
	}
}

func (t *realTimer) Stop() {
	if t.timer != nil {
		t.timer.Stop()
	}
}
