package utils

import (
	"context"
	"errors"
	"math/rand"
	"time"
)

// ErrPermanent marks an error that should stop retrying immediately.
var ErrPermanent = errors.New("permanent failure")

type Backoff struct {
	base       time.Duration
	maxRetries int
	jitter     time.Duration
	sleep      func(context.Context, time.Duration) error
}

func NewBackoff(base time.Duration, maxRetries int) Backoff {
	return Backoff{base: base, maxRetries: maxRetries, jitter: base, sleep: sleepCtx}
}

// WithoutDelay returns a copy that never waits between attempts.
func (b Backoff) WithoutDelay() Backoff {
	b.sleep = func(ctx context.Context, _ time.Duration) error { return ctx.Err() }
	return b
}

// Do calls fn until it succeeds, returns an error wrapping ErrPermanent, the
// retries run out or ctx is done. It returns the last error seen.
func (b Backoff) Do(ctx context.Context, fn func(i int) error) error {
	sleep := b.sleep
	if sleep == nil {
		sleep = sleepCtx
	}
	var err error
	for i := 0; i <= b.maxRetries; i++ {
		err = fn(i)
		if err == nil || errors.Is(err, ErrPermanent) || i == b.maxRetries {
			return err
		}
		// exponential + jitter
		t := time.Duration(1<<i) * b.base
		if b.jitter > 0 {
			t += time.Duration(rand.Int63n(int64(b.jitter)))
		}
		if serr := sleep(ctx, t); serr != nil {
			return err
		}
	}
	return err
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
