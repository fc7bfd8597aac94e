package scraper

import (
	"context"
	"crypto/rand"
	"errors"
	"math/big"
	"time"
)

// permanentError marks an error that retrying cannot fix, like a 404.
type permanentError struct{ err error }

func (e *permanentError) Error() string { return e.err.Error() }
func (e *permanentError) Unwrap() error { return e.err }

// Permanent wraps err so RetryWithBackoff gives up on it immediately.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

// RetryWithBackoff runs fn up to maxRetries+1 times. The delay doubles after
// every failed attempt, starting from initialDelay, with ±25% jitter so
// concurrent scrapes of the same host spread out. A permanent error or a
// canceled context stops the loop at once.
func RetryWithBackoff(ctx context.Context, maxRetries int, initialDelay time.Duration, fn func() error) error {
	delay := initialDelay

	for attempt := 0; ; attempt++ {
		err := fn()
		if err == nil {
			return nil
		}

		var perm *permanentError
		if errors.As(err, &perm) {
			return perm.Unwrap()
		}
		if attempt == maxRetries {
			return err
		}

		if werr := waitJittered(ctx, delay); werr != nil {
			return werr
		}
		delay *= 2
	}
}

// waitJittered sleeps for base scaled into [0.75·base, 1.25·base).
func waitJittered(ctx context.Context, base time.Duration) error {
	span := int64(base) / 2
	if span < 1 {
		span = 1
	}
	offset := int64(0)
	if n, err := rand.Int(rand.Reader, big.NewInt(span)); err == nil {
		offset = n.Int64()
	}
	wait := base - base/4 + time.Duration(offset)

	select {
	case <-time.After(wait):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
