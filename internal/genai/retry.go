package genai

import (
	"context"
	"crypto/rand"
	"math/big"
	"time"
)

// CalculateBackoff returns the wait before retry number attempt, using full
// jitter: a uniform draw from [0, min(maxDelay, initial·2^(attempt-1))).
// Full jitter spreads concurrent retries instead of synchronizing them.
func CalculateBackoff(attempt int, initial, maxDelay time.Duration) time.Duration {
	if attempt < 1 || initial <= 0 {
		return 0
	}

	shift := attempt - 1
	if shift > 32 {
		shift = 32
	}
	ceiling := initial << uint(shift)
	if ceiling > maxDelay || ceiling <= 0 {
		ceiling = maxDelay
	}
	if ceiling <= 0 {
		return 0
	}

	n, err := rand.Int(rand.Reader, big.NewInt(int64(ceiling)))
	if err != nil {
		return ceiling / 2
	}
	return time.Duration(n.Int64())
}

// Sleep waits for d unless the context ends first.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	select {
	case <-time.After(d):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// HasSufficientBudget reports whether the context deadline leaves at least
// required time. Contexts without a deadline always have budget.
func HasSufficientBudget(ctx context.Context, required time.Duration) bool {
	deadline, ok := ctx.Deadline()
	if !ok {
		return true
	}
	return time.Until(deadline) >= required
}
