// Package genai provides integration with LLM APIs (Gemini and Groq).
// This file contains the fallback wrapper for cross-provider failover.
package genai

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/shanle1117/workshop2-sub001/internal/metrics"
)

// FallbackResponder wraps a primary and fallback Responder.
// It implements three-layer fallback:
//  1. Model retry with backoff (same provider)
//  2. Provider fallback (primary → fallback provider)
//  3. Graceful degradation (caller falls back to the clarification reply)
type FallbackResponder struct {
	primary     Responder
	fallback    Responder
	retryConfig RetryConfig
	metrics     *metrics.Metrics
}

// NewFallbackResponder creates a new fallback-enabled responder.
// If fallback is nil, only retry logic is applied to the primary provider.
func NewFallbackResponder(primary, fallback Responder, cfg RetryConfig, m *metrics.Metrics) *FallbackResponder {
	return &FallbackResponder{
		primary:     primary,
		fallback:    fallback,
		retryConfig: cfg,
		metrics:     m,
	}
}

// Respond tries the primary responder first with retry, then falls back if
// needed.
func (f *FallbackResponder) Respond(ctx context.Context, prompt string) (string, error) {
	if f == nil || f.primary == nil {
		return "", errors.New("responder not configured")
	}

	start := time.Now()
	provider := f.primary.Provider()

	result, err := f.respondWithRetry(ctx, f.primary, prompt)
	if err == nil {
		f.metrics.RecordLLMFallback(provider.String(), "success")
		return result, nil
	}

	action := ClassifyError(err)
	slog.WarnContext(ctx, "primary responder failed",
		"provider", provider,
		"error", err,
		"action", action,
		"duration", time.Since(start))

	if action == ActionFail || f.fallback == nil {
		f.metrics.RecordLLMFallback(provider.String(), classifyErrorType(err))
		return "", err
	}

	slog.InfoContext(ctx, "falling back to secondary provider",
		"from", provider,
		"to", f.fallback.Provider())

	fallbackProvider := f.fallback.Provider()

	result, err = f.respondWithRetry(ctx, f.fallback, prompt)
	if err == nil {
		f.metrics.RecordLLMFallback(fallbackProvider.String(), "success")
		return result, nil
	}

	f.metrics.RecordLLMFallback(fallbackProvider.String(), classifyErrorType(err))
	slog.ErrorContext(ctx, "all responders failed",
		"primary", provider,
		"fallback", fallbackProvider,
		"error", err)

	return "", fmt.Errorf("all providers failed: %w", err)
}

// respondWithRetry attempts generation with retry logic.
func (f *FallbackResponder) respondWithRetry(ctx context.Context, responder Responder, prompt string) (string, error) {
	var lastErr error

	for attempt := range f.retryConfig.MaxAttempts {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}

		result, err := responder.Respond(ctx, prompt)
		if err == nil {
			return result, nil
		}

		lastErr = err
		action := ClassifyError(err)

		if action != ActionRetry {
			return "", err
		}

		if attempt == f.retryConfig.MaxAttempts-1 {
			break
		}

		backoff := CalculateBackoff(attempt+1, f.retryConfig.InitialDelay, f.retryConfig.MaxDelay)

		if !HasSufficientBudget(ctx, backoff) {
			return "", fmt.Errorf("timeout during retry: %w", lastErr)
		}

		slog.DebugContext(ctx, "retrying answer generation",
			"provider", responder.Provider(),
			"attempt", attempt+1,
			"backoff", backoff,
			"error", err)

		if err := Sleep(ctx, backoff); err != nil {
			return "", err
		}
	}

	return "", lastErr
}

// IsEnabled returns true if at least one responder is enabled.
func (f *FallbackResponder) IsEnabled() bool {
	if f == nil {
		return false
	}
	return (f.primary != nil && f.primary.IsEnabled()) ||
		(f.fallback != nil && f.fallback.IsEnabled())
}

// Provider returns the primary provider type.
func (f *FallbackResponder) Provider() Provider {
	if f == nil || f.primary == nil {
		return ""
	}
	return f.primary.Provider()
}

// Close closes both responders.
func (f *FallbackResponder) Close() error {
	if f == nil {
		return nil
	}

	var errs []error
	if f.primary != nil {
		if err := f.primary.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if f.fallback != nil {
		if err := f.fallback.Close(); err != nil {
			errs = append(errs, err)
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}

// classifyErrorType maps error to a metric status label.
func classifyErrorType(err error) string {
	if err == nil {
		return "success"
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return "timeout"
	}
	if errors.Is(err, context.Canceled) {
		return "canceled"
	}

	var llmErr *LLMError
	if errors.As(err, &llmErr) {
		switch {
		case llmErr.StatusCode == http.StatusTooManyRequests:
			return "rate_limit"
		case llmErr.StatusCode >= 500:
			return "server_error"
		case llmErr.StatusCode == http.StatusUnauthorized || llmErr.StatusCode == http.StatusForbidden:
			return "auth_error"
		case llmErr.StatusCode == http.StatusBadRequest:
			return "invalid_request"
		}
	}

	switch ClassifyError(err) {
	case ActionFallback:
		return "quota_exhausted"
	case ActionRetry:
		return "transient_error"
	default:
		return "error"
	}
}
