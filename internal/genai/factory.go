// Package genai provides integration with LLM APIs (Gemini and Groq).
// This file contains factory functions for creating responders.
package genai

import (
	"context"
	"log/slog"

	"github.com/shanle1117/workshop2-sub001/internal/metrics"
)

// Options holds configuration for responder creation. API keys left empty
// disable the corresponding provider.
type Options struct {
	GeminiAPIKey string
	GeminiModel  string

	GroqAPIKey string
	GroqModel  string

	PrimaryProvider  Provider
	FallbackProvider Provider

	Retry RetryConfig
}

// CreateResponder creates a Responder based on the provided configuration.
// It returns a FallbackResponder handling provider-to-provider fallback, or
// nil when no provider is configured (generation disabled).
func CreateResponder(ctx context.Context, opts Options, m *metrics.Metrics) (*FallbackResponder, error) {
	if opts.PrimaryProvider == "" {
		opts.PrimaryProvider = ProviderGemini
	}
	if opts.FallbackProvider == "" {
		opts.FallbackProvider = ProviderGroq
	}
	if opts.Retry.MaxAttempts == 0 {
		opts.Retry = DefaultRetryConfig()
	}

	build := func(provider Provider) Responder {
		switch provider {
		case ProviderGemini:
			if opts.GeminiAPIKey == "" {
				return nil
			}
			r, err := newGeminiResponder(ctx, opts.GeminiAPIKey, opts.GeminiModel)
			if err != nil {
				slog.WarnContext(ctx, "failed to create gemini responder", "error", err)
				return nil
			}
			return r
		case ProviderGroq:
			if opts.GroqAPIKey == "" {
				return nil
			}
			r, err := newOpenAIResponder(ctx, ProviderGroq, opts.GroqAPIKey, opts.GroqModel)
			if err != nil {
				slog.WarnContext(ctx, "failed to create groq responder", "error", err)
				return nil
			}
			return r
		default:
			slog.WarnContext(ctx, "unknown LLM provider", "provider", provider)
			return nil
		}
	}

	primary := build(opts.PrimaryProvider)
	var fallback Responder
	if opts.FallbackProvider != opts.PrimaryProvider {
		fallback = build(opts.FallbackProvider)
	}

	// Promote the fallback when the primary provider is unconfigured.
	if primary == nil {
		primary = fallback
		fallback = nil
	}

	if primary == nil {
		slog.InfoContext(ctx, "no LLM provider configured, answer generation disabled")
		return nil, nil //nolint:nilnil // Intentional: feature disabled
	}

	slog.InfoContext(ctx, "answer generation configured",
		"primary", primary.Provider(),
		"hasFallback", fallback != nil)

	return NewFallbackResponder(primary, fallback, opts.Retry, m), nil
}
