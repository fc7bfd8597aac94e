// Package genai provides integration with LLM APIs (Gemini and Groq).
// The chatbot answers from the local knowledge base; when a question falls
// through retrieval, a configured LLM can compose a grounded reply from the
// nearest dataset entries and the conversation history.
//
// Architecture:
//   - Gemini: google.golang.org/genai (official SDK)
//   - Groq: github.com/openai/openai-go/v3 (OpenAI-compatible API)
package genai

import (
	"context"
	"time"
)

// Provider represents an LLM provider.
type Provider string

const (
	// ProviderGemini represents Google's Gemini API (non-OpenAI-compatible).
	ProviderGemini Provider = "gemini"
	// ProviderGroq represents Groq's API (OpenAI-compatible, fast inference).
	ProviderGroq Provider = "groq"
)

// ProviderEndpoint defines the base URL for OpenAI-compatible providers.
// Gemini is not included as it uses a different SDK.
var ProviderEndpoint = map[Provider]string{
	ProviderGroq: "https://api.groq.com/openai/v1/",
}

// IsOpenAICompatible returns true if the provider uses OpenAI-compatible API.
func (p Provider) IsOpenAICompatible() bool {
	_, ok := ProviderEndpoint[p]
	return ok
}

// String returns the string representation of the provider.
func (p Provider) String() string {
	return string(p)
}

// Responder generates a conversational answer from a prompt.
// Implementations include Gemini (native SDK) and OpenAI-compatible
// providers (Groq).
type Responder interface {
	// Respond generates an answer for the prompt.
	Respond(ctx context.Context, prompt string) (string, error)
	// IsEnabled returns true if the responder is properly initialized.
	IsEnabled() bool
	// Provider returns the provider type for metrics.
	Provider() Provider
	// Close releases any resources held by the responder.
	Close() error
}

// RetryConfig defines retry behavior for LLM API calls.
// Uses AWS-recommended Full Jitter exponential backoff.
type RetryConfig struct {
	// MaxAttempts is the maximum number of attempts (including initial).
	MaxAttempts int

	// InitialDelay is the base delay before first retry.
	InitialDelay time.Duration

	// MaxDelay is the maximum delay between retries.
	MaxDelay time.Duration
}

// Default model configurations.
const (
	// DefaultGeminiModel offers fast inference with good answer quality.
	DefaultGeminiModel = "gemini-2.5-flash"

	// DefaultGroqModel is a production-grade model with strong accuracy.
	DefaultGroqModel = "llama-3.3-70b-versatile"
)

// Retry configuration defaults.
const (
	DefaultMaxRetryAttempts  = 2
	DefaultInitialRetryDelay = 500 * time.Millisecond
	DefaultMaxRetryDelay     = 3 * time.Second
)

// DefaultRetryConfig returns the standard retry configuration.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:  DefaultMaxRetryAttempts,
		InitialDelay: DefaultInitialRetryDelay,
		MaxDelay:     DefaultMaxRetryDelay,
	}
}

// Answer generation limits.
const (
	maxOutputTokens = 300
	// Low temperature keeps answers close to the supplied context.
	answerTemperature = 0.3
)
