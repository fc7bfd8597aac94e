// Package genai provides integration with LLM APIs (Gemini and Groq).
// This file contains the unified OpenAI-compatible implementation of answer
// generation. It works with any OpenAI-compatible provider via custom BaseURL.
package genai

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

// openaiResponder generates grounded answers with an OpenAI-compatible API.
// It implements the Responder interface.
type openaiResponder struct {
	client   openai.Client
	model    string
	provider Provider
}

// newOpenAIResponder creates a new OpenAI-compatible responder.
// Returns nil if apiKey is empty (generation disabled).
func newOpenAIResponder(_ context.Context, provider Provider, apiKey, model string) (*openaiResponder, error) {
	if apiKey == "" {
		return nil, nil //nolint:nilnil // Intentional: feature disabled when no API key
	}

	baseURL, ok := ProviderEndpoint[provider]
	if !ok {
		return nil, fmt.Errorf("unsupported OpenAI-compatible provider: %s", provider)
	}

	if model == "" {
		switch provider {
		case ProviderGroq:
			model = DefaultGroqModel
		default:
			return nil, fmt.Errorf("no default model for provider: %s", provider)
		}
	}

	client := openai.NewClient(
		option.WithBaseURL(baseURL),
		option.WithAPIKey(apiKey),
	)

	return &openaiResponder{
		client:   client,
		model:    model,
		provider: provider,
	}, nil
}

// Respond generates an answer for the prompt.
func (r *openaiResponder) Respond(ctx context.Context, prompt string) (string, error) {
	if r == nil {
		return "", WrapError(fmt.Errorf("openai responder not initialized"), "", 0)
	}

	params := openai.ChatCompletionNewParams{
		Model: r.model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(AnswerSystemPrompt),
			openai.UserMessage(prompt),
		},
		Temperature: openai.Float(answerTemperature),
		MaxTokens:   openai.Int(maxOutputTokens),
	}

	start := time.Now()
	resp, err := r.client.Chat.Completions.New(ctx, params)
	duration := time.Since(start)

	if err != nil {
		slog.WarnContext(ctx, "answer generation API call failed",
			"provider", r.provider,
			"model", r.model,
			"prompt_length", len(prompt),
			"duration_ms", duration.Milliseconds(),
			"error", err)
		return "", fmt.Errorf("chat completion failed: %w", err)
	}

	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return "", fmt.Errorf("empty response from %s", r.provider)
	}

	result := strings.TrimSpace(resp.Choices[0].Message.Content)
	if result == "" {
		return "", fmt.Errorf("empty response from %s", r.provider)
	}

	if resp.Usage.TotalTokens > 0 {
		slog.DebugContext(ctx, "answer generation completed",
			"provider", r.provider,
			"model", r.model,
			"input_tokens", resp.Usage.PromptTokens,
			"output_tokens", resp.Usage.CompletionTokens,
			"total_tokens", resp.Usage.TotalTokens,
			"duration_ms", duration.Milliseconds())
	}

	return result, nil
}

// IsEnabled returns true if the responder is properly initialized.
func (r *openaiResponder) IsEnabled() bool {
	return r != nil
}

// Provider returns the provider type for this responder.
func (r *openaiResponder) Provider() Provider {
	if r == nil {
		return ""
	}
	return r.provider
}

// Close releases resources.
// Safe to call on nil receiver.
func (r *openaiResponder) Close() error {
	return nil
}
