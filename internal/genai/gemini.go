// Package genai provides integration with LLM APIs (Gemini and Groq).
// This file contains the Gemini implementation of answer generation.
package genai

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"google.golang.org/genai"
)

// geminiResponder generates grounded answers with the Gemini API.
// It implements the Responder interface.
type geminiResponder struct {
	client *genai.Client
	model  string
}

// newGeminiResponder creates a new Gemini-based responder.
// Returns nil if apiKey is empty (generation disabled).
func newGeminiResponder(ctx context.Context, apiKey, model string) (*geminiResponder, error) {
	if apiKey == "" {
		return nil, nil //nolint:nilnil // Intentional: feature disabled when no API key
	}

	if model == "" {
		model = DefaultGeminiModel
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey: apiKey,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}

	return &geminiResponder{
		client: client,
		model:  model,
	}, nil
}

// Respond generates an answer for the prompt.
func (r *geminiResponder) Respond(ctx context.Context, prompt string) (string, error) {
	if r == nil || r.client == nil {
		return "", WrapError(fmt.Errorf("gemini responder not initialized"), ProviderGemini, 0)
	}

	config := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(AnswerSystemPrompt, genai.RoleUser),
		Temperature:       genai.Ptr[float32](answerTemperature),
		MaxOutputTokens:   maxOutputTokens,
	}

	start := time.Now()
	resp, err := r.client.Models.GenerateContent(ctx, r.model, genai.Text(prompt), config)
	duration := time.Since(start)

	if err != nil {
		slog.WarnContext(ctx, "answer generation API call failed",
			"provider", "gemini",
			"model", r.model,
			"prompt_length", len(prompt),
			"duration_ms", duration.Milliseconds(),
			"error", err)
		return "", fmt.Errorf("generate content failed: %w", err)
	}

	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", fmt.Errorf("empty response from gemini")
	}

	var answer strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if part.Text != "" {
			answer.WriteString(part.Text)
		}
	}

	result := strings.TrimSpace(answer.String())
	if result == "" {
		return "", fmt.Errorf("empty response from gemini")
	}

	if resp.UsageMetadata != nil {
		slog.DebugContext(ctx, "answer generation completed",
			"provider", "gemini",
			"model", r.model,
			"input_tokens", resp.UsageMetadata.PromptTokenCount,
			"output_tokens", resp.UsageMetadata.CandidatesTokenCount,
			"total_tokens", resp.UsageMetadata.TotalTokenCount,
			"duration_ms", duration.Milliseconds())
	}

	return result, nil
}

// IsEnabled returns true if the responder is properly initialized.
func (r *geminiResponder) IsEnabled() bool {
	return r != nil && r.client != nil
}

// Provider returns the provider type for this responder.
func (r *geminiResponder) Provider() Provider {
	return ProviderGemini
}

// Close releases resources.
// Safe to call on nil receiver.
func (r *geminiResponder) Close() error {
	if r == nil {
		return nil
	}
	// genai.Client does not require explicit cleanup in current SDK version
	return nil
}
