// Package bot orchestrates a chat turn: intent classification, retrieval,
// conversational state, and the optional LLM responder, in that order.
package bot

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shanle1117/workshop2-sub001/internal/conversation"
	"github.com/shanle1117/workshop2-sub001/internal/directory"
	"github.com/shanle1117/workshop2-sub001/internal/genai"
	"github.com/shanle1117/workshop2-sub001/internal/intent"
	"github.com/shanle1117/workshop2-sub001/internal/logger"
	"github.com/shanle1117/workshop2-sub001/internal/metrics"
	"github.com/shanle1117/workshop2-sub001/internal/rag"
	"github.com/shanle1117/workshop2-sub001/internal/sentry"
)

// errorResponse is the reply when a turn fails unexpectedly. The session
// context is left as it was before the turn.
const errorResponse = "Sorry, something went wrong on my side. Please try that again."

// Turn outcome labels for metrics.
const (
	outcomeAnswered      = "answered"
	outcomeConversation  = "conversation"
	outcomeLLM           = "llm"
	outcomeClarification = "clarification"
	outcomeError         = "error"
)

// Limits for the hybrid context handed to the LLM responder.
const (
	llmCandidateDepth = 10
	llmContextSize    = 5
)

// Responder generates a grounded answer from a prompt. Satisfied by
// genai.FallbackResponder.
type Responder interface {
	Respond(ctx context.Context, prompt string) (string, error)
	IsEnabled() bool
}

// Pipeline wires the chat components together. All fields are injected;
// directory, contextIndex and responder are optional.
type Pipeline struct {
	matcher      *intent.Matcher
	retriever    *rag.Retriever
	manager      *conversation.Manager
	directory    *directory.Directory
	contextIndex *rag.ContextIndex
	responder    Responder
	logger       *logger.Logger
	metrics      *metrics.Metrics
}

// Options configures optional pipeline components.
type Options struct {
	Directory    *directory.Directory
	ContextIndex *rag.ContextIndex
	Responder    Responder
}

// NewPipeline creates a Pipeline from its required components and options.
func NewPipeline(log *logger.Logger, m *metrics.Metrics, matcher *intent.Matcher, retriever *rag.Retriever, manager *conversation.Manager, opts Options) *Pipeline {
	return &Pipeline{
		matcher:      matcher,
		retriever:    retriever,
		manager:      manager,
		directory:    opts.Directory,
		contextIndex: opts.ContextIndex,
		responder:    opts.Responder,
		logger:       log.WithModule("bot"),
		metrics:      m,
	}
}

// Result is the outcome of one chat turn.
type Result struct {
	Response string
	// Context is the updated session context to persist.
	Context map[string]any
	// Closed reports whether this turn ended the session.
	Closed bool
}

// Process runs one chat turn against the prior session context and returns
// the response plus the context to persist. It never panics: a fault inside
// a turn degrades to a generic apology and keeps the prior context.
func (p *Pipeline) Process(ctx context.Context, message string, prior map[string]any) (result Result) {
	start := time.Now()
	outcome := outcomeError

	defer func() {
		if r := recover(); r != nil {
			err := fmt.Errorf("chat turn panic: %v", r)
			p.logger.WithError(err).Error("Recovered from panic in chat turn")
			sentry.CaptureExceptionWithContext(ctx, err)
			result = Result{Response: errorResponse, Context: prior}
			outcome = outcomeError
		}
		p.metrics.RecordChat(outcome, time.Since(start).Seconds())
	}()

	convCtx := conversation.FromMap(prior)

	// A message on a closed session starts a fresh conversation.
	if !convCtx.SessionActive && strings.TrimSpace(message) != "" {
		convCtx = conversation.NewContext()
	}

	// Farewells, greetings and empty turns never reach retrieval: "thanks for
	// the course info" closes the session and "hi, what courses are there"
	// greets, even though both also match an intent.
	if strings.TrimSpace(message) == "" || intent.IsClosing(message) || conversation.IsGreeting(message) {
		response := p.manager.Process(convCtx, message)
		outcome = outcomeConversation
		return Result{
			Response: response,
			Context:  convCtx.ToMap(),
			Closed:   strings.HasPrefix(response, conversation.ClosingMarker),
		}
	}

	match := p.matcher.Match(message)
	p.metrics.RecordIntent(match.Intent.Name())
	p.logger.WithFields(map[string]any{
		"intent":     match.Intent.Name(),
		"confidence": match.Confidence,
	}).Debug("Intent classified")

	// Low-confidence turns go to the conversation layer, which handles
	// greetings, follow-ups on the standing topic, and the generic fallback.
	if match.Intent == intent.General {
		response := p.manager.Process(convCtx, message)
		outcome = outcomeConversation
		return Result{
			Response: response,
			Context:  convCtx.ToMap(),
			Closed:   strings.HasPrefix(response, conversation.ClosingMarker),
		}
	}

	category := match.Intent.Name()

	// Staff questions go to the live directory first; its roster is fresher
	// than the static dataset.
	if category == directory.StaffCategory && p.directory != nil {
		if answer, ok := p.directory.Answer(message); ok {
			p.manager.Observe(convCtx, message, answer, category)
			outcome = outcomeAnswered
			return Result{Response: answer, Context: convCtx.ToMap()}
		}
	}

	entry, kind, err := p.retriever.Retrieve(category, message)
	if err == nil {
		p.manager.Observe(convCtx, message, entry.Answer, category)
		p.logger.WithFields(map[string]any{
			"category": category,
			"kind":     string(kind),
		}).Debug("Dataset answer")
		outcome = outcomeAnswered
		return Result{Response: entry.Answer, Context: convCtx.ToMap()}
	}

	// Retrieval found nothing at all. Let the LLM compose a grounded reply
	// from the nearest entries before giving up.
	if answer, ok := p.respondWithLLM(ctx, message, convCtx); ok {
		p.manager.Observe(convCtx, message, answer, category)
		outcome = outcomeLLM
		return Result{Response: answer, Context: convCtx.ToMap()}
	}

	p.manager.Observe(convCtx, message, rag.ClarificationMessage, "")
	outcome = outcomeClarification
	return Result{Response: rag.ClarificationMessage, Context: convCtx.ToMap()}
}

// respondWithLLM builds a hybrid BM25 + TF-IDF context and asks the
// responder for an answer. Returns false when the responder is disabled,
// fails, or there is no context worth grounding on.
func (p *Pipeline) respondWithLLM(ctx context.Context, message string, convCtx *conversation.Context) (string, bool) {
	if p.responder == nil || !p.responder.IsEnabled() {
		return "", false
	}

	var bm25Results []rag.BM25Result
	if p.contextIndex != nil {
		results, err := p.contextIndex.Search(message, llmCandidateDepth)
		if err != nil {
			p.logger.WithError(err).Warn("BM25 context search failed")
		} else {
			bm25Results = results
		}
	}

	vectorResults := rag.TopVector(p.retriever.Similarities(message), llmCandidateDepth)
	hybrid := rag.FuseRRFWithDefaults(bm25Results, vectorResults, llmContextSize)
	if len(hybrid) == 0 {
		return "", false
	}

	entries := p.retriever.Entries()
	snippets := make([]genai.ContextSnippet, 0, len(hybrid))
	for _, h := range hybrid {
		question, answer := h.Question, h.Answer
		if question == "" && h.Index >= 0 && h.Index < len(entries) {
			// Vector-only hits carry just the index.
			question = entries[h.Index].Question
			answer = entries[h.Index].Answer
		}
		if answer == "" {
			continue
		}
		snippets = append(snippets, genai.ContextSnippet{Question: question, Answer: answer})
	}
	if len(snippets) == 0 {
		return "", false
	}

	prompt := genai.AnswerPrompt(message, snippets, convCtx.History)
	answer, err := p.responder.Respond(ctx, prompt)
	if err != nil {
		p.logger.WithError(err).Warn("LLM responder failed, falling back to clarification")
		return "", false
	}
	return answer, true
}
