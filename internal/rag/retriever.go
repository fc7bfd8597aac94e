package rag

import (
	"strings"
	"sync"

	apperrors "github.com/shanle1117/workshop2-sub001/internal/errors"
	"github.com/shanle1117/workshop2-sub001/internal/knowledge"
	"github.com/shanle1117/workshop2-sub001/internal/logger"
	"github.com/shanle1117/workshop2-sub001/internal/metrics"
	"github.com/shanle1117/workshop2-sub001/internal/textutil"
)

// ClarificationMessage is returned when neither keyword scoring nor the
// vector fallback finds an entry.
const ClarificationMessage = "I couldn't find the exact information. Try asking about course info, registration, or staff contacts."

// MatchKind describes which layer produced a retrieval result.
type MatchKind string

const (
	MatchKeyword MatchKind = "keyword"
	MatchVector  MatchKind = "vector"
	MatchNone    MatchKind = "not_found"
)

// Retriever answers category-scoped questions over the FAQ dataset.
//
// Retrieval is two-stage: keyword overlap within the requested category
// first, then a TF-IDF cosine fallback over the whole dataset. The fallback
// is deliberately global: a question routed to the wrong category can still
// land on the right answer.
type Retriever struct {
	mu      sync.RWMutex
	entries []knowledge.Entry
	index   *SimilarityIndex
	logger  *logger.Logger
	metrics *metrics.Metrics
}

// NewRetriever builds a Retriever over the given entries.
func NewRetriever(log *logger.Logger, m *metrics.Metrics, entries []knowledge.Entry) (*Retriever, error) {
	r := &Retriever{
		index:   NewSimilarityIndex(log),
		logger:  log.WithModule("rag"),
		metrics: m,
	}
	if err := r.Reload(entries); err != nil {
		return nil, err
	}
	return r, nil
}

// Reload replaces the dataset and rebuilds the vector index. On error the
// previous dataset stays active.
func (r *Retriever) Reload(entries []knowledge.Entry) error {
	if len(entries) == 0 {
		return apperrors.NewValidationError("entries", "dataset cannot be empty")
	}

	next := NewSimilarityIndex(r.logger)
	if err := next.Initialize(entries); err != nil {
		return err
	}

	r.mu.Lock()
	r.entries = entries
	r.index = next
	r.mu.Unlock()

	r.logger.WithField("entries", len(entries)).Info("Retriever dataset reloaded")
	return nil
}

// Count returns the number of loaded entries.
func (r *Retriever) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

// Retrieve finds the best entry for a message within a category.
//
// An empty category, or a category no entry belongs to, is a miss outright:
// the fallback is only reachable from a populated category whose keyword
// score came up zero. Stage one scores each entry in the category by how
// many of the user's tokens appear in its keyword list; the highest count
// wins, with ties going to the earliest entry. Stage two, when no keyword
// matched at all, takes the most cosine-similar entry across the entire
// dataset. Returns ErrNoAnswer when both stages come up empty.
func (r *Retriever) Retrieve(category, message string) (knowledge.Entry, MatchKind, error) {
	r.mu.RLock()
	entries := r.entries
	index := r.index
	r.mu.RUnlock()

	if strings.TrimSpace(category) == "" || len(entries) == 0 {
		r.metrics.RecordRetrieval(string(MatchNone))
		return knowledge.Entry{}, MatchNone, apperrors.ErrNoAnswer
	}

	tokens := textutil.Tokenize(message)

	candidates := 0
	bestIdx := -1
	bestScore := 0
	for i, e := range entries {
		if !strings.EqualFold(e.Category, category) {
			continue
		}
		candidates++
		score := keywordScore(tokens, e.Keywords)
		if score > bestScore {
			bestIdx, bestScore = i, score
		}
	}
	if candidates == 0 {
		r.metrics.RecordRetrieval(string(MatchNone))
		return knowledge.Entry{}, MatchNone, apperrors.ErrNoAnswer
	}
	if bestScore > 0 {
		r.metrics.RecordRetrieval(string(MatchKeyword))
		return entries[bestIdx], MatchKeyword, nil
	}

	if i, sim, ok := index.Best(message); ok {
		r.metrics.RecordRetrieval(string(MatchVector))
		r.logger.WithFields(map[string]any{
			"category":   category,
			"similarity": sim,
		}).Debug("Vector fallback match")
		return entries[i], MatchVector, nil
	}

	r.metrics.RecordRetrieval(string(MatchNone))
	return knowledge.Entry{}, MatchNone, apperrors.ErrNoAnswer
}

// GetAnswer returns the answer text for the best match, or the clarification
// message when nothing matches.
func (r *Retriever) GetAnswer(category, message string) string {
	entry, _, err := r.Retrieve(category, message)
	if err != nil {
		return ClarificationMessage
	}
	return entry.Answer
}

// Entries returns a snapshot of the loaded dataset, for building LLM context.
func (r *Retriever) Entries() []knowledge.Entry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.entries
}

// Similarities returns the per-entry cosine similarity for the message,
// aligned with the Entries snapshot. Used for hybrid rank fusion.
func (r *Retriever) Similarities(message string) []float64 {
	r.mu.RLock()
	index := r.index
	r.mu.RUnlock()
	return index.Similarities(message)
}

// keywordScore counts how many user tokens appear in the entry's keyword
// list. Exact token membership, not substring: the keywords were normalized
// at load time with the same rules as the tokens.
func keywordScore(tokens, keywords []string) int {
	if len(tokens) == 0 || len(keywords) == 0 {
		return 0
	}
	kwSet := make(map[string]bool, len(keywords))
	for _, kw := range keywords {
		kwSet[kw] = true
	}
	score := 0
	for _, tok := range tokens {
		if kwSet[tok] {
			score++
		}
	}
	return score
}
