package rag

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/iwilltry42/bm25-go/bm25"
	"github.com/go-ego/gse"

	"github.com/shanle1117/workshop2-sub001/internal/knowledge"
	"github.com/shanle1117/workshop2-sub001/internal/logger"
	"github.com/shanle1117/workshop2-sub001/internal/textutil"
)

// BM25Result is a scored document from the context index.
type BM25Result struct {
	Index    int // position in the dataset snapshot the index was built from
	Question string
	Answer   string
	Category string
	Score    float64 // BM25 score (higher is better)
	Rank     int     // 1-indexed rank
}

// ContextIndex is a BM25 index over the full entry text (question, keywords
// and answer). It feeds the LLM responder with broader context than the
// single-entry retriever, and fuses with the TF-IDF ranking via FuseRRF.
type ContextIndex struct {
	okapi       *bm25.BM25Okapi
	entries     []knowledge.Entry
	tokenize    func(string) []string
	logger      *logger.Logger
	mu          sync.RWMutex
	initialized bool
}

// NewContextIndex creates an empty context index. The tokenizer uses gse
// word segmentation when its dictionary loads, falling back to plain
// whitespace tokenization otherwise.
func NewContextIndex(log *logger.Logger) *ContextIndex {
	log = log.WithModule("rag")
	return &ContextIndex{
		tokenize: newTokenizer(log),
		logger:   log,
	}
}

// Initialize builds the BM25 index from the entries. It replaces any
// previous state.
func (idx *ContextIndex) Initialize(entries []knowledge.Entry) error {
	if idx == nil {
		return nil
	}

	idx.mu.Lock()
	defer idx.mu.Unlock()

	idx.okapi = nil
	idx.entries = entries
	idx.initialized = false

	if len(entries) == 0 {
		idx.initialized = true
		return nil
	}

	corpus := make([]string, len(entries))
	for i, e := range entries {
		corpus[i] = e.MatchText() + " " + e.Answer
	}

	// k1=1.5, b=0.75 are standard BM25 parameters
	okapi, err := bm25.NewBM25Okapi(corpus, idx.tokenize, 1.5, 0.75, nil)
	if err != nil {
		return fmt.Errorf("failed to create BM25 index: %w", err)
	}
	idx.okapi = okapi
	idx.initialized = true

	idx.logger.WithField("docs", len(corpus)).Info("BM25 context index initialized")
	return nil
}

// Search returns up to topN entries ranked by BM25 score. Zero-score
// documents are dropped; ties break toward the lower dataset index.
func (idx *ContextIndex) Search(query string, topN int) ([]BM25Result, error) {
	if idx == nil {
		return nil, nil
	}

	idx.mu.RLock()
	defer idx.mu.RUnlock()

	if !idx.initialized || idx.okapi == nil {
		return nil, nil
	}
	if strings.TrimSpace(query) == "" {
		return nil, nil
	}

	tokens := idx.tokenize(query)
	if len(tokens) == 0 {
		return nil, nil
	}

	scores, err := idx.okapi.GetScores(tokens)
	if err != nil {
		return nil, fmt.Errorf("BM25 scoring failed: %w", err)
	}

	results := make([]BM25Result, 0, len(scores))
	for i, score := range scores {
		if score <= 0 {
			continue
		}
		e := idx.entries[i]
		results = append(results, BM25Result{
			Index:    i,
			Question: e.Question,
			Answer:   e.Answer,
			Category: e.Category,
			Score:    score,
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})

	for i := range results {
		results[i].Rank = i + 1
	}
	if topN > 0 && len(results) > topN {
		results = results[:topN]
	}
	return results, nil
}

// IsEnabled returns true if the index is initialized.
func (idx *ContextIndex) IsEnabled() bool {
	if idx == nil {
		return false
	}
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return idx.initialized && idx.okapi != nil
}

// Count returns the number of indexed documents.
func (idx *ContextIndex) Count() int {
	if idx == nil {
		return 0
	}
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return len(idx.entries)
}

// newTokenizer returns a tokenizer backed by gse word segmentation. When the
// embedded dictionary fails to load the tokenizer degrades to whitespace
// tokenization on the normalized text, which is all the English dataset
// needs anyway.
func newTokenizer(log *logger.Logger) func(string) []string {
	var seg gse.Segmenter
	if err := seg.LoadDict(); err != nil {
		log.WithError(err).Warn("gse dictionary load failed, using whitespace tokenizer")
		return textutil.Tokenize
	}

	return func(text string) []string {
		var tokens []string
		for _, cut := range seg.Cut(text, true) {
			if tok := textutil.Normalize(cut); tok != "" {
				tokens = append(tokens, tok)
			}
		}
		return tokens
	}
}
