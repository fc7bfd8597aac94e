// Package rag provides the retrieval layer over the FAQ dataset.
// A TF-IDF cosine index drives the primary vector fallback; a BM25 index and
// rank fusion supply broader context for the optional LLM responder.
package rag

import (
	"math"
	"sync"

	"github.com/shanle1117/workshop2-sub001/internal/knowledge"
	"github.com/shanle1117/workshop2-sub001/internal/logger"
	"github.com/shanle1117/workshop2-sub001/internal/textutil"
)

// SimilarityIndex is a TF-IDF vector index with cosine scoring.
//
// Term frequency is the raw token count, IDF is the smoothed form
// ln((1+n)/(1+df)) + 1, and every document vector is L2-normalized, so the
// cosine of two vectors reduces to their dot product.
type SimilarityIndex struct {
	vocab   map[string]int // term -> vocabulary index
	idf     []float64      // per-term smoothed IDF
	docs    [][]float64    // L2-normalized document vectors (sparse via map would be overkill at this scale)
	logger  *logger.Logger
	mu      sync.RWMutex
	enabled bool
}

// NewSimilarityIndex creates an empty index.
func NewSimilarityIndex(log *logger.Logger) *SimilarityIndex {
	return &SimilarityIndex{
		vocab:  make(map[string]int),
		logger: log.WithModule("rag"),
	}
}

// Initialize builds the index from the entries' question text. Keywords are
// the first retrieval stage's concern and stay out of the vector space. It
// replaces any previous state.
func (idx *SimilarityIndex) Initialize(entries []knowledge.Entry) error {
	if idx == nil {
		return nil
	}

	idx.mu.Lock()
	defer idx.mu.Unlock()

	idx.vocab = make(map[string]int)
	idx.idf = nil
	idx.docs = nil
	idx.enabled = false

	if len(entries) == 0 {
		return nil
	}

	tokenized := make([][]string, len(entries))
	for i, e := range entries {
		tokens := textutil.Tokenize(e.Question)
		tokenized[i] = tokens
		for _, tok := range tokens {
			if _, ok := idx.vocab[tok]; !ok {
				idx.vocab[tok] = len(idx.vocab)
			}
		}
	}

	// Document frequency per term.
	df := make([]int, len(idx.vocab))
	for _, tokens := range tokenized {
		seen := make(map[int]bool, len(tokens))
		for _, tok := range tokens {
			seen[idx.vocab[tok]] = true
		}
		for termID := range seen {
			df[termID]++
		}
	}

	n := float64(len(entries))
	idx.idf = make([]float64, len(idx.vocab))
	for termID, freq := range df {
		idx.idf[termID] = math.Log((1+n)/(1+float64(freq))) + 1
	}

	idx.docs = make([][]float64, len(entries))
	for i, tokens := range tokenized {
		idx.docs[i] = idx.vectorizeLocked(tokens)
	}

	idx.enabled = true
	idx.logger.WithFields(map[string]any{
		"docs":  len(entries),
		"vocab": len(idx.vocab),
	}).Info("TF-IDF index initialized")
	return nil
}

// Similarities returns the cosine similarity of the query against every
// document, in document order. Returns nil when the index is empty or the
// query shares no vocabulary with the corpus.
func (idx *SimilarityIndex) Similarities(query string) []float64 {
	if idx == nil {
		return nil
	}

	idx.mu.RLock()
	defer idx.mu.RUnlock()

	if !idx.enabled {
		return nil
	}

	qv := idx.vectorizeLocked(textutil.Tokenize(query))
	if qv == nil {
		return nil
	}

	sims := make([]float64, len(idx.docs))
	for i, dv := range idx.docs {
		sims[i] = dot(qv, dv)
	}
	return sims
}

// Best returns the index and similarity of the most similar document.
// Ties break toward the lowest document index; the second return is false
// when nothing scored above zero.
func (idx *SimilarityIndex) Best(query string) (int, float64, bool) {
	sims := idx.Similarities(query)
	if len(sims) == 0 {
		return 0, 0, false
	}

	bestIdx, bestSim := 0, sims[0]
	for i, sim := range sims {
		if sim > bestSim {
			bestIdx, bestSim = i, sim
		}
	}
	if bestSim <= 0 {
		return 0, 0, false
	}
	return bestIdx, bestSim, true
}

// IsEnabled returns true if the index has been initialized with documents.
func (idx *SimilarityIndex) IsEnabled() bool {
	if idx == nil {
		return false
	}
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return idx.enabled
}

// Count returns the number of indexed documents.
func (idx *SimilarityIndex) Count() int {
	if idx == nil {
		return 0
	}
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return len(idx.docs)
}

// vectorizeLocked builds an L2-normalized TF-IDF vector for the tokens.
// Out-of-vocabulary tokens are ignored. Callers must hold at least a read
// lock. Returns nil for an all-zero vector.
func (idx *SimilarityIndex) vectorizeLocked(tokens []string) []float64 {
	if len(tokens) == 0 {
		return nil
	}

	vec := make([]float64, len(idx.vocab))
	hit := false
	for _, tok := range tokens {
		if termID, ok := idx.vocab[tok]; ok {
			vec[termID]++
			hit = true
		}
	}
	if !hit {
		return nil
	}

	var norm float64
	for termID := range vec {
		vec[termID] *= idx.idf[termID]
		norm += vec[termID] * vec[termID]
	}
	norm = math.Sqrt(norm)
	if norm == 0 {
		return nil
	}
	for termID := range vec {
		vec[termID] /= norm
	}
	return vec
}

func dot(a, b []float64) float64 {
	var sum float64
	for i := range a {
		sum += a[i] * b[i]
	}
	return sum
}
