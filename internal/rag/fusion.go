package rag

import (
	"sort"
)

const (
	// RRFConstant is the constant used in RRF formula: 1 / (k + rank)
	// Standard value is 60, which provides a good balance between
	// giving weight to top-ranked documents while not ignoring lower-ranked ones
	RRFConstant = 60

	// DefaultBM25Weight is the default weight for BM25 results in RRF fusion.
	// 0.4 means BM25 contributes 40% and the TF-IDF ranking contributes 60%.
	DefaultBM25Weight = 0.4
)

// VectorResult is a ranked TF-IDF document.
type VectorResult struct {
	Index      int
	Similarity float64
}

// TopVector converts raw per-document similarities into a ranked list,
// dropping zero scores. Ties keep dataset order.
func TopVector(sims []float64, topN int) []VectorResult {
	results := make([]VectorResult, 0, len(sims))
	for i, sim := range sims {
		if sim > 0 {
			results = append(results, VectorResult{Index: i, Similarity: sim})
		}
	}
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Similarity > results[j].Similarity
	})
	if topN > 0 && len(results) > topN {
		results = results[:topN]
	}
	return results
}

// HybridResult is a fused ranking entry keyed by dataset index.
type HybridResult struct {
	Index      int
	Question   string
	Answer     string
	Category   string
	BM25Score  float64 // 0 if not found by BM25
	VectorSim  float64 // 0 if not found by TF-IDF
	RRFScore   float64
	BM25Rank   int // 0 if not found by BM25
	VectorRank int // 0 if not found by TF-IDF
}

// FuseRRF combines BM25 and TF-IDF rankings using Reciprocal Rank Fusion.
//
// RRF formula: score(d) = Σ (w_i / (k + rank_i))
// where k is RRFConstant (60), rank_i is the rank in each source,
// and w_i is the weight for each source.
//
// bm25Weight is clamped to [0,1]; the vector weight is its complement.
// Results are sorted by RRF score descending and limited to topN.
func FuseRRF(bm25Results []BM25Result, vectorResults []VectorResult, bm25Weight float64, topN int) []HybridResult {
	if bm25Weight < 0 {
		bm25Weight = 0
	}
	if bm25Weight > 1 {
		bm25Weight = 1
	}
	vectorWeight := 1.0 - bm25Weight

	resultMap := make(map[int]*HybridResult)

	for i, r := range bm25Results {
		rank := i + 1
		score := bm25Weight / float64(RRFConstant+rank)
		resultMap[r.Index] = &HybridResult{
			Index:     r.Index,
			Question:  r.Question,
			Answer:    r.Answer,
			Category:  r.Category,
			BM25Score: r.Score,
			BM25Rank:  rank,
			RRFScore:  score,
		}
	}

	for i, r := range vectorResults {
		rank := i + 1
		score := vectorWeight / float64(RRFConstant+rank)
		if existing, ok := resultMap[r.Index]; ok {
			existing.VectorSim = r.Similarity
			existing.VectorRank = rank
			existing.RRFScore += score
		} else {
			resultMap[r.Index] = &HybridResult{
				Index:      r.Index,
				VectorSim:  r.Similarity,
				VectorRank: rank,
				RRFScore:   score,
			}
		}
	}

	results := make([]HybridResult, 0, len(resultMap))
	for _, r := range resultMap {
		results = append(results, *r)
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].RRFScore != results[j].RRFScore {
			return results[i].RRFScore > results[j].RRFScore
		}
		return results[i].Index < results[j].Index
	})

	if topN > 0 && len(results) > topN {
		results = results[:topN]
	}
	return results
}

// FuseRRFWithDefaults uses the default BM25 weight (0.4).
func FuseRRFWithDefaults(bm25Results []BM25Result, vectorResults []VectorResult, topN int) []HybridResult {
	return FuseRRF(bm25Results, vectorResults, DefaultBM25Weight, topN)
}
