package service

import (
	"cmp"
	"math"
	"slices"

	"github.com/cloo-solutions/folio/internal/domain"
)

const (
	// DefaultTopK is the number of chunks considered per query.
	DefaultTopK = 5
	// RelevanceFloor is the similarity a chunk must exceed to be kept.
	RelevanceFloor = 0.2
)

// scoredChunk pairs a chunk index with its similarity to the query
type scoredChunk struct {
	index      int
	similarity float64
}

// CosineSimilarity returns dot(a,b) / (|a|*|b|). It is 0 when either vector
// has zero magnitude or the lengths differ.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		normA += x * x
		normB += y * y
	}

	if normA == 0 || normB == 0 {
		return 0
	}

	// A single sqrt keeps similarity(v, v) exactly 1.
	sim := dot / math.Sqrt(normA*normB)
	return math.Max(-1, math.Min(1, sim))
}

// Rank scores every corpus vector against query and returns at most topK
// results above RelevanceFloor, best first.
//
// The floor is applied after truncating to topK, so fewer than topK results
// may come back even when lower-ranked chunks would clear it.
func Rank(query []float32, vectors [][]float32, chunks []domain.KnowledgeChunk, topK int) ([]domain.RankedResult, error) {
	results, _, err := rank(query, vectors, chunks, topK)
	return results, err
}

func rank(query []float32, vectors [][]float32, chunks []domain.KnowledgeChunk, topK int) ([]domain.RankedResult, []scoredChunk, error) {
	if len(chunks) == 0 || len(vectors) == 0 {
		return nil, nil, domain.ErrCorpusNotReady
	}
	if len(chunks) != len(vectors) {
		return nil, nil, domain.ErrCorpusMisaligned
	}
	if topK <= 0 {
		topK = DefaultTopK
	}

	scored := scoreCorpus(query, vectors)

	top := scored[:min(topK, len(scored))]
	results := make([]domain.RankedResult, 0, len(top))
	for _, s := range top {
		if s.similarity <= RelevanceFloor {
			continue
		}
		chunk := chunks[s.index]
		results = append(results, domain.RankedResult{
			Text:       chunk.Text,
			Type:       chunk.Type,
			Similarity: s.similarity,
		})
	}

	return results, scored, nil
}

// scoreCorpus returns all chunks sorted by similarity descending; exact ties
// keep chunk index order.
func scoreCorpus(query []float32, vectors [][]float32) []scoredChunk {
	scored := make([]scoredChunk, len(vectors))
	for i, v := range vectors {
		scored[i] = scoredChunk{index: i, similarity: CosineSimilarity(query, v)}
	}

	slices.SortStableFunc(scored, func(a, b scoredChunk) int {
		return cmp.Compare(b.similarity, a.similarity)
	})

	return scored
}
