// Package ranking combines interest similarity and quality scores into
// admission decisions and maintains the interest vector.
package ranking

import (
	"math"
)

// Engine computes final scores from similarity and quality components.
type Engine struct {
	similarityWeight float64
	qualityWeight    float64
	threshold        float64
}

func NewEngine(similarityWeight, qualityWeight, threshold float64) *Engine {
	return &Engine{
		similarityWeight: similarityWeight,
		qualityWeight:    qualityWeight,
		threshold:        threshold,
	}
}

// Decide returns the weighted final score and whether the article is
// admitted to the queue. Admission requires the score to strictly exceed
// the threshold.
func (e *Engine) Decide(similarity, quality float64) (float64, bool) {
	score := e.similarityWeight*similarity + e.qualityWeight*quality
	return score, score > e.threshold
}

// Cosine returns the cosine similarity of two vectors. Mismatched
// lengths, empty vectors and zero-magnitude vectors all yield 0 so a
// degenerate embedding never admits an article on its own.
func Cosine(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	if normA == 0 || normB == 0 {
		return 0
	}

	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// UpdateVector blends a liked article's embedding into the interest
// vector with learning rate alpha. An empty current vector adopts the
// article embedding outright, which seeds the profile on the first like.
func UpdateVector(current, article []float32, alpha float64) []float32 {
	if len(article) == 0 {
		return current
	}
	if len(current) != len(article) {
		updated := make([]float32, len(article))
		copy(updated, article)
		return updated
	}

	updated := make([]float32, len(current))
	for i := range current {
		updated[i] = current[i]*float32(1-alpha) + article[i]*float32(alpha)
	}

	return updated
}
