package textutil

import (
	"math"
)

// CosineSimilarity calculates the cosine similarity between two vectors.
// Returns 0 for empty or zero-magnitude vectors.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0.0
	}

	n := len(a)
	if len(b) < n {
		n = len(b)
	}

	var dot, normA, normB float64
	for i := 0; i < n; i++ {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	if normA == 0 || normB == 0 {
		return 0.0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// FallbackEmbedding produces a deterministic pseudo-embedding from character
// codes, used when no embedding provider is reachable. At most the first 128
// characters contribute one dimension each; empty text yields [0].
func FallbackEmbedding(text string) []float32 {
	if text == "" {
		return []float32{0.0}
	}

	runes := []rune(text)
	if len(runes) > 128 {
		runes = runes[:128]
	}

	embedding := make([]float32, len(runes))
	for i, r := range runes {
		embedding[i] = float32(int(r) % 31)
	}
	return embedding
}
