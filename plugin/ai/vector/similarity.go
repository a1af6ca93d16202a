package vector

import "math"

// CosineSimilarity calculates cosine similarity between two vectors,
// clamped to [-1, 1] to absorb floating-point drift.
//
// Mismatched lengths and zero-norm vectors yield exactly 0. This is a
// deliberate safety default rather than an error: it lets callers keep
// scanning mixed-version data without raising.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dotProduct, normA, normB float64
	for i := range a {
		dotProduct += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	if normA == 0 || normB == 0 {
		return 0
	}

	sim := dotProduct / (math.Sqrt(normA) * math.Sqrt(normB))
	if sim > 1 {
		sim = 1
	} else if sim < -1 {
		sim = -1
	}
	return sim
}
