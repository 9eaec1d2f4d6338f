package rank

import (
	"log/slog"
	"math"
)

// Cosine computes the cosine similarity of two vectors, clamped to [0,1].
// Negative cosine is clamped to 0, not passed through.
// Returns ErrDimensionMismatch when lengths differ or either vector is
// empty or all-zero.
func Cosine(a, b []float32) (float64, error) {
	if len(a) == 0 || len(b) == 0 || len(a) != len(b) {
		return 0, ErrDimensionMismatch
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0, ErrDimensionMismatch
	}

	cos := dot / (math.Sqrt(normA) * math.Sqrt(normB))
	if cos < 0 {
		return 0, nil
	}
	if cos > 1 {
		// Floating point can push a self-comparison a hair past 1
		return 1, nil
	}
	return cos, nil
}

// SafeCosine recovers a dimension mismatch locally: the pair scores 0.0
// and a warning is logged. Mismatches never escape to callers.
func SafeCosine(a, b []float32, logger *slog.Logger) float64 {
	score, err := Cosine(a, b)
	if err != nil {
		if logger != nil {
			logger.Warn("similarity dimension mismatch, scoring 0", "lenA", len(a), "lenB", len(b))
		}
		return 0
	}
	return score
}

// Normalize scales a vector to unit length in place and returns it.
// Zero vectors are returned unchanged.
func Normalize(v []float32) []float32 {
	var norm float64
	for _, x := range v {
		norm += float64(x) * float64(x)
	}
	if norm == 0 {
		return v
	}
	inv := 1.0 / math.Sqrt(norm)
	for i := range v {
		v[i] = float32(float64(v[i]) * inv)
	}
	return v
}
