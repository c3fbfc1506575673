package similarity

import "math"

// CosineSimilarity returns the cosine of the angle between a and b.
// Vectors of different length are not comparable and yield ok=false.
// A zero-norm vector on either side yields 0.
func CosineSimilarity(a, b []float32) (score float64, ok bool) {
	if len(a) != len(b) {
		return 0, false
	}

	var dot, normA, normB float64
	for i := range a {
		x := float64(a[i])
		y := float64(b[i])
		dot += x * y
		normA += x * x
		normB += y * y
	}

	if normA == 0 || normB == 0 {
		return 0, true
	}

	score = dot / (math.Sqrt(normA) * math.Sqrt(normB))

	// Clamp float drift so identical vectors never report 1.0000000002
	if score > 1 {
		score = 1
	} else if score < -1 {
		score = -1
	}
	return score, true
}

// Normalize scales vec to unit length. Zero vectors are returned unchanged.
func Normalize(vec []float32) []float32 {
	var magnitude float64
	for _, v := range vec {
		magnitude += float64(v) * float64(v)
	}
	magnitude = math.Sqrt(magnitude)

	if magnitude == 0 {
		return vec
	}

	normalized := make([]float32, len(vec))
	for i, v := range vec {
		normalized[i] = float32(float64(v) / magnitude)
	}
	return normalized
}
