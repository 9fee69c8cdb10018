package embedding

import (
	"math"
	"sort"

	"sitesearch/internal/domain"
)

// CosineSimilarity returns the cosine of the angle between a and b.
// Both vectors are expected to share dimensionality; the dot product runs
// over the shorter prefix while the norms cover each full vector.
func CosineSimilarity(a, b []float64) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var dot float64
	for i := 0; i < n; i++ {
		dot += a[i] * b[i]
	}
	var na, nb float64
	for _, v := range a {
		na += v * v
	}
	for _, v := range b {
		nb += v * v
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

// Scored pairs a chunk with its similarity to a query vector.
type Scored struct {
	Chunk domain.Chunk
	Score float64
}

// TopK scores every candidate against the query vector and returns the k
// best, highest score first. This is a full O(n log n) scan, fine for the
// corpus sizes this system targets.
func TopK(query []float64, candidates []domain.Chunk, k int) []Scored {
	scored := make([]Scored, len(candidates))
	for i, c := range candidates {
		scored[i] = Scored{Chunk: c, Score: CosineSimilarity(query, c.Vector)}
	}
	sort.SliceStable(scored, func(i, j int) bool { return scored[i].Score > scored[j].Score })
	if k < 0 {
		k = 0
	}
	if k > len(scored) {
		k = len(scored)
	}
	return scored[:k]
}
