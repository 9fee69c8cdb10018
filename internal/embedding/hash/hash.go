// Package hash provides a deterministic local embedding backend based on
// signed feature hashing. It needs no model, no network and no preparation
// phase: every token is hashed into a fixed-dimension bucket vector which is
// then L2-normalized.
package hash

import (
	"context"
	"hash/fnv"
	"math"
	"regexp"
	"strings"
)

// DefaultDimensions is the vector size used when none is configured.
const DefaultDimensions = 256

// Embedder implements embedding.Backend.
type Embedder struct {
	dimensions   int
	tokenPattern *regexp.Regexp
}

// New creates a hashing embedder with the given dimensionality.
func New(dimensions int) *Embedder {
	if dimensions <= 0 {
		dimensions = DefaultDimensions
	}
	return &Embedder{
		dimensions:   dimensions,
		tokenPattern: regexp.MustCompile(`\p{L}+(?:['’]\p{L}+)*`),
	}
}

// Name returns the identifier of this backend.
func (e *Embedder) Name() string { return "hash" }

// Dimensions returns the fixed dimensionality of produced vectors.
func (e *Embedder) Dimensions() int { return e.dimensions }

// EmbedBatch embeds each text independently, in input order.
func (e *Embedder) EmbedBatch(ctx context.Context, texts []string) ([][]float64, error) {
	out := make([][]float64, len(texts))
	for i, text := range texts {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}
		out[i] = e.embed(text)
	}
	return out, nil
}

func (e *Embedder) embed(text string) []float64 {
	vec := make([]float64, e.dimensions)
	tokens := e.tokenPattern.FindAllString(strings.ToLower(text), -1)
	for _, tok := range tokens {
		h := fnv.New32a()
		_, _ = h.Write([]byte(tok))
		sum := h.Sum32()
		idx := int(sum % uint32(e.dimensions))
		// Signed hashing: the top hash bit picks the sign.
		if sum&0x80000000 != 0 {
			vec[idx]--
		} else {
			vec[idx]++
		}
	}
	// L2 normalize
	var norm float64
	for _, v := range vec {
		norm += v * v
	}
	norm = math.Sqrt(norm)
	if norm > 0 {
		for i := range vec {
			vec[i] /= norm
		}
	}
	return vec
}
