// Package embedding turns batches of text into numeric vectors and provides
// similarity scoring and top-K selection over them.
package embedding

import "context"

// Backend is the opaque text-to-vector function. Implementations return one
// vector per input text, in input order, all with the same dimensionality.
// Mixing dimensionalities within one store corrupts similarity math.
type Backend interface {
	Name() string
	Dimensions() int
	EmbedBatch(ctx context.Context, texts []string) ([][]float64, error)
}
