// Package embedding turns posting text into dense vectors. The Gemini
// implementation is the production provider; an optional Redis layer
// caches vectors keyed by input text and model.
package embedding

import (
	"context"
	"fmt"
	"math"
)

// Provider produces embedding vectors for text.
type Provider interface {
	// Embed returns the vector for a single text.
	Embed(ctx context.Context, text string) ([]float32, error)
	// EmbedBatch returns one vector per input text, in order.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	// Dimensions is the length of every vector the provider returns.
	Dimensions() int
	// Model identifies the embedding model.
	Model() string
	// Close releases underlying resources.
	Close() error
}

// Error wraps a failure from the embedding provider.
type Error struct {
	Model string
	Err   error
}

func (e *Error) Error() string {
	return fmt.Sprintf("embedding failed (model %s): %v", e.Model, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Normalize scales a vector to unit L2 length in place and returns it.
// Zero vectors are returned unchanged.
func Normalize(vec []float32) []float32 {
	var sum float64
	for _, v := range vec {
		sum += float64(v) * float64(v)
	}
	if sum == 0 {
		return vec
	}
	norm := float32(math.Sqrt(sum))
	for i := range vec {
		vec[i] /= norm
	}
	return vec
}
