// Package embeddings defines the Provider interface for vector embedding
// backends.
//
// The effectiveness analyzer uses embeddings to measure how close a speech
// transcript stays to its announced topic: transcript and topic are embedded
// and compared by cosine similarity. Any backend that maps text to dense
// float32 vectors can serve; when no remote backend is configured, the local
// hashing provider keeps topic relevance working offline.
//
// Implementations must be safe for concurrent use.
package embeddings

import (
	"context"
	"math"
)

// Provider is the abstraction over any text-embedding backend.
//
// All vectors returned by a single Provider instance share the same
// dimensionality (returned by Dimensions). Vectors from different Provider
// instances must not be mixed in one similarity computation.
type Provider interface {
	// Embed computes the embedding vector for a single text string. Returns
	// a float32 slice of length Dimensions() or an error if the request
	// fails or ctx is cancelled.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch computes embeddings for several texts in one provider
	// call. The returned slice has the same length as texts and the i-th
	// element corresponds to texts[i]. On error the entire slice is nil;
	// partial results are not returned.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Dimensions returns the fixed length of every vector produced by this
	// provider.
	Dimensions() int

	// ModelID returns the provider-specific model identifier, for logging
	// and for ensuring consistent model usage across a request.
	ModelID() string
}

// Cosine returns the cosine similarity of two vectors in [-1, 1]. Vectors
// of different lengths or zero magnitude yield 0.
func Cosine(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		na += x * x
		nb += y * y
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
