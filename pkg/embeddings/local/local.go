// Package local provides an offline embeddings provider based on feature
// hashing.
//
// Tokens are hashed into a fixed-dimension bag-of-words vector. Texts that
// share vocabulary land close under cosine similarity, which is enough for
// coarse topic-relevance scoring when no remote embedding backend is
// configured. The output is fully deterministic: the same text always
// produces the same vector.
package local

import (
	"context"
	"hash/fnv"
	"math"
	"strings"
	"unicode"

	"orato/pkg/embeddings"
)

// DefaultDimensions is the hashed vector width. Wide enough that unrelated
// words rarely collide, small enough to stay cheap.
const DefaultDimensions = 512

var _ embeddings.Provider = (*Provider)(nil)

// Provider implements embeddings.Provider with deterministic token hashing.
type Provider struct {
	dims int
}

// New constructs a local hashing provider. dims <= 0 selects
// DefaultDimensions.
func New(dims int) *Provider {
	if dims <= 0 {
		dims = DefaultDimensions
	}
	return &Provider{dims: dims}
}

// Embed implements embeddings.Provider.
func (p *Provider) Embed(ctx context.Context, text string) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	vec := make([]float32, p.dims)
	for _, tok := range tokenize(text) {
		h := fnv.New64a()
		h.Write([]byte(tok))
		sum := h.Sum64()
		idx := int(sum % uint64(p.dims))
		// Second hash bit picks the sign so collisions partially cancel.
		sign := float32(1)
		if (sum>>32)&1 == 1 {
			sign = -1
		}
		vec[idx] += sign
	}
	normalize(vec)
	return vec, nil
}

// EmbedBatch implements embeddings.Provider.
func (p *Provider) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		v, err := p.Embed(ctx, t)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

// Dimensions implements embeddings.Provider.
func (p *Provider) Dimensions() int { return p.dims }

// ModelID implements embeddings.Provider.
func (p *Provider) ModelID() string { return "local-hashing-v1" }

func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

func normalize(vec []float32) {
	var sum float64
	for _, v := range vec {
		sum += float64(v) * float64(v)
	}
	if sum == 0 {
		return
	}
	inv := float32(1 / math.Sqrt(sum))
	for i := range vec {
		vec[i] *= inv
	}
}
