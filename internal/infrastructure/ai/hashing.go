package ai

import (
	"context"
	"hash/fnv"
	"math"

	"github.com/alchemorsel/kitchen/internal/domain/ingredient"
	"github.com/alchemorsel/kitchen/internal/ports/outbound"
)

// HashingEmbedder builds vectors locally by hashing character trigrams into
// a fixed number of buckets. Names that share spelling land close together,
// which is enough for development and tests without a model server.
type HashingEmbedder struct {
	dimension int
}

var _ outbound.Embedder = (*HashingEmbedder)(nil)

// NewHashingEmbedder creates an embedder producing vectors of dimension length
func NewHashingEmbedder(dimension int) *HashingEmbedder {
	if dimension <= 0 {
		dimension = 64
	}
	return &HashingEmbedder{dimension: dimension}
}

// Dimension returns the vector length
func (h *HashingEmbedder) Dimension() int {
	return h.dimension
}

// Embed returns the unit-length bucket histogram of text's trigrams. Text
// without letters or digits embeds to the zero vector.
func (h *HashingEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	vec := make([]float32, h.dimension)
	normalized := []rune(" " + ingredient.NormalizeName(text) + " ")
	for i := 0; i+3 <= len(normalized); i++ {
		hasher := fnv.New32a()
		_, _ = hasher.Write([]byte(string(normalized[i : i+3])))
		sum := hasher.Sum32()

		// the top bit picks a sign so collisions partly cancel
		sign := float32(1)
		if sum&(1<<31) != 0 {
			sign = -1
		}
		vec[int(sum%uint32(h.dimension))] += sign
	}

	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}
	if norm == 0 {
		return vec, nil
	}
	scale := float32(1 / math.Sqrt(norm))
	for i := range vec {
		vec[i] *= scale
	}
	return vec, nil
}
