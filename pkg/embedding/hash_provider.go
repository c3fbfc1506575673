package embedding

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"math/rand/v2"

	"metrocare-be/pkg/similarity"
)

// HashProvider is the development placeholder: it derives a unit vector from
// the image reference itself, so the same reference always yields the same
// vector. It carries no visual meaning.
type HashProvider struct {
	dimensions int
}

func NewHashProvider(dimensions int) EmbeddingProvider {
	if dimensions <= 0 {
		dimensions = 512
	}
	return &HashProvider{dimensions: dimensions}
}

func (p *HashProvider) Generate(ctx context.Context, imageRef string) ([]float32, error) {
	if imageRef == "" {
		return nil, newGenerationError("hash", imageRef, ErrEmptyImageRef)
	}
	if err := ctx.Err(); err != nil {
		return nil, newGenerationError("hash", imageRef, err)
	}

	sum := sha256.Sum256([]byte(imageRef))
	rng := rand.New(rand.NewPCG(
		binary.BigEndian.Uint64(sum[0:8]),
		binary.BigEndian.Uint64(sum[8:16]),
	))

	values := make([]float32, p.dimensions)
	for i := range values {
		values[i] = float32(rng.Float64()*2 - 1)
	}
	return similarity.Normalize(values), nil
}
