package embedding

import (
	"context"
	"errors"
	"fmt"
)

// EmbeddingProvider turns one image reference (URL or storage key) into a
// fixed-length feature vector. Implementations make no bit-exact
// reproducibility guarantee; callers only compare vectors by similarity.
type EmbeddingProvider interface {
	Generate(ctx context.Context, imageRef string) ([]float32, error)
}

// ErrEmptyImageRef is returned when the caller passes a blank image reference.
var ErrEmptyImageRef = errors.New("image reference is empty")

// GenerationError is returned by every provider when an image cannot be
// fetched, decoded or embedded.
type GenerationError struct {
	ImageRef string
	Provider string
	Err      error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("%s embedding failed for %q: %v", e.Provider, e.ImageRef, e.Err)
}

func (e *GenerationError) Unwrap() error {
	return e.Err
}

func newGenerationError(provider, imageRef string, err error) *GenerationError {
	return &GenerationError{ImageRef: imageRef, Provider: provider, Err: err}
}

// NewGenerationError is exported for adapters living in sub-packages.
func NewGenerationError(provider, imageRef string, err error) *GenerationError {
	return newGenerationError(provider, imageRef, err)
}

// DimensionGuard rejects vectors whose length differs from the deployment dimensionality.
type DimensionGuard struct {
	inner      EmbeddingProvider
	dimensions int
}

func NewDimensionGuard(inner EmbeddingProvider, dimensions int) EmbeddingProvider {
	return &DimensionGuard{inner: inner, dimensions: dimensions}
}

func (g *DimensionGuard) Generate(ctx context.Context, imageRef string) ([]float32, error) {
	values, err := g.inner.Generate(ctx, imageRef)
	if err != nil {
		return nil, err
	}
	if g.dimensions > 0 && len(values) != g.dimensions {
		return nil, newGenerationError("guard", imageRef,
			fmt.Errorf("model returned %d dimensions, deployment expects %d", len(values), g.dimensions))
	}
	return values, nil
}
