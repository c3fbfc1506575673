package embedding

import (
	"context"
	"slices"
	"time"

	"github.com/patrickmn/go-cache"
)

// CachedProvider memoises vectors per image reference. Failures are not cached.
type CachedProvider struct {
	inner EmbeddingProvider
	cache *cache.Cache
}

func NewCachedProvider(inner EmbeddingProvider, ttl time.Duration) *CachedProvider {
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	return &CachedProvider{
		inner: inner,
		cache: cache.New(ttl, 2*ttl),
	}
}

func (p *CachedProvider) Generate(ctx context.Context, imageRef string) ([]float32, error) {
	if x, found := p.cache.Get(imageRef); found {
		return slices.Clone(x.([]float32)), nil
	}

	values, err := p.inner.Generate(ctx, imageRef)
	if err != nil {
		return nil, err
	}

	// callers own the returned slice; the cache keeps its own copy
	p.cache.Set(imageRef, slices.Clone(values), cache.DefaultExpiration)
	return values, nil
}

// Len reports how many image references are currently cached.
func (p *CachedProvider) Len() int {
	return p.cache.ItemCount()
}
