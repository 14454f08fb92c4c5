package embedder

import (
	"context"
	"fmt"

	"github.com/dgraph-io/ristretto"
)

const DefaultCacheSize = 10_000

// Cached кэширует эмбеддинги по тексту в ristretto
type Cached struct {
	inner Embedder
	cache *ristretto.Cache
}

// NewCached - size задаёт максимальное число векторов в кэше
func NewCached(inner Embedder, size int64) (*Cached, error) {
	if size <= 0 {
		size = DefaultCacheSize
	}

	cache, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: size * 10,
		MaxCost:     size,
		BufferItems: 64,
	})
	if err != nil {
		return nil, fmt.Errorf("create embedding cache: %w", err)
	}

	return &Cached{inner: inner, cache: cache}, nil
}

func (c *Cached) Embed(ctx context.Context, text string) ([]float32, error) {
	if v, ok := c.cache.Get(text); ok {
		return v.([]float32), nil
	}

	vec, err := c.inner.Embed(ctx, text)
	if err != nil {
		return nil, err
	}

	c.cache.Set(text, vec, 1)
	return vec, nil
}

// Wait дожидается применения буферизованных записей
func (c *Cached) Wait() {
	c.cache.Wait()
}

func (c *Cached) Close() {
	c.cache.Close()
}
