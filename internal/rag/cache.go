package rag

import (
	"context"

	"docchat/internal/contextutil"
)

// EmbeddingCache stores vectors keyed by embedding model and text.
type EmbeddingCache interface {
	Lookup(ctx context.Context, model, text string) ([]float64, bool, error)
	Store(ctx context.Context, model, text string, vector []float64) error
}

// CachingEmbedder memoizes an Embedder through an EmbeddingCache. Cache failures
// are logged and otherwise ignored; embedder failures are returned unchanged.
type CachingEmbedder struct {
	next  Embedder
	cache EmbeddingCache
	model string
}

// NewCachingEmbedder wraps next. model scopes the cache entries so vectors from
// different embedding models never mix.
func NewCachingEmbedder(next Embedder, cache EmbeddingCache, model string) *CachingEmbedder {
	return &CachingEmbedder{next: next, cache: cache, model: model}
}

// Embed returns the cached vector for text or computes and caches it.
func (e *CachingEmbedder) Embed(ctx context.Context, text string) ([]float64, error) {
	logger := contextutil.LoggerFromContext(ctx)

	vector, ok, err := e.cache.Lookup(ctx, e.model, text)
	switch {
	case err != nil:
		logger.WarnContext(ctx, "embedding cache lookup failed", "model", e.model, "error", err)
	case ok:
		return vector, nil
	}

	vector, err = e.next.Embed(ctx, text)
	if err != nil {
		return nil, err
	}

	if err := e.cache.Store(ctx, e.model, text, vector); err != nil {
		logger.WarnContext(ctx, "embedding cache store failed", "model", e.model, "error", err)
	}
	return vector, nil
}
