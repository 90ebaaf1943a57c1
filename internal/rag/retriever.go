package rag

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_embedder.go -package=mocks docchat/internal/rag Embedder,EmbeddingCache

import (
	"context"
	"fmt"
	"sort"

	"docchat/internal/contextutil"
	"docchat/internal/storage"
)

// DefaultTopK is the number of chunks returned when no positive K is configured.
const DefaultTopK = 12

// Embedder computes the embedding of a piece of text.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float64, error)
}

// ScoredChunk is a candidate chunk with its similarity to the question.
type ScoredChunk struct {
	Chunk storage.Chunk
	Score float64
}

// Retriever ranks candidate chunks against a question by cosine similarity.
// It keeps no state between calls.
type Retriever struct {
	embedder Embedder
	topK     int
}

// NewRetriever creates a new Retriever. A non-positive topK selects DefaultTopK.
func NewRetriever(embedder Embedder, topK int) *Retriever {
	if topK <= 0 {
		topK = DefaultTopK
	}
	return &Retriever{embedder: embedder, topK: topK}
}

// TopK returns the maximum number of chunks Retrieve returns.
func (r *Retriever) TopK() int {
	return r.topK
}

// Retrieve returns the top K candidates by descending similarity to question.
// Candidates lacking an embedding are embedded first and the vector is assigned
// to candidates[i] in place; nothing is written to the store. Equal scores keep
// their input order. An empty candidate set returns without calling the embedder.
func (r *Retriever) Retrieve(ctx context.Context, question string, candidates []storage.Chunk) ([]ScoredChunk, error) {
	logger := contextutil.LoggerFromContext(ctx)

	if len(candidates) == 0 {
		return []ScoredChunk{}, nil
	}

	embedded := 0
	for i := range candidates {
		if candidates[i].HasEmbedding() {
			continue
		}
		vector, err := r.embedder.Embed(ctx, candidates[i].Text)
		if err != nil {
			return nil, fmt.Errorf("failed to embed chunk %s/%d: %w", candidates[i].DocID, candidates[i].Index, err)
		}
		candidates[i].Embedding = vector
		embedded++
	}

	questionVector, err := r.embedder.Embed(ctx, question)
	if err != nil {
		return nil, fmt.Errorf("failed to embed question: %w", err)
	}

	scored := make([]ScoredChunk, len(candidates))
	for i, c := range candidates {
		scored[i] = ScoredChunk{Chunk: c, Score: Cosine(questionVector, c.Embedding)}
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})

	if len(scored) > r.topK {
		scored = scored[:r.topK]
	}

	logger.InfoContext(ctx, "retrieval completed",
		"candidates", len(candidates),
		"embedded", embedded,
		"returned", len(scored),
		"top_score", scored[0].Score,
	)
	for rank, s := range scored {
		logger.DebugContext(ctx, "retrieved chunk",
			"rank", rank+1,
			"score", s.Score,
			"doc_id", s.Chunk.DocID,
			"file_name", s.Chunk.FileName,
			"index", s.Chunk.Index,
		)
	}

	return scored, nil
}
