package indexer

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math"
	"sort"
	"unicode/utf8"
)

const (
	// ChunkerVersion identifies the chunking rules. Bump it when they change.
	ChunkerVersion = "window-v1"
	// RunesPerToken approximates token counts from character counts.
	RunesPerToken = 4.0
)

// CorpusStats summarises what the chunk store currently holds.
type CorpusStats struct {
	Documents       int             `json:"documents"`
	EmptyDocuments  int             `json:"empty_documents"`
	Chunks          int             `json:"chunks"`
	EmbeddedChunks  int             `json:"embedded_chunks"`
	ChunkTokenStats ChunkTokenStats `json:"chunk_token_stats"`
	ChunkerVersion  string          `json:"chunker_version"`
	// IndexVersion hashes the chunker version, embedding model and window size.
	IndexVersion string `json:"index_version"`
}

// ChunkTokenStats contains estimated token counts per chunk.
type ChunkTokenStats struct {
	Min  int     `json:"min"`
	Max  int     `json:"max"`
	Mean float64 `json:"mean"`
	P95  int     `json:"p95"`
}

// CorpusStats loads every stored document and computes coverage statistics.
func (p *Pipeline) CorpusStats(ctx context.Context, embedModel string) (*CorpusStats, error) {
	docs, err := p.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}

	stats := &CorpusStats{
		Documents:      len(docs),
		ChunkerVersion: ChunkerVersion,
		IndexVersion:   IndexVersion(embedModel, p.chunker.MaxChars()),
	}

	var tokenCounts []int
	for _, doc := range docs {
		chunks, err := p.store.Load(ctx, doc.DocID)
		if err != nil {
			return nil, fmt.Errorf("failed to load %s: %w", doc.DocID, err)
		}
		if len(chunks) == 0 {
			stats.EmptyDocuments++
			continue
		}
		for _, c := range chunks {
			stats.Chunks++
			if c.HasEmbedding() {
				stats.EmbeddedChunks++
			}
			tokens := int(math.Round(float64(utf8.RuneCountInString(c.Text)) / RunesPerToken))
			tokenCounts = append(tokenCounts, max(tokens, 1))
		}
	}

	stats.ChunkTokenStats = computeTokenStats(tokenCounts)
	return stats, nil
}

// IndexVersion returns a short hash identifying how chunks were produced and embedded.
func IndexVersion(embedModel string, maxChars int) string {
	input := fmt.Sprintf("%s|%s|maxChars=%d", ChunkerVersion, embedModel, maxChars)
	hash := sha256.Sum256([]byte(input))
	return hex.EncodeToString(hash[:])[:16]
}

func computeTokenStats(tokenCounts []int) ChunkTokenStats {
	if len(tokenCounts) == 0 {
		return ChunkTokenStats{}
	}

	sorted := append([]int(nil), tokenCounts...)
	sort.Ints(sorted)

	sum := 0
	for _, n := range sorted {
		sum += n
	}
	mean := float64(sum) / float64(len(sorted))

	p95Index := min(int(math.Ceil(float64(len(sorted))*0.95)), len(sorted)-1)

	return ChunkTokenStats{
		Min:  sorted[0],
		Max:  sorted[len(sorted)-1],
		Mean: math.Round(mean*100) / 100,
		P95:  sorted[p95Index],
	}
}
