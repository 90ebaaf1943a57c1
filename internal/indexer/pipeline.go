package indexer

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"docchat/internal/contextutil"
	"docchat/internal/extract"
	"docchat/internal/storage"
)

const (
	docIDPrefix     = "DOC-"
	defaultFileName = "upload"
)

// NewDocID returns a fresh document id: "DOC-" followed by 8 lowercase hex characters.
func NewDocID() string {
	return docIDPrefix + strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
}

// Pipeline turns uploaded files into stored chunks: extract, chunk, append.
type Pipeline struct {
	store    storage.ChunkStore
	chunker  *Chunker
	extract  func(ctx context.Context, fileName string, data []byte) string
	newDocID func() string
}

// NewPipeline creates a new ingestion pipeline writing to store.
func NewPipeline(store storage.ChunkStore, chunker *Chunker) *Pipeline {
	return &Pipeline{
		store:    store,
		chunker:  chunker,
		extract:  extract.Text,
		newDocID: NewDocID,
	}
}

// ChunkFiles extracts and chunks files under docID. Indices run contiguously
// across all files in the order given. The result is not persisted.
func (p *Pipeline) ChunkFiles(ctx context.Context, docID string, files []File) []storage.Chunk {
	chunks := []storage.Chunk{}
	for _, f := range files {
		name := f.Name
		if name == "" {
			name = defaultFileName
		}

		text := p.extract(ctx, name, f.Data)
		for _, c := range p.chunker.Chunk(docID, name, text) {
			c.Index = len(chunks)
			chunks = append(chunks, c)
		}
	}
	return chunks
}

// Ingest stores files as a new document and returns its id and chunk count.
// Files that yield no text still produce a doc id, with zero chunks written.
func (p *Pipeline) Ingest(ctx context.Context, files []File) (IngestResult, error) {
	docID := p.newDocID()
	ctx = contextutil.WithAttrs(ctx, "doc_id", docID)
	logger := contextutil.LoggerFromContext(ctx)

	chunks := p.ChunkFiles(ctx, docID, files)

	written, err := p.store.Append(ctx, chunks)
	if err != nil {
		return IngestResult{}, fmt.Errorf("failed to store chunks for %s: %w", docID, err)
	}

	if written == 0 {
		logger.WarnContext(ctx, "no chunks generated", "files", len(files))
	} else {
		logger.InfoContext(ctx, "document ingested", "files", len(files), "chunks", written)
	}

	return IngestResult{DocID: docID, Chunks: written}, nil
}
