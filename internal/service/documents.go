package service

import (
	"context"
	"strings"

	"docchat/internal/storage"
)

// DocumentService exposes the stored documents.
type DocumentService interface {
	// List returns every stored document with its chunk count.
	List(ctx context.Context) ([]storage.DocumentSummary, error)
	// Chunks returns the stored chunks of docID, or ErrNotFound when it has none.
	Chunks(ctx context.Context, docID string) ([]storage.Chunk, error)
}

type documentService struct {
	store storage.ChunkStore
}

// NewDocumentService creates a new DocumentService.
func NewDocumentService(store storage.ChunkStore) DocumentService {
	return &documentService{store: store}
}

func (s *documentService) List(ctx context.Context) ([]storage.DocumentSummary, error) {
	docs, err := s.store.List(ctx)
	if err != nil {
		return nil, WrapError(err, "failed to list documents")
	}
	return docs, nil
}

func (s *documentService) Chunks(ctx context.Context, docID string) ([]storage.Chunk, error) {
	if strings.TrimSpace(docID) == "" {
		return nil, WrapError(ErrInvalidInput, "doc_id is required")
	}
	chunks, err := s.store.Load(ctx, docID)
	if err != nil {
		return nil, WrapError(err, "failed to load document")
	}
	if len(chunks) == 0 {
		return nil, WrapError(ErrNotFound, "document "+docID)
	}
	return chunks, nil
}
