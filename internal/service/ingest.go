package service

import (
	"context"

	"docchat/internal/contextutil"
	"docchat/internal/indexer"
)

// Ingester stores files as a new document.
type Ingester interface {
	Ingest(ctx context.Context, files []indexer.File) (indexer.IngestResult, error)
}

// IngestService provides document ingestion.
type IngestService interface {
	// Ingest groups files under one new doc_id and persists their chunks.
	Ingest(ctx context.Context, files []indexer.File) (indexer.IngestResult, error)
}

type ingestService struct {
	ingester Ingester
}

// NewIngestService creates a new IngestService.
func NewIngestService(ingester Ingester) IngestService {
	return &ingestService{ingester: ingester}
}

func (s *ingestService) Ingest(ctx context.Context, files []indexer.File) (indexer.IngestResult, error) {
	logger := contextutil.LoggerFromContext(ctx)

	if len(files) == 0 {
		logger.WarnContext(ctx, "ingest request without files")
		return indexer.IngestResult{}, &ValidationError{
			Field:   "files",
			Message: "no files uploaded",
		}
	}

	result, err := s.ingester.Ingest(ctx, files)
	if err != nil {
		logger.ErrorContext(ctx, "failed to ingest files", "files", len(files), "error", err)
		return indexer.IngestResult{}, WrapError(err, "failed to ingest files")
	}
	return result, nil
}
