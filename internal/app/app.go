// Package app builds the component graph shared by the HTTP server and the CLI.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"docchat/internal/config"
	apphttp "docchat/internal/http"
	"docchat/internal/indexer"
	"docchat/internal/llm"
	"docchat/internal/rag"
	"docchat/internal/service"
	"docchat/internal/storage"
	"docchat/internal/vectorstore"
)

var (
	_ rag.EmbeddingCache = (*storage.EmbeddingCache)(nil)
	_ rag.EmbeddingCache = (*vectorstore.QdrantCache)(nil)
	_ service.ChatClient = (*llm.Client)(nil)
	_ service.Retriever  = (*rag.Retriever)(nil)
	_ service.Ingester   = (*indexer.Pipeline)(nil)
)

// NewLogger builds the process logger from LOG_LEVEL and LOG_FORMAT.
func NewLogger(cfg *config.Config, w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}
	var handler slog.Handler
	if cfg.LogFormat == "json" {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}
	return slog.New(handler)
}

// App holds the wired components. Close releases the embedding cache.
type App struct {
	Config *config.Config

	Store      *storage.FileStore
	Pipeline   *indexer.Pipeline
	Embeddings *llm.EmbeddingsClient
	ChatClient *llm.Client
	Models     *llm.ModelCatalogue
	Retriever  *rag.Retriever

	ChatService     service.ChatService
	IngestService   service.IngestService
	DocumentService service.DocumentService

	cache   rag.EmbeddingCache
	closers []func() error
}

// New wires every component from cfg. The embedding cache backend is opened here,
// so New fails fast when SQLite or Qdrant is unusable.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	logger := slog.Default()

	store, err := storage.NewFileStore(cfg.DocStorePath)
	if err != nil {
		return nil, err
	}

	a := &App{
		Config:     cfg,
		Store:      store,
		Pipeline:   indexer.NewPipeline(store, indexer.NewChunker(cfg.MaxCharsPerChunk)),
		Embeddings: llm.NewEmbeddingsClient(cfg.OllamaHost, cfg.EmbedModel, cfg.EmbedTimeout),
		ChatClient: llm.NewClient(cfg.OllamaHost, cfg.ChatTimeout, llm.GenerationOptions{
			Temperature:   cfg.Temperature,
			TopP:          cfg.TopP,
			MaxTokens:     cfg.MaxTokens,
			PromptVersion: cfg.PromptVersion,
		}),
		Models: llm.NewModelCatalogue(cfg.OllamaHost, cfg.EmbedTimeout),
	}

	if err := a.openCache(ctx); err != nil {
		_ = a.Close()
		return nil, err
	}

	var embedder rag.Embedder = a.Embeddings
	if a.cache != nil {
		embedder = rag.NewCachingEmbedder(a.Embeddings, a.cache, cfg.EmbedModel)
	}
	a.Retriever = rag.NewRetriever(embedder, cfg.TopKChunks)

	a.ChatService = service.NewChatService(a.ChatClient, a.Retriever, store, a.Pipeline, service.ChatModels{
		General:   cfg.GeneralModel,
		Reasoning: cfg.ReasoningModel,
	})
	a.IngestService = service.NewIngestService(a.Pipeline)
	a.DocumentService = service.NewDocumentService(store)

	logger.InfoContext(ctx, "application wired",
		"doc_store", cfg.DocStorePath,
		"embed_cache", cfg.EmbedCache,
		"general_model", cfg.GeneralModel,
		"reasoning_model", cfg.ReasoningModel,
		"embed_model", cfg.EmbedModel,
	)
	return a, nil
}

func (a *App) openCache(ctx context.Context) error {
	cfg := a.Config
	logger := slog.Default()

	switch cfg.EmbedCache {
	case config.CacheSQLite:
		db, err := storage.New(cfg.EmbedCachePath)
		if err != nil {
			return fmt.Errorf("failed to open embedding cache: %w", err)
		}
		a.closers = append(a.closers, db.Close)
		if err := storage.Migrate(db); err != nil {
			return fmt.Errorf("failed to migrate embedding cache: %w", err)
		}
		a.cache = storage.NewEmbeddingCache(db)
		logger.InfoContext(ctx, "embedding cache ready", "backend", cfg.EmbedCache, "path", cfg.EmbedCachePath)

	case config.CacheQdrant:
		qc, err := vectorstore.NewQdrantCache(cfg.QdrantURL, cfg.QdrantCollection, cfg.QdrantVectorSize)
		if err != nil {
			return err
		}
		a.closers = append(a.closers, qc.Close)
		if err := qc.EnsureCollection(ctx); err != nil {
			return fmt.Errorf("failed to prepare qdrant collection: %w", err)
		}
		a.cache = qc
		logger.InfoContext(ctx, "embedding cache ready", "backend", cfg.EmbedCache, "collection", cfg.QdrantCollection)

	case config.CacheNone:
		logger.InfoContext(ctx, "embedding cache disabled")
	}
	return nil
}

// CacheEntries returns the number of vectors held by the embedding cache,
// or 0 when caching is disabled.
func (a *App) CacheEntries(ctx context.Context) (int, error) {
	switch c := a.cache.(type) {
	case *storage.EmbeddingCache:
		return c.Count(ctx)
	case *vectorstore.QdrantCache:
		info, err := c.Info(ctx)
		if err != nil {
			return 0, err
		}
		return info.PointsCount, nil
	default:
		return 0, nil
	}
}

// RouterDeps returns the HTTP router dependencies for this App.
func (a *App) RouterDeps() *apphttp.Deps {
	cfg := a.Config
	return &apphttp.Deps{
		ChatService:     a.ChatService,
		IngestService:   a.IngestService,
		DocumentService: a.DocumentService,
		Store:           a.Store,
		Models:          a.Models,
		Stats:           a.Pipeline,
		RequiredModels:  []string{cfg.GeneralModel, cfg.ReasoningModel, cfg.EmbedModel},
		EmbedModel:      cfg.EmbedModel,
		Settings:        cfg.Summary(),
		MaxUploadBytes:  cfg.MaxUploadBytes,
	}
}

// Close releases resources in reverse order of acquisition.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
