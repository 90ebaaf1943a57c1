package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"docchat/internal/handlers"
	"docchat/internal/service"
)

// Deps holds dependencies for the HTTP router.
type Deps struct {
	ChatService     service.ChatService
	IngestService   service.IngestService
	DocumentService service.DocumentService
	Store           handlers.StoreChecker
	Models          handlers.ModelChecker
	Stats           handlers.StatsProvider
	// RequiredModels are checked by /health.
	RequiredModels []string
	EmbedModel     string
	Settings       map[string]any
	MaxUploadBytes int64
}

// NewRouter creates a new HTTP router with the provided dependencies.
func NewRouter(deps *Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(LoggerMiddleware)
	r.Use(RequestLogger)
	r.Use(middleware.Recoverer)
	r.Use(CORS)

	chatHandler := handlers.NewChatHandler(deps.ChatService)
	ingestHandler := handlers.NewIngestHandler(deps.IngestService)
	docsHandler := handlers.NewDocsHandler(deps.DocumentService)

	// Uploads are bounded; the read-only routes are not.
	r.Group(func(r chi.Router) {
		if deps.MaxUploadBytes > 0 {
			r.Use(middleware.RequestSize(deps.MaxUploadBytes))
		}
		r.Method(http.MethodPost, "/ingest", ingestHandler)
		r.Method(http.MethodPost, "/chat", chatHandler)
	})

	r.Get("/docs", docsHandler.List)
	r.Get("/docs/{docID}", docsHandler.Show)
	r.Method(http.MethodGet, "/settings", handlers.NewSettingsHandler(deps.Settings))
	r.Method(http.MethodGet, "/stats", handlers.NewStatsHandler(deps.Stats, deps.EmbedModel))
	r.Method(http.MethodGet, healthPath, handlers.NewHealthHandler(deps.Store, deps.Models, deps.RequiredModels...))

	return r
}
