package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"docchat/internal/service"
	"docchat/internal/storage"
)

// DocsHandler lists stored documents and shows their chunks.
type DocsHandler struct {
	documents service.DocumentService
}

// NewDocsHandler creates a new DocsHandler.
func NewDocsHandler(documents service.DocumentService) *DocsHandler {
	return &DocsHandler{documents: documents}
}

// DocsResponse is the body of GET /docs.
type DocsResponse struct {
	Documents []storage.DocumentSummary `json:"documents"`
}

// DocumentResponse is the body of GET /docs/{docID}.
type DocumentResponse struct {
	DocID  string          `json:"doc_id"`
	Chunks []storage.Chunk `json:"chunks"`
}

// List handles GET /docs.
func (h *DocsHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	docs, err := h.documents.List(ctx)
	if err != nil {
		handleServiceError(ctx, w, err, "Failed to list documents")
		return
	}
	writeJSON(ctx, w, http.StatusOK, DocsResponse{Documents: docs})
}

// Show handles GET /docs/{docID}.
func (h *DocsHandler) Show(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	docID := chi.URLParam(r, "docID")

	chunks, err := h.documents.Chunks(ctx, docID)
	if err != nil {
		handleServiceError(ctx, w, err, "Failed to load document")
		return
	}
	writeJSON(ctx, w, http.StatusOK, DocumentResponse{DocID: docID, Chunks: chunks})
}
