package handlers

import (
	"net/http"

	"docchat/internal/contextutil"
	"docchat/internal/service"
)

// IngestHandler handles document uploads.
type IngestHandler struct {
	ingestService service.IngestService
}

// NewIngestHandler creates a new IngestHandler.
func NewIngestHandler(ingestService service.IngestService) *IngestHandler {
	return &IngestHandler{ingestService: ingestService}
}

// ServeHTTP handles POST /ingest. Every file of the multipart field "files" is
// stored under one new doc_id.
func (h *IngestHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	if r.Method != http.MethodPost {
		logger.WarnContext(ctx, "method not allowed", "method", r.Method)
		writeError(ctx, w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	if !parseForm(ctx, w, r) {
		return
	}

	files, err := formFiles(r, "files")
	if err != nil {
		logger.WarnContext(ctx, "failed to read uploads", "error", err)
		writeError(ctx, w, http.StatusBadRequest, "Invalid upload")
		return
	}

	result, err := h.ingestService.Ingest(ctx, files)
	if err != nil {
		handleServiceError(ctx, w, err, "Failed to store document")
		return
	}

	writeJSON(ctx, w, http.StatusOK, result)
}
