package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"docchat/internal/contextutil"
	"docchat/internal/indexer"
	"docchat/internal/service"
)

// multipartMemory is the part of a multipart body kept in memory; the rest spills to temp files.
const multipartMemory = 8 << 20

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error  string `json:"error"`
	Detail string `json:"detail,omitempty"`
}

// validationMessages maps a failed request field to the client-facing error text.
var validationMessages = map[string]string{
	"message": "Message is required",
	"files":   "No files uploaded",
}

// writeJSON writes v with the given status. HTML characters in evidence text are left unescaped.
func writeJSON(ctx context.Context, w http.ResponseWriter, statusCode int, v any) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		contextutil.LoggerFromContext(ctx).ErrorContext(ctx, "failed to encode response", "error", err)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"Failed to encode response"}` + "\n"))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_, _ = w.Write(buf.Bytes())
}

// writeError writes an error response.
func writeError(ctx context.Context, w http.ResponseWriter, statusCode int, message string) {
	writeJSON(ctx, w, statusCode, ErrorResponse{Error: message})
}

// handleServiceError maps service errors to appropriate HTTP status codes and responses.
func handleServiceError(ctx context.Context, w http.ResponseWriter, err error, defaultMsg string) {
	logger := contextutil.LoggerFromContext(ctx)

	var validationErr *service.ValidationError
	if errors.As(err, &validationErr) {
		logger.WarnContext(ctx, "request validation failed", "field", validationErr.Field)
		msg, ok := validationMessages[validationErr.Field]
		if !ok {
			msg = fmt.Sprintf("Validation error: %s", validationErr.Error())
		}
		writeError(ctx, w, http.StatusBadRequest, msg)
		return
	}

	logger.ErrorContext(ctx, "service error", "error", err)

	if errors.Is(err, service.ErrInvalidInput) {
		writeError(ctx, w, http.StatusBadRequest, "Invalid input")
		return
	}

	if errors.Is(err, service.ErrNotFound) {
		writeError(ctx, w, http.StatusNotFound, "Resource not found")
		return
	}

	if errors.Is(err, service.ErrExternalService) {
		writeJSON(ctx, w, http.StatusBadGateway, ErrorResponse{
			Error:  "Upstream Ollama error",
			Detail: service.UpstreamDetail(err),
		})
		return
	}

	// Default to internal server error
	writeError(ctx, w, http.StatusInternalServerError, defaultMsg)
}

// parseForm accepts multipart and urlencoded bodies. It reports whether the
// request could be parsed and has already answered the client when it could not.
func parseForm(ctx context.Context, w http.ResponseWriter, r *http.Request) bool {
	logger := contextutil.LoggerFromContext(ctx)

	err := r.ParseMultipartForm(multipartMemory)
	if errors.Is(err, http.ErrNotMultipart) {
		err = r.ParseForm()
	}
	if err == nil {
		return true
	}

	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		logger.WarnContext(ctx, "request body too large", "limit", tooLarge.Limit)
		writeError(ctx, w, http.StatusRequestEntityTooLarge, "Upload too large")
		return false
	}
	logger.WarnContext(ctx, "invalid form body", "error", err)
	writeError(ctx, w, http.StatusBadRequest, "Invalid form body")
	return false
}

// formFiles reads every upload in the named multipart field.
func formFiles(r *http.Request, field string) ([]indexer.File, error) {
	if r.MultipartForm == nil {
		return nil, nil
	}
	headers := r.MultipartForm.File[field]
	files := make([]indexer.File, 0, len(headers))
	for _, fh := range headers {
		data, err := readPart(fh)
		if err != nil {
			return nil, fmt.Errorf("failed to read upload %q: %w", fh.Filename, err)
		}
		files = append(files, indexer.File{Name: fh.Filename, Data: data})
	}
	return files, nil
}

func readPart(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = f.Close()
	}()
	return io.ReadAll(f)
}
