package handlers

import (
	"net/http"
	"strings"

	"docchat/internal/contextutil"
	"docchat/internal/service"
)

// ChatHandler handles HTTP requests for chat.
type ChatHandler struct {
	chatService service.ChatService
}

// NewChatHandler creates a new ChatHandler.
func NewChatHandler(chatService service.ChatService) *ChatHandler {
	return &ChatHandler{chatService: chatService}
}

// ChatResponse represents the HTTP response payload for chat.
type ChatResponse struct {
	Mode       string          `json:"mode"`
	DocID      *string         `json:"doc_id"`
	UsedChunks []UsedChunkJSON `json:"used_chunks"`
	Reply      string          `json:"reply"`
}

// UsedChunkJSON identifies one evidence chunk in a chat response.
type UsedChunkJSON struct {
	DocID    string `json:"doc_id"`
	FileName string `json:"file_name"`
	Index    int    `json:"index"`
}

// ServeHTTP handles POST /chat. The body is a form with fields mode, message,
// doc_id and any number of files.
func (h *ChatHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
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

	// Convert HTTP request to service request
	svcReq := service.ChatRequest{
		Mode:    strings.TrimSpace(r.FormValue("mode")),
		Message: r.FormValue("message"),
		DocID:   strings.TrimSpace(r.FormValue("doc_id")),
		Files:   files,
	}

	svcResp, err := h.chatService.Chat(ctx, svcReq)
	if err != nil {
		handleServiceError(ctx, w, err, "Failed to process chat request")
		return
	}

	// Convert service response to HTTP response
	resp := ChatResponse{
		Mode:       svcResp.Mode,
		DocID:      svcResp.DocID,
		UsedChunks: make([]UsedChunkJSON, 0, len(svcResp.UsedChunks)),
		Reply:      svcResp.Reply,
	}
	for _, c := range svcResp.UsedChunks {
		resp.UsedChunks = append(resp.UsedChunks, UsedChunkJSON{
			DocID:    c.DocID,
			FileName: c.FileName,
			Index:    c.Index,
		})
	}

	writeJSON(ctx, w, http.StatusOK, resp)
}
