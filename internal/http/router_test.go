package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"docchat/internal/indexer"
	"docchat/internal/service"
	"docchat/internal/service/mocks"
	"docchat/internal/storage"

	"go.uber.org/mock/gomock"
)

type okStore struct{}

func (okStore) CheckWritable() error { return nil }

type okModels struct{}

func (okModels) MissingModels(ctx context.Context, wanted ...string) ([]string, error) {
	return nil, nil
}

type emptyStats struct{}

func (emptyStats) CorpusStats(ctx context.Context, embedModel string) (*indexer.CorpusStats, error) {
	return &indexer.CorpusStats{ChunkerVersion: indexer.ChunkerVersion}, nil
}

func newTestRouter(t *testing.T) (http.Handler, *mocks.MockChatService, *mocks.MockIngestService, *mocks.MockDocumentService) {
	ctrl := gomock.NewController(t)
	chat := mocks.NewMockChatService(ctrl)
	ingest := mocks.NewMockIngestService(ctrl)
	docs := mocks.NewMockDocumentService(ctrl)

	router := NewRouter(&Deps{
		ChatService:     chat,
		IngestService:   ingest,
		DocumentService: docs,
		Store:           okStore{},
		Models:          okModels{},
		Stats:           emptyStats{},
		RequiredModels:  []string{"llama3.1:8b"},
		EmbedModel:      "llama3.1:8b",
		Settings:        map[string]any{"top_k_chunks": 12},
		MaxUploadBytes:  64,
	})
	return router, chat, ingest, docs
}

func TestNewRouter(t *testing.T) {
	router, _, _, _ := newTestRouter(t)
	if router == nil {
		t.Fatal("NewRouter() returned nil")
	}
}

func TestRouter_Routes(t *testing.T) {
	tests := []struct {
		name       string
		method     string
		path       string
		setup      func(chat *mocks.MockChatService, docs *mocks.MockDocumentService)
		wantStatus int
	}{
		{
			name:       "GET /health",
			method:     http.MethodGet,
			path:       "/health",
			wantStatus: http.StatusOK,
		},
		{
			name:       "GET /settings",
			method:     http.MethodGet,
			path:       "/settings",
			wantStatus: http.StatusOK,
		},
		{
			name:       "GET /stats",
			method:     http.MethodGet,
			path:       "/stats",
			wantStatus: http.StatusOK,
		},
		{
			name:   "GET /docs",
			method: http.MethodGet,
			path:   "/docs",
			setup: func(chat *mocks.MockChatService, docs *mocks.MockDocumentService) {
				docs.EXPECT().List(gomock.Any()).Return([]storage.DocumentSummary{}, nil)
			},
			wantStatus: http.StatusOK,
		},
		{
			name:   "GET /docs/{docID}",
			method: http.MethodGet,
			path:   "/docs/DOC-aaaaaaaa",
			setup: func(chat *mocks.MockChatService, docs *mocks.MockDocumentService) {
				docs.EXPECT().Chunks(gomock.Any(), "DOC-aaaaaaaa").Return(nil, service.ErrNotFound)
			},
			wantStatus: http.StatusNotFound,
		},
		{
			name:       "GET /chat method not allowed",
			method:     http.MethodGet,
			path:       "/chat",
			wantStatus: http.StatusMethodNotAllowed,
		},
		{
			name:       "unknown route",
			method:     http.MethodGet,
			path:       "/api/ask",
			wantStatus: http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router, chat, _, docs := newTestRouter(t)
			if tt.setup != nil {
				tt.setup(chat, docs)
			}

			req := httptest.NewRequest(tt.method, tt.path, nil)
			w := httptest.NewRecorder()

			router.ServeHTTP(w, req)

			if w.Code != tt.wantStatus {
				t.Errorf("Router %s %s status = %v, want %v", tt.method, tt.path, w.Code, tt.wantStatus)
			}
		})
	}
}

func TestRouter_UploadLimit(t *testing.T) {
	router, _, _, _ := newTestRouter(t)

	body := strings.NewReader("message=" + strings.Repeat("x", 1024))
	req := httptest.NewRequest(http.MethodPost, "/chat", body)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	if w.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("Router POST /chat status = %v, want %v", w.Code, http.StatusRequestEntityTooLarge)
	}
}

func TestRouter_MiddlewareApplied(t *testing.T) {
	router, chat, _, _ := newTestRouter(t)
	chat.EXPECT().
		Chat(gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, req service.ChatRequest) (service.ChatResponse, error) {
			return service.ChatResponse{Mode: "general", UsedChunks: []service.UsedChunk{}, Reply: "ok"}, nil
		})

	req := httptest.NewRequest(http.MethodPost, "/chat", strings.NewReader("message=hi"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("Router POST /chat status = %v, want %v", w.Code, http.StatusOK)
	}
	// Check CORS headers are present
	if w.Header().Get("Access-Control-Allow-Origin") == "" {
		t.Error("Router should apply CORS middleware")
	}
}
