package service_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"docchat/internal/indexer"
	"docchat/internal/llm"
	"docchat/internal/rag"
	"docchat/internal/service"
	"docchat/internal/service/mocks"
	"docchat/internal/storage"
	storage_mocks "docchat/internal/storage/mocks"

	"go.uber.org/mock/gomock"
)

func init() {
	// Set default logger to discard output for cleaner test output
	slog.SetDefault(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

// testContext returns a context for testing.
// The default logger is already set to discard in init().
func testContext() context.Context {
	return context.Background()
}

var testModels = service.ChatModels{General: "general-model", Reasoning: "reasoning-model"}

type chatMocks struct {
	client    *mocks.MockChatClient
	retriever *mocks.MockRetriever
	store     *storage_mocks.MockChunkStore
	chunker   *mocks.MockFileChunker
}

func newChatService(t *testing.T) (service.ChatService, chatMocks) {
	ctrl := gomock.NewController(t)
	m := chatMocks{
		client:    mocks.NewMockChatClient(ctrl),
		retriever: mocks.NewMockRetriever(ctrl),
		store:     storage_mocks.NewMockChunkStore(ctrl),
		chunker:   mocks.NewMockFileChunker(ctrl),
	}
	return service.NewChatService(m.client, m.retriever, m.store, m.chunker, testModels), m
}

func TestNewChatService(t *testing.T) {
	svc, _ := newChatService(t)
	if svc == nil {
		t.Fatal("NewChatService() returned nil")
	}
}

func TestChatService_Chat(t *testing.T) {
	stored := []storage.Chunk{
		{DocID: "DOC-0a1b2c3d", FileName: "policy.pdf", Index: 0, Text: "Passwords rotate every 90 days."},
		{DocID: "DOC-0a1b2c3d", FileName: "policy.pdf", Index: 1, Text: "MFA is required for admins."},
	}
	adHoc := []storage.Chunk{
		{DocID: "ADHOC", FileName: "notes.txt", Index: 0, Text: "Firewall review done in May."},
	}
	files := []indexer.File{{Name: "notes.txt", Data: []byte("Firewall review done in May.")}}

	tests := []struct {
		name      string
		req       service.ChatRequest
		mockSetup func(m chatMocks)
		wantErr   bool
		checkErr  func(error) bool
		checkResp func(t *testing.T, resp service.ChatResponse)
	}{
		{
			name: "no evidence sends the raw message to the general model",
			req:  service.ChatRequest{Message: "  What is PCI DSS?  "},
			mockSetup: func(m chatMocks) {
				m.client.EXPECT().
					Chat(gomock.Any(), gomock.Any()).
					DoAndReturn(func(_ context.Context, p llm.ChatParams) (string, error) {
						if p.Model != "general-model" {
							t.Errorf("model = %q, want general-model", p.Model)
						}
						if p.UserMessage != "What is PCI DSS?" {
							t.Errorf("user message = %q, want trimmed question", p.UserMessage)
						}
						if !strings.Contains(p.SystemPrompt, "assessor-grade") {
							t.Errorf("general system prompt expected, got %q", p.SystemPrompt)
						}
						return "A standard.", nil
					})
			},
			checkResp: func(t *testing.T, resp service.ChatResponse) {
				if resp.Mode != "general" {
					t.Errorf("Mode = %q, want general", resp.Mode)
				}
				if resp.DocID != nil {
					t.Errorf("DocID = %v, want nil", *resp.DocID)
				}
				if resp.UsedChunks == nil || len(resp.UsedChunks) != 0 {
					t.Errorf("UsedChunks = %v, want empty non-nil", resp.UsedChunks)
				}
				if resp.Reply != "A standard." {
					t.Errorf("Reply = %q", resp.Reply)
				}
			},
		},
		{
			name: "stored document evidence in reasoning mode",
			req:  service.ChatRequest{Mode: "reasoning", Message: "How often do passwords rotate?", DocID: "DOC-0a1b2c3d"},
			mockSetup: func(m chatMocks) {
				m.store.EXPECT().Load(gomock.Any(), "DOC-0a1b2c3d").Return(stored, nil)
				m.retriever.EXPECT().
					Retrieve(gomock.Any(), "How often do passwords rotate?", stored).
					Return([]rag.ScoredChunk{{Chunk: stored[0], Score: 0.9}}, nil)
				m.client.EXPECT().
					Chat(gomock.Any(), gomock.Any()).
					DoAndReturn(func(_ context.Context, p llm.ChatParams) (string, error) {
						if p.Model != "reasoning-model" {
							t.Errorf("model = %q, want reasoning-model", p.Model)
						}
						if !strings.Contains(p.SystemPrompt, "numbered steps") {
							t.Errorf("reasoning system prompt expected, got %q", p.SystemPrompt)
						}
						want := "You have access to retrieved evidence chunks below. " +
							"Use them when relevant, and call out when evidence is missing or ambiguous.\n\n" +
							"=== EVIDENCE START ===\n" +
							"[doc=DOC-0a1b2c3d file=policy.pdf idx=0]\nPasswords rotate every 90 days.\n" +
							"=== EVIDENCE END ===\n\n" +
							"User question: How often do passwords rotate?"
						if p.UserMessage != want {
							t.Errorf("user message =\n%q\nwant\n%q", p.UserMessage, want)
						}
						return "Every 90 days.", nil
					})
			},
			checkResp: func(t *testing.T, resp service.ChatResponse) {
				if resp.Mode != "reasoning" {
					t.Errorf("Mode = %q, want reasoning", resp.Mode)
				}
				if resp.DocID == nil || *resp.DocID != "DOC-0a1b2c3d" {
					t.Errorf("DocID = %v, want DOC-0a1b2c3d", resp.DocID)
				}
				want := []service.UsedChunk{{DocID: "DOC-0a1b2c3d", FileName: "policy.pdf", Index: 0}}
				if len(resp.UsedChunks) != 1 || resp.UsedChunks[0] != want[0] {
					t.Errorf("UsedChunks = %v, want %v", resp.UsedChunks, want)
				}
			},
		},
		{
			name: "ad-hoc files without doc_id use the ADHOC sentinel",
			req:  service.ChatRequest{Mode: "anything", Message: "firewall?", Files: files},
			mockSetup: func(m chatMocks) {
				m.chunker.EXPECT().ChunkFiles(gomock.Any(), "ADHOC", files).Return(adHoc)
				m.retriever.EXPECT().
					Retrieve(gomock.Any(), "firewall?", adHoc).
					Return([]rag.ScoredChunk{{Chunk: adHoc[0], Score: 0.5}}, nil)
				m.client.EXPECT().
					Chat(gomock.Any(), gomock.Any()).
					DoAndReturn(func(_ context.Context, p llm.ChatParams) (string, error) {
						if p.Model != "general-model" {
							t.Errorf("unknown mode should use the general model, got %q", p.Model)
						}
						return "Reviewed in May.", nil
					})
			},
			checkResp: func(t *testing.T, resp service.ChatResponse) {
				if resp.Mode != "anything" {
					t.Errorf("Mode = %q, want the requested mode echoed", resp.Mode)
				}
				if len(resp.UsedChunks) != 1 || resp.UsedChunks[0].DocID != "ADHOC" {
					t.Errorf("UsedChunks = %v", resp.UsedChunks)
				}
			},
		},
		{
			name: "stored and ad-hoc evidence are combined under the request doc_id",
			req:  service.ChatRequest{Message: "q", DocID: "DOC-0a1b2c3d", Files: files},
			mockSetup: func(m chatMocks) {
				adHocUnderDoc := []storage.Chunk{{DocID: "DOC-0a1b2c3d", FileName: "notes.txt", Index: 0, Text: "x"}}
				m.store.EXPECT().Load(gomock.Any(), "DOC-0a1b2c3d").Return(stored, nil)
				m.chunker.EXPECT().ChunkFiles(gomock.Any(), "DOC-0a1b2c3d", files).Return(adHocUnderDoc)
				m.retriever.EXPECT().
					Retrieve(gomock.Any(), "q", gomock.Len(3)).
					Return([]rag.ScoredChunk{}, nil)
				m.client.EXPECT().Chat(gomock.Any(), gomock.Any()).Return("ok", nil)
			},
			checkResp: func(t *testing.T, resp service.ChatResponse) {
				if resp.Reply != "ok" {
					t.Errorf("Reply = %q", resp.Reply)
				}
			},
		},
		{
			name: "unknown doc_id without files skips retrieval",
			req:  service.ChatRequest{Message: "q", DocID: "DOC-ffffffff"},
			mockSetup: func(m chatMocks) {
				m.store.EXPECT().Load(gomock.Any(), "DOC-ffffffff").Return([]storage.Chunk{}, nil)
				m.client.EXPECT().
					Chat(gomock.Any(), gomock.Any()).
					DoAndReturn(func(_ context.Context, p llm.ChatParams) (string, error) {
						if p.UserMessage != "q" {
							t.Errorf("user message = %q, want raw message", p.UserMessage)
						}
						return "no evidence", nil
					})
			},
			checkResp: func(t *testing.T, resp service.ChatResponse) {
				if resp.DocID == nil || *resp.DocID != "DOC-ffffffff" {
					t.Errorf("DocID should echo the request")
				}
			},
		},
		{
			name:      "empty message",
			req:       service.ChatRequest{Message: "   \n"},
			mockSetup: func(m chatMocks) {},
			wantErr:   true,
			checkErr: func(err error) bool {
				var validationErr *service.ValidationError
				return errors.As(err, &validationErr) && validationErr.Field == "message"
			},
		},
		{
			name: "store failure",
			req:  service.ChatRequest{Message: "q", DocID: "DOC-0a1b2c3d"},
			mockSetup: func(m chatMocks) {
				m.store.EXPECT().Load(gomock.Any(), "DOC-0a1b2c3d").Return(nil, errors.New("permission denied"))
			},
			wantErr: true,
			checkErr: func(err error) bool {
				return !errors.Is(err, service.ErrExternalService)
			},
		},
		{
			name: "embedding backend failure",
			req:  service.ChatRequest{Message: "q", DocID: "DOC-0a1b2c3d"},
			mockSetup: func(m chatMocks) {
				m.store.EXPECT().Load(gomock.Any(), "DOC-0a1b2c3d").Return(stored, nil)
				m.retriever.EXPECT().
					Retrieve(gomock.Any(), "q", stored).
					Return(nil, &llm.BackendError{Op: llm.OpEmbeddings, Kind: llm.KindTransport, Err: errors.New("dial tcp: refused")})
			},
			wantErr: true,
			checkErr: func(err error) bool {
				return errors.Is(err, service.ErrExternalService) &&
					service.UpstreamDetail(err) == "embeddings request failed: backend unreachable"
			},
		},
		{
			name: "chat backend failure",
			req:  service.ChatRequest{Message: "q"},
			mockSetup: func(m chatMocks) {
				m.client.EXPECT().
					Chat(gomock.Any(), gomock.Any()).
					Return("", &llm.BackendError{Op: llm.OpChat, Kind: llm.KindStatus, StatusCode: 500, Err: errors.New("model not found")})
			},
			wantErr: true,
			checkErr: func(err error) bool {
				return errors.Is(err, service.ErrExternalService) &&
					errors.Is(err, llm.ErrChatBackend) &&
					service.UpstreamDetail(err) == "chat failed with status 500"
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, m := newChatService(t)
			tt.mockSetup(m)

			resp, err := svc.Chat(testContext(), tt.req)

			if tt.wantErr {
				if err == nil {
					t.Fatalf("Chat() expected error, got nil")
				}
				if tt.checkErr != nil && !tt.checkErr(err) {
					t.Errorf("Chat() error check failed: %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Chat() unexpected error: %v", err)
			}
			if tt.checkResp != nil {
				tt.checkResp(t, resp)
			}
		})
	}
}

func TestFormatEvidence(t *testing.T) {
	chunks := []rag.ScoredChunk{
		{Chunk: storage.Chunk{DocID: "DOC-1", FileName: "a.txt", Index: 2, Text: "  first block \n"}},
		{Chunk: storage.Chunk{DocID: "ADHOC", FileName: "b.docx", Index: 0, Text: "second"}},
	}

	got := service.FormatEvidence(chunks)
	want := "[doc=DOC-1 file=a.txt idx=2]\nfirst block\n\n[doc=ADHOC file=b.docx idx=0]\nsecond"
	if got != want {
		t.Errorf("FormatEvidence() =\n%q\nwant\n%q", got, want)
	}

	if got := service.FormatEvidence(nil); got != "" {
		t.Errorf("FormatEvidence(nil) = %q, want empty", got)
	}
}

func TestBuildUserPrompt_NoEvidence(t *testing.T) {
	if got := service.BuildUserPrompt("hello", nil); got != "hello" {
		t.Errorf("BuildUserPrompt() = %q, want raw message", got)
	}
}
