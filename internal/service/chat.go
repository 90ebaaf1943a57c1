package service

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_dependencies.go -package=mocks docchat/internal/service ChatClient,Retriever,FileChunker,Ingester
//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_services.go -package=mocks docchat/internal/service ChatService,IngestService,DocumentService

import (
	"context"
	"fmt"
	"strings"

	"docchat/internal/contextutil"
	"docchat/internal/indexer"
	"docchat/internal/llm"
	"docchat/internal/rag"
	"docchat/internal/storage"
)

// Chat modes. Any mode other than ModeReasoning is answered by the general model.
const (
	ModeGeneral   = "general"
	ModeReasoning = "reasoning"
)

// AdHocDocID labels chunks of files attached to a chat request without a doc_id.
const AdHocDocID = "ADHOC"

const (
	generalSystemPrompt = "You are a helpful assistant for PCI DSS v4 assessment and evidence review. " +
		"Write concise, assessor-grade responses with clear assumptions."

	reasoningSystemPrompt = "You are a careful PCI DSS v4 assessment assistant. " +
		"Think through edge cases and missing evidence explicitly. " +
		"Lay out reasoning in clear, numbered steps before conclusions."

	evidencePreamble = "You have access to retrieved evidence chunks below. " +
		"Use them when relevant, and call out when evidence is missing or ambiguous.\n\n"
)

// ChatClient is an interface for interacting with the chat model.
// This interface is defined from the service layer's perspective (consumer-first).
type ChatClient interface {
	// Chat sends one system/user exchange to the model and returns the reply.
	Chat(ctx context.Context, params llm.ChatParams) (string, error)
}

// Retriever ranks candidate chunks against a question.
type Retriever interface {
	Retrieve(ctx context.Context, question string, candidates []storage.Chunk) ([]rag.ScoredChunk, error)
}

// FileChunker turns files into unsaved chunks under a given doc_id.
type FileChunker interface {
	ChunkFiles(ctx context.Context, docID string, files []indexer.File) []storage.Chunk
}

// ChatModels names the model used for each mode.
type ChatModels struct {
	General   string
	Reasoning string
}

// ChatRequest represents a chat request in the domain layer.
type ChatRequest struct {
	Mode    string
	Message string
	// DocID selects a stored document as evidence. Empty means none.
	DocID string
	// Files are ad-hoc evidence for this request only; they are never stored.
	Files []indexer.File
}

// UsedChunk identifies a chunk that was passed to the model as evidence.
type UsedChunk struct {
	DocID    string `json:"doc_id"`
	FileName string `json:"file_name"`
	Index    int    `json:"index"`
}

// ChatResponse represents a chat response in the domain layer.
// DocID echoes the request doc_id and is nil when none was given.
type ChatResponse struct {
	Mode       string      `json:"mode"`
	DocID      *string     `json:"doc_id"`
	UsedChunks []UsedChunk `json:"used_chunks"`
	Reply      string      `json:"reply"`
}

// ChatService answers questions grounded in stored and ad-hoc evidence.
type ChatService interface {
	// Chat gathers evidence, retrieves the most relevant chunks and asks the model.
	Chat(ctx context.Context, req ChatRequest) (ChatResponse, error)
}

// chatService implements ChatService.
type chatService struct {
	client    ChatClient
	retriever Retriever
	store     storage.ChunkStore
	chunker   FileChunker
	models    ChatModels
}

// NewChatService creates a new ChatService.
func NewChatService(client ChatClient, retriever Retriever, store storage.ChunkStore, chunker FileChunker, models ChatModels) ChatService {
	return &chatService{
		client:    client,
		retriever: retriever,
		store:     store,
		chunker:   chunker,
		models:    models,
	}
}

// Chat processes a chat request.
func (s *chatService) Chat(ctx context.Context, req ChatRequest) (ChatResponse, error) {
	logger := contextutil.LoggerFromContext(ctx)

	message := strings.TrimSpace(req.Message)
	if message == "" {
		logger.WarnContext(ctx, "empty message in chat request")
		return ChatResponse{}, &ValidationError{
			Field:   "message",
			Message: "cannot be empty",
		}
	}

	// 1) Candidates: the stored document plus this request's uploads.
	candidates := []storage.Chunk{}
	if req.DocID != "" {
		stored, err := s.store.Load(ctx, req.DocID)
		if err != nil {
			logger.ErrorContext(ctx, "failed to load document chunks", "doc_id", req.DocID, "error", err)
			return ChatResponse{}, WrapError(err, "failed to load document chunks")
		}
		candidates = append(candidates, stored...)
	}
	if len(req.Files) > 0 {
		adHocID := req.DocID
		if adHocID == "" {
			adHocID = AdHocDocID
		}
		candidates = append(candidates, s.chunker.ChunkFiles(ctx, adHocID, req.Files)...)
	}

	// 2) Retrieval.
	relevant := []rag.ScoredChunk{}
	if len(candidates) > 0 {
		var err error
		relevant, err = s.retriever.Retrieve(ctx, message, candidates)
		if err != nil {
			logger.ErrorContext(ctx, "failed to retrieve evidence", "candidates", len(candidates), "error", err)
			return ChatResponse{}, backendFailure(err, "failed to retrieve evidence")
		}
	}

	// 3) Model selection.
	mode := req.Mode
	if mode == "" {
		mode = ModeGeneral
	}
	params := llm.ChatParams{
		Model:        s.models.General,
		SystemPrompt: generalSystemPrompt,
		UserMessage:  BuildUserPrompt(message, relevant),
	}
	if mode == ModeReasoning {
		params.Model = s.models.Reasoning
		params.SystemPrompt = reasoningSystemPrompt
	}

	// 4) Generation.
	reply, err := s.client.Chat(ctx, params)
	if err != nil {
		logger.ErrorContext(ctx, "failed to get LLM response", "model", params.Model, "error", err)
		return ChatResponse{}, backendFailure(err, "failed to get LLM response")
	}

	used := make([]UsedChunk, 0, len(relevant))
	for _, sc := range relevant {
		used = append(used, UsedChunk{
			DocID:    sc.Chunk.DocID,
			FileName: sc.Chunk.FileName,
			Index:    sc.Chunk.Index,
		})
	}

	var docID *string
	if req.DocID != "" {
		id := req.DocID
		docID = &id
	}

	logger.InfoContext(ctx, "chat request processed successfully",
		"mode", mode,
		"model", params.Model,
		"candidates", len(candidates),
		"used_chunks", len(used),
		"message_length", len(message),
		"reply_length", len(reply),
	)

	return ChatResponse{
		Mode:       mode,
		DocID:      docID,
		UsedChunks: used,
		Reply:      reply,
	}, nil
}

// FormatEvidence renders chunks as "[doc=<id> file=<name> idx=<i>]\n<text>" blocks separated by a blank line.
func FormatEvidence(chunks []rag.ScoredChunk) string {
	blocks := make([]string, 0, len(chunks))
	for _, sc := range chunks {
		blocks = append(blocks, fmt.Sprintf("[doc=%s file=%s idx=%d]\n%s",
			sc.Chunk.DocID, sc.Chunk.FileName, sc.Chunk.Index, strings.TrimSpace(sc.Chunk.Text)))
	}
	return strings.Join(blocks, "\n\n")
}

// BuildUserPrompt wraps message in the evidence template. Without evidence the message is sent as is.
func BuildUserPrompt(message string, chunks []rag.ScoredChunk) string {
	evidence := FormatEvidence(chunks)
	if evidence == "" {
		return message
	}
	return evidencePreamble +
		"=== EVIDENCE START ===\n" +
		evidence + "\n" +
		"=== EVIDENCE END ===\n\n" +
		"User question: " + message
}
