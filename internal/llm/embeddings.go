package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"docchat/internal/contextutil"
)

// EmbeddingsClient talks to the Ollama embeddings API (/api/embeddings).
type EmbeddingsClient struct {
	BaseURL string
	Model   string
	client  *http.Client
}

// NewEmbeddingsClient creates a new embeddings client. timeout bounds each request.
func NewEmbeddingsClient(baseURL, model string, timeout time.Duration) *EmbeddingsClient {
	return &EmbeddingsClient{
		BaseURL: baseURL,
		Model:   model,
		client:  newHTTPClient(timeout),
	}
}

// ModelName returns the embedding model, which scopes cached vectors.
func (c *EmbeddingsClient) ModelName() string {
	return c.Model
}

type embeddingsRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	Stream bool   `json:"stream"`
}

// Embed returns the embedding of text. It never returns an empty vector without an error.
func (c *EmbeddingsClient) Embed(ctx context.Context, text string) ([]float64, error) {
	logger := contextutil.LoggerFromContext(ctx)

	start := time.Now()
	body, err := postJSON(ctx, c.client, c.BaseURL+"/api/embeddings", OpEmbeddings, embeddingsRequest{
		Model:  c.Model,
		Prompt: text,
		Stream: false,
	})
	if err != nil {
		return nil, err
	}

	vector, err := decodeEmbedding(body)
	if err != nil {
		return nil, payloadError(OpEmbeddings, err)
	}

	logger.DebugContext(ctx, "embedding computed",
		"model", c.Model,
		"dims", len(vector),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return vector, nil
}

// decodeEmbedding accepts {"embedding":[...]} and {"data":[{"embedding":[...]}]}, in that order.
func decodeEmbedding(body []byte) ([]float64, error) {
	var bare struct {
		Embedding []float64 `json:"embedding"`
	}
	if err := json.Unmarshal(body, &bare); err == nil && len(bare.Embedding) > 0 {
		return bare.Embedding, nil
	}

	var list struct {
		Data []struct {
			Embedding []float64 `json:"embedding"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &list); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	if len(list.Data) > 0 && len(list.Data[0].Embedding) > 0 {
		return list.Data[0].Embedding, nil
	}

	return nil, errors.New("no embedding vector found in response")
}
