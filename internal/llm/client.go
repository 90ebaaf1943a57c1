package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"docchat/internal/contextutil"
)

const maxResponseBytes = 32 << 20

// newHTTPClient returns a client whose Timeout bounds the whole exchange, body included.
func newHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{Timeout: timeout}
}

// Client talks to the Ollama chat API (/api/chat).
type Client struct {
	BaseURL string
	Options GenerationOptions
	client  *http.Client
}

// NewClient creates a new chat client. timeout bounds each request.
func NewClient(baseURL string, timeout time.Duration, opts GenerationOptions) *Client {
	return &Client{
		BaseURL: baseURL,
		Options: opts,
		client:  newHTTPClient(timeout),
	}
}

type chatOptions struct {
	Temperature float64 `json:"temperature"`
	TopP        float64 `json:"top_p"`
	NumPredict  int     `json:"num_predict"`
}

type chatRequest struct {
	Model    string      `json:"model"`
	Stream   bool        `json:"stream"`
	Options  chatOptions `json:"options"`
	Messages []Message   `json:"messages"`
}

// Chat sends one non-streaming chat request and returns the assistant's reply.
func (c *Client) Chat(ctx context.Context, params ChatParams) (string, error) {
	logger := contextutil.LoggerFromContext(ctx)

	payload := chatRequest{
		Model:  params.Model,
		Stream: false,
		Options: chatOptions{
			Temperature: c.Options.Temperature,
			TopP:        c.Options.TopP,
			NumPredict:  c.Options.MaxTokens,
		},
		Messages: []Message{
			{Role: "system", Content: fmt.Sprintf("[prompt_version=%s] %s", c.Options.PromptVersion, params.SystemPrompt)},
			{Role: "user", Content: params.UserMessage},
		},
	}

	start := time.Now()
	body, err := postJSON(ctx, c.client, c.BaseURL+"/api/chat", OpChat, payload)
	if err != nil {
		return "", err
	}

	reply, ok := decodeChatReply(body)
	if !ok {
		return "", payloadError(OpChat, errors.New("no assistant content found in response"))
	}

	logger.DebugContext(ctx, "chat completed",
		"model", params.Model,
		"reply_len", len(reply),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return reply, nil
}

// decodeChatReply accepts {"message":{"content":...}} and, failing that, the first
// assistant entry of {"messages":[...]}.
func decodeChatReply(body []byte) (string, bool) {
	var envelope struct {
		Message  json.RawMessage   `json:"message"`
		Messages []json.RawMessage `json:"messages"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		// messages may be something other than a list; retry with message alone
		var single struct {
			Message json.RawMessage `json:"message"`
		}
		if json.Unmarshal(body, &single) != nil {
			return "", false
		}
		envelope.Message = single.Message
		envelope.Messages = nil
	}

	type entry struct {
		Role    string  `json:"role"`
		Content *string `json:"content"`
	}

	if len(envelope.Message) > 0 {
		var msg entry
		if json.Unmarshal(envelope.Message, &msg) == nil && msg.Content != nil {
			return *msg.Content, true
		}
	}

	for _, raw := range envelope.Messages {
		var msg entry
		if json.Unmarshal(raw, &msg) != nil {
			continue
		}
		if msg.Role == "assistant" && msg.Content != nil {
			return *msg.Content, true
		}
	}
	return "", false
}

// postJSON sends payload and returns the body of a 200 response. Every failure is a *BackendError.
func postJSON(ctx context.Context, client *http.Client, url, op string, payload any) ([]byte, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, &BackendError{Op: op, Err: fmt.Errorf("failed to marshal request: %w", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, &BackendError{Op: op, Kind: KindTransport, Err: fmt.Errorf("failed to create request: %w", err)}
	}
	req.Header.Set("Content-Type", "application/json")

	return do(client, req, op)
}

func do(client *http.Client, req *http.Request, op string) ([]byte, error) {
	resp, err := client.Do(req)
	if err != nil {
		return nil, transportError(op, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, transportError(op, fmt.Errorf("failed to read response: %w", err))
	}

	if resp.StatusCode != http.StatusOK {
		return nil, statusError(op, resp.StatusCode, raw)
	}
	return raw, nil
}
